package cursor

// drawOutline synthesizes a one-pixel contrasting border around a
// glyph that would otherwise be invisible against matching
// backgrounds. The result is a (width+2) x (height+2) buffer holding
// the source centered, where every transparent output pixel adjacent
// (8-connected) to an opaque source pixel is painted solid opaque
// black. Pure and deterministic; the caller shifts the hotspot by
// (1,1).
func drawOutline(pix []byte, width, height int) []byte {
	outW := width + 2
	outH := height + 2
	out := make([]byte, outW*outH*4)

	for y := 0; y < height; y++ {
		copy(out[((y+1)*outW+1)*4:], pix[y*width*4:(y+1)*width*4])
	}

	for y := 0; y < outH; y++ {
		for x := 0; x < outW; x++ {
			i := (y*outW + x) << 2
			if out[i+3] != 0 {
				continue
			}
			// Adjacency is tested against the source, not the output,
			// so freshly painted border pixels cannot cascade into a
			// wider border.
			if opaqueNear(pix, width, height, x-1, y-1) {
				out[i] = 0
				out[i+1] = 0
				out[i+2] = 0
				out[i+3] = 0xff
			}
		}
	}

	return out
}

// opaqueNear reports whether any source pixel in the 3x3 neighborhood
// of (sx, sy) is opaque.
func opaqueNear(pix []byte, width, height, sx, sy int) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			x := sx + dx
			y := sy + dy
			if x < 0 || y < 0 || x >= width || y >= height {
				continue
			}
			if pix[(y*width+x)*4+3] != 0 {
				return true
			}
		}
	}
	return false
}

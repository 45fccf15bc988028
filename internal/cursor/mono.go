package cursor

// expandMono converts a legacy monochrome cursor into RGBA pixels.
// mask holds the AND mask rows stacked above the XOR mask rows, packed
// 1-bpp MSB first at the given row stride; height is the cursor height
// (half the bitmap height).
//
// Per-pixel rule:
//
//	AND=1 XOR=0  transparent
//	AND=0 XOR=0  opaque black
//	AND=0 XOR=1  opaque white
//	AND=1 XOR=1  screen invert; rendered here as opaque black, the
//	             closest fixed approximation of destination-invert a
//	             device-independent snapshot can carry
//
// The outline flag is always reported: a pure black-and-white glyph
// depends on the synthesized border for contrast on matching
// backgrounds.
func expandMono(mask []byte, width, height, stride int) ([]byte, bool) {
	pix := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			andBit := maskBit(mask, y*stride, x)
			xorBit := maskBit(mask, (height+y)*stride, x)
			i := (y*width + x) << 2
			switch {
			case andBit && !xorBit:
				// transparent, leave zeroed
			case !andBit && xorBit:
				pix[i] = 0xff
				pix[i+1] = 0xff
				pix[i+2] = 0xff
				pix[i+3] = 0xff
			default:
				// opaque black: plain (AND=0,XOR=0) or invert (AND=1,XOR=1)
				pix[i+3] = 0xff
			}
		}
	}
	return pix, true
}

// maskBit reads the 1-bpp bit for column x of the row starting at
// rowOff, MSB first within each byte. Out-of-range reads are treated
// as clear.
func maskBit(mask []byte, rowOff, x int) bool {
	i := rowOff + (x >> 3)
	if i >= len(mask) {
		return false
	}
	return mask[i]&(0x80>>(uint(x)&7)) != 0
}

package cursor

// reconcileMask merges a color cursor's 1-bpp shape mask into the RGBA
// pixels extracted from its color bitmap. mask holds packed rows at
// the device stride maskStride; pix holds width*height tightly packed
// 4-byte pixels in device (BGR) channel order.
//
// If the color bitmap already carries an alpha channel (any non-zero
// alpha byte), the mask is redundant: pix is left completely untouched
// and no outline is needed. Otherwise the mask is repacked and
// inverted, anti-aliased "inverted background" artifacts are converted
// to solid opaque black so viewers without the inversion trick render
// them consistently, channels are swapped to RGB, and alpha is written
// from the mask. The return value reports whether an outline pass may
// be needed.
//
// mask is scratch space and is clobbered by the repacking.
func reconcileMask(mask []byte, maskStride int, pix []byte, width, height int) bool {
	for i := 0; i < width*height; i++ {
		if pix[i*4+3] != 0 {
			return false
		}
	}

	packedStride := (width + 7) >> 3

	// Repack each mask row from the device stride into a tight stride,
	// inverting as we copy.
	for y := 0; y < height; y++ {
		for x := 0; x < packedStride; x++ {
			dst := y*packedStride + x
			src := y*maskStride + x
			if dst < len(mask) && src < len(mask) {
				mask[dst] = ^mask[src]
			}
		}
	}

	// Pixels the mask calls background but that still carry color are
	// remnants of the GDI screen-invert trick. Flip their mask bit to
	// opaque and zero the color bytes from the first non-zero one on,
	// leaving solid black.
	rowBytes := width << 2
	for y := 0; y < height; y++ {
		bit := byte(0x80)
		for x := 0; x < width; x++ {
			maskIdx := y*packedStride + (x >> 3)
			if maskIdx < len(mask) && mask[maskIdx]&bit == 0 {
				pixIdx := y*rowBytes + (x << 2)
				for b := 0; b < 4; b++ {
					if pixIdx+b >= len(pix) {
						break
					}
					if pix[pixIdx+b] != 0 {
						mask[maskIdx] ^= bit
						for z := b; z < 4; z++ {
							if pixIdx+z < len(pix) {
								pix[pixIdx+z] = 0
							}
						}
						break
					}
				}
			}
			bit >>= 1
			if bit == 0 {
				bit = 0x80
			}
		}
	}

	// BGR -> RGB, alpha from the packed mask bit (MSB first).
	pixIdx := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			maskIdx := y*packedStride + (x >> 3)
			var alpha byte = 255
			if maskIdx < len(mask) && (mask[maskIdx]<<(uint(x)&7))&0x80 == 0 {
				alpha = 0
			}
			pix[pixIdx], pix[pixIdx+2] = pix[pixIdx+2], pix[pixIdx]
			pix[pixIdx+3] = alpha
			pixIdx += 4
		}
	}

	return true
}

package cursor

import (
	"bytes"
	"testing"
)

// buildMask packs a boolean grid into 1-bpp rows at the given stride,
// MSB first. true means the bit is set (background, pre-invert OS
// convention).
func buildMask(bits [][]bool, stride int) []byte {
	mask := make([]byte, stride*len(bits))
	for y, row := range bits {
		for x, set := range row {
			if set {
				mask[y*stride+(x>>3)] |= 0x80 >> (uint(x) & 7)
			}
		}
	}
	return mask
}

func uniformMask(width, height, stride int, set bool) []byte {
	bits := make([][]bool, height)
	for y := range bits {
		bits[y] = make([]bool, width)
		for x := range bits[y] {
			bits[y][x] = set
		}
	}
	return buildMask(bits, stride)
}

func TestReconcileEarlyExitOnExistingAlpha(t *testing.T) {
	// Scenario: a 32x32 color cursor whose bitmap already carries an
	// alpha channel. The buffer must be returned byte-identical and no
	// outline requested.
	const w, h, stride = 32, 32, 4

	pix := make([]byte, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i] = 0x10
		pix[i+1] = 0x20
		pix[i+2] = 0x30
	}
	pix[(5*w+7)*4+3] = 200 // one pixel with real alpha

	mask := uniformMask(w, h, stride, true)
	maskCopy := append([]byte(nil), mask...)
	pixCopy := append([]byte(nil), pix...)

	if reconcileMask(mask, stride, pix, w, h) {
		t.Error("outline should not be requested on early exit")
	}
	if !bytes.Equal(pix, pixCopy) {
		t.Error("pixels must be untouched on early exit (no channel swap, no alpha edits)")
	}
	if !bytes.Equal(mask, maskCopy) {
		t.Error("mask must be untouched on early exit")
	}
}

func TestReconcileMarksInvertedBackgroundPixel(t *testing.T) {
	// Scenario: all alpha zero, exactly one pixel with a non-zero
	// color byte under a background mask bit. That pixel must become
	// opaque solid black.
	const w, h, stride = 32, 32, 4

	pix := make([]byte, w*h*4)
	const px, py = 3, 2
	pix[(py*w+px)*4+2] = 0x40 // device BGR: red channel at index 2

	// All bits set pre-invert = all background post-invert.
	mask := uniformMask(w, h, stride, true)

	if !reconcileMask(mask, stride, pix, w, h) {
		t.Fatal("non-early-exit path should report outline may be needed")
	}

	i := (py*w + px) * 4
	if pix[i] != 0 || pix[i+1] != 0 || pix[i+2] != 0 {
		t.Errorf("artifact pixel should be solid black, got %v", pix[i:i+3])
	}
	if pix[i+3] != 255 {
		t.Errorf("artifact pixel alpha = %d, want 255", pix[i+3])
	}

	// Every other pixel stays transparent.
	for j := 3; j < len(pix); j += 4 {
		if j == i+3 {
			continue
		}
		if pix[j] != 0 {
			t.Fatalf("pixel at byte %d should be transparent, alpha = %d", j, pix[j])
		}
	}
}

func TestReconcileAlphaIsBinaryAndChannelsSwap(t *testing.T) {
	const w, h, stride = 8, 2, 4

	// Foreground everywhere (pre-invert bits clear -> post-invert set).
	mask := uniformMask(w, h, stride, false)

	pix := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		pix[i*4] = 0xAA   // B
		pix[i*4+1] = 0xBB // G
		pix[i*4+2] = 0xCC // R
	}

	if !reconcileMask(mask, stride, pix, w, h) {
		t.Fatal("expected outline flag")
	}

	for i := 0; i < w*h; i++ {
		r, g, b, a := pix[i*4], pix[i*4+1], pix[i*4+2], pix[i*4+3]
		if a != 0 && a != 255 {
			t.Fatalf("alpha must be 0 or 255, got %d", a)
		}
		if r != 0xCC || g != 0xBB || b != 0xAA {
			t.Fatalf("channels not swapped: got %x %x %x", r, g, b)
		}
		if a != 255 {
			t.Fatalf("foreground pixel %d should be opaque", i)
		}
	}
}

func TestReconcileRepacksDeviceStride(t *testing.T) {
	// Width 8 needs 1 packed byte per row but the device stride is 4.
	// Foreground rows must survive the repacking.
	const w, h, stride = 8, 4, 4

	mask := uniformMask(w, h, stride, false)
	pix := make([]byte, w*h*4)

	if !reconcileMask(mask, stride, pix, w, h) {
		t.Fatal("expected outline flag")
	}
	for i := 3; i < len(pix); i += 4 {
		if pix[i] != 255 {
			t.Fatalf("pixel %d should be opaque after repack", i/4)
		}
	}
}

func TestReconcileFullyTransparentResult(t *testing.T) {
	// Background everywhere, no color bytes: the result is fully
	// transparent and the outline pass is still requested.
	const w, h, stride = 32, 32, 4

	mask := uniformMask(w, h, stride, true)
	pix := make([]byte, w*h*4)

	if !reconcileMask(mask, stride, pix, w, h) {
		t.Fatal("expected outline flag")
	}
	for i := 3; i < len(pix); i += 4 {
		if pix[i] != 0 {
			t.Fatalf("expected fully transparent buffer, alpha at %d = %d", i, pix[i])
		}
	}
}

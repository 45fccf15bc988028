//go:build windows

package cursor

import (
	"fmt"
	"unsafe"

	"github.com/lxn/win"
)

// Not defined in lxn/win.
const cursorShowing = 0x0001

// cursorInfo mirrors the Win32 CURSORINFO layout.
type cursorInfo struct {
	cbSize      uint32
	flags       uint32
	hCursor     uintptr
	ptScreenPos win.POINT
}

// Current resolves the cursor currently shown on screen. ok is false
// when the cursor is hidden.
func Current() (ref uintptr, ok bool, err error) {
	var ci cursorInfo
	ci.cbSize = uint32(unsafe.Sizeof(ci))
	r1, _, errno := procGetCursorInfo.Call(uintptr(unsafe.Pointer(&ci)))
	if r1 == 0 {
		return 0, false, &OSCallError{Op: "GetCursorInfo", Err: errno}
	}
	if ci.flags&cursorShowing == 0 {
		return 0, false, nil
	}
	return ci.hCursor, true, nil
}

// Capture converts a cursor reference into a normalized RGBA snapshot.
// All bitmap and DC resources acquired along the way are released
// before return on every path.
func Capture(ref uintptr) (*Snapshot, error) {
	ii, err := newIconInfo(ref)
	if err != nil {
		return nil, err
	}
	defer ii.release()

	bm, err := maskGeometry(ii.mask)
	if err != nil {
		return nil, err
	}

	width := int(bm.BmWidth)
	height := int(bm.BmHeight)
	if !ii.hasColor() {
		// Legacy monochrome cursors stack the AND mask over the XOR mask.
		height /= 2
	}
	if width*height*4 < 16 {
		return nil, ErrInvalidIcon
	}

	maskBits := make([]byte, int(bm.BmWidthBytes)*int(bm.BmHeight))
	n, _, errno := procGetBitmapBits.Call(
		uintptr(ii.mask),
		uintptr(len(maskBits)),
		uintptr(unsafe.Pointer(&maskBits[0])),
	)
	if n == 0 {
		return nil, &OSCallError{Op: "GetBitmapBits", Err: errno}
	}
	if int(n) != len(maskBits) {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrSizeMismatch, n, len(maskBits))
	}

	var pix []byte
	var needOutline bool
	if ii.hasColor() {
		pix = make([]byte, width*height*4)
		if err := extractColorBits(ii.color, width, height, pix); err != nil {
			return nil, err
		}
		needOutline = reconcileMask(maskBits, int(bm.BmWidthBytes), pix, width, height)
	} else {
		pix, needOutline = expandMono(maskBits, width, height, int(bm.BmWidthBytes))
	}

	hotX, hotY := ii.hotX, ii.hotY
	if needOutline {
		pix = drawOutline(pix, width, height)
		width += 2
		height += 2
		hotX++
		hotY++
	}

	return &Snapshot{
		ID:     uint64(ref),
		Width:  uint32(width),
		Height: uint32(height),
		HotX:   hotX,
		HotY:   hotY,
		Pixels: pix,
	}, nil
}

// maskGeometry queries the mask bitmap and rejects anything but a
// single-plane 1-bpp bitmap.
func maskGeometry(mask win.HBITMAP) (*win.BITMAP, error) {
	var bm win.BITMAP
	if win.GetObject(win.HGDIOBJ(mask), unsafe.Sizeof(bm), unsafe.Pointer(&bm)) == 0 {
		return nil, &OSCallError{Op: "GetObject"}
	}
	if bm.BmPlanes != 1 || bm.BmBitsPixel != 1 {
		return nil, fmt.Errorf("%w: %d planes, %d bpp", ErrUnsupportedFormat, bm.BmPlanes, bm.BmBitsPixel)
	}
	return &bm, nil
}

// extractColorBits reads the cursor's color bitmap as a top-down
// 32-bpp DIB into pix (device BGRA order) through a scoped memory DC.
func extractColorBits(color win.HBITMAP, width, height int, pix []byte) error {
	screen, err := newScreenDC()
	if err != nil {
		return err
	}
	defer screen.release()

	mem, err := newMemDC(screen.h)
	if err != nil {
		return err
	}
	defer mem.release()

	sel, err := selectBitmap(mem.h, color)
	if err != nil {
		return err
	}
	defer sel.release()

	var bi win.BITMAPINFO
	bi.BmiHeader.BiSize = uint32(unsafe.Sizeof(bi.BmiHeader))
	bi.BmiHeader.BiWidth = int32(width)
	bi.BmiHeader.BiHeight = -int32(height) // negative height = top-down rows
	bi.BmiHeader.BiPlanes = 1
	bi.BmiHeader.BiBitCount = 32
	bi.BmiHeader.BiCompression = win.BI_RGB

	if win.GetDIBits(mem.h, color, 0, uint32(height), &pix[0], &bi, win.DIB_RGB_COLORS) == 0 {
		return &OSCallError{Op: "GetDIBits"}
	}
	return nil
}

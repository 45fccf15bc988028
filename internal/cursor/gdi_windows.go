//go:build windows

package cursor

import (
	"fmt"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

// Scoped wrappers around GDI resources. Each type owns exactly one
// handle and releases it once; raw handles never leave this package.

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	gdi32  = windows.NewLazySystemDLL("gdi32.dll")

	procGetCursorInfo = user32.NewProc("GetCursorInfo")
	procGetIconInfo   = user32.NewProc("GetIconInfo")
	// GetBitmapBits is not exposed by lxn/win.
	procGetBitmapBits = gdi32.NewProc("GetBitmapBits")
)

// iconInfo owns the mask and color bitmaps resolved from a cursor
// handle.
type iconInfo struct {
	mask  win.HBITMAP
	color win.HBITMAP
	hotX  uint32
	hotY  uint32
}

// iconInfoData mirrors the Win32 ICONINFO layout.
type iconInfoData struct {
	fIcon    int32
	xHotspot uint32
	yHotspot uint32
	hbmMask  win.HBITMAP
	hbmColor win.HBITMAP
}

func newIconInfo(ref uintptr) (*iconInfo, error) {
	var ii iconInfoData
	r1, _, errno := procGetIconInfo.Call(ref, uintptr(unsafe.Pointer(&ii)))
	if r1 == 0 {
		return nil, fmt.Errorf("%w: GetIconInfo: %v", ErrInvalidHandle, errno)
	}
	if ii.hbmMask == 0 {
		// GetIconInfo succeeded but produced no mask bitmap.
		if ii.hbmColor != 0 {
			win.DeleteObject(win.HGDIOBJ(ii.hbmColor))
		}
		return nil, ErrInvalidHandle
	}
	return &iconInfo{
		mask:  ii.hbmMask,
		color: ii.hbmColor,
		hotX:  ii.xHotspot,
		hotY:  ii.yHotspot,
	}, nil
}

func (ii *iconInfo) hasColor() bool { return ii.color != 0 }

func (ii *iconInfo) release() {
	if ii.color != 0 {
		win.DeleteObject(win.HGDIOBJ(ii.color))
		ii.color = 0
	}
	if ii.mask != 0 {
		win.DeleteObject(win.HGDIOBJ(ii.mask))
		ii.mask = 0
	}
}

// screenDC owns a display device context.
type screenDC struct {
	h win.HDC
}

func newScreenDC() (*screenDC, error) {
	h := win.GetDC(0)
	if h == 0 {
		return nil, &OSCallError{Op: "GetDC"}
	}
	return &screenDC{h: h}, nil
}

func (d *screenDC) release() {
	if d.h != 0 {
		win.ReleaseDC(0, d.h)
		d.h = 0
	}
}

// memDC owns a memory device context compatible with an existing one.
type memDC struct {
	h win.HDC
}

func newMemDC(existing win.HDC) (*memDC, error) {
	h := win.CreateCompatibleDC(existing)
	if h == 0 {
		return nil, &OSCallError{Op: "CreateCompatibleDC"}
	}
	return &memDC{h: h}, nil
}

func (d *memDC) release() {
	if d.h != 0 {
		win.DeleteDC(d.h)
		d.h = 0
	}
}

// bitmapSelection owns a bitmap's selection into a memory DC and
// restores the previous selection on release.
type bitmapSelection struct {
	dc  win.HDC
	old win.HGDIOBJ
}

func selectBitmap(dc win.HDC, bmp win.HBITMAP) (*bitmapSelection, error) {
	old := win.SelectObject(dc, win.HGDIOBJ(bmp))
	if old == 0 {
		return nil, &OSCallError{Op: "SelectObject"}
	}
	return &bitmapSelection{dc: dc, old: old}, nil
}

func (s *bitmapSelection) release() {
	if s.old != 0 {
		win.SelectObject(s.dc, s.old)
		s.old = 0
	}
}

//go:build windows

package desktop

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	genericAll = 0x10000000
	uoiName    = 2 // GetUserObjectInformation: object name
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procOpenInputDesktop          = user32.NewProc("OpenInputDesktop")
	procCloseDesktop              = user32.NewProc("CloseDesktop")
	procGetThreadDesktop          = user32.NewProc("GetThreadDesktop")
	procSetThreadDesktop          = user32.NewProc("SetThreadDesktop")
	procGetUserObjectInformationW = user32.NewProc("GetUserObjectInformationW")
)

// Changed reports whether the input desktop differs from the one the
// calling thread is attached to.
func (s *Switcher) Changed() bool {
	return !inputDesktopSelected()
}

// TrySwitch attaches the calling thread to the current input desktop
// if it is not already there. Failures are logged through the
// switcher's rate limiter and reported as false.
func (s *Switcher) TrySwitch() bool {
	if inputDesktopSelected() {
		return false
	}

	hd, _, errno := procOpenInputDesktop.Call(0, 0, genericAll)
	if hd == 0 {
		s.logFailure(fmt.Errorf("OpenInputDesktop: %v", errno))
		return false
	}

	ok, _, errno := procSetThreadDesktop.Call(hd)
	if ok == 0 {
		procCloseDesktop.Call(hd)
		s.logFailure(fmt.Errorf("SetThreadDesktop: %v", errno))
		return false
	}

	// The desktop handle must stay open for as long as the thread uses
	// it, so it is intentionally not closed on success.
	s.logger.Info("input desktop switched")
	return true
}

// inputDesktopSelected compares the thread's desktop name with the
// input desktop name.
func inputDesktopSelected() bool {
	input, _, _ := procOpenInputDesktop.Call(0, 0, genericAll)
	if input == 0 {
		return false
	}
	defer procCloseDesktop.Call(input)

	tid := windows.GetCurrentThreadId()
	current, _, _ := procGetThreadDesktop.Call(uintptr(tid))
	if current == 0 {
		return false
	}

	inputName, err := desktopName(input)
	if err != nil {
		return false
	}
	currentName, err := desktopName(current)
	if err != nil {
		return false
	}
	return inputName == currentName
}

func desktopName(h uintptr) (string, error) {
	var buf [256]uint16
	var needed uint32
	r1, _, errno := procGetUserObjectInformationW.Call(
		h,
		uoiName,
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)*2),
		uintptr(unsafe.Pointer(&needed)),
	)
	if r1 == 0 {
		return "", fmt.Errorf("GetUserObjectInformation: %v", errno)
	}
	return windows.UTF16ToString(buf[:]), nil
}

//go:build !windows

package desktop

// Input desktops are a Windows concept; elsewhere there is nothing to
// reattach to.

// Changed reports whether the input desktop differs from the thread's.
func (s *Switcher) Changed() bool { return false }

// TrySwitch attaches the calling thread to the input desktop.
func (s *Switcher) TrySwitch() bool { return false }

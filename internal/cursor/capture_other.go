//go:build !windows

package cursor

// Cursor capture needs the Win32 icon and GDI APIs. Other platforms
// report ErrNotSupported so callers simply skip cursor updates.

// Current resolves the cursor currently shown on screen.
func Current() (ref uintptr, ok bool, err error) {
	return 0, false, ErrNotSupported
}

// Capture converts a cursor reference into a normalized RGBA snapshot.
func Capture(ref uintptr) (*Snapshot, error) {
	return nil, ErrNotSupported
}

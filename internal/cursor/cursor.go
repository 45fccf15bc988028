// Package cursor extracts a device-independent RGBA snapshot of the
// OS pointer for transmission to a remote viewer. Capture is stateless
// and reentrant: every call acquires and releases its own drawing
// resources, so concurrent captures of different cursors are
// independent.
package cursor

import (
	"errors"
	"fmt"
)

// Snapshot is one captured cursor image. Pixels are RGBA8 rows, top to
// bottom, len(Pixels) == Width*Height*4. The snapshot is owned by the
// caller and never mutated after return.
type Snapshot struct {
	ID     uint64
	Width  uint32
	Height uint32
	HotX   uint32
	HotY   uint32
	Pixels []byte
}

// Capture failure taxonomy. Failures are surfaced to the caller and
// never retried here; a cursor that cannot be captured this frame is
// simply skipped by the caller.
var (
	// ErrInvalidHandle means the cursor reference could not be
	// resolved to icon info.
	ErrInvalidHandle = errors.New("cursor: invalid cursor handle")
	// ErrUnsupportedFormat means the mask bitmap is not a single-plane
	// 1-bpp bitmap.
	ErrUnsupportedFormat = errors.New("cursor: unsupported mask bitmap format")
	// ErrInvalidIcon guards against malformed or zero-size cursors.
	ErrInvalidIcon = errors.New("cursor: invalid icon dimensions")
	// ErrSizeMismatch means the OS copied a different number of mask
	// bytes than requested.
	ErrSizeMismatch = errors.New("cursor: mask bits size mismatch")
	// ErrNotSupported is returned on platforms without cursor capture.
	ErrNotSupported = errors.New("cursor: not supported on this platform")
)

// OSCallError reports a failed OS drawing call.
type OSCallError struct {
	Op  string
	Err error
}

func (e *OSCallError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cursor: %s failed", e.Op)
	}
	return fmt.Sprintf("cursor: %s failed: %v", e.Op, e.Err)
}

func (e *OSCallError) Unwrap() error { return e.Err }

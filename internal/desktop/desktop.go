// Package desktop keeps the worker's thread attached to the current
// input desktop, so capture keeps working across the login screen and
// secure desktop transitions.
package desktop

import (
	"log/slog"
	"time"
)

// suppressWindow is how often a repeated switch failure is worth a log
// record. Switch attempts happen every capture tick; most failures are
// transient and identical.
const suppressWindow = 3 * time.Second

// Switcher reattaches the calling thread to the input desktop. The
// failure-log limiter is owned by the value rather than global state,
// so independent switchers rate-limit independently.
type Switcher struct {
	logger  *slog.Logger
	window  time.Duration
	lastLog time.Time
}

// NewSwitcher returns a Switcher logging through logger.
func NewSwitcher(logger *slog.Logger) *Switcher {
	return &Switcher{logger: logger, window: suppressWindow}
}

// logFailure records a switch failure, at most once per window.
func (s *Switcher) logFailure(err error) {
	if !s.lastLog.IsZero() && time.Since(s.lastLog) < s.window {
		return
	}
	s.lastLog = time.Now()
	s.logger.Error("failed to switch input desktop", "error", err)
}

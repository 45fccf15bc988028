//go:build windows

package ipc

import (
	"time"

	"github.com/Microsoft/go-winio"
)

// Control endpoints. The supervisor owns the service pipe; the worker
// for the served session owns the worker pipe.
const (
	ServiceEndpoint = `\\.\pipe\farview-svc`
	WorkerEndpoint  = `\\.\pipe\farview-worker`
)

// Listen creates a named-pipe control listener.
func Listen(endpoint string) (*Listener, error) {
	l, err := winio.ListenPipe(endpoint, nil)
	if err != nil {
		return nil, err
	}
	return NewListener(l), nil
}

// Dial connects to a control endpoint with a connect timeout.
func Dial(endpoint string, timeout time.Duration) (*Conn, error) {
	c, err := winio.DialPipe(endpoint, &timeout)
	if err != nil {
		return nil, err
	}
	return &Conn{c: c}, nil
}

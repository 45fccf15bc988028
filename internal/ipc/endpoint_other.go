//go:build !windows

package ipc

import (
	"fmt"
	"net"
	"os"
	"time"
)

// Control endpoints. Unix domain sockets stand in for the Windows
// named pipes on development platforms.
var (
	ServiceEndpoint = socketPath("farview-svc.sock")
	WorkerEndpoint  = socketPath("farview-worker.sock")
)

func socketPath(name string) string {
	return fmt.Sprintf("%s/%s", os.TempDir(), name)
}

// Listen creates a unix-socket control listener.
func Listen(endpoint string) (*Listener, error) {
	// A previous run may have left a stale socket behind.
	os.Remove(endpoint)

	l, err := net.Listen("unix", endpoint)
	if err != nil {
		return nil, err
	}
	return NewListener(l), nil
}

// Dial connects to a control endpoint with a connect timeout.
func Dial(endpoint string, timeout time.Duration) (*Conn, error) {
	c, err := net.DialTimeout("unix", endpoint, timeout)
	if err != nil {
		return nil, err
	}
	return &Conn{c: c}, nil
}

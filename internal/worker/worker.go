// Package worker is the per-session side of the agent. A worker is
// launched by the supervisor into one session, serves the frame stream
// for that session, keeps itself attached to the current input
// desktop, and exits when the supervisor tells it to.
package worker

import (
	"fmt"
	"log/slog"

	"github.com/farview/farview-agent/internal/config"
	"github.com/farview/farview-agent/internal/desktop"
	"github.com/farview/farview-agent/internal/ipc"
)

// Run serves until a close message arrives on the worker endpoint or
// the control listener fails.
func Run(cfg *config.Config, logger *slog.Logger) error {
	listener, err := ipc.Listen(ipc.WorkerEndpoint)
	if err != nil {
		return fmt.Errorf("worker endpoint: %w", err)
	}
	defer listener.Close()

	stream := NewStreamServer(cfg, logger)
	go func() {
		if err := stream.ListenAndServe(cfg.StreamAddr); err != nil {
			logger.Error("stream server stopped", "error", err)
		}
	}()
	defer stream.Close()

	sw := desktop.NewSwitcher(logger)
	logger.Info("worker running", "stream_addr", cfg.StreamAddr)

	for {
		conn, err := listener.AcceptTimeout(cfg.PollInterval())
		if err != nil {
			return fmt.Errorf("worker listener: %w", err)
		}
		if conn == nil {
			// Idle pass: follow the input desktop so capture keeps
			// working across logon screen and UAC transitions.
			if sw.Changed() {
				sw.TrySwitch()
			}
			continue
		}
		if handleConn(conn, cfg, logger) {
			logger.Info("close requested, worker exiting")
			return nil
		}
	}
}

// handleConn reads the single message a control connection carries.
// Reports whether the worker should exit.
func handleConn(conn *ipc.Conn, cfg *config.Config, logger *slog.Logger) bool {
	defer conn.Close()
	msg, err := conn.ReadTimeout(cfg.ReadTimeout())
	if err != nil {
		logger.Debug("control read failed", "error", err)
		return false
	}
	if msg.Type == ipc.MsgClose {
		return true
	}
	logger.Debug("unknown control message", "type", msg.Type)
	return false
}

// Package supervisor runs the privileged side of the agent: it keeps
// one worker process attached to the session that should be on screen,
// relaunches it when the session changes or the process dies, and
// serves control messages from workers and clients over local IPC.
package supervisor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/farview/farview-agent/internal/ipc"
	"github.com/farview/farview-agent/internal/session"
)

// Config carries the tunables the supervision loop runs with.
type Config struct {
	PollInterval time.Duration
	ReadTimeout  time.Duration
	WorkerWait   time.Duration
	ShareRDP     bool

	ServiceEndpoint string
	WorkerEndpoint  string
}

// Supervisor owns the session-bound worker lifecycle. New launches
// nothing; the first worker comes up on the first loop pass once a
// session is detected.
type Supervisor struct {
	cfg      Config
	logger   *slog.Logger
	enum     session.Enumerator
	launcher Launcher
	listener *ipc.Listener

	state  State
	worker *Worker
}

func New(cfg Config, logger *slog.Logger, enum session.Enumerator, launcher Launcher, listener *ipc.Listener) *Supervisor {
	return &Supervisor{
		cfg:      cfg,
		logger:   logger,
		enum:     enum,
		launcher: launcher,
		listener: listener,
		worker:   newWorker(logger, cfg.WorkerEndpoint, cfg.WorkerWait),
	}
}

// Run drives the supervision loop until a close message arrives or the
// control listener fails. The worker is always stopped before Run
// returns.
func (s *Supervisor) Run() error {
	defer s.worker.Stop()
	for {
		s.checkSessions()

		conn, err := s.listener.AcceptTimeout(s.cfg.PollInterval)
		if err != nil {
			return fmt.Errorf("control listener: %w", err)
		}
		if conn == nil {
			s.onTimeout()
			continue
		}
		if s.handleConn(conn) {
			return nil
		}
	}
}

// Stop asks a running supervisor to exit by posting a close message to
// its own control endpoint. It is called from a different goroutine
// than Run.
func (s *Supervisor) Stop() {
	if err := ipc.SendClose(s.cfg.ServiceEndpoint, s.cfg.ReadTimeout); err != nil {
		s.logger.Warn("stop notify failed", "error", err)
	}
}

// checkSessions re-queries the session set every pass and switches the
// worker when the served session is gone or auto-detection points at a
// different active one.
func (s *Supervisor) checkSessions() {
	available, err := s.enum.Sessions(s.cfg.ShareRDP)
	if err != nil {
		s.logger.Debug("session enumeration failed", "error", err)
	}
	active, activeOK := s.enum.Active(s.cfg.ShareRDP)
	if sid, ok := s.state.reconcileActive(available, active, activeOK, s.cfg.ShareRDP); ok {
		s.logger.Info("adopting session", "sid", sid)
		s.state.adoptAuto(sid)
		s.relaunch(sid)
	}
}

// onTimeout runs the idle path: it re-checks the active session with
// override stickiness honored, and brings a dead worker back up.
func (s *Supervisor) onTimeout() {
	active, activeOK := s.enum.Active(s.cfg.ShareRDP)
	if sid, ok := s.state.timeoutSwitch(active, activeOK); ok {
		s.logger.Info("active session changed", "sid", sid)
		s.state.adoptAuto(sid)
		s.relaunch(sid)
		return
	}
	if s.state.HaveCurrent && !s.worker.Alive() {
		s.logger.Warn("worker not running, relaunching", "sid", s.state.Current)
		s.relaunch(s.state.Current)
	}
}

// handleConn reads one framed message from a control connection and
// dispatches it. The connection carries exactly one message; it is
// closed before returning. Reports whether the loop should exit.
func (s *Supervisor) handleConn(conn *ipc.Conn) bool {
	defer conn.Close()
	msg, err := conn.ReadTimeout(s.cfg.ReadTimeout)
	if err != nil {
		s.logger.Debug("control read failed", "error", err)
		return false
	}
	switch msg.Type {
	case ipc.MsgClose:
		s.logger.Info("close requested, shutting down")
		return true
	case ipc.MsgSAS:
		if err := sendSAS(); err != nil {
			s.logger.Warn("secure attention sequence failed", "error", err)
		}
	case ipc.MsgOverrideSession:
		var p ipc.OverridePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			s.logger.Warn("bad override payload", "error", err)
			return false
		}
		s.override(session.ID(p.SessionID))
	default:
		s.logger.Debug("unknown control message", "type", msg.Type)
	}
	return false
}

// override pins the worker to a client-chosen session. A request for
// the session already being served is a no-op.
func (s *Supervisor) override(sid session.ID) {
	if !s.state.applyOverride(sid) {
		s.logger.Debug("override matches current session", "sid", sid)
		return
	}
	s.logger.Info("session override", "sid", sid)
	s.relaunch(sid)
}

// relaunch stops the current worker and starts a new one bound to sid.
// A launch failure leaves no worker tracked; the liveness check on the
// next idle pass retries.
func (s *Supervisor) relaunch(sid session.ID) {
	s.worker.Stop()
	proc, err := s.launcher.Launch(sid)
	if err != nil {
		s.logger.Error("worker launch failed", "sid", sid, "error", err)
		return
	}
	s.logger.Info("worker launched", "sid", sid, "pid", proc.Pid())
	s.worker.Replace(proc)
}

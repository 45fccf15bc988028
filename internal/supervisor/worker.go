package supervisor

import (
	"log/slog"
	"time"

	"github.com/farview/farview-agent/internal/ipc"
	"github.com/farview/farview-agent/internal/session"
)

// WorkerProcess is the OS handle to a launched worker. Release frees
// the handle without killing the process; the worker is told to exit
// over IPC instead.
type WorkerProcess interface {
	Pid() int
	Running() bool
	Release() error
}

// Launcher starts a worker bound to a session.
type Launcher interface {
	Launch(sid session.ID) (WorkerProcess, error)
}

// Worker tracks at most one launched worker process. Release is
// guarded so that shutdown and relaunch paths can both call Stop
// without double-freeing the handle.
type Worker struct {
	logger   *slog.Logger
	endpoint string
	wait     time.Duration

	proc     WorkerProcess
	released bool
}

func newWorker(logger *slog.Logger, endpoint string, wait time.Duration) *Worker {
	return &Worker{logger: logger, endpoint: endpoint, wait: wait}
}

// Replace asks the running worker to exit, waits for it to wind down,
// releases its handle and records the new process.
func (w *Worker) Replace(proc WorkerProcess) {
	w.Stop()
	w.proc = proc
	w.released = false
}

// Stop tells the current worker to exit over IPC and releases its
// handle. Safe to call with no worker and safe to call twice.
func (w *Worker) Stop() {
	if w.proc == nil {
		return
	}
	if !w.released {
		if err := ipc.SendClose(w.endpoint, w.wait); err != nil {
			w.logger.Debug("worker close notify failed", "error", err)
		}
		time.Sleep(w.wait)
		if err := w.proc.Release(); err != nil {
			w.logger.Warn("worker handle release failed", "error", err)
		}
		w.released = true
	}
	w.proc = nil
}

// Alive reports whether a worker is tracked and still running.
func (w *Worker) Alive() bool {
	return w.proc != nil && w.proc.Running()
}

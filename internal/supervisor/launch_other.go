//go:build !windows

package supervisor

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/farview/farview-agent/internal/session"
)

// ProcessLauncher starts the agent binary in worker mode. There is no
// session isolation off Windows; the worker runs as a plain child of
// the service.
type ProcessLauncher struct {
	logger *slog.Logger
	asUser bool
}

func NewProcessLauncher(logger *slog.Logger, asUser bool) *ProcessLauncher {
	return &ProcessLauncher{logger: logger, asUser: asUser}
}

func (pl *ProcessLauncher) Launch(sid session.ID) (WorkerProcess, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolving executable: %w", err)
	}
	pl.logger.Debug("launching worker", "sid", sid)

	cmd := exec.Command(exe, "--server")
	cmd.Env = os.Environ()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting worker: %w", err)
	}

	// The reaper goroutine collects the exit status so the pid does
	// not linger as a zombie and confuse the liveness probe.
	go cmd.Wait()
	return &workerProc{pid: cmd.Process.Pid}, nil
}

// workerProc tracks a launched worker by pid. The exit status is
// reaped by the launcher, so releasing the handle is a no-op here.
type workerProc struct {
	pid int
}

func (p *workerProc) Pid() int { return p.pid }

func (p *workerProc) Running() bool {
	ok, err := process.PidExists(int32(p.pid))
	return err == nil && ok
}

func (p *workerProc) Release() error { return nil }

//go:build windows

package service

import (
	"log/slog"
	"time"

	"golang.org/x/sys/windows/svc"
)

// agentService implements svc.Handler for the Windows SCM.
type agentService struct {
	runner Runner
	logger *slog.Logger
}

func (s *agentService) Execute(args []string, r <-chan svc.ChangeRequest, changes chan<- svc.Status) (ssec bool, errno uint32) {
	const cmdsAccepted = svc.AcceptStop | svc.AcceptShutdown

	changes <- svc.Status{State: svc.StartPending}

	done := make(chan error, 1)
	go func() { done <- s.runner.Run() }()

	changes <- svc.Status{State: svc.Running, Accepts: cmdsAccepted}
	s.logger.Info("service started")

loop:
	for {
		select {
		case c := <-r:
			switch c.Cmd {
			case svc.Interrogate:
				changes <- c.CurrentStatus
			case svc.Stop, svc.Shutdown:
				s.logger.Info("stop request from service control manager")
				changes <- svc.Status{State: svc.StopPending}
				s.runner.Stop()
				break loop
			default:
				s.logger.Warn("unexpected service control request", "cmd", c.Cmd)
			}
		case err := <-done:
			if err != nil {
				s.logger.Error("agent exited with error", "error", err)
			}
			break loop
		}
	}

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		s.logger.Warn("timeout waiting for agent to stop")
	}

	changes <- svc.Status{State: svc.Stopped}
	return false, 0
}

// RunAsService hands the runner to the Windows SCM.
func RunAsService(runner Runner, logger *slog.Logger) error {
	return svc.Run(Name, &agentService{runner: runner, logger: logger})
}

// IsRunningAsService reports whether the process was started by the
// SCM.
func IsRunningAsService() bool {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return false
	}
	return isService
}

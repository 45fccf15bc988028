// Package service runs the agent under the platform's service manager
// and installs or removes the agent as a system service.
package service

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

const (
	// Name is the system service name.
	Name = "FarviewAgent"

	// DisplayName is shown by the platform's service tooling.
	DisplayName = "Farview Agent"

	description = "Farview remote access agent"
)

// Runner is the agent's main loop as seen by the service wrapper.
// Stop is called from a different goroutine than Run and must make Run
// return.
type Runner interface {
	Run() error
	Stop()
}

// Run executes the runner under the service control manager when the
// process was started as a service, interactively otherwise.
func Run(runner Runner, logger *slog.Logger) error {
	if IsRunningAsService() {
		return RunAsService(runner, logger)
	}
	return runInteractive(runner, logger)
}

// runInteractive runs in the foreground and treats SIGINT/SIGTERM as a
// stop request.
func runInteractive(runner Runner, logger *slog.Logger) error {
	done := make(chan error, 1)
	go func() { done <- runner.Run() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case err := <-done:
		return err
	case s := <-sig:
		logger.Info("signal received, stopping", "signal", s.String())
		runner.Stop()
		return <-done
	}
}

// ErrNotFound is returned for operations on a service that is not
// installed.
var ErrNotFound = fmt.Errorf("service not installed")

// ErrExists is returned when installing over an existing service.
var ErrExists = fmt.Errorf("service already installed")

//go:build !windows

package service

import "log/slog"

// RunAsService is not reachable off Windows; systemd and launchd run
// the agent as a plain process.
func RunAsService(runner Runner, logger *slog.Logger) error {
	return runInteractive(runner, logger)
}

// IsRunningAsService always reports false off Windows.
func IsRunningAsService() bool {
	return false
}

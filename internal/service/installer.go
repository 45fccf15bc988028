package service

import "runtime"

// Status of an installed service.
type Status string

const (
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
	StatusUnknown Status = "unknown"
)

// InstallConfig describes the service to install.
type InstallConfig struct {
	Name        string
	DisplayName string
	Description string
	ExecPath    string
	WorkingDir  string
}

// DefaultInstallConfig fills in the agent's own service identity.
func DefaultInstallConfig(execPath, workingDir string) *InstallConfig {
	return &InstallConfig{
		Name:        Name,
		DisplayName: DisplayName,
		Description: description,
		ExecPath:    execPath,
		WorkingDir:  workingDir,
	}
}

// Installer registers the agent with the platform's service manager.
type Installer interface {
	Install(cfg *InstallConfig) error
	Uninstall(name string) error
	Start(name string) error
	Stop(name string) error
	Status(name string) (Status, error)
	IsInstalled(name string) bool
}

// NewInstaller returns the installer for the current OS, or nil when
// the OS has no supported service manager.
func NewInstaller() Installer {
	switch runtime.GOOS {
	case "linux":
		return &systemdInstaller{}
	case "darwin":
		return &launchdInstaller{}
	case "windows":
		return newWindowsInstaller()
	default:
		return nil
	}
}

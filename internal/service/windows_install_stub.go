//go:build !windows

package service

func newWindowsInstaller() Installer {
	return nil
}

//go:build windows

package service

import (
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const serviceOpTimeout = 30 * time.Second

// windowsInstaller registers the agent with the Windows SCM via
// PowerShell, with sc.exe for the bits PowerShell has no cmdlet for.
type windowsInstaller struct{}

func newWindowsInstaller() Installer {
	return &windowsInstaller{}
}

func (m *windowsInstaller) Install(cfg *InstallConfig) error {
	if m.IsInstalled(cfg.Name) {
		return ErrExists
	}

	psScript := fmt.Sprintf(`
		$ErrorActionPreference = 'Stop'
		try {
			New-Service -Name '%s' -BinaryPathName '%s' -DisplayName '%s' -StartupType Automatic -Description '%s' | Out-Null
			& sc.exe failure '%s' reset= 86400 actions= restart/10000/restart/10000/restart/10000 | Out-Null
			Write-Output 'SUCCESS'
		} catch {
			Write-Error $_.Exception.Message
			exit 1
		}
	`, cfg.Name, cfg.ExecPath, cfg.DisplayName, cfg.Description, cfg.Name)

	if output, err := runPowerShell(psScript); err != nil {
		return fmt.Errorf("creating service: %s", output)
	}
	return nil
}

func (m *windowsInstaller) Uninstall(name string) error {
	m.Stop(name)

	psScript := fmt.Sprintf(`
		$ErrorActionPreference = 'Stop'
		try {
			if (Get-Command Remove-Service -ErrorAction SilentlyContinue) {
				Remove-Service -Name '%s' -ErrorAction Stop
			} else {
				$result = & sc.exe delete '%s' 2>&1
				if ($LASTEXITCODE -ne 0 -and $LASTEXITCODE -ne 1060) {
					throw "sc delete failed: $result"
				}
			}
			Write-Output 'SUCCESS'
		} catch {
			if ($_.Exception.Message -notmatch 'does not exist') {
				Write-Error $_.Exception.Message
				exit 1
			}
		}
	`, name, name)

	if output, err := runPowerShell(psScript); err != nil {
		if !strings.Contains(strings.ToLower(output), "does not exist") {
			return fmt.Errorf("deleting service: %s", output)
		}
	}
	return nil
}

func (m *windowsInstaller) Start(name string) error {
	psScript := fmt.Sprintf(`
		$ErrorActionPreference = 'Stop'
		try {
			$svc = Get-Service -Name '%s' -ErrorAction Stop
			if ($svc.Status -eq 'Running') {
				Write-Output 'ALREADY_RUNNING'
				exit 0
			}
			Start-Service -Name '%s' -ErrorAction Stop
			$svc.WaitForStatus('Running', [TimeSpan]::FromSeconds(%d))
			Write-Output 'SUCCESS'
		} catch {
			Write-Error $_.Exception.Message
			exit 1
		}
	`, name, name, int(serviceOpTimeout.Seconds()))

	if output, err := runPowerShell(psScript); err != nil {
		return fmt.Errorf("starting service: %s", output)
	}
	return nil
}

func (m *windowsInstaller) Stop(name string) error {
	psScript := fmt.Sprintf(`
		$ErrorActionPreference = 'Stop'
		try {
			$svc = Get-Service -Name '%s' -ErrorAction SilentlyContinue
			if (-not $svc -or $svc.Status -eq 'Stopped') {
				Write-Output 'ALREADY_STOPPED'
				exit 0
			}
			Stop-Service -Name '%s' -Force -ErrorAction Stop
			$svc.WaitForStatus('Stopped', [TimeSpan]::FromSeconds(%d))
			Write-Output 'SUCCESS'
		} catch {
			if ($_.Exception.Message -notmatch 'not started|already stopped') {
				Write-Error $_.Exception.Message
				exit 1
			}
			Write-Output 'ALREADY_STOPPED'
		}
	`, name, name, int(serviceOpTimeout.Seconds()))

	if output, err := runPowerShell(psScript); err != nil {
		lower := strings.ToLower(output)
		if !strings.Contains(lower, "not started") && !strings.Contains(lower, "already stopped") {
			return fmt.Errorf("stopping service: %s", output)
		}
	}
	return nil
}

func (m *windowsInstaller) Status(name string) (Status, error) {
	psScript := fmt.Sprintf(`
		$svc = Get-Service -Name '%s' -ErrorAction SilentlyContinue
		if (-not $svc) {
			Write-Output 'NOT_FOUND'
			exit 1
		}
		Write-Output $svc.Status
	`, name)

	output, err := runPowerShell(psScript)
	if err != nil {
		return StatusUnknown, ErrNotFound
	}
	switch output {
	case "Running":
		return StatusRunning, nil
	case "Stopped":
		return StatusStopped, nil
	default:
		return StatusUnknown, nil
	}
}

func (m *windowsInstaller) IsInstalled(name string) bool {
	psScript := fmt.Sprintf(`
		if (Get-Service -Name '%s' -ErrorAction SilentlyContinue) {
			Write-Output 'YES'
		} else {
			Write-Output 'NO'
		}
	`, name)

	output, err := runPowerShell(psScript)
	return err == nil && output == "YES"
}

func runPowerShell(script string) (string, error) {
	cmd := exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	output, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(output)), err
}

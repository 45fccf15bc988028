package service

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
)

const systemdUnitPath = "/etc/systemd/system"

const systemdUnitTemplate = `[Unit]
Description={{.Description}}
After=network.target

[Service]
Type=simple
ExecStart={{.ExecPath}}
WorkingDirectory={{.WorkingDir}}
Restart=always
RestartSec=10
User=root

StandardOutput=append:/var/log/farview/agent.log
StandardError=append:/var/log/farview/agent.log

[Install]
WantedBy=multi-user.target
`

// systemdInstaller registers the agent as a systemd unit.
type systemdInstaller struct{}

func renderSystemdUnit(cfg *InstallConfig) ([]byte, error) {
	tmpl, err := template.New("systemd").Parse(systemdUnitTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing unit template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, cfg); err != nil {
		return nil, fmt.Errorf("rendering unit: %w", err)
	}
	return buf.Bytes(), nil
}

func (m *systemdInstaller) Install(cfg *InstallConfig) error {
	if m.IsInstalled(cfg.Name) {
		return ErrExists
	}

	unit, err := renderSystemdUnit(cfg)
	if err != nil {
		return err
	}
	unitPath := filepath.Join(systemdUnitPath, cfg.Name+".service")
	if err := os.WriteFile(unitPath, unit, 0644); err != nil {
		return fmt.Errorf("writing unit file: %w", err)
	}

	if err := exec.Command("systemctl", "daemon-reload").Run(); err != nil {
		return fmt.Errorf("reloading systemd: %w", err)
	}
	if err := exec.Command("systemctl", "enable", cfg.Name).Run(); err != nil {
		return fmt.Errorf("enabling service: %w", err)
	}
	return nil
}

func (m *systemdInstaller) Uninstall(name string) error {
	exec.Command("systemctl", "stop", name).Run()
	exec.Command("systemctl", "disable", name).Run()

	unitPath := filepath.Join(systemdUnitPath, name+".service")
	if err := os.Remove(unitPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing unit file: %w", err)
	}

	exec.Command("systemctl", "daemon-reload").Run()
	return nil
}

func (m *systemdInstaller) Start(name string) error {
	if output, err := exec.Command("systemctl", "start", name).CombinedOutput(); err != nil {
		return fmt.Errorf("starting service: %s", string(output))
	}
	return nil
}

func (m *systemdInstaller) Stop(name string) error {
	if output, err := exec.Command("systemctl", "stop", name).CombinedOutput(); err != nil {
		return fmt.Errorf("stopping service: %s", string(output))
	}
	return nil
}

func (m *systemdInstaller) Status(name string) (Status, error) {
	output, _ := exec.Command("systemctl", "is-active", name).Output()
	switch strings.TrimSpace(string(output)) {
	case "active":
		return StatusRunning, nil
	case "inactive", "failed":
		return StatusStopped, nil
	default:
		return StatusUnknown, nil
	}
}

func (m *systemdInstaller) IsInstalled(name string) bool {
	_, err := os.Stat(filepath.Join(systemdUnitPath, name+".service"))
	return err == nil
}

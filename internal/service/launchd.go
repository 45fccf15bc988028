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

const launchdPlistPath = "/Library/LaunchDaemons"

const launchdPlistTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Name}}</string>
    <key>ProgramArguments</key>
    <array>
        <string>{{.ExecPath}}</string>
    </array>
    <key>WorkingDirectory</key>
    <string>{{.WorkingDir}}</string>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <true/>
    <key>StandardOutPath</key>
    <string>/var/lib/farview/log/agent.log</string>
    <key>StandardErrorPath</key>
    <string>/var/lib/farview/log/agent.log</string>
    <key>ThrottleInterval</key>
    <integer>10</integer>
</dict>
</plist>
`

// launchdInstaller registers the agent as a launchd daemon.
type launchdInstaller struct{}

func renderLaunchdPlist(cfg *InstallConfig) ([]byte, error) {
	tmpl, err := template.New("launchd").Parse(launchdPlistTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing plist template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, cfg); err != nil {
		return nil, fmt.Errorf("rendering plist: %w", err)
	}
	return buf.Bytes(), nil
}

func (m *launchdInstaller) Install(cfg *InstallConfig) error {
	if m.IsInstalled(cfg.Name) {
		return ErrExists
	}

	plist, err := renderLaunchdPlist(cfg)
	if err != nil {
		return err
	}
	plistPath := filepath.Join(launchdPlistPath, cfg.Name+".plist")
	if err := os.WriteFile(plistPath, plist, 0644); err != nil {
		return fmt.Errorf("writing plist: %w", err)
	}

	if err := exec.Command("launchctl", "bootstrap", "system", plistPath).Run(); err != nil {
		// Pre-10.10 fallback.
		exec.Command("launchctl", "load", "-w", plistPath).Run()
	}
	return nil
}

func (m *launchdInstaller) Uninstall(name string) error {
	plistPath := filepath.Join(launchdPlistPath, name+".plist")

	exec.Command("launchctl", "bootout", "system", plistPath).Run()
	exec.Command("launchctl", "unload", "-w", plistPath).Run()

	if err := os.Remove(plistPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing plist: %w", err)
	}
	return nil
}

func (m *launchdInstaller) Start(name string) error {
	if _, err := exec.Command("launchctl", "kickstart", "-k", "system/"+name).CombinedOutput(); err != nil {
		if output, err := exec.Command("launchctl", "start", name).CombinedOutput(); err != nil {
			return fmt.Errorf("starting service: %s", string(output))
		}
	}
	return nil
}

func (m *launchdInstaller) Stop(name string) error {
	if _, err := exec.Command("launchctl", "kill", "SIGTERM", "system/"+name).CombinedOutput(); err != nil {
		exec.Command("launchctl", "stop", name).Run()
	}
	return nil
}

func (m *launchdInstaller) Status(name string) (Status, error) {
	output, err := exec.Command("launchctl", "list", name).Output()
	if err != nil {
		return StatusStopped, nil
	}
	if strings.Contains(string(output), `"PID"`) {
		return StatusRunning, nil
	}
	return StatusStopped, nil
}

func (m *launchdInstaller) IsInstalled(name string) bool {
	_, err := os.Stat(filepath.Join(launchdPlistPath, name+".plist"))
	return err == nil
}

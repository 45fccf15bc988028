// Package config handles agent configuration loading and saving.
// Configuration is stored in JSON format with restricted permissions (0600).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

const (
	configFileName = "farview.json"
	configFileMode = 0600
)

// Defaults for the supervision loop timings. The poll interval bounds
// how long the loop waits for a control connection before re-checking
// session and worker state; the read timeout bounds how long an
// accepted connection may take to deliver its one message.
const (
	DefaultPollIntervalMS  = 300
	DefaultReadTimeoutMS   = 1000
	DefaultWorkerWaitMS    = 100
	DefaultFrameIntervalMS = 100
	DefaultStreamAddr      = "127.0.0.1:21118"
)

// Config holds the agent configuration.
type Config struct {
	// ShareRDP includes remote-desktop sessions when auto-detecting
	// the session to serve.
	ShareRDP bool `json:"share_rdp"`
	// LaunchAsUser spawns the worker with the session user's token
	// instead of the session-bound system context.
	LaunchAsUser bool `json:"launch_as_user"`

	PollIntervalMS  int `json:"poll_interval_ms,omitempty"`
	ReadTimeoutMS   int `json:"read_timeout_ms,omitempty"`
	WorkerWaitMS    int `json:"worker_wait_ms,omitempty"`
	FrameIntervalMS int `json:"frame_interval_ms,omitempty"`

	// StreamAddr is where the worker serves its frame stream.
	StreamAddr string `json:"stream_addr,omitempty"`
}

// Paths holds the filesystem locations used by the agent.
type Paths struct {
	BaseDir    string
	ConfigFile string
	LogDir     string
}

var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultPaths returns the default paths for the current OS.
func DefaultPaths() Paths {
	var baseDir, logDir string

	switch runtime.GOOS {
	case "darwin":
		baseDir = "/Library/Application Support/Farview"
		logDir = "/var/log/farview"
	case "windows":
		baseDir = filepath.Join(os.Getenv("ProgramFiles"), "Farview")
		logDir = filepath.Join(baseDir, "log")
	default: // linux
		baseDir = "/var/lib/farview"
		logDir = "/var/log/farview"
	}

	return Paths{
		BaseDir:    baseDir,
		ConfigFile: filepath.Join(baseDir, configFileName),
		LogDir:     logDir,
	}
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	return &Config{
		ShareRDP:        true,
		PollIntervalMS:  DefaultPollIntervalMS,
		ReadTimeoutMS:   DefaultReadTimeoutMS,
		WorkerWaitMS:    DefaultWorkerWaitMS,
		FrameIntervalMS: DefaultFrameIntervalMS,
		StreamAddr:      DefaultStreamAddr,
	}
}

// Load reads the configuration from path. A missing file yields the
// defaults; a present but unreadable file is an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.applyFloors()
	return cfg, nil
}

// Save writes the configuration to path with restricted permissions.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, configFileMode); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Re-apply permissions in case the file already existed.
	os.Chmod(path, configFileMode)
	return nil
}

// applyFloors clamps nonsensical timing values back to the defaults.
func (c *Config) applyFloors() {
	if c.PollIntervalMS <= 0 {
		c.PollIntervalMS = DefaultPollIntervalMS
	}
	if c.ReadTimeoutMS <= 0 {
		c.ReadTimeoutMS = DefaultReadTimeoutMS
	}
	if c.WorkerWaitMS < 0 {
		c.WorkerWaitMS = DefaultWorkerWaitMS
	}
	if c.FrameIntervalMS <= 0 {
		c.FrameIntervalMS = DefaultFrameIntervalMS
	}
	if c.StreamAddr == "" {
		c.StreamAddr = DefaultStreamAddr
	}
}

// PollInterval returns the supervision loop's bounded accept wait.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// ReadTimeout returns the per-connection control message read timeout.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMS) * time.Millisecond
}

// WorkerWait returns the settle time after a close notification.
func (c *Config) WorkerWait() time.Duration {
	return time.Duration(c.WorkerWaitMS) * time.Millisecond
}

// FrameInterval returns the worker stream's capture tick.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.FrameIntervalMS) * time.Millisecond
}

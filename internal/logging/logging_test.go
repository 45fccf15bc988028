package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestSetup(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := Config{
		LogDir:      tmpDir,
		Debug:       true,
		LogToStdout: false,
	}

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer cleanup()

	if logger == nil {
		t.Fatal("logger should not be nil")
	}

	logger.Info("test message", "key", "value")

	logPath := filepath.Join(tmpDir, logFileName)
	info, err := os.Stat(logPath)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if info.Size() == 0 {
		t.Error("log file should have content")
	}
}

func TestSetupWritesJSON(t *testing.T) {
	tmpDir := t.TempDir()

	logger, cleanup, err := Setup(Config{LogDir: tmpDir})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	logger.Info("structured", "session_id", 2)
	cleanup()

	f, err := os.Open(filepath.Join(tmpDir, logFileName))
	if err != nil {
		t.Fatalf("opening log file: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		t.Fatal("log file should contain at least one record")
	}

	var record map[string]any
	if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
		t.Fatalf("log record is not JSON: %v", err)
	}
	if record["msg"] != "structured" {
		t.Errorf("msg = %v, want %q", record["msg"], "structured")
	}
}

func TestSetupWithDefaults(t *testing.T) {
	logger, cleanup, err := SetupWithDefaults(t.TempDir(), false)
	if err != nil {
		t.Fatalf("SetupWithDefaults failed: %v", err)
	}
	defer cleanup()

	if logger == nil {
		t.Fatal("logger should not be nil")
	}
}

func TestSetupWithInvalidDir(t *testing.T) {
	// A path below a regular file cannot be created as a directory.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := Config{
		LogDir: filepath.Join(blocker, "logs"),
	}

	// Must fall back to stdout logging rather than fail.
	logger, cleanup, err := Setup(cfg)
	if err != nil {
		t.Fatalf("Setup should not fail on bad dir: %v", err)
	}
	defer cleanup()

	if logger == nil {
		t.Fatal("logger should not be nil")
	}
}

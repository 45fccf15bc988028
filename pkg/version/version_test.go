package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	if info.Version == "" {
		t.Error("Version should not be empty")
	}
	if info.GitCommit == "" {
		t.Error("GitCommit should not be empty")
	}
	if info.BuildDate == "" {
		t.Error("BuildDate should not be empty")
	}

	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %s, want %s", info.GoVersion, runtime.Version())
	}
	if info.OS != runtime.GOOS {
		t.Errorf("OS = %s, want %s", info.OS, runtime.GOOS)
	}
	if info.Arch != runtime.GOARCH {
		t.Errorf("Arch = %s, want %s", info.Arch, runtime.GOARCH)
	}
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		name     string
		info     Info
		contains []string
	}{
		{
			name: "normal commit",
			info: Info{
				Version:   "1.0.0",
				GitCommit: "abc12345def67890",
				BuildDate: "2024-01-01",
				GoVersion: "go1.21.0",
			},
			contains: []string{"Farview Agent", "1.0.0", "abc12345", "2024-01-01", "go1.21.0"},
		},
		{
			name: "short commit",
			info: Info{
				Version:   "dev",
				GitCommit: "abc",
				BuildDate: "unknown",
				GoVersion: "go1.22.0",
			},
			contains: []string{"Farview Agent", "dev", "abc", "unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.info.String()
			for _, want := range tt.contains {
				if !strings.Contains(s, want) {
					t.Errorf("String() = %q, should contain %q", s, want)
				}
			}
		})
	}
}

func TestInfoStringCommitTruncation(t *testing.T) {
	info := Info{
		Version:   "1.0.0",
		GitCommit: "abcdefghijklmnop",
		BuildDate: "2024-01-01",
		GoVersion: "go1.21.0",
	}

	s := info.String()

	if !strings.Contains(s, "abcdefgh") {
		t.Error("should contain first 8 chars of commit")
	}
	if strings.Contains(s, "abcdefghijklmnop") {
		t.Error("should NOT contain full commit")
	}
}

package configuration

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnv(t *testing.T) {
	tmp := t.TempDir()
	envFile := filepath.Join(tmp, ".env.local")
	if err := os.WriteFile(envFile, []byte("PERSONNEL_TEST_ENV_LOAD=ok\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", envFile, err)
	}
	_ = os.Unsetenv("PERSONNEL_TEST_ENV_LOAD")

	n, err := LoadEnv([]string{filepath.Join(tmp, ".env"), envFile})
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 env file loaded, got %d", n)
	}
	if got := os.Getenv("PERSONNEL_TEST_ENV_LOAD"); got != "ok" {
		t.Fatalf("expected env var loaded, got %q", got)
	}
}

func TestReportOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    ReportOptions
		wantErr bool
	}{
		{"default cutoff", ReportOptions{CutoffHour: 16, CutoffMinute: 0}, false},
		{"midnight", ReportOptions{CutoffHour: 0, CutoffMinute: 0}, false},
		{"last minute", ReportOptions{CutoffHour: 23, CutoffMinute: 59}, false},
		{"hour too large", ReportOptions{CutoffHour: 24, CutoffMinute: 0}, true},
		{"negative minute", ReportOptions{CutoffHour: 16, CutoffMinute: -1}, true},
		{"minute too large", ReportOptions{CutoffHour: 16, CutoffMinute: 60}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

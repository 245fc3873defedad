package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sampleConfig struct {
	URL     string        `split_words:"true" required:"true"`
	Timeout time.Duration `split_words:"true" default:"10s"`
	Workers int           `split_words:"true" default:"2"`
}

type validatedConfig struct {
	Workers int `split_words:"true" default:"0"`
}

var errWorkers = errors.New("workers must be > 0")

func (c *validatedConfig) Validate() error {
	if c.Workers <= 0 {
		return errWorkers
	}
	return nil
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("SAMPLE_URL", "https://example.test")

	cfg, err := FromEnv[sampleConfig]("SAMPLE")
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.URL != "https://example.test" {
		t.Fatalf("unexpected url: %s", cfg.URL)
	}
	if cfg.Timeout != 10*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.Timeout)
	}
	if cfg.Workers != 2 {
		t.Fatalf("unexpected workers: %d", cfg.Workers)
	}
}

func TestFromEnvRequiredMissing(t *testing.T) {
	t.Setenv("MISSING_URL", "")
	os.Unsetenv("MISSING_URL")

	if _, err := FromEnv[sampleConfig]("MISSING"); err == nil {
		t.Fatal("expected error for missing required variable")
	}
}

func TestFromEnvRunsValidator(t *testing.T) {
	t.Setenv("CHECKED_WORKERS", "0")

	_, err := FromEnv[validatedConfig]("CHECKED")
	if !errors.Is(err, errWorkers) {
		t.Fatalf("expected errWorkers, got %v", err)
	}
}

func TestExportEnvironmentKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "FILECFG_URL=https://from-file.test\nFILECFG_WORKERS=7\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("FILECFG_WORKERS", "3")
	t.Setenv("FILECFG_URL", "")
	os.Unsetenv("FILECFG_URL")
	t.Cleanup(func() { os.Unsetenv("FILECFG_URL") })

	if err := exportEnvironment(path); err != nil {
		t.Fatalf("exportEnvironment() error = %v", err)
	}

	cfg, err := FromEnv[sampleConfig]("FILECFG")
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.URL != "https://from-file.test" {
		t.Fatalf("unexpected url: %s", cfg.URL)
	}
	if cfg.Workers != 3 {
		t.Fatalf("existing env must win, got workers=%d", cfg.Workers)
	}
}

func TestExportEnvironmentIfExistsMissingFile(t *testing.T) {
	t.Parallel()

	if err := exportEnvironmentIfExists(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Fatalf("expected nil error for missing file, got %v", err)
	}
}

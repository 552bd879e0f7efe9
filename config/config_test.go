package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestDefaults(t *testing.T) {
	cfg := NewConfig()
	if err := cfg.ParseArgs("forecourt", nil); err != nil {
		t.Fatal(err)
	}

	if cfg.Address != ":9090" {
		t.Error("wrong default address", cfg.Address)
	}

	if cfg.ControllerDir != "controllers" || cfg.ControllerExt != ".go" {
		t.Error("wrong controller defaults", cfg.ControllerDir, cfg.ControllerExt)
	}

	if cfg.DefaultHTTPStatus != 404 {
		t.Error("wrong default status", cfg.DefaultHTTPStatus)
	}

	if cfg.OpenTracing != "noop" {
		t.Error("wrong default tracer", cfg.OpenTracing)
	}
}

func TestFlagsOverrideDefaults(t *testing.T) {
	cfg := NewConfig()
	err := cfg.ParseArgs("forecourt", []string{
		"-address=:8080",
		"-max-forwards=10",
		"-enable-fscache",
		"-fscache-ttl=30s",
	})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Address != ":8080" || cfg.MaxForwards != 10 {
		t.Error("flags not applied", cfg.Address, cfg.MaxForwards)
	}

	if !cfg.EnableFSCache || cfg.FSCacheTTL != 30*time.Second {
		t.Error("cache flags not applied", cfg.EnableFSCache, cfg.FSCacheTTL)
	}
}

func TestConfigFileOverlay(t *testing.T) {
	path := writeConfigFile(t, `
address: :8888
controller-dir: app/controllers
enable-prometheus-metrics: true
`)

	cfg := NewConfig()
	if err := cfg.ParseArgs("forecourt", []string{"-config-file=" + path}); err != nil {
		t.Fatal(err)
	}

	if cfg.Address != ":8888" {
		t.Error("file value not applied", cfg.Address)
	}

	if cfg.ControllerDir != "app/controllers" {
		t.Error("file value not applied", cfg.ControllerDir)
	}

	if !cfg.EnablePrometheusMetrics {
		t.Error("file value not applied")
	}
}

func TestCommandLineWinsOverFile(t *testing.T) {
	path := writeConfigFile(t, "address: :8888\n")

	cfg := NewConfig()
	err := cfg.ParseArgs("forecourt", []string{
		"-config-file=" + path,
		"-address=:7777",
	})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Address != ":7777" {
		t.Error("expected the command line to win", cfg.Address)
	}
}

func TestValidation(t *testing.T) {
	cfg := NewConfig()
	if err := cfg.ParseArgs("forecourt", []string{"-address="}); err == nil {
		t.Error("expected an empty address to fail")
	}

	cfg = NewConfig()
	if err := cfg.ParseArgs("forecourt", []string{"-max-forwards=-1"}); err == nil {
		t.Error("expected a negative forward limit to fail")
	}
}

func TestNonFlagArgumentsRejected(t *testing.T) {
	cfg := NewConfig()
	if err := cfg.ParseArgs("forecourt", []string{"stray"}); err == nil {
		t.Error("expected stray arguments to fail")
	}
}

func TestToOptions(t *testing.T) {
	cfg := NewConfig()
	err := cfg.ParseArgs("forecourt", []string{
		"-address=:8080",
		"-routes-file=routes.yaml",
		"-debug",
	})
	if err != nil {
		t.Fatal(err)
	}

	o := cfg.ToOptions()
	if o.Address != ":8080" || o.RoutesFile != "routes.yaml" || !o.Debug {
		t.Error("options not mapped", o.Address, o.RoutesFile, o.Debug)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadCalibrationConfigPartial(t *testing.T) {
	path := writeConfigFile(t, "cal.json", `{"court_length_in": 780}`)

	cfg, err := LoadCalibrationConfig(path)
	if err != nil {
		t.Fatalf("LoadCalibrationConfig failed: %v", err)
	}

	if got := cfg.GetCourtLengthIn(); got != 780 {
		t.Errorf("court length = %v, want 780", got)
	}
	// Omitted field falls back to the regulation default.
	if got := cfg.GetCourtWidthIn(); got != 432 {
		t.Errorf("court width = %v, want 432", got)
	}
}

func TestLoadCalibrationConfigRejectsNonJSON(t *testing.T) {
	path := writeConfigFile(t, "cal.yaml", `court_length_in: 780`)

	if _, err := LoadCalibrationConfig(path); err == nil {
		t.Error("expected error for non-.json extension")
	}
}

func TestLoadCalibrationConfigRejectsBadValues(t *testing.T) {
	path := writeConfigFile(t, "cal.json", `{"court_length_in": -5}`)

	if _, err := LoadCalibrationConfig(path); err == nil {
		t.Error("expected error for negative court length")
	}
}

func TestLoadCalibrationConfigMissingFile(t *testing.T) {
	if _, err := LoadCalibrationConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDiagramFromConfig(t *testing.T) {
	path := writeConfigFile(t, "cal.json",
		`{"diagram_width_px": 200, "diagram_height_px": 400, "court_length_in": 780}`)

	cfg, err := LoadCalibrationConfig(path)
	if err != nil {
		t.Fatalf("LoadCalibrationConfig failed: %v", err)
	}

	d := cfg.Diagram()
	if d.Width != 200 || d.Height != 400 || d.LengthIn != 780 {
		t.Errorf("diagram = %+v", d)
	}
}

func TestServiceConfigFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"POINTLOG_DB", "POINTLOG_ADDR", "POINTLOG_REDIS_ADDR", "POINTLOG_ROLLUP_INTERVAL"} {
		t.Setenv(key, "")
	}

	cfg, err := ServiceConfigFromEnv()
	if err != nil {
		t.Fatalf("ServiceConfigFromEnv failed: %v", err)
	}
	if cfg.DBPath != "pointlog.db" {
		t.Errorf("db path = %q", cfg.DBPath)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("listen addr = %q", cfg.ListenAddr)
	}
	if cfg.RollupInterval != time.Hour {
		t.Errorf("rollup interval = %v", cfg.RollupInterval)
	}
}

func TestServiceConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("POINTLOG_DB", "/data/matches.db")
	t.Setenv("POINTLOG_ROLLUP_INTERVAL", "15m")

	cfg, err := ServiceConfigFromEnv()
	if err != nil {
		t.Fatalf("ServiceConfigFromEnv failed: %v", err)
	}
	if cfg.DBPath != "/data/matches.db" {
		t.Errorf("db path = %q", cfg.DBPath)
	}
	if cfg.RollupInterval != 15*time.Minute {
		t.Errorf("rollup interval = %v", cfg.RollupInterval)
	}

	t.Setenv("POINTLOG_ROLLUP_INTERVAL", "soon")
	if _, err := ServiceConfigFromEnv(); err == nil {
		t.Error("expected error for unparseable interval")
	}
}

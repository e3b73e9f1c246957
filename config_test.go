package motioncore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\"): %v", err)
	}
	if cfg.MotionConfig() != DefaultMotionConfig() {
		t.Errorf("MotionConfig() = %+v, want defaults", cfg.MotionConfig())
	}
	if cfg.TrackerConfig() != DefaultTrackerConfig() {
		t.Errorf("TrackerConfig() = %+v, want defaults", cfg.TrackerConfig())
	}
	if cfg.RegionConfig() != DefaultRegionConfig() {
		t.Errorf("RegionConfig() = %+v, want defaults", cfg.RegionConfig())
	}
}

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("LoadConfig(missing): %v", err)
	}
	if cfg.RegionConfig() != DefaultRegionConfig() {
		t.Errorf("RegionConfig() = %+v, want defaults", cfg.RegionConfig())
	}
}

func TestLoadConfig_OverridesMergeWithDefaults(t *testing.T) {
	doc := `
[motion]
processing_mode = "hsv"

[tracker]
max_tracking_distance = 75.0

[region]
eps = 42.0
`
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if got := cfg.MotionConfig().ProcessingMode; got != ProcessingModeHSV {
		t.Errorf("ProcessingMode = %q, want hsv", got)
	}
	// A field the document didn't set keeps its default.
	if got := cfg.MotionConfig().BlurType; got != DefaultMotionConfig().BlurType {
		t.Errorf("BlurType = %q, want default %q", got, DefaultMotionConfig().BlurType)
	}
	if got := cfg.TrackerConfig().MaxTrackingDistance; got != 75.0 {
		t.Errorf("MaxTrackingDistance = %f, want 75.0", got)
	}
	if got := cfg.RegionConfig().Eps; got != 42.0 {
		t.Errorf("Eps = %f, want 42.0", got)
	}
}

func TestLoadConfig_InvalidOverrideFailsValidation(t *testing.T) {
	doc := `
[region]
eps = -1.0
`
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig with eps <= 0 = nil error, want ConfigError")
	}
}

func TestLoadConfig_MalformedDocumentIsConfigError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("not [ valid toml"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig with malformed toml = nil error, want ConfigError")
	}
}

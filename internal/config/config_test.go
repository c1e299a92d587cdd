package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Vessel != "box" {
		t.Errorf("expected vessel box, got %s", cfg.Vessel)
	}
	if cfg.Dt != DefaultDt {
		t.Errorf("expected dt %f, got %f", DefaultDt, cfg.Dt)
	}
	if cfg.Duration != DefaultDuration {
		t.Errorf("expected duration %f, got %f", DefaultDuration, cfg.Duration)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidateFillsZeroFields(t *testing.T) {
	cfg := &Config{Vessel: "drum"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("minimal config should validate: %v", err)
	}
	if cfg.Dt != DefaultDt {
		t.Errorf("expected dt filled to %f, got %f", DefaultDt, cfg.Dt)
	}
	if cfg.Resolution.NX == 0 {
		t.Error("expected resolution filled from defaults")
	}
	if cfg.Limits.EmergencyC != DefaultEmergencyC {
		t.Errorf("expected emergency filled to %f, got %f", DefaultEmergencyC, cfg.Limits.EmergencyC)
	}
	if cfg.ThrottleTiers.Moderate != 0.9 {
		t.Errorf("expected moderate tier 0.9, got %f", cfg.ThrottleTiers.Moderate)
	}
	if cfg.Ambient.TempC != DefaultAmbientC || cfg.Ambient.RelHumidity != DefaultRelHumidity {
		t.Errorf("expected ambient filled from defaults, got %+v", cfg.Ambient)
	}
}

func TestValidateKeepsExplicitZeroAmbient(t *testing.T) {
	cfg := &Config{Vessel: "box", Ambient: AmbientConfig{TempC: 0, RelHumidity: 0.8}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("freezing ambient should validate: %v", err)
	}
	if cfg.Ambient.TempC != 0 {
		t.Errorf("explicit 0°C ambient overwritten to %f", cfg.Ambient.TempC)
	}

	cfg = &Config{Vessel: "box", Ambient: AmbientConfig{TempC: 15, RelHumidity: 0}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("dry ambient should validate: %v", err)
	}
	if cfg.Ambient.RelHumidity != 0 {
		t.Errorf("explicit 0 humidity overwritten to %f", cfg.Ambient.RelHumidity)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown vessel", Config{Vessel: "barrel"}},
		{"negative dt", Config{Vessel: "box", Dt: -1}},
		{"negative duration", Config{Vessel: "box", Duration: -1}},
		{"emergency below safe", Config{Vessel: "box", Limits: LimitsConfig{SafeMaxC: 60, EmergencyC: 55}}},
		{"humidity out of range", Config{Vessel: "box", Ambient: AmbientConfig{RelHumidity: 1.5}}},
		{"rotating box", Config{Vessel: "box", Rotation: RotationConfig{Daily: true}}},
	}

	for _, tt := range tests {
		cfg := tt.cfg
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := Default()
	cfg.Vessel = "drum"
	cfg.Ambient.TempC = 28.5
	cfg.Rotation.Daily = true
	cfg.Resolution = ResolutionConfig{NX: 16, NY: 16, NZ: 14}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\nsaved  %+v\nloaded %+v", cfg, loaded)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("drum", "daily-rotation")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if !cfg.Rotation.Daily {
		t.Error("daily-rotation preset should enable rotation")
	}

	// Presets are copies; mutating one must not leak into the table.
	cfg.Ambient.TempC = 99
	again := GetPreset("drum", "daily-rotation")
	if again.Ambient.TempC == 99 {
		t.Error("preset table must not be mutable through GetPreset")
	}
}

func TestGetPresetNotFound(t *testing.T) {
	if GetPreset("box", "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "passive") != nil {
		t.Error("expected nil for nonexistent vessel")
	}
}

func TestListPresets(t *testing.T) {
	if len(ListPresets("box")) == 0 {
		t.Error("expected presets for box")
	}
	if len(ListPresets("drum")) == 0 {
		t.Error("expected presets for drum")
	}
	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent vessel")
	}
}

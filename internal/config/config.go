package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt           = 300.0            // 5 minutes [s]
	DefaultDuration     = 7 * 24 * 3600.0  // 7 days [s]
	DefaultSaveInterval = 3600.0           // hourly snapshots [s]
	DefaultAmbientC     = 21.0
	DefaultRelHumidity  = 0.65
	DefaultSafeMaxC     = 55.0
	DefaultEmergencyC   = 60.0
)

// Config is the YAML-backed run configuration. Zero values fall back to the
// defaults at validation time, so partial files work.
type Config struct {
	Vessel        string           `yaml:"vessel"` // "box" or "drum"
	Dt            float64          `yaml:"dt"`
	Duration      float64          `yaml:"duration"`
	SaveInterval  float64          `yaml:"save_interval"`
	Ambient       AmbientConfig    `yaml:"ambient"`
	Limits        LimitsConfig     `yaml:"limits"`
	Rotation      RotationConfig   `yaml:"rotation"`
	Resolution    ResolutionConfig `yaml:"resolution"`
	ThrottleTiers ThrottleConfig   `yaml:"throttle"`
}

type AmbientConfig struct {
	TempC       float64 `yaml:"temp_celsius"`
	RelHumidity float64 `yaml:"relative_humidity"`
}

type LimitsConfig struct {
	SafeMaxC   float64 `yaml:"safe_max_celsius"`
	EmergencyC float64 `yaml:"emergency_celsius"`
}

type RotationConfig struct {
	Daily bool `yaml:"daily"`
	Days  int  `yaml:"days"`
}

type ResolutionConfig struct {
	NX int `yaml:"nx"`
	NY int `yaml:"ny"`
	NZ int `yaml:"nz"`
}

type ThrottleConfig struct {
	Moderate float64 `yaml:"moderate"` // drum tier above the optimal band
}

func Default() *Config {
	return &Config{
		Vessel:        "box",
		Dt:            DefaultDt,
		Duration:      DefaultDuration,
		SaveInterval:  DefaultSaveInterval,
		Ambient:       AmbientConfig{TempC: DefaultAmbientC, RelHumidity: DefaultRelHumidity},
		Limits:        LimitsConfig{SafeMaxC: DefaultSafeMaxC, EmergencyC: DefaultEmergencyC},
		Rotation:      RotationConfig{Daily: false, Days: 7},
		Resolution:    ResolutionConfig{NX: 12, NY: 12, NZ: 10},
		ThrottleTiers: ThrottleConfig{Moderate: 0.9},
	}
}

// Load reads a YAML config on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate fills unset fields from the defaults and rejects invalid
// combinations; configuration errors fail the run before construction.
func (c *Config) Validate() error {
	if c.Vessel != "box" && c.Vessel != "drum" {
		return fmt.Errorf("config: unknown vessel type %q (want box or drum)", c.Vessel)
	}
	if c.Dt == 0 {
		c.Dt = DefaultDt
	}
	if c.Dt < 0 {
		return fmt.Errorf("config: dt must be positive, got %f", c.Dt)
	}
	if c.Duration == 0 {
		c.Duration = DefaultDuration
	}
	if c.Duration < 0 {
		return fmt.Errorf("config: duration must be positive, got %f", c.Duration)
	}
	if c.Resolution.NX == 0 && c.Resolution.NY == 0 && c.Resolution.NZ == 0 {
		c.Resolution = Default().Resolution
	}
	// A wholly zero ambient block reads as unset, same as the resolution.
	// Setting either field keeps both, so 0°C and 0 humidity stay reachable.
	if c.Ambient.TempC == 0 && c.Ambient.RelHumidity == 0 {
		c.Ambient = Default().Ambient
	}
	if c.Limits.SafeMaxC == 0 {
		c.Limits.SafeMaxC = DefaultSafeMaxC
	}
	if c.Limits.EmergencyC == 0 {
		c.Limits.EmergencyC = DefaultEmergencyC
	}
	if c.Limits.EmergencyC <= c.Limits.SafeMaxC {
		return fmt.Errorf("config: emergency threshold %.1f°C must exceed safe maximum %.1f°C",
			c.Limits.EmergencyC, c.Limits.SafeMaxC)
	}
	if c.Ambient.RelHumidity < 0 || c.Ambient.RelHumidity > 1 {
		return fmt.Errorf("config: relative humidity %.2f out of [0,1]", c.Ambient.RelHumidity)
	}
	if c.Rotation.Daily && c.Vessel == "box" {
		return fmt.Errorf("config: the box vessel cannot rotate")
	}
	if c.Rotation.Days == 0 {
		c.Rotation.Days = 7
	}
	if c.ThrottleTiers.Moderate == 0 {
		c.ThrottleTiers.Moderate = 0.9
	}
	return nil
}

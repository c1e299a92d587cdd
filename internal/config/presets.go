package config

// Presets are named starting configurations per vessel.
var Presets = map[string]map[string]*Config{
	"box": {
		"passive": {
			Vessel: "box", Dt: 300, Duration: 7 * 24 * 3600,
			Ambient: AmbientConfig{TempC: 21.0, RelHumidity: 0.65},
		},
		"hot-climate": {
			Vessel: "box", Dt: 300, Duration: 7 * 24 * 3600,
			Ambient: AmbientConfig{TempC: 30.0, RelHumidity: 0.80},
		},
		"fine-grid": {
			Vessel: "box", Dt: 300, Duration: 7 * 24 * 3600,
			Ambient:    AmbientConfig{TempC: 21.0, RelHumidity: 0.65},
			Resolution: ResolutionConfig{NX: 20, NY: 20, NZ: 16},
		},
	},
	"drum": {
		"daily-rotation": {
			Vessel: "drum", Dt: 300, Duration: 7 * 24 * 3600,
			Ambient:  AmbientConfig{TempC: 21.0, RelHumidity: 0.65},
			Rotation: RotationConfig{Daily: true, Days: 7},
		},
		"no-rotation": {
			Vessel: "drum", Dt: 300, Duration: 7 * 24 * 3600,
			Ambient:  AmbientConfig{TempC: 21.0, RelHumidity: 0.65},
			Rotation: RotationConfig{Daily: false},
		},
		"short": {
			Vessel: "drum", Dt: 300, Duration: 2 * 24 * 3600,
			Ambient:  AmbientConfig{TempC: 21.0, RelHumidity: 0.65},
			Rotation: RotationConfig{Daily: true, Days: 2},
		},
	},
}

func GetPreset(vessel, preset string) *Config {
	vesselPresets, ok := Presets[vessel]
	if !ok {
		return nil
	}
	cfg, ok := vesselPresets[preset]
	if !ok {
		return nil
	}
	out := *cfg
	return &out
}

func ListPresets(vessel string) []string {
	vesselPresets, ok := Presets[vessel]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(vesselPresets))
	for name := range vesselPresets {
		names = append(names, name)
	}
	return names
}

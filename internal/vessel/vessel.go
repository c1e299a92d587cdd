// Package vessel assembles a complete simulation from a run configuration:
// material catalog, grid, heat and cooling models, rotation schedule,
// implicit solver and driver, wired per vessel variant.
package vessel

import (
	"fmt"

	"cacaotherm/internal/config"
	"cacaotherm/internal/evap"
	"cacaotherm/internal/ferment"
	"cacaotherm/internal/material"
	"cacaotherm/internal/mesh"
	"cacaotherm/internal/metrics"
	"cacaotherm/internal/rotation"
	"cacaotherm/internal/solver"
	"cacaotherm/internal/therm"
)

// Ventilation open-area fractions of the box walls.
const (
	boxBottomVentFraction = 0.50
	boxSideVentFraction   = 0.25
	boxVentCoeff          = 80.0 // [W/m²·K] over the hole pattern
	drumConvCoeff         = 25.0 // uniform drum shell coefficient [W/m²·K]
)

// Build wires a driver for the configured vessel. It fails fast on invalid
// configuration and never partially constructs.
func Build(cfg *config.Config) (*therm.Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		catalog *material.Catalog
		grid    *mesh.Grid
		heat    *ferment.Model
		sched   *rotation.Scheduler
		conv    solver.Convection
		err     error
	)

	switch cfg.Vessel {
	case "box":
		catalog = material.Box()
		applyOverrides(catalog, cfg)
		grid, err = mesh.NewBox(cfg.Resolution.NX, cfg.Resolution.NY, cfg.Resolution.NZ)
		if err != nil {
			return nil, err
		}
		heat = ferment.NewBox(catalog.Limits)
		conv = solver.Convection{
			Ambient:            catalog.Ambient.Temp,
			Base:               catalog.Ambient.ConvCoeff,
			Vent:               boxVentCoeff,
			BottomVentFraction: boxBottomVentFraction,
			SideVentFraction:   boxSideVentFraction,
		}
	case "drum":
		catalog = material.Drum()
		applyOverrides(catalog, cfg)
		grid, err = mesh.NewDrum(cfg.Resolution.NX, cfg.Resolution.NY, cfg.Resolution.NZ)
		if err != nil {
			return nil, err
		}
		heat = ferment.NewDrum(catalog.Limits)
		heat.SetModerateThrottle(cfg.ThrottleTiers.Moderate)
		if cfg.Rotation.Daily {
			sched = rotation.NewDaily(cfg.Rotation.Days, cfg.Dt)
		}
		conv = solver.Convection{
			Ambient: catalog.Ambient.Temp,
			Base:    drumConvCoeff,
			Vent:    drumConvCoeff,
		}
	default:
		return nil, fmt.Errorf("vessel: unknown vessel type %q", cfg.Vessel)
	}

	var cooling *evap.Model
	if cfg.Vessel == "drum" {
		cooling = evap.NewDrum(catalog.Ambient)
	} else {
		cooling = evap.NewBox(catalog.Ambient)
	}

	impl := solver.NewImplicit(grid, catalog, conv)

	stepper, err := therm.NewStepper(grid, catalog, heat, cooling, sched, impl, cfg.Dt)
	if err != nil {
		return nil, err
	}

	driver := therm.NewDriver(stepper, cfg.Vessel)
	driver.AddMetric(metrics.NewPeakTemperature())
	driver.AddMetric(metrics.NewHoursAbove(catalog.Limits.OptimalMax-material.KelvinOffset, cfg.Dt))
	driver.AddMetric(metrics.NewMoistureLoss())
	return driver, nil
}

// applyOverrides pushes the validated configuration into the catalog. The
// config is authoritative after Validate, so every field applies as-is.
func applyOverrides(catalog *material.Catalog, cfg *config.Config) {
	catalog.Ambient.Temp = cfg.Ambient.TempC + material.KelvinOffset
	catalog.Ambient.RelHumidity = cfg.Ambient.RelHumidity
	catalog.Limits.SafeMax = cfg.Limits.SafeMaxC + material.KelvinOffset
	catalog.Limits.Emergency = cfg.Limits.EmergencyC + material.KelvinOffset
}

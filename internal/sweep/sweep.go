// Package sweep runs the same fermentation scenario across a grid of
// ambient conditions, one complete simulation per grid point.
package sweep

import (
	"context"
	"sync"

	"cacaotherm/internal/config"
	"cacaotherm/internal/therm"
	"cacaotherm/internal/vessel"
)

// Point is one ambient condition to simulate.
type Point struct {
	AmbientC    float64
	RelHumidity float64
}

// Outcome summarises a single run at one grid point.
type Outcome struct {
	Point
	MaxTempC       float64
	ThermalDeath   bool
	DeathTimeHours *float64
	EmergencyStop  bool
	Rotations      int
	MoistureLossPc float64
}

// Grid expands the cartesian product of ambient temperatures [°C] and
// relative humidities [0..1], temperatures varying slowest.
func Grid(ambientsC, humidities []float64) []Point {
	points := make([]Point, 0, len(ambientsC)*len(humidities))
	for _, a := range ambientsC {
		for _, rh := range humidities {
			points = append(points, Point{AmbientC: a, RelHumidity: rh})
		}
	}
	return points
}

// Ensemble runs one simulation per point, all derived from the same base
// configuration. Each run builds its own vessel, so runs share no state and
// execute concurrently.
type Ensemble struct {
	base *config.Config
}

func NewEnsemble(base *config.Config) *Ensemble {
	return &Ensemble{base: base}
}

// Run executes every point and returns outcomes in point order. Any build or
// run error aborts the whole sweep.
func (e *Ensemble) Run(ctx context.Context, points []Point) ([]Outcome, error) {
	outcomes := make([]Outcome, len(points))
	errs := make([]error, len(points))

	var wg sync.WaitGroup
	for i := range points {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfg := *e.base
			cfg.Ambient.TempC = points[idx].AmbientC
			cfg.Ambient.RelHumidity = points[idx].RelHumidity

			drv, err := vessel.Build(&cfg)
			if err != nil {
				errs[idx] = err
				return
			}

			res, err := drv.Run(ctx, therm.Config{
				Dt:       cfg.Dt,
				Duration: cfg.Duration,
			})
			if err != nil {
				errs[idx] = err
				return
			}

			outcomes[idx] = Outcome{
				Point:          points[idx],
				MaxTempC:       res.MaxTempReached,
				ThermalDeath:   res.ThermalDeath,
				DeathTimeHours: res.DeathTimeHours,
				EmergencyStop:  res.EmergencyStop,
				Rotations:      res.Rotations,
				MoistureLossPc: res.FinalMoisturePc,
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return outcomes, nil
}

package therm

import (
	"context"
	"errors"
	"fmt"

	"cacaotherm/internal/material"
)

// Config bounds the outer time loop.
type Config struct {
	Dt           float64 // [s]
	Duration     float64 // [s]
	SaveInterval float64 // snapshot cadence [s], 0 disables snapshots
}

func (c Config) validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("therm: dt must be positive, got %f", c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("therm: duration must be positive, got %f", c.Duration)
	}
	if c.SaveInterval < 0 {
		return fmt.Errorf("therm: save interval must not be negative, got %f", c.SaveInterval)
	}
	return nil
}

// Driver runs the outer time loop: one Step per dt until the horizon, an
// emergency stop or a solver failure, accumulating statistics along the way.
type Driver struct {
	stepper   *Stepper
	vessel    string
	observers []Observer
	metrics   []Metric
	snapshots SnapshotWriter
}

func NewDriver(stepper *Stepper, vessel string) *Driver {
	return &Driver{stepper: stepper, vessel: vessel}
}

func (d *Driver) AddObserver(o Observer)        { d.observers = append(d.observers, o) }
func (d *Driver) AddMetric(m Metric)            { d.metrics = append(d.metrics, m) }
func (d *Driver) SetSnapshots(w SnapshotWriter) { d.snapshots = w }

// Stepper exposes the underlying stepper for inspection after a run.
func (d *Driver) Stepper() *Stepper { return d.stepper }

// Run executes the simulation to completion. The returned Result is always
// non-nil and holds whatever series were collected; the error is non-nil
// only for genuine faults (solver failure, cancellation) — an emergency
// stop is a normal terminal outcome recorded in the result.
func (d *Driver) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration / cfg.Dt)
	res := &Result{
		Vessel:       d.vessel,
		Times:        make([]float64, 0, steps),
		TMax:         make([]float64, 0, steps),
		TMin:         make([]float64, 0, steps),
		TAvg:         make([]float64, 0, steps),
		QGen:         make([]float64, 0, steps),
		QEvap:        make([]float64, 0, steps),
		MoistureLoss: make([]float64, 0, steps),
		Metrics:      make(map[string]float64),
	}

	for _, m := range d.metrics {
		m.Reset()
	}

	nextSave := 0.0
	var runErr error

loop:
	for d.stepper.Time() < cfg.Duration {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
			break loop
		default:
		}

		sample, events, err := d.stepper.Step()
		for _, e := range events {
			for _, o := range d.observers {
				o.OnEvent(e)
			}
		}

		if err != nil && !errors.Is(err, ErrEmergencyStop) {
			runErr = err
			break loop
		}

		// The safety check precedes statistics: the aborting step is not
		// recorded in the series, only in the terminal flags.
		if errors.Is(err, ErrEmergencyStop) {
			res.EmergencyStop = true
			at := sample.Time / 3600
			res.AbortTimeHours = &at
			break loop
		}

		d.append(res, sample)
		for _, m := range d.metrics {
			m.Observe(sample)
		}
		for _, o := range d.observers {
			o.OnStep(sample)
		}

		if d.snapshots != nil && cfg.SaveInterval > 0 && d.stepper.Time() >= nextSave {
			field := d.stepper.Field()
			tempC := make([]float64, len(field))
			for i, v := range field {
				tempC[i] = v - material.KelvinOffset
			}
			if err := d.snapshots.WriteSnapshot(d.stepper.Time(), tempC); err != nil {
				runErr = fmt.Errorf("therm: snapshot at t=%.0fs: %w", d.stepper.Time(), err)
				break loop
			}
			nextSave += cfg.SaveInterval
		}
	}

	d.finalize(res)
	return res, runErr
}

func (d *Driver) append(res *Result, s Sample) {
	res.Times = append(res.Times, s.Time/3600)
	res.TMax = append(res.TMax, s.TMax)
	res.TMin = append(res.TMin, s.TMin)
	res.TAvg = append(res.TAvg, s.TAvg)
	res.QGen = append(res.QGen, s.QGen)
	res.QEvap = append(res.QEvap, s.QEvap)
	res.MoistureLoss = append(res.MoistureLoss, s.MoistureLoss)
	res.StepsTaken++
}

func (d *Driver) finalize(res *Result) {
	res.MaxTempReached = d.stepper.MaxReached() - material.KelvinOffset
	res.Rotations = d.stepper.Rotations()

	if st := d.stepper.Microbial(); !st.Alive {
		res.ThermalDeath = true
		h := st.DeathTime / 3600
		res.DeathTimeHours = &h
	}

	if n := len(res.MoistureLoss); n > 0 {
		// Percent of the initial water mass in the bed.
		initialWater := d.stepper.cooling.Moisture().Initial * d.stepper.catalog.Cacao.Density
		if initialWater > 0 {
			res.FinalMoisturePc = res.MoistureLoss[n-1] / initialWater * 100
		}
	}

	for _, m := range d.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
}

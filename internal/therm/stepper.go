package therm

import (
	"fmt"

	"cacaotherm/internal/evap"
	"cacaotherm/internal/ferment"
	"cacaotherm/internal/material"
	"cacaotherm/internal/mesh"
	"cacaotherm/internal/rotation"
	"cacaotherm/internal/solver"
)

// Stepper advances the coupled thermal state by one time step. It owns the
// temperature field exclusively; nothing mutates it from outside once a run
// starts.
type Stepper struct {
	grid    *mesh.Grid
	catalog *material.Catalog
	heat    *ferment.Model
	cooling *evap.Model
	sched   *rotation.Scheduler // nil for vessels without rotation
	solve   solver.Solver

	dt   float64
	t    float64
	prev mesh.Field
	qGen mesh.Field
	qEvp mesh.Field

	cacaoCells   []int
	maxReached   float64 // [K]
	moistureLoss float64 // cumulative [kg/m³]
	deathSeen    bool
}

// NewStepper wires a stepper over prepared collaborators. The rotation
// scheduler may be nil. The initial field is uniform at ambient.
func NewStepper(grid *mesh.Grid, catalog *material.Catalog, heat *ferment.Model, cooling *evap.Model, sched *rotation.Scheduler, solve solver.Solver, dt float64) (*Stepper, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("therm: dt must be positive, got %f", dt)
	}
	if err := catalog.Limits.Validate(); err != nil {
		return nil, err
	}
	cacao := make([]int, 0, grid.NumCells())
	for i, r := range grid.Regions {
		if r == material.RegionCacao {
			cacao = append(cacao, i)
		}
	}
	if len(cacao) == 0 {
		return nil, fmt.Errorf("therm: grid has no cacao cells")
	}
	return &Stepper{
		grid:       grid,
		catalog:    catalog,
		heat:       heat,
		cooling:    cooling,
		sched:      sched,
		solve:      solve,
		dt:         dt,
		prev:       grid.NewField(catalog.Ambient.Temp),
		qGen:       grid.NewField(0),
		qEvp:       grid.NewField(0),
		cacaoCells: cacao,
		maxReached: catalog.Ambient.Temp,
	}, nil
}

// Time returns the current simulation time [s].
func (s *Stepper) Time() float64 { return s.t }

// Field returns the current temperature field [K]. The caller must not
// mutate it.
func (s *Stepper) Field() mesh.Field { return s.prev }

// MaxReached returns the highest temperature seen so far [K].
func (s *Stepper) MaxReached() float64 { return s.maxReached }

// Rotations returns the number of rotations performed.
func (s *Stepper) Rotations() int {
	if s.sched == nil {
		return 0
	}
	return s.sched.Count()
}

// Microbial returns the current microbial state.
func (s *Stepper) Microbial() ferment.State { return s.heat.State() }

// Step executes one time step: advance the clock, fire due rotations,
// recompute source and sink fields over the cacao cells, delegate the
// implicit solve, evaluate safety thresholds and commit the new field.
// A crossing of the emergency threshold returns ErrEmergencyStop with the
// step's sample still valid; a solver failure returns the wrapped error
// and leaves the previous field committed.
func (s *Stepper) Step() (Sample, []Event, error) {
	var events []Event
	s.t += s.dt

	rotating := false
	if s.sched != nil {
		if s.sched.Check(s.t) {
			events = append(events, Event{
				Kind:     EventRotation,
				Time:     s.t,
				TempC:    s.maxReached - material.KelvinOffset,
				Rotation: s.sched.Count(),
			})
		}
		rotating = s.sched.Rotating()
	}

	// Source and sink terms live only on cacao cells. Evaporation follows
	// the local cell temperature; generation follows the global peak.
	tMax := s.prev.Max()
	if tMax > s.maxReached {
		s.maxReached = tMax
	}

	rotationFactor := 1.0
	if rotating {
		rotationFactor = 1.05
	}

	evapSum := 0.0
	for _, c := range s.cacaoCells {
		q := s.cooling.Cooling(s.prev[c], s.t, rotationFactor)
		s.qEvp[c] = q
		evapSum += q
	}
	avgEvap := evapSum / float64(len(s.cacaoCells))

	wasAlive := s.heat.State().Alive
	qGen := s.heat.Heat(s.t, tMax, avgEvap, rotating)
	for _, c := range s.cacaoCells {
		s.qGen[c] = qGen
	}
	if st := s.heat.State(); wasAlive && !st.Alive && !s.deathSeen {
		s.deathSeen = true
		events = append(events, Event{
			Kind:  EventMicrobialDeath,
			Time:  s.t,
			TempC: tMax - material.KelvinOffset,
		})
	}

	next, err := s.solve.Step(s.prev, s.qGen, s.qEvp, s.dt)
	if err != nil {
		events = append(events, Event{Kind: EventSolverFailure, Time: s.t, Err: err})
		return Sample{Time: s.t}, events, fmt.Errorf("therm: step at t=%.0fs: %w", s.t, err)
	}

	sample := Sample{
		Time:     s.t,
		TMax:     next.Max() - material.KelvinOffset,
		TMin:     next.Min() - material.KelvinOffset,
		TAvg:     next.Mean() - material.KelvinOffset,
		QGen:     qGen,
		QEvap:    avgEvap,
		Rotating: rotating,
	}

	// Moisture bookkeeping: q_evap = m_evap · L_vap.
	if avgEvap > 0 {
		s.moistureLoss += avgEvap / evap.LatentHeat() * s.dt
	}
	sample.MoistureLoss = s.moistureLoss

	if peak := next.Max(); peak > s.maxReached {
		s.maxReached = peak
	}

	if next.Max() > s.catalog.Limits.Emergency {
		events = append(events, Event{
			Kind:  EventEmergencyStop,
			Time:  s.t,
			TempC: sample.TMax,
		})
		s.prev = next
		return sample, events, ErrEmergencyStop
	}

	s.prev = next
	return sample, events, nil
}

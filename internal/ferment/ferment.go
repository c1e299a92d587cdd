// Package ferment models volumetric heat generation by the fermenting
// microbial population: a fixed yeast-to-bacteria succession profile
// modulated by thermal and moisture stress, with vessel-specific policies
// for what happens when the bed overheats.
package ferment

import (
	"math"

	"cacaotherm/internal/material"
)

// DeathPolicy selects how the model responds to temperatures past the safe
// maximum. The two vessels encode genuinely different behavior and are kept
// as distinct policies rather than unified.
type DeathPolicy int

const (
	// DeathPermanent latches microbial death irreversibly once the bed
	// reaches the death threshold; generation then decays exponentially.
	DeathPermanent DeathPolicy = iota
	// DeathThrottled never kills the population; it steps generation down
	// through discrete safety tiers as temperature approaches the limits.
	DeathThrottled
)

// State is the observable microbial condition. Mutated only by Heat calls.
type State struct {
	Alive          bool
	DeathTime      float64 // [s], meaningful only when !Alive
	StressLevel    float64 // thermal stress in [0,1]
	MoistureStress float64 // cooling-induced stress in [0,1]
	ActivityFactor float64 // generation multiplier in [0,1]
}

// profile holds the piecewise-linear base heat curve [W/m³ vs hours]. The
// phase structure (lag, rapid fermentation, bacterial peak, decline, floor)
// is shared by both vessels; only the tail numbers differ.
type profile struct {
	declineEnd float64 // value at hour 168
	floor      float64 // constant past hour 168
	lateBoost  float64 // extra multiplier during hours 48-168 (drum only)
}

func (p profile) at(tHours float64) float64 {
	var q float64
	switch {
	case tHours < 12:
		q = 90.0 + (130.0-90.0)*(tHours/12.0)
	case tHours < 36:
		q = 130.0 + (220.0-130.0)*((tHours-12.0)/24.0)
	case tHours < 84:
		q = 220.0 + (320.0-220.0)*((tHours-36.0)/48.0)
	case tHours < 168:
		q = 320.0 - (320.0-p.declineEnd)*((tHours-84.0)/84.0)
	default:
		q = p.floor
	}
	if p.lateBoost != 0 && tHours > 48 && tHours < 168 {
		// Carried over from the source model as-is. The 1.3 factor raises
		// generation during the critical window even though the surrounding
		// controls aim to reduce it; see DESIGN.md.
		q *= p.lateBoost
	}
	return q
}

// Model computes volumetric heat generation with stress/death feedback.
// Not safe for concurrent use; one model belongs to one simulation run.
type Model struct {
	policy  DeathPolicy
	limits  material.Limits
	profile profile

	reduction        float64 // global heat reduction factor
	maxGeneration    float64 // absolute ceiling, 0 = none
	stressTrigger    float64 // evap flux that starts moisture stress [W/m³]
	stressScale      float64 // evap flux at full moisture stress [W/m³]
	throttleModerate float64 // tier above the optimal band
	throttleSevere   float64 // tier above the safe maximum
	rotationBonus    float64 // multiplier while a rotation is in effect
	deathDecayTau    float64 // [s]

	state State
}

// NewBox builds the box-vessel model: continuous stress response and
// permanent death at the safe-maximum threshold.
func NewBox(limits material.Limits) *Model {
	return &Model{
		policy:        DeathPermanent,
		limits:        limits,
		profile:       profile{declineEnd: 180.0, floor: 180.0},
		reduction:     1.0,
		stressTrigger: 150.0,
		stressScale:   300.0,
		rotationBonus: 1.0,
		deathDecayTau: 6 * 3600.0,
		state:         State{Alive: true, ActivityFactor: 1.0},
	}
}

// NewDrum builds the drum-vessel model: tiered safety throttle, no death,
// reduced and capped generation, and a small bonus while rotating.
func NewDrum(limits material.Limits) *Model {
	return &Model{
		policy:           DeathThrottled,
		limits:           limits,
		profile:          profile{declineEnd: 260.0, floor: 240.0, lateBoost: 1.3},
		reduction:        0.85,
		maxGeneration:    999.0,
		stressTrigger:    150.0,
		stressScale:      300.0,
		throttleModerate: 0.9,
		throttleSevere:   0.3,
		rotationBonus:    1.02,
		state:            State{Alive: true, ActivityFactor: 1.0},
	}
}

// Policy returns the death policy the model was built with.
func (m *Model) Policy() DeathPolicy { return m.policy }

// State returns the current microbial state.
func (m *Model) State() State { return m.state }

// SetModerateThrottle overrides the moderate safety tier (drum variant).
func (m *Model) SetModerateThrottle(f float64) {
	if f > 0 && f <= 1 {
		m.throttleModerate = f
	}
}

// Reset restores the pre-run microbial state.
func (m *Model) Reset() {
	m.state = State{Alive: true, ActivityFactor: 1.0}
}

// Heat returns the volumetric generation flux [W/m³] at elapsed time t [s]
// given the current peak bed temperature tMax [K], the average evaporative
// cooling [W/m³] and whether a rotation is in effect. Every branch yields a
// finite non-negative value.
func (m *Model) Heat(t, tMax, evapCooling float64, rotating bool) float64 {
	switch m.policy {
	case DeathThrottled:
		m.updateThrottled(tMax)
	default:
		m.updatePermanent(t, tMax, evapCooling)
	}

	q := m.profile.at(t / 3600.0)
	q *= m.reduction
	q *= m.state.ActivityFactor

	if m.policy == DeathPermanent && !m.state.Alive {
		q *= math.Exp(-(t - m.state.DeathTime) / m.deathDecayTau)
	}
	if m.maxGeneration > 0 && q > m.maxGeneration {
		q = m.maxGeneration
	}
	if rotating {
		q *= m.rotationBonus
	}
	if q < 0 {
		q = 0
	}
	return q
}

func (m *Model) updatePermanent(t, tMax, evapCooling float64) {
	if tMax > m.limits.OptimalMax {
		m.state.StressLevel = math.Min(1.0, (tMax-m.limits.OptimalMax)/10.0)
	} else {
		m.state.StressLevel = 0
	}

	if evapCooling > m.stressTrigger {
		m.state.MoistureStress = math.Min(1.0, evapCooling/m.stressScale)
	} else {
		m.state.MoistureStress = 0
	}

	m.state.ActivityFactor = 1.0 - 0.6*math.Max(m.state.StressLevel, m.state.MoistureStress)

	// One-way transition: once dead, dead for the rest of the run. The
	// activity factor is zeroed only at the transition step; afterwards the
	// residual heat follows the stress factor under exponential decay.
	if m.state.Alive && tMax >= m.limits.SafeMax {
		m.state.Alive = false
		m.state.DeathTime = t
		m.state.ActivityFactor = 0
	}
}

func (m *Model) updateThrottled(tMax float64) {
	switch {
	case tMax > m.limits.SafeMax:
		m.state.ActivityFactor = m.throttleSevere
	case tMax > m.limits.OptimalMax:
		m.state.ActivityFactor = m.throttleModerate
	default:
		m.state.ActivityFactor = 1.0
	}
	m.state.Alive = true
}

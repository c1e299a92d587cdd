package ferment

import (
	"math"
	"testing"

	"cacaotherm/internal/material"
)

func boxLimits() material.Limits {
	return material.Box().Limits
}

func TestProfilePhases(t *testing.T) {
	m := NewBox(boxLimits())
	cool := boxLimits().OptimalMin - 10 // no stress, no death

	tests := []struct {
		hours float64
		want  float64
	}{
		{0, 90.0},
		{12, 130.0},
		{36, 220.0},
		{84, 320.0},
		{168, 180.0},
		{200, 180.0},
	}
	for _, tt := range tests {
		got := m.Heat(tt.hours*3600, cool, 0, false)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("hour %.0f: expected %f W/m³, got %f", tt.hours, tt.want, got)
		}
	}
}

func TestHeatNonNegativeAndBounded(t *testing.T) {
	m := NewDrum(boxLimits())

	for hours := 0.0; hours <= 200; hours += 4 {
		for tMax := 290.0; tMax <= 345.0; tMax += 5 {
			for _, evap := range []float64{0, 100, 250, 400} {
				q := m.Heat(hours*3600, tMax, evap, false)
				if q < 0 {
					t.Fatalf("negative generation %f at h=%f tMax=%f", q, hours, tMax)
				}
				if q > 999.0 {
					t.Fatalf("generation %f above ceiling at h=%f tMax=%f", q, hours, tMax)
				}
			}
		}
	}
}

func TestPermanentDeathLatch(t *testing.T) {
	m := NewBox(boxLimits())
	death := boxLimits().SafeMax

	// Healthy before the threshold.
	m.Heat(3600, death-1, 0, false)
	if !m.State().Alive {
		t.Fatal("population should be alive below the threshold")
	}

	// Crossing the threshold kills, and the transition step emits zero heat.
	q := m.Heat(2*3600, death, 0, false)
	if m.State().Alive {
		t.Fatal("expected death at the safe maximum")
	}
	if q != 0 {
		t.Errorf("expected zero generation at the death step, got %f", q)
	}
	deathTime := m.State().DeathTime
	if deathTime != 2*3600 {
		t.Errorf("expected death time 7200, got %f", deathTime)
	}

	// One-way: cooling back down never revives.
	for _, tMax := range []float64{death - 20, death - 5, death + 3} {
		m.Heat(4*3600, tMax, 0, false)
		if m.State().Alive {
			t.Fatal("death must latch permanently")
		}
		if m.State().DeathTime != deathTime {
			t.Fatal("death time must not move")
		}
	}
}

func TestPostDeathDecay(t *testing.T) {
	m := NewBox(boxLimits())
	m.Heat(3600, boxLimits().SafeMax, 0, false) // kill at 1h

	q6 := m.Heat(6*3600, boxLimits().OptimalMin, 0, false)
	q24 := m.Heat(24*3600, boxLimits().OptimalMin, 0, false)
	if q6 <= 0 {
		t.Fatalf("expected residual post-death heat, got %f", q6)
	}
	if q24 >= q6 {
		t.Errorf("post-death heat should decay: %f then %f", q6, q24)
	}

	alive := NewBox(boxLimits())
	qAlive := alive.Heat(6*3600, boxLimits().OptimalMin, 0, false)
	if q6 >= qAlive {
		t.Errorf("dead bed should generate less than a live one: %f vs %f", q6, qAlive)
	}
}

func TestThrottleTiers(t *testing.T) {
	m := NewDrum(boxLimits())
	l := boxLimits()

	tests := []struct {
		tMax float64
		want float64
	}{
		{l.OptimalMax - 2, 1.0},
		{l.OptimalMax + 1, 0.9},
		{l.SafeMax + 1, 0.3},
		{l.OptimalMax - 2, 1.0}, // recovers when temperature drops
	}
	for _, tt := range tests {
		m.Heat(3600, tt.tMax, 0, false)
		if got := m.State().ActivityFactor; got != tt.want {
			t.Errorf("tMax=%f: expected activity %f, got %f", tt.tMax, tt.want, got)
		}
		if !m.State().Alive {
			t.Error("throttled policy must never kill the population")
		}
	}
}

func TestThrottleStepsDownGeneration(t *testing.T) {
	m := NewDrum(boxLimits())
	l := boxLimits()
	at := 60 * 3600.0

	healthy := m.Heat(at, l.OptimalMax-2, 0, false)
	moderate := m.Heat(at, l.OptimalMax+1, 0, false)
	severe := m.Heat(at, l.SafeMax+1, 0, false)

	if !(severe < moderate && moderate < healthy) {
		t.Errorf("expected tiered step-down, got %f / %f / %f", healthy, moderate, severe)
	}
	if r := moderate / healthy; math.Abs(r-0.9) > 1e-9 {
		t.Errorf("moderate tier ratio: expected 0.9, got %f", r)
	}
	if r := severe / healthy; math.Abs(r-0.3) > 1e-9 {
		t.Errorf("severe tier ratio: expected 0.3, got %f", r)
	}
}

func TestMoistureStress(t *testing.T) {
	m := NewBox(boxLimits())
	cool := boxLimits().OptimalMin - 10

	m.Heat(3600, cool, 100, false)
	if s := m.State().MoistureStress; s != 0 {
		t.Errorf("expected no stress below the trigger, got %f", s)
	}

	m.Heat(3600, cool, 300, false)
	if s := m.State().MoistureStress; s != 1.0 {
		t.Errorf("expected full moisture stress at 300 W/m³, got %f", s)
	}
	if a := m.State().ActivityFactor; math.Abs(a-0.4) > 1e-9 {
		t.Errorf("expected activity 0.4 under full stress, got %f", a)
	}
}

func TestRotationBonus(t *testing.T) {
	m := NewDrum(boxLimits())
	cool := boxLimits().OptimalMin - 10

	idle := m.Heat(3600, cool, 0, false)
	rotating := m.Heat(3600, cool, 0, true)
	if r := rotating / idle; math.Abs(r-1.02) > 1e-9 {
		t.Errorf("expected rotation bonus 1.02, got %f", r)
	}
}

func TestSetModerateThrottle(t *testing.T) {
	m := NewDrum(boxLimits())
	m.SetModerateThrottle(0.8)
	m.Heat(3600, boxLimits().OptimalMax+1, 0, false)
	if got := m.State().ActivityFactor; got != 0.8 {
		t.Errorf("expected overridden tier 0.8, got %f", got)
	}

	m.SetModerateThrottle(0)   // rejected
	m.SetModerateThrottle(1.5) // rejected
	m.Heat(3600, boxLimits().OptimalMax+1, 0, false)
	if got := m.State().ActivityFactor; got != 0.8 {
		t.Errorf("invalid overrides must be ignored, got %f", got)
	}
}

func TestReset(t *testing.T) {
	m := NewBox(boxLimits())
	m.Heat(3600, boxLimits().SafeMax, 0, false)
	if m.State().Alive {
		t.Fatal("expected death before reset")
	}
	m.Reset()
	st := m.State()
	if !st.Alive || st.ActivityFactor != 1.0 || st.StressLevel != 0 {
		t.Errorf("reset should restore the pristine state, got %+v", st)
	}
}

package tui

import (
	"testing"

	"cacaotherm/internal/material"
)

func TestNewModelConvertsLimits(t *testing.T) {
	limits := material.Box().Limits
	limits.SafeMax = 55 + material.KelvinOffset
	limits.Emergency = 60 + material.KelvinOffset

	m := newModel("box", limits, 7*24*3600)

	if m.limits.SafeMax != 55 {
		t.Errorf("SafeMax not converted to celsius: got %.2f", m.limits.SafeMax)
	}
	if m.limits.Emergency != 60 {
		t.Errorf("Emergency not converted to celsius: got %.2f", m.limits.Emergency)
	}
	if m.limits.OptimalMax != material.Box().Limits.OptimalMax-material.KelvinOffset {
		t.Errorf("OptimalMax not converted to celsius: got %.2f", m.limits.OptimalMax)
	}
}

func TestTempTiers(t *testing.T) {
	limits := material.Box().Limits
	limits.SafeMax = 55 + material.KelvinOffset
	limits.Emergency = 60 + material.KelvinOffset
	m := newModel("box", limits, 7*24*3600)

	optimalMaxC := material.Box().Limits.OptimalMax - material.KelvinOffset

	cases := []struct {
		name  string
		tempC float64
		want  int
	}{
		{"ambient", 25, 0},
		{"just below optimal max", optimalMaxC - 0.1, 0},
		{"above optimal band", optimalMaxC + 2, 1},
		{"just below safety limit", 54.9, 1},
		{"at safety limit", 55, 2},
		{"past safety limit", 62, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := m.tempTier(tc.tempC); got != tc.want {
				t.Errorf("tier(%.1f) = %d, want %d", tc.tempC, got, tc.want)
			}
		})
	}
}

// Package metrics provides scalar run metrics accumulated from per-step
// samples.
package metrics

import "cacaotherm/internal/therm"

// PeakTemperature tracks the highest T_max seen over the run [°C].
type PeakTemperature struct {
	peak    float64
	samples int
}

func NewPeakTemperature() *PeakTemperature { return &PeakTemperature{} }

func (p *PeakTemperature) Name() string { return "peak_temperature_celsius" }

func (p *PeakTemperature) Observe(s therm.Sample) {
	if p.samples == 0 || s.TMax > p.peak {
		p.peak = s.TMax
	}
	p.samples++
}

func (p *PeakTemperature) Value() float64 { return p.peak }

func (p *PeakTemperature) Reset() {
	p.peak = 0
	p.samples = 0
}

// HoursAbove accumulates the time the peak temperature spends above a
// threshold [°C], reported in hours.
type HoursAbove struct {
	threshold float64
	dt        float64
	seconds   float64
}

func NewHoursAbove(thresholdC, dt float64) *HoursAbove {
	return &HoursAbove{threshold: thresholdC, dt: dt}
}

func (h *HoursAbove) Name() string { return "hours_above_optimal" }

func (h *HoursAbove) Observe(s therm.Sample) {
	if s.TMax > h.threshold {
		h.seconds += h.dt
	}
}

func (h *HoursAbove) Value() float64 { return h.seconds / 3600 }

func (h *HoursAbove) Reset() { h.seconds = 0 }

// MoistureLoss reports the final cumulative moisture loss [kg/m³].
type MoistureLoss struct {
	last float64
}

func NewMoistureLoss() *MoistureLoss { return &MoistureLoss{} }

func (m *MoistureLoss) Name() string { return "moisture_loss_kg_m3" }

func (m *MoistureLoss) Observe(s therm.Sample) { m.last = s.MoistureLoss }

func (m *MoistureLoss) Value() float64 { return m.last }

func (m *MoistureLoss) Reset() { m.last = 0 }

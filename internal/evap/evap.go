// Package evap models passive evaporative cooling of the fermenting cacao
// bed: vapor-pressure driven mass transfer enhanced by natural convection,
// fed by a moisture reservoir that depletes over the 7-day process.
package evap

import (
	"math"

	"cacaotherm/internal/material"
)

// Physical constants shared by both vessel variants.
const (
	gravity       = 9.81    // [m/s²]
	airViscosity  = 1.5e-5  // kinematic viscosity of air [m²/s]
	molarMass     = 0.018   // water [kg/mol]
	gasConstant   = 8314.0  // [J/(kmol·K)]
	latentHeat    = 2.257e6 // vaporization at ~45°C [J/kg]
	magnusBase    = 610.78  // [Pa]
	magnusA       = 17.27
	magnusB       = 237.3
	horizon       = 7 * 24 * 3600.0 // [s]
	depletionKnee = 0.10            // moisture fraction where evaporation starts to starve
)

// Reservoir tracks the moisture content of the bed as a deterministic linear
// decay from the initial to the final fraction over the process horizon.
type Reservoir struct {
	Initial float64
	Final   float64
}

// Fraction returns the remaining moisture content at time t. It is
// monotonically non-increasing and holds the final value past the horizon.
func (r Reservoir) Fraction(t float64) float64 {
	days := t / 86400.0
	progress := math.Min(days/7.0, 1.0)
	return r.Initial - (r.Initial-r.Final)*progress
}

// DepletionPolicy selects how a nearly dry bed curtails evaporation.
type DepletionPolicy int

const (
	// DepletionRamp scales evaporation linearly to zero once the moisture
	// fraction drops below the knee (box vessel).
	DepletionRamp DepletionPolicy = iota
	// DepletionFloor scales by fraction/initial with a 0.1 floor (drum
	// vessel); evaporation never fully stops while any moisture remains.
	DepletionFloor
)

// Model computes the volumetric evaporative cooling flux for one vessel
// variant. All fields are fixed at construction.
type Model struct {
	ambient   material.Ambient
	reservoir Reservoir
	depletion DepletionPolicy

	waterActivity float64 // initial a_w
	massTransfer  float64 // natural-convection mass transfer coeff [m/s]
	charLength    float64 // characteristic length for Grashof [m]
	buoyancyCap   float64 // cap on the buoyancy enhancement factor
	beanDiameter  float64 // [m]
	porosity      float64 // bed porosity
	areaConstant  float64 // specific-area shape constant
	exposure      float64 // surface exposure factor

	// Drum-only convection bonuses; unity for the box.
	drumConvFactor     float64
	geometryBonus      float64
	rotationMixing     float64
	dailyRotationBonus float64

	sustainedBasis float64 // available water basis for the sustained cap [kg/m³]
	ceiling        float64 // absolute flux ceiling [W/m³]
}

// NewBox builds the passive box cooling model.
func NewBox(ambient material.Ambient) *Model {
	return &Model{
		ambient:            ambient,
		reservoir:          Reservoir{Initial: 0.40, Final: 0.07},
		depletion:          DepletionRamp,
		waterActivity:      0.95,
		massTransfer:       0.001,
		charLength:         0.5,
		buoyancyCap:        0.9,
		beanDiameter:       0.01,
		porosity:           0.45,
		areaConstant:       6.0,
		exposure:           1.0,
		drumConvFactor:     1.0,
		geometryBonus:      1.0,
		rotationMixing:     1.0,
		dailyRotationBonus: 1.0,
		sustainedBasis:     1000.0,
		ceiling:            100.0,
	}
}

// NewDrum builds the rotating-drum cooling model: larger exposed area,
// mixing bonuses and a higher realistic ceiling.
func NewDrum(ambient material.Ambient) *Model {
	m := NewBox(ambient)
	m.depletion = DepletionFloor
	m.charLength = 0.8
	m.areaConstant = 8.0
	m.exposure = 1.2
	m.drumConvFactor = 0.5
	m.geometryBonus = 1.2
	m.rotationMixing = 1.5
	m.dailyRotationBonus = 1.15
	m.sustainedBasis = 1500.0
	m.ceiling = 200.0
	return m
}

// Ceiling returns the configured absolute flux ceiling [W/m³].
func (m *Model) Ceiling() float64 { return m.ceiling }

// Moisture exposes the reservoir for reporting.
func (m *Model) Moisture() Reservoir { return m.reservoir }

// WaterActivity returns the surface water activity at time t: the initial
// activity decaying linearly to 70% of itself over the horizon.
func (m *Model) WaterActivity(t float64) float64 {
	days := math.Min(t/86400.0, 7.0)
	return m.waterActivity * (0.7 + 0.3*(1-days/7.0))
}

// satPressure is the Magnus-Tetens saturated vapor pressure [Pa] at a
// Celsius temperature, constant below freezing.
func satPressure(tc float64) float64 {
	if tc <= 0 {
		return magnusBase
	}
	return magnusBase * math.Exp(magnusA*tc/(tc+magnusB))
}

// Cooling returns the volumetric evaporative flux [W/m³] at bed temperature
// T [K] and elapsed time t [s]. rotationFactor > 1 signals an in-progress
// rotation; the box variant passes 1. The result is always in
// [0, Ceiling()]: a bed at or below ambient temperature, or against a
// higher-humidity environment, evaporates nothing.
func (m *Model) Cooling(T, t, rotationFactor float64) float64 {
	if T <= m.ambient.Temp {
		return 0
	}

	fraction := m.reservoir.Fraction(t)
	var moistureFactor float64
	switch m.depletion {
	case DepletionFloor:
		moistureFactor = math.Max(0.1, fraction/m.reservoir.Initial)
	default:
		moistureFactor = 1.0
		if fraction < depletionKnee {
			moistureFactor = fraction / depletionKnee
		}
	}

	tc := T - material.KelvinOffset
	surface := m.WaterActivity(t) * satPressure(tc)
	ambient := m.ambient.RelHumidity * satPressure(m.ambient.Temp-material.KelvinOffset)
	deltaP := surface - ambient
	if deltaP <= 0 {
		return 0
	}

	// Natural-convection enhancement from the chimney effect.
	enhancement := 1.0
	deltaT := T - m.ambient.Temp
	gr := gravity * (1 / T) * deltaT * math.Pow(m.charLength, 3) / (airViscosity * airViscosity)
	if gr > 1e4 {
		enhancement = 1.0 + 0.5*math.Log10(gr/1e4)
		if enhancement > m.buoyancyCap {
			enhancement = m.buoyancyCap
		}
	}
	enhancement *= m.drumConvFactor * m.geometryBonus
	if rotationFactor > 1.0 {
		enhancement *= rotationFactor * m.rotationMixing * m.dailyRotationBonus
	} else {
		enhancement *= m.rotationMixing
	}

	hMass := m.massTransfer * enhancement
	massRate := hMass * (molarMass / (gasConstant * T)) * deltaP * moistureFactor

	specificArea := m.areaConstant * (1 - m.porosity) / m.beanDiameter
	q := massRate * latentHeat * specificArea * m.exposure

	// Cap by what the remaining moisture can sustain over the horizon, then
	// by the absolute realistic ceiling.
	maxSustained := fraction * m.sustainedBasis / horizon * latentHeat
	if q > maxSustained {
		q = maxSustained
	}
	if q > m.ceiling {
		q = m.ceiling
	}
	if q < 0 {
		q = 0
	}
	return q
}

// LatentHeat returns the latent heat of vaporization used for converting
// between cooling flux and moisture mass loss.
func LatentHeat() float64 { return latentHeat }

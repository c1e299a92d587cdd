package material

import "fmt"

// KelvinOffset converts between Celsius and Kelvin.
const KelvinOffset = 273.15

// Region tags a mesh cell with the material occupying it.
type Region int

const (
	RegionWood Region = iota + 1
	RegionCacao
	RegionAir
)

func (r Region) String() string {
	switch r {
	case RegionWood:
		return "wood"
	case RegionCacao:
		return "cacao"
	case RegionAir:
		return "air"
	default:
		return fmt.Sprintf("region(%d)", int(r))
	}
}

// Properties holds the thermophysical triple for one material.
type Properties struct {
	Conductivity float64 // k [W/m·K]
	Density      float64 // rho [kg/m³]
	SpecificHeat float64 // cp [J/kg·K]
}

// Diffusivity returns alpha = k/(rho·cp) [m²/s].
func (p Properties) Diffusivity() float64 {
	return p.Conductivity / (p.Density * p.SpecificHeat)
}

// Ambient describes the environment surrounding the vessel.
type Ambient struct {
	Temp        float64 // [K]
	RelHumidity float64 // 0..1
	Pressure    float64 // [Pa]
	ConvCoeff   float64 // base h [W/m²·K]
	WindSpeed   float64 // [m/s]
}

// Limits are the two safety temperatures plus the optimal fermentation band.
// SafeMax doubles as the thermal death threshold under the permanent death
// policy; Emergency forces a full stop of the run.
type Limits struct {
	OptimalMin float64 // [K]
	OptimalMax float64 // [K]
	SafeMax    float64 // [K]
	Emergency  float64 // [K]
}

// Validate rejects limit sets where the emergency threshold does not sit
// strictly above the safe maximum.
func (l Limits) Validate() error {
	if l.Emergency <= l.SafeMax {
		return fmt.Errorf("material: emergency threshold %.1fK must exceed safe maximum %.1fK", l.Emergency, l.SafeMax)
	}
	if l.OptimalMax >= l.SafeMax {
		return fmt.Errorf("material: optimal band %.1fK must sit below safe maximum %.1fK", l.OptimalMax, l.SafeMax)
	}
	return nil
}

// Catalog is the immutable per-run material and environment configuration.
// One catalog is built at simulation construction and passed by reference;
// nothing mutates it afterwards.
type Catalog struct {
	Wood    Properties
	Cacao   Properties
	Air     Properties
	Ambient Ambient
	Limits  Limits
}

// For returns the properties for a region. Unknown tags resolve to the
// air-like material, the weakest of the three; this keeps property lookup
// total without hiding the policy.
func (c *Catalog) For(r Region) Properties {
	switch r {
	case RegionWood:
		return c.Wood
	case RegionCacao:
		return c.Cacao
	default:
		return c.Air
	}
}

// Box returns the catalog for the wooden fermentation box: cedar walls
// around a cacao bed, ambient conditions of a tropical fermentation shed.
func Box() *Catalog {
	return &Catalog{
		Wood:  Properties{Conductivity: 0.128, Density: 420.0, SpecificHeat: 2000.0},
		Cacao: Properties{Conductivity: 0.279, Density: 910.0, SpecificHeat: 920.0},
		Air:   Properties{Conductivity: 0.026, Density: 1.2, SpecificHeat: 1005.0},
		Ambient: Ambient{
			Temp:        21.0 + KelvinOffset,
			RelHumidity: 0.65,
			Pressure:    101325,
			ConvCoeff:   10.0,
			WindSpeed:   0.5,
		},
		Limits: Limits{
			OptimalMin: 40.0 + KelvinOffset,
			OptimalMax: 48.0 + KelvinOffset,
			SafeMax:    55.0 + KelvinOffset,
			Emergency:  60.0 + KelvinOffset,
		},
	}
}

// Drum returns the catalog for the hexagonal rotating drum. The cacao
// density differs from the box: the drum holds 300 kg in 0.517 m³, an
// effective bed density of 580 kg/m³.
func Drum() *Catalog {
	c := Box()
	c.Cacao.Density = 580.0
	return c
}

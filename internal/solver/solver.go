// Package solver advances the temperature field through one implicit time
// step of the heat equation rho·cp·dT/dt = div(k grad T) + q_gen - q_evap
// with convective (Robin) boundaries on the outer grid faces.
package solver

import (
	"errors"
	"fmt"

	"cacaotherm/internal/material"
	"cacaotherm/internal/mesh"
)

// ErrNotConverged is returned when the iterative linear solve fails to reach
// tolerance; the caller is expected to abort the run.
var ErrNotConverged = errors.New("solver: linear step did not converge")

// Solver computes the temperature field after one time step from the
// previous field and the current volumetric source and sink fields [W/m³].
type Solver interface {
	Step(prev, gen, sink mesh.Field, dt float64) (mesh.Field, error)
}

// Convection describes the boundary heat exchange. Ventilated faces (hole
// patterns in the box walls) blend the enhanced coefficient over the open
// area fraction.
type Convection struct {
	Ambient            float64 // [K]
	Base               float64 // h on plain faces [W/m²·K]
	Vent               float64 // h over ventilation openings [W/m²·K]
	BottomVentFraction float64 // open-area fraction of the bottom face
	SideVentFraction   float64 // open-area fraction of each side face
}

// faceCoeff returns the effective convection coefficient for an outer face.
// axis: 0=x 1=y 2=z; positive selects the high-index face.
func (c Convection) faceCoeff(axis int, positive bool) float64 {
	blend := func(frac float64) float64 {
		return (1-frac)*c.Base + frac*c.Vent
	}
	if axis == 2 {
		if positive {
			return c.Base // top
		}
		return blend(c.BottomVentFraction)
	}
	return blend(c.SideVentFraction)
}

// Implicit is a backward-Euler finite-volume step solved by Gauss-Seidel
// iteration. The system matrix is diagonally dominant, so the sweep
// converges for any positive dt; non-convergence within MaxSweeps is
// reported as an error rather than silently accepted.
type Implicit struct {
	grid    *mesh.Grid
	catalog *material.Catalog
	conv    Convection

	MaxSweeps int
	Tolerance float64 // max absolute update per sweep [K]
}

func NewImplicit(grid *mesh.Grid, catalog *material.Catalog, conv Convection) *Implicit {
	return &Implicit{
		grid:      grid,
		catalog:   catalog,
		conv:      conv,
		MaxSweeps: 400,
		Tolerance: 1e-6,
	}
}

func (s *Implicit) Step(prev, gen, sink mesh.Field, dt float64) (mesh.Field, error) {
	g := s.grid
	n := g.NumCells()
	if len(prev) != n || len(gen) != n || len(sink) != n {
		return nil, fmt.Errorf("solver: field size mismatch, grid has %d cells", n)
	}
	if dt <= 0 {
		return nil, fmt.Errorf("solver: dt must be positive, got %f", dt)
	}

	vol := g.CellVolume()
	areaX := g.DY * g.DZ
	areaY := g.DX * g.DZ
	areaZ := g.DX * g.DY

	cur := prev.Clone()

	// Per-cell storage term rho*cp*V/dt and fixed right-hand side.
	heatCap := make([]float64, n)
	rhs := make([]float64, n)
	for c := 0; c < n; c++ {
		p := s.catalog.For(g.Regions[c])
		heatCap[c] = p.Density * p.SpecificHeat * vol / dt
		rhs[c] = heatCap[c]*prev[c] + (gen[c]-sink[c])*vol
	}

	type link struct {
		axis     int
		di       [3]int
		area     float64
		dist     float64
		positive bool
	}
	links := []link{
		{0, [3]int{-1, 0, 0}, areaX, g.DX, false},
		{0, [3]int{1, 0, 0}, areaX, g.DX, true},
		{1, [3]int{0, -1, 0}, areaY, g.DY, false},
		{1, [3]int{0, 1, 0}, areaY, g.DY, true},
		{2, [3]int{0, 0, -1}, areaZ, g.DZ, false},
		{2, [3]int{0, 0, 1}, areaZ, g.DZ, true},
	}

	for sweep := 0; sweep < s.MaxSweeps; sweep++ {
		maxDelta := 0.0
		for k := 0; k < g.NZ; k++ {
			for j := 0; j < g.NY; j++ {
				for i := 0; i < g.NX; i++ {
					c := g.Index(i, j, k)
					kc := s.catalog.For(g.Regions[c]).Conductivity

					diag := heatCap[c]
					off := rhs[c]
					for _, l := range links {
						ni, nj, nk := i+l.di[0], j+l.di[1], k+l.di[2]
						if ni < 0 || ni >= g.NX || nj < 0 || nj >= g.NY || nk < 0 || nk >= g.NZ {
							h := s.conv.faceCoeff(l.axis, l.positive)
							a := h * l.area
							diag += a
							off += a * s.conv.Ambient
							continue
						}
						nb := g.Index(ni, nj, nk)
						kn := s.catalog.For(g.Regions[nb]).Conductivity
						// Harmonic mean keeps the flux continuous across
						// material interfaces.
						kf := 2 * kc * kn / (kc + kn)
						a := kf * l.area / l.dist
						diag += a
						off += a * cur[nb]
					}

					next := off / diag
					if d := next - cur[c]; d > maxDelta {
						maxDelta = d
					} else if -d > maxDelta {
						maxDelta = -d
					}
					cur[c] = next
				}
			}
		}
		if maxDelta < s.Tolerance {
			if !cur.IsValid() {
				return nil, fmt.Errorf("%w: field contains NaN/Inf", ErrNotConverged)
			}
			return cur, nil
		}
	}
	return nil, fmt.Errorf("%w after %d sweeps", ErrNotConverged, s.MaxSweeps)
}

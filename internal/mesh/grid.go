package mesh

import (
	"fmt"
	"math"

	"cacaotherm/internal/material"
)

// Grid is a structured voxel mesh with one material region tag per cell.
// Region tags are assigned at construction and never change afterwards.
type Grid struct {
	NX, NY, NZ int
	DX, DY, DZ float64
	Regions    []material.Region
}

func (g *Grid) NumCells() int { return g.NX * g.NY * g.NZ }

func (g *Grid) Index(i, j, k int) int {
	return (k*g.NY+j)*g.NX + i
}

// CellVolume returns the volume of one voxel [m³].
func (g *Grid) CellVolume() float64 { return g.DX * g.DY * g.DZ }

// NewField allocates a field over the grid with every cell set to v.
func (g *Grid) NewField(v float64) Field {
	f := make(Field, g.NumCells())
	f.Fill(v)
	return f
}

// CountRegion returns the number of cells tagged with r.
func (g *Grid) CountRegion(r material.Region) int {
	n := 0
	for _, tag := range g.Regions {
		if tag == r {
			n++
		}
	}
	return n
}

// Box vessel dimensions [m]. The cacao bed fills the interior up to
// BedHeight above the bottom wall; the thin gap above it is interior air.
const (
	boxLength    = 0.85
	boxWidth     = 0.90
	boxHeight    = 0.74
	boxWall      = 0.03
	boxBedHeight = 0.663
)

// Drum dimensions [m]. The drum is meshed as its bounding box along x with
// cells outside the outer radius left untagged as exterior air; the cacao
// charge fills 69.1% of the interior cross-section from the bottom.
const (
	drumLength        = 1.8
	drumOuterRadius   = 0.43
	drumWall          = 0.03
	drumCacaoFraction = 0.691
)

// NewBox builds the wooden box grid at the given resolution. The outermost
// cell layer and any cell within one wall thickness of an outer face are
// wood, so the wall stays closed even when cells are coarser than the wall;
// interior cells below the bed height are cacao, the remainder air.
func NewBox(nx, ny, nz int) (*Grid, error) {
	if nx < 4 || ny < 4 || nz < 4 {
		return nil, fmt.Errorf("mesh: box resolution %dx%dx%d too coarse, need at least 4 cells per axis", nx, ny, nz)
	}
	g := &Grid{
		NX: nx, NY: ny, NZ: nz,
		DX: boxLength / float64(nx),
		DY: boxWidth / float64(ny),
		DZ: boxHeight / float64(nz),
	}
	g.Regions = make([]material.Region, g.NumCells())

	for k := 0; k < nz; k++ {
		z := (float64(k) + 0.5) * g.DZ
		for j := 0; j < ny; j++ {
			y := (float64(j) + 0.5) * g.DY
			for i := 0; i < nx; i++ {
				x := (float64(i) + 0.5) * g.DX
				idx := g.Index(i, j, k)
				if i == 0 || i == nx-1 || j == 0 || j == ny-1 || k == 0 || k == nz-1 ||
					x < boxWall || x > boxLength-boxWall ||
					y < boxWall || y > boxWidth-boxWall ||
					z < boxWall || z > boxHeight-boxWall {
					g.Regions[idx] = material.RegionWood
				} else if z-boxWall <= boxBedHeight {
					g.Regions[idx] = material.RegionCacao
				} else {
					g.Regions[idx] = material.RegionAir
				}
			}
		}
	}
	if g.CountRegion(material.RegionCacao) == 0 {
		return nil, fmt.Errorf("mesh: box grid %dx%dx%d produced no cacao cells", nx, ny, nz)
	}
	return g, nil
}

// NewDrum builds the rotating drum grid. The hexagonal section is
// approximated by its inscribed circle; the cacao fill height is solved so
// the charge occupies the specified fraction of the interior section.
func NewDrum(nx, ny, nz int) (*Grid, error) {
	if nx < 4 || ny < 4 || nz < 4 {
		return nil, fmt.Errorf("mesh: drum resolution %dx%dx%d too coarse, need at least 4 cells per axis", nx, ny, nz)
	}
	side := 2 * drumOuterRadius
	g := &Grid{
		NX: nx, NY: ny, NZ: nz,
		DX: drumLength / float64(nx),
		DY: side / float64(ny),
		DZ: side / float64(nz),
	}
	g.Regions = make([]material.Region, g.NumCells())

	rInt := drumOuterRadius - drumWall
	fillZ := fillHeight(rInt, drumCacaoFraction)

	for k := 0; k < nz; k++ {
		z := (float64(k)+0.5)*g.DZ - drumOuterRadius
		for j := 0; j < ny; j++ {
			y := (float64(j)+0.5)*g.DY - drumOuterRadius
			for i := 0; i < nx; i++ {
				r := math.Hypot(y, z)
				x := (float64(i) + 0.5) * g.DX
				cell := g.Index(i, j, k)
				switch {
				case i == 0 || i == nx-1 || j == 0 || j == ny-1 || k == 0 || k == nz-1 ||
					r > drumOuterRadius || x < drumWall || x > drumLength-drumWall:
					// Bounding-box corners, end caps and the outermost cell
					// layer read as wall.
					g.Regions[cell] = material.RegionWood
				case r > rInt:
					g.Regions[cell] = material.RegionWood
				case z <= fillZ:
					g.Regions[cell] = material.RegionCacao
				default:
					g.Regions[cell] = material.RegionAir
				}
			}
		}
	}
	if g.CountRegion(material.RegionCacao) == 0 {
		return nil, fmt.Errorf("mesh: drum grid %dx%dx%d produced no cacao cells", nx, ny, nz)
	}
	return g, nil
}

// fillHeight solves for the level z (measured from the drum axis) at which
// the circular segment below z holds the given fraction of the section area,
// by bisection.
func fillHeight(radius, fraction float64) float64 {
	lo, hi := -radius, radius
	for iter := 0; iter < 60; iter++ {
		mid := (lo + hi) / 2
		if segmentFraction(radius, mid) < fraction {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// segmentFraction returns the fraction of a circle of the given radius lying
// below the horizontal line at height z from the center.
func segmentFraction(radius, z float64) float64 {
	if z <= -radius {
		return 0
	}
	if z >= radius {
		return 1
	}
	// Area below the chord, normalized by the full circle.
	area := radius*radius*math.Acos(-z/radius) + z*math.Sqrt(radius*radius-z*z)
	return area / (math.Pi * radius * radius)
}

// Package wind provides the monthly environmental wind grids consumed by the
// sail model. Grids are hot-swapped by the driver when the simulated month
// changes.
package wind

import "github.com/tpgship/tpgsim/core/model"

// Cell is a single grid node with eastward (U) and northward (V) wind
// components in m/s.
type Cell struct {
	Lat float64
	Lon float64
	U   float64
	V   float64
}

// Grid is a set of wind cells for one month.
type Grid struct {
	cells []Cell
}

// NewGrid builds a grid from raw cells.
func NewGrid(cells []Cell) *Grid {
	cs := make([]Cell, len(cells))
	copy(cs, cells)
	return &Grid{cells: cs}
}

// At returns the wind components at the grid node nearest to p. An empty
// grid reports calm conditions.
func (g *Grid) At(p model.Position) (u, v float64) {
	if g == nil || len(g.cells) == 0 {
		return 0, 0
	}
	best := 0
	bestDist := sqDist(g.cells[0], p)
	for i := 1; i < len(g.cells); i++ {
		if d := sqDist(g.cells[i], p); d < bestDist {
			best, bestDist = i, d
		}
	}
	return g.cells[best].U, g.cells[best].V
}

func sqDist(c Cell, p model.Position) float64 {
	dLat := c.Lat - p.Lat
	dLon := c.Lon - p.Lon
	return dLat*dLat + dLon*dLon
}

// Provider supplies the wind grid for a given simulated month.
type Provider interface {
	Grid(year, month int) (*Grid, error)
}

// Calm is a Provider that always reports calm conditions. Used when no wind
// data is configured and in tests.
type Calm struct{}

// Grid returns an empty grid.
func (Calm) Grid(int, int) (*Grid, error) { return NewGrid(nil), nil }

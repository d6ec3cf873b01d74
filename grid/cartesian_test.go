package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCartesianCounts(t *testing.T) {
	g := NewCartesian(2, 3, 4, 1, 1, 1)
	assert.Equal(t, 24, g.NumCells())
	// (nx+1)*ny*nz + nx*(ny+1)*nz + nx*ny*(nz+1)
	assert.Equal(t, 3*3*4+2*4*4+2*3*5, g.NumFaces())
}

func TestCartesianNeighborsAndBoundaries(t *testing.T) {
	g := NewCartesian(2, 2, 1, 10, 20, 5)

	interior := 0
	for f := 0; f < g.NumFaces(); f++ {
		c1, c2 := g.FaceNeighbors(f)
		bid := g.BoundaryID(f)
		if bid == 0 {
			interior++
			assert.True(t, c1 >= 0 && c2 >= 0)
		} else {
			// Boundary faces have exactly one interior neighbor.
			assert.True(t, (c1 < 0) != (c2 < 0))
			assert.True(t, bid >= 1 && bid <= 6)
		}
	}
	// 2x2x1: one interior x face per row, one interior y face per
	// column, no interior z faces.
	assert.Equal(t, 4, interior)

	// The x face between cells (0,0,0) and (1,0,0) is face index 1; the
	// negative side neighbor comes first.
	c1, c2 := g.FaceNeighbors(1)
	assert.Equal(t, g.CellIndex(0, 0, 0), c1)
	assert.Equal(t, g.CellIndex(1, 0, 0), c2)
}

func TestCartesianGeometry(t *testing.T) {
	g := NewCartesian(2, 2, 2, 10, 20, 5)

	assert.Equal(t, 10.*20.*5., g.CellVolume(0))
	assert.Equal(t, [3]float64{5, 10, 2.5}, g.CellCentroid(0))
	assert.Equal(t, [3]float64{15, 30, 7.5}, g.CellCentroid(g.CellIndex(1, 1, 1)))

	// Face 0 is the x-min face of cell (0,0,0).
	assert.Equal(t, 20.*5., g.FaceArea(0))
	assert.Equal(t, [3]float64{1, 0, 0}, g.FaceNormal(0))
	assert.Equal(t, [3]float64{0, 10, 2.5}, g.FaceCentroid(0))

	// The first z-normal face sits on the z-min boundary of cell 0.
	zf := (g.Nx+1)*g.Ny*g.Nz + g.Nx*(g.Ny+1)*g.Nz
	assert.Equal(t, 5, g.BoundaryID(zf))
	assert.Equal(t, 10.*20., g.FaceArea(zf))
	assert.Equal(t, [3]float64{5, 10, 0}, g.FaceCentroid(zf))
}

func TestUniformRock(t *testing.T) {
	r := NewUniformRock(3, 0.2, 1.e-13)
	assert.Equal(t, 0.2, r.Porosity(2))
	K := r.Permeability(1)
	assert.Equal(t, 1.e-13, K[0])
	assert.Equal(t, 1.e-13, K[4])
	assert.Equal(t, 1.e-13, K[8])
	assert.Equal(t, 0., K[1])
}

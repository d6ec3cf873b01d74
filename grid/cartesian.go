package grid

// Cartesian is a boxed nx x ny x nz cell-centered grid with uniform
// spacing. Cells are numbered i + nx*(j + ny*k). Faces are numbered
// axis by axis: all x-normal faces first, then y-normal, then
// z-normal. Face orientation is positive along the face's axis, so a
// positive face flux flows from the lower-index neighbor to the
// higher.
//
// Boundary ids: 0 for interior faces, then 1/2 for the x min/max
// sides, 3/4 for y, 5/6 for z.
type Cartesian struct {
	Nx, Ny, Nz   int
	Dx, Dy, Dz   float64
	Origin       [3]float64
	numXF, numYF int
}

func NewCartesian(nx, ny, nz int, dx, dy, dz float64) *Cartesian {
	return &Cartesian{
		Nx: nx, Ny: ny, Nz: nz,
		Dx: dx, Dy: dy, Dz: dz,
		numXF: (nx + 1) * ny * nz,
		numYF: nx * (ny + 1) * nz,
	}
}

func (g *Cartesian) NumCells() int {
	return g.Nx * g.Ny * g.Nz
}

func (g *Cartesian) NumFaces() int {
	return g.numXF + g.numYF + g.Nx*g.Ny*(g.Nz+1)
}

func (g *Cartesian) CellIndex(i, j, k int) int {
	return i + g.Nx*(j+g.Ny*k)
}

func (g *Cartesian) cellIJK(cell int) (i, j, k int) {
	i = cell % g.Nx
	j = (cell / g.Nx) % g.Ny
	k = cell / (g.Nx * g.Ny)
	return
}

func (g *Cartesian) CellCentroid(cell int) [3]float64 {
	i, j, k := g.cellIJK(cell)
	return [3]float64{
		g.Origin[0] + (float64(i)+0.5)*g.Dx,
		g.Origin[1] + (float64(j)+0.5)*g.Dy,
		g.Origin[2] + (float64(k)+0.5)*g.Dz,
	}
}

func (g *Cartesian) CellVolume(cell int) float64 {
	return g.Dx * g.Dy * g.Dz
}

// faceLocal decomposes a face index into its axis and lattice
// position. For axis a, position pa runs 0..n_a inclusive (the +1
// layer), while the other two positions run over cells.
func (g *Cartesian) faceLocal(face int) (axis, pi, pj, pk int) {
	switch {
	case face < g.numXF:
		axis = 0
		pi = face % (g.Nx + 1)
		pj = (face / (g.Nx + 1)) % g.Ny
		pk = face / ((g.Nx + 1) * g.Ny)
	case face < g.numXF+g.numYF:
		f := face - g.numXF
		axis = 1
		pi = f % g.Nx
		pj = (f / g.Nx) % (g.Ny + 1)
		pk = f / (g.Nx * (g.Ny + 1))
	default:
		f := face - g.numXF - g.numYF
		axis = 2
		pi = f % g.Nx
		pj = (f / g.Nx) % g.Ny
		pk = f / (g.Nx * g.Ny)
	}
	return
}

// FaceNeighbors returns the cells on the negative and positive side of
// the face along its axis, -1 outside the grid.
func (g *Cartesian) FaceNeighbors(face int) (c1, c2 int) {
	axis, pi, pj, pk := g.faceLocal(face)
	c1, c2 = -1, -1
	switch axis {
	case 0:
		if pi > 0 {
			c1 = g.CellIndex(pi-1, pj, pk)
		}
		if pi < g.Nx {
			c2 = g.CellIndex(pi, pj, pk)
		}
	case 1:
		if pj > 0 {
			c1 = g.CellIndex(pi, pj-1, pk)
		}
		if pj < g.Ny {
			c2 = g.CellIndex(pi, pj, pk)
		}
	case 2:
		if pk > 0 {
			c1 = g.CellIndex(pi, pj, pk-1)
		}
		if pk < g.Nz {
			c2 = g.CellIndex(pi, pj, pk)
		}
	}
	return
}

func (g *Cartesian) BoundaryID(face int) int {
	axis, pi, pj, pk := g.faceLocal(face)
	switch axis {
	case 0:
		if pi == 0 {
			return 1
		}
		if pi == g.Nx {
			return 2
		}
	case 1:
		if pj == 0 {
			return 3
		}
		if pj == g.Ny {
			return 4
		}
	case 2:
		if pk == 0 {
			return 5
		}
		if pk == g.Nz {
			return 6
		}
	}
	return 0
}

func (g *Cartesian) FaceArea(face int) float64 {
	axis, _, _, _ := g.faceLocal(face)
	switch axis {
	case 0:
		return g.Dy * g.Dz
	case 1:
		return g.Dx * g.Dz
	}
	return g.Dx * g.Dy
}

// FaceNormal is the unit normal in the face's positive orientation.
func (g *Cartesian) FaceNormal(face int) [3]float64 {
	axis, _, _, _ := g.faceLocal(face)
	var n [3]float64
	n[axis] = 1
	return n
}

func (g *Cartesian) FaceCentroid(face int) [3]float64 {
	axis, pi, pj, pk := g.faceLocal(face)
	c := [3]float64{
		g.Origin[0] + (float64(pi)+0.5)*g.Dx,
		g.Origin[1] + (float64(pj)+0.5)*g.Dy,
		g.Origin[2] + (float64(pk)+0.5)*g.Dz,
	}
	c[axis] -= [3]float64{g.Dx, g.Dy, g.Dz}[axis] * 0.5
	return c
}

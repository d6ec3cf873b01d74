package grid

// Rock stores per-cell porosity and a diagonal permeability tensor.
type Rock struct {
	Poro []float64
	// Perm holds the diagonal permeability per cell, kx, ky, kz.
	Perm [][3]float64
}

// NewUniformRock builds rock properties with constant porosity and
// isotropic permeability for every cell.
func NewUniformRock(numCells int, porosity, permeability float64) *Rock {
	r := &Rock{
		Poro: make([]float64, numCells),
		Perm: make([][3]float64, numCells),
	}
	for c := 0; c < numCells; c++ {
		r.Poro[c] = porosity
		r.Perm[c] = [3]float64{permeability, permeability, permeability}
	}
	return r
}

func (r *Rock) Porosity(cell int) float64 {
	return r.Poro[cell]
}

func (r *Rock) Permeability(cell int) [9]float64 {
	p := r.Perm[cell]
	return [9]float64{
		p[0], 0, 0,
		0, p[1], 0,
		0, 0, p[2],
	}
}

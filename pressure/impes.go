package pressure

import "fmt"

// StableStepIMPES returns the stability-bounding timestep for the
// explicit composition update, from the last converged solve's face
// properties. Call after a SolveOk outcome.
func (s *Solver) StableStepIMPES() float64 {
	return s.psolver.ExplicitTimestepLimit(s.fp.FaceA, s.fp.PhaseMobFace,
		s.fp.PhaseMobFaceDeriv, s.fluid.SurfaceDensities())
}

// DoStepIMPES advances the cell compositions one explicit step of
// length dt, in place. Call after a SolveOk outcome.
func (s *Solver) DoStepIMPES(state *State, dt float64) error {
	var (
		numCells = s.grid.NumCells()
		nc       = s.fluid.NumComponents()
	)
	if len(state.CellZ) != numCells {
		return fmt.Errorf("state has %d cell compositions, expected %d", len(state.CellZ), numCells)
	}
	flat := make([]float64, numCells*nc)
	for c := 0; c < numCells; c++ {
		copy(flat[c*nc:(c+1)*nc], state.CellZ[c])
	}
	if err := s.psolver.ExplicitTransport(dt, flat); err != nil {
		return err
	}
	for c := 0; c < numCells; c++ {
		copy(state.CellZ[c], flat[c*nc:(c+1)*nc])
	}
	return nil
}

package pressure

import (
	"math"
	"runtime"
	"sync"

	"github.com/porousmedia/porsol/utils"
)

// perforation is the per-(well,perforation) state kept consistent with
// the evolving pressure field across iterations. The slice of records
// is sized once at Setup and never grows.
type perforation struct {
	well, cell int
	pressure   float64
	A          []float64 // np*nc, column major
	mob        PhaseVec
	sat        PhaseVec
	gpot       PhaseVec
}

// fluidSnapshot holds the per-cell and per-face fluid properties for
// one iteration. All arrays are overwritten in full on every
// computeFluidProps call.
type fluidSnapshot struct {
	TotCompr           []float64 // per cell, -d(tpv)/dp
	VolDiscr           []float64 // per cell, volume discrepancy rate
	RelVolDiscr        []float64 // per cell
	TotPhaseVolDensity []float64 // per cell, phase volume per pore volume
	ExpJacTerm         []float64 // per cell, one-sided -d(tpv)/dp
	CellA              []float64 // cells x np*nc, column major blocks
	FaceA              []float64 // faces x np*nc, upwinded
	PhaseMobFace       []float64 // faces x np, upwinded
	PhaseMobFaceDeriv  []float64 // faces x np, d(mobility)/dp at the upwind side
	GravCapFace        []float64 // faces x np, oriented with the face
}

func (fp *fluidSnapshot) resize(numCells, numFaces, np, nc int) {
	fp.TotCompr = resizeF64(fp.TotCompr, numCells)
	fp.VolDiscr = resizeF64(fp.VolDiscr, numCells)
	fp.RelVolDiscr = resizeF64(fp.RelVolDiscr, numCells)
	fp.TotPhaseVolDensity = resizeF64(fp.TotPhaseVolDensity, numCells)
	fp.ExpJacTerm = resizeF64(fp.ExpJacTerm, numCells)
	fp.CellA = resizeF64(fp.CellA, numCells*np*nc)
	fp.FaceA = resizeF64(fp.FaceA, numFaces*np*nc)
	fp.PhaseMobFace = resizeF64(fp.PhaseMobFace, numFaces*np)
	fp.PhaseMobFaceDeriv = resizeF64(fp.PhaseMobFaceDeriv, numFaces*np)
	fp.GravCapFace = resizeF64(fp.GravCapFace, numFaces*np)
}

func resizeF64(s []float64, n int) []float64 {
	if cap(s) < n {
		return make([]float64, n)
	}
	s = s[:n]
	for i := range s {
		s[i] = 0
	}
	return s
}

// pressureDelta is the perturbation used for the finite-difference
// compressibility and mobility derivatives.
func pressureDelta(p float64) float64 {
	return 1.e-6 * math.Max(math.Abs(p), 1.e5)
}

func uniformPhaseVec(np int, val float64) PhaseVec {
	v := make(PhaseVec, np)
	for i := range v {
		v[i] = val
	}
	return v
}

func shiftedPhaseVec(v PhaseVec, delta float64) PhaseVec {
	r := v.Copy()
	for i := range r {
		r[i] += delta
	}
	return r
}

func totalPhaseVolume(state FluidState, z CompVec) float64 {
	var tot float64
	for _, u := range state.PhaseToComp.PhaseVolumes(z) {
		tot += u
	}
	return tot
}

// computeFluidProps refreshes the fluid snapshot and the perforation
// records from the current pressures and compositions. Cell and face
// physics delegate to the fluid state evaluator; the per-perforation
// conditional (injectors use their own perforation pressure and the
// injection mixture, producers the owning cell's state) is why this
// runs on every iteration rather than once per timestep.
func (s *Solver) computeFluidProps(cellPressure, facePressure []PhaseVec, cellZ []CompVec, dt float64) {
	var (
		numCells = s.grid.NumCells()
		numFaces = s.grid.NumFaces()
		np       = s.fluid.NumPhases()
		nc       = s.fluid.NumComponents()
		fp       = &s.fp
	)
	fp.resize(numCells, numFaces, np, nc)

	cellState := make([]FluidState, numCells)

	// Cell properties, embarrassingly parallel over cells.
	pm := utils.NewPartitionMap(runtime.NumCPU(), numCells)
	var wg sync.WaitGroup
	for n := 0; n < pm.ParallelDegree; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			min, max := pm.GetBucketRange(n)
			for c := min; c < max; c++ {
				s.computeCellProps(c, cellPressure[c], cellZ[c], dt, cellState)
			}
		}(n)
	}
	wg.Wait()

	// Face properties with phase-potential upwinding.
	for f := 0; f < numFaces; f++ {
		s.computeFaceProps(f, cellPressure, facePressure, cellZ, cellState)
	}

	// Perforation properties.
	for i := range s.perf {
		p := &s.perf[i]
		var (
			wellPressure PhaseVec
			wellMixture  CompVec
		)
		if s.wells.Type(p.well) == Injector {
			wellPressure = uniformPhaseVec(np, p.pressure)
			wellMixture = s.wells.InjectionMixture(p.cell)
		} else {
			wellPressure = cellPressure[p.cell]
			wellMixture = cellZ[p.cell]
		}
		state := s.fluid.ComputeState(wellPressure, wellMixture)
		copy(p.A, state.PhaseToComp.Data)
		copy(p.mob, state.Mobility)
		copy(p.sat, state.Saturation)
	}
}

func (s *Solver) computeCellProps(c int, p PhaseVec, z CompVec, dt float64, cellState []FluidState) {
	var (
		np = s.fluid.NumPhases()
		nc = s.fluid.NumComponents()
		fp = &s.fp
	)
	state := s.fluid.ComputeState(p, z)
	cellState[c] = state
	copy(fp.CellA[c*np*nc:(c+1)*np*nc], state.PhaseToComp.Data)

	tpv := totalPhaseVolume(state, z)
	fp.TotPhaseVolDensity[c] = tpv
	poreVol := s.grid.CellVolume(c) * s.poro[c]
	fp.VolDiscr[c] = (tpv - 1.) * poreVol / dt
	fp.RelVolDiscr[c] = math.Abs(tpv - 1.)

	delta := pressureDelta(p[s.liquid])
	tpvPlus := totalPhaseVolume(s.fluid.ComputeState(shiftedPhaseVec(p, delta), z), z)
	tpvMinus := totalPhaseVolume(s.fluid.ComputeState(shiftedPhaseVec(p, -delta), z), z)
	fp.TotCompr[c] = -(tpvPlus - tpvMinus) / (2. * delta)
	fp.ExpJacTerm[c] = -(tpvPlus - tpv) / delta
}

// computeFaceProps upwinds face mobilities and phase-to-component
// matrices by phase potential and fills the gravity/capillary face
// term. Boundary faces weigh the interior state against an exterior
// state built from the face pressure and the inflow mixture.
func (s *Solver) computeFaceProps(f int, cellPressure, facePressure []PhaseVec, cellZ []CompVec, cellState []FluidState) {
	var (
		np     = s.fluid.NumPhases()
		nc     = s.fluid.NumComponents()
		fp     = &s.fp
		gz     = s.gravity[2]
		c1, c2 = s.grid.FaceNeighbors(f)
	)
	var (
		state1, state2 FluidState
		z1, z2         float64 // vertical centroid positions
		p1, p2         float64
	)
	side := func(c int) (FluidState, float64, float64) {
		if c >= 0 {
			return cellState[c], s.grid.CellCentroid(c)[2], cellPressure[c][s.liquid]
		}
		// Exterior side: fluid at face pressure carrying the inflow
		// mixture, positioned at the face centroid.
		st := s.fluid.ComputeState(facePressure[f], s.inflowMixture)
		return st, s.grid.FaceCentroid(f)[2], facePressure[f][s.liquid]
	}
	state1, z1, p1 = side(c1)
	state2, z2, p2 = side(c2)

	rho1 := s.fluid.PhaseDensities(PhaseCompMatrixFromSlice(np, nc, state1.PhaseToComp.Data))
	rho2 := s.fluid.PhaseDensities(PhaseCompMatrixFromSlice(np, nc, state2.PhaseToComp.Data))

	for ph := 0; ph < np; ph++ {
		rho := 0.5 * (rho1[ph] + rho2[ph])
		grav := rho * gz * (z1 - z2)
		fp.GravCapFace[f*np+ph] = grav

		up, pUp := state1, p1
		zUp := s.inflowMixture
		if c1 >= 0 {
			zUp = cellZ[c1]
		}
		if (p1-p2)+grav < 0 {
			up, pUp = state2, p2
			zUp = s.inflowMixture
			if c2 >= 0 {
				zUp = cellZ[c2]
			}
		}
		for comp := 0; comp < nc; comp++ {
			fp.FaceA[f*np*nc+comp*np+ph] = up.PhaseToComp.At(ph, comp)
		}
		fp.PhaseMobFace[f*np+ph] = up.Mobility[ph]

		delta := pressureDelta(pUp)
		shifted := s.fluid.ComputeState(uniformPhaseVec(np, pUp+delta), zUp)
		fp.PhaseMobFaceDeriv[f*np+ph] = (shifted.Mobility[ph] - up.Mobility[ph]) / delta
	}
}

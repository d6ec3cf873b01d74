package assembler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porousmedia/porsol/grid"
	"github.com/porousmedia/porsol/linalg"
	"github.com/porousmedia/porsol/pressure"
	"github.com/porousmedia/porsol/wells"
)

func near(a, b float64, tolI ...float64) (l bool) {
	var (
		tol float64
	)
	if len(tolI) == 0 {
		tol = 1.e-08
	} else {
		tol = tolI[0]
	}
	bound := math.Max(tol, tol*math.Abs(a))
	if math.Abs(a-b) <= bound {
		l = true
	}
	return
}

// uniformInputs builds assembler inputs with unit phase mobilities,
// identity phase-to-component matrices, no gravity and a uniform
// initial cell pressure.
func uniformInputs(g *grid.Cartesian, w *wells.List, np int, p0, totCompr float64) pressure.AssembleInputs {
	var (
		numCells = g.NumCells()
		numFaces = g.NumFaces()
		nc       = np
	)
	numPerfs := 0
	for well := 0; well < w.NumWells(); well++ {
		numPerfs += w.NumPerforations(well)
	}
	in := pressure.AssembleInputs{
		Sources:             make([]float64, numCells),
		BCTypes:             make([]pressure.FaceBCKind, numFaces),
		BCValues:            make([]float64, numFaces),
		Dt:                  1,
		TotCompr:            make([]float64, numCells),
		CellA:               make([]float64, numCells*np*nc),
		FaceA:               make([]float64, numFaces*np*nc),
		PerfA:               make([]float64, numPerfs*np*nc),
		PhaseMobFace:        make([]float64, numFaces*np),
		PerfMob:             make([]float64, numPerfs*np),
		CellPressureInitial: make([]float64, numCells),
		GravCapFace:         make([]float64, numFaces*np),
		PerfGravPot:         make([]float64, numPerfs*np),
		SurfaceDensities:    []float64{1.2, 800},
	}
	identity := func(A []float64) {
		for d := 0; d < np; d++ {
			A[d*np+d] = 1
		}
	}
	for c := 0; c < numCells; c++ {
		in.TotCompr[c] = totCompr
		in.CellPressureInitial[c] = p0
		identity(in.CellA[c*np*nc : (c+1)*np*nc])
	}
	for f := 0; f < numFaces; f++ {
		if g.BoundaryID(f) != 0 {
			in.BCTypes[f] = pressure.BCFlux
		}
		identity(in.FaceA[f*np*nc : (f+1)*np*nc])
		for ph := 0; ph < np; ph++ {
			in.PhaseMobFace[f*np+ph] = 1
		}
	}
	for p := 0; p < numPerfs; p++ {
		identity(in.PerfA[p*np*nc : (p+1)*np*nc])
		for ph := 0; ph < np; ph++ {
			in.PerfMob[p*np+ph] = 1
		}
	}
	return in
}

func solveSys(t *testing.T, sys *linalg.System, tol float64) {
	t.Helper()
	res := linalg.NewBiCGStab(tol, 4000).Solve(sys, sys.B, sys.X)
	require.True(t, res.Converged, "linear solve failed, reduction %g", res.Reduction)
}

func initTPFA(t *testing.T, g *grid.Cartesian, r *grid.Rock, w *wells.List) *TPFA {
	t.Helper()
	a := NewTPFA()
	require.NoError(t, a.Init(g, r, w, [3]float64{}))
	return a
}

func TestTransmissibilities(t *testing.T) {
	var (
		k = 1.e-12
		g = grid.NewCartesian(2, 1, 1, 10, 2, 3)
		r = grid.NewUniformRock(g.NumCells(), 0.2, k)
		a = initTPFA(t, g, r, wells.NewList())
	)
	ftrans := a.FaceTransmissibilities()
	// Interior x face: harmonic mean of two half transmissibilities
	// k*A/(dx/2) is k*A/dx.
	assert.True(t, near(ftrans[1], k*2.*3./10., 1.e-12))
	// Boundary x face keeps the one-sided half transmissibility.
	assert.True(t, near(ftrans[0], k*2.*3./5., 1.e-12))
	// First y face is a boundary face too, area dx*dz, distance dy/2.
	assert.True(t, near(ftrans[3], k*10.*3./1., 1.e-12))
}

func TestUniformPressureIsSteady(t *testing.T) {
	var (
		g  = grid.NewCartesian(3, 2, 1, 10, 10, 10)
		r  = grid.NewUniformRock(g.NumCells(), 0.2, 1.e-13)
		w  = wells.NewList()
		a  = initTPFA(t, g, r, w)
		p0 = 1.e7
	)
	in := uniformInputs(g, w, 2, p0, 1.e-8)
	sys, err := a.Assemble(in)
	require.NoError(t, err)
	solveSys(t, sys, 1.e-12)

	out := pressure.SolutionVectors{
		CellPressure: make([]float64, g.NumCells()),
		FacePressure: make([]float64, g.NumFaces()),
		FaceFlux:     make([]float64, g.NumFaces()),
	}
	require.NoError(t, a.ExtractSolution(sys, &out))

	for c := range out.CellPressure {
		assert.True(t, near(out.CellPressure[c], p0, 1.e-10))
	}
	for f := range out.FaceFlux {
		assert.True(t, near(out.FaceFlux[f], 0, 1.e-12))
	}
}

func TestWellPairRates(t *testing.T) {
	var (
		q = 1.e-9
		g = grid.NewCartesian(2, 1, 1, 10, 1, 1)
		r = grid.NewUniformRock(g.NumCells(), 0.2, 1.e-12)
		w = wells.NewList()
	)
	w.Add(pressure.Injector, 0, q, []int{0}, []float64{1.e-12}, pressure.CompVec{1, 0})
	w.Add(pressure.Producer, 0, -q, []int{1}, []float64{1.e-12}, pressure.CompVec{1, 0})
	a := initTPFA(t, g, r, w)

	// Near-incompressible so the steady rates dominate accumulation.
	in := uniformInputs(g, w, 2, 1.e7, 1.e-16)
	sys, err := a.Assemble(in)
	require.NoError(t, err)
	solveSys(t, sys, 1.e-10)

	out := pressure.SolutionVectors{
		CellPressure: make([]float64, g.NumCells()),
		FacePressure: make([]float64, g.NumFaces()),
		FaceFlux:     make([]float64, g.NumFaces()),
		WellBHP:      make([]float64, 2),
		WellPerfFlux: make([]float64, 2),
	}
	require.NoError(t, a.ExtractSolution(sys, &out))

	// Each well meets its target rate and the interior face carries the
	// full stream from injector to producer.
	assert.True(t, near(out.WellPerfFlux[0], q, 1.e-6))
	assert.True(t, near(out.WellPerfFlux[1], -q, 1.e-6))
	assert.True(t, near(out.FaceFlux[1], q, 1.e-3))
	assert.True(t, out.CellPressure[0] > out.CellPressure[1])
	assert.True(t, out.WellBHP[0] > out.CellPressure[0])
	assert.True(t, out.WellBHP[1] < out.CellPressure[1])
}

func TestDirichletBoundaryDrivesFlow(t *testing.T) {
	var (
		g  = grid.NewCartesian(1, 1, 1, 10, 10, 10)
		r  = grid.NewUniformRock(g.NumCells(), 0.2, 1.e-13)
		w  = wells.NewList()
		a  = initTPFA(t, g, r, w)
		p0 = 1.e7
		pb = 2.e7
	)
	in := uniformInputs(g, w, 2, p0, 1.e-16)
	// Prescribe pressure on the x-min face, face index 0.
	in.BCTypes[0] = pressure.BCPressure
	in.BCValues[0] = pb

	sys, err := a.Assemble(in)
	require.NoError(t, err)
	solveSys(t, sys, 1.e-12)

	out := pressure.SolutionVectors{
		CellPressure: make([]float64, 1),
		FacePressure: make([]float64, g.NumFaces()),
		FaceFlux:     make([]float64, g.NumFaces()),
	}
	require.NoError(t, a.ExtractSolution(sys, &out))

	var (
		acc   = in.TotCompr[0] * 0.2 * 1000. / in.Dt
		TmobT = a.FaceTransmissibilities()[0] * 2.
		pWant = (acc*p0 + TmobT*pb) / (acc + TmobT)
	)
	assert.True(t, near(out.CellPressure[0], pWant, 1.e-10))
	assert.Equal(t, pb, out.FacePressure[0])
	// Inflow through the x-min boundary is oriented along +x.
	assert.True(t, out.FaceFlux[0] > 0)
	assert.True(t, near(out.FaceFlux[0], TmobT*(pb-out.CellPressure[0]), 1.e-8))
	// The no-flow faces stay closed.
	for f := 1; f < g.NumFaces(); f++ {
		assert.Equal(t, 0., out.FaceFlux[f])
	}
}

func TestExplicitTransportConserves(t *testing.T) {
	var (
		g = grid.NewCartesian(2, 1, 1, 10, 1, 1)
		r = grid.NewUniformRock(g.NumCells(), 0.2, 1.e-12)
		w = wells.NewList()
		a = initTPFA(t, g, r, w)
	)
	in := uniformInputs(g, w, 2, 1.e7, 1.e-8)
	// Pressure gradient from cell 0 to cell 1 drives a face flux.
	in.CellPressureInitial[0] = 2.e7
	sys, err := a.Assemble(in)
	require.NoError(t, err)
	solveSys(t, sys, 1.e-12)

	out := pressure.SolutionVectors{
		CellPressure: make([]float64, 2),
		FacePressure: make([]float64, g.NumFaces()),
		FaceFlux:     make([]float64, g.NumFaces()),
	}
	require.NoError(t, a.ExtractSolution(sys, &out))
	require.True(t, out.FaceFlux[1] > 0)

	cellZ := []float64{0.6, 0.4, 0.5, 0.5}
	var before [2]float64
	for c := 0; c < 2; c++ {
		for comp := 0; comp < 2; comp++ {
			before[comp] += cellZ[c*2+comp] * a.poreVolume[c]
		}
	}

	dt := 100.
	require.NoError(t, a.ExplicitTransport(dt, cellZ))

	// Closed box: total component content is conserved and the upwind
	// cell loses what the downwind cell gains.
	var after [2]float64
	for c := 0; c < 2; c++ {
		for comp := 0; comp < 2; comp++ {
			after[comp] += cellZ[c*2+comp] * a.poreVolume[c]
		}
	}
	assert.True(t, near(after[0], before[0], 1.e-12))
	assert.True(t, near(after[1], before[1], 1.e-12))
	assert.True(t, cellZ[0] < 0.6)
	assert.True(t, cellZ[2] > 0.5)
}

func TestExplicitTimestepLimit(t *testing.T) {
	var (
		g = grid.NewCartesian(2, 1, 1, 10, 1, 1)
		r = grid.NewUniformRock(g.NumCells(), 0.2, 1.e-12)
		w = wells.NewList()
		a = initTPFA(t, g, r, w)
	)
	in := uniformInputs(g, w, 2, 1.e7, 1.e-8)
	in.CellPressureInitial[0] = 2.e7
	sys, err := a.Assemble(in)
	require.NoError(t, err)
	solveSys(t, sys, 1.e-12)

	out := pressure.SolutionVectors{
		CellPressure: make([]float64, 2),
		FacePressure: make([]float64, g.NumFaces()),
		FaceFlux:     make([]float64, g.NumFaces()),
	}
	require.NoError(t, a.ExtractSolution(sys, &out))

	numFaces := g.NumFaces()
	deriv := make([]float64, numFaces*2)
	// Insensitive mobilities put no bound on the explicit step.
	assert.True(t, math.IsInf(a.ExplicitTimestepLimit(in.FaceA, in.PhaseMobFace, deriv, in.SurfaceDensities), 1))

	for i := range deriv {
		deriv[i] = 1.e-7
	}
	limit := a.ExplicitTimestepLimit(in.FaceA, in.PhaseMobFace, deriv, in.SurfaceDensities)
	require.False(t, math.IsInf(limit, 1))
	// pv * mobT / (q * dmob) on the single flowing face.
	want := a.poreVolume[0] * 2. / (out.FaceFlux[1] * 1.e-7)
	assert.True(t, near(limit, want, 1.e-10))
}

func TestExtractNeedsCurrentSystem(t *testing.T) {
	var (
		g = grid.NewCartesian(1, 1, 1, 1, 1, 1)
		r = grid.NewUniformRock(1, 0.2, 1.e-13)
		w = wells.NewList()
		a = initTPFA(t, g, r, w)
	)
	in := uniformInputs(g, w, 2, 1.e7, 1.e-8)
	_, err := a.Assemble(in)
	require.NoError(t, err)

	other := &linalg.System{N: 1}
	err = a.ExtractSolution(other, &pressure.SolutionVectors{})
	assert.Error(t, err)
}

func TestAssembleInputValidation(t *testing.T) {
	var (
		g = grid.NewCartesian(1, 1, 1, 1, 1, 1)
		w = wells.NewList()
		a = initTPFA(t, g, grid.NewUniformRock(1, 0.2, 1.e-13), w)
	)
	in := uniformInputs(g, w, 2, 1.e7, 1.e-8)
	in.Dt = 0
	_, err := a.Assemble(in)
	assert.Error(t, err)

	in = uniformInputs(g, w, 2, 1.e7, 1.e-8)
	in.TotCompr = in.TotCompr[:0]
	_, err = a.Assemble(in)
	assert.Error(t, err)
}

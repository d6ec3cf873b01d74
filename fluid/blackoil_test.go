package fluid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porousmedia/porsol/pressure"
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

func TestBlackOilComponentCounts(t *testing.T) {
	for _, nc := range []int{2, 3} {
		f, err := NewBlackOil(nc)
		require.NoError(t, err)
		assert.Equal(t, nc, f.NumComponents())
		assert.Equal(t, nc, f.NumPhases())
	}
	for _, nc := range []int{0, 1, 4} {
		_, err := NewBlackOil(nc)
		assert.Error(t, err)
	}
}

func TestBlackOilReferenceState(t *testing.T) {
	f, err := NewBlackOil(2)
	require.NoError(t, err)

	// At the reference pressure B equals RefB, so the equilibrium
	// composition z_c = 1/(nc*B_c) gives unit total phase volume and
	// equal saturations.
	p := pressure.PhaseVec{1.e7, 1.e7}
	z := pressure.CompVec{1. / (2. * 1.2), 1. / (2. * 1.05)}
	state := f.ComputeState(p, z)

	var tot float64
	for _, u := range state.PhaseToComp.PhaseVolumes(z) {
		tot += u
	}
	assert.True(t, near(tot, 1.))
	assert.True(t, near(state.Saturation[0], 0.5))
	assert.True(t, near(state.Saturation[1], 0.5))
	// Mobility s^2/mu with the component viscosity of each phase:
	// Liquid carries Oil, Vapour carries Gas.
	assert.True(t, near(state.Mobility[0], 0.25/5.e-3))
	assert.True(t, near(state.Mobility[1], 0.25/5.e-5))
}

func TestBlackOilMatrixLayout(t *testing.T) {
	f, err := NewBlackOil(3)
	require.NoError(t, err)

	p := pressure.PhaseVec{2.e7, 2.e7, 2.e7}
	state := f.ComputeState(p, pressure.CompVec{0.3, 0.3, 0.4})

	bAt := func(comp int) float64 {
		return f.RefB[comp] / (1. + f.Compr[comp]*(2.e7-1.e7))
	}
	// Water into Aqua, Gas into Vapour, Oil into Liquid; everything
	// else is zero.
	A := state.PhaseToComp
	assert.True(t, near(A.At(0, 0), bAt(0)))
	assert.True(t, near(A.At(2, 1), bAt(1)))
	assert.True(t, near(A.At(1, 2), bAt(2)))
	assert.Equal(t, 0., A.At(0, 1))
	assert.Equal(t, 0., A.At(1, 0))
	// Column-major data layout: element (phase, comp) at comp*np+phase.
	assert.Equal(t, A.At(2, 1), A.Data[1*3+2])
}

func TestBlackOilCompressibility(t *testing.T) {
	f, err := NewBlackOil(2)
	require.NoError(t, err)

	// Formation volumes shrink with pressure, so the same composition
	// occupies less volume at higher pressure.
	z := pressure.CompVec{0.5, 0.5}
	low := f.ComputeState(pressure.PhaseVec{1.e7, 1.e7}, z)
	high := f.ComputeState(pressure.PhaseVec{3.e7, 3.e7}, z)
	var totLow, totHigh float64
	for _, u := range low.PhaseToComp.PhaseVolumes(z) {
		totLow += u
	}
	for _, u := range high.PhaseToComp.PhaseVolumes(z) {
		totHigh += u
	}
	assert.True(t, totHigh < totLow)
}

func TestBlackOilDensities(t *testing.T) {
	f, err := NewBlackOil(2)
	require.NoError(t, err)

	state := f.ComputeState(pressure.PhaseVec{1.e7, 1.e7}, pressure.CompVec{0.5, 0.5})
	rho := f.PhaseDensities(state.PhaseToComp)
	// rho_phase = surface density / formation volume at p = RefPressure.
	assert.True(t, near(rho[0], 800./1.05))
	assert.True(t, near(rho[1], 1.2/1.2))
}

func TestBlackOilDegenerateComposition(t *testing.T) {
	f, err := NewBlackOil(2)
	require.NoError(t, err)

	state := f.ComputeState(pressure.PhaseVec{1.e7, 1.e7}, pressure.CompVec{0, 0})
	assert.Equal(t, 0., state.Saturation[0])
	assert.Equal(t, 0., state.Mobility[1])
}

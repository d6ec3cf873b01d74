package fluid

import (
	"fmt"

	"github.com/porousmedia/porsol/pressure"
)

// BlackOil is a simplified compressible fluid with one component per
// phase (no dissolution). Component formation volumes vary linearly
// with pressure, relative permeabilities are quadratic in saturation
// and viscosities are constant.
//
// Component ordering: {Gas, Oil} for two components, {Water, Gas, Oil}
// for three. Phase ordering: {Liquid, Vapour} and
// {Aqua, Liquid, Vapour} respectively.
type BlackOil struct {
	nc int

	RefPressure float64
	// All per component, in the shared component ordering.
	RefB        []float64
	Compr       []float64
	Viscosity   []float64
	SurfaceRho  []float64
	phaseOfComp []int
}

func NewBlackOil(numComponents int) (*BlackOil, error) {
	f := &BlackOil{nc: numComponents, RefPressure: 1.e7}
	switch numComponents {
	case 2:
		// Components Gas, Oil into phases Vapour, Liquid.
		f.RefB = []float64{1.2, 1.05}
		f.Compr = []float64{1.e-8, 1.e-9}
		f.Viscosity = []float64{5.e-5, 5.e-3}
		f.SurfaceRho = []float64{1.2, 800.}
		f.phaseOfComp = []int{1, 0}
	case 3:
		// Components Water, Gas, Oil into phases Aqua, Vapour, Liquid.
		f.RefB = []float64{1.0, 1.2, 1.05}
		f.Compr = []float64{4.e-10, 1.e-8, 1.e-9}
		f.Viscosity = []float64{1.e-3, 5.e-5, 5.e-3}
		f.SurfaceRho = []float64{1000., 1.2, 800.}
		f.phaseOfComp = []int{0, 2, 1}
	default:
		return nil, fmt.Errorf("unhandled number of components: %d", numComponents)
	}
	return f, nil
}

func (f *BlackOil) NumComponents() int { return f.nc }
func (f *BlackOil) NumPhases() int     { return f.nc }

// formationVolume is the phase volume occupied by one surface volume
// of component comp at pressure p.
func (f *BlackOil) formationVolume(comp int, p float64) float64 {
	return f.RefB[comp] / (1. + f.Compr[comp]*(p-f.RefPressure))
}

func (f *BlackOil) ComputeState(phasePressure pressure.PhaseVec, composition pressure.CompVec) (state pressure.FluidState) {
	var (
		np = f.nc
		p  = phasePressure[pressure.LiquidIndex(np)]
	)
	state.PhaseToComp = pressure.NewPhaseCompMatrix(np, f.nc)
	for comp := 0; comp < f.nc; comp++ {
		state.PhaseToComp.Set(f.phaseOfComp[comp], comp, f.formationVolume(comp, p))
	}
	u := state.PhaseToComp.PhaseVolumes(composition)
	var totVol float64
	for _, uph := range u {
		totVol += uph
	}
	state.Saturation = make(pressure.PhaseVec, np)
	state.Mobility = make(pressure.PhaseVec, np)
	if totVol <= 0 {
		return
	}
	for comp := 0; comp < f.nc; comp++ {
		phase := f.phaseOfComp[comp]
		s := u[phase] / totVol
		state.Saturation[phase] = s
		state.Mobility[phase] = s * s / f.Viscosity[comp]
	}
	return
}

func (f *BlackOil) SurfaceDensities() []float64 {
	return f.SurfaceRho
}

func (f *BlackOil) PhaseDensities(A pressure.PhaseCompMatrix) pressure.PhaseVec {
	rho := make(pressure.PhaseVec, A.NumPhases)
	for comp := 0; comp < f.nc; comp++ {
		phase := f.phaseOfComp[comp]
		if b := A.At(phase, comp); b > 0 {
			rho[phase] = f.SurfaceRho[comp] / b
		} else {
			rho[phase] = f.SurfaceRho[comp]
		}
	}
	return rho
}

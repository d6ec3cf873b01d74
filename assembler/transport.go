package assembler

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ExplicitTimestepLimit returns a CFL-like stability bound for the
// explicit composition update: the smallest adjacent pore volume
// divided by the fastest saturation-wave throughput estimated from the
// face mobility derivatives. Meaningful only after ExtractSolution.
func (a *TPFA) ExplicitTimestepLimit(faceA, phaseMobFace, phaseMobFaceDeriv, surfaceDensities []float64) float64 {
	if a.last == nil || a.last.faceFlux == nil {
		return math.Inf(1)
	}
	var (
		asm      = a.last
		np       = asm.np
		numFaces = a.grid.NumFaces()
		limit    = math.Inf(1)
	)
	for f := 0; f < numFaces; f++ {
		q := math.Abs(asm.faceFlux[f])
		mobT := asm.faceMobT[f]
		if q == 0 || mobT == 0 {
			continue
		}
		var dmob float64
		for ph := 0; ph < np; ph++ {
			dmob = math.Max(dmob, math.Abs(phaseMobFaceDeriv[f*np+ph]))
		}
		if dmob == 0 {
			continue
		}
		pv := math.Inf(1)
		c1, c2 := a.grid.FaceNeighbors(f)
		for _, c := range [2]int{c1, c2} {
			if c >= 0 && a.poreVolume[c] < pv {
				pv = a.poreVolume[c]
			}
		}
		if dtf := pv * mobT / (q * dmob); dtf < limit {
			limit = dtf
		}
	}
	return limit
}

// ExplicitTransport advances cell compositions one explicit step using
// the fluxes recovered by the last ExtractSolution call. Face and
// perforation phase fluxes are split by fractional flow, converted to
// component surface volumes through the inverse phase-to-component
// matrices, and accumulated per cell. cellZ is strided by the number
// of components.
func (a *TPFA) ExplicitTransport(dt float64, cellZ []float64) error {
	if a.last == nil || a.last.faceFlux == nil {
		return fmt.Errorf("explicit transport requires an extracted solution")
	}
	var (
		asm      = a.last
		np       = asm.np
		numCells = a.grid.NumCells()
		numFaces = a.grid.NumFaces()
	)
	if len(cellZ)%numCells != 0 {
		return fmt.Errorf("composition length %d does not stride over %d cells", len(cellZ), numCells)
	}
	nc := len(cellZ) / numCells
	if np != nc {
		return fmt.Errorf("explicit transport needs square phase-to-component matrices, have %dx%d", np, nc)
	}

	// compFlux converts a total volume flux into component surface
	// volume rates using the upwinded A matrix and mobilities.
	compFlux := func(A []float64, mob []float64, q float64) ([]float64, error) {
		var mobT float64
		for ph := 0; ph < np; ph++ {
			mobT += mob[ph]
		}
		out := make([]float64, nc)
		if mobT == 0 {
			return out, nil
		}
		Ainv := mat.NewDense(np, nc, nil)
		var Am mat.Dense
		// A is stored column major; mat.Dense is row major, so build
		// the transpose and invert that.
		At := mat.NewDense(nc, np, A)
		Am.CloneFrom(At.T())
		if err := Ainv.Inverse(&Am); err != nil {
			return nil, fmt.Errorf("singular phase-to-component matrix: %v", err)
		}
		for comp := 0; comp < nc; comp++ {
			for ph := 0; ph < np; ph++ {
				out[comp] += Ainv.At(comp, ph) * (mob[ph] / mobT) * q
			}
		}
		return out, nil
	}

	delta := make([]float64, numCells*nc)
	for f := 0; f < numFaces; f++ {
		q := asm.faceFlux[f]
		if q == 0 {
			continue
		}
		cf, err := compFlux(asm.in.FaceA[f*np*nc:(f+1)*np*nc], asm.in.PhaseMobFace[f*np:(f+1)*np], q)
		if err != nil {
			return err
		}
		c1, c2 := a.grid.FaceNeighbors(f)
		for comp := 0; comp < nc; comp++ {
			if c1 >= 0 {
				delta[c1*nc+comp] -= cf[comp]
			}
			if c2 >= 0 {
				delta[c2*nc+comp] += cf[comp]
			}
		}
	}
	for p := range asm.perfFlux {
		q := asm.perfFlux[p]
		if q == 0 {
			continue
		}
		cf, err := compFlux(asm.in.PerfA[p*np*nc:(p+1)*np*nc], asm.in.PerfMob[p*np:(p+1)*np], q)
		if err != nil {
			return err
		}
		cell := a.perfCell[p]
		for comp := 0; comp < nc; comp++ {
			delta[cell*nc+comp] += cf[comp]
		}
	}
	for c := 0; c < numCells; c++ {
		for comp := 0; comp < nc; comp++ {
			cellZ[c*nc+comp] += dt * delta[c*nc+comp] / a.poreVolume[c]
		}
	}
	return nil
}

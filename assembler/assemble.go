package assembler

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"github.com/porousmedia/porsol/linalg"
	"github.com/porousmedia/porsol/pressure"
)

// assembly captures the coefficients of the last assembled system so
// that ExtractSolution and the explicit transport update can reuse
// them.
type assembly struct {
	in       pressure.AssembleInputs
	np       int
	faceMobT []float64 // total face mobility
	faceGrav []float64 // sum over phases of mob*gravcap, face oriented
	perfK    []float64 // WI * total perforation mobility
	perfG    []float64 // WI * sum over phases of mob*gpot
	sys      *linalg.System

	// Filled by ExtractSolution, consumed by the transport update.
	faceFlux []float64
	perfFlux []float64
	cellP    []float64
	bhp      []float64
}

// Assemble builds the coupled cell/well pressure system. Unknowns are
// ordered cells first, then one bottomhole pressure per well. The cell
// equations balance compressible accumulation against TPFA face fluxes,
// well inflow and explicit sources, with the initial volume discrepancy
// as an extra source term. The well equations enforce each well's
// target total rate.
func (a *TPFA) Assemble(in pressure.AssembleInputs) (*linalg.System, error) {
	var (
		numCells = a.grid.NumCells()
		numFaces = a.grid.NumFaces()
		numWells = a.wells.NumWells()
		numPerfs = a.numPerfs()
		n        = numCells + numWells
	)
	if numFaces == 0 || len(in.PhaseMobFace)%numFaces != 0 {
		return nil, fmt.Errorf("face mobility length %d does not stride over %d faces", len(in.PhaseMobFace), numFaces)
	}
	np := len(in.PhaseMobFace) / numFaces
	if len(in.TotCompr) != numCells || len(in.Sources) != numCells || len(in.CellPressureInitial) != numCells {
		return nil, fmt.Errorf("cell array sizes do not match %d cells", numCells)
	}
	if len(in.PerfMob) != numPerfs*np || len(in.PerfGravPot) != numPerfs*np {
		return nil, fmt.Errorf("perforation array sizes do not match %d perforations", numPerfs)
	}
	if in.Dt <= 0 {
		return nil, fmt.Errorf("nonpositive timestep %g", in.Dt)
	}

	asm := &assembly{
		in:       in,
		np:       np,
		faceMobT: make([]float64, numFaces),
		faceGrav: make([]float64, numFaces),
		perfK:    make([]float64, numPerfs),
		perfG:    make([]float64, numPerfs),
	}

	dok := sparse.NewDOK(n, n)
	add := func(i, j int, val float64) {
		dok.Set(i, j, dok.At(i, j)+val)
	}
	rhs := make([]float64, n)

	// Accumulation, explicit sources and the volume discrepancy source.
	for c := 0; c < numCells; c++ {
		acc := in.TotCompr[c] * a.poreVolume[c] / in.Dt
		add(c, c, acc)
		rhs[c] += acc * in.CellPressureInitial[c]
		rhs[c] += in.Sources[c]
		if len(in.InitialVolDiscr) == numCells {
			rhs[c] += in.InitialVolDiscr[c]
		}
	}

	// Face fluxes.
	for f := 0; f < numFaces; f++ {
		var mobT, grav float64
		for ph := 0; ph < np; ph++ {
			mob := in.PhaseMobFace[f*np+ph]
			mobT += mob
			grav += mob * in.GravCapFace[f*np+ph]
		}
		asm.faceMobT[f] = mobT
		asm.faceGrav[f] = grav
		T := a.ftrans[f]
		if T == 0 || mobT == 0 {
			continue
		}
		c1, c2 := a.grid.FaceNeighbors(f)
		if c1 >= 0 && c2 >= 0 {
			add(c1, c1, T*mobT)
			add(c1, c2, -T*mobT)
			rhs[c1] -= T * grav
			add(c2, c2, T*mobT)
			add(c2, c1, -T*mobT)
			rhs[c2] += T * grav
			continue
		}
		// Boundary face: only Dirichlet pressure conditions produce
		// flow. Nonzero Neumann conditions are rejected at setup.
		if in.BCTypes[f] != pressure.BCPressure {
			continue
		}
		cell, sign := c1, 1.
		if cell < 0 {
			cell, sign = c2, -1.
		}
		add(cell, cell, T*mobT)
		rhs[cell] += T*mobT*in.BCValues[f] - sign*T*grav
	}

	// Well coupling and rate-control equations.
	wellDiag := make([]float64, numWells)
	for p := 0; p < numPerfs; p++ {
		var (
			well = a.perfWell[p]
			cell = a.perfCell[p]
			wi   = a.perfWI[p]
			row  = numCells + well
		)
		var mobT, grav float64
		for ph := 0; ph < np; ph++ {
			mob := in.PerfMob[p*np+ph]
			mobT += mob
			grav += mob * in.PerfGravPot[p*np+ph]
		}
		K := wi * mobT
		G := wi * grav
		asm.perfK[p] = K
		asm.perfG[p] = G
		// Cell equation: subtract perforation inflow.
		add(cell, cell, K)
		add(cell, row, -K)
		rhs[cell] += G
		// Well equation: sum of perforation fluxes equals the target.
		add(row, row, K)
		add(row, cell, -K)
		rhs[row] -= G
		wellDiag[well] += K
	}
	for well := 0; well < numWells; well++ {
		row := numCells + well
		if wellDiag[well] == 0 {
			// Dead well (all perforation mobilities zero): pin its
			// bottomhole pressure so the system stays nonsingular.
			add(row, row, 1)
			if a.wells.NumPerforations(well) > 0 {
				rhs[row] = in.CellPressureInitial[a.wells.WellCell(well, 0)]
			}
			continue
		}
		rhs[row] += a.wells.TargetRate(well)
	}

	raw := dok.ToCSR().RawMatrix()
	sys := &linalg.System{
		N:  n,
		Ia: raw.Indptr,
		Ja: raw.Ind,
		Sa: raw.Data,
		B:  rhs,
		X:  make([]float64, n),
	}
	copy(sys.X[:numCells], in.CellPressureInitial)
	asm.sys = sys
	a.last = asm
	return sys, nil
}

// ExtractSolution recovers cell and face pressures, face fluxes, well
// bottomhole pressures and perforation fluxes from the solved system.
func (a *TPFA) ExtractSolution(sys *linalg.System, out *pressure.SolutionVectors) error {
	if a.last == nil || a.last.sys != sys {
		return fmt.Errorf("extraction requires the most recently assembled system")
	}
	var (
		asm      = a.last
		numCells = a.grid.NumCells()
		numFaces = a.grid.NumFaces()
		numWells = a.wells.NumWells()
	)
	copy(out.CellPressure, sys.X[:numCells])
	copy(out.WellBHP, sys.X[numCells:numCells+numWells])

	for f := 0; f < numFaces; f++ {
		var (
			T      = a.ftrans[f]
			mobT   = asm.faceMobT[f]
			c1, c2 = a.grid.FaceNeighbors(f)
		)
		switch {
		case c1 >= 0 && c2 >= 0:
			p1, p2 := out.CellPressure[c1], out.CellPressure[c2]
			out.FaceFlux[f] = T*mobT*(p1-p2) + T*asm.faceGrav[f]
			// Half-transmissibility weighted face pressure.
			t1, t2 := a.htrans[f][0], a.htrans[f][1]
			if t1+t2 > 0 {
				out.FacePressure[f] = (t1*p1 + t2*p2) / (t1 + t2)
			} else {
				out.FacePressure[f] = 0.5 * (p1 + p2)
			}
		default:
			cell, sign := c1, 1.
			if cell < 0 {
				cell, sign = c2, -1.
			}
			if asm.in.BCTypes[f] == pressure.BCPressure {
				pb := asm.in.BCValues[f]
				out.FaceFlux[f] = sign * (T*mobT*(out.CellPressure[cell]-pb) + sign*T*asm.faceGrav[f])
				out.FacePressure[f] = pb
			} else {
				out.FaceFlux[f] = 0
				out.FacePressure[f] = out.CellPressure[cell]
			}
		}
	}

	for p := range asm.perfK {
		well, cell := a.perfWell[p], a.perfCell[p]
		bhp := out.WellBHP[well]
		out.WellPerfFlux[p] = asm.perfK[p]*(bhp-out.CellPressure[cell]) + asm.perfG[p]
	}

	asm.cellP = append(asm.cellP[:0], out.CellPressure...)
	asm.bhp = append(asm.bhp[:0], out.WellBHP...)
	asm.faceFlux = append(asm.faceFlux[:0], out.FaceFlux...)
	asm.perfFlux = append(asm.perfFlux[:0], out.WellPerfFlux...)
	return nil
}

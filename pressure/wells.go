package pressure

import "math"

// computeWellPotentials fills each perforation's per-phase gravity
// potential rho_phase * g_z * (cell depth - well reference depth).
// Requires the perforation A matrices to be current; gravity must act
// along the vertical axis (checked at Setup).
func (s *Solver) computeWellPotentials() {
	var (
		np = s.fluid.NumPhases()
		nc = s.fluid.NumComponents()
	)
	for i := range s.perf {
		p := &s.perf[i]
		pos := s.grid.CellCentroid(p.cell)
		depthDelta := pos[2] - s.wells.ReferenceDepth(p.well)
		gh := s.gravity[2] * depthDelta
		rho := s.fluid.PhaseDensities(PhaseCompMatrixFromSlice(np, nc, p.A))
		for ph := 0; ph < np; ph++ {
			p.gpot[ph] = rho[ph] * gh
		}
	}
}

// computeWellPerfPressures sets each perforation's pressure to the
// well bottomhole pressure plus the saturation-weighted sum of its
// gravity potentials. The weighting saturation is the flux-weighted
// average over the well's perforations, which assumes each well is
// either net injecting or net producing. Wells with zero net flux fall
// back to an unweighted average.
func (s *Solver) computeWellPerfPressures(perfFlux, wellBHP, perfPressure []float64) {
	var (
		np       = s.fluid.NumPhases()
		numWells = s.wells.NumWells()
	)
	wellSat := make([]PhaseVec, numWells)
	wellFlux := make([]float64, numWells)
	for w := range wellSat {
		wellSat[w] = make(PhaseVec, np)
	}
	for i := range s.perf {
		p := &s.perf[i]
		flux := perfFlux[i]
		wellFlux[p.well] += flux
		for ph := 0; ph < np; ph++ {
			wellSat[p.well][ph] += flux * p.sat[ph]
		}
	}
	for w := 0; w < numWells; w++ {
		if math.Abs(wellFlux[w]) > 0 {
			for ph := 0; ph < np; ph++ {
				wellSat[w][ph] /= wellFlux[w]
			}
			continue
		}
		// No net flow: average the perforation saturations directly.
		for ph := 0; ph < np; ph++ {
			wellSat[w][ph] = 0
		}
		var count float64
		for i := range s.perf {
			if s.perf[i].well != w {
				continue
			}
			count++
			for ph := 0; ph < np; ph++ {
				wellSat[w][ph] += s.perf[i].sat[ph]
			}
		}
		if count > 0 {
			for ph := 0; ph < np; ph++ {
				wellSat[w][ph] /= count
			}
		}
	}

	for i := range s.perf {
		p := &s.perf[i]
		perfPressure[i] = wellBHP[p.well]
		for ph := 0; ph < np; ph++ {
			perfPressure[i] += wellSat[p.well][ph] * p.gpot[ph]
		}
	}
}

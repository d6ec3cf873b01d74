package assembler

import (
	"fmt"

	"github.com/porousmedia/porsol/pressure"
)

// Topology is the geometry the TPFA discretization needs on top of the
// core grid contract.
type Topology interface {
	pressure.Grid
	// FaceNeighbors returns the two adjacent cells in the face's
	// positive orientation, -1 outside the grid.
	FaceNeighbors(face int) (int, int)
	FaceArea(face int) float64
	FaceCentroid(face int) [3]float64
	FaceNormal(face int) [3]float64
}

// WellModel extends the core wells contract with the connection
// factors and rate targets the well equations need.
type WellModel interface {
	pressure.Wells
	WellIndex(well, perf int) float64
	TargetRate(well int) float64
}

// TPFA is the two-point flux approximation assembler. It builds the
// coupled cell/well sparse pressure system, recovers pressures and
// fluxes from its solution, and performs the explicit IMPES
// composition update.
type TPFA struct {
	grid    Topology
	rock    pressure.Rock
	wells   WellModel
	gravity [3]float64

	// Per-face half transmissibilities in face orientation order, and
	// the combined face transmissibility.
	htrans [][2]float64
	ftrans []float64

	// Perforation bookkeeping in global perforation order.
	perfWell, perfCell []int
	perfWI             []float64

	poreVolume []float64

	last *assembly
}

func NewTPFA() *TPFA {
	return &TPFA{}
}

func (a *TPFA) Init(grid pressure.Grid, rock pressure.Rock, wells pressure.Wells, gravity [3]float64) error {
	topo, ok := grid.(Topology)
	if !ok {
		return fmt.Errorf("TPFA assembler needs face topology, %T does not provide it", grid)
	}
	wm, ok := wells.(WellModel)
	if !ok {
		return fmt.Errorf("TPFA assembler needs well indices and rate targets, %T does not provide them", wells)
	}
	a.grid = topo
	a.rock = rock
	a.wells = wm
	a.gravity = gravity

	a.computeTransmissibilities()

	a.poreVolume = make([]float64, topo.NumCells())
	for c := range a.poreVolume {
		a.poreVolume[c] = topo.CellVolume(c) * rock.Porosity(c)
	}

	a.perfWell = a.perfWell[:0]
	a.perfCell = a.perfCell[:0]
	a.perfWI = a.perfWI[:0]
	for well := 0; well < wm.NumWells(); well++ {
		for perf := 0; perf < wm.NumPerforations(well); perf++ {
			a.perfWell = append(a.perfWell, well)
			a.perfCell = append(a.perfCell, wm.WellCell(well, perf))
			a.perfWI = append(a.perfWI, wm.WellIndex(well, perf))
		}
	}
	return nil
}

// FaceTransmissibilities exposes the harmonic face transmissibilities.
func (a *TPFA) FaceTransmissibilities() []float64 {
	return a.ftrans
}

// computeTransmissibilities builds one-sided transmissibilities
// k*A/d from the cell permeability along the face normal and the
// centroid distances, then combines them harmonically.
func (a *TPFA) computeTransmissibilities() {
	numFaces := a.grid.NumFaces()
	a.htrans = make([][2]float64, numFaces)
	a.ftrans = make([]float64, numFaces)
	for f := 0; f < numFaces; f++ {
		c1, c2 := a.grid.FaceNeighbors(f)
		fc := a.grid.FaceCentroid(f)
		n := a.grid.FaceNormal(f)
		area := a.grid.FaceArea(f)
		for side, cell := range [2]int{c1, c2} {
			if cell < 0 {
				continue
			}
			cc := a.grid.CellCentroid(cell)
			var dist float64
			for d := 0; d < 3; d++ {
				dist += (fc[d] - cc[d]) * n[d]
			}
			if dist < 0 {
				dist = -dist
			}
			perm := a.rock.Permeability(cell)
			// Permeability along the face normal, n' K n.
			var kn float64
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					kn += n[i] * perm[3*i+j] * n[j]
				}
			}
			if dist > 0 {
				a.htrans[f][side] = kn * area / dist
			}
		}
		t1, t2 := a.htrans[f][0], a.htrans[f][1]
		switch {
		case c1 >= 0 && c2 >= 0:
			if t1 > 0 && t2 > 0 {
				a.ftrans[f] = 1. / (1./t1 + 1./t2)
			}
		case c1 >= 0:
			a.ftrans[f] = t1
		default:
			a.ftrans[f] = t2
		}
	}
}

func (a *TPFA) numPerfs() int {
	return len(a.perfWell)
}

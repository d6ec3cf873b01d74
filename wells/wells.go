package wells

import "github.com/porousmedia/porsol/pressure"

// Perforation is one well-to-cell connection.
type Perforation struct {
	Cell int
	// WellIndex is the Peaceman-style connection transmissibility
	// factor relating drawdown to volumetric perforation flux.
	WellIndex float64
}

type Well struct {
	Type     pressure.WellType
	RefDepth float64
	// TargetRate is the controlled total volumetric rate, positive for
	// injection, negative for production.
	TargetRate float64
	Perfs      []Perforation
}

// List is the reference wells collaborator. It also carries the rate
// targets and connection factors the assembler needs for the well
// equations.
type List struct {
	Wells []Well
	// injection mixture keyed by perforated cell
	mixture map[int]pressure.CompVec
}

func NewList() *List {
	return &List{mixture: make(map[int]pressure.CompVec)}
}

func (l *List) Add(wtype pressure.WellType, refDepth, targetRate float64,
	perfCells []int, wellIndices []float64, injectionMixture pressure.CompVec) (well int) {
	w := Well{Type: wtype, RefDepth: refDepth, TargetRate: targetRate}
	for i, cell := range perfCells {
		w.Perfs = append(w.Perfs, Perforation{Cell: cell, WellIndex: wellIndices[i]})
		l.mixture[cell] = injectionMixture.Copy()
	}
	l.Wells = append(l.Wells, w)
	return len(l.Wells) - 1
}

func (l *List) NumWells() int {
	return len(l.Wells)
}

func (l *List) NumPerforations(well int) int {
	return len(l.Wells[well].Perfs)
}

func (l *List) ReferenceDepth(well int) float64 {
	return l.Wells[well].RefDepth
}

func (l *List) Type(well int) pressure.WellType {
	return l.Wells[well].Type
}

func (l *List) WellCell(well, perf int) int {
	return l.Wells[well].Perfs[perf].Cell
}

func (l *List) InjectionMixture(cell int) pressure.CompVec {
	return l.mixture[cell]
}

func (l *List) WellIndex(well, perf int) float64 {
	return l.Wells[well].Perfs[perf].WellIndex
}

func (l *List) TargetRate(well int) float64 {
	return l.Wells[well].TargetRate
}

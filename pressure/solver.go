package pressure

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/porousmedia/porsol/InputParameters"
	"github.com/porousmedia/porsol/linalg"
)

// Outcome is the result of one pressure solve. Fatal conditions (an
// unconverged linear solve, collaborator errors) are reported as Go
// errors instead, never as an Outcome.
type Outcome int

const (
	SolveOk Outcome = iota
	VolumeDiscrepancyTooLarge
	FailedToConverge
)

func (o Outcome) String() string {
	switch o {
	case SolveOk:
		return "SolveOk"
	case VolumeDiscrepancyTooLarge:
		return "VolumeDiscrepancyTooLarge"
	case FailedToConverge:
		return "FailedToConverge"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// State is the caller-visible simulation state. Solve reads the phase
// pressures and compositions and writes back updated pressures,
// fluxes and well data.
type State struct {
	CellPressure     []PhaseVec
	FacePressure     []PhaseVec
	CellZ            []CompVec
	FaceFlux         []float64
	WellBHP          []float64
	WellPerfPressure []float64
	WellPerfFlux     []float64
}

// NewState allocates a state with all vectors sized for the given
// grid, fluid and wells.
func NewState(grid Grid, fluid Fluid, wells Wells) *State {
	var (
		numCells = grid.NumCells()
		numFaces = grid.NumFaces()
		np       = fluid.NumPhases()
		nc       = fluid.NumComponents()
	)
	numPerfs := 0
	for w := 0; w < wells.NumWells(); w++ {
		numPerfs += wells.NumPerforations(w)
	}
	st := &State{
		CellPressure:     make([]PhaseVec, numCells),
		FacePressure:     make([]PhaseVec, numFaces),
		CellZ:            make([]CompVec, numCells),
		FaceFlux:         make([]float64, numFaces),
		WellBHP:          make([]float64, wells.NumWells()),
		WellPerfPressure: make([]float64, numPerfs),
		WellPerfFlux:     make([]float64, numPerfs),
	}
	for c := range st.CellPressure {
		st.CellPressure[c] = make(PhaseVec, np)
		st.CellZ[c] = make(CompVec, nc)
	}
	for f := range st.FacePressure {
		st.FacePressure[f] = make(PhaseVec, np)
	}
	return st
}

// Solver is the nonlinear (Picard, optionally quasi-Newton corrected)
// iteration driver for the compressible pressure system. A Solver
// instance owns its iteration caches and must not be shared between
// concurrent Solve calls.
type Solver struct {
	FluxRelTol          float64
	PressRelTol         float64
	MaxIter             int
	MaxRelativeVolDiscr float64
	RelaxTimeVolDiscr   float64
	RelaxWeightPressure float64
	OutputResidual      bool

	numComponents int
	inflowMixture CompVec
	strategy      linearizer

	psolver   PressureAssembler
	linsolver LinearSolver

	grid    Grid
	rock    Rock
	fluid   Fluid
	wells   Wells
	gravity [3]float64
	liquid  int

	poro     []float64
	bcTypes  []FaceBCKind
	bcValues []float64

	perf []perforation
	fp   fluidSnapshot

	// flattened perforation views handed to the assembler
	perfAFlat, perfMobFlat, perfGPotFlat []float64

	psolveCount int
}

// NewSolver parses the solver tolerances and the inflow mixture from
// the input parameters. Only two- and three-component fluids are
// supported.
func NewSolver(sp *InputParameters.SolverParameters, psolver PressureAssembler, linsolver LinearSolver) (*Solver, error) {
	mix := make(CompVec, sp.NumComponents)
	switch sp.NumComponents {
	case 2:
		mix[0] = sp.InflowMixtureGas
		mix[1] = sp.InflowMixtureOil
	case 3:
		mix[0] = sp.InflowMixtureWater
		mix[1] = sp.InflowMixtureGas
		mix[2] = sp.InflowMixtureOil
	default:
		return nil, fmt.Errorf("unhandled number of components: %d", sp.NumComponents)
	}
	s := &Solver{
		FluxRelTol:          sp.FluxRelTol,
		PressRelTol:         sp.PressRelTol,
		MaxIter:             sp.MaxPressureIter,
		MaxRelativeVolDiscr: sp.MaxRelativeVolDiscr,
		RelaxTimeVolDiscr:   sp.RelaxTimeVolDiscr,
		RelaxWeightPressure: sp.RelaxWeightPressure,
		OutputResidual:      sp.OutputResidual,
		numComponents:       sp.NumComponents,
		inflowMixture:       mix,
		psolver:             psolver,
		linsolver:           linsolver,
	}
	if sp.ExperimentalJacobian {
		s.strategy = quasiNewton{}
	} else {
		s.strategy = picard{}
	}
	return s, nil
}

// InflowMixture is the fixed composition assigned to boundary inflow.
func (s *Solver) InflowMixture() CompVec {
	return s.inflowMixture.Copy()
}

func (s *Solver) VolumeDiscrepancyLimit() float64 {
	return s.MaxRelativeVolDiscr
}

// Setup captures the collaborators, extracts porosity, initializes the
// assembler, and builds the boundary condition arrays and perforation
// records. Called once per grid.
func (s *Solver) Setup(grid Grid, rock Rock, fluid Fluid, wells Wells, gravity [3]float64, bc BoundaryConditions) error {
	if fluid.NumComponents() != s.numComponents {
		return fmt.Errorf("fluid has %d components, solver configured for %d",
			fluid.NumComponents(), s.numComponents)
	}
	if wells.NumWells() > 0 && (gravity[0] != 0 || gravity[1] != 0) {
		return fmt.Errorf("well potentials assume gravity along the vertical axis, have %v", gravity)
	}
	s.grid = grid
	s.rock = rock
	s.fluid = fluid
	s.wells = wells
	s.gravity = gravity
	s.liquid = LiquidIndex(fluid.NumPhases())

	s.poro = make([]float64, grid.NumCells())
	for c := range s.poro {
		s.poro[c] = rock.Porosity(c)
	}

	if err := s.psolver.Init(grid, rock, wells, gravity); err != nil {
		return err
	}

	numFaces := grid.NumFaces()
	s.bcTypes = make([]FaceBCKind, numFaces)
	s.bcValues = make([]float64, numFaces)
	for face := 0; face < numFaces; face++ {
		bid := grid.BoundaryID(face)
		if bid == 0 {
			s.bcTypes[face] = BCUnset
			continue
		}
		cond := bc.FlowCond(bid)
		switch cond.Kind {
		case BCPressure:
			s.bcTypes[face] = BCPressure
			s.bcValues[face] = cond.Value
		case BCFlux:
			if cond.Value != 0 {
				return fmt.Errorf("nonzero Neumann conditions not yet properly implemented (boundary id %d)", bid)
			}
			s.bcTypes[face] = BCFlux
		default:
			return fmt.Errorf("unhandled boundary condition type for boundary id %d", bid)
		}
	}

	var (
		np = fluid.NumPhases()
		nc = fluid.NumComponents()
	)
	s.perf = s.perf[:0]
	for well := 0; well < wells.NumWells(); well++ {
		for p := 0; p < wells.NumPerforations(well); p++ {
			s.perf = append(s.perf, perforation{
				well: well,
				cell: wells.WellCell(well, p),
				A:    make([]float64, np*nc),
				mob:  make(PhaseVec, np),
				sat:  make(PhaseVec, np),
				gpot: make(PhaseVec, np),
			})
		}
	}
	numPerfs := len(s.perf)
	s.perfAFlat = make([]float64, numPerfs*np*nc)
	s.perfMobFlat = make([]float64, numPerfs*np)
	s.perfGPotFlat = make([]float64, numPerfs*np)
	return nil
}

// VolumeDiscrepancyAcceptable recomputes fluid properties at the given
// state and reports whether the relative volume discrepancy is within
// the configured limit.
func (s *Solver) VolumeDiscrepancyAcceptable(state *State, dt float64) bool {
	s.computeFluidProps(state.CellPressure, state.FacePressure, state.CellZ, dt)
	rel := maxElement(s.fp.RelVolDiscr)
	if rel > s.MaxRelativeVolDiscr {
		fmt.Printf("    Relative volume discrepancy too large: %g\n", rel)
		return false
	}
	fmt.Printf("    Relative volume discrepancy ok: %g\n", rel)
	return true
}

// linearizeContext carries the per-iteration vectors into the
// linearization strategy.
type linearizeContext struct {
	iter                int
	dt                  float64
	src                 []float64
	initialVolDiscr     []float64
	cellPressure        []float64
	cellPressureInitial []float64
	wellBHP             []float64
}

// linearizer turns the current iterate into a solved linear system
// whose solution vector holds absolute cell pressures and bottomhole
// pressures, ready for back-substitution.
type linearizer interface {
	linearize(s *Solver, ctx *linearizeContext) (*linalg.System, error)
}

// Solve iterates the coupled pressure system to convergence for one
// timestep. It updates the state in place and returns one of the three
// outcome codes; any returned error is fatal and leaves the state
// inconsistent.
func (s *Solver) Solve(state *State, src []float64, dt float64) (Outcome, error) {
	var (
		numCells = s.grid.NumCells()
		numFaces = s.grid.NumFaces()
		numWells = s.wells.NumWells()
	)
	if len(src) != numCells {
		return 0, fmt.Errorf("source array has %d entries, expected %d", len(src), numCells)
	}
	for i := range s.perf {
		s.perf[i].pressure = state.WellPerfPressure[i]
	}

	// Initial pressure is the Liquid phase pressure.
	cellPressureInitial := make([]float64, numCells)
	for c := 0; c < numCells; c++ {
		cellPressureInitial[c] = state.CellPressure[c][s.liquid]
	}
	var (
		cellPressure    = append([]float64(nil), cellPressureInitial...)
		facePressure    = make([]float64, numFaces)
		faceFlux        = make([]float64, numFaces)
		wellBHP         = make([]float64, numWells)
		perfFlux        = state.WellPerfFlux
		initialVolDiscr []float64
	)
	for i := range perfFlux {
		perfFlux[i] = 0
	}

	for iter := 0; iter < s.MaxIter; iter++ {
		var (
			startFaceFlux = append([]float64(nil), faceFlux...)
			startFaceP    = append([]float64(nil), facePressure...)
			startCellP    = append([]float64(nil), cellPressure...)
			startPerfFlux = append([]float64(nil), perfFlux...)
		)
		s.computeFluidProps(state.CellPressure, state.FacePressure, state.CellZ, dt)

		if iter == 0 {
			s.psolveCount++
			initialVolDiscr = append([]float64(nil), s.fp.VolDiscr...)
			rel := maxElement(s.fp.RelVolDiscr)
			if rel > s.MaxRelativeVolDiscr {
				fmt.Printf("    Relative volume discrepancy too large: %g\n", rel)
				return VolumeDiscrepancyTooLarge, nil
			}
			if s.RelaxTimeVolDiscr > 0 {
				relax := math.Min(1., dt/s.RelaxTimeVolDiscr)
				for i := range initialVolDiscr {
					initialVolDiscr[i] *= relax
				}
			}
			// Well gravity potentials depend only on geometry and
			// reference depths, so one evaluation per solve suffices.
			s.computeWellPotentials()
		}

		ctx := &linearizeContext{
			iter:                iter,
			dt:                  dt,
			src:                 src,
			initialVolDiscr:     initialVolDiscr,
			cellPressure:        cellPressure,
			cellPressureInitial: cellPressureInitial,
			wellBHP:             wellBHP,
		}
		sys, err := s.strategy.linearize(s, ctx)
		if err != nil {
			return 0, err
		}

		out := SolutionVectors{
			CellPressure: cellPressure,
			FacePressure: facePressure,
			FaceFlux:     faceFlux,
			WellBHP:      wellBHP,
			WellPerfFlux: perfFlux,
		}
		if err := s.psolver.ExtractSolution(sys, &out); err != nil {
			return 0, err
		}

		// Relaxation. Face state has no meaningful prior on the first
		// iteration, so faces only blend from the second one on.
		if w := s.RelaxWeightPressure; w != 1.0 {
			for c := 0; c < numCells; c++ {
				cellPressure[c] = w*cellPressure[c] + (1.-w)*startCellP[c]
			}
			if iter > 0 {
				for f := 0; f < numFaces; f++ {
					facePressure[f] = w*facePressure[f] + (1.-w)*startFaceP[f]
					faceFlux[f] = w*faceFlux[f] + (1.-w)*startFaceFlux[f]
				}
			}
		}

		// Publish scalar pressures in phase-vector form.
		for c := 0; c < numCells; c++ {
			for ph := range state.CellPressure[c] {
				state.CellPressure[c][ph] = cellPressure[c]
			}
		}
		for f := 0; f < numFaces; f++ {
			for ph := range state.FacePressure[f] {
				state.FacePressure[f][ph] = facePressure[f]
			}
		}
		copy(state.FaceFlux, faceFlux)
		copy(state.WellBHP, wellBHP)

		s.computeWellPerfPressures(perfFlux, wellBHP, state.WellPerfPressure)
		for i := range s.perf {
			s.perf[i].pressure = state.WellPerfPressure[i]
		}

		fluxRel, pressRel := fluxPressChanges(faceFlux, perfFlux, cellPressure,
			startFaceFlux, startPerfFlux, startCellP)

		if iter == 0 {
			fmt.Printf("Iteration      Rel. flux change     Rel. pressure change\n")
		}
		fmt.Printf("%6d%24.5g%24.5g\n", iter, fluxRel, pressRel)

		if fluxRel < s.FluxRelTol || pressRel < s.PressRelTol {
			fmt.Printf("Pressure solver converged. Number of iterations: %d\n\n", iter+1)
			return SolveOk, nil
		}
	}
	return FailedToConverge, nil
}

// assembleCurrent builds the Picard system from the current snapshot
// and perforation state.
func (s *Solver) assembleCurrent(ctx *linearizeContext) (*linalg.System, error) {
	return s.psolver.Assemble(AssembleInputs{
		Sources:             ctx.src,
		BCTypes:             s.bcTypes,
		BCValues:            s.bcValues,
		Dt:                  ctx.dt,
		TotCompr:            s.fp.TotCompr,
		InitialVolDiscr:     ctx.initialVolDiscr,
		CellA:               s.fp.CellA,
		FaceA:               s.fp.FaceA,
		PerfA:               s.flattenPerfA(),
		PhaseMobFace:        s.fp.PhaseMobFace,
		PerfMob:             s.flattenPerfMob(),
		CellPressureInitial: ctx.cellPressureInitial,
		GravCapFace:         s.fp.GravCapFace,
		PerfGravPot:         s.flattenPerfGPot(),
		SurfaceDensities:    s.fluid.SurfaceDensities(),
	})
}

// picard is the standard linearization: assemble the Picard system and
// solve it directly for absolute pressures.
type picard struct{}

func (picard) linearize(s *Solver, ctx *linearizeContext) (*linalg.System, error) {
	sys, err := s.assembleCurrent(ctx)
	if err != nil {
		return nil, err
	}
	res := s.linsolver.Solve(sys, sys.B, sys.X)
	if !res.Converged {
		return nil, fmt.Errorf("linear solver failed to converge in %d iterations, residual reduction achieved is %g",
			res.Iterations, res.Reduction)
	}
	return sys, nil
}

func (s *Solver) flattenPerfA() []float64 {
	np, nc := s.fluid.NumPhases(), s.fluid.NumComponents()
	for i := range s.perf {
		copy(s.perfAFlat[i*np*nc:(i+1)*np*nc], s.perf[i].A)
	}
	return s.perfAFlat
}

func (s *Solver) flattenPerfMob() []float64 {
	np := s.fluid.NumPhases()
	for i := range s.perf {
		copy(s.perfMobFlat[i*np:(i+1)*np], s.perf[i].mob)
	}
	return s.perfMobFlat
}

func (s *Solver) flattenPerfGPot() []float64 {
	np := s.fluid.NumPhases()
	for i := range s.perf {
		copy(s.perfGPotFlat[i*np:(i+1)*np], s.perf[i].gpot)
	}
	return s.perfGPotFlat
}

func maxElement(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Max(v)
}

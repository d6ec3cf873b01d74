package pressure

import "github.com/porousmedia/porsol/linalg"

// Collaborator contracts consumed by the solver. The solver captures
// these at Setup and assumes they are not mutated for its lifetime.

type Grid interface {
	NumCells() int
	NumFaces() int
	// BoundaryID returns 0 for interior faces, a positive id otherwise.
	BoundaryID(face int) int
	CellCentroid(cell int) [3]float64
	CellVolume(cell int) float64
	// FaceNeighbors returns the two adjacent cells in the face's
	// positive orientation, -1 outside the grid.
	FaceNeighbors(face int) (int, int)
	FaceCentroid(face int) [3]float64
}

type Rock interface {
	Porosity(cell int) float64
	// Permeability returns the cell permeability tensor in row major
	// order (9 entries).
	Permeability(cell int) [9]float64
}

// FluidState is the local fluid state at one (pressure, composition)
// point as computed by the fluid interface.
type FluidState struct {
	Saturation PhaseVec
	Mobility   PhaseVec
	// PhaseToComp maps component surface volumes to phase volumes, in
	// the shared column major element order.
	PhaseToComp PhaseCompMatrix
}

type Fluid interface {
	NumComponents() int
	NumPhases() int
	ComputeState(pressure PhaseVec, composition CompVec) FluidState
	// SurfaceDensities are per component, in the shared component
	// ordering.
	SurfaceDensities() []float64
	// PhaseDensities computes in-situ phase densities from a
	// phase-to-component matrix.
	PhaseDensities(A PhaseCompMatrix) PhaseVec
}

type WellType int

const (
	Injector WellType = iota
	Producer
)

type Wells interface {
	NumWells() int
	NumPerforations(well int) int
	ReferenceDepth(well int) float64
	Type(well int) WellType
	// WellCell returns the grid cell a perforation connects to.
	WellCell(well, perf int) int
	// InjectionMixture is the component mixture injected through the
	// given cell's perforation. Only meaningful for injectors.
	InjectionMixture(cell int) CompVec
}

type BoundaryConditions interface {
	FlowCond(boundaryID int) FlowCondition
}

// AssembleInputs carries per-iteration data into the assembler. Flat
// arrays are strided per the shared element ordering: phase-component
// matrices are cell (or face, or perforation) blocks of
// numPhases*numComponents column major entries, mobilities are blocks
// of numPhases entries.
type AssembleInputs struct {
	Sources             []float64
	BCTypes             []FaceBCKind
	BCValues            []float64
	Dt                  float64
	TotCompr            []float64
	InitialVolDiscr     []float64
	CellA               []float64
	FaceA               []float64
	PerfA               []float64
	PhaseMobFace        []float64
	PerfMob             []float64
	CellPressureInitial []float64
	GravCapFace         []float64
	PerfGravPot         []float64
	SurfaceDensities    []float64
}

// SolutionVectors receives the back-substituted solution of one
// assembled system.
type SolutionVectors struct {
	CellPressure []float64
	FacePressure []float64
	FaceFlux     []float64
	WellBHP      []float64
	WellPerfFlux []float64
}

// PressureAssembler is the discretization collaborator: it owns the
// sparse system construction, the recovery of pressures and fluxes
// from a solved system, and the explicit transport update.
type PressureAssembler interface {
	Init(grid Grid, rock Rock, wells Wells, gravity [3]float64) error
	Assemble(in AssembleInputs) (*linalg.System, error)
	// ExtractSolution turns the solution vector of the last assembled
	// system into cell/face pressures, face fluxes, well bottomhole
	// pressures and perforation fluxes.
	ExtractSolution(sys *linalg.System, out *SolutionVectors) error
	// ExplicitTimestepLimit returns a stability bound for the explicit
	// composition update, from the last extracted fluxes.
	ExplicitTimestepLimit(faceA, phaseMobFace, phaseMobFaceDeriv, surfaceDensities []float64) float64
	// ExplicitTransport advances cell compositions in place by one
	// explicit step using the last extracted fluxes. cellZ is strided
	// by numComponents.
	ExplicitTransport(dt float64, cellZ []float64) error
}

// LinearSolver solves the sparse system with right-hand side b and
// initial guess x, leaving the solution in x.
type LinearSolver interface {
	Solve(sys *linalg.System, b, x []float64) linalg.Results
}

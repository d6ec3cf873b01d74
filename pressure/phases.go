package pressure

// Phase and component ordering conventions shared with the fluid state
// evaluator and the assembler. With two components the model tracks
// {Gas, Oil} partitioning into phases {Liquid, Vapour}; with three it
// tracks {Water, Gas, Oil} partitioning into {Aqua, Liquid, Vapour}.
// All pressure unknowns are Liquid phase pressures (capillary pressure
// between phases is not modeled).

type Phase int

const (
	Aqua Phase = iota
	Liquid
	Vapour
)

type Component int

const (
	Water Component = iota
	Gas
	Oil
)

// LiquidIndex returns the index of the Liquid phase for a model with
// numPhases phases (two-phase models have no Aqua phase).
func LiquidIndex(numPhases int) int {
	if numPhases == 2 {
		return 0
	}
	return 1
}

// PhaseVec holds one scalar per fluid phase.
type PhaseVec []float64

// CompVec holds one scalar per fluid component, in surface volume
// per pore volume terms.
type CompVec []float64

func (v PhaseVec) Copy() PhaseVec {
	r := make(PhaseVec, len(v))
	copy(r, v)
	return r
}

func (v CompVec) Copy() CompVec {
	r := make(CompVec, len(v))
	copy(r, v)
	return r
}

// PhaseCompMatrix is a dense numPhases x numComponents matrix mapping
// component surface volumes to phase volumes. Storage is column major
// (all phases of component 0 first), which is the element ordering
// contract shared with the fluid state evaluator and the assembler.
// Do not change the layout without changing both collaborators.
type PhaseCompMatrix struct {
	NumPhases, NumComponents int
	Data                     []float64
}

func NewPhaseCompMatrix(numPhases, numComponents int) PhaseCompMatrix {
	return PhaseCompMatrix{
		NumPhases:     numPhases,
		NumComponents: numComponents,
		Data:          make([]float64, numPhases*numComponents),
	}
}

// PhaseCompMatrixFromSlice wraps an existing column major slice without
// copying. The slice must have length numPhases*numComponents.
func PhaseCompMatrixFromSlice(numPhases, numComponents int, data []float64) PhaseCompMatrix {
	if len(data) != numPhases*numComponents {
		panic("phase/component matrix slice has wrong length")
	}
	return PhaseCompMatrix{NumPhases: numPhases, NumComponents: numComponents, Data: data}
}

func (m PhaseCompMatrix) At(phase, comp int) float64 {
	return m.Data[comp*m.NumPhases+phase]
}

func (m PhaseCompMatrix) Set(phase, comp int, val float64) {
	m.Data[comp*m.NumPhases+phase] = val
}

// PhaseVolumes returns u = A*z, the phase volumes per pore volume for
// component densities z.
func (m PhaseCompMatrix) PhaseVolumes(z CompVec) PhaseVec {
	u := make(PhaseVec, m.NumPhases)
	for comp := 0; comp < m.NumComponents; comp++ {
		zc := z[comp]
		for phase := 0; phase < m.NumPhases; phase++ {
			u[phase] += m.Data[comp*m.NumPhases+phase] * zc
		}
	}
	return u
}

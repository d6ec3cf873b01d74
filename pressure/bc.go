package pressure

import "fmt"

// FaceBCKind is the per-face boundary condition classification used by
// the assembler. Faces without an assigned boundary id stay BCUnset.
type FaceBCKind uint8

const (
	BCUnset FaceBCKind = iota
	BCPressure
	BCFlux
)

func (k FaceBCKind) String() string {
	switch k {
	case BCUnset:
		return "Unset"
	case BCPressure:
		return "Pressure"
	case BCFlux:
		return "Flux"
	}
	return fmt.Sprintf("Unknown(%d)", uint8(k))
}

// FlowCondition is the condition attached to one boundary id: either a
// Dirichlet pressure or a Neumann outflux value.
type FlowCondition struct {
	Kind  FaceBCKind
	Value float64
}

// BCMap is a simple BoundaryConditions implementation keyed on
// boundary id. Ids absent from the map are treated as unset.
type BCMap map[int]FlowCondition

func (m BCMap) FlowCond(boundaryID int) FlowCondition {
	return m[boundaryID]
}

package pressure

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// fluxPressChanges computes the relative flux and pressure changes
// between two consecutive iterations. The flux change is the infinity
// norm over faces and perforation fluxes jointly, normalized by the
// larger of the two iterations' maximum flux magnitudes; the pressure
// change is normalized the same way over cells. An all-zero
// normalizer means both iterations were identically zero, which is
// treated as trivially converged (relative change zero) rather than
// left to divide by zero.
func fluxPressChanges(faceFlux, perfFlux, cellPressure,
	startFaceFlux, startPerfFlux, startCellPressure []float64) (fluxRel, pressRel float64) {
	var (
		inf     = math.Inf(1)
		maxFlux = math.Max(
			math.Max(floats.Norm(faceFlux, inf), floats.Norm(perfFlux, inf)),
			math.Max(floats.Norm(startFaceFlux, inf), floats.Norm(startPerfFlux, inf)))
		maxPress = math.Max(floats.Norm(cellPressure, inf), floats.Norm(startCellPressure, inf))
	)
	var fluxChange, pressChange float64
	for i := range faceFlux {
		fluxChange = math.Max(fluxChange, math.Abs(faceFlux[i]-startFaceFlux[i]))
	}
	for i := range perfFlux {
		fluxChange = math.Max(fluxChange, math.Abs(perfFlux[i]-startPerfFlux[i]))
	}
	for i := range cellPressure {
		pressChange = math.Max(pressChange, math.Abs(cellPressure[i]-startCellPressure[i]))
	}
	if maxFlux > 0 {
		fluxRel = fluxChange / maxFlux
	}
	if maxPress > 0 {
		pressRel = pressChange / maxPress
	}
	return
}

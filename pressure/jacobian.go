package pressure

import (
	"fmt"
	"os"
	"strings"

	"github.com/porousmedia/porsol/linalg"
)

// quasiNewton is the alternate linearization: it reuses the assembled
// Picard system to build an approximate Newton step.
//
// The Picard cell equation carries a compressibility accumulation term
// c_t*(p - p0)*V*phi/dt. The Newton residual instead wants the volume
// discrepancy rate at the current pressure, (1 - tpv(p))*V*phi/dt, so
// the residual is corrected by subtracting the former and adding the
// latter; the matching diagonal correction removes the c_t
// contribution and adds the derivative of the discrepancy term,
// -d(tpv)/dp scaled by the same V*phi/dt. The corrected system is
// solved for the pressure increment dp, and absolute pressures are
// recovered as p - dp before back-substitution.
type quasiNewton struct{}

func (quasiNewton) linearize(s *Solver, ctx *linearizeContext) (*linalg.System, error) {
	sys, res, err := s.computeResidualJacobian(ctx)
	if err != nil {
		return nil, err
	}

	if s.OutputResidual {
		name := fmt.Sprintf("residual-%d-%d.dat", s.psolveCount-1, ctx.iter)
		var sb strings.Builder
		for _, r := range res {
			fmt.Fprintf(&sb, "%g\n", r)
		}
		if err := os.WriteFile(name, []byte(sb.String()), 0644); err != nil {
			return nil, fmt.Errorf("writing residual output: %w", err)
		}
	}

	// Solve for dp, using res as the right-hand side.
	result := s.linsolver.Solve(sys, res, sys.X)
	if !result.Converged {
		return nil, fmt.Errorf("linear solver failed to converge in %d iterations, residual reduction achieved is %g",
			result.Iterations, result.Reduction)
	}
	// X contains dp; back-substitution expects absolute values p - dp.
	numCells := s.grid.NumCells()
	for cell := 0; cell < numCells; cell++ {
		sys.X[cell] = ctx.cellPressure[cell] - sys.X[cell]
	}
	for well := range ctx.wellBHP {
		sys.X[numCells+well] = ctx.wellBHP[well] - sys.X[numCells+well]
	}
	return sys, nil
}

// computeResidualJacobian assembles the Picard system, evaluates its
// raw residual A*x - b at the current pressures, and applies the
// residual and diagonal corrections described above.
func (s *Solver) computeResidualJacobian(ctx *linearizeContext) (*linalg.System, []float64, error) {
	sys, err := s.assembleCurrent(ctx)
	if err != nil {
		return nil, nil, err
	}
	numCells := s.grid.NumCells()
	copy(sys.X[:numCells], ctx.cellPressure)
	copy(sys.X[numCells:], ctx.wellBHP)
	res := make([]float64, sys.N)
	sys.Residual(res)

	for cell := 0; cell < numCells; cell++ {
		scale := s.grid.CellVolume(cell) * s.poro[cell] / ctx.dt
		dres := s.fp.TotCompr[cell] * (ctx.cellPressure[cell] - ctx.cellPressureInitial[cell])
		dres -= 1.0 - s.fp.TotPhaseVolDensity[cell]
		res[cell] -= dres * scale
	}
	for cell := 0; cell < numCells; cell++ {
		scale := s.grid.CellVolume(cell) * s.poro[cell] / ctx.dt
		for i := sys.Ia[cell]; i < sys.Ia[cell+1]; i++ {
			if sys.Ja[i] == cell {
				sys.Sa[i] -= s.fp.TotCompr[cell] * scale
				sys.Sa[i] += s.fp.ExpJacTerm[cell] * scale
			}
		}
	}
	return sys, res, nil
}

package linalg

import "fmt"

// System is a square sparse linear system in compressed sparse row
// form. It is the wire format between the assembler and the linear
// solver collaborators.
type System struct {
	N  int       // number of rows
	Ia []int     // row pointers, len N+1
	Ja []int     // column indices, len NNZ
	Sa []float64 // values, len NNZ
	B  []float64 // right-hand side, len N
	X  []float64 // solution / initial guess, len N
}

func (s *System) NNZ() int {
	return len(s.Ja)
}

// MulVec computes y = A*x.
func (s *System) MulVec(x, y []float64) {
	for row := 0; row < s.N; row++ {
		var sum float64
		for i := s.Ia[row]; i < s.Ia[row+1]; i++ {
			sum += s.Sa[i] * x[s.Ja[i]]
		}
		y[row] = sum
	}
}

// Residual computes res = A*X - B using the current contents of X.
func (s *System) Residual(res []float64) {
	s.MulVec(s.X, res)
	for row := 0; row < s.N; row++ {
		res[row] -= s.B[row]
	}
}

// Diagonal extracts the diagonal entries of A. Rows without an
// explicit diagonal entry yield zero.
func (s *System) Diagonal(diag []float64) {
	for row := 0; row < s.N; row++ {
		diag[row] = 0
		for i := s.Ia[row]; i < s.Ia[row+1]; i++ {
			if s.Ja[i] == row {
				diag[row] = s.Sa[i]
			}
		}
	}
}

func (s *System) check() error {
	if len(s.Ia) != s.N+1 {
		return fmt.Errorf("row pointer length %d does not match N=%d", len(s.Ia), s.N)
	}
	if len(s.Ja) != len(s.Sa) {
		return fmt.Errorf("index/value length mismatch: %d vs %d", len(s.Ja), len(s.Sa))
	}
	if len(s.B) != s.N || len(s.X) != s.N {
		return fmt.Errorf("rhs/solution length mismatch with N=%d", s.N)
	}
	return nil
}

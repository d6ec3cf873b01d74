package linalg

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Results reports the outcome of one sparse linear solve.
type Results struct {
	Converged  bool
	Iterations int
	// Reduction is the achieved relative residual norm.
	Reduction float64
}

// BiCGStab is a Jacobi-preconditioned BiCGStab solver over CSR
// systems. It is the reference LinearSolver collaborator; the solver
// driver only depends on the LinearSolver contract.
type BiCGStab struct {
	Tol     float64 // relative residual tolerance
	MaxIter int     // 0 means 4*N
}

func NewBiCGStab(tol float64, maxIter int) *BiCGStab {
	if tol <= 0 {
		tol = 1.e-10
	}
	return &BiCGStab{Tol: tol, MaxIter: maxIter}
}

func (bs *BiCGStab) Solve(sys *System, b, x []float64) (res Results) {
	var (
		n       = sys.N
		maxIter = bs.MaxIter
	)
	if err := sys.check(); err != nil {
		return Results{}
	}
	if maxIter <= 0 {
		maxIter = 4 * n
	}
	// Jacobi preconditioner from the matrix diagonal.
	diag := make([]float64, n)
	sys.Diagonal(diag)
	minv := make([]float64, n)
	for i := range diag {
		if diag[i] != 0 {
			minv[i] = 1. / diag[i]
		} else {
			minv[i] = 1.
		}
	}

	bnorm := floats.Norm(b, 2)
	if bnorm == 0 {
		for i := range x {
			x[i] = 0
		}
		return Results{Converged: true, Iterations: 0, Reduction: 0}
	}

	r := make([]float64, n)
	sys.MulVec(x, r)
	for i := range r {
		r[i] = b[i] - r[i]
	}
	rhat := make([]float64, n)
	copy(rhat, r)
	if rnorm := floats.Norm(r, 2); rnorm/bnorm < bs.Tol {
		return Results{Converged: true, Iterations: 0, Reduction: rnorm / bnorm}
	}

	var (
		rho, alpha, omega = 1., 1., 1.
		v, p              = make([]float64, n), make([]float64, n)
		phat, shat, s, t  = make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
		rnorm             = floats.Norm(r, 2)
	)
	for iter := 1; iter <= maxIter; iter++ {
		rho1 := floats.Dot(rhat, r)
		if rho1 == 0 {
			return Results{Converged: false, Iterations: iter, Reduction: rnorm / bnorm}
		}
		beta := (rho1 / rho) * (alpha / omega)
		for i := range p {
			p[i] = r[i] + beta*(p[i]-omega*v[i])
		}
		for i := range phat {
			phat[i] = minv[i] * p[i]
		}
		sys.MulVec(phat, v)
		alpha = rho1 / floats.Dot(rhat, v)
		for i := range s {
			s[i] = r[i] - alpha*v[i]
		}
		if snorm := floats.Norm(s, 2); snorm/bnorm < bs.Tol {
			floats.AddScaled(x, alpha, phat)
			return Results{Converged: true, Iterations: iter, Reduction: snorm / bnorm}
		}
		for i := range shat {
			shat[i] = minv[i] * s[i]
		}
		sys.MulVec(shat, t)
		tt := floats.Dot(t, t)
		if tt == 0 {
			return Results{Converged: false, Iterations: iter, Reduction: rnorm / bnorm}
		}
		omega = floats.Dot(t, s) / tt
		floats.AddScaled(x, alpha, phat)
		floats.AddScaled(x, omega, shat)
		for i := range r {
			r[i] = s[i] - omega*t[i]
		}
		rho = rho1
		rnorm = floats.Norm(r, 2)
		if rnorm/bnorm < bs.Tol {
			return Results{Converged: true, Iterations: iter, Reduction: rnorm / bnorm}
		}
		if omega == 0 || math.IsNaN(rnorm) {
			return Results{Converged: false, Iterations: iter, Reduction: rnorm / bnorm}
		}
	}
	return Results{Converged: false, Iterations: maxIter, Reduction: rnorm / bnorm}
}

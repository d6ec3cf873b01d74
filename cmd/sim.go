/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"math"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/porousmedia/porsol/InputParameters"
	"github.com/porousmedia/porsol/assembler"
	"github.com/porousmedia/porsol/fluid"
	"github.com/porousmedia/porsol/grid"
	"github.com/porousmedia/porsol/linalg"
	"github.com/porousmedia/porsol/pressure"
	"github.com/porousmedia/porsol/wells"
)

// simCmd represents the sim command
var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run a synthetic injector/producer reservoir case",
	Long: `
Runs the pressure solver on a small synthetic box reservoir with one
injector and one producer, stepping to the configured final time and
halving the timestep when a pressure solve is rejected.`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			inputFile, _ = cmd.Flags().GetString("inputFile")
			doProfile, _ = cmd.Flags().GetBool("profile")
		)
		if doProfile {
			defer profile.Start(profile.CPUProfile).Stop()
		}
		sp := InputParameters.NewSolverParameters()
		if len(inputFile) != 0 {
			data, err := os.ReadFile(inputFile)
			if err != nil {
				panic(err)
			}
			if err := sp.Parse(data); err != nil {
				panic(err)
			}
		}
		sp.Print()
		RunSim(sp)
	},
}

func init() {
	rootCmd.AddCommand(simCmd)
	simCmd.Flags().StringP("inputFile", "I", "", "solver parameters file in YAML format")
	simCmd.Flags().Bool("profile", false, "generate a CPU profile of the run")
}

// RunSim builds the synthetic case and advances it to the final time.
func RunSim(sp *InputParameters.SolverParameters) {
	var (
		g  = grid.NewCartesian(10, 10, 3, 20., 20., 5.)
		rk = grid.NewUniformRock(g.NumCells(), 0.2, 1.e-13)
	)
	fl, err := fluid.NewBlackOil(sp.NumComponents)
	if err != nil {
		panic(err)
	}

	wl := wells.NewList()
	injCells := []int{g.CellIndex(0, 0, 0), g.CellIndex(0, 0, 1), g.CellIndex(0, 0, 2)}
	prodCells := []int{g.CellIndex(9, 9, 0), g.CellIndex(9, 9, 1), g.CellIndex(9, 9, 2)}
	wi := []float64{1.e-12, 1.e-12, 1.e-12}
	wl.Add(pressure.Injector, 0., 1.e-3, injCells, wi, solverInflowMixture(sp))
	wl.Add(pressure.Producer, 0., -1.e-3, prodCells, wi, nil)

	// No-flow on all six box sides.
	bc := pressure.BCMap{}
	for bid := 1; bid <= 6; bid++ {
		bc[bid] = pressure.FlowCondition{Kind: pressure.BCFlux}
	}

	psolver := assembler.NewTPFA()
	linsolver := linalg.NewBiCGStab(sp.LinSolverTol, sp.LinSolverMaxIter)
	solver, err := pressure.NewSolver(sp, psolver, linsolver)
	if err != nil {
		panic(err)
	}
	gravity := [3]float64{0, 0, 9.81}
	if err := solver.Setup(g, rk, fl, wl, gravity, bc); err != nil {
		panic(err)
	}

	state := equilibriumState(g, fl, wl, 1.e7)
	src := make([]float64, g.NumCells())

	var (
		t  = 0.
		dt = sp.InitialDt
	)
	for t < sp.FinalTime {
		fmt.Printf("Timestep: t = %g, dt = %g\n", t, dt)
		outcome, err := solver.Solve(state, src, dt)
		if err != nil {
			panic(err)
		}
		switch outcome {
		case pressure.SolveOk:
			stable := solver.StableStepIMPES()
			tdt := math.Min(dt, stable)
			if err := solver.DoStepIMPES(state, tdt); err != nil {
				panic(err)
			}
			t += dt
			if dt < sp.InitialDt {
				dt *= 2
			}
		default:
			fmt.Printf("Pressure solve rejected (%v), halving timestep\n", outcome)
			dt *= 0.5
			if dt < 1.e-3 {
				panic("timestep underflow, giving up")
			}
		}
	}
	fmt.Printf("Simulation complete: t = %g\n", t)
}

func solverInflowMixture(sp *InputParameters.SolverParameters) pressure.CompVec {
	if sp.NumComponents == 3 {
		return pressure.CompVec{sp.InflowMixtureWater, sp.InflowMixtureGas, sp.InflowMixtureOil}
	}
	return pressure.CompVec{sp.InflowMixtureGas, sp.InflowMixtureOil}
}

// equilibriumState sets a uniform pressure and compositions that
// exactly fill the pore volume, so the initial volume discrepancy is
// zero.
func equilibriumState(g pressure.Grid, fl pressure.Fluid, wl pressure.Wells, p float64) *pressure.State {
	var (
		state = pressure.NewState(g, fl, wl)
		np    = fl.NumPhases()
		nc    = fl.NumComponents()
	)
	// Saturation split across phases, converted to surface volumes
	// through the inverse formation volumes at pressure p.
	pv := make(pressure.PhaseVec, np)
	for ph := range pv {
		pv[ph] = p
	}
	probe := make(pressure.CompVec, nc)
	for comp := range probe {
		probe[comp] = 1
	}
	stateA := fl.ComputeState(pv, probe).PhaseToComp
	for c := range state.CellPressure {
		for ph := 0; ph < np; ph++ {
			state.CellPressure[c][ph] = p
		}
		for comp := 0; comp < nc; comp++ {
			// One component per phase: share 1/nc of the pore volume.
			var b float64
			for ph := 0; ph < np; ph++ {
				b += stateA.At(ph, comp)
			}
			state.CellZ[c][comp] = 1. / (float64(nc) * b)
		}
	}
	for f := range state.FacePressure {
		for ph := 0; ph < np; ph++ {
			state.FacePressure[f][ph] = p
		}
	}
	for i := range state.WellPerfPressure {
		state.WellPerfPressure[i] = p
	}
	return state
}

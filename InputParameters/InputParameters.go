package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type SolverParameters struct {
	Title                string  `yaml:"Title"`
	NumComponents        int     `yaml:"NumComponents"`
	FluxRelTol           float64 `yaml:"FluxRelTol"`
	PressRelTol          float64 `yaml:"PressRelTol"`
	MaxPressureIter      int     `yaml:"MaxPressureIter"`
	MaxRelativeVolDiscr  float64 `yaml:"MaxRelativeVolDiscr"`
	RelaxTimeVolDiscr    float64 `yaml:"RelaxTimeVolDiscr"`
	RelaxWeightPressure  float64 `yaml:"RelaxWeightPressure"`
	ExperimentalJacobian bool    `yaml:"ExperimentalJacobian"`
	OutputResidual       bool    `yaml:"OutputResidual"`
	InflowMixtureWater   float64 `yaml:"InflowMixtureWater"`
	InflowMixtureGas     float64 `yaml:"InflowMixtureGas"`
	InflowMixtureOil     float64 `yaml:"InflowMixtureOil"`
	LinSolverTol         float64 `yaml:"LinSolverTol"`
	LinSolverMaxIter     int     `yaml:"LinSolverMaxIter"`
	// Timestep control for the sim command.
	FinalTime float64 `yaml:"FinalTime"`
	InitialDt float64 `yaml:"InitialDt"`
}

// NewSolverParameters returns parameters with the solver defaults.
func NewSolverParameters() *SolverParameters {
	return &SolverParameters{
		NumComponents:       2,
		FluxRelTol:          1.e-5,
		PressRelTol:         1.e-5,
		MaxPressureIter:     15,
		MaxRelativeVolDiscr: 0.15,
		RelaxWeightPressure: 1.0,
		InflowMixtureGas:    1.0,
		LinSolverTol:        1.e-10,
		FinalTime:           86400.,
		InitialDt:           3600.,
	}
}

func (sp *SolverParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, sp)
}

func (sp *SolverParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", sp.Title)
	fmt.Printf("[%d]\t\t\t\t= NumComponents\n", sp.NumComponents)
	fmt.Printf("%8.2e\t\t= FluxRelTol\n", sp.FluxRelTol)
	fmt.Printf("%8.2e\t\t= PressRelTol\n", sp.PressRelTol)
	fmt.Printf("[%d]\t\t\t\t= MaxPressureIter\n", sp.MaxPressureIter)
	fmt.Printf("%8.5f\t\t= MaxRelativeVolDiscr\n", sp.MaxRelativeVolDiscr)
	fmt.Printf("%8.5f\t\t= RelaxTimeVolDiscr\n", sp.RelaxTimeVolDiscr)
	fmt.Printf("%8.5f\t\t= RelaxWeightPressure\n", sp.RelaxWeightPressure)
	fmt.Printf("[%v]\t\t\t= ExperimentalJacobian\n", sp.ExperimentalJacobian)
	fmt.Printf("%8.5f %8.5f %8.5f\t= Inflow mixture (water, gas, oil)\n",
		sp.InflowMixtureWater, sp.InflowMixtureGas, sp.InflowMixtureOil)
}

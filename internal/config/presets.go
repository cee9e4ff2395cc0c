package config

// Presets are named starting points for the compare and verify commands.
var Presets = map[string]*Config{
	"quick": {
		Storage: "sparse", Method: "gauss-pp", Size: 20, Start: 10, Seed: 1,
		Solver:     SolverConfig{Eps: 1e-8, MaxIter: 10000},
		MonteCarlo: MonteCarloConfig{Trials: 10000, Workers: 2, MaxSteps: 1000000},
		Verify:     VerifyConfig{Sizes: []int{5, 10, 20}},
		Town:       TownConfig{Intersections: 8, Alleys: 10},
	},
	"default": DefaultConfig(),
	"accurate": {
		Storage: "sparse", Method: "gauss-pp", Size: 100, Start: 50, Seed: 1,
		Solver:     SolverConfig{Eps: 1e-14, MaxIter: 1000000},
		MonteCarlo: MonteCarloConfig{Trials: 1000000, Workers: 8, MaxSteps: 100000000},
		Verify:     VerifyConfig{Sizes: []int{10, 20, 50, 100, 200, 500, 1000}},
		Town:       TownConfig{Intersections: 40, Alleys: 60},
	},
	"large": {
		Storage: "sparse", Method: "gauss-seidel", Size: 2000, Start: 1000, Seed: 1,
		Solver:     SolverConfig{Eps: 1e-10, MaxIter: 10000000},
		MonteCarlo: MonteCarloConfig{Trials: 20000, Workers: 8, MaxSteps: 100000000},
		Verify:     VerifyConfig{Sizes: []int{500, 1000, 2000}},
		Town:       TownConfig{Intersections: 200, Alleys: 300},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	cfg.Verify.Sizes = append([]int(nil), p.Verify.Sizes...)
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}

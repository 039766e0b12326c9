package config

var Presets = map[string]*Config{
	// Fast sanity pass: simplest friction law, cheap budget.
	"quick": {
		Model: "m1", Method: "cmaes", Trials: 300,
	},
	// Default identification run.
	"standard": {
		Model: "m4", Method: "cmaes", Trials: 2000,
	},
	// Full friction law with a budget to match its dimensionality.
	"full": {
		Model: "m6", Method: "cmaes", Trials: 10000,
	},
	// Uninformed baseline, useful to judge how hard a fit is.
	"baseline": {
		Model: "m4", Method: "random", Trials: 2000,
	},
	// Trade-off exploration across several logs.
	"pareto": {
		Model: "m4", Method: "nsga2", Trials: 4800,
	},
}

func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}

package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"frictionfit/internal/actuator"
	"frictionfit/internal/config"
	"frictionfit/internal/export"
	"frictionfit/internal/fit"
	"frictionfit/internal/friction"
	"frictionfit/internal/logging"
	"frictionfit/internal/record"
	"frictionfit/internal/sim"
	"frictionfit/internal/store"
	"frictionfit/internal/tui"
)

var (
	actuatorName string
	modelName    string
	logDir       string
	method       string
	trials       int
	workers      int
	seed         int64
	output       string
	configFile   string
	preset       string
	dataDir      string
	logLevel     string
	live         bool

	paramsFile string
	logFile    string
)

var modelDescriptions = map[friction.Kind]string{
	friction.M1: "coulomb + viscous",
	friction.M2: "m1 + stribeck velocity weakening",
	friction.M3: "m1 + load-dependent coulomb",
	friction.M4: "m1 + stribeck + load",
	friction.M5: "m4 + direction-dependent offsets",
	friction.M6: "m5 + quadratic damping",
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "frictionfit",
		Short: "servo friction identification from pendulum logs",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")

	fitCmd := &cobra.Command{
		Use:   "fit",
		Short: "identify friction parameters against recorded logs",
		RunE:  runFit,
	}
	fitCmd.Flags().StringVar(&actuatorName, "actuator", "", "actuator name (see 'actuators')")
	fitCmd.Flags().StringVar(&modelName, "model", config.DefaultModel, "friction model (m1..m6)")
	fitCmd.Flags().StringVar(&logDir, "logs", "", "directory of recorded logs (*.json)")
	fitCmd.Flags().StringVar(&method, "method", config.DefaultMethod, "search method (cmaes|random|nsga2)")
	fitCmd.Flags().IntVar(&trials, "trials", config.DefaultTrials, "evaluation budget")
	fitCmd.Flags().IntVar(&workers, "workers", 0, "parallel evaluations (0 = all cores)")
	fitCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	fitCmd.Flags().StringVar(&output, "output", "", "write fitted parameters to this file")
	fitCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	fitCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	fitCmd.Flags().BoolVar(&live, "live", false, "show live progress TUI")

	rolloutCmd := &cobra.Command{
		Use:   "rollout",
		Short: "replay a log through fitted parameters",
		RunE:  runRollout,
	}
	rolloutCmd.Flags().StringVar(&paramsFile, "params", "", "parameter file from a fit")
	rolloutCmd.Flags().StringVar(&logFile, "log", "", "recorded log to replay")
	rolloutCmd.Flags().StringVar(&output, "output", "", "write the simulated log to this file")
	rolloutCmd.MarkFlagRequired("params")
	rolloutCmd.MarkFlagRequired("log")

	plotCmd := &cobra.Command{
		Use:   "plot",
		Short: "plot recorded vs simulated trajectory",
		RunE:  runPlot,
	}
	plotCmd.Flags().StringVar(&paramsFile, "params", "", "parameter file from a fit")
	plotCmd.Flags().StringVar(&logFile, "log", "", "recorded log to replay")
	plotCmd.Flags().StringVar(&output, "output", "", "write a PNG instead of printing to the terminal")
	plotCmd.MarkFlagRequired("params")
	plotCmd.MarkFlagRequired("log")

	actuatorsCmd := &cobra.Command{
		Use:   "actuators",
		Short: "list supported actuators",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := actuator.NewRegistry()
			for _, name := range reg.Names() {
				fmt.Println(name)
			}
			return nil
		},
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list friction models",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tPARAMS\tDESCRIPTION")
			for _, kind := range friction.Kinds() {
				m, err := friction.New(kind)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%d\t%s\n", kind, len(m.Params), modelDescriptions[kind])
			}
			return w.Flush()
		},
	}

	logsCmd := &cobra.Command{
		Use:   "logs [dir]",
		Short: "inspect recorded logs in a directory",
		Args:  cobra.ExactArgs(1),
		RunE:  runLogs,
	}

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list stored fit runs",
		RunE:  listRuns,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list fit presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PRESET\tMODEL\tMETHOD\tTRIALS")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", name, p.Model, p.Method, p.Trials)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(fitCmd, rolloutCmd, plotCmd, actuatorsCmd, modelsCmd, logsCmd, runsCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveFitConfig merges preset, config file and flags into one Config.
// Flags win over the config file, which wins over the preset.
func resolveFitConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg.Model = p.Model
		cfg.Method = p.Method
		cfg.Trials = p.Trials
	}

	if configFile != "" {
		fileCfg, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = fileCfg
	}

	if cmd.Flags().Changed("actuator") || cfg.Actuator == "" {
		cfg.Actuator = actuatorName
	}
	if cmd.Flags().Changed("model") {
		cfg.Model = modelName
	}
	if cmd.Flags().Changed("logs") || cfg.LogDir == "" {
		cfg.LogDir = logDir
	}
	if cmd.Flags().Changed("method") {
		cfg.Method = method
	}
	if cmd.Flags().Changed("trials") {
		cfg.Trials = trials
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	if cmd.Flags().Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("output") {
		cfg.Output = output
	}
	if cmd.Flags().Changed("data") || cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	if cfg.Actuator == "" {
		return nil, fmt.Errorf("no actuator given (--actuator, see 'actuators')")
	}
	if cfg.LogDir == "" {
		return nil, fmt.Errorf("no log directory given (--logs)")
	}
	return cfg, nil
}

func runFit(cmd *cobra.Command, args []string) error {
	cfg, err := resolveFitConfig(cmd)
	if err != nil {
		return err
	}

	kind, err := friction.ParseKind(cfg.Model)
	if err != nil {
		return err
	}

	logs, err := record.LoadDir(cfg.LogDir)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel)
	if live {
		// The TUI owns the terminal.
		logger = zap.NewNop()
	}
	defer logger.Sync()

	opts := fit.Options{
		Method:  cfg.Method,
		Trials:  cfg.Trials,
		Workers: cfg.Workers,
		Seed:    cfg.Seed,
		Logger:  logger,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var updates chan tui.Progress
	if live {
		updates = make(chan tui.Progress, 64)
		opts.OnTrial = func(trial int, score, best float64) {
			select {
			case updates <- tui.Progress{Trial: trial, Score: score, Best: best}:
			default:
			}
		}
	}

	reg := actuator.NewRegistry()
	fitter, err := fit.NewFitter(reg, cfg.Actuator, kind, logs, opts)
	if err != nil {
		return err
	}

	fmt.Printf("fitting %s/%s on %d logs (%s, %d trials)...\n",
		cfg.Actuator, kind, len(logs), cfg.Method, cfg.Trials)
	start := time.Now()

	var result *fit.Result
	if live {
		done := make(chan error, 1)
		go func() {
			var runErr error
			result, runErr = fitter.Run(ctx)
			close(updates)
			done <- runErr
		}()

		title := fmt.Sprintf("fit %s/%s (%s)", cfg.Actuator, kind, cfg.Method)
		p := tea.NewProgram(tui.NewModel(title, cfg.Trials, updates, cancel))
		if _, err := p.Run(); err != nil {
			cancel()
			<-done
			return err
		}
		if err := <-done; err != nil {
			return err
		}
	} else {
		result, err = fitter.Run(ctx)
		if err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	st := store.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.SaveFit(result, fitter.Actuator, elapsed)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("best score (mean MAE): %.6f rad\n", result.Score)
	for i, e := range result.PerLog {
		fmt.Printf("  log %d: %.6f rad\n", i, e)
	}
	fmt.Println("\nparameters:")
	for _, name := range fitter.Actuator.ParameterNames() {
		fmt.Printf("  %s: %.6g\n", name, result.Params[name])
	}

	if graph := export.ConvergenceASCII(result.History, 70, 10); graph != "" {
		fmt.Println()
		fmt.Println(graph)
	}

	if cfg.Output != "" {
		if err := store.SaveParams(cfg.Output, fitter.Actuator); err != nil {
			return err
		}
		fmt.Printf("\nparameters written to %s\n", cfg.Output)
	}
	return nil
}

// loadFitted builds the actuator described by a parameter file and
// loads the log to replay it on.
func loadFitted() (*record.Log, *sim.Trajectory, error) {
	pf, err := store.LoadParams(paramsFile)
	if err != nil {
		return nil, nil, err
	}
	act, err := pf.Build(actuator.NewRegistry())
	if err != nil {
		return nil, nil, err
	}

	l, err := record.Load(logFile)
	if err != nil {
		return nil, nil, err
	}

	s := sim.New(act, sim.BenchFor(l))
	traj, err := s.Rollout(l)
	if err != nil {
		return nil, nil, err
	}
	return l, traj, nil
}

func runRollout(cmd *cobra.Command, args []string) error {
	l, traj, err := loadFitted()
	if err != nil {
		return err
	}

	simulated := sim.SimulatedLog(l, traj)
	if output == "" {
		output = "simulated.json"
	}
	if err := record.Save(output, simulated); err != nil {
		return err
	}

	mae := 0.0
	for i, e := range l.Entries {
		d := traj.Positions[i] - e.Position
		if d < 0 {
			d = -d
		}
		mae += d
	}
	mae /= float64(len(l.Entries))

	fmt.Printf("replayed %d steps over %.2fs\n", len(l.Entries), l.Duration())
	fmt.Printf("position MAE: %.6f rad\n", mae)
	fmt.Printf("simulated log written to %s\n", output)
	return nil
}

func runPlot(cmd *cobra.Command, args []string) error {
	l, traj, err := loadFitted()
	if err != nil {
		return err
	}

	if output != "" {
		if err := export.SavePNG(output, l, traj); err != nil {
			return err
		}
		fmt.Printf("plot written to %s\n", output)
		return nil
	}

	fmt.Println(export.TrajectoryASCII(l, traj, 80, 12))
	return nil
}

func runLogs(cmd *cobra.Command, args []string) error {
	logs, err := record.LoadDir(args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ENTRIES\tDURATION\tDT\tMASS\tLENGTH\tKP")
	for _, l := range logs {
		fmt.Fprintf(w, "%d\t%.2fs\t%.4fs\t%.3fkg\t%.3fm\t%.1f\n",
			len(l.Entries), l.Duration(), l.Dt, l.Mass, l.Length, l.Kp)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tACTUATOR\tMODEL\tMETHOD\tTRIALS\tSCORE\tTIME")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.6f\t%s\n",
			run.ID,
			run.Actuator,
			run.Model,
			run.Method,
			run.Trials,
			run.Score,
			run.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}
	return w.Flush()
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/san-kum/spacesim/internal/config"
	"github.com/san-kum/spacesim/internal/log"
	"github.com/san-kum/spacesim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	logLevel   string
	logFormat  string
	configFile string
	ticks      int
	dt         float64
	shape      string
	seed       int64
	history    int
	tickRate   float64
	cellSize   float64
	ownedShare float64
	speedLimit float64
	jsonOut    string
	svgOut     string
	themeName  string
	csvOut     string
	addr       string
	members    int
	parallel   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "spacesim",
		Short:         "tick-based 2D body simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".spacesim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log encoding (console, json)")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a scenario and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	scenarioFlags(runCmd)
	runCmd.Flags().Float64Var(&speedLimit, "speed-limit", 100, "speed above which a tick counts as unstable")
	runCmd.Flags().StringVar(&jsonOut, "json", "", "also export the run summary as JSON (- for stdout)")
	runCmd.Flags().StringVar(&svgOut, "svg", "", "write body trails as SVG to this path")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run a scenario with live terminal visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	scenarioFlags(liveCmd)
	liveCmd.Flags().StringVar(&themeName, "theme", viz.ThemeCyberpunk.Name,
		"color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	serveCmd := &cobra.Command{
		Use:   "serve [preset]",
		Short: "run a scenario in real time and stream frames over websocket",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runServe,
	}
	scenarioFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "run seeded copies of a scenario in parallel and report throughput",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBench,
	}
	scenarioFlags(benchCmd)
	benchCmd.Flags().IntVar(&members, "members", 4, "number of seeded copies")
	benchCmd.Flags().IntVar(&parallel, "parallel", 0, "max copies running at once (0 = unlimited)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot per-tick statistics of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export per-tick statistics to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVar(&csvOut, "out", "-", "output path (- for stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available scenario presets",
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, liveCmd, serveCmd, benchCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func scenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	cmd.Flags().IntVar(&ticks, "ticks", config.DefaultTicks, "number of ticks")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "tick duration")
	cmd.Flags().StringVar(&shape, "shape", "current", "record shape (current, legacy)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "swarm seed")
	cmd.Flags().IntVar(&history, "history", config.DefaultHistory, "frames kept for rewind")
	cmd.Flags().Float64Var(&tickRate, "tick-rate", config.DefaultTickRate, "ticks per second in real-time modes")
	cmd.Flags().Float64Var(&cellSize, "cell-size", 0, "spatial grid cell size (0 = auto)")
	cmd.Flags().Float64Var(&ownedShare, "owned-share", 0.25, "overlap share an owned body absorbs")
}

// loadScenario resolves the preset or config file, then applies flags the
// user set explicitly.
func loadScenario(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	case len(args) == 1:
		cfg = config.GetPreset(args[0])
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
	default:
		cfg = config.GetPreset("head_on")
	}

	flags := cmd.Flags()
	if flags.Changed("ticks") {
		cfg.Ticks = ticks
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("shape") {
		cfg.Shape = shape
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("history") {
		cfg.History = history
	}
	if flags.Changed("tick-rate") {
		cfg.TickRate = tickRate
	}
	if flags.Changed("cell-size") {
		cfg.CellSize = cellSize
	}
	if flags.Changed("owned-share") {
		cfg.OwnedShare = ownedShare
	}
	if cmd.Root().PersistentFlags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*log.Logger, error) {
	name := logLevel
	if cfg != nil && cfg.LogLevel != "" {
		name = cfg.LogLevel
	}
	level, err := log.ParseLevel(name)
	if err != nil {
		return nil, err
	}
	return log.New(level, logFormat)
}

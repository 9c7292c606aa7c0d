package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/san-kum/spacesim/internal/config"
	"github.com/san-kum/spacesim/internal/dynamo"
	"github.com/san-kum/spacesim/internal/log"
	"github.com/san-kum/spacesim/internal/metrics"
	"github.com/san-kum/spacesim/internal/server"
	"github.com/san-kum/spacesim/internal/storage"
	"github.com/san-kum/spacesim/internal/viz"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runInfo(cfg *config.Config) storage.RunInfo {
	return storage.RunInfo{
		Scenario: cfg.Name,
		Seed:     cfg.Seed,
		Dt:       cfg.Dt,
		Ticks:    cfg.Ticks,
		Shape:    cfg.Shape,
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	simCfg, err := cfg.SimConfig(logger)
	if err != nil {
		return err
	}
	simCfg.RecordFrames = true
	sim, err := dynamo.New(simCfg)
	if err != nil {
		return err
	}
	defer sim.Close()
	if err := cfg.Populate(sim); err != nil {
		return err
	}
	for _, m := range metrics.Standard(speedLimit) {
		sim.AddMetric(m)
	}

	ctx, stop := signalContext()
	defer stop()

	fmt.Println(viz.Header(fmt.Sprintf("running %s", cfg.Name)))
	start := time.Now()
	result, err := sim.Run(ctx, cfg.Ticks)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(runInfo(cfg), result)
	if err != nil {
		return err
	}
	logger.Info("run stored", log.String("run", runID), log.Duration("elapsed", elapsed))

	if jsonOut != "" {
		if err := storage.ExportJSON(jsonOut, runInfo(cfg), result); err != nil {
			return err
		}
	}
	if svgOut != "" {
		svg := viz.TrailsToSVG(result.Frames, 800, 600)
		if err := os.WriteFile(svgOut, []byte(svg), 0o644); err != nil {
			return fmt.Errorf("write svg: %w", err)
		}
		logger.Info("trails written", log.String("path", svgOut))
	}

	fmt.Println(viz.KeyValue("completed", elapsed.String()))
	fmt.Println(viz.KeyValue("run id", runID))
	fmt.Println(viz.KeyValue("ticks", fmt.Sprintf("%d", result.StepsTaken)))
	fmt.Println(viz.KeyValue("bodies", fmt.Sprintf("%d", result.Final.Len())))
	fmt.Println(viz.KeyValue("checksum", fmt.Sprintf("%016x", result.Final.Checksum())))
	if len(result.Errors) > 0 {
		fmt.Println(viz.KeyValue("dropped", fmt.Sprintf("%d", len(result.Errors))))
	}
	fmt.Println("\nmetrics:")
	for _, m := range metrics.Standard(speedLimit) {
		fmt.Printf("  %s: %.6f\n", m.Name(), result.Metrics[m.Name()])
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	if err := viz.SetTheme(themeName); err != nil {
		return err
	}
	cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}

	// the terminal belongs to the view; keep logs to errors only
	cfg.LogLevel = log.LevelError.String()
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sim, err := cfg.Build(logger)
	if err != nil {
		return err
	}
	defer sim.Close()

	return viz.Run(sim, viz.Options{
		Title:    cfg.Name,
		Interval: cfg.TickInterval(),
		Populate: cfg.Populate,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sim, err := cfg.Build(logger)
	if err != nil {
		return err
	}
	defer sim.Close()

	hub := server.NewHub(logger)
	sim.AddObserver(hub)
	srv := server.New(addr, hub, logger)

	ctx, stop := signalContext()
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// without an explicit --ticks the feed runs until interrupted
	limit := 0
	if cmd.Flags().Changed("ticks") {
		limit = cfg.Ticks
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx)
	})
	g.Go(func() error {
		defer cancel()
		err := sim.RunRealtime(ctx, cfg.TickInterval(), func(r *dynamo.TickResult) bool {
			return limit == 0 || r.Seq < uint64(limit)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("feed stopped", log.Uint64("seq", sim.Seq()))
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"swarm"}
	}
	cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	build := func(member int) (*dynamo.Simulator, error) {
		c := cfg.Clone()
		c.Seed = cfg.Seed + int64(member)
		sim, err := c.Build(logger.With(log.Int("member", member)))
		if err != nil {
			return nil, err
		}
		sim.AddMetric(metrics.NewContacts())
		return sim, nil
	}

	ctx, stop := signalContext()
	defer stop()

	fmt.Printf("benchmarking %s: %d members x %d ticks\n\n", cfg.Name, members, cfg.Ticks)
	start := time.Now()
	results, err := dynamo.NewEnsemble(build, members, parallel).Run(ctx, cfg.Ticks)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MEMBER\tSEED\tTICKS\tBODIES\tCONTACTS\tCHECKSUM")
	total := 0
	for i, res := range results {
		total += res.StepsTaken
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%.0f\t%016x\n",
			i,
			cfg.Seed+int64(i),
			res.StepsTaken,
			res.Final.Len(),
			res.Metrics["contacts"],
			res.Final.Checksum(),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\ntotal: %d ticks in %v (%.0f ticks/sec)\n", total, elapsed, float64(total)/elapsed.Seconds())
	return nil
}

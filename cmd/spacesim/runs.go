package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/spacesim/internal/config"
	"github.com/san-kum/spacesim/internal/dynamo"
	"github.com/san-kum/spacesim/internal/storage"
	"github.com/spf13/cobra"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tTICKS\tDT\tSHAPE\tBODIES\tCHECKSUM")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.3f\t%s\t%d\t%s\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.StepsTaken,
			run.Dt,
			run.Shape,
			run.FinalBodies,
			run.FinalChecksum,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	stats, err := st.LoadTicks(runID)
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("ticks: %d\n\n", len(stats))

	series := []struct {
		caption string
		value   func(dynamo.TickStats) float64
	}{
		{"live bodies", func(s dynamo.TickStats) float64 { return float64(s.Bodies) }},
		{"contacts per tick", func(s dynamo.TickStats) float64 { return float64(s.Contacts) }},
		{"kinetic energy", func(s dynamo.TickStats) float64 { return s.Energy }},
		{"momentum magnitude", func(s dynamo.TickStats) float64 { return s.Momentum }},
	}

	for _, sr := range series {
		data := make([]float64, len(stats))
		for i, s := range stats {
			data[i] = sr.value(s)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(sr.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	stats, err := st.LoadTicks(args[0])
	if err != nil {
		return err
	}
	return storage.ExportCSV(csvOut, &dynamo.Result{Ticks: stats})
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tTICKS\tBODIES\tSHAPE\tTICK RATE")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%.0f/s\n",
			name,
			cfg.Ticks,
			len(cfg.Params()),
			cfg.Shape,
			cfg.TickRate,
		)
	}
	return w.Flush()
}

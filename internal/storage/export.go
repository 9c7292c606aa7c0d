package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/spacesim/internal/dynamo"
	"github.com/san-kum/spacesim/internal/registry"
)

type ExportData struct {
	RunInfo
	Steps   int                `json:"steps"`
	Ticks   []dynamo.TickStats `json:"ticks"`
	Final   []registry.Body    `json:"final"`
	Metrics map[string]float64 `json:"metrics"`
	Errors  []string           `json:"errors,omitempty"`
}

func exportOf(info RunInfo, result *dynamo.Result) ExportData {
	data := ExportData{
		RunInfo: info,
		Steps:   result.StepsTaken,
		Ticks:   result.Ticks,
		Metrics: result.Metrics,
	}
	if result.Final != nil {
		data.Final = result.Final.Bodies
	}
	for _, err := range result.Errors {
		data.Errors = append(data.Errors, err.Error())
	}
	return data
}

// WriteJSON encodes a run summary to w.
func WriteJSON(w io.Writer, info RunInfo, result *dynamo.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exportOf(info, result))
}

// ExportJSON writes a run summary to path, or stdout when path is "-".
func ExportJSON(path string, info RunInfo, result *dynamo.Result) error {
	if path == "-" {
		return WriteJSON(os.Stdout, info, result)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, info, result)
}

// ExportCSV writes the per-tick summary to path, or stdout when path
// is "-".
func ExportCSV(path string, result *dynamo.Result) error {
	if path == "-" {
		return writeCSVTo(os.Stdout, ticksHeader, tickRows(result))
	}
	return writeCSV(path, ticksHeader, tickRows(result))
}

package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/spacesim/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	ticksFile    = "ticks.csv"
	bodiesFile   = "bodies.csv"
)

var (
	ticksHeader  = []string{"seq", "bodies", "contacts", "proximity", "expired", "momentum", "energy", "checksum"}
	bodiesHeader = []string{"seq", "id", "owner", "x", "y", "vx", "vy", "size", "proximity", "lifetime", "bounce"}
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunInfo describes how a run was configured.
type RunInfo struct {
	Scenario string  `json:"scenario"`
	Seed     int64   `json:"seed"`
	Dt       float64 `json:"dt"`
	Ticks    int     `json:"ticks"`
	Shape    string  `json:"shape"`
}

type RunMetadata struct {
	RunInfo
	ID            string             `json:"id"`
	Timestamp     time.Time          `json:"timestamp"`
	StepsTaken    int                `json:"steps_taken"`
	FinalBodies   int                `json:"final_bodies"`
	FinalChecksum string             `json:"final_checksum"`
	Errors        int                `json:"errors"`
	Metrics       map[string]float64 `json:"metrics"`
}

// NewRunID names a run after its scenario plus a short random suffix.
func NewRunID(scenario string) string {
	return fmt.Sprintf("%s_%s", scenario, uuid.NewString()[:8])
}

func metadataOf(id string, info RunInfo, result *dynamo.Result) RunMetadata {
	meta := RunMetadata{
		RunInfo:    info,
		ID:         id,
		Timestamp:  time.Now(),
		StepsTaken: result.StepsTaken,
		Errors:     len(result.Errors),
		Metrics:    result.Metrics,
	}
	if result.Final != nil {
		meta.FinalBodies = result.Final.Len()
		meta.FinalChecksum = fmt.Sprintf("%016x", result.Final.Checksum())
	}
	return meta
}

func (s *Store) Save(info RunInfo, result *dynamo.Result) (string, error) {
	runID := NewRunID(info.Scenario)
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := metadataOf(runID, info, result)
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}
	if err := writeCSV(filepath.Join(runDir, ticksFile), ticksHeader, tickRows(result)); err != nil {
		return "", fmt.Errorf("write ticks: %w", err)
	}
	if err := writeCSV(filepath.Join(runDir, bodiesFile), bodiesHeader, bodyRows(result)); err != nil {
		return "", fmt.Errorf("write bodies: %w", err)
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, header []string, rows func(yield func([]string) error) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeCSVTo(f, header, rows)
}

func writeCSVTo(out io.Writer, header []string, rows func(yield func([]string) error) error) error {
	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := rows(w.Write); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }

func tickRows(result *dynamo.Result) func(func([]string) error) error {
	return func(yield func([]string) error) error {
		for _, st := range result.Ticks {
			row := []string{
				strconv.FormatUint(st.Seq, 10),
				strconv.Itoa(st.Bodies),
				strconv.Itoa(st.Contacts),
				strconv.Itoa(st.Proximity),
				strconv.Itoa(st.Expired),
				ftoa(st.Momentum),
				ftoa(st.Energy),
				fmt.Sprintf("%016x", st.Checksum),
			}
			if err := yield(row); err != nil {
				return err
			}
		}
		return nil
	}
}

func bodyRows(result *dynamo.Result) func(func([]string) error) error {
	return func(yield func([]string) error) error {
		for _, f := range result.Frames {
			seq := strconv.FormatUint(f.Seq, 10)
			for _, b := range f.Bodies {
				row := []string{
					seq,
					strconv.Itoa(int(b.ID)),
					strconv.Itoa(int(b.Owner)),
					ftoa(b.Position.X),
					ftoa(b.Position.Y),
					ftoa(b.Velocity.X),
					ftoa(b.Velocity.Y),
					ftoa(b.Size),
					ftoa(b.Proximity),
					strconv.Itoa(int(b.Lifetime)),
					ftoa(b.Bounce),
				}
				if err := yield(row); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadTicks reads the per-tick summary of a run back.
func (s *Store) LoadTicks(runID string) ([]dynamo.TickStats, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, ticksFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(ticksHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []dynamo.TickStats{}, nil
	}

	out := make([]dynamo.TickStats, 0, len(records)-1)
	for i, rec := range records[1:] {
		st, err := parseTick(rec)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", ticksFile, i+2, err)
		}
		out = append(out, st)
	}
	return out, nil
}

func parseTick(rec []string) (dynamo.TickStats, error) {
	var (
		st  dynamo.TickStats
		err error
	)
	ints := []*int{&st.Bodies, &st.Contacts, &st.Proximity, &st.Expired}
	if st.Seq, err = strconv.ParseUint(rec[0], 10, 64); err != nil {
		return st, err
	}
	for i, dst := range ints {
		if *dst, err = strconv.Atoi(rec[1+i]); err != nil {
			return st, err
		}
	}
	if st.Momentum, err = strconv.ParseFloat(rec[5], 64); err != nil {
		return st, err
	}
	if st.Energy, err = strconv.ParseFloat(rec[6], 64); err != nil {
		return st, err
	}
	if st.Checksum, err = strconv.ParseUint(rec[7], 16, 64); err != nil {
		return st, err
	}
	return st, nil
}

// Path returns the directory holding a run's files.
func (s *Store) Path(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

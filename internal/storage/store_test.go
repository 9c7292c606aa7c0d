package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/spacesim/internal/dynamo"
	"github.com/san-kum/spacesim/internal/registry"
	"github.com/san-kum/spacesim/internal/vmath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRun(t *testing.T) *dynamo.Result {
	t.Helper()
	cfg := dynamo.DefaultConfig()
	cfg.RecordFrames = true
	sim, err := dynamo.New(cfg)
	require.NoError(t, err)
	defer sim.Close()

	for i := 0; i < 3; i++ {
		_, err := sim.Spawn(registry.Params{
			Owner:    registry.OwnerID(i),
			Position: vmath.Vec2{X: float64(i) * 20},
			Velocity: vmath.Vec2{Y: 1},
			Size:     2,
			Lifetime: 3,
			Bounce:   1,
		})
		require.NoError(t, err)
	}
	res, err := sim.Run(context.Background(), 2)
	require.NoError(t, err)
	res.Metrics["population"] = 3
	return res
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	result := sampleRun(t)
	info := RunInfo{Scenario: "test", Seed: 42, Dt: 1, Ticks: 2, Shape: "current"}

	runID, err := st.Save(info, result)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(runID, "test_"))
	assert.Len(t, runID, len("test_")+8)

	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, "test", meta.Scenario)
	assert.Equal(t, int64(42), meta.Seed)
	assert.Equal(t, 2, meta.StepsTaken)
	assert.Equal(t, 3, meta.FinalBodies)
	assert.Equal(t, 3.0, meta.Metrics["population"])

	ticks, err := st.LoadTicks(runID)
	require.NoError(t, err)
	require.Len(t, ticks, 2)
	assert.Equal(t, result.Ticks, ticks)

	f, err := os.Open(filepath.Join(st.Path(runID), bodiesFile))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, bodiesHeader, rows[0])
	assert.Len(t, rows, 1+2*3)
}

func TestSavedRunsHaveDistinctIDs(t *testing.T) {
	st := New(t.TempDir())
	result := sampleRun(t)
	a, err := st.Save(RunInfo{Scenario: "x"}, result)
	require.NoError(t, err)
	b, err := st.Save(RunInfo{Scenario: "x"}, result)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	runs, err := st.List()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "nope")).List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestWriteJSON(t *testing.T) {
	result := sampleRun(t)
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, RunInfo{Scenario: "json"}, result))

	var data ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	assert.Equal(t, "json", data.Scenario)
	assert.Equal(t, 2, data.Steps)
	assert.Len(t, data.Final, 3)
}

func TestExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.csv")
	require.NoError(t, ExportCSV(path, sampleRun(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, strings.Join(ticksHeader, ","), lines[0])
}

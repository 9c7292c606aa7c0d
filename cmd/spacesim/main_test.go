package main

import (
	"path/filepath"
	"testing"

	"github.com/san-kum/spacesim/internal/config"
	"github.com/san-kum/spacesim/internal/viz"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioCmd() *cobra.Command {
	configFile = ""
	cmd := &cobra.Command{Use: "test"}
	scenarioFlags(cmd)
	return cmd
}

func TestLoadScenarioDefaultsToHeadOn(t *testing.T) {
	cfg, err := loadScenario(scenarioCmd(), nil)
	require.NoError(t, err)
	assert.Equal(t, "head_on", cfg.Name)
	assert.Equal(t, 10, cfg.Ticks)
}

func TestLoadScenarioOnlyAppliesChangedFlags(t *testing.T) {
	cmd := scenarioCmd()
	require.NoError(t, cmd.Flags().Set("ticks", "7"))
	require.NoError(t, cmd.Flags().Set("shape", "legacy"))

	cfg, err := loadScenario(cmd, []string{"escort"})
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Ticks)
	assert.Equal(t, "legacy", cfg.Shape)
	assert.Equal(t, 15.0, cfg.TickRate)

	again := config.GetPreset("escort")
	assert.Equal(t, 60, again.Ticks)
}

func TestLoadScenarioFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	custom := config.GetPreset("expiry")
	custom.Name = "from_file"
	require.NoError(t, config.Save(path, custom))

	cmd := scenarioCmd()
	require.NoError(t, cmd.Flags().Set("config", path))

	cfg, err := loadScenario(cmd, nil)
	require.NoError(t, err)
	assert.Equal(t, "from_file", cfg.Name)
}

func TestLoadScenarioRejects(t *testing.T) {
	_, err := loadScenario(scenarioCmd(), []string{"nope"})
	assert.Error(t, err)

	cmd := scenarioCmd()
	require.NoError(t, cmd.Flags().Set("shape", "v7"))
	_, err = loadScenario(cmd, nil)
	assert.Error(t, err)
}

func TestLiveRejectsUnknownTheme(t *testing.T) {
	themeName = "sepia"
	defer func() { themeName = viz.ThemeCyberpunk.Name }()

	err := runLive(scenarioCmd(), nil)
	assert.ErrorIs(t, err, viz.ErrUnknownTheme)
}

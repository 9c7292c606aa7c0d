package config

import "slices"

var Presets = map[string]*Config{
	"head_on": {
		Name: "head_on", Ticks: 10, Dt: 1, TickRate: 4, Shape: "current",
		OwnedShare: 0.25, History: DefaultHistory, LogLevel: "info",
		Bodies: []BodyConfig{
			{X: 0, Size: 10, Proximity: 20, Lifetime: 5, Bounce: 0.5},
			{X: 15, VX: -1, Size: 10, Proximity: 20, Lifetime: 5, Bounce: 0.5},
		},
	},
	"expiry": {
		Name: "expiry", Ticks: 12, Dt: 1, TickRate: 4, Shape: "legacy",
		OwnedShare: 0.25, History: DefaultHistory, LogLevel: "info",
		Bodies: []BodyConfig{
			{X: -40, Size: 4, Lifetime: 1, Bounce: 1},
			{X: 0, VY: 1, Size: 4, Lifetime: 5, Bounce: 1},
			{X: 40, VY: -1, Size: 4, Lifetime: 10, Bounce: 1},
		},
	},
	"swarm": {
		Name: "swarm", Ticks: 300, Dt: 1, TickRate: 30, Shape: "current",
		OwnedShare: 0.25, History: DefaultHistory, LogLevel: "info", Seed: 7,
		Swarm: &SwarmConfig{
			Count: 200, Width: 400, Height: 200, MaxSpeed: 1.5,
			MinSize: 2, MaxSize: 6, Proximity: 12,
			MinLifetime: 100, MaxLifetime: 400, Bounce: 0.9, OwnedFraction: 0.1,
		},
	},
	"escort": {
		Name: "escort", Ticks: 60, Dt: 1, TickRate: 15, Shape: "current",
		OwnedShare: 0.25, History: DefaultHistory, LogLevel: "info",
		Bodies: []BodyConfig{
			{Owner: 1, X: 0, VX: 1, Size: 8, Proximity: 30, Lifetime: 60, Bounce: 0.8},
			{X: 12, Y: 6, Size: 4, Proximity: 10, Lifetime: 60, Bounce: 0.8},
			{X: 12, Y: -6, Size: 4, Proximity: 10, Lifetime: 60, Bounce: 0.8},
			{X: 40, VX: -0.5, Size: 6, Proximity: 10, Lifetime: 60, Bounce: 1},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Package viz renders a running simulation in the terminal.
//
// The live view is a Bubble Tea model that ticks a [dynamo.Simulator] at a
// fixed rate and draws every body on a braille [Canvas]:
//
//   - unowned bodies are drawn as outlines of their size
//   - owned bodies get a centre mark
//   - a velocity whisker shows where each body is heading
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Reset the scenario
//	[     - Rewind one tick from history
//	.     - Single step while paused
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Quit
package viz

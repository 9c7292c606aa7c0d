// Package dynamo is the simulation context tying the body pipeline
// together.
//
// A [Simulator] owns one registry and runs it in discrete ticks:
//
//   - queued requests are applied in submission order
//   - every body moves and its lifetime decays
//   - the spatial index is rebuilt and overlapping pairs are resolved
//   - expired bodies are removed
//   - the surviving set is exported as a [snapshot.Frame] and a record batch
//
// # Example
//
//	sim, _ := dynamo.New(dynamo.DefaultConfig())
//	id, _ := sim.Spawn(registry.Params{Size: 10, Lifetime: 5, Bounce: 0.5})
//	res, _ := sim.Tick()
//
// # Thread Safety
//
// Spawn, RequestRemoval, RequestOwnershipTransfer and Latest may be called
// from any goroutine. Tick, Run, Rewind and Reset are serialized against
// each other. Frames handed to readers are never mutated.
package dynamo

// Package vmath provides the 2D vector primitives used by the simulation.
//
// All operations are value-based and side-effect free. [Vec2.Normalize]
// never divides by zero: a zero-length input yields the zero vector and
// reports false so callers can substitute a fallback direction.
package vmath

// Package collision detects contacts and proximity between bodies and
// resolves contacts with restitution-scaled bounces.
//
// The resolver visits bodies in ascending id order and resolves each
// unordered pair at most once per tick, so identical input state always
// produces identical floating-point results.
//
// # Bounce model
//
// Bodies carry no mass; every pair is treated as equal-mass. A contact
// reflects both velocities about the contact normal in the pair's
// centre-of-momentum frame and scales each body's reflected normal
// component by its own Bounce. Tangential components are kept. When both
// coefficients are 1 the pair conserves momentum and kinetic energy along
// the normal. A body with Bounce 0 ends at rest along the normal in that
// frame. Velocities only change while the pair is closing.
//
// # Positional correction
//
// Overlapping bodies are pushed apart along the normal by the full
// overlap. The push is split evenly unless exactly one body is owned, in
// which case the owned body moves by OwnedShare of the overlap and the
// unowned body absorbs the remainder.
package collision

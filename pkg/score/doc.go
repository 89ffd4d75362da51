// Package score computes the derived metrics of a package record.
//
// Every function here is pure: no network, no clock (callers pass now), no
// package state. Identical input always yields identical output.
//
//   - [ReleaseCadence]: mean days between releases and releases per year
//   - [Documentation]: 0 to 5 in half points
//   - [Activity]: 0 to 100 from recency, contributors, pull requests,
//     release cadence and stars
//   - [Categorize]: ordered category labels, or ["Other"]
//
// The point bands are heuristics without a documented derivation. They
// live in [Thresholds] so they can be inspected and overridden rather than
// being buried in the scoring code.
package score

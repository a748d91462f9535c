// Package types defines the model records shared by the netherland engine,
// its store, and its CLI: physical constants, stocks, layers, per-timestep
// inputs, and the standard error values.
//
// Stock amounts are depth-equivalent lengths in cm. Constants carries the
// bulk-density factors for converting them to and from grams.
package types

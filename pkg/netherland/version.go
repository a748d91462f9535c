// Package netherland holds release metadata for the netherland module.
package netherland

// Version is the release version of the module and the netherland binary.
const Version = "0.1.0"

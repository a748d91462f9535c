//go:build mage

// Package main provides build targets for the netherland project using Mage.
//
// Usage:
//
//	mage build             Compile the netherland binary to bin/
//	mage test:all          Run all tests
//	mage test:unit         Run tests without the race detector, skipping the CLI
//	mage test:race         Run all tests with the race detector
//	mage test:cover        Write a coverage profile to bin/coverage.out
//	mage scenario          Build and step the reference core once
//	mage lint              Run golangci-lint
//	mage clean             Remove build artifacts
//	mage install           Install netherland to GOPATH/bin
package main

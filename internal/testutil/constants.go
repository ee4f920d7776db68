// Package testutil provides shared constants and a fake generation backend
// for tests across the scaffold client packages.
package testutil

// Test Error Messages

const (
	// TestError is a generic error message for test error scenarios.
	TestError = "test error"

	// TestConnectionRefused is the common network error message for connection failures.
	TestConnectionRefused = "connection refused"
)

// Scaffold fixtures served by Backend.

const (
	// TestTypeGyroid is a scaffold type known to the fake backend.
	TestTypeGyroid = "gyroid"

	// TestTypeLattice is a second known scaffold type.
	TestTypeLattice = "lattice"

	// TestTypeUnknown is rejected by the fake backend.
	TestTypeUnknown = "klein_bottle"

	// TestBackendVersion is reported by the fake /health endpoint.
	TestBackendVersion = "0.0.0-test"
)

// Backend routes.

const (
	PathHealth   = "/health"
	PathTypes    = "/api/scaffold-types"
	PathPreview  = "/api/preview"
	PathGenerate = "/api/generate"
)

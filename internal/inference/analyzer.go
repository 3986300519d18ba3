// Package inference invokes the external purity-inference collaborator, or a
// deterministic local mock when no endpoint is configured.
package inference

import (
	"context"
	"time"
)

// Result is the collaborator's purity estimate for one spectral sample.
type Result struct {
	PurityPercentage float64       // [0, 100]
	ConfidenceScore  float64       // [0, 1]
	Contaminants     []string
	ModelVersion     string        // "mock" when synthesized locally
	ProcessingTime   time.Duration
}

// Analyzer turns a spectral sample into a purity estimate.
type Analyzer interface {
	Analyze(ctx context.Context, wavelengths, intensities []float64) (*Result, error)
}

package inference

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// MockModelVersion tags every synthesized result so downstream consumers can
// always distinguish mock output from a real collaborator's.
const MockModelVersion = "mock"

// Mock synthesizes a plausible purity estimate so the pipeline is exercisable
// without a live collaborator. Output is deterministic for a given spectrum:
// the generator is seeded from the intensity sum.
type Mock struct{}

// NewMock returns the local mock analyzer.
func NewMock() *Mock { return &Mock{} }

// Analyze synthesizes a result. Purity lands in a realistic band derived from
// the spectrum's spread and mean; confidence tracks distance from the band
// center. Never fails and ignores ctx cancellation (the call is instant).
func (m *Mock) Analyze(_ context.Context, wavelengths, intensities []float64) (*Result, error) {
	start := time.Now()

	var sum float64
	for _, v := range intensities {
		sum += v
	}
	n := float64(len(intensities))
	mean := sum / n
	var variance float64
	for _, v := range intensities {
		variance += (v - mean) * (v - mean)
	}
	stddev := math.Sqrt(variance / n)

	rng := rand.New(rand.NewSource(int64(sum * 1000)))

	basePurity := clamp(70+stddev*30+mean*10, 60, 98)
	purity := clamp(basePurity+rng.NormFloat64()*3, 55, 99)
	confidence := clamp(0.7+0.25*(1-math.Abs(purity-85)/30), 0.5, 0.95)

	return &Result{
		PurityPercentage: round(purity, 2),
		ConfidenceScore:  round(confidence, 3),
		Contaminants:     detectContaminants(intensities, purity, rng),
		ModelVersion:     MockModelVersion,
		ProcessingTime:   time.Since(start),
	}, nil
}

// detectContaminants applies the same heuristics the collaborator's mock path
// uses: peak count, intensity ceiling, and flatness, plus extras for low purity.
func detectContaminants(intensities []float64, purity float64, rng *rand.Rand) []string {
	if purity >= 90 {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}

	if countPeaks(intensities, 0.1) > 10 {
		add("organic_compounds")
	}
	maxI, stddev := maxAndStddev(intensities)
	if maxI > 0.9 {
		add("crystalline_impurities")
	}
	if stddev < 0.1 {
		add("amorphous_material")
	}
	if purity < 80 {
		possible := []string{"water", "salts", "proteins", "lipids", "metal_oxides"}
		extra := int((90 - purity) / 10)
		if extra > 2 {
			extra = 2
		}
		for _, i := range rng.Perm(len(possible))[:extra] {
			add(possible[i])
		}
	}
	return out
}

func countPeaks(v []float64, prominence float64) int {
	n := 0
	for i := 1; i < len(v)-1; i++ {
		if v[i] > v[i-1] && v[i] > v[i+1] && v[i] > prominence {
			n++
		}
	}
	return n
}

func maxAndStddev(v []float64) (float64, float64) {
	if len(v) == 0 {
		return 0, 0
	}
	maxI := v[0]
	var sum float64
	for _, x := range v {
		if x > maxI {
			maxI = x
		}
		sum += x
	}
	mean := sum / float64(len(v))
	var variance float64
	for _, x := range v {
		variance += (x - mean) * (x - mean)
	}
	return maxI, math.Sqrt(variance / float64(len(v)))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

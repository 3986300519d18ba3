package inference

import (
	"context"
	"testing"
)

func TestMock_AnalyzeBounds(t *testing.T) {
	m := NewMock()
	w, in := sampleSpectrum(128)
	res, err := m.Analyze(context.Background(), w, in)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.PurityPercentage < 0 || res.PurityPercentage > 100 {
		t.Errorf("PurityPercentage = %v, want [0, 100]", res.PurityPercentage)
	}
	if res.ConfidenceScore < 0 || res.ConfidenceScore > 1 {
		t.Errorf("ConfidenceScore = %v, want [0, 1]", res.ConfidenceScore)
	}
	if res.ModelVersion != MockModelVersion {
		t.Errorf("ModelVersion = %q, want %q", res.ModelVersion, MockModelVersion)
	}
}

func TestMock_Deterministic(t *testing.T) {
	m := NewMock()
	w, in := sampleSpectrum(128)
	a, err := m.Analyze(context.Background(), w, in)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	b, err := m.Analyze(context.Background(), w, in)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if a.PurityPercentage != b.PurityPercentage || a.ConfidenceScore != b.ConfidenceScore {
		t.Errorf("mock not deterministic: %v/%v vs %v/%v",
			a.PurityPercentage, a.ConfidenceScore, b.PurityPercentage, b.ConfidenceScore)
	}
	if len(a.Contaminants) != len(b.Contaminants) {
		t.Errorf("contaminants differ across runs: %v vs %v", a.Contaminants, b.Contaminants)
	}
}

func TestMock_ContaminantsOnlyBelowThreshold(t *testing.T) {
	// A flat, low-variance spectrum lands at the bottom of the purity band and
	// must report at least the flatness contaminant.
	m := NewMock()
	n := 100
	w := make([]float64, n)
	in := make([]float64, n)
	for i := range w {
		w[i] = 100 + float64(i)
		in[i] = 0.02
	}
	res, err := m.Analyze(context.Background(), w, in)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.PurityPercentage >= 90 && len(res.Contaminants) > 0 {
		t.Errorf("contaminants reported at purity %v", res.PurityPercentage)
	}
}

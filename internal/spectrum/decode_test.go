package spectrum

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"testing"

	"purityscan/backend/internal/platform/apperr"
)

func testDecoder() *Decoder {
	return NewDecoder(Limits{MinPoints: 50, MaxPoints: 5000, MaxBytes: 5 * 1024 * 1024})
}

func csvTwoColumn(n int) string {
	var b strings.Builder
	b.WriteString("wavelength,intensity\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d,%f\n", 100+i, 0.5)
	}
	return b.String()
}

func TestDecode_CSVTwoColumn(t *testing.T) {
	d := testDecoder()
	w, in, err := d.Decode([]byte(csvTwoColumn(60)), FormatCSV)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(w) != 60 || len(in) != 60 {
		t.Fatalf("got %d/%d points, want 60/60", len(w), len(in))
	}
	if w[0] != 100 || w[59] != 159 {
		t.Errorf("wavelengths = [%v..%v], want [100..159]", w[0], w[59])
	}
}

func TestDecode_CSVSingleColumnSynthesizesWavelengths(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, "%f\n", 0.3)
	}
	d := testDecoder()
	w, in, err := d.Decode([]byte(b.String()), FormatCSV)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(w) != 50 || len(in) != 50 {
		t.Fatalf("got %d/%d points, want 50/50", len(w), len(in))
	}
	if w[0] != DefaultWavelengthLo || w[49] != DefaultWavelengthHi {
		t.Errorf("synthesized domain = [%v, %v], want [%v, %v]", w[0], w[49], DefaultWavelengthLo, DefaultWavelengthHi)
	}
	for i := 1; i < len(w); i++ {
		if w[i] <= w[i-1] {
			t.Fatalf("synthesized wavelengths not ascending at %d", i)
		}
	}
}

func TestDecode_JSONObject(t *testing.T) {
	w := make([]float64, 50)
	in := make([]float64, 50)
	for i := range w {
		w[i] = 100 + float64(i)
		in[i] = 0.1
	}
	raw, _ := json.Marshal(map[string]any{"wavelengths": w, "intensities": in})

	d := testDecoder()
	gw, gi, err := d.Decode(raw, FormatJSON)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(gw) != 50 || len(gi) != 50 {
		t.Fatalf("got %d/%d points, want 50/50", len(gw), len(gi))
	}
}

func TestDecode_JSONBareArray(t *testing.T) {
	in := make([]float64, 64)
	for i := range in {
		in[i] = float64(i) / 64
	}
	raw, _ := json.Marshal(in)

	d := testDecoder()
	gw, gi, err := d.Decode(raw, FormatJSON)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(gw) != 64 || len(gi) != 64 {
		t.Fatalf("got %d/%d points, want 64/64", len(gw), len(gi))
	}
	if gw[0] != DefaultWavelengthLo {
		t.Errorf("gw[0] = %v, want synthesized %v", gw[0], DefaultWavelengthLo)
	}
}

func TestDecode_Rejections(t *testing.T) {
	d := testDecoder()
	tests := []struct {
		name   string
		raw    string
		format Format
	}{
		{"too few points", csvTwoColumn(10), FormatCSV},
		{"non-numeric body row", "wavelength,intensity\n100,0.5\nabc,def\n", FormatCSV},
		{"three columns", "1,2,3\n", FormatCSV},
		{"malformed json", "{not json", FormatJSON},
		{"unsupported format", "100,0.5\n", Format("xml")},
		{"empty body", "", FormatCSV},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := d.Decode([]byte(tt.raw), tt.format)
			if err == nil {
				t.Fatal("expected error")
			}
			if !apperr.Is(err, apperr.CodeValidation) {
				t.Errorf("code = %v, want validation_error", apperr.CodeOf(err))
			}
		})
	}
}

func TestDecode_OversizeBody(t *testing.T) {
	d := NewDecoder(Limits{MinPoints: 1, MaxPoints: 100, MaxBytes: 16})
	_, _, err := d.Decode([]byte(csvTwoColumn(5)), FormatCSV)
	if !apperr.Is(err, apperr.CodeValidation) {
		t.Fatalf("err = %v, want validation_error", err)
	}
}

func TestValidate(t *testing.T) {
	d := NewDecoder(Limits{MinPoints: 3, MaxPoints: 5})
	ok := func(n int) ([]float64, []float64) {
		w := make([]float64, n)
		in := make([]float64, n)
		for i := range w {
			w[i] = float64(i + 1)
			in[i] = 0.5
		}
		return w, in
	}

	w, in := ok(4)
	if err := d.Validate(w, in); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if err := d.Validate(nil, nil); !apperr.Is(err, apperr.CodeValidation) {
		t.Errorf("empty: %v", err)
	}
	w, in = ok(4)
	if err := d.Validate(w[:3], in); !apperr.Is(err, apperr.CodeValidation) {
		t.Errorf("length mismatch: %v", err)
	}
	w, in = ok(2)
	if err := d.Validate(w, in); !apperr.Is(err, apperr.CodeValidation) {
		t.Errorf("too short: %v", err)
	}
	w, in = ok(6)
	if err := d.Validate(w, in); !apperr.Is(err, apperr.CodeValidation) {
		t.Errorf("too long: %v", err)
	}
	w, in = ok(4)
	w[2] = w[1] // not ascending
	if err := d.Validate(w, in); !apperr.Is(err, apperr.CodeValidation) {
		t.Errorf("non-ascending: %v", err)
	}
	w, in = ok(4)
	in[1] = math.NaN()
	if err := d.Validate(w, in); !apperr.Is(err, apperr.CodeValidation) {
		t.Errorf("NaN: %v", err)
	}
}

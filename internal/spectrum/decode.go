// Package spectrum decodes uploaded spectrum files into canonical equal-length
// wavelength/intensity slices and validates spectral samples before ingestion.
package spectrum

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"purityscan/backend/internal/platform/apperr"
)

// Format is a declared upload format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Wavelength domain used when a file carries intensities only; points are
// evenly spaced across the typical Raman range.
const (
	DefaultWavelengthLo = 100.0
	DefaultWavelengthHi = 4000.0
)

// Limits bound what the decoder and validator accept.
type Limits struct {
	MinPoints int
	MaxPoints int
	MaxBytes  int64
}

// Decoder turns raw uploads into canonical spectra.
type Decoder struct {
	limits Limits
}

// NewDecoder returns a decoder enforcing the given limits.
func NewDecoder(limits Limits) *Decoder {
	return &Decoder{limits: limits}
}

// jsonUpload accepts either {"wavelengths": [...], "intensities": [...]} or a
// bare intensity array.
type jsonUpload struct {
	Wavelengths []float64 `json:"wavelengths"`
	Intensities []float64 `json:"intensities"`
}

// Decode parses raw bytes in the declared format and returns equal-length
// wavelength and intensity slices. Unparseable or undersized content is a
// ValidationError; content over MaxBytes is rejected before parsing.
func (d *Decoder) Decode(raw []byte, format Format) (wavelengths, intensities []float64, err error) {
	if d.limits.MaxBytes > 0 && int64(len(raw)) > d.limits.MaxBytes {
		return nil, nil, apperr.Newf(apperr.CodeValidation, "file exceeds %d bytes", d.limits.MaxBytes)
	}
	switch format {
	case FormatCSV:
		wavelengths, intensities, err = decodeCSV(raw)
	case FormatJSON:
		wavelengths, intensities, err = decodeJSON(raw)
	default:
		return nil, nil, apperr.Newf(apperr.CodeValidation, "unsupported format %q", format)
	}
	if err != nil {
		return nil, nil, err
	}
	if len(wavelengths) == 0 {
		wavelengths = synthesizeWavelengths(len(intensities))
	}
	if err := d.Validate(wavelengths, intensities); err != nil {
		return nil, nil, err
	}
	return wavelengths, intensities, nil
}

// Validate checks a canonical spectrum: equal non-zero lengths within the
// configured bounds, finite values, and ascending wavelengths.
func (d *Decoder) Validate(wavelengths, intensities []float64) error {
	if len(wavelengths) == 0 || len(intensities) == 0 {
		return apperr.New(apperr.CodeValidation, "spectrum data cannot be empty")
	}
	if len(wavelengths) != len(intensities) {
		return apperr.Newf(apperr.CodeValidation,
			"wavelengths (%d) and intensities (%d) must have same length", len(wavelengths), len(intensities))
	}
	if d.limits.MinPoints > 0 && len(wavelengths) < d.limits.MinPoints {
		return apperr.Newf(apperr.CodeValidation,
			"spectrum too short (%d points), minimum %d required", len(wavelengths), d.limits.MinPoints)
	}
	if d.limits.MaxPoints > 0 && len(wavelengths) > d.limits.MaxPoints {
		return apperr.Newf(apperr.CodeValidation,
			"spectrum too long (%d points), maximum %d allowed", len(wavelengths), d.limits.MaxPoints)
	}
	prev := math.Inf(-1)
	for i := range wavelengths {
		if !isFinite(wavelengths[i]) || !isFinite(intensities[i]) {
			return apperr.New(apperr.CodeValidation, "spectrum contains non-finite values")
		}
		if wavelengths[i] <= prev {
			return apperr.New(apperr.CodeValidation, "wavelengths must be in ascending order")
		}
		prev = wavelengths[i]
	}
	return nil
}

func decodeCSV(raw []byte) (wavelengths, intensities []float64, err error) {
	r := csv.NewReader(strings.NewReader(string(raw)))
	r.FieldsPerRecord = -1
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, apperr.Wrap(apperr.CodeValidation, "malformed csv", err)
		}
		if len(rec) == 0 {
			continue
		}
		vals := make([]float64, 0, len(rec))
		parseOK := true
		for _, f := range rec {
			v, perr := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if perr != nil {
				parseOK = false
				break
			}
			vals = append(vals, v)
		}
		if !parseOK {
			// Tolerate a single header row; anything else is malformed.
			if first {
				first = false
				continue
			}
			return nil, nil, apperr.New(apperr.CodeValidation, "csv contains non-numeric values")
		}
		first = false
		switch len(vals) {
		case 1:
			intensities = append(intensities, vals[0])
		case 2:
			wavelengths = append(wavelengths, vals[0])
			intensities = append(intensities, vals[1])
		default:
			return nil, nil, apperr.Newf(apperr.CodeValidation, "csv rows must have 1 or 2 columns, got %d", len(vals))
		}
	}
	if len(wavelengths) != 0 && len(wavelengths) != len(intensities) {
		return nil, nil, apperr.New(apperr.CodeValidation, "csv mixes 1- and 2-column rows")
	}
	return wavelengths, intensities, nil
}

func decodeJSON(raw []byte) (wavelengths, intensities []float64, err error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var vals []float64
		if err := json.Unmarshal(raw, &vals); err != nil {
			return nil, nil, apperr.Wrap(apperr.CodeValidation, "malformed json array", err)
		}
		return nil, vals, nil
	}
	var up jsonUpload
	if err := json.Unmarshal(raw, &up); err != nil {
		return nil, nil, apperr.Wrap(apperr.CodeValidation, "malformed json", err)
	}
	return up.Wavelengths, up.Intensities, nil
}

// synthesizeWavelengths spreads n points evenly across the default domain.
func synthesizeWavelengths(n int) []float64 {
	if n == 0 {
		return nil
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = DefaultWavelengthLo
		return out
	}
	step := (DefaultWavelengthHi - DefaultWavelengthLo) / float64(n-1)
	for i := range out {
		out[i] = DefaultWavelengthLo + float64(i)*step
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

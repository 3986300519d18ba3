package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"purityscan/backend/internal/platform/apperr"
)

const defaultDeadline = 30 * time.Second

// Client calls the purity-inference collaborator over HTTP with a hard
// deadline. Any network failure, non-2xx response, or deadline overrun
// surfaces as a ServiceUnavailable error; the client never retries.
type Client struct {
	BaseURL    string
	Deadline   time.Duration
	HTTPClient *http.Client
}

// NewClient returns a client for the collaborator at baseURL. deadline <= 0
// falls back to 30s.
func NewClient(baseURL string, deadline time.Duration) *Client {
	if deadline <= 0 {
		deadline = defaultDeadline
	}
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		Deadline:   deadline,
		HTTPClient: &http.Client{Timeout: deadline},
	}
}

type analyzeRequest struct {
	Wavelengths []float64 `json:"wavelengths"`
	Intensities []float64 `json:"intensities"`
}

type analyzeResponse struct {
	PurityPercentage float64  `json:"purity_percentage"`
	ConfidenceScore  float64  `json:"confidence_score"`
	Contaminants     []string `json:"contaminants"`
	ModelUsed        string   `json:"model_used"`
	ProcessingTimeMS float64  `json:"processing_time_ms"`
}

// Analyze posts the spectrum to the collaborator's /analyze endpoint.
// The call is bounded by the configured deadline even when ctx has none.
func (c *Client) Analyze(ctx context.Context, wavelengths, intensities []float64) (*Result, error) {
	if c.BaseURL == "" {
		return nil, apperr.New(apperr.CodeUnavailable, "inference endpoint not configured")
	}
	raw, err := json.Marshal(analyzeRequest{Wavelengths: wavelengths, Intensities: intensities})
	if err != nil {
		return nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, c.Deadline)
	defer cancel()
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.BaseURL+"/analyze", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUnavailable, "inference call failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperr.Newf(apperr.CodeUnavailable, "inference returned status=%d body=%s", resp.StatusCode, string(b))
	}
	var out analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperr.Wrap(apperr.CodeUnavailable, "inference response malformed", err)
	}
	return &Result{
		PurityPercentage: out.PurityPercentage,
		ConfidenceScore:  out.ConfidenceScore,
		Contaminants:     out.Contaminants,
		ModelVersion:     out.ModelUsed,
		ProcessingTime:   time.Duration(out.ProcessingTimeMS * float64(time.Millisecond)),
	}, nil
}

// Package confidence talks to the external review confidence-scoring
// endpoint and provides the deterministic fallback used when that endpoint
// is unreachable.
package confidence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ScoreRequest is the JSON body the scoring endpoint expects.
type ScoreRequest struct {
	ReviewText string `json:"reviewText"`
	StarRating uint8  `json:"starRating"`
	VisitCount uint64 `json:"visitCount"`
}

type scoreResponse struct {
	CalculatedConfidenceLevel int    `json:"calculatedConfidenceLevel"`
	Error                     string `json:"error"`
}

// ErrEndpointUnavailable marks transport-level failures to reach the scoring
// endpoint. Callers may substitute the fallback scorer; every other error
// means the endpoint answered and the review must not proceed.
var ErrEndpointUnavailable = errors.New("confidence endpoint unavailable")

type Scorer struct {
	endpoint string
	httpc    *http.Client
}

func NewScorer(endpoint string) *Scorer {
	return &Scorer{
		endpoint: endpoint,
		httpc:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Score asks the endpoint for a confidence level in [1,10].
func (s *Scorer) Score(ctx context.Context, req ScoreRequest) (uint8, error) {
	if s == nil || s.endpoint == "" {
		return 0, ErrEndpointUnavailable
	}
	body, err := json.Marshal(req)
	if err != nil {
		return 0, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEndpointUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpc.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEndpointUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return 0, fmt.Errorf("%w: status %d", ErrEndpointUnavailable, resp.StatusCode)
	}

	var parsed scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEndpointUnavailable, err)
	}
	if parsed.Error != "" {
		return 0, fmt.Errorf("confidence scoring rejected the review: %s", parsed.Error)
	}
	if parsed.CalculatedConfidenceLevel < 1 || parsed.CalculatedConfidenceLevel > 10 {
		return 0, fmt.Errorf("confidence level %d is out of range", parsed.CalculatedConfidenceLevel)
	}
	return uint8(parsed.CalculatedConfidenceLevel), nil
}

// Fallback computes a deterministic confidence level from the rating, a
// visit-count bucket and a text-length bucket. Always in [1,10].
func Fallback(req ScoreRequest) uint8 {
	score := int(req.StarRating)
	switch {
	case req.VisitCount >= 10:
		score += 3
	case req.VisitCount >= 3:
		score += 2
	case req.VisitCount >= 1:
		score += 1
	}
	switch {
	case len(req.ReviewText) >= 100:
		score += 2
	case len(req.ReviewText) >= 20:
		score += 1
	}
	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}
	return uint8(score)
}

package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"driveli/internal/driver"
)

// facialResponse is the face-match service's response: a similarity score
// between the submitted photo and the reference photo on file.
type facialResponse struct {
	Similarity float64 `json:"similarity"`
}

// FacialVerifier compares a submitted photo against the driver's reference
// photo through an external face-match service.
type FacialVerifier struct {
	baseURL string
	client  *http.Client

	// matchThreshold is the minimum similarity considered a match.
	matchThreshold float64
}

func NewFacialVerifier(baseURL string, timeout time.Duration) *FacialVerifier {
	return &FacialVerifier{
		baseURL:        baseURL,
		client:         &http.Client{Timeout: timeout},
		matchThreshold: 0.8,
	}
}

func (v *FacialVerifier) Name() string { return "facial-match" }

func (v *FacialVerifier) Verify(ctx context.Context, d *driver.Driver, claim Claim) (Result, error) {
	if d == nil {
		return Result{}, fmt.Errorf("driver is required")
	}
	photoRef := claim["photo_ref"]
	if photoRef == "" {
		photoRef = d.PhotoRef
	}
	if photoRef == "" {
		return Result{}, fmt.Errorf("photo_ref claim is required")
	}

	now := time.Now()
	body, _ := json.Marshal(map[string]string{
		"candidate_ref": photoRef,
		"reference_ref": d.PhotoRef,
	})
	var resp facialResponse
	err := callJSON(ctx, v.client, v.Name(), http.MethodPost, v.baseURL+"/v1/match", bytes.NewReader(body), &resp)
	if err != nil {
		return unavailable(err, now), nil
	}

	raw, _ := json.Marshal(resp)
	status := OutcomeUnmatched
	if resp.Similarity >= v.matchThreshold {
		status = OutcomeMatched
	}
	return Result{Status: status, Confidence: resp.Similarity, Raw: raw, CheckedAt: now}, nil
}

// MockFacialVerifier returns deterministic similarity keyed off the photo
// reference, with a configurable latency to mimic real-world calls.
type MockFacialVerifier struct {
	Latency time.Duration
}

func (m MockFacialVerifier) Name() string { return "facial-match-mock" }

func (m MockFacialVerifier) Verify(_ context.Context, d *driver.Driver, claim Claim) (Result, error) {
	if d == nil {
		return Result{}, fmt.Errorf("driver is required")
	}
	time.Sleep(m.Latency)
	photoRef := claim["photo_ref"]
	if photoRef == "" {
		photoRef = d.PhotoRef
	}
	now := time.Now()
	switch {
	case strings.Contains(photoRef, "down"):
		return unavailable(NewVerifierError(ErrorProviderOutage, m.Name(), "simulated outage", nil), now), nil
	case strings.Contains(photoRef, "stranger"):
		raw, _ := json.Marshal(facialResponse{Similarity: 0.22})
		return Result{Status: OutcomeUnmatched, Confidence: 0.22, Raw: raw, CheckedAt: now}, nil
	}
	raw, _ := json.Marshal(facialResponse{Similarity: 0.94})
	return Result{Status: OutcomeMatched, Confidence: 0.94, Raw: raw, CheckedAt: now}, nil
}

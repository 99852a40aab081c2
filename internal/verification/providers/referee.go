package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// refereeResponse is the contact-verification service's response for one
// referee.
type refereeResponse struct {
	Reached       bool   `json:"reached"`
	NameConfirmed bool   `json:"name_confirmed"`
	Notes         string `json:"notes"`
}

// HTTPRefereeVerifier confirms a referee's phone and identity through an
// external contact-verification service.
type HTTPRefereeVerifier struct {
	baseURL string
	client  *http.Client
}

func NewHTTPRefereeVerifier(baseURL string, timeout time.Duration) *HTTPRefereeVerifier {
	return &HTTPRefereeVerifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (v *HTTPRefereeVerifier) Name() string { return "referee-contact" }

func (v *HTTPRefereeVerifier) VerifyReferee(ctx context.Context, name, phone, relationship string) (Result, error) {
	if phone == "" {
		return Result{}, fmt.Errorf("referee phone is required")
	}

	now := time.Now()
	body, _ := json.Marshal(map[string]string{
		"name":         name,
		"phone":        phone,
		"relationship": relationship,
	})
	var resp refereeResponse
	err := callJSON(ctx, v.client, v.Name(), http.MethodPost, v.baseURL+"/v1/contact-checks", bytes.NewReader(body), &resp)
	if err != nil {
		return unavailable(err, now), nil
	}

	raw, _ := json.Marshal(resp)
	status := OutcomeUnmatched
	confidence := 0.0
	if resp.Reached && resp.NameConfirmed {
		status = OutcomeMatched
		confidence = 1.0
	}
	return Result{Status: status, Confidence: confidence, Raw: raw, CheckedAt: now}, nil
}

// MockRefereeVerifier returns deterministic results keyed off the referee
// phone number, with a configurable latency to mimic real-world calls.
type MockRefereeVerifier struct {
	Latency time.Duration
}

func (m MockRefereeVerifier) Name() string { return "referee-contact-mock" }

func (m MockRefereeVerifier) VerifyReferee(_ context.Context, name, phone, _ string) (Result, error) {
	if phone == "" {
		return Result{}, fmt.Errorf("referee phone is required")
	}
	time.Sleep(m.Latency)
	now := time.Now()
	switch {
	case strings.HasSuffix(phone, "000"):
		return unavailable(NewVerifierError(ErrorProviderOutage, m.Name(), "simulated outage", nil), now), nil
	case strings.HasSuffix(phone, "99"):
		raw, _ := json.Marshal(refereeResponse{Reached: true, NameConfirmed: false, Notes: "answered but denied knowing " + name})
		return Result{Status: OutcomeUnmatched, Raw: raw, CheckedAt: now}, nil
	}
	raw, _ := json.Marshal(refereeResponse{Reached: true, NameConfirmed: true})
	return Result{Status: OutcomeMatched, Confidence: 1.0, Raw: raw, CheckedAt: now}, nil
}

package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"driveli/internal/driver"
)

// ninRecord is the national identity registry's response for one lookup.
type ninRecord struct {
	Found       bool   `json:"found"`
	FirstName   string `json:"first_name"`
	Surname     string `json:"surname"`
	DateOfBirth string `json:"date_of_birth"`
	Phone       string `json:"phone"`
}

// NINVerifier checks a claimed national identity number against the NIN
// registry.
type NINVerifier struct {
	baseURL string
	client  *http.Client
}

func NewNINVerifier(baseURL string, timeout time.Duration) *NINVerifier {
	return &NINVerifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (v *NINVerifier) Name() string { return "nin-registry" }

func (v *NINVerifier) Verify(ctx context.Context, d *driver.Driver, claim Claim) (Result, error) {
	if d == nil {
		return Result{}, fmt.Errorf("driver is required")
	}
	nin := claim["nin"]
	if nin == "" {
		nin = d.ClaimedNIN
	}
	if nin == "" {
		return Result{}, fmt.Errorf("nin claim is required")
	}

	now := time.Now()
	var record ninRecord
	err := callJSON(ctx, v.client, v.Name(), http.MethodGet, v.baseURL+"/v1/nin/"+nin, nil, &record)
	if err != nil {
		var ve *VerifierError
		if errors.As(err, &ve) && ve.Category == ErrorNotFound {
			raw, _ := json.Marshal(map[string]string{"reason": "nin not on registry"})
			return Result{Status: OutcomeUnmatched, Raw: raw, CheckedAt: now}, nil
		}
		return unavailable(err, now), nil
	}

	raw, _ := json.Marshal(record)
	if !record.Found {
		return Result{Status: OutcomeUnmatched, Raw: raw, CheckedAt: now}, nil
	}

	confidence := identityAgreement(d, record.FirstName, record.Surname, record.DateOfBirth)
	status := OutcomeMatched
	if confidence < 0.5 {
		// Registry knows the NIN but the holder is someone else.
		status = OutcomeUnmatched
	}
	return Result{Status: status, Confidence: confidence, Raw: raw, CheckedAt: now}, nil
}

// identityAgreement scores how well the registry's person matches the
// driver's claimed identity, 0..1.
func identityAgreement(d *driver.Driver, firstName, surname, dob string) float64 {
	checks := 0
	agreed := 0

	fullName := strings.ToLower(d.FullName)
	if firstName != "" {
		checks++
		if strings.Contains(fullName, strings.ToLower(firstName)) {
			agreed++
		}
	}
	if surname != "" {
		checks++
		if strings.Contains(fullName, strings.ToLower(surname)) {
			agreed++
		}
	}
	if dob != "" {
		checks++
		if dob == d.DateOfBirth {
			agreed++
		}
	}
	if checks == 0 {
		return 0
	}
	return float64(agreed) / float64(checks)
}

// MockNINVerifier returns deterministic results keyed off the claimed NIN,
// with a configurable latency to mimic real-world calls.
type MockNINVerifier struct {
	Latency time.Duration
}

func (m MockNINVerifier) Name() string { return "nin-registry-mock" }

func (m MockNINVerifier) Verify(_ context.Context, d *driver.Driver, claim Claim) (Result, error) {
	if d == nil {
		return Result{}, fmt.Errorf("driver is required")
	}
	time.Sleep(m.Latency)
	nin := claim["nin"]
	if nin == "" {
		nin = d.ClaimedNIN
	}
	now := time.Now()
	switch {
	case strings.HasSuffix(nin, "DOWN"):
		return unavailable(NewVerifierError(ErrorProviderOutage, m.Name(), "simulated outage", nil), now), nil
	case strings.HasSuffix(nin, "00"):
		raw, _ := json.Marshal(map[string]string{"reason": "nin not on registry"})
		return Result{Status: OutcomeUnmatched, Raw: raw, CheckedAt: now}, nil
	}
	record := ninRecord{Found: true, FirstName: firstWord(d.FullName), Surname: lastWord(d.FullName), DateOfBirth: d.DateOfBirth}
	raw, _ := json.Marshal(record)
	return Result{Status: OutcomeMatched, Confidence: 1.0, Raw: raw, CheckedAt: now}, nil
}

func firstWord(s string) string {
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

func lastWord(s string) string {
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

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

// licenseRecord is the license registry's response for one lookup.
type licenseRecord struct {
	Found             bool   `json:"found"`
	HolderName        string `json:"holder_name"`
	ExpiryDate        string `json:"expiry_date"`
	Suspended         bool   `json:"suspended"`
	DrivingRecordGood bool   `json:"driving_record_good"`
}

// LicenseVerifier checks a claimed driving license against the license
// registry.
type LicenseVerifier struct {
	baseURL string
	client  *http.Client
}

func NewLicenseVerifier(baseURL string, timeout time.Duration) *LicenseVerifier {
	return &LicenseVerifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (v *LicenseVerifier) Name() string { return "license-registry" }

func (v *LicenseVerifier) Verify(ctx context.Context, d *driver.Driver, claim Claim) (Result, error) {
	if d == nil {
		return Result{}, fmt.Errorf("driver is required")
	}
	licenseNo := claim["license_number"]
	if licenseNo == "" {
		licenseNo = d.ClaimedLicenseNo
	}
	if licenseNo == "" {
		return Result{}, fmt.Errorf("license_number claim is required")
	}

	now := time.Now()
	var record licenseRecord
	err := callJSON(ctx, v.client, v.Name(), http.MethodGet, v.baseURL+"/v1/licenses/"+licenseNo, nil, &record)
	if err != nil {
		var ve *VerifierError
		if errors.As(err, &ve) && ve.Category == ErrorNotFound {
			raw, _ := json.Marshal(map[string]string{"reason": "license not on registry"})
			return Result{Status: OutcomeUnmatched, Raw: raw, CheckedAt: now}, nil
		}
		return unavailable(err, now), nil
	}

	raw, _ := json.Marshal(record)
	if !record.Found || record.Suspended {
		return Result{Status: OutcomeUnmatched, Raw: raw, CheckedAt: now}, nil
	}

	confidence := 1.0
	if record.HolderName != "" && !strings.EqualFold(record.HolderName, d.FullName) {
		confidence = 0.4
	}
	status := OutcomeMatched
	if confidence < 0.5 {
		status = OutcomeUnmatched
	}
	return Result{Status: status, Confidence: confidence, Raw: raw, CheckedAt: now}, nil
}

// MockLicenseVerifier returns deterministic results keyed off the claimed
// license number, with a configurable latency to mimic real-world calls.
type MockLicenseVerifier struct {
	Latency time.Duration
}

func (m MockLicenseVerifier) Name() string { return "license-registry-mock" }

func (m MockLicenseVerifier) Verify(_ context.Context, d *driver.Driver, claim Claim) (Result, error) {
	if d == nil {
		return Result{}, fmt.Errorf("driver is required")
	}
	time.Sleep(m.Latency)
	licenseNo := claim["license_number"]
	if licenseNo == "" {
		licenseNo = d.ClaimedLicenseNo
	}
	now := time.Now()
	switch {
	case strings.HasSuffix(licenseNo, "DOWN"):
		return unavailable(NewVerifierError(ErrorProviderOutage, m.Name(), "simulated outage", nil), now), nil
	case strings.HasSuffix(licenseNo, "00"):
		raw, _ := json.Marshal(map[string]string{"reason": "license not on registry"})
		return Result{Status: OutcomeUnmatched, Raw: raw, CheckedAt: now}, nil
	}
	record := licenseRecord{Found: true, HolderName: d.FullName, ExpiryDate: now.AddDate(1, 0, 0).Format("2006-01-02"), DrivingRecordGood: true}
	raw, _ := json.Marshal(record)
	return Result{Status: OutcomeMatched, Confidence: 1.0, Raw: raw, CheckedAt: now}, nil
}

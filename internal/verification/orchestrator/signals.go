package orchestrator

import (
	"encoding/json"
	"strings"

	"driveli/internal/driver"
	"driveli/internal/verification"
	"driveli/internal/verification/providers"
	"driveli/internal/verification/scoring"
)

// evidence is everything one run gathered, in the shape signal derivation
// needs. Absent checks stay nil and contribute nothing.
type evidence struct {
	driver     *driver.Driver
	nin        *providers.Result
	license    *providers.Result
	facial     *providers.Result
	docs       []verification.DocumentOCRResult
	referees   []verification.RefereeVerification
	background BackgroundInput

	// docsReused marks a run that kept a prior successful document check
	// without this run's own OCR rows to inspect.
	docsReused bool
}

// licensePayload is the slice of the license registry record that feeds
// signals beyond the match outcome itself.
type licensePayload struct {
	DrivingRecordGood bool `json:"driving_record_good"`
}

// deriveSignals folds gathered evidence into the flat signal set the scorer
// consumes. Unavailable checks leave their signals at zero; they are never
// treated as failures here.
func deriveSignals(e evidence) scoring.Signals {
	s := scoring.Signals{
		CriminalCheckPassed: e.background.CriminalCheckPassed,
		EmploymentVerified:  e.background.EmploymentVerified,
	}

	if e.facial != nil && e.facial.Status == providers.OutcomeMatched {
		s.FacialScore = e.facial.Confidence
	}
	if e.nin != nil && e.nin.Status == providers.OutcomeMatched {
		s.IDVerified = true
	}
	if e.license != nil && e.license.Status == providers.OutcomeMatched {
		s.LicenseVerified = true
		var payload licensePayload
		if json.Unmarshal(e.license.Raw, &payload) == nil {
			s.DrivingRecordGood = payload.DrivingRecordGood
		}
	}

	s.DocumentsValid = len(e.docs) > 0 || e.docsReused
	for _, doc := range e.docs {
		if doc.Failed {
			s.DocumentsValid = false
		}
		switch doc.DocumentType {
		case "utility":
			if !doc.Failed {
				s.AddressVerified = true
				s.AddressesMatch = true
			}
		case "national_id":
			s.NameMatches = s.NameMatches || extractedNameMatches(e.driver, doc.Fields)
			s.DatesConsistent = s.DatesConsistent || extractedDOBMatches(e.driver, doc.Fields)
		}
	}

	for _, r := range e.referees {
		s.References = append(s.References, scoring.Reference{Verified: r.Verified})
	}

	s.DataCompleteness = dataCompleteness(e)
	return s
}

// extractedNameMatches reports whether the OCR first name and surname both
// appear in the driver's registered full name.
func extractedNameMatches(d *driver.Driver, fields map[string]string) bool {
	first, surname := fields["first_name"], fields["surname"]
	if first == "" || surname == "" {
		return false
	}
	full := strings.ToLower(d.FullName)
	return strings.Contains(full, strings.ToLower(first)) &&
		strings.Contains(full, strings.ToLower(surname))
}

func extractedDOBMatches(d *driver.Driver, fields map[string]string) bool {
	dob := fields["date_of_birth"]
	return dob != "" && dob == d.DateOfBirth
}

// dataCompleteness is the fraction of expected inputs present: one document
// of each expected class, at least one referee, and the claimed credentials.
func dataCompleteness(e evidence) float64 {
	classes := make(map[string]bool)
	for _, doc := range e.docs {
		classes[doc.DocumentType] = true
	}

	present := 0
	const expected = 7
	for _, class := range []string{"national_id", "license", "utility"} {
		if classes[class] {
			present++
		}
	}
	if len(e.referees) > 0 {
		present++
	}
	if e.driver.ClaimedNIN != "" {
		present++
	}
	if e.driver.ClaimedLicenseNo != "" {
		present++
	}
	if e.driver.PhotoRef != "" {
		present++
	}
	return float64(present) / float64(expected)
}

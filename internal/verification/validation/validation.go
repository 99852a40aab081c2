// Package validation applies structural and business rules to a submitted
// document before it enters scoring. This is pure domain logic - no I/O, no
// side effects; time is received as a parameter.
package validation

import (
	"regexp"
	"time"
)

// Document is the minimal view of a submitted document the rules need.
type Document struct {
	Type        string
	Number      string
	ExpiryDate  string // YYYY-MM-DD, optional
	Name        string // optional
	DateOfBirth string // YYYY-MM-DD, optional
}

// Result collects every rule failure; rules are not short-circuited so the
// caller can report all problems at once.
type Result struct {
	Valid  bool
	Errors []string
}

const (
	dateLayout = "2006-01-02"

	minDriverAge = 16
	maxSaneAge   = 100
)

var knownTypes = map[string]struct{}{
	"license":     {},
	"national_id": {},
	"utility":     {},
	"passport":    {},
}

var namePattern = regexp.MustCompile(`^[A-Za-z\s\-']+$`)

// Validate applies the document rules in order and collects all failures.
// Missing optional fields never fail; only structurally invalid ones do.
func Validate(doc Document, now time.Time) Result {
	var errs []string

	if doc.Type == "" && doc.Number == "" {
		return Result{Valid: false, Errors: []string{"Document is empty"}}
	}

	if _, ok := knownTypes[doc.Type]; !ok {
		errs = append(errs, "Invalid document type")
	}

	if doc.Number == "" {
		errs = append(errs, "Document number is required")
	}

	if doc.ExpiryDate != "" {
		expiry, err := time.Parse(dateLayout, doc.ExpiryDate)
		if err != nil {
			errs = append(errs, "Invalid expiry date format")
		} else if !expiry.After(truncateToDay(now)) {
			errs = append(errs, "Document has expired")
		}
		// Far-future expiry dates are accepted; registries issue long-lived
		// documents and an upper bound here would reject real ones.
	}

	if doc.Name != "" {
		if len(doc.Name) < 2 || !namePattern.MatchString(doc.Name) {
			errs = append(errs, "Invalid name format")
		}
	}

	if doc.DateOfBirth != "" {
		dob, err := time.Parse(dateLayout, doc.DateOfBirth)
		if err != nil {
			errs = append(errs, "Invalid date of birth format")
		} else {
			age := yearsBetween(dob, now)
			if age < minDriverAge {
				errs = append(errs, "Driver must be at least 16 years old")
			}
			if age > maxSaneAge {
				errs = append(errs, "Date of birth is implausible")
			}
		}
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func yearsBetween(from, to time.Time) int {
	years := to.Year() - from.Year()
	if to.Month() < from.Month() || (to.Month() == from.Month() && to.Day() < from.Day()) {
		years--
	}
	return years
}

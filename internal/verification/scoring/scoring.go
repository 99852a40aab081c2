// Package scoring computes the composite verification score from the
// signals gathered across workflow stages. Calculation is pure and
// deterministic so stored scores can be recomputed and audited.
package scoring

import "math"

// Reference is one referee contact outcome contributing to the references
// component.
type Reference struct {
	Verified bool
}

// Signals carries the per-check evidence the orchestrator collected.
// FacialScore and DataCompleteness are fractions in [0, 1]; everything
// else is a hard pass or fail.
type Signals struct {
	FacialScore         float64
	LicenseVerified     bool
	IDVerified          bool
	AddressVerified     bool
	DocumentsValid      bool
	CriminalCheckPassed bool
	DrivingRecordGood   bool
	EmploymentVerified  bool
	NameMatches         bool
	DatesConsistent     bool
	AddressesMatch      bool
	References          []Reference
	DataCompleteness    float64
}

// Weights assigns a share of the 100-point score to each signal.
type Weights struct {
	Facial              int
	LicenseVerified     int
	IDVerified          int
	AddressVerified     int
	DocumentsValid      int
	CriminalCheckPassed int
	DrivingRecordGood   int
	EmploymentVerified  int
	NameMatches         int
	DatesConsistent     int
	AddressesMatch      int
	References          int
	DataCompleteness    int
}

// DefaultWeights sums to exactly 100.
func DefaultWeights() Weights {
	return Weights{
		Facial:              15,
		LicenseVerified:     12,
		IDVerified:          12,
		AddressVerified:     6,
		DocumentsValid:      10,
		CriminalCheckPassed: 8,
		DrivingRecordGood:   7,
		EmploymentVerified:  5,
		NameMatches:         6,
		DatesConsistent:     4,
		AddressesMatch:      4,
		References:          6,
		DataCompleteness:    5,
	}
}

// Total returns the sum of all weight components.
func (w Weights) Total() int {
	return w.Facial + w.LicenseVerified + w.IDVerified + w.AddressVerified +
		w.DocumentsValid + w.CriminalCheckPassed + w.DrivingRecordGood +
		w.EmploymentVerified + w.NameMatches + w.DatesConsistent +
		w.AddressesMatch + w.References + w.DataCompleteness
}

// Calculate folds the signals into a single integer score in [0, 100].
// Graded signals contribute proportionally; boolean signals contribute
// their full weight or nothing. The references component is the fraction
// of referees that were verified.
func Calculate(s Signals, w Weights) int {
	total := 0.0

	total += clampFraction(s.FacialScore) * float64(w.Facial)
	total += boolWeight(s.LicenseVerified, w.LicenseVerified)
	total += boolWeight(s.IDVerified, w.IDVerified)
	total += boolWeight(s.AddressVerified, w.AddressVerified)
	total += boolWeight(s.DocumentsValid, w.DocumentsValid)
	total += boolWeight(s.CriminalCheckPassed, w.CriminalCheckPassed)
	total += boolWeight(s.DrivingRecordGood, w.DrivingRecordGood)
	total += boolWeight(s.EmploymentVerified, w.EmploymentVerified)
	total += boolWeight(s.NameMatches, w.NameMatches)
	total += boolWeight(s.DatesConsistent, w.DatesConsistent)
	total += boolWeight(s.AddressesMatch, w.AddressesMatch)
	total += referenceFraction(s.References) * float64(w.References)
	total += clampFraction(s.DataCompleteness) * float64(w.DataCompleteness)

	score := int(math.Round(total))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func boolWeight(ok bool, weight int) float64 {
	if ok {
		return float64(weight)
	}
	return 0
}

func clampFraction(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// referenceFraction is the share of referees confirmed. No referees at all
// scores zero for the component rather than full marks.
func referenceFraction(refs []Reference) float64 {
	if len(refs) == 0 {
		return 0
	}
	verified := 0
	for _, r := range refs {
		if r.Verified {
			verified++
		}
	}
	return float64(verified) / float64(len(refs))
}

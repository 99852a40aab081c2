package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func allPositive() Signals {
	return Signals{
		FacialScore:         1.0,
		LicenseVerified:     true,
		IDVerified:          true,
		AddressVerified:     true,
		DocumentsValid:      true,
		CriminalCheckPassed: true,
		DrivingRecordGood:   true,
		EmploymentVerified:  true,
		NameMatches:         true,
		DatesConsistent:     true,
		AddressesMatch:      true,
		References:          []Reference{{Verified: true}, {Verified: true}},
		DataCompleteness:    1.0,
	}
}

func TestDefaultWeightsSumToHundred(t *testing.T) {
	assert.Equal(t, 100, DefaultWeights().Total())
}

func TestCalculateBounds(t *testing.T) {
	w := DefaultWeights()

	assert.Equal(t, 100, Calculate(allPositive(), w))
	assert.Equal(t, 0, Calculate(Signals{}, w))
}

func TestCalculateClampsGradedSignals(t *testing.T) {
	w := DefaultWeights()
	s := allPositive()
	s.FacialScore = 4.2
	s.DataCompleteness = -1.0

	got := Calculate(s, w)
	assert.LessOrEqual(t, got, 100)
	assert.Equal(t, 100-w.DataCompleteness, got)
}

func TestCalculatePartialSignals(t *testing.T) {
	w := DefaultWeights()
	s := Signals{
		FacialScore:     0.5,
		LicenseVerified: true,
		IDVerified:      true,
		References:      []Reference{{Verified: true}, {Verified: false}},
	}

	// 0.5*15 + 12 + 12 + 0.5*6 = 34.5, rounds to 35
	assert.Equal(t, 35, Calculate(s, w))
}

func TestCalculateMonotonic(t *testing.T) {
	w := DefaultWeights()
	base := Signals{FacialScore: 0.3, DataCompleteness: 0.5}
	baseScore := Calculate(base, w)

	flips := []func(*Signals){
		func(s *Signals) { s.LicenseVerified = true },
		func(s *Signals) { s.IDVerified = true },
		func(s *Signals) { s.AddressVerified = true },
		func(s *Signals) { s.DocumentsValid = true },
		func(s *Signals) { s.CriminalCheckPassed = true },
		func(s *Signals) { s.DrivingRecordGood = true },
		func(s *Signals) { s.EmploymentVerified = true },
		func(s *Signals) { s.NameMatches = true },
		func(s *Signals) { s.DatesConsistent = true },
		func(s *Signals) { s.AddressesMatch = true },
		func(s *Signals) { s.References = []Reference{{Verified: true}} },
		func(s *Signals) { s.FacialScore = 0.9 },
		func(s *Signals) { s.DataCompleteness = 1.0 },
	}
	for _, flip := range flips {
		s := base
		flip(&s)
		assert.GreaterOrEqual(t, Calculate(s, w), baseScore)
	}
}

func TestCalculateDeterministic(t *testing.T) {
	w := DefaultWeights()
	s := allPositive()
	s.FacialScore = 0.73
	s.References = []Reference{{Verified: true}, {Verified: false}, {Verified: true}}

	first := Calculate(s, w)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Calculate(s, w))
	}
}

func TestNoReferencesScoresZeroForComponent(t *testing.T) {
	w := DefaultWeights()
	s := allPositive()
	s.References = nil

	assert.Equal(t, 100-w.References, Calculate(s, w))
}

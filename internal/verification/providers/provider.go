// Package providers holds the adapters for external verification
// authorities. Each verifier calls one authority and returns a normalized
// signal so the scoring layer never sees provider wire formats.
package providers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"driveli/internal/driver"
)

// Outcome is the normalized result of one external check. Unavailable is
// distinct from unmatched so scoring can tell "checked and failed" from
// "could not check".
type Outcome string

const (
	OutcomeMatched     Outcome = "matched"
	OutcomeUnmatched   Outcome = "unmatched"
	OutcomeUnavailable Outcome = "unavailable"
)

// Claim carries the fields a verifier checks, keyed by filter name
// (e.g. "nin", "license_number", "photo_ref").
type Claim map[string]string

// Result is the generic outcome from any verifier.
type Result struct {
	Status     Outcome
	Confidence float64 // 0.0-1.0
	Raw        json.RawMessage
	CheckedAt  time.Time
}

// Verifier is the universal interface all external authorities must
// implement. Implementations carry their own timeout and map transport
// failures to OutcomeUnavailable rather than returning an error; the error
// return is reserved for programming mistakes (nil driver, bad claim shape).
type Verifier interface {
	// Name returns a unique identifier for this verifier instance.
	Name() string

	// Verify performs one check of the claim against the authority.
	Verify(ctx context.Context, d *driver.Driver, claim Claim) (Result, error)
}

// RefereeVerifier confirms the phone/identity of one submitted referee.
// Referee checks are independent per referee, hence the separate contract.
type RefereeVerifier interface {
	Name() string
	VerifyReferee(ctx context.Context, name, phone, relationship string) (Result, error)
}

// Fingerprint produces a stable request identifier for the call log without
// recording claim values in the clear.
func Fingerprint(provider string, claim Claim) string {
	keys := make([]string, 0, len(claim))
	for k := range claim {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(provider)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(claim[k])
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

package providers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"driveli/internal/driver"
	"driveli/internal/verification/apilog"
	"driveli/internal/verification/metrics"
)

// Logged wraps a Verifier so every call lands in the api verification log
// and the latency histogram, regardless of outcome. The orchestrator only
// ever sees decorated verifiers.
type Logged struct {
	next     Verifier
	recorder *apilog.Recorder
	metrics  *metrics.Metrics
}

func NewLogged(next Verifier, recorder *apilog.Recorder, m *metrics.Metrics) *Logged {
	return &Logged{next: next, recorder: recorder, metrics: m}
}

func (l *Logged) Name() string { return l.next.Name() }

func (l *Logged) Verify(ctx context.Context, d *driver.Driver, claim Claim) (Result, error) {
	start := time.Now()
	result, err := l.next.Verify(ctx, d, claim)
	latency := time.Since(start)

	outcome := string(result.Status)
	errDetail := ""
	if err != nil {
		outcome = "error"
		errDetail = err.Error()
	}

	driverID := ""
	if d != nil {
		driverID = d.ID
	}
	if l.recorder != nil {
		l.recorder.Record(ctx, apilog.Entry{
			ID:          uuid.New(),
			DriverID:    driverID,
			Provider:    l.next.Name(),
			Fingerprint: Fingerprint(l.next.Name(), claim),
			Outcome:     outcome,
			LatencyMS:   latency.Milliseconds(),
			Error:       errDetail,
			CreatedAt:   start,
		})
	}
	l.metrics.ObserveVerifierCall(l.next.Name(), outcome, latency)

	return result, err
}

// LoggedReferee is the referee-check counterpart of Logged.
type LoggedReferee struct {
	next     RefereeVerifier
	recorder *apilog.Recorder
	metrics  *metrics.Metrics

	// DriverID scopes log entries; referee checks carry no driver argument.
	DriverID string
}

func NewLoggedReferee(next RefereeVerifier, recorder *apilog.Recorder, m *metrics.Metrics, driverID string) *LoggedReferee {
	return &LoggedReferee{next: next, recorder: recorder, metrics: m, DriverID: driverID}
}

func (l *LoggedReferee) Name() string { return l.next.Name() }

func (l *LoggedReferee) VerifyReferee(ctx context.Context, name, phone, relationship string) (Result, error) {
	start := time.Now()
	result, err := l.next.VerifyReferee(ctx, name, phone, relationship)
	latency := time.Since(start)

	outcome := string(result.Status)
	errDetail := ""
	if err != nil {
		outcome = "error"
		errDetail = err.Error()
	}

	if l.recorder != nil {
		l.recorder.Record(ctx, apilog.Entry{
			ID:          uuid.New(),
			DriverID:    l.DriverID,
			Provider:    l.next.Name(),
			Fingerprint: Fingerprint(l.next.Name(), Claim{"phone": phone}),
			Outcome:     outcome,
			LatencyMS:   latency.Milliseconds(),
			Error:       errDetail,
			CreatedAt:   start,
		})
	}
	l.metrics.ObserveVerifierCall(l.next.Name(), outcome, latency)

	return result, err
}

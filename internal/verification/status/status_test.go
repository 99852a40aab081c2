package status

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driveli/internal/driver"
	"driveli/internal/verification"
	"driveli/pkg/platform/sentinel"
)

func seedDriver(t *testing.T, store *driver.MemoryStore, status driver.Status) *driver.Driver {
	t.Helper()
	d := &driver.Driver{
		ID:       "drv-1",
		FullName: "Adaeze Okafor",
		Active:   true,
		Status:   status,
	}
	require.NoError(t, store.Save(context.Background(), d))
	return d
}

func summaryAllPassed() verification.Summary {
	score := 1.0
	return verification.Summary{
		verification.CheckNIN:         {Status: verification.CheckCompleted, Score: &score},
		verification.CheckLicense:     {Status: verification.CheckCompleted, Score: &score},
		verification.CheckDocumentOCR: {Status: verification.CheckCompleted, Score: &score},
	}
}

func TestDecideVerifiedWhenMandatoryPassAndScoreClearsThreshold(t *testing.T) {
	assert.Equal(t, driver.StatusVerified, Decide(85, 70, summaryAllPassed()))
}

func TestDecideRejectedBelowThreshold(t *testing.T) {
	assert.Equal(t, driver.StatusRejected, Decide(42, 70, summaryAllPassed()))
}

func TestDecideRejectedOnMandatoryFailure(t *testing.T) {
	summary := summaryAllPassed()
	summary[verification.CheckLicense] = verification.CheckSnapshot{Status: verification.CheckFailed}

	// A definitive mandatory failure rejects even with a high score.
	assert.Equal(t, driver.StatusRejected, Decide(95, 70, summary))
}

func TestDecideUnavailableCheckNeverRejects(t *testing.T) {
	summary := summaryAllPassed()
	summary[verification.CheckNIN] = verification.CheckSnapshot{Status: verification.CheckPending}

	assert.Equal(t, driver.StatusInProgress, Decide(95, 70, summary))
	assert.Equal(t, driver.StatusInProgress, Decide(10, 70, summary))
}

func TestDecideMissingMandatoryCheckStaysInProgress(t *testing.T) {
	summary := verification.Summary{
		verification.CheckNIN: {Status: verification.CheckCompleted},
	}
	assert.Equal(t, driver.StatusInProgress, Decide(90, 70, summary))
}

func TestEvaluatePersistsTransition(t *testing.T) {
	store := driver.NewMemoryStore()
	seedDriver(t, store, driver.StatusInProgress)
	svc := NewService(store, 70, nil)

	startedAt := time.Now().Add(-time.Minute)
	now := time.Now()
	got, err := svc.Evaluate(context.Background(), "drv-1", 85, summaryAllPassed(), startedAt, now)
	require.NoError(t, err)
	assert.Equal(t, driver.StatusVerified, got)

	d, err := store.FindByID(context.Background(), "drv-1")
	require.NoError(t, err)
	assert.Equal(t, driver.StatusVerified, d.Status)
	assert.Equal(t, 85, d.OverallScore)
	require.NotNil(t, d.VerificationCompletedAt)
	assert.WithinDuration(t, now, *d.VerificationCompletedAt, time.Second)
}

func TestEvaluateRejectsIllegalEdge(t *testing.T) {
	store := driver.NewMemoryStore()
	seedDriver(t, store, driver.StatusUnverified)
	svc := NewService(store, 70, nil)

	// unverified -> verified without passing through in_progress is illegal.
	_, err := svc.Evaluate(context.Background(), "drv-1", 85, summaryAllPassed(), time.Now(), time.Now())
	assert.ErrorIs(t, err, sentinel.ErrInvalidState)
}

func TestBeginFromEveryRestartableStatus(t *testing.T) {
	for _, from := range []driver.Status{
		driver.StatusUnverified,
		driver.StatusRejected,
		driver.StatusVerified,
		driver.StatusRequiresReverification,
	} {
		store := driver.NewMemoryStore()
		seedDriver(t, store, from)
		svc := NewService(store, 70, nil)

		require.NoError(t, svc.Begin(context.Background(), "drv-1", time.Now()), "from %s", from)
		d, err := store.FindByID(context.Background(), "drv-1")
		require.NoError(t, err)
		assert.Equal(t, driver.StatusInProgress, d.Status)
	}
}

func TestMarkRequiresReverification(t *testing.T) {
	store := driver.NewMemoryStore()
	seedDriver(t, store, driver.StatusVerified)
	svc := NewService(store, 70, nil)

	require.NoError(t, svc.MarkRequiresReverification(context.Background(), "drv-1"))
	d, err := store.FindByID(context.Background(), "drv-1")
	require.NoError(t, err)
	assert.Equal(t, driver.StatusRequiresReverification, d.Status)

	// Idempotent on repeat sweeps.
	require.NoError(t, svc.MarkRequiresReverification(context.Background(), "drv-1"))
}

func TestMarkRequiresReverificationRejectsUnverifiedDriver(t *testing.T) {
	store := driver.NewMemoryStore()
	seedDriver(t, store, driver.StatusUnverified)
	svc := NewService(store, 70, nil)

	err := svc.MarkRequiresReverification(context.Background(), "drv-1")
	assert.ErrorIs(t, err, sentinel.ErrInvalidState)
}

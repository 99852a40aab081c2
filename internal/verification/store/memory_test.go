package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driveli/internal/verification"
	"driveli/pkg/platform/sentinel"
)

func record(driverID string, t verification.CheckType, status verification.CheckStatus, expiresAt *time.Time) *verification.Verification {
	now := time.Now()
	return &verification.Verification{
		ID:        uuid.New(),
		DriverID:  driverID,
		Type:      t,
		Status:    status,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestVerificationStoreSaveAndFind(t *testing.T) {
	s := NewMemoryVerificationStore()
	ctx := context.Background()

	v := record("drv-1", verification.CheckNIN, verification.CheckCompleted, nil)
	require.NoError(t, s.Save(ctx, v))

	got, err := s.FindByDriverAndType(ctx, "drv-1", verification.CheckNIN)
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.ID)

	_, err = s.FindByDriverAndType(ctx, "drv-1", verification.CheckFacial)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestVerificationStoreListExpired(t *testing.T) {
	s := NewMemoryVerificationStore()
	ctx := context.Background()
	now := time.Now()

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	expired := record("drv-1", verification.CheckLicense, verification.CheckCompleted, &past)
	require.NoError(t, s.Save(ctx, expired))
	require.NoError(t, s.Save(ctx, record("drv-2", verification.CheckLicense, verification.CheckCompleted, &future)))
	require.NoError(t, s.Save(ctx, record("drv-3", verification.CheckLicense, verification.CheckFailed, &past)))
	require.NoError(t, s.Save(ctx, record("drv-4", verification.CheckFacial, verification.CheckCompleted, nil)))

	got, err := s.ListExpired(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, expired.ID, got[0].ID)
}

func TestVerificationStoreMarkReverificationRemovesFromExpiredSet(t *testing.T) {
	s := NewMemoryVerificationStore()
	ctx := context.Background()
	now := time.Now()
	past := now.Add(-time.Hour)

	v := record("drv-1", verification.CheckLicense, verification.CheckCompleted, &past)
	require.NoError(t, s.Save(ctx, v))
	require.NoError(t, s.MarkReverification(ctx, v.ID, now))

	got, err := s.ListExpired(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	stored, err := s.FindByDriverAndType(ctx, "drv-1", verification.CheckLicense)
	require.NoError(t, err)
	assert.True(t, stored.RequiresReverification)
	require.NotNil(t, stored.LastReverificationCheck)
}

func TestWorkflowStoreRoundTrip(t *testing.T) {
	s := NewMemoryWorkflowStore()
	ctx := context.Background()

	score := 0.9
	w := &verification.Workflow{
		ID:                   uuid.New(),
		DriverID:             "drv-1",
		Status:               verification.WorkflowCompleted,
		CompletionPercentage: 100,
		OverallScore:         84,
		StartedAt:            time.Now(),
		Stages: []verification.StageResult{
			{Name: "nin", Status: verification.CheckCompleted, Score: &score},
		},
	}
	require.NoError(t, s.Save(ctx, w))

	got, err := s.FindByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, w.OverallScore, got.OverallScore)
	require.Len(t, got.Stages, 1)
	assert.Equal(t, "nin", got.Stages[0].Name)

	// Mutating the returned copy must not leak into the store.
	got.Stages[0].Name = "mutated"
	again, err := s.FindByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "nin", again.Stages[0].Name)
}

func TestOCRAndRefereeStores(t *testing.T) {
	ocr := NewMemoryOCRResultStore()
	refs := NewMemoryRefereeStore()
	ctx := context.Background()
	wfID := uuid.New()

	require.NoError(t, ocr.Save(ctx, &verification.DocumentOCRResult{
		ID: uuid.New(), DriverID: "drv-1", WorkflowID: wfID,
		DocumentType: "national_id", Fields: map[string]string{"nin": "NIN123"},
		CreatedAt: time.Now(),
	}))
	require.NoError(t, refs.Save(ctx, &verification.RefereeVerification{
		ID: uuid.New(), DriverID: "drv-1", WorkflowID: wfID,
		Name: "Bola", Phone: "+2348011111111", Verified: true,
		CreatedAt: time.Now(),
	}))

	ocrGot, err := ocr.ListByWorkflow(ctx, wfID)
	require.NoError(t, err)
	require.Len(t, ocrGot, 1)
	assert.Equal(t, "NIN123", ocrGot[0].Fields["nin"])

	refGot, err := refs.ListByDriver(ctx, "drv-1")
	require.NoError(t, err)
	require.Len(t, refGot, 1)
	assert.True(t, refGot[0].Verified)
}

//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"driveli/internal/driver"
	"driveli/internal/platform/postgres"
	"driveli/internal/verification"
	"driveli/internal/verification/store"
	"driveli/pkg/platform/sentinel"
	"driveli/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres  *containers.PostgresContainer
	drivers   *driver.PostgresStore
	checks    *store.PostgresVerificationStore
	workflows *store.PostgresWorkflowStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T(), postgres.Schema)
	s.drivers = driver.NewPostgres(s.postgres.DB)
	s.checks = store.NewPostgresVerificationStore(s.postgres.DB)
	s.workflows = store.NewPostgresWorkflowStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	// Truncate in dependency order
	err := s.postgres.TruncateTables(ctx,
		"verification_workflows", "verifications", "document_ocr_results",
		"referee_verifications", "api_verification_logs", "drivers")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) seedDriver(id string) {
	err := s.drivers.Save(context.Background(), &driver.Driver{
		ID:       id,
		FullName: "Adaeze Okafor",
		Active:   true,
		Status:   driver.StatusUnverified,
	})
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestSaveIsUpsertPerDriverAndType() {
	ctx := context.Background()
	s.seedDriver("drv-1")
	now := time.Now().UTC().Truncate(time.Millisecond)

	first := &verification.Verification{
		ID:        uuid.New(),
		DriverID:  "drv-1",
		Type:      verification.CheckNIN,
		Status:    verification.CheckPending,
		Attempts:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Require().NoError(s.checks.Save(ctx, first))

	score := 1.0
	second := *first
	second.Status = verification.CheckCompleted
	second.Score = &score
	second.Attempts = 2
	second.UpdatedAt = now.Add(time.Minute)
	s.Require().NoError(s.checks.Save(ctx, &second))

	got, err := s.checks.FindByDriverAndType(ctx, "drv-1", verification.CheckNIN)
	s.Require().NoError(err)
	s.Equal(verification.CheckCompleted, got.Status)
	s.Equal(2, got.Attempts)
	s.Require().NotNil(got.Score)

	all, err := s.checks.ListByDriver(ctx, "drv-1")
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *PostgresStoreSuite) TestListExpiredAndMark() {
	ctx := context.Background()
	s.seedDriver("drv-1")
	now := time.Now().UTC()
	past := now.Add(-time.Hour)

	v := &verification.Verification{
		ID:        uuid.New(),
		DriverID:  "drv-1",
		Type:      verification.CheckLicense,
		Status:    verification.CheckCompleted,
		ExpiresAt: &past,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Require().NoError(s.checks.Save(ctx, v))

	expired, err := s.checks.ListExpired(ctx, now, 10)
	s.Require().NoError(err)
	s.Require().Len(expired, 1)

	s.Require().NoError(s.checks.MarkReverification(ctx, expired[0].ID, now))

	expired, err = s.checks.ListExpired(ctx, now, 10)
	s.Require().NoError(err)
	s.Empty(expired)
}

func (s *PostgresStoreSuite) TestWorkflowRoundTrip() {
	ctx := context.Background()
	s.seedDriver("drv-1")

	score := 0.8
	w := &verification.Workflow{
		ID:                   uuid.New(),
		DriverID:             "drv-1",
		Status:               verification.WorkflowInProgress,
		CompletionPercentage: 60,
		OverallScore:         0,
		StartedAt:            time.Now().UTC().Truncate(time.Millisecond),
		Stages: []verification.StageResult{
			{Name: "document:national_id", Status: verification.CheckCompleted, Score: &score},
			{Name: "nin", Status: verification.CheckPending, Detail: "provider unavailable"},
		},
	}
	s.Require().NoError(s.workflows.Save(ctx, w))

	done := time.Now().UTC().Truncate(time.Millisecond)
	w.Status = verification.WorkflowCompleted
	w.CompletionPercentage = 100
	w.OverallScore = 82
	w.CompletedAt = &done
	s.Require().NoError(s.workflows.Save(ctx, w))

	got, err := s.workflows.FindByID(ctx, w.ID)
	s.Require().NoError(err)
	s.Equal(verification.WorkflowCompleted, got.Status)
	s.Equal(82, got.OverallScore)
	s.Require().Len(got.Stages, 2)
	s.Equal("document:national_id", got.Stages[0].Name)
	s.Equal("provider unavailable", got.Stages[1].Detail)
}

func (s *PostgresStoreSuite) TestCurrentWorkflowCompareAndSet() {
	ctx := context.Background()
	s.seedDriver("drv-1")

	first := uuid.New()
	second := uuid.New()
	s.Require().NoError(s.drivers.SetCurrentWorkflow(ctx, "drv-1", first))
	s.Require().ErrorIs(s.drivers.SetCurrentWorkflow(ctx, "drv-1", second), sentinel.ErrConflict)

	// Only the holder may clear.
	s.Require().ErrorIs(s.drivers.ClearCurrentWorkflow(ctx, "drv-1", second), sentinel.ErrInvalidState)
	s.Require().NoError(s.drivers.ClearCurrentWorkflow(ctx, "drv-1", first))
	s.Require().NoError(s.drivers.SetCurrentWorkflow(ctx, "drv-1", second))
}

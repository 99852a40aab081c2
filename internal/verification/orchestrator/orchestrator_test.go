package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"driveli/internal/driver"
	"driveli/internal/verification"
	"driveli/internal/verification/events"
	"driveli/internal/verification/lock"
	"driveli/internal/verification/ocr"
	"driveli/internal/verification/providers"
	"driveli/internal/verification/providers/mocks"
	"driveli/internal/verification/scoring"
	"driveli/internal/verification/status"
	"driveli/internal/verification/store"
	"driveli/pkg/platform/sentinel"
)

type harness struct {
	drivers   *driver.MemoryStore
	checks    *store.MemoryVerificationStore
	workflows *store.MemoryWorkflowStore
	locks     *lock.MemoryLock
	publisher *events.ChannelPublisher
	deps      Deps
	cfg       Config
	docRoot   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	docRoot := t.TempDir()
	h := &harness{
		drivers:   driver.NewMemoryStore(),
		checks:    store.NewMemoryVerificationStore(),
		workflows: store.NewMemoryWorkflowStore(),
		locks:     lock.NewMemoryLock(time.Minute),
		publisher: events.NewChannelPublisher(8),
		docRoot:   docRoot,
	}
	h.deps = Deps{
		Drivers:    h.drivers,
		Checks:     h.checks,
		Workflows:  h.workflows,
		OCRResults: store.NewMemoryOCRResultStore(),
		Referees:   store.NewMemoryRefereeStore(),
		Locks:      h.locks,
		Status:     status.NewService(h.drivers, 70, nil),
		Extractor:  ocr.NewExtractor(ocr.Config{Order: []string{"local"}}, nil, ocr.NewLocalEngine(docRoot)),
		Publisher:  h.publisher,
		NIN:        providers.MockNINVerifier{},
		License:    providers.MockLicenseVerifier{},
		Facial:     providers.MockFacialVerifier{},
		Referee:    providers.MockRefereeVerifier{},
	}
	h.cfg = Config{
		RunTimeout:       time.Minute,
		VerifierTimeout:  5 * time.Second,
		ConcurrencyLimit: 4,
		MaxCheckAttempts: 5,
		CheckTTL:         365 * 24 * time.Hour,
		Weights:          scoring.DefaultWeights(),
	}
	return h
}

func (h *harness) orchestrator() *Orchestrator {
	return New(h.deps, h.cfg)
}

func (h *harness) seedDriver(t *testing.T, nin string) *driver.Driver {
	t.Helper()
	d := &driver.Driver{
		ID:               "drv-1001",
		FullName:         "Adaeze Okafor",
		Phone:            "+2348011111111",
		Address:          "12 Marina Rd, Lagos",
		DateOfBirth:      "1991-04-12",
		ClaimedNIN:       nin,
		ClaimedLicenseNo: "LAG-DL-55521",
		PhotoRef:         "photos/adaeze.jpg",
		Active:           true,
		Status:           driver.StatusUnverified,
	}
	require.NoError(t, h.drivers.Save(context.Background(), d))
	return d
}

func (h *harness) writeFixture(t *testing.T, name, content string) {
	t.Helper()
	path := filepath.Join(h.docRoot, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func fullRequest() RunRequest {
	return RunRequest{
		DriverID: "drv-1001",
		Documents: []DocumentInput{
			{Type: "national_id", Number: "NIN12345678", FileRef: "docs/nin.txt"},
			{Type: "license", Number: "LAG-DL-55521", ExpiryDate: "2030-06-01", FileRef: "docs/license.txt"},
			{Type: "utility", Number: "UTIL-9923", FileRef: "docs/utility.txt"},
		},
		Referees: []RefereeInput{
			{Name: "Bola Adeyemi", Phone: "+2348022222222", Relationship: "former employer"},
			{Name: "Chidi Nwosu", Phone: "+2348033333333", Relationship: "sibling"},
		},
		Background: BackgroundInput{CriminalCheckPassed: true, EmploymentVerified: true},
	}
}

func (h *harness) writeAllFixtures(t *testing.T) {
	h.writeFixture(t, "docs/nin.txt",
		"NIN: NIN12345678\nFirst Name: Adaeze\nSurname: Okafor\nDate of Birth: 1991-04-12\nPhone: +2348011111111\n")
	h.writeFixture(t, "docs/license.txt",
		"License No: LAG-DL-55521\nExpiry: 2030-06-01\n")
	h.writeFixture(t, "docs/utility.txt",
		"Account No: UTIL-9923\nAmount Due: 15,000\n")
}

func TestRunHappyPathVerifiesDriver(t *testing.T) {
	h := newHarness(t)
	h.seedDriver(t, "NIN12345678")
	h.writeAllFixtures(t)

	result, err := h.orchestrator().Run(context.Background(), fullRequest())
	require.NoError(t, err)

	assert.Equal(t, verification.WorkflowCompleted, result.Status)
	assert.Equal(t, driver.StatusVerified, result.DriverStatus)
	assert.Equal(t, 100, result.CompletionPercentage)
	assert.GreaterOrEqual(t, result.OverallScore, 90)
	assert.Len(t, result.Stages, 8)

	d, err := h.drivers.FindByID(context.Background(), "drv-1001")
	require.NoError(t, err)
	assert.Equal(t, driver.StatusVerified, d.Status)
	assert.Equal(t, result.OverallScore, d.OverallScore)
	assert.Nil(t, d.CurrentWorkflowID, "guard must be released after the run")
	require.NotNil(t, d.VerificationCompletedAt)

	for _, check := range verification.MandatoryChecks {
		snap, ok := d.Summary[check]
		require.True(t, ok, "summary missing %s", check)
		assert.True(t, snap.Status.Succeeded())
	}

	event := <-h.publisher.Events()
	assert.Equal(t, events.TypeWorkflowCompleted, event.Type)
	assert.Equal(t, "drv-1001", event.DriverID)
	assert.Equal(t, string(driver.StatusVerified), event.Status)
}

func TestRunProviderOutageLeavesDriverInProgress(t *testing.T) {
	h := newHarness(t)
	h.seedDriver(t, "NIN-DOWN") // mock registry treats the DOWN suffix as an outage
	h.writeAllFixtures(t)

	result, err := h.orchestrator().Run(context.Background(), fullRequest())
	require.NoError(t, err)

	assert.Equal(t, verification.WorkflowFailed, result.Status)
	assert.Equal(t, driver.StatusInProgress, result.DriverStatus)
	assert.Less(t, result.CompletionPercentage, 100)

	check, err := h.checks.FindByDriverAndType(context.Background(), "drv-1001", verification.CheckNIN)
	require.NoError(t, err)
	assert.Equal(t, verification.CheckPending, check.Status)
	assert.Equal(t, 1, check.Attempts)

	// An unavailable mandatory check must never reject, whatever the score.
	d, err := h.drivers.FindByID(context.Background(), "drv-1001")
	require.NoError(t, err)
	assert.NotEqual(t, driver.StatusRejected, d.Status)

	event := <-h.publisher.Events()
	assert.Equal(t, events.TypeWorkflowFailed, event.Type)
}

func TestRunInvalidDocumentRejectsDriver(t *testing.T) {
	h := newHarness(t)
	h.seedDriver(t, "NIN12345678")
	h.writeAllFixtures(t)

	req := fullRequest()
	req.Documents[0].Type = "selfie" // not an accepted document type

	result, err := h.orchestrator().Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, driver.StatusRejected, result.DriverStatus)
	assert.Less(t, result.CompletionPercentage, 100)

	var docStage *verification.StageResult
	for i := range result.Stages {
		if result.Stages[i].Name == "document:selfie" {
			docStage = &result.Stages[i]
		}
	}
	require.NotNil(t, docStage)
	assert.Equal(t, verification.CheckFailed, docStage.Status)
	assert.Contains(t, docStage.Detail, "Invalid document type")
}

func TestRunConcurrentRunsAreMutuallyExclusive(t *testing.T) {
	h := newHarness(t)
	h.seedDriver(t, "NIN12345678")
	h.writeAllFixtures(t)

	acquired, err := h.locks.Acquire(context.Background(), "drv-1001", "another-run")
	require.NoError(t, err)
	require.True(t, acquired)

	_, err = h.orchestrator().Run(context.Background(), fullRequest())
	assert.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestRunRejectsDeactivatedDriver(t *testing.T) {
	h := newHarness(t)
	d := h.seedDriver(t, "NIN12345678")
	d.Active = false
	require.NoError(t, h.drivers.Save(context.Background(), d))

	_, err := h.orchestrator().Run(context.Background(), fullRequest())
	assert.ErrorIs(t, err, sentinel.ErrInvalidState)
}

// deactivatingVerifier flips the driver inactive when called, simulating a
// deactivation arriving while checks are in flight.
type deactivatingVerifier struct {
	inner   providers.Verifier
	drivers *driver.MemoryStore
}

func (v deactivatingVerifier) Name() string { return v.inner.Name() }

func (v deactivatingVerifier) Verify(ctx context.Context, d *driver.Driver, claim providers.Claim) (providers.Result, error) {
	stored, err := v.drivers.FindByID(ctx, d.ID)
	if err == nil {
		stored.Active = false
		_ = v.drivers.Save(ctx, stored)
	}
	return v.inner.Verify(ctx, d, claim)
}

func TestRunDeactivatedMidRunDiscardsOutcome(t *testing.T) {
	h := newHarness(t)
	h.seedDriver(t, "NIN12345678")
	h.writeAllFixtures(t)
	h.deps.Facial = deactivatingVerifier{inner: providers.MockFacialVerifier{}, drivers: h.drivers}

	result, err := h.orchestrator().Run(context.Background(), fullRequest())
	require.NoError(t, err)
	assert.Equal(t, verification.WorkflowFailed, result.Status)
	assert.Zero(t, result.OverallScore)

	d, err := h.drivers.FindByID(context.Background(), "drv-1001")
	require.NoError(t, err)
	assert.Equal(t, driver.StatusInProgress, d.Status, "final transition must be discarded")
	assert.Zero(t, d.OverallScore)
	assert.Nil(t, d.VerificationCompletedAt)

	// The per-check audit trail is kept.
	checks, err := h.checks.ListByDriver(context.Background(), "drv-1001")
	require.NoError(t, err)
	assert.NotEmpty(t, checks)
}

func TestRunAttemptsExhaustionFailsCheckDefinitively(t *testing.T) {
	h := newHarness(t)
	h.seedDriver(t, "NIN-DOWN")
	h.writeAllFixtures(t)
	h.cfg.MaxCheckAttempts = 2
	o := h.orchestrator()

	_, err := o.Run(context.Background(), fullRequest())
	require.NoError(t, err)

	check, err := h.checks.FindByDriverAndType(context.Background(), "drv-1001", verification.CheckNIN)
	require.NoError(t, err)
	assert.Equal(t, verification.CheckPending, check.Status)

	result, err := o.Run(context.Background(), fullRequest())
	require.NoError(t, err)

	check, err = h.checks.FindByDriverAndType(context.Background(), "drv-1001", verification.CheckNIN)
	require.NoError(t, err)
	assert.Equal(t, verification.CheckFailed, check.Status)
	assert.Equal(t, 2, check.Attempts)
	assert.Equal(t, driver.StatusRejected, result.DriverStatus)
}

func TestResumeSkipsTerminalStages(t *testing.T) {
	h := newHarness(t)
	h.seedDriver(t, "NIN12345678")
	h.writeAllFixtures(t)

	ctrl := gomock.NewController(t)
	nin := mocks.NewMockVerifier(ctrl)
	nin.EXPECT().Name().Return("nin-registry-mock").AnyTimes()
	outage := providers.Result{Status: providers.OutcomeUnavailable, CheckedAt: time.Now()}
	matched := providers.Result{Status: providers.OutcomeMatched, Confidence: 1.0, CheckedAt: time.Now()}
	gomock.InOrder(
		nin.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).Return(outage, nil),
		nin.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).Return(matched, nil),
	)
	h.deps.NIN = nin
	o := h.orchestrator()

	first, err := o.Run(context.Background(), fullRequest())
	require.NoError(t, err)
	require.Equal(t, verification.WorkflowFailed, first.Status)

	second, err := o.Resume(context.Background(), first.WorkflowID)
	require.NoError(t, err)
	assert.Equal(t, first.WorkflowID, second.WorkflowID)
	assert.Equal(t, verification.WorkflowCompleted, second.Status)
	assert.Equal(t, driver.StatusVerified, second.DriverStatus)

	reused := 0
	for _, stage := range second.Stages {
		if stage.Detail == "reused prior result" {
			reused++
		}
	}
	assert.GreaterOrEqual(t, reused, 2, "license and facial results must be reused")
}

func TestResumeCompletedWorkflowIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.seedDriver(t, "NIN12345678")
	h.writeAllFixtures(t)
	o := h.orchestrator()

	first, err := o.Run(context.Background(), fullRequest())
	require.NoError(t, err)
	require.Equal(t, verification.WorkflowCompleted, first.Status)

	again, err := o.Resume(context.Background(), first.WorkflowID)
	require.NoError(t, err)
	assert.Equal(t, first.WorkflowID, again.WorkflowID)
	assert.Equal(t, first.OverallScore, again.OverallScore)
}

func TestResumeUnknownWorkflow(t *testing.T) {
	h := newHarness(t)
	_, err := h.orchestrator().Resume(context.Background(), uuid.New())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestQueueRunsReverification(t *testing.T) {
	h := newHarness(t)
	d := h.seedDriver(t, "NIN12345678")
	h.writeAllFixtures(t)
	o := h.orchestrator()

	// First run verifies the driver.
	_, err := o.Run(context.Background(), fullRequest())
	require.NoError(t, err)

	// Flag the license check as expired and reverification-due.
	check, err := h.checks.FindByDriverAndType(context.Background(), d.ID, verification.CheckLicense)
	require.NoError(t, err)
	require.NoError(t, h.checks.MarkReverification(context.Background(), check.ID, time.Now()))

	q := NewQueue(o, 4, nil)
	require.True(t, q.Enqueue(d.ID))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = q.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		refreshed, err := h.checks.FindByDriverAndType(context.Background(), d.ID, verification.CheckLicense)
		return err == nil && !refreshed.RequiresReverification
	}, 2*time.Second, 20*time.Millisecond, "flagged check must be re-run and cleared")

	cancel()
	<-done
}

func TestRunUnreadableDocumentFailsWorkflow(t *testing.T) {
	h := newHarness(t)
	h.seedDriver(t, "NIN12345678")
	h.writeAllFixtures(t)

	req := fullRequest()
	req.Documents = []DocumentInput{
		{Type: "license", Number: "LAG-DL-55521", ExpiryDate: "2030-06-01", FileRef: "docs/license.txt"},
		{Type: "national_id", Number: "NIN12345678", FileRef: "docs/missing-id.jpg"},
	}
	o := h.orchestrator()

	result, err := o.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, verification.WorkflowFailed, result.Status,
		"a failed mandatory document check must fail the workflow")
	assert.Less(t, result.CompletionPercentage, 100)

	byName := make(map[string]verification.StageResult)
	for _, stage := range result.Stages {
		byName[stage.Name] = stage
	}
	assert.Equal(t, verification.CheckCompleted, byName["document:license"].Status)
	assert.Equal(t, verification.CheckFailed, byName["document:national_id"].Status)
	assert.Equal(t, verification.CheckFailed, byName[string(verification.CheckDocumentOCR)].Status)

	// The license registry check survived the failed run untouched.
	check, err := h.checks.FindByDriverAndType(context.Background(), "drv-1001", verification.CheckLicense)
	require.NoError(t, err)
	assert.Equal(t, verification.CheckCompleted, check.Status)

	// Retrying with a readable document reuses it rather than recomputing.
	req.Documents[1].FileRef = "docs/nin.txt"
	retry, err := o.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, verification.WorkflowCompleted, retry.Status)
	assert.Equal(t, driver.StatusVerified, retry.DriverStatus)

	var licenseStage *verification.StageResult
	for i := range retry.Stages {
		if retry.Stages[i].Name == string(verification.CheckLicense) {
			licenseStage = &retry.Stages[i]
		}
	}
	require.NotNil(t, licenseStage)
	assert.Equal(t, "reused prior result", licenseStage.Detail)
}

func TestRunDeniedRefereesFailCheckWithoutScore(t *testing.T) {
	h := newHarness(t)
	h.seedDriver(t, "NIN12345678")
	h.writeAllFixtures(t)

	req := fullRequest()
	req.Referees = []RefereeInput{ // the mock treats the 99 suffix as a denial
		{Name: "Bola Adeyemi", Phone: "+2348022222299", Relationship: "former employer"},
		{Name: "Chidi Nwosu", Phone: "+2348033333399", Relationship: "sibling"},
	}

	result, err := h.orchestrator().Run(context.Background(), req)
	require.NoError(t, err)

	check, err := h.checks.FindByDriverAndType(context.Background(), "drv-1001", verification.CheckReferee)
	require.NoError(t, err)
	assert.Equal(t, verification.CheckFailed, check.Status)
	assert.Nil(t, check.Score, "a failed check carries no score")

	// The referee check is not mandatory; the workflow still completes.
	assert.Equal(t, verification.WorkflowCompleted, result.Status)
}

// failingCheckStore refuses every write, simulating a database outage
// mid-stage.
type failingCheckStore struct {
	store.VerificationStore
	err error
}

func (s failingCheckStore) Save(context.Context, *verification.Verification) error {
	return s.err
}

func TestRunStoreFailureFailsRunWithoutScore(t *testing.T) {
	h := newHarness(t)
	h.seedDriver(t, "NIN12345678")
	h.writeAllFixtures(t)
	h.deps.Checks = failingCheckStore{VerificationStore: h.checks, err: errors.New("write refused")}

	_, err := h.orchestrator().Run(context.Background(), fullRequest())
	require.Error(t, err)

	d, findErr := h.drivers.FindByID(context.Background(), "drv-1001")
	require.NoError(t, findErr)
	assert.Equal(t, driver.StatusInProgress, d.Status, "no final transition on a persistence failure")
	assert.Zero(t, d.OverallScore)
	assert.Nil(t, d.VerificationCompletedAt)
	assert.Nil(t, d.CurrentWorkflowID)

	workflows, listErr := h.workflows.ListByDriver(context.Background(), "drv-1001")
	require.NoError(t, listErr)
	require.Len(t, workflows, 1)
	assert.Equal(t, verification.WorkflowFailed, workflows[0].Status)

	select {
	case event := <-h.publisher.Events():
		t.Fatalf("no event expected for an aborted run, got %s", event.Type)
	default:
	}
}

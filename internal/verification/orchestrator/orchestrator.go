// Package orchestrator runs the end-to-end driver verification workflow:
// document validation and OCR, the external verifier fan-out, composite
// scoring and the final driver status transition.
package orchestrator

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"driveli/internal/driver"
	"driveli/internal/verification"
	"driveli/internal/verification/events"
	"driveli/internal/verification/lock"
	"driveli/internal/verification/metrics"
	"driveli/internal/verification/ocr"
	"driveli/internal/verification/providers"
	"driveli/internal/verification/scoring"
	"driveli/internal/verification/status"
	"driveli/internal/verification/store"
	"driveli/pkg/platform/sentinel"
	"driveli/pkg/platform/tx"
)

// DocumentInput is one submitted document.
type DocumentInput struct {
	Type       string `json:"type"`
	Number     string `json:"number"`
	ExpiryDate string `json:"expiry_date,omitempty"`
	FileRef    string `json:"file_ref"`
}

// RefereeInput is one submitted referee contact.
type RefereeInput struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship,omitempty"`
}

// BackgroundInput carries outcomes attested by the onboarding system's own
// background-check vendor; the workflow folds them into scoring as-is.
type BackgroundInput struct {
	CriminalCheckPassed bool `json:"criminal_check_passed"`
	EmploymentVerified  bool `json:"employment_verified"`
}

// RunRequest starts one workflow for a driver.
type RunRequest struct {
	DriverID   string          `json:"driver_id"`
	Documents  []DocumentInput `json:"documents"`
	Referees   []RefereeInput  `json:"referees"`
	Background BackgroundInput `json:"background"`
}

// RunResult is the caller-facing outcome of one run.
type RunResult struct {
	WorkflowID           uuid.UUID                   `json:"workflow_id"`
	Status               verification.WorkflowStatus `json:"status"`
	DriverStatus         driver.Status               `json:"driver_status"`
	OverallScore         int                         `json:"overall_score"`
	CompletionPercentage int                         `json:"completion_percentage"`
	Stages               []verification.StageResult  `json:"stages"`
}

// Config tunes one orchestrator instance.
type Config struct {
	RunTimeout       time.Duration
	VerifierTimeout  time.Duration
	ConcurrencyLimit int
	MaxCheckAttempts int
	CheckTTL         time.Duration
	Weights          scoring.Weights
}

// Orchestrator coordinates the workflow. All dependencies are interfaces or
// small services so every path is testable without real providers.
type Orchestrator struct {
	drivers    driver.Store
	checks     store.VerificationStore
	workflows  store.WorkflowStore
	ocrResults store.OCRResultStore
	referees   store.RefereeStore
	locks      lock.Lock
	status     *status.Service
	extractor  *ocr.Extractor
	publisher  events.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer

	nin     providers.Verifier
	license providers.Verifier
	facial  providers.Verifier
	referee providers.RefereeVerifier

	// db enables committing the final driver transition and workflow row in
	// one transaction; nil with in-memory stores.
	db *sql.DB

	cfg Config
	now func() time.Time
}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Drivers    driver.Store
	Checks     store.VerificationStore
	Workflows  store.WorkflowStore
	OCRResults store.OCRResultStore
	Referees   store.RefereeStore
	Locks      lock.Lock
	Status     *status.Service
	Extractor  *ocr.Extractor
	Publisher  events.Publisher
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	DB         *sql.DB

	NIN     providers.Verifier
	License providers.Verifier
	Facial  providers.Verifier
	Referee providers.RefereeVerifier
}

func New(deps Deps, cfg Config) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if cfg.ConcurrencyLimit <= 0 {
		cfg.ConcurrencyLimit = 4
	}
	if cfg.MaxCheckAttempts <= 0 {
		cfg.MaxCheckAttempts = 5
	}
	return &Orchestrator{
		drivers:    deps.Drivers,
		checks:     deps.Checks,
		workflows:  deps.Workflows,
		ocrResults: deps.OCRResults,
		referees:   deps.Referees,
		locks:      deps.Locks,
		status:     deps.Status,
		extractor:  deps.Extractor,
		publisher:  deps.Publisher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		tracer:     otel.Tracer("driveli/internal/verification/orchestrator"),
		nin:        deps.NIN,
		license:    deps.License,
		facial:     deps.Facial,
		referee:    deps.Referee,
		db:         deps.DB,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Run executes one full workflow for a driver. At most one run per driver
// may be in flight; a concurrent attempt fails fast with
// sentinel.ErrConflict.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	return o.run(ctx, uuid.New(), req, o.now(), false)
}

// Resume re-enters a previously failed run under the same workflow ID.
// Stages with persisted terminal results are skipped; inputs are rebuilt
// from what the original run persisted.
func (o *Orchestrator) Resume(ctx context.Context, workflowID uuid.UUID) (*RunResult, error) {
	wf, err := o.workflows.FindByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("find workflow: %w", err)
	}
	if wf.Status == verification.WorkflowCompleted {
		d, err := o.drivers.FindByID(ctx, wf.DriverID)
		if err != nil {
			return nil, fmt.Errorf("find driver: %w", err)
		}
		return &RunResult{
			WorkflowID:           wf.ID,
			Status:               wf.Status,
			DriverStatus:         d.Status,
			OverallScore:         wf.OverallScore,
			CompletionPercentage: wf.CompletionPercentage,
			Stages:               wf.Stages,
		}, nil
	}

	req := RunRequest{DriverID: wf.DriverID}
	docs, err := o.ocrResults.ListByWorkflow(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("list ocr results: %w", err)
	}
	seen := make(map[string]bool)
	for _, doc := range docs {
		if seen[doc.FileRef] {
			continue
		}
		seen[doc.FileRef] = true
		req.Documents = append(req.Documents, DocumentInput{Type: doc.DocumentType, FileRef: doc.FileRef})
	}
	refs, err := o.referees.ListByDriver(ctx, wf.DriverID)
	if err != nil {
		return nil, fmt.Errorf("list referees: %w", err)
	}
	for _, r := range refs {
		if r.WorkflowID == workflowID {
			req.Referees = append(req.Referees, RefereeInput{Name: r.Name, Phone: r.Phone, Relationship: r.Relationship})
		}
	}

	// Documents were validated when first submitted; resume retries only
	// extraction and matching.
	return o.run(ctx, workflowID, req, wf.StartedAt, true)
}

func (o *Orchestrator) run(ctx context.Context, wfID uuid.UUID, req RunRequest, startedAt time.Time, skipValidation bool) (*RunResult, error) {
	ctx, span := o.tracer.Start(ctx, "verification.run",
		trace.WithAttributes(
			attribute.String("driver.id", req.DriverID),
			attribute.String("workflow.id", wfID.String()),
		))
	defer span.End()

	if o.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.RunTimeout)
		defer cancel()
	}
	runStart := o.now()

	d, err := o.drivers.FindByID(ctx, req.DriverID)
	if err != nil {
		return nil, fmt.Errorf("find driver: %w", err)
	}
	if !d.Active {
		return nil, fmt.Errorf("driver %s is deactivated: %w", req.DriverID, sentinel.ErrInvalidState)
	}

	acquired, err := o.locks.Acquire(ctx, req.DriverID, wfID.String())
	if err != nil {
		return nil, fmt.Errorf("acquire driver lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("verification already running for driver %s: %w", req.DriverID, sentinel.ErrConflict)
	}
	defer func() {
		if err := o.locks.Release(context.WithoutCancel(ctx), req.DriverID, wfID.String()); err != nil {
			o.logger.WarnContext(ctx, "release driver lock failed", "driver_id", req.DriverID, "error", err)
		}
	}()

	if err := o.drivers.SetCurrentWorkflow(ctx, req.DriverID, wfID); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, fmt.Errorf("verification already running for driver %s: %w", req.DriverID, sentinel.ErrConflict)
		}
		return nil, fmt.Errorf("claim driver: %w", err)
	}
	defer func() {
		if err := o.drivers.ClearCurrentWorkflow(context.WithoutCancel(ctx), req.DriverID, wfID); err != nil {
			o.logger.WarnContext(ctx, "clear current workflow failed", "driver_id", req.DriverID, "error", err)
		}
	}()

	if err := o.status.Begin(ctx, req.DriverID, startedAt); err != nil {
		return nil, fmt.Errorf("begin verification: %w", err)
	}

	wf := &verification.Workflow{
		ID:        wfID,
		DriverID:  req.DriverID,
		Status:    verification.WorkflowInProgress,
		StartedAt: startedAt,
	}
	if err := o.workflows.Save(ctx, wf); err != nil {
		return nil, fmt.Errorf("save workflow: %w", err)
	}

	existing, err := o.existingChecks(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}

	ev := evidence{driver: d, background: req.Background}
	var stages []verification.StageResult

	docStages, docResults, docCheck, err := o.runDocuments(ctx, d, wfID, req.Documents, existing[verification.CheckDocumentOCR], skipValidation)
	if err != nil {
		return nil, o.failRun(ctx, wf, docStages, err)
	}
	stages = append(stages, docStages...)
	ev.docs = docResults

	type verifierTask struct {
		check    verification.CheckType
		verifier providers.Verifier
		claim    providers.Claim
		result   **providers.Result
	}
	tasks := []verifierTask{
		{verification.CheckNIN, o.nin, providers.Claim{"nin": d.ClaimedNIN}, &ev.nin},
		{verification.CheckLicense, o.license, providers.Claim{"license_number": d.ClaimedLicenseNo}, &ev.license},
		{verification.CheckFacial, o.facial, providers.Claim{"photo_ref": d.PhotoRef}, &ev.facial},
	}

	var (
		mu       sync.Mutex
		stageErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.ConcurrencyLimit)
	for _, task := range tasks {
		if task.verifier == nil {
			continue
		}
		g.Go(func() error {
			stage, result, err := o.runCheck(gctx, d, task.check, task.verifier, task.claim, existing[task.check])
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if stageErr == nil {
					stageErr = err
				}
				return nil
			}
			stages = append(stages, stage)
			*task.result = result
			return nil
		})
	}
	if o.referee != nil && len(req.Referees) > 0 {
		g.Go(func() error {
			stage, results, err := o.runReferees(gctx, d, wfID, req.Referees, existing[verification.CheckReferee])
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if stageErr == nil {
					stageErr = err
				}
				return nil
			}
			stages = append(stages, stage)
			ev.referees = results
			return nil
		})
	}
	// Barrier: scoring and the final transition wait for every check.
	_ = g.Wait()
	if stageErr != nil {
		return nil, o.failRun(ctx, wf, stages, stageErr)
	}

	if docCheck != nil {
		stages = append(stages, *docCheck)
		if docCheck.Status.Succeeded() && len(ev.docs) == 0 {
			ev.docsReused = true
		}
	}

	summary := summarize(stages)
	signals := deriveSignals(ev)
	score := scoring.Calculate(signals, o.cfg.Weights)
	completion := completionPercentage(stages)
	now := o.now()

	// A driver deactivated mid-run gets no score or status written; the
	// per-check records above remain as the audit trail.
	current, err := o.drivers.FindByID(ctx, req.DriverID)
	if err != nil {
		return nil, fmt.Errorf("refetch driver: %w", err)
	}
	if !current.Active {
		wf.Status = verification.WorkflowFailed
		wf.CompletionPercentage = completion
		wf.CompletedAt = &now
		wf.Stages = stages
		if err := o.workflows.Save(ctx, wf); err != nil {
			return nil, fmt.Errorf("save workflow: %w", err)
		}
		o.metrics.IncrementWorkflowOutcome(string(verification.WorkflowFailed))
		o.logger.WarnContext(ctx, "driver deactivated mid-run, discarding outcome",
			"driver_id", req.DriverID,
			"workflow_id", wfID,
		)
		return o.result(wf, current.Status), nil
	}

	wf.Status = workflowStatus(summary)
	wf.CompletionPercentage = completion
	wf.OverallScore = score
	wf.CompletedAt = &now
	wf.Stages = stages

	var driverStatus driver.Status
	err = tx.Run(ctx, o.db, func(ctx context.Context) error {
		var evalErr error
		driverStatus, evalErr = o.status.Evaluate(ctx, req.DriverID, score, summary, startedAt, now)
		if evalErr != nil {
			return evalErr
		}
		return o.workflows.Save(ctx, wf)
	})
	if err != nil {
		return nil, fmt.Errorf("finalize workflow: %w", err)
	}

	o.observeStages(stages)
	o.metrics.IncrementWorkflowOutcome(string(wf.Status))
	o.metrics.ObserveWorkflowDuration(o.now().Sub(runStart))
	o.publish(ctx, wf, driverStatus)

	o.logger.InfoContext(ctx, "verification workflow finished",
		"driver_id", req.DriverID,
		"workflow_id", wfID,
		"workflow_status", wf.Status,
		"driver_status", driverStatus,
		"score", score,
		"completion", completion,
	)
	return o.result(wf, driverStatus), nil
}

// failRun records a run killed by a persistence failure. The workflow is
// marked failed and no score or driver transition is written; whatever stage
// records landed before the failure stand as the audit trail.
func (o *Orchestrator) failRun(ctx context.Context, wf *verification.Workflow, stages []verification.StageResult, cause error) error {
	now := o.now()
	wf.Status = verification.WorkflowFailed
	wf.CompletionPercentage = completionPercentage(stages)
	wf.CompletedAt = &now
	wf.Stages = stages
	if err := o.workflows.Save(ctx, wf); err != nil {
		o.logger.ErrorContext(ctx, "save failed workflow",
			"driver_id", wf.DriverID,
			"workflow_id", wf.ID,
			"error", err,
		)
	}
	o.metrics.IncrementWorkflowOutcome(string(verification.WorkflowFailed))
	return fmt.Errorf("persist stage result: %w", cause)
}

func (o *Orchestrator) result(wf *verification.Workflow, driverStatus driver.Status) *RunResult {
	return &RunResult{
		WorkflowID:           wf.ID,
		Status:               wf.Status,
		DriverStatus:         driverStatus,
		OverallScore:         wf.OverallScore,
		CompletionPercentage: wf.CompletionPercentage,
		Stages:               wf.Stages,
	}
}

func (o *Orchestrator) existingChecks(ctx context.Context, driverID string) (map[verification.CheckType]*verification.Verification, error) {
	list, err := o.checks.ListByDriver(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("list checks: %w", err)
	}
	out := make(map[verification.CheckType]*verification.Verification, len(list))
	for i := range list {
		out[list[i].Type] = &list[i]
	}
	return out, nil
}

// reusable reports whether a prior check result stands and needs no rerun.
func reusable(v *verification.Verification) bool {
	return v != nil && v.Status.Terminal() && !v.RequiresReverification
}

func reusedResult(v *verification.Verification) *providers.Result {
	result := &providers.Result{Raw: v.Raw, CheckedAt: v.UpdatedAt}
	if v.Status.Succeeded() {
		result.Status = providers.OutcomeMatched
		if v.Score != nil {
			result.Confidence = *v.Score
		}
	} else {
		result.Status = providers.OutcomeUnmatched
	}
	return result
}

// runCheck executes one external verifier and persists the check record.
// Unavailable outcomes leave the check non-terminal and bump the attempt
// counter; at the configured maximum the check fails definitively.
func (o *Orchestrator) runCheck(ctx context.Context, d *driver.Driver, t verification.CheckType, v providers.Verifier, claim providers.Claim, prior *verification.Verification) (verification.StageResult, *providers.Result, error) {
	ctx, span := o.tracer.Start(ctx, "verification.check."+string(t))
	defer span.End()

	if reusable(prior) {
		return verification.StageResult{
			Name:   string(t),
			Status: prior.Status,
			Score:  prior.Score,
			Detail: "reused prior result",
		}, reusedResult(prior), nil
	}

	callCtx := ctx
	if o.cfg.VerifierTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.cfg.VerifierTimeout)
		defer cancel()
	}

	now := o.now()
	result, err := v.Verify(callCtx, d, claim)
	if err != nil {
		// Errors mean the claim itself is unusable; that is a definitive
		// failure, not an outage.
		if saveErr := o.saveCheck(ctx, d.ID, t, verification.CheckFailed, nil, nil, 0, nil, prior, now); saveErr != nil {
			return verification.StageResult{}, nil, saveErr
		}
		return verification.StageResult{Name: string(t), Status: verification.CheckFailed, Detail: err.Error()}, nil, nil
	}

	switch result.Status {
	case providers.OutcomeMatched:
		score := result.Confidence
		expiry := o.expiryFor(t, &result, now)
		if err := o.saveCheck(ctx, d.ID, t, verification.CheckCompleted, &score, expiry, 0, result.Raw, prior, now); err != nil {
			return verification.StageResult{}, nil, err
		}
		return verification.StageResult{Name: string(t), Status: verification.CheckCompleted, Score: &score}, &result, nil

	case providers.OutcomeUnmatched:
		if err := o.saveCheck(ctx, d.ID, t, verification.CheckFailed, nil, nil, 0, result.Raw, prior, now); err != nil {
			return verification.StageResult{}, nil, err
		}
		return verification.StageResult{Name: string(t), Status: verification.CheckFailed, Detail: "claim did not match authority records"}, &result, nil

	default: // unavailable
		attempts := 1
		if prior != nil {
			attempts = prior.Attempts + 1
		}
		st := verification.CheckPending
		detail := "provider unavailable"
		if attempts >= o.cfg.MaxCheckAttempts {
			st = verification.CheckFailed
			detail = "provider unavailable, attempts exhausted"
		}
		if err := o.saveCheck(ctx, d.ID, t, st, nil, nil, attempts, result.Raw, prior, now); err != nil {
			return verification.StageResult{}, nil, err
		}
		return verification.StageResult{Name: string(t), Status: st, Detail: detail}, &result, nil
	}
}

// saveCheck persists one check record. A write failure is fatal to the run;
// callers propagate it so no partial score is ever committed on top of a
// half-recorded stage.
func (o *Orchestrator) saveCheck(ctx context.Context, driverID string, t verification.CheckType, st verification.CheckStatus, score *float64, expiresAt *time.Time, attempts int, raw []byte, prior *verification.Verification, now time.Time) error {
	v := &verification.Verification{
		ID:        uuid.New(),
		DriverID:  driverID,
		Type:      t,
		Status:    st,
		Score:     score,
		ExpiresAt: expiresAt,
		Attempts:  attempts,
		Raw:       raw,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if prior != nil {
		v.ID = prior.ID
		v.CreatedAt = prior.CreatedAt
	}
	if err := o.checks.Save(ctx, v); err != nil {
		return fmt.Errorf("save %s check: %w", t, err)
	}
	return nil
}

// expiryFor picks the natural expiry of a successful check. The facial match
// never expires; the license check expires with the license itself when the
// registry reported a date.
func (o *Orchestrator) expiryFor(t verification.CheckType, result *providers.Result, now time.Time) *time.Time {
	switch t {
	case verification.CheckFacial, verification.CheckReferee:
		return nil
	case verification.CheckLicense:
		var record struct {
			ExpiryDate string `json:"expiry_date"`
		}
		if json.Unmarshal(result.Raw, &record) == nil && record.ExpiryDate != "" {
			if parsed, err := time.Parse("2006-01-02", record.ExpiryDate); err == nil {
				return &parsed
			}
		}
	}
	if o.cfg.CheckTTL <= 0 {
		return nil
	}
	expiry := now.Add(o.cfg.CheckTTL)
	return &expiry
}

// runReferees contacts every submitted referee and persists per-referee
// outcomes plus the aggregate referee check.
func (o *Orchestrator) runReferees(ctx context.Context, d *driver.Driver, wfID uuid.UUID, inputs []RefereeInput, prior *verification.Verification) (verification.StageResult, []verification.RefereeVerification, error) {
	ctx, span := o.tracer.Start(ctx, "verification.check.referee")
	defer span.End()

	if reusable(prior) {
		existing, err := o.referees.ListByDriver(ctx, d.ID)
		if err != nil {
			return verification.StageResult{}, nil, fmt.Errorf("list referees: %w", err)
		}
		return verification.StageResult{
			Name:   string(verification.CheckReferee),
			Status: prior.Status,
			Score:  prior.Score,
			Detail: "reused prior result",
		}, existing, nil
	}

	now := o.now()
	var (
		results     []verification.RefereeVerification
		verified    int
		unavailable int
	)
	for _, input := range inputs {
		callCtx := ctx
		if o.cfg.VerifierTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, o.cfg.VerifierTimeout)
			defer cancel()
		}
		result, err := o.referee.VerifyReferee(callCtx, input.Name, input.Phone, input.Relationship)
		if err != nil {
			o.logger.WarnContext(ctx, "referee check rejected", "driver_id", d.ID, "error", err)
			continue
		}
		if result.Status == providers.OutcomeUnavailable {
			unavailable++
			continue
		}
		record := verification.RefereeVerification{
			ID:           uuid.New(),
			DriverID:     d.ID,
			WorkflowID:   wfID,
			Name:         input.Name,
			Phone:        input.Phone,
			Relationship: input.Relationship,
			Verified:     result.Status == providers.OutcomeMatched,
			CreatedAt:    now,
		}
		if record.Verified {
			verified++
		} else if notes := refereeNotes(result); notes != "" {
			record.Notes = notes
		}
		if err := o.referees.Save(ctx, &record); err != nil {
			return verification.StageResult{}, nil, fmt.Errorf("save referee: %w", err)
		}
		results = append(results, record)
	}

	if unavailable > 0 {
		attempts := 1
		if prior != nil {
			attempts = prior.Attempts + 1
		}
		st := verification.CheckPending
		detail := "contact service unavailable"
		if attempts >= o.cfg.MaxCheckAttempts {
			st = verification.CheckFailed
			detail = "contact service unavailable, attempts exhausted"
		}
		if err := o.saveCheck(ctx, d.ID, verification.CheckReferee, st, nil, nil, attempts, nil, prior, now); err != nil {
			return verification.StageResult{}, nil, err
		}
		return verification.StageResult{Name: string(verification.CheckReferee), Status: st, Detail: detail}, results, nil
	}

	fraction := 0.0
	if len(results) > 0 {
		fraction = float64(verified) / float64(len(results))
	}
	// A score is only recorded for a completed check; a failed check keeps the
	// reason in the stage detail instead.
	st := verification.CheckCompleted
	score := &fraction
	var detail string
	if fraction < 0.5 {
		st = verification.CheckFailed
		score = nil
		detail = "referees did not confirm the driver"
	}
	if err := o.saveCheck(ctx, d.ID, verification.CheckReferee, st, score, nil, 0, nil, prior, now); err != nil {
		return verification.StageResult{}, nil, err
	}
	return verification.StageResult{Name: string(verification.CheckReferee), Status: st, Score: score, Detail: detail}, results, nil
}

// summarize builds the per-check snapshot persisted on the driver from this
// run's stage results. Document stages roll up under the document_ocr check.
func summarize(stages []verification.StageResult) verification.Summary {
	summary := verification.Summary{}
	for _, stage := range stages {
		t := verification.CheckType(stage.Name)
		switch t {
		case verification.CheckNIN, verification.CheckLicense, verification.CheckFacial,
			verification.CheckReferee, verification.CheckDocumentOCR:
			summary[t] = verification.CheckSnapshot{Status: stage.Status, Score: stage.Score}
		}
	}
	return summary
}

// workflowStatus is completed only when every mandatory check succeeded this
// run. A failed or still-pending mandatory check fails the workflow; the
// surviving per-check records are reused when the driver retries.
func workflowStatus(summary verification.Summary) verification.WorkflowStatus {
	for _, check := range verification.MandatoryChecks {
		snap, ok := summary[check]
		if !ok || !snap.Status.Succeeded() {
			return verification.WorkflowFailed
		}
	}
	return verification.WorkflowCompleted
}

// completionPercentage is the share of stages that completed successfully.
func completionPercentage(stages []verification.StageResult) int {
	if len(stages) == 0 {
		return 0
	}
	succeeded := 0
	for _, stage := range stages {
		if stage.Status.Succeeded() {
			succeeded++
		}
	}
	return int(math.Round(float64(succeeded) / float64(len(stages)) * 100))
}

func (o *Orchestrator) observeStages(stages []verification.StageResult) {
	for _, stage := range stages {
		o.metrics.IncrementStageOutcome(stage.Name, string(stage.Status))
	}
}

func (o *Orchestrator) publish(ctx context.Context, wf *verification.Workflow, driverStatus driver.Status) {
	if o.publisher == nil {
		return
	}
	eventType := events.TypeWorkflowCompleted
	if wf.Status == verification.WorkflowFailed {
		eventType = events.TypeWorkflowFailed
	}
	event := events.Event{
		ID:         uuid.New(),
		Type:       eventType,
		DriverID:   wf.DriverID,
		WorkflowID: &wf.ID,
		Status:     string(driverStatus),
		Score:      wf.OverallScore,
		OccurredAt: o.now(),
	}
	if err := o.publisher.Publish(ctx, event); err != nil {
		o.logger.WarnContext(ctx, "publish workflow event failed",
			"driver_id", wf.DriverID,
			"error", err,
		)
	}
}

func refereeNotes(result providers.Result) string {
	var payload struct {
		Notes string `json:"notes"`
	}
	if json.Unmarshal(result.Raw, &payload) == nil {
		return payload.Notes
	}
	return ""
}

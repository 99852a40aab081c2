// Package http exposes the verification workflow over HTTP.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"driveli/internal/driver"
	"driveli/internal/verification"
	"driveli/internal/verification/orchestrator"
	"driveli/internal/verification/scheduler"
	"driveli/pkg/platform/sentinel"
)

// WorkflowService is the slice of the orchestrator the handler needs.
type WorkflowService interface {
	Run(ctx context.Context, req orchestrator.RunRequest) (*orchestrator.RunResult, error)
	Resume(ctx context.Context, workflowID uuid.UUID) (*orchestrator.RunResult, error)
}

// Sweeper triggers one reverification pass on demand.
type Sweeper interface {
	Sweep(ctx context.Context) (scheduler.SweepResult, error)
}

// Handler serves the verification API.
type Handler struct {
	workflows WorkflowService
	drivers   driver.Store
	sweeper   Sweeper
	logger    *slog.Logger
}

func NewHandler(workflows WorkflowService, drivers driver.Store, sweeper Sweeper, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{workflows: workflows, drivers: drivers, sweeper: sweeper, logger: logger}
}

type runBody struct {
	Documents  []orchestrator.DocumentInput `json:"documents"`
	Referees   []orchestrator.RefereeInput  `json:"referees"`
	Background orchestrator.BackgroundInput `json:"background"`
}

// RunVerification starts a workflow for a driver.
// POST /drivers/{driverID}/verification/run
func (h *Handler) RunVerification(w http.ResponseWriter, r *http.Request) {
	driverID := chi.URLParam(r, "driverID")
	if driverID == "" {
		h.respondError(w, r, http.StatusBadRequest, "driver id is required")
		return
	}

	var body runBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.workflows.Run(r.Context(), orchestrator.RunRequest{
		DriverID:   driverID,
		Documents:  body.Documents,
		Referees:   body.Referees,
		Background: body.Background,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusAccepted, result)
}

// ResumeWorkflow re-enters a previously failed run.
// POST /verification/workflows/{workflowID}/resume
func (h *Handler) ResumeWorkflow(w http.ResponseWriter, r *http.Request) {
	workflowID, err := uuid.Parse(chi.URLParam(r, "workflowID"))
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid workflow id")
		return
	}

	result, err := h.workflows.Resume(r.Context(), workflowID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

type verificationView struct {
	DriverID     string               `json:"driver_id"`
	Status       driver.Status        `json:"status"`
	OverallScore int                  `json:"overall_score"`
	Summary      verification.Summary `json:"summary"`
	StartedAt    *time.Time           `json:"started_at,omitempty"`
	CompletedAt  *time.Time           `json:"completed_at,omitempty"`
}

// GetVerification returns the driver's current verification state.
// GET /drivers/{driverID}/verification
func (h *Handler) GetVerification(w http.ResponseWriter, r *http.Request) {
	driverID := chi.URLParam(r, "driverID")
	d, err := h.drivers.FindByID(r.Context(), driverID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, verificationView{
		DriverID:     d.ID,
		Status:       d.Status,
		OverallScore: d.OverallScore,
		Summary:      d.Summary,
		StartedAt:    d.VerificationStartedAt,
		CompletedAt:  d.VerificationCompletedAt,
	})
}

// TriggerSweep runs one reverification pass immediately.
// POST /internal/reverification/sweep
func (h *Handler) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.sweeper.Sweep(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]int{
		"marked":   result.Marked,
		"enqueued": result.Enqueued,
	})
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		h.respondError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, sentinel.ErrConflict):
		h.respondError(w, r, http.StatusConflict, "verification already in progress")
	case errors.Is(err, sentinel.ErrInvalidState):
		h.respondError(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		h.respondError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) respondError(w http.ResponseWriter, _ *http.Request, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("encode response failed", "error", err)
	}
}

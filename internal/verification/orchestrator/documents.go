package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"driveli/internal/driver"
	"driveli/internal/verification"
	"driveli/internal/verification/ocr"
	"driveli/internal/verification/validation"
)

// runDocuments validates, extracts and matches every submitted document,
// persisting one OCR result per document and rolling the outcomes up into
// the document_ocr check. Documents run before the verifier fan-out because
// their failures are cheap to detect and definitive.
func (o *Orchestrator) runDocuments(ctx context.Context, d *driver.Driver, wfID uuid.UUID, docs []DocumentInput, prior *verification.Verification, skipValidation bool) ([]verification.StageResult, []verification.DocumentOCRResult, *verification.StageResult, error) {
	if len(docs) == 0 {
		if reusable(prior) {
			return nil, nil, &verification.StageResult{
				Name:   string(verification.CheckDocumentOCR),
				Status: prior.Status,
				Score:  prior.Score,
				Detail: "reused prior result",
			}, nil
		}
		return nil, nil, nil, nil
	}

	// With inputs in hand documents are always reprocessed: extraction is
	// local and cheap, and rematching keeps the evidence signals fresh.
	ctx, span := o.tracer.Start(ctx, "verification.documents")
	defer span.End()

	now := o.now()
	var (
		stages      []verification.StageResult
		results     []verification.DocumentOCRResult
		unavailable bool
		matchSum    float64
		matched     int
	)
	for _, doc := range docs {
		stage, result, ocrDown := o.runDocument(ctx, d, wfID, doc, skipValidation)
		stages = append(stages, stage)
		if ocrDown {
			unavailable = true
		}
		if result != nil {
			if err := o.ocrResults.Save(ctx, result); err != nil {
				return stages, nil, nil, fmt.Errorf("save ocr result: %w", err)
			}
			results = append(results, *result)
			if !result.Failed {
				matchSum += result.MatchScore
				matched++
			}
		}
	}

	check, err := o.documentCheck(ctx, d, prior, stages, unavailable, matchSum, matched, now)
	if err != nil {
		return stages, nil, nil, err
	}
	return stages, results, check, nil
}

// runDocument handles one document end to end. The third return flags an
// OCR outage, which leaves the aggregate check retryable rather than failed.
func (o *Orchestrator) runDocument(ctx context.Context, d *driver.Driver, wfID uuid.UUID, doc DocumentInput, skipValidation bool) (verification.StageResult, *verification.DocumentOCRResult, bool) {
	stageName := "document:" + doc.Type
	now := o.now()
	result := &verification.DocumentOCRResult{
		ID:           uuid.New(),
		DriverID:     d.ID,
		WorkflowID:   wfID,
		DocumentType: doc.Type,
		FileRef:      doc.FileRef,
		CreatedAt:    now,
	}

	if !skipValidation {
		outcome := validation.Validate(validation.Document{
			Type:        doc.Type,
			Number:      doc.Number,
			ExpiryDate:  doc.ExpiryDate,
			Name:        d.FullName,
			DateOfBirth: d.DateOfBirth,
		}, now)
		if !outcome.Valid {
			result.Failed = true
			result.FailReason = strings.Join(outcome.Errors, "; ")
			return verification.StageResult{Name: stageName, Status: verification.CheckFailed, Detail: result.FailReason}, result, false
		}
	}

	text, err := o.extractor.ExtractText(ctx, doc.FileRef)
	if err != nil {
		if errors.Is(err, ocr.ErrNoEngineAvailable) {
			result.Failed = true
			result.FailReason = "ocr engines unavailable"
			return verification.StageResult{Name: stageName, Status: verification.CheckPending, Detail: result.FailReason}, result, true
		}
		result.Failed = true
		result.FailReason = err.Error()
		return verification.StageResult{Name: stageName, Status: verification.CheckFailed, Detail: result.FailReason}, result, false
	}
	if text == "" {
		result.Failed = true
		result.FailReason = "document unreadable"
		return verification.StageResult{Name: stageName, Status: verification.CheckFailed, Detail: result.FailReason}, result, false
	}

	class, known := ocr.ClassForDocumentType(doc.Type)
	if known {
		result.Fields = ocr.ParseDocumentText(text, class)
	}
	result.Confidence = extractionConfidence(class, result.Fields)
	result.MatchScore = documentMatchScore(d, doc, result.Fields)

	if result.MatchScore < 0.5 {
		result.Failed = true
		result.FailReason = "extracted fields do not match claimed identity"
		return verification.StageResult{Name: stageName, Status: verification.CheckFailed, Detail: result.FailReason}, result, false
	}

	score := result.MatchScore
	return verification.StageResult{Name: stageName, Status: verification.CheckCompleted, Score: &score}, result, false
}

// documentCheck persists and reports the aggregate document_ocr check. An
// OCR outage leaves it retryable; any failed document fails it outright.
func (o *Orchestrator) documentCheck(ctx context.Context, d *driver.Driver, prior *verification.Verification, stages []verification.StageResult, unavailable bool, matchSum float64, matched int, now time.Time) (*verification.StageResult, error) {
	name := string(verification.CheckDocumentOCR)

	if unavailable {
		attempts := 1
		if prior != nil {
			attempts = prior.Attempts + 1
		}
		st := verification.CheckPending
		detail := "ocr engines unavailable"
		if attempts >= o.cfg.MaxCheckAttempts {
			st = verification.CheckFailed
			detail = "ocr engines unavailable, attempts exhausted"
		}
		if err := o.saveCheck(ctx, d.ID, verification.CheckDocumentOCR, st, nil, nil, attempts, nil, prior, now); err != nil {
			return nil, err
		}
		return &verification.StageResult{Name: name, Status: st, Detail: detail}, nil
	}

	for _, stage := range stages {
		if !stage.Status.Succeeded() {
			if err := o.saveCheck(ctx, d.ID, verification.CheckDocumentOCR, verification.CheckFailed, nil, nil, 0, nil, prior, now); err != nil {
				return nil, err
			}
			return &verification.StageResult{Name: name, Status: verification.CheckFailed, Detail: "one or more documents failed"}, nil
		}
	}

	avg := 0.0
	if matched > 0 {
		avg = matchSum / float64(matched)
	}
	var expiry *time.Time
	if o.cfg.CheckTTL > 0 {
		e := now.Add(o.cfg.CheckTTL)
		expiry = &e
	}
	if err := o.saveCheck(ctx, d.ID, verification.CheckDocumentOCR, verification.CheckCompleted, &avg, expiry, 0, nil, prior, now); err != nil {
		return nil, err
	}
	return &verification.StageResult{Name: name, Status: verification.CheckCompleted, Score: &avg}, nil
}

// extractionConfidence is the fraction of the class's expected fields that
// were recovered from the raw text.
func extractionConfidence(class ocr.DocumentClass, fields map[string]string) float64 {
	expected := map[ocr.DocumentClass]int{
		ocr.ClassNIN:     5,
		ocr.ClassLicense: 2,
		ocr.ClassUtility: 2,
	}[class]
	if expected == 0 {
		return 0
	}
	return float64(len(fields)) / float64(expected)
}

// documentMatchScore is the agreement between extracted fields and the
// driver's claims, 0..1. Fields the extractor did not recover count against
// the score only when the claim exists to compare with.
func documentMatchScore(d *driver.Driver, doc DocumentInput, fields map[string]string) float64 {
	checks := 0
	agreed := 0

	compare := func(extracted, claimed string) {
		if claimed == "" {
			return
		}
		checks++
		if strings.EqualFold(strings.TrimSpace(extracted), claimed) {
			agreed++
		}
	}

	switch doc.Type {
	case "national_id":
		compare(fields["nin"], d.ClaimedNIN)
		compare(fields["date_of_birth"], d.DateOfBirth)
		if first, surname := fields["first_name"], fields["surname"]; first != "" || surname != "" {
			checks++
			if extractedNameMatches(d, fields) {
				agreed++
			}
		}
	case "license":
		compare(fields["license_number"], d.ClaimedLicenseNo)
		compare(fields["license_number"], doc.Number)
	case "utility":
		checks++
		if fields["account_number"] != "" {
			agreed++
		}
	default:
		// Unknown classes cannot be matched; treat a readable document as a
		// weak pass.
		return 0.5
	}

	if checks == 0 {
		return 0.5
	}
	return float64(agreed) / float64(checks)
}

// Package ocr extracts text from submitted document images and parses it
// into typed fields per document class. The extraction backend is pluggable:
// engines are tried in configured order and the first available one wins.
package ocr

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNoEngineAvailable means every configured engine failed its availability
// check. The orchestrator records the stage as failed; the workflow itself
// carries on.
var ErrNoEngineAvailable = errors.New("no OCR engine available")

// Config selects and orders extraction engines. Passed at construction time;
// there is no global provider state.
type Config struct {
	// Order lists engine names preferred-first.
	Order []string
}

// Extractor resolves an engine per call so a provider outage mid-process
// degrades to the next configured engine instead of pinning the dead one.
type Extractor struct {
	engines map[string]Engine
	order   []string
	logger  *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger, engines ...Engine) *Extractor {
	byName := make(map[string]Engine, len(engines))
	for _, e := range engines {
		byName[e.Name()] = e
	}
	return &Extractor{engines: byName, order: cfg.Order, logger: logger}
}

// ExtractText returns the text for a file reference using the first
// available engine. A missing or corrupt file returns an empty string with
// no error; ErrNoEngineAvailable is returned only when every engine is down.
func (x *Extractor) ExtractText(ctx context.Context, fileRef string) (string, error) {
	for _, name := range x.order {
		engine, ok := x.engines[name]
		if !ok {
			continue
		}
		if err := engine.Available(ctx); err != nil {
			if x.logger != nil {
				x.logger.WarnContext(ctx, "ocr engine unavailable, trying next",
					"engine", name,
					"error", err,
				)
			}
			continue
		}
		text, err := engine.ExtractText(ctx, fileRef)
		if err != nil {
			if x.logger != nil {
				x.logger.WarnContext(ctx, "ocr extraction failed, trying next engine",
					"engine", name,
					"file_ref", fileRef,
					"error", err,
				)
			}
			continue
		}
		return text, nil
	}
	return "", ErrNoEngineAvailable
}

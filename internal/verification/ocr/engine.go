package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"
)

// Engine is one text extraction backend. Implementations report availability
// separately from extraction so the extractor can fall back in configured
// order before a stage is marked failed.
type Engine interface {
	// Name matches the identifiers used in Config.Order.
	Name() string

	// Available reports whether the engine can currently serve requests.
	Available(ctx context.Context) error

	// ExtractText returns the raw text for a file reference. A missing or
	// unreadable file yields an empty string, not an error; errors are
	// reserved for engine failures.
	ExtractText(ctx context.Context, fileRef string) (string, error)
}

// LocalEngine extracts text from files under a root directory. It stands in
// for an on-host OCR engine; in development the "images" are plain text
// fixtures.
type LocalEngine struct {
	root string
}

func NewLocalEngine(root string) *LocalEngine {
	return &LocalEngine{root: root}
}

func (e *LocalEngine) Name() string { return "local" }

func (e *LocalEngine) Available(_ context.Context) error {
	if _, err := os.Stat(e.root); err != nil {
		return fmt.Errorf("document root unavailable: %w", err)
	}
	return nil
}

func (e *LocalEngine) ExtractText(_ context.Context, fileRef string) (string, error) {
	data, err := os.ReadFile(filepath.Join(e.root, filepath.Clean(fileRef)))
	if err != nil {
		// Missing or unreadable file is a property of the submission, not of
		// the engine.
		return "", nil
	}
	if !readableText(data) {
		return "", nil
	}
	return string(data), nil
}

// HTTPEngine posts a file reference to a cloud OCR service and returns the
// extracted text.
type HTTPEngine struct {
	baseURL string
	client  *http.Client
}

func NewHTTPEngine(baseURL string, timeout time.Duration) *HTTPEngine {
	return &HTTPEngine{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (e *HTTPEngine) Name() string { return "cloud" }

func (e *HTTPEngine) Available(ctx context.Context) error {
	if e.baseURL == "" {
		return errors.New("cloud OCR not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("cloud OCR unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cloud OCR health status %d", resp.StatusCode)
	}
	return nil
}

func (e *HTTPEngine) ExtractText(ctx context.Context, fileRef string) (string, error) {
	body, err := json.Marshal(map[string]string{"file_ref": fileRef})
	if err != nil {
		return "", fmt.Errorf("marshal OCR request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/extract", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build OCR request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cloud OCR call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnprocessableEntity {
		// The service saw the file but could not read it.
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cloud OCR status %d", resp.StatusCode)
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode OCR response: %w", err)
	}
	return payload.Text, nil
}

// readableText reports whether the bytes look like extracted text rather
// than a raw image payload. NUL bytes are valid UTF-8, so both checks are
// needed.
func readableText(data []byte) bool {
	return utf8.Valid(data) && bytes.IndexByte(data, 0) < 0
}

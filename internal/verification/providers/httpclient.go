package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const maxResponseBytes = 1 << 20

// callJSON performs one GET/POST against an authority endpoint and decodes
// the JSON body into out. Transport failures and 5xx responses come back as
// a VerifierError with a retryable category; the caller maps those onto
// OutcomeUnavailable.
func callJSON(ctx context.Context, client *http.Client, provider, method, url string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return NewVerifierError(ErrorInternal, provider, "build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return NewVerifierError(ErrorTimeout, provider, "call timed out", err)
		}
		return NewVerifierError(ErrorProviderOutage, provider, "transport failure", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return NewVerifierError(ErrorNotFound, provider, "record not found", nil)
	case resp.StatusCode >= 500:
		return NewVerifierError(ErrorProviderOutage, provider, fmt.Sprintf("status %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		return NewVerifierError(ErrorBadData, provider, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return NewVerifierError(ErrorBadData, provider, "decode response", err)
	}
	return nil
}

// unavailable builds the normalized result for a call that could not be
// completed, preserving the error detail and retryability in the raw payload
// for the call log.
func unavailable(err error, now time.Time) Result {
	raw, _ := json.Marshal(map[string]any{
		"error":     err.Error(),
		"retryable": IsRetryable(err),
	})
	return Result{Status: OutcomeUnavailable, Confidence: 0, Raw: raw, CheckedAt: now}
}

package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// ErrorKind classifies a failed completion call.
type ErrorKind string

const (
	// RateLimited indicates the provider throttled the request.
	RateLimited ErrorKind = "rate_limited"
	// QuotaExceeded indicates the account is out of credit.
	QuotaExceeded ErrorKind = "quota_exceeded"
	// AuthError indicates the API key was rejected.
	AuthError ErrorKind = "auth_error"
	// UpstreamError covers all other provider failures.
	UpstreamError ErrorKind = "upstream_error"
)

// CompletionError is a classified failure from the completion provider.
type CompletionError struct {
	// Kind is the failure classification.
	Kind ErrorKind
	// StatusCode is the provider HTTP status, 0 if the call never reached it.
	StatusCode int
	// Err is the underlying provider error.
	Err error
}

// Error implements the error interface.
func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion failed (%s, status %d): %v", e.Kind, e.StatusCode, e.Err)
}

// Unwrap returns the underlying provider error.
func (e *CompletionError) Unwrap() error {
	return e.Err
}

// Classify wraps a provider error in a CompletionError with a kind derived
// from the HTTP status code and error text.
func Classify(err error) *CompletionError {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return &CompletionError{
			Kind:       classifyStatus(apierr.StatusCode, apierr.Error()),
			StatusCode: apierr.StatusCode,
			Err:        err,
		}
	}
	return &CompletionError{Kind: UpstreamError, Err: err}
}

// classifyStatus maps a provider status code (plus message text for the
// quota case, which the provider reports as a 400) to an ErrorKind.
func classifyStatus(status int, msg string) ErrorKind {
	switch status {
	case 401, 403:
		return AuthError
	case 429:
		return RateLimited
	case 402:
		return QuotaExceeded
	}
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "credit balance") || strings.Contains(lower, "quota") {
		return QuotaExceeded
	}
	return UpstreamError
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FailureReason classifies why a generation call produced no usable text.
type FailureReason string

const (
	ReasonTimeout     FailureReason = "timeout"
	ReasonAuth        FailureReason = "auth"
	ReasonQuota       FailureReason = "quota"
	ReasonMalformed   FailureReason = "malformed"
	ReasonUnavailable FailureReason = "unavailable"
)

// Failure is the only error kind providers return.
type Failure struct {
	Provider string
	Reason   FailureReason
	Err      error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Provider, f.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", f.Provider, f.Reason, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Fail wraps err as a Failure. A context deadline always reads as a timeout.
func Fail(provider string, reason FailureReason, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		reason = ReasonTimeout
	}
	return &Failure{Provider: provider, Reason: reason, Err: err}
}

// ReasonOf extracts the failure reason of any error returned by a provider.
func ReasonOf(err error) FailureReason {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	return ReasonUnavailable
}

// FromStatus maps an HTTP error response to a Failure.
func FromStatus(provider string, status int, body []byte) error {
	err := fmt.Errorf("status %d: %s", status, strings.TrimSpace(string(body)))
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return Fail(provider, ReasonAuth, err)
	case status == http.StatusTooManyRequests:
		return Fail(provider, ReasonQuota, err)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return Fail(provider, ReasonTimeout, err)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return Fail(provider, reasonFromText(string(body), ReasonMalformed), err)
	default:
		return Fail(provider, reasonFromText(string(body), ReasonUnavailable), err)
	}
}

// reasonFromText recognises providers that report auth and quota problems
// with a generic status code.
func reasonFromText(msg string, fallback FailureReason) FailureReason {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "authentication"), strings.Contains(lower, "api key"), strings.Contains(lower, "api_key"):
		return ReasonAuth
	case strings.Contains(lower, "rate limit"), strings.Contains(lower, "quota"), strings.Contains(lower, "resource_exhausted"):
		return ReasonQuota
	}
	return fallback
}

// FromError classifies a transport level error.
func FromError(provider string, err error) error {
	var f *Failure
	if errors.As(err, &f) {
		return err
	}
	return Fail(provider, reasonFromText(err.Error(), ReasonUnavailable), err)
}

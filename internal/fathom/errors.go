package fathom

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies an upstream failure. Callers branch on kinds, never on
// raw HTTP status codes.
type ErrorKind int

const (
	// KindUnknown covers upstream failures with no recognizable shape.
	KindUnknown ErrorKind = iota
	// KindRateLimited maps upstream 429 responses.
	KindRateLimited
	// KindInvalidCredential maps upstream 401/403 responses.
	KindInvalidCredential
	// KindUpstreamMessage carries a message the upstream error body provided.
	KindUpstreamMessage
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindInvalidCredential:
		return "invalid_credential"
	case KindUpstreamMessage:
		return "upstream_message"
	default:
		return "unknown"
	}
}

// Error is a normalized upstream API failure.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindRateLimited:
		return "fathom: rate limit exceeded, try again later"
	case KindInvalidCredential:
		return "fathom: invalid or missing API key"
	case KindUpstreamMessage:
		return fmt.Sprintf("fathom: %s", e.Message)
	default:
		return fmt.Sprintf("fathom: unexpected response (status %d)", e.StatusCode)
	}
}

// IsFatalForBatch reports whether err must abort an in-progress batch of
// upstream calls rather than degrade item-by-item. Rate-limit and credential
// failures affect every remaining call equally, so retrying per item would
// only amplify the problem.
func IsFatalForBatch(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Kind == KindRateLimited || apiErr.Kind == KindInvalidCredential
}

// errorBody is the shape of upstream error payloads that carry a message.
type errorBody struct {
	Message string `json:"message"`
}

// normalizeError maps a non-2xx upstream response to the error taxonomy.
func normalizeError(statusCode int, body []byte) error {
	switch statusCode {
	case http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimited, StatusCode: statusCode}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &Error{Kind: KindInvalidCredential, StatusCode: statusCode}
	}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		return &Error{Kind: KindUpstreamMessage, StatusCode: statusCode, Message: parsed.Message}
	}

	return &Error{Kind: KindUnknown, StatusCode: statusCode}
}

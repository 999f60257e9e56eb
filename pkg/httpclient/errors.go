package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/vedicseva/console/pkg/errors"
)

// UpstreamErrorResponse mirrors the {success, message} envelope returned by
// the platform API on failures. It is used to parse structured error bodies
// from upstream HTTP calls.
type UpstreamErrorResponse struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into an appropriate AppError. If the response body matches the platform
// API's error envelope, the message is preserved. Otherwise a generic error is
// returned with the status code and raw body.
//
// The caller should only invoke this when resp.StatusCode indicates an error
// (i.e., not 2xx). The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, endpoint string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", endpoint, resp.StatusCode, err)
	}

	// Try to parse the platform API's error envelope.
	var upstream UpstreamErrorResponse
	if json.Unmarshal(bodyBytes, &upstream) == nil {
		msg := upstream.Message
		if msg == "" {
			msg = upstream.Error
		}
		if msg != "" {
			return mapUpstreamError(resp.StatusCode, msg, endpoint)
		}
	}

	// Fallback: unstructured error body.
	return fmt.Errorf("%s returned status %d: %s", endpoint, resp.StatusCode, string(bodyBytes))
}

// mapUpstreamError translates the platform API's HTTP status code into an
// AppError that preserves the error semantics.
func mapUpstreamError(status int, message, endpoint string) error {
	qualifiedMsg := fmt.Sprintf("%s: %s", endpoint, message)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(endpoint, message)
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(qualifiedMsg)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualifiedMsg)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(qualifiedMsg)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(qualifiedMsg)
	case status >= 500:
		return apperrors.Upstream(qualifiedMsg)
	default:
		return &apperrors.AppError{
			Code:    "UPSTREAM_ERROR",
			Message: qualifiedMsg,
			Status:  status,
		}
	}
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
// Client errors (e.g., validation) should not be retried or counted against
// the circuit breaker since the request itself was invalid.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}

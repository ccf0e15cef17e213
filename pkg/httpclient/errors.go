package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// errorBody accepts both {"error":{"code":"X","message":"..."}} and the
// numeric-code variant used by hosted identity APIs.
type errorBody struct {
	Error *struct {
		Code    json.RawMessage `json:"code"`
		Message string          `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes resp.Body and maps the status to an
// AppError carrying the collaborator's message.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", service, resp.StatusCode, err)
	}

	message := string(raw)
	var body errorBody
	if json.Unmarshal(raw, &body) == nil && body.Error != nil && body.Error.Message != "" {
		message = body.Error.Message
	}
	return StatusError(resp.StatusCode, service, message)
}

// StatusError maps a collaborator status code onto the local taxonomy.
func StatusError(status int, service, message string) error {
	qualified := fmt.Sprintf("%s: %s", service, message)
	switch {
	case status == http.StatusNotFound:
		return &apperrors.AppError{Code: "NOT_FOUND", Message: qualified, Status: status, Err: apperrors.ErrNotFound}
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualified)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(qualified)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(qualified)
	case status == http.StatusServiceUnavailable, status == http.StatusTooManyRequests:
		return apperrors.ServiceUnavailable(qualified)
	case status >= 500:
		return apperrors.Internal(fmt.Errorf("%s returned %d: %s", service, status, message))
	default:
		return &apperrors.AppError{Code: "UPSTREAM_ERROR", Message: qualified, Status: status}
	}
}

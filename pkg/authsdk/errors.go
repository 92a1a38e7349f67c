package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/accounts/pkg/httpx"
)

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"  // client error (4xx)
	StatusError   = "error" // server error (5xx)
)

// FieldError is a single failed input rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is the error body every non-2xx response carries. The server
// writes it with WriteError; the SDK hands it back to callers.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	Status  string       `json:"status"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"errors,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%d %s", e.StatusCode, e.Message)
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("%d %s (%s)", e.StatusCode, e.Message, strings.Join(parts, "; "))
}

// WriteError writes the error to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	body := *e
	if body.Status == "" {
		body.Status = statusFor(e.StatusCode)
	}
	httpx.WriteJSON(w, e.StatusCode, body)
}

// NewAPIError builds an error with the envelope status derived from code.
func NewAPIError(code int, message string, fields ...FieldError) *APIError {
	return &APIError{
		StatusCode: code,
		Status:     statusFor(code),
		Message:    message,
		Fields:     fields,
	}
}

func statusFor(code int) string {
	if code >= 500 {
		return StatusError
	}
	return StatusFail
}

// Messages shared by server and client so callers can match on them.
const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgSessionExpired     = "Session has expired or user doesn't exist"
	MsgRefreshFailed      = "Could not refresh access token"
	MsgNotLoggedIn        = "You are not logged in"
	MsgForbidden          = "You do not have permission to perform this action"
	MsgEmailTaken         = "Email already exists"
	MsgInvalidCode        = "Invalid verification code or user doesn't exist"
	MsgInvalidResetToken  = "Invalid token or token has expired"
	MsgUserNotFound       = "User not found"
	MsgValidation         = "Invalid input"
	MsgInternal           = "Something went wrong"
)

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// parseErrorResponse turns a non-2xx response into an *APIError.
// Returns nil if the response indicates success (2xx status code).
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}

	// Fallback: create generic error from status code
	return NewAPIError(resp.StatusCode, fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
}

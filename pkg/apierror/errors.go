package apierror

import (
	"encoding/json"
	"fmt"
)

// Code is a stable machine-readable error code.
type Code string

// Classifier codes, assigned from the HTTP status of the failed response.
const (
	CodeBadRequest       Code = "BAD_REQUEST"
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
	CodeForbidden        Code = "FORBIDDEN"
	CodeValidationFailed Code = "VALIDATION_FAILED"
	CodeServerError      Code = "SERVER_ERROR"
	CodeUnknownAPIError  Code = "UNKNOWN_API_ERROR"
	CodeUnknownError     Code = "UNKNOWN_ERROR"
)

// Flow-specific codes, assigned by the auth flow services.
const (
	CodeInvalidCredentials      Code = "INVALID_CREDENTIALS"
	CodeAccountLocked           Code = "ACCOUNT_LOCKED"
	CodeLoginResponseInvalid    Code = "LOGIN_RESPONSE_INVALID"
	CodeLoginResponseUnexpected Code = "LOGIN_RESPONSE_UNEXPECTED"
	CodeEmailNotFound           Code = "EMAIL_NOT_FOUND"
	CodeInvalidToken            Code = "INVALID_TOKEN"
	CodeTooManyRequests         Code = "TOO_MANY_REQUESTS"
	CodeValidationError         Code = "VALIDATION_ERROR"
)

// ApiError is the classified form of a failed upstream call. MessageKey
// resolves to a localized string in the front-end message catalogs.
type ApiError struct {
	Status     int    `json:"status"`
	Code       Code   `json:"code"`
	Message    string `json:"message"`
	MessageKey string `json:"message_key,omitempty"`
}

// Error implements the error interface
func (e *ApiError) Error() string {
	return fmt.Sprintf("[%s] %d: %s", e.Code, e.Status, e.Message)
}

// Body is the error payload shape the upstream API returns on failure.
type Body struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ResponseError represents a non-2xx upstream response. Body is nil when
// the response carried no parseable JSON error payload.
type ResponseError struct {
	StatusCode int
	Body       *Body
}

// Error implements the error interface
func (e *ResponseError) Error() string {
	if e.Body != nil && e.Body.Message != "" {
		return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Body.Message)
	}
	return fmt.Sprintf("upstream returned %d", e.StatusCode)
}

// NewResponseError builds a ResponseError from a response status and raw
// body bytes. A body that is not a JSON object is ignored.
func NewResponseError(statusCode int, rawBody []byte) *ResponseError {
	respErr := &ResponseError{StatusCode: statusCode}
	if len(rawBody) == 0 {
		return respErr
	}
	var body Body
	if err := json.Unmarshal(rawBody, &body); err == nil {
		respErr.Body = &body
	}
	return respErr
}

package apierror

import (
	"errors"
	"net/http"
)

// Localization keys for statuses with a dedicated mapping.
const (
	KeyUnauthenticated  = "errors.unauthenticated"
	KeyForbidden        = "errors.forbidden"
	KeyValidationFailed = "errors.validationFailed"
	KeyServerError      = "errors.serverError"
	KeyUnknown          = "errors.unknown"
)

const genericMessage = "An unexpected error occurred."

// Classify maps a failed upstream call to an ApiError.
//
// When err wraps a ResponseError with a parsed body, the status drives the
// code and message key; the body message is preserved when present. Any
// other error (transport failure, timeout, missing body) classifies as an
// unknown error with status 500. Classify is pure and idempotent: the same
// input always yields the same ApiError.
func Classify(err error, defaultMessageKey string) *ApiError {
	var respErr *ResponseError
	if errors.As(err, &respErr) && respErr.Body != nil {
		status := respErr.StatusCode
		if status == 0 {
			status = http.StatusInternalServerError
		}

		message := respErr.Body.Message
		if message == "" {
			message = genericMessage
		}

		code := CodeUnknownAPIError
		messageKey := defaultMessageKey

		switch {
		case status == http.StatusBadRequest:
			code = CodeBadRequest
			if respErr.Body.Code != "" {
				messageKey = respErr.Body.Code
			}
		case status == http.StatusUnauthorized:
			code = CodeUnauthenticated
			messageKey = KeyUnauthenticated
		case status == http.StatusForbidden:
			code = CodeForbidden
			messageKey = KeyForbidden
		case status == http.StatusUnprocessableEntity:
			code = CodeValidationFailed
			messageKey = KeyValidationFailed
		case status >= http.StatusInternalServerError:
			code = CodeServerError
			messageKey = KeyServerError
		}

		return &ApiError{
			Status:     status,
			Code:       code,
			Message:    message,
			MessageKey: messageKey,
		}
	}

	message := "An unknown error occurred"
	if err != nil && err.Error() != "" {
		message = err.Error()
	}

	return &ApiError{
		Status:     http.StatusInternalServerError,
		Code:       CodeUnknownError,
		Message:    message,
		MessageKey: KeyUnknown,
	}
}

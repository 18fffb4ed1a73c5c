/*
Package errs provides the application error type and its numeric codes.

This file defines CustomError, which carries a business code, a
user-friendly message and the HTTP status used when it is written to a
response.
*/
package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/SharmaG-28/Virtual-Campus/internal/pkg/logx"
)

// CustomError is the error type returned across package boundaries.
type CustomError struct {
	// Code is the business error code (see constants).
	Code int `json:"code"`

	// Message is the user-facing description.
	Message string `json:"message"`

	// Status is the HTTP status used when the error is written to a response.
	Status int `json:"-"`
}

// Error implements the error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("error code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// NewError builds a CustomError from a registered code. details are used as
// printf arguments when the message template has placeholders. Unknown codes
// collapse to ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	template, ok := errorMap[code]
	if !ok {
		logx.Error(
			fmt.Errorf("unregistered error code %d", code),
			"Unknown error code requested",
			"requested_code", code,
		)
		template = errorMap[ErrUnknown]
	}

	customErr := template
	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if len(details) > 0 {
		switch {
		case customErr.Code == ErrUnknown:
			if cause, ok := details[0].(error); ok {
				logx.Error(cause, "Handling ErrUnknown with underlying error")
			}
		case strings.Contains(customErr.Message, "%"):
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		default:
			logx.Warn("Error details ignored, message template has no placeholders", "code", code)
		}
	}

	return &customErr
}

// From converts any error into a CustomError, wrapping unknown errors as ErrUnknown.
func From(err error) *CustomError {
	if err == nil {
		return nil
	}
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr
	}
	return NewError(ErrUnknown, err)
}

package services

import (
	"errors"

	"github.com/aws/smithy-go"
)

// ErrorCode returns the service error code carried by err, or "" when err
// did not come from an AWS API call
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// ErrorMessage returns the service-provided message for err, falling back to
// err.Error() for errors that did not come from an AWS API call
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorMessage() != "" {
		return apiErr.ErrorMessage()
	}
	return err.Error()
}

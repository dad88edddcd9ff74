package models

import (
	"fmt"

	"booking-service/pkg/response"
)

// ValidationError names the date and field of rejected availability input.
type ValidationError struct {
	Date   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Date == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.Date, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return response.ErrValidation
}

func invalid(date, field, reason string) *ValidationError {
	return &ValidationError{Date: date, Field: field, Reason: reason}
}

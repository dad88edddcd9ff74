package response

import "errors"

const (
	StatusOK    = "ok"
	StatusError = "error"
)

type Response struct {
	Status        string `json:"status"`
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error Codes
type ErrCode string

var (
	FAILED_REQUEST     ErrCode = "REQUEST_FAILED"
	BAD_REQUEST        ErrCode = "FAILED_TO_DECODE"
	VALIDATION_ERROR   ErrCode = "VALIDATION_ERROR"
	NOT_FOUND          ErrCode = "NOT_FOUND"
	FORBIDDEN          ErrCode = "FORBIDDEN"
	SLOT_NOT_OFFERED   ErrCode = "SLOT_NOT_OFFERED"
	SLOT_NOT_AVAILABLE ErrCode = "SLOT_NOT_AVAILABLE"
	INVALID_TRANSITION ErrCode = "INVALID_TRANSITION"
	RATE_LIMITED       ErrCode = "RATE_LIMITED"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("resource not found")
	ErrLocked            = errors.New("resource is locked")
	ErrConflict          = errors.New("conflict")
	ErrSlotNotOffered    = errors.New("slot is not offered")
	ErrSlotNotAvailable  = errors.New("slot is not available")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotParticipant    = errors.New("actor is not a participant of the appointment")
)

func OK() Response {
	return Response{Status: StatusOK}
}

func Error(code, msg string) Response {
	return Response{
		Status: StatusError,
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}

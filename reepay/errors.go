package reepay

import (
	"errors"
	"fmt"
)

// Error codes returned by the processor that indicate the request conflicts
// with existing remote state (handle already exists, invoice already
// authorized/settled/cancelled, transaction in progress). A charge or settle
// call failing with one of these may be retried once with a fresh handle.
const (
	CodeDuplicateHandle          = 105
	CodeInvoiceAlreadyAuthorized = 79
	CodeInvoiceAlreadySettled    = 29
	CodeInvoiceAlreadyCancelled  = 99
	CodeTransactionInProgress    = 72
)

var conflictCodes = map[int]bool{
	CodeDuplicateHandle:          true,
	CodeInvoiceAlreadyAuthorized: true,
	CodeInvoiceAlreadySettled:    true,
	CodeInvoiceAlreadyCancelled:  true,
	CodeTransactionInProgress:    true,
}

// APIError is a structured error response from the processor.
type APIError struct {
	HTTPStatus int    `json:"http_status"`
	Code       int    `json:"code"`
	ErrorText  string `json:"error"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.ErrorText
	}
	return fmt.Sprintf("reepay: http %d code %d: %s", e.HTTPStatus, e.Code, msg)
}

// IsConflict reports whether err is a processor conflict error, one of the
// fixed codes that permits a single retry with a regenerated handle.
func IsConflict(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return conflictCodes[apiErr.Code]
}

// IsAlreadySettled reports whether err means the invoice was already
// settled. Callers treat this as idempotent success, never as a failure.
func IsAlreadySettled(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == CodeInvoiceAlreadySettled
}

// IsRateLimited reports whether err is a 429 from the processor.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.HTTPStatus == 429
}

// IsNotFound reports whether err is a 404 from the processor.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.HTTPStatus == 404
}

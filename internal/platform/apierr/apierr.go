// Package apierr is the error model shared by every feature package.
// Handlers map Code to an HTTP status and a localised message.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeInvalidArgument         Code = "INVALID_ARGUMENT"
	CodeNotFound                Code = "NOT_FOUND"
	CodeConflict                Code = "CONFLICT"
	CodeOutOfStock              Code = "OUT_OF_STOCK"
	CodeDuplicatePendingRequest Code = "DUPLICATE_PENDING_REQUEST"
	CodeInvalidStateTransition  Code = "INVALID_STATE_TRANSITION"
	CodeAlreadyReturned         Code = "ALREADY_RETURNED"
	CodeUnauthorized            Code = "UNAUTHORIZED"
	CodeForbidden               Code = "FORBIDDEN"
	CodeTransactionFailure      Code = "TRANSACTION_FAILURE"
	CodeInternal                Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error
}

func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return e.cause }

func New(code Code, msg string) *APIError { return &APIError{Code: code, Message: msg} }

func ErrInvalid(msg string) *APIError      { return New(CodeInvalidArgument, msg) }
func ErrNotFound(msg string) *APIError     { return New(CodeNotFound, msg) }
func ErrConflict(msg string) *APIError     { return New(CodeConflict, msg) }
func ErrUnauthorized(msg string) *APIError { return New(CodeUnauthorized, msg) }
func ErrForbidden(msg string) *APIError    { return New(CodeForbidden, msg) }
func ErrInternal(msg string) *APIError     { return New(CodeInternal, msg) }

// ErrTxFailure wraps a storage-layer abort. The cause stays reachable through errors.Unwrap.
func ErrTxFailure(cause error) *APIError {
	return &APIError{Code: CodeTransactionFailure, Message: "transaction aborted", cause: cause}
}

// CodeOf returns the code carried by err, INTERNAL for foreign errors and "" for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var api *APIError
	if errors.As(err, &api) {
		return api.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool { return err != nil && CodeOf(err) == code }

// AsTxFailure passes domain errors through unchanged and wraps anything else
// (driver errors, commit failures) as TRANSACTION_FAILURE.
func AsTxFailure(err error) error {
	if err == nil {
		return nil
	}
	var api *APIError
	if errors.As(err, &api) {
		return api
	}
	return ErrTxFailure(err)
}

func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeOutOfStock, CodeDuplicatePendingRequest,
		CodeInvalidStateTransition, CodeAlreadyReturned:
		return http.StatusConflict
	case CodeTransactionFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

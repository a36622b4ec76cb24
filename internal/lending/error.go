package lending

import "LIBRA-backend/internal/platform/apierr"

func ErrRequestNotFound() error { return apierr.ErrNotFound("borrow request not found") }

func ErrRecordNotFound() error { return apierr.ErrNotFound("borrow record not found") }

func ErrDuplicatePendingRequest() error {
	return apierr.New(apierr.CodeDuplicatePendingRequest, "a pending request for this title already exists")
}

func ErrInvalidStateTransition(from Status, action string) error {
	return apierr.New(apierr.CodeInvalidStateTransition, "cannot "+action+" a request in status "+string(from))
}

func ErrAlreadyReturned() error {
	return apierr.New(apierr.CodeAlreadyReturned, "borrow record already returned")
}

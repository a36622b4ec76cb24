package apierr_test

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"LIBRA-backend/internal/platform/apierr"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, apierr.Code(""), apierr.CodeOf(nil))
	assert.Equal(t, apierr.CodeInternal, apierr.CodeOf(errors.New("boom")))
	assert.Equal(t, apierr.CodeOutOfStock, apierr.CodeOf(fmt.Errorf("wrapped: %w", apierr.New(apierr.CodeOutOfStock, "x"))))
}

func TestAsTxFailure(t *testing.T) {
	domain := apierr.ErrNotFound("request not found")
	assert.Same(t, domain, apierr.AsTxFailure(domain))

	err := apierr.AsTxFailure(sql.ErrConnDone)
	assert.True(t, apierr.Is(err, apierr.CodeTransactionFailure))
	assert.ErrorIs(t, err, sql.ErrConnDone)

	assert.NoError(t, apierr.AsTxFailure(nil))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[apierr.Code]int{
		apierr.CodeInvalidArgument:         http.StatusBadRequest,
		apierr.CodeUnauthorized:            http.StatusUnauthorized,
		apierr.CodeForbidden:               http.StatusForbidden,
		apierr.CodeNotFound:                http.StatusNotFound,
		apierr.CodeOutOfStock:              http.StatusConflict,
		apierr.CodeDuplicatePendingRequest: http.StatusConflict,
		apierr.CodeInvalidStateTransition:  http.StatusConflict,
		apierr.CodeAlreadyReturned:         http.StatusConflict,
		apierr.CodeTransactionFailure:      http.StatusServiceUnavailable,
		apierr.CodeInternal:                http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, apierr.HTTPStatus(apierr.New(code, "m")), code)
	}
	assert.Equal(t, http.StatusInternalServerError, apierr.HTTPStatus(errors.New("plain")))
}

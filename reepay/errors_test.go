package reepay

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsConflict(t *testing.T) {
	for _, code := range []int{
		CodeDuplicateHandle,
		CodeInvoiceAlreadyAuthorized,
		CodeInvoiceAlreadySettled,
		CodeInvoiceAlreadyCancelled,
		CodeTransactionInProgress,
	} {
		assert.True(t, IsConflict(&APIError{HTTPStatus: 400, Code: code}), "code %d", code)
	}

	assert.False(t, IsConflict(&APIError{HTTPStatus: 400, Code: 0}))
	assert.False(t, IsConflict(errors.New("plain error")))
	assert.False(t, IsConflict(nil))
}

func TestIsConflictUnwrapsWrappedErrors(t *testing.T) {
	err := fmt.Errorf("charge failed: %w", &APIError{HTTPStatus: 400, Code: CodeDuplicateHandle})
	assert.True(t, IsConflict(err))
}

func TestIsAlreadySettled(t *testing.T) {
	assert.True(t, IsAlreadySettled(&APIError{HTTPStatus: 400, Code: CodeInvoiceAlreadySettled}))
	assert.False(t, IsAlreadySettled(&APIError{HTTPStatus: 400, Code: CodeDuplicateHandle}))
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(&APIError{HTTPStatus: 429}))
	assert.False(t, IsRateLimited(&APIError{HTTPStatus: 500}))
	assert.False(t, IsRateLimited(errors.New("plain error")))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(&APIError{HTTPStatus: 404}))
	assert.False(t, IsNotFound(&APIError{HTTPStatus: 400}))
}

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{HTTPStatus: 400, Code: 105, ErrorText: "Handle already exists"}
	assert.Contains(t, err.Error(), "105")
	assert.Contains(t, err.Error(), "Handle already exists")
}

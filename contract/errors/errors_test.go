package errors_test

import (
	"errors"
	"fmt"
	"testing"

	berr "github.com/next-trace/stashit/contract/errors"
)

func TestCodeAndVars(t *testing.T) {
	e := berr.Code(berr.ErrCodePublishFailed)
	if e.Error() != berr.ErrCodePublishFailed {
		t.Fatalf("unexpected error string: %s", e.Error())
	}

	// exported variables must carry their codes
	tests := []struct {
		err  error
		code string
	}{
		{berr.ErrHandlerExists, berr.ErrCodeHandlerExists},
		{berr.ErrHandlerTypeMismatch, berr.ErrCodeHandlerTypeMismatch},
		{berr.ErrHandlerFailed, berr.ErrCodeHandlerFailed},
		{berr.ErrInvalidHandler, berr.ErrCodeInvalidHandler},
		{berr.ErrInvalidEvent, berr.ErrCodeInvalidEvent},
		{berr.ErrRecursionLimit, berr.ErrCodeRecursionLimit},
		{berr.ErrCascadePartial, berr.ErrCodeCascadePartial},
		{berr.ErrPublishFailed, berr.ErrCodePublishFailed},
		{berr.ErrSerializationFailed, berr.ErrCodeSerializationFailed},
		{berr.ErrEntityNotFound, berr.ErrCodeEntityNotFound},
		{berr.ErrEntityAlreadyExists, berr.ErrCodeEntityAlreadyExists},
		{berr.ErrEntityInvalid, berr.ErrCodeEntityInvalid},
		{berr.ErrAssertionFailed, berr.ErrCodeAssertionFailed},
		{berr.ErrInvalidValue, berr.ErrCodeInvalidValue},
		{berr.ErrInsufficientFunds, berr.ErrCodeInsufficientFunds},
	}

	for _, tc := range tests {
		if !errors.Is(tc.err, berr.Code(tc.code)) {
			t.Fatalf("expected %s to be %s", tc.err, tc.code)
		}
	}
}

func TestCodeSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("stash %s: %w", "abc", berr.ErrEntityNotFound)
	if !errors.Is(err, berr.ErrEntityNotFound) {
		t.Fatalf("wrapped error lost its code: %v", err)
	}

	if errors.Is(err, berr.ErrEntityInvalid) {
		t.Fatalf("wrapped error matched an unrelated code: %v", err)
	}
}

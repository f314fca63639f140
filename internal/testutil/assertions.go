package testutil

import (
	"errors"
	"testing"

	apperrors "empire/internal/errors"
)

// AssertAppError fails unless err is (or wraps) an *AppError carrying code.
// On mismatch the wrapped cause is printed too.
func AssertAppError(t *testing.T, err error, code string) {
	t.Helper()

	var appErr *apperrors.AppError
	switch {
	case err == nil:
		t.Fatalf("expected %s, got nil", code)
	case !errors.As(err, &appErr):
		t.Fatalf("expected %s, got non-app error %T: %v", code, err, err)
	case appErr.Code != code:
		t.Errorf("expected %s, got %s (%s; cause: %v)", code, appErr.Code, appErr.Message, appErr.Internal)
	}
}

// AssertNoError fails the test immediately if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Internal != nil {
			t.Fatalf("unexpected error %s: %v", appErr.Code, appErr.Internal)
		}
		t.Fatalf("unexpected error: %v", err)
	}
}

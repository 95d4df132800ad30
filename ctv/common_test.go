package ctv

import (
	"errors"
	"testing"
)

func checkError(t *testing.T, testName string, gotErr error,
	wantErrCode ErrorCode) bool {

	t.Helper()

	var cerr Error
	if !errors.As(gotErr, &cerr) {
		t.Errorf("%s: unexpected error type - got %T, want %T",
			testName, gotErr, Error{})
		return false
	}
	if cerr.ErrorCode != wantErrCode {
		t.Errorf("%s: unexpected error code - got %s (%s), want %s",
			testName, cerr.ErrorCode, cerr.Description, wantErrCode)
		return false
	}

	return true
}

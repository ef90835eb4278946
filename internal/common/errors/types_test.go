package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	t.Run("type and message", func(t *testing.T) {
		err := AuthError("session resolution failed")
		want := "authentication: session resolution failed"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("dial tcp: connection refused")
		err := ConnectionError("rate limit store consume failed", cause)
		got := err.Error()
		if got != fmt.Sprintf("connection: rate limit store consume failed: cause=%v", cause) {
			t.Errorf("Error() = %q", got)
		}
	})

	t.Run("with context", func(t *testing.T) {
		err := ConnectionError("store down", nil).WithContext("client_addr", "1.2.3.4")
		got := err.Error()
		if !strings.Contains(got, "client_addr=1.2.3.4") {
			t.Errorf("Error() = %q, want context included", got)
		}
	})
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := InternalError("wrapper", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() should find the cause through Unwrap")
	}
}

func TestIsType(t *testing.T) {
	connErr := ConnectionError("store down", nil)

	if !IsType(connErr, ErrTypeConnection) {
		t.Error("IsType() = false for matching type")
	}
	if IsType(connErr, ErrTypeAuth) {
		t.Error("IsType() = true for non-matching type")
	}
	if IsType(nil, ErrTypeConnection) {
		t.Error("IsType(nil) = true")
	}
	if IsType(errors.New("plain"), ErrTypeConnection) {
		t.Error("IsType() = true for plain error")
	}
}

func TestGetType(t *testing.T) {
	if got := GetType(nil); got != "" {
		t.Errorf("GetType(nil) = %v, want empty", got)
	}
	if got := GetType(errors.New("plain")); got != ErrTypeInternal {
		t.Errorf("GetType(plain) = %v, want internal", got)
	}
	if got := GetType(AuthError("session resolution failed")); got != ErrTypeAuth {
		t.Errorf("GetType() = %v, want authentication", got)
	}
}

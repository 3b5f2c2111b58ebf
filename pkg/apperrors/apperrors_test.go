package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(NotFound("x")); got != KindNotFound {
		t.Errorf("KindOf = %s, want %s", got, KindNotFound)
	}

	// Wrapped errors keep their kind through the chain.
	wrapped := fmt.Errorf("handler: %w", InvalidState("bad transition"))
	if got := KindOf(wrapped); got != KindInvalidState {
		t.Errorf("KindOf(wrapped) = %s, want %s", got, KindInvalidState)
	}

	if got := KindOf(errors.New("plain")); got != KindInternal {
		t.Errorf("KindOf(plain) = %s, want %s", got, KindInternal)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Storage("load contract", cause)
	if !errors.Is(err, cause) {
		t.Error("wrapped cause lost")
	}
	if err.Kind != KindStorageFailure {
		t.Errorf("kind = %s, want %s", err.Kind, KindStorageFailure)
	}
}

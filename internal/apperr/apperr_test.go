package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mkallio/manweek/internal/apperr"
)

func TestIsKind(t *testing.T) {
	base := apperr.New(apperr.Validation, "bad duration")

	if !apperr.IsKind(base, apperr.Validation) {
		t.Error("expected the error to carry the validation kind")
	}

	if apperr.IsKind(base, apperr.Persistence) {
		t.Error("did not expect the error to carry the persistence kind")
	}

	wrapped := fmt.Errorf("closing interval: %w", base)

	if !apperr.IsKind(wrapped, apperr.Validation) {
		t.Error("expected the kind to survive fmt.Errorf wrapping")
	}

	if apperr.IsKind(errors.New("plain"), apperr.Validation) {
		t.Error("did not expect a plain error to match any kind")
	}
}

func TestSentinelCopies(t *testing.T) {
	sentinel := &apperr.Error{
		Kind:    apperr.NameConflict,
		Message: "a mode named %q already exists",
	}

	err := sentinel.Fmt("Lunch")

	if sentinel.Message != "a mode named %q already exists" {
		t.Error("Fmt must not mutate the sentinel")
	}

	if err.Error() != `a mode named "Lunch" already exists` {
		t.Errorf("unexpected message: %s", err.Error())
	}

	cause := errors.New("disk is full")

	withCause := sentinel.WithCause(cause)

	if sentinel.Cause != nil {
		t.Error("WithCause must not mutate the sentinel")
	}

	if !errors.Is(withCause, cause) {
		t.Error("expected the cause to be reachable via errors.Is")
	}
}

package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"invalid argument", InvalidArgument("bad wager"), KindInvalidArgument},
		{"not found", NotFound("no review"), KindNotFound},
		{"conflict", Conflict("already voted"), KindConflict},
		{"insufficient funds", InsufficientFunds("balance too low"), KindInsufficientFunds},
		{"oracle unavailable", OracleUnavailable("timeout", errors.New("deadline")), KindOracleUnavailable},
		{"plain error", errors.New("boom"), KindUnknown},
		{"nil", nil, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("settle review: %w", Conflict("already settled"))

	if !IsKind(err, KindConflict) {
		t.Error("Kind should survive fmt.Errorf wrapping")
	}
	if IsKind(err, KindNotFound) {
		t.Error("Wrong kind should not match")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := OracleUnavailable("arbiter call failed", cause)

	if !errors.Is(err, cause) {
		t.Error("The wrapped cause should be reachable via errors.Is")
	}
	if err.Error() != "arbiter call failed: connection refused" {
		t.Errorf("Unexpected message: %q", err.Error())
	}
}

func TestKindString(t *testing.T) {
	if KindInsufficientFunds.String() != "insufficient_funds" {
		t.Errorf("Unexpected name: %q", KindInsufficientFunds.String())
	}
	if Kind(99).String() != "unknown" {
		t.Errorf("Out-of-range kinds should read unknown, got %q", Kind(99).String())
	}
}

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeRoutingAmbiguity, "model requested unknown tool")
	if err.Code != CodeRoutingAmbiguity {
		t.Errorf("expected code %s, got %s", CodeRoutingAmbiguity, err.Code)
	}
	want := "[ROUTING_AMBIGUITY] model requested unknown tool"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestWrap(t *testing.T) {
	inner := fmt.Errorf("connection refused")
	err := Wrap(CodeProviderError, "completion request failed", inner)

	if !errors.Is(err, inner) {
		t.Error("expected wrapped error to match with errors.Is")
	}
	if err.Error() != "[PROVIDER_ERROR] completion request failed: connection refused" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestIs_MatchesByCode(t *testing.T) {
	a := New(CodeCorrelationFailure, "first")
	b := New(CodeCorrelationFailure, "second")
	c := New(CodeTimeout, "other")

	if !errors.Is(a, b) {
		t.Error("errors with the same code should match")
	}
	if errors.Is(a, c) {
		t.Error("errors with different codes should not match")
	}
}

func TestAsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeStoreError, "put failed"))
	if got := AsCode(err); got != CodeStoreError {
		t.Errorf("expected %s, got %s", CodeStoreError, got)
	}
	if got := AsCode(fmt.Errorf("plain")); got != "" {
		t.Errorf("expected empty code for plain error, got %s", got)
	}
}

func TestSuggestion(t *testing.T) {
	err := New(CodeAPIKeyMissing, "no key").WithSuggestion("Set ANTHROPIC_API_KEY")
	if got := Suggestion(err); got != "Set ANTHROPIC_API_KEY" {
		t.Errorf("unexpected suggestion: %q", got)
	}
}

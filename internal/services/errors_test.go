package services

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsAndFormats(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrTransient, "scoring", "judge batch", "batch 2", cause)

	if !errors.Is(err, ErrTransient) {
		t.Fatal("wrapped error must match its marker")
	}
	if !errors.Is(err, cause) {
		t.Fatal("wrapped error must match its cause")
	}
	msg := err.Error()
	for _, part := range []string{"scoring", "judge batch", "batch 2", "connection refused"} {
		if !strings.Contains(msg, part) {
			t.Fatalf("message %q missing %q", msg, part)
		}
	}
}

func TestWrapDefaultsNilMarker(t *testing.T) {
	err := Wrap(nil, "", "", "boom", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatal("nil marker must default to transient")
	}
}

func TestIsRecoverable(t *testing.T) {
	if !IsRecoverable(Wrap(ErrValidation, "input", "", "bad segment", nil)) {
		t.Fatal("validation errors are recoverable")
	}
	if IsRecoverable(Wrap(ErrTransient, "scoring", "", "flaky", nil)) {
		t.Fatal("transient errors are not recoverable")
	}
}

func TestRunIDContextRoundTrip(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-42")
	id, ok := RunIDFromContext(ctx)
	if !ok || id != "run-42" {
		t.Fatalf("RunIDFromContext = %q, %v", id, ok)
	}
	if _, ok := RunIDFromContext(context.Background()); ok {
		t.Fatal("bare context must carry no run id")
	}
}

func TestStageContextRoundTrip(t *testing.T) {
	ctx := WithStage(context.Background(), "selection")
	stage, ok := StageFromContext(ctx)
	if !ok || stage != "selection" {
		t.Fatalf("StageFromContext = %q, %v", stage, ok)
	}
}

package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := Errorf(ErrAmbiguousTemplate, "/course/week1", "candidates: %s, %s", "a_template.Rmd", "b_template.Rmd")
	if !errors.Is(err, ErrAmbiguousTemplate) {
		t.Error("expected errors.Is to match the kind")
	}
	if errors.Is(err, ErrMissingTemplate) {
		t.Error("errors.Is matched the wrong kind")
	}

	wrapped := fmt.Errorf("building: %w", err)
	if !errors.Is(wrapped, ErrAmbiguousTemplate) {
		t.Error("kind should survive further wrapping")
	}
}

func TestErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("exit status 1")
	err := Wrap(ErrExecutionFailed, "t.Rmd", cause)
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
	if errors.Unwrap(err) != cause {
		t.Error("Unwrap should return the cause")
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{&Error{Kind: ErrMissingTemplate}, "MissingTemplate"},
		{&Error{Kind: ErrMissingTemplate, Path: "/x"}, "MissingTemplate: /x"},
		{&Error{Kind: ErrMalformedTemplate, Path: "/x/t.Rmd", Msg: "line 3: unclosed block"}, "MalformedTemplate: /x/t.Rmd: line 3: unclosed block"},
		{&Error{Kind: ErrPackagingFailed, Path: "/out", Err: errors.New("no space")}, "PackagingFailed: /out: no space"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(errors.New("plain")) != nil {
		t.Error("plain errors have no kind")
	}
	err := fmt.Errorf("ctx: %w", Wrap(ErrPackagingFailed, "/out", errors.New("x")))
	if KindOf(err) != ErrPackagingFailed {
		t.Errorf("KindOf = %v, want PackagingFailed", KindOf(err))
	}
}

func TestStageTerminal(t *testing.T) {
	for _, s := range []Stage{StageLocated, StageExecuted, StageDerived, StageWritten} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	for _, s := range []Stage{StagePackaged, StageFailed} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

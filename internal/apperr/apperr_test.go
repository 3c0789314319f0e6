package apperr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOf(t *testing.T) {
	base := errors.New("boom")
	tests := []struct {
		name  string
		err   error
		want  Kind
		fatal bool
	}{
		{"configuration", Configuration("load document", base), KindConfiguration, true},
		{"index build", IndexBuild("embed chunks", base), KindIndexBuild, true},
		{"retrieval", Retrieval("search", base), KindRetrieval, false},
		{"generation", Generation("chat completion", base), KindGeneration, false},
		{"wrapped generation", fmt.Errorf("answer: %w", Generation("chat", base)), KindGeneration, false},
		{"plain", base, KindUnknown, false},
		{"nil", nil, KindUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
			if got := Fatal(tt.err); got != tt.fatal {
				t.Errorf("Fatal() = %v, want %v", got, tt.fatal)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	err := Generation("chat completion", context.DeadlineExceeded)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected errors.Is to reach the wrapped error")
	}
	if !IsKind(err, KindGeneration) {
		t.Error("IsKind(generation) = false")
	}
	if !strings.Contains(err.Error(), "GenerationError") || !strings.Contains(err.Error(), "chat completion") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestNilCause(t *testing.T) {
	err := Retrieval("search", nil)
	if err == nil || !IsKind(err, KindRetrieval) {
		t.Fatalf("Retrieval(nil cause) = %v", err)
	}
}

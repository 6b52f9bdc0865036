package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew_DefaultCategory(t *testing.T) {
	tests := []struct {
		code Code
		want Category
	}{
		{CodeGateway, CategoryTransient},
		{CodeRateLimited, CategoryTransient},
		{CodeTimeout, CategoryTransient},
		{CodeUnknownPersona, CategoryPermanent},
		{CodeInvalidInput, CategoryPermanent},
		{CodeStorage, CategoryInternal},
		{CodeCorruptState, CategoryInternal},
	}

	for _, tt := range tests {
		e := New(tt.code, "msg")
		if e.Category() != tt.want {
			t.Errorf("%s: expected category %s, got %s", tt.code, tt.want, e.Category())
		}
	}
}

func TestError_Retryable(t *testing.T) {
	if !New(CodeGateway, "boom").Retryable() {
		t.Error("gateway errors should be retryable")
	}
	if New(CodeUnknownPersona, "nope").Retryable() {
		t.Error("unknown persona should not be retryable")
	}
}

func TestWrap_PreservesChain(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(cause, CodeStorage, "saving memory file")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match its cause via errors.Is")
	}
	if err.Code() != CodeStorage {
		t.Errorf("expected CodeStorage, got %s", err.Code())
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("message should include cause: %s", err.Error())
	}
}

func TestWrap_Nil(t *testing.T) {
	if Wrap(nil, CodeStorage, "anything") != nil {
		t.Error("wrapping nil should yield nil")
	}
}

func TestWrap_DeadlineBecomesTimeout(t *testing.T) {
	err := Wrap(context.DeadlineExceeded, CodeGateway, "generate")
	if err.Code() != CodeTimeout {
		t.Errorf("expected CodeTimeout, got %s", err.Code())
	}
	if !err.Retryable() {
		t.Error("timeout should be retryable")
	}
}

func TestUnknownPersona_ListsOptions(t *testing.T) {
	err := UnknownPersona("grump", []string{"cheerful", "gremlin"})
	if err.Code() != CodeUnknownPersona {
		t.Fatalf("expected CodeUnknownPersona, got %s", err.Code())
	}
	msg := err.Error()
	if !strings.Contains(msg, "grump") || !strings.Contains(msg, "cheerful") || !strings.Contains(msg, "gremlin") {
		t.Errorf("message should name the rejected persona and the valid options: %s", msg)
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(CodeGateway, "x")); got != CodeGateway {
		t.Errorf("expected CodeGateway, got %s", got)
	}
	if got := CodeOf(fmt.Errorf("plain")); got != CodeInternal {
		t.Errorf("foreign errors should report CodeInternal, got %s", got)
	}

	// Code survives further wrapping by fmt.
	outer := fmt.Errorf("handler: %w", Gateway(fmt.Errorf("503"), "generate"))
	if got := CodeOf(outer); got != CodeGateway {
		t.Errorf("expected CodeGateway through the chain, got %s", got)
	}
}

func TestAsError(t *testing.T) {
	if _, ok := AsError(fmt.Errorf("plain")); ok {
		t.Error("plain errors should not convert")
	}
	e, ok := AsError(fmt.Errorf("outer: %w", Storage(fmt.Errorf("eof"), "load")))
	if !ok {
		t.Fatal("expected conversion through wrapped chain")
	}
	if e.Code() != CodeStorage {
		t.Errorf("expected CodeStorage, got %s", e.Code())
	}
}

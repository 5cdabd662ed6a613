package errors

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "snapshot not found")
		if err.Error() != "[NOT_FOUND] snapshot not found" {
			t.Errorf("expected [NOT_FOUND] snapshot not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("unexpected token")
		err := Wrap(original, CodeParseError, "parse header")
		expected := "[PARSE_ERROR] parse header: unexpected token"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
		if !errors.Is(err, original) {
			t.Error("expected wrapped error to unwrap to the original")
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeValidationError, "nil header")
		if !IsCode(err, CodeValidationError) {
			t.Error("expected IsCode to return true for CodeValidationError")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
		if IsCode(errors.New("plain"), CodeInternal) {
			t.Error("expected IsCode to return false for a plain error")
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := AddContext(New(CodeParseError, "bad input"), CtxPath, "api.h")
		expected := "[PARSE_ERROR] bad input path=api.h"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}

		plain := AddContext(errors.New("disk full"), CtxModule, "api")
		if !IsCode(plain, CodeInternal) {
			t.Error("expected plain errors to be wrapped as INTERNAL_ERROR")
		}
		if AddContext(nil, CtxPath, "x") != nil {
			t.Error("expected nil error to stay nil")
		}
	})

	t.Run("CodeOf", func(t *testing.T) {
		if got := CodeOf(Wrap(New(CodeConflict, "schema"), CodeConflict, "load")); got != CodeConflict {
			t.Errorf("expected CONFLICT, got %s", got)
		}
		if got := CodeOf(errors.New("plain")); got != CodeInternal {
			t.Errorf("expected INTERNAL_ERROR, got %s", got)
		}
	})
}

func TestDomainError_ContextOrder(t *testing.T) {
	err := New(CodeNotFound, "no snapshot").(*DomainError)
	err.WithContext(CtxSymbol, "buf_new").WithContext(CtxModule, "buf").WithContext(CtxPath, "buf.h")

	expected := "[NOT_FOUND] no snapshot module=buf path=buf.h symbol=buf_new"
	for i := 0; i < 5; i++ {
		if got := err.Error(); got != expected {
			t.Fatalf("expected %s, got %s", expected, got)
		}
	}
}

func TestDomainError_LogValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	err := AddContext(Wrap(errors.New("eof"), CodeParseError, "parse header"), CtxPath, "api.h")
	logger.Warn("build failed", "error", err)

	out := buf.String()
	for _, want := range []string{"error.code=PARSE_ERROR", `error.msg="parse header"`, "error.cause=eof", "error.path=api.h"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %s", want, out)
		}
	}
}

// Package errors carries the coded errors cirgen returns across package
// boundaries. A code says what kind of failure happened (a header that does
// not parse, a snapshot that is missing, a config that fails validation);
// context fields say where.
package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

type ErrorCode string

const (
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeValidationError  ErrorCode = "VALIDATION_ERROR"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeInternal         ErrorCode = "INTERNAL_ERROR"
	CodeNotSupported     ErrorCode = "NOT_SUPPORTED"
	CodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	CodeParseError       ErrorCode = "PARSE_ERROR"
)

// Context keys used by the header, store and app packages.
const (
	CtxPath      = "path"
	CtxOperation = "operation"
	CtxModule    = "module"
	CtxSymbol    = "symbol"
)

// DomainError pairs a code with a message, an optional cause and the
// fields that locate the failure.
type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]any
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

func (e *DomainError) WithContext(key string, value any) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]any, 1)
	}
	e.Context[key] = value
	return e
}

// Error renders "[CODE] message: cause key=value ...", keys sorted.
func (e *DomainError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	for _, key := range e.contextKeys() {
		fmt.Fprintf(&b, " %s=%v", key, e.Context[key])
	}
	return b.String()
}

func (e *DomainError) Unwrap() error { return e.Err }

// LogValue lets slog print the code and context as attributes instead of
// one flattened string.
func (e *DomainError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("code", string(e.Code)),
		slog.String("msg", e.Message),
	}
	if e.Err != nil {
		attrs = append(attrs, slog.String("cause", e.Err.Error()))
	}
	for _, key := range e.contextKeys() {
		attrs = append(attrs, slog.Any(key, e.Context[key]))
	}
	return slog.GroupValue(attrs...)
}

func (e *DomainError) contextKeys() []string {
	keys := make([]string, 0, len(e.Context))
	for key := range e.Context {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// AddContext records key on the first DomainError in err's chain. Any other
// error is wrapped as INTERNAL_ERROR so the field is not lost.
func AddContext(err error, key string, value any) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return err
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]any{key: value},
	}
}

func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == code
}

// CodeOf reports the code of the outermost DomainError in err's chain.
// Errors without one are INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Package errors provides structured error types used across the application.
// We prefer these over raw fmt.Errorf strings to enable reliable checks with
// errors.Is / errors.As and to carry minimal context about the failure.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// MaxMessageLen bounds any error message surfaced to a caller.
const MaxMessageLen = 100

// ValidationError indicates invalid input/config provided by a caller/user.
type ValidationError struct {
	Op  string // where it happened (package.Function)
	Msg string // human friendly message (no PII)
	Err error  // underlying cause (optional)
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("validation: %s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("validation: %s: %s", e.Op, e.Msg)
}

func (e *ValidationError) Unwrap() error           { return e.Err }
func (e *ValidationError) Operation() string       { return e.Op }
func (e *ValidationError) Message() string         { return e.Msg }
func (e *ValidationError) Context() map[string]any { return map[string]any{"op": e.Op, "msg": e.Msg} }

func NewValidation(op, msg string, err error) error {
	return &ValidationError{Op: op, Msg: msg, Err: err}
}

// ProviderError represents a SERP fetch failure: network, timeout or non-2xx status.
type ProviderError struct {
	Op         string
	Keyword    string
	StatusCode int // 0 when no HTTP response was received
	Msg        string
	Err        error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Msg
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("serp: %s: %s: %v", e.Op, msg, e.Err)
	}
	return fmt.Sprintf("serp: %s: %s", e.Op, msg)
}

func (e *ProviderError) Unwrap() error     { return e.Err }
func (e *ProviderError) Operation() string { return e.Op }
func (e *ProviderError) Message() string   { return e.Msg }
func (e *ProviderError) Context() map[string]any {
	return map[string]any{"op": e.Op, "msg": e.Msg, "keyword": e.Keyword, "status": e.StatusCode}
}

func NewProvider(op, keyword, msg string, status int, err error) error {
	return &ProviderError{Op: op, Keyword: keyword, StatusCode: status, Msg: msg, Err: err}
}

// ClassificationError represents an intent-analysis failure: network or malformed
// JSON from the classifier.
type ClassificationError struct {
	Op      string
	Keyword string
	Msg     string
	Err     error
}

func (e *ClassificationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("intent: %s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("intent: %s: %s", e.Op, e.Msg)
}

func (e *ClassificationError) Unwrap() error     { return e.Err }
func (e *ClassificationError) Operation() string { return e.Op }
func (e *ClassificationError) Message() string   { return e.Msg }
func (e *ClassificationError) Context() map[string]any {
	return map[string]any{"op": e.Op, "msg": e.Msg, "keyword": e.Keyword}
}

func NewClassification(op, keyword, msg string, err error) error {
	return &ClassificationError{Op: op, Keyword: keyword, Msg: msg, Err: err}
}

// AggregateError is returned when every keyword of a request failed to fetch.
type AggregateError struct {
	Op       string
	Keywords []string
}

func (e *AggregateError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return "Error fetching SERP for all keywords: " + strings.Join(e.Keywords, ", ")
}

func (e *AggregateError) Operation() string { return e.Op }
func (e *AggregateError) Message() string   { return e.Error() }
func (e *AggregateError) Context() map[string]any {
	return map[string]any{"op": e.Op, "keywords": e.Keywords}
}

func NewAggregate(op string, keywords []string) error {
	return &AggregateError{Op: op, Keywords: append([]string(nil), keywords...)}
}

// IsKind helpers: allow callers to check error kind without type assertions.
// Example: if errors.Is(err, errors.ErrValidation) { ... }
var (
	ErrValidation     = &ValidationError{}
	ErrProvider       = &ProviderError{}
	ErrClassification = &ClassificationError{}
	ErrAggregate      = &AggregateError{}
)

// Is enables errors.Is(err, ErrValidation) via errors.As semantics.
// We delegate to errors.As with the zero-value pointer of each type.
func Is(err, target error) bool {
	if err == nil || target == nil {
		return errors.Is(err, target)
	}
	switch target.(type) {
	case *ValidationError:
		var v *ValidationError
		return errors.As(err, &v)
	case *ProviderError:
		var p *ProviderError
		return errors.As(err, &p)
	case *ClassificationError:
		var c *ClassificationError
		return errors.As(err, &c)
	case *AggregateError:
		var a *AggregateError
		return errors.As(err, &a)
	default:
		return errors.Is(err, target)
	}
}

// Head returns the first n bytes of s, backing off to a rune boundary.
func Head(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Truncate cuts s to at most n bytes on a rune boundary and appends "..." when it cut.
func Truncate(s string, n int) string {
	if h := Head(s, n); len(h) < len(s) {
		return h + "..."
	}
	return s
}

// Surface returns the message of err bounded to MaxMessageLen.
func Surface(err error) string {
	if err == nil {
		return ""
	}
	return Truncate(err.Error(), MaxMessageLen)
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

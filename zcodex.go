// Package zcodex defines the settings and error types shared by the zcodex
// completion pipeline and its command-line front end.
package zcodex

import (
	"errors"
	"fmt"
)

// Variant selects the endpoint shape a completion request is built for.
type Variant string

const (
	// VariantCompletion posts a plain prompt to the cloud /v1/completions endpoint.
	VariantCompletion Variant = "completion"
	// VariantChat posts a system/user message pair to the cloud chat endpoint.
	VariantChat Variant = "chat"
	// VariantLocalCompletion posts a plain prompt to a local llama.cpp-style /completion endpoint.
	VariantLocalCompletion Variant = "local_completion"
	// VariantLocalInfill posts an instruction-wrapped prompt plus prefix/suffix to a local server.
	VariantLocalInfill Variant = "local_infill"
)

// Variants lists every known variant in a stable order.
var Variants = []Variant{VariantCompletion, VariantChat, VariantLocalCompletion, VariantLocalInfill}

// ParseVariant validates a variant name.
func ParseVariant(s string) (Variant, error) {
	for _, v := range Variants {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown variant %q", s)
}

// Local reports whether the variant targets a locally hosted server.
func (v Variant) Local() bool {
	return v == VariantLocalCompletion || v == VariantLocalInfill
}

// Kind categorizes pipeline failures.
type Kind string

const (
	KindConfigMissing         Kind = "config_missing"
	KindConfigMalformed       Kind = "config_malformed"
	KindInvalidCursor         Kind = "invalid_cursor"
	KindTransportFailure      Kind = "transport_failure"
	KindResponseShapeMismatch Kind = "response_shape_mismatch"
)

// Error describes a categorized pipeline failure.
type Error struct {
	// Kind is a machine-readable category (e.g. "config_missing", "transport_failure").
	Kind Kind
	// Message is a human-readable description.
	Message string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrConfigMissing         = &Error{Kind: KindConfigMissing, Message: "settings file missing"}
	ErrConfigMalformed       = &Error{Kind: KindConfigMalformed, Message: "settings file malformed"}
	ErrInvalidCursor         = &Error{Kind: KindInvalidCursor, Message: "cursor offset out of range"}
	ErrTransportFailure      = &Error{Kind: KindTransportFailure, Message: "completion request failed"}
	ErrResponseShapeMismatch = &Error{Kind: KindResponseShapeMismatch, Message: "unexpected response shape"}
)

// Errorf builds an *Error of the given kind.
func Errorf(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the category of err, or "" when err is not a pipeline error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

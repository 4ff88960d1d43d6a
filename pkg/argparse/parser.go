// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argparse

import (
	"errors"
	"fmt"
	"strings"
)

// Parser converts the head of a token window into a typed value.
//
// Parse is offered every token that is still unconsumed and returns the
// value and the number of tokens it used. Expected failures (bad format,
// overflow) are reported as a *ParseError, never as a panic. Parse must not
// have side effects; calling it twice on the same input gives the same
// result.
type Parser interface {
	Parse(tokens []string) (value any, consumed int, err error)
}

// Formatter is implemented by parsers that can render a value back into
// the token form they accept.
type Formatter interface {
	Format(v any) (string, error)
}

var (
	// ErrInvalidFormat is wrapped by parse errors for malformed tokens.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrOutOfRange is wrapped by parse errors for values that do not fit
	// the target type or an explicit range.
	ErrOutOfRange = errors.New("value out of range")

	// ErrNoTokens is wrapped when a parser is offered an empty window.
	ErrNoTokens = errors.New("no tokens")

	// ErrWrongType is returned by Format when the value is not of the
	// parser's type.
	ErrWrongType = errors.New("value has wrong type")
)

// ParseError is returned when tokens cannot be converted.
type ParseError struct {
	Arg      string   // Argument being parsed; set by the tree walker
	Type     TypeID   // Target type
	Tokens   []string // Tokens the failure was about
	Consumed int      // Tokens consumed before failing
	Reason   string   // User-facing reason, without the tokens
	Err      error    // Underlying cause
}

func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Arg != "" {
		fmt.Fprintf(&b, "argument %q: ", e.Arg)
	}
	reason := e.Reason
	if reason == "" && e.Err != nil {
		reason = e.Err.Error()
	}
	b.WriteString(reason)
	if len(e.Tokens) > 0 {
		fmt.Fprintf(&b, " (got %q)", strings.Join(e.Tokens, " "))
	}
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// valueError carries a user-facing message and a sentinel kind.
type valueError struct {
	msg  string
	kind error
}

func (e *valueError) Error() string { return e.msg }
func (e *valueError) Unwrap() error { return e.kind }

// Invalid returns an error wrapping ErrInvalidFormat with the given message.
func Invalid(format string, args ...any) error {
	return &valueError{msg: fmt.Sprintf(format, args...), kind: ErrInvalidFormat}
}

// OutOfRange returns an error wrapping ErrOutOfRange with the given message.
func OutOfRange(format string, args ...any) error {
	return &valueError{msg: fmt.Sprintf(format, args...), kind: ErrOutOfRange}
}

func newParseError(id TypeID, tokens []string, consumed int, err error) *ParseError {
	var pe *ParseError
	if errors.As(err, &pe) {
		out := *pe
		if out.Type == "" {
			out.Type = id
		}
		if out.Tokens == nil {
			out.Tokens = tokens
		}
		return &out
	}
	return &ParseError{
		Type:     id,
		Tokens:   tokens,
		Consumed: consumed,
		Reason:   err.Error(),
		Err:      err,
	}
}

func noTokens(id TypeID) *ParseError {
	return &ParseError{Type: id, Reason: fmt.Sprintf("expected a %s value", id), Err: ErrNoTokens}
}

type scalar[T any] struct {
	id     TypeID
	parse  func(string) (T, error)
	format func(T) string
}

// Scalar returns a Parser that consumes exactly one token. format may be
// nil, in which case values are rendered with fmt.Sprint.
func Scalar[T any](parse func(string) (T, error), format func(T) string) Parser {
	return &scalar[T]{id: TypeFor[T](), parse: parse, format: format}
}

func (s *scalar[T]) Parse(tokens []string) (any, int, error) {
	if len(tokens) == 0 {
		return nil, 0, noTokens(s.id)
	}
	v, err := s.parse(tokens[0])
	if err != nil {
		return nil, 1, newParseError(s.id, tokens[:1:1], 1, err)
	}
	return v, 1, nil
}

func (s *scalar[T]) Format(v any) (string, error) {
	t, ok := v.(T)
	if !ok {
		return "", fmt.Errorf("format %T as %s: %w", v, s.id, ErrWrongType)
	}
	if s.format == nil {
		return fmt.Sprint(t), nil
	}
	return s.format(t), nil
}

// textParser consumes every remaining token.
type textParser struct{}

func (textParser) Parse(tokens []string) (any, int, error) {
	if len(tokens) == 0 {
		return nil, 0, noTokens(TypeText)
	}
	return Text(strings.Join(tokens, " ")), len(tokens), nil
}

func (textParser) Format(v any) (string, error) {
	t, ok := v.(Text)
	if !ok {
		return "", fmt.Errorf("format %T as %s: %w", v, TypeText, ErrWrongType)
	}
	return string(t), nil
}

// stringsParser consumes every remaining token, keeping token boundaries.
type stringsParser struct{}

func (stringsParser) Parse(tokens []string) (any, int, error) {
	if len(tokens) == 0 {
		return nil, 0, noTokens(TypeStrings)
	}
	return append([]string(nil), tokens...), len(tokens), nil
}

func (stringsParser) Format(v any) (string, error) {
	s, ok := v.([]string)
	if !ok {
		return "", fmt.Errorf("format %T as %s: %w", v, TypeStrings, ErrWrongType)
	}
	return strings.Join(s, " "), nil
}

// Greedy returns the parser for Text: it consumes all remaining tokens.
func Greedy() Parser { return textParser{} }

// Rest returns the parser for []string: it consumes all remaining tokens
// and keeps them separate.
func Rest() Parser { return stringsParser{} }

// FormatValue renders v with p if p is a Formatter, and with fmt.Sprint
// otherwise.
func FormatValue(p Parser, v any) string {
	if f, ok := p.(Formatter); ok {
		if s, err := f.Format(v); err == nil {
			return s
		}
	}
	return fmt.Sprint(v)
}

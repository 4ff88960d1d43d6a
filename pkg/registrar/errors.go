// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package registrar

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoInput is returned by Dispatch for an empty token list.
	ErrNoInput = errors.New("no command given")
	// ErrAlreadyInitialized is returned by every Init call after the first.
	ErrAlreadyInitialized = errors.New("registrar already initialized")
)

// UnrecognizedCommandSourceError is returned when no factory in the chain
// recognizes an object.
type UnrecognizedCommandSourceError struct {
	Type string // Go type of the object
}

func (e *UnrecognizedCommandSourceError) Error() string {
	return fmt.Sprintf("no command factory recognizes %s", e.Type)
}

// DuplicateCommandError is returned when a root command's name or alias is
// already taken by a registered root.
type DuplicateCommandError struct {
	Token    string
	Existing string // Name of the registered root holding Token
	Command  string // Name of the rejected root
}

func (e *DuplicateCommandError) Error() string {
	if e.Existing == e.Command {
		return fmt.Sprintf("command %q is already registered", e.Command)
	}
	return fmt.Sprintf("command %q: token %q is already used by %q", e.Command, e.Token, e.Existing)
}

// UnknownCommandError is returned by Dispatch when the first token names
// no registered root.
type UnknownCommandError struct {
	Token       string
	Suggestions []string
}

func (e *UnknownCommandError) Error() string {
	msg := fmt.Sprintf("unknown command: %s", e.Token)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Suggestions, " or "))
	}
	return msg
}

// Failure is one failed object of a batch registration.
type Failure struct {
	Index int    // Position of the object in the batch
	Type  string // Go type of the object
	Err   error
}

// BatchError lists the objects of a batch that failed to register. The
// other objects of the batch are registered.
type BatchError struct {
	Failures []Failure
}

func (e *BatchError) Error() string {
	if len(e.Failures) == 1 {
		f := e.Failures[0]
		return fmt.Sprintf("registering object %d (%s): %v", f.Index, f.Type, f.Err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d objects failed to register:", len(e.Failures))
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "\n  object %d (%s): %v", f.Index, f.Type, f.Err)
	}
	return b.String()
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

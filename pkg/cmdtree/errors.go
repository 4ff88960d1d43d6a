// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmdtree

import (
	"fmt"
	"strings"

	"github.com/yeetrun/cmdtree/pkg/argparse"
)

// BuildError is returned by Builder.Build when the command definition is
// malformed. No tree is produced.
type BuildError struct {
	Path   []string // Command path of the offending node
	Reason string
}

func (e *BuildError) Error() string {
	if len(e.Path) == 0 {
		return "invalid command: " + e.Reason
	}
	return fmt.Sprintf("invalid command %q: %s", strings.Join(e.Path, " "), e.Reason)
}

// MissingArgumentError is returned when a required argument has no token
// left and no default.
type MissingArgumentError struct {
	Path     []string
	Arg      string
	Type     argparse.TypeID
	Received []string // Argument tokens the command did receive
}

func (e *MissingArgumentError) Error() string {
	msg := fmt.Sprintf("'%s' requires argument <%s> (%s)", strings.Join(e.Path, " "), e.Arg, e.Type)
	if len(e.Received) > 0 {
		msg += fmt.Sprintf(", got %q", strings.Join(e.Received, " "))
	}
	return msg
}

// NotExecutableError is returned when dispatch stops at a node that has no
// handler, such as a command that only groups subcommands.
type NotExecutableError struct {
	Path     []string
	Children []string // Canonical names of the node's subcommands
}

func (e *NotExecutableError) Error() string {
	msg := fmt.Sprintf("'%s' is not executable", strings.Join(e.Path, " "))
	if len(e.Children) > 0 {
		msg += fmt.Sprintf("; available subcommands: %s", strings.Join(e.Children, ", "))
	}
	return msg
}

// UnexpectedArgumentsError is returned when tokens remain after every
// argument of the resolved command has been bound.
type UnexpectedArgumentsError struct {
	Path   []string
	Tokens []string
}

func (e *UnexpectedArgumentsError) Error() string {
	return fmt.Sprintf("'%s' got unexpected argument(s): %s", strings.Join(e.Path, " "), strings.Join(e.Tokens, " "))
}

// UnknownSubcommandError is returned when a command that only groups
// subcommands receives a token matching none of them.
type UnknownSubcommandError struct {
	Path        []string
	Token       string
	Suggestions []string
}

func (e *UnknownSubcommandError) Error() string {
	msg := fmt.Sprintf("unknown command in '%s': %s", strings.Join(e.Path, " "), e.Token)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Suggestions, " or "))
	}
	return msg
}

// ExecutionError wraps a failure returned (or panicked) by a handler.
type ExecutionError struct {
	Path []string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("'%s' failed: %v", strings.Join(e.Path, " "), e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

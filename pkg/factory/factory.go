// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package factory turns host objects into command trees.
//
// A Factory inspects an object's shape and either declines it or builds a
// tree from it. Factories are tried in order by a registrar; the first one
// that recognizes an object decides its outcome.
package factory

import (
	"fmt"
	"strings"

	"github.com/yeetrun/cmdtree/pkg/argparse"
	"github.com/yeetrun/cmdtree/pkg/cmdtree"
)

// Factory builds a command tree from an object.
//
// Create returns (nil, false, nil) when obj is not of the shape the factory
// handles; the decision is made by inspecting obj only. When obj is of that
// shape, Create returns either (tree, true, nil) or (nil, true, err) if obj
// is malformed. Create must not mutate parsers.
type Factory interface {
	Create(parsers *argparse.Registry, obj any) (*cmdtree.Tree, bool, error)
}

// Func adapts a function to a Factory.
type Func func(parsers *argparse.Registry, obj any) (*cmdtree.Tree, bool, error)

func (f Func) Create(parsers *argparse.Registry, obj any) (*cmdtree.Tree, bool, error) {
	return f(parsers, obj)
}

// ArgDecl declares an argument by type. Factories resolve it to a
// cmdtree.Arg by looking the type up in the parser registry.
type ArgDecl struct {
	Name        string
	Type        argparse.TypeID
	Description string
	Optional    bool
	// Default, if non-nil, makes the argument optional. A string default
	// for a non-string type is parsed with the argument's parser.
	Default any
}

// UnknownTypeError is returned when an argument names a type that has no
// registered parser.
type UnknownTypeError struct {
	Command string
	Arg     string
	Type    argparse.TypeID
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("command %q: argument %q: no parser registered for type %s", e.Command, e.Arg, e.Type)
}

// InvalidDefaultError is returned when a default cannot be parsed.
type InvalidDefaultError struct {
	Command string
	Arg     string
	Default string
	Err     error
}

func (e *InvalidDefaultError) Error() string {
	return fmt.Sprintf("command %q: argument %q: invalid default %q: %v", e.Command, e.Arg, e.Default, e.Err)
}

func (e *InvalidDefaultError) Unwrap() error {
	return e.Err
}

// ResolveArg binds d to its parser from parsers.
func ResolveArg(parsers *argparse.Registry, command string, d ArgDecl) (cmdtree.Arg, error) {
	p, ok := parsers.Lookup(d.Type)
	if !ok {
		return cmdtree.Arg{}, &UnknownTypeError{Command: command, Arg: d.Name, Type: d.Type}
	}
	a := cmdtree.Arg{
		Name:        d.Name,
		Type:        d.Type,
		Description: d.Description,
		Optional:    d.Optional,
		Parser:      p,
	}
	if d.Default == nil {
		return a, nil
	}
	def := d.Default
	if s, ok := def.(string); ok && d.Type != argparse.TypeString {
		v, err := parseDefault(p, s)
		if err != nil {
			return cmdtree.Arg{}, &InvalidDefaultError{Command: command, Arg: d.Name, Default: s, Err: err}
		}
		def = v
	}
	a.Default = def
	a.HasDefault = true
	return a, nil
}

func parseDefault(p argparse.Parser, s string) (any, error) {
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		tokens = []string{s}
	}
	v, n, err := p.Parse(tokens)
	if err != nil {
		return nil, err
	}
	if n != len(tokens) {
		return nil, fmt.Errorf("parser consumed %d of %d tokens", n, len(tokens))
	}
	return v, nil
}

// Defaults returns the built-in factories in priority order. handlers
// binds manifest commands by handler name.
func Defaults(handlers map[string]cmdtree.Handler) []Factory {
	return []Factory{
		Prebuilt{},
		Interface{},
		Tagged{},
		&Manifest{Handlers: handlers},
		Yargs{},
	}
}

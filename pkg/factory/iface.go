// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package factory

import (
	"context"
	"fmt"

	"github.com/yeetrun/cmdtree/pkg/argparse"
	"github.com/yeetrun/cmdtree/pkg/cmdtree"
)

// Command is a host object that describes and runs one command.
type Command interface {
	Name() string
	Description() string
	Args() []ArgDecl
	Run(ctx context.Context, inv *cmdtree.Invocation) (any, error)
}

// Group is a host object that only groups subcommands.
type Group interface {
	Name() string
	Description() string
	Subcommands() []any
}

// Aliaser is implemented by commands and groups with alternate names.
type Aliaser interface {
	Aliases() []string
}

// Parent is implemented by commands that also have subcommands. Each
// subcommand must itself be a Command or a Group.
type Parent interface {
	Subcommands() []any
}

// Hider is implemented by commands that should not be listed in help.
type Hider interface {
	Hidden() bool
}

// Unwrapper is implemented by commands wrapped by middleware. The optional
// interfaces above are looked up along the unwrap chain.
type Unwrapper interface {
	Unwrap() Command
}

// Interface accepts values implementing Command or Group.
type Interface struct{}

func (f Interface) Create(parsers *argparse.Registry, obj any) (*cmdtree.Tree, bool, error) {
	switch obj.(type) {
	case Command, Group:
	default:
		return nil, false, nil
	}
	b, err := f.builder(parsers, obj, 0)
	if err != nil {
		return nil, true, err
	}
	t, err := b.Build()
	if err != nil {
		return nil, true, err
	}
	return t, true, nil
}

// maxDepth bounds Subcommands recursion so that an object listing itself
// fails instead of recursing forever.
const maxDepth = 64

func (f Interface) builder(parsers *argparse.Registry, obj any, depth int) (*cmdtree.Builder, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("command nesting exceeds %d levels", maxDepth)
	}
	var b *cmdtree.Builder
	switch v := obj.(type) {
	case Command:
		b = cmdtree.New(v.Name()).Describe(v.Description()).Run(v.Run)
		for _, d := range v.Args() {
			a, err := ResolveArg(parsers, v.Name(), d)
			if err != nil {
				return nil, err
			}
			b.Arg(a)
		}
	case Group:
		b = cmdtree.New(v.Name()).Describe(v.Description())
	default:
		return nil, fmt.Errorf("subcommand of type %T is neither a Command nor a Group", obj)
	}
	if a, ok := lookup[Aliaser](obj); ok {
		b.Alias(a.Aliases()...)
	}
	if h, ok := lookup[Hider](obj); ok && h.Hidden() {
		b.Hide()
	}
	if p, ok := lookup[Parent](obj); ok {
		for _, sub := range p.Subcommands() {
			child, err := f.builder(parsers, sub, depth+1)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", b.Name(), err)
			}
			b.Sub(child)
		}
	}
	return b, nil
}

// lookup finds T on obj or on any command it wraps.
func lookup[T any](obj any) (T, bool) {
	for obj != nil {
		if v, ok := obj.(T); ok {
			return v, true
		}
		u, ok := obj.(Unwrapper)
		if !ok {
			break
		}
		obj = u.Unwrap()
	}
	var zero T
	return zero, false
}

// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmdtree

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"tailscale.com/util/mak"
	"tailscale.com/util/set"
)

// Builder assembles a Tree. Builders are append-only; Build validates the
// whole definition and returns an immutable Tree.
//
//	tree, err := cmdtree.New("remote").
//	    Describe("Manage remotes").
//	    Sub(cmdtree.New("add").
//	        Arg(cmdtree.Arg{Name: "name", Type: argparse.TypeString, Parser: p}).
//	        Run(addRemote)).
//	    Build()
type Builder struct {
	name        string
	aliases     []string
	description string
	usage       string
	hidden      bool
	args        []Arg
	subs        []*Builder
	handler     Handler
}

// New returns a Builder for a command invoked as name.
func New(name string) *Builder {
	return &Builder{name: name}
}

// Name returns the command name.
func (b *Builder) Name() string { return b.name }

// Alias adds alternate invocation tokens.
func (b *Builder) Alias(aliases ...string) *Builder {
	b.aliases = append(b.aliases, aliases...)
	return b
}

// Describe sets the one-line description.
func (b *Builder) Describe(desc string) *Builder {
	b.description = desc
	return b
}

// Usage sets a free-form usage suffix shown in help.
func (b *Builder) Usage(usage string) *Builder {
	b.usage = usage
	return b
}

// Hide keeps the command out of help listings and suggestions. It can
// still be invoked.
func (b *Builder) Hide() *Builder {
	b.hidden = true
	return b
}

// Arg appends a positional argument.
func (b *Builder) Arg(args ...Arg) *Builder {
	b.args = append(b.args, args...)
	return b
}

// Sub appends subcommands.
func (b *Builder) Sub(children ...*Builder) *Builder {
	b.subs = append(b.subs, children...)
	return b
}

// Run sets the handler.
func (b *Builder) Run(h Handler) *Builder {
	b.handler = h
	return b
}

// Build validates the definition and returns the tree.
func (b *Builder) Build() (*Tree, error) {
	return b.build(nil, make(set.Set[*Builder]))
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Tree {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}

func (b *Builder) build(parent []string, onPath set.Set[*Builder]) (*Tree, error) {
	path := append(append([]string(nil), parent...), b.name)
	fail := func(format string, args ...any) (*Tree, error) {
		return nil, &BuildError{Path: path, Reason: fmt.Sprintf(format, args...)}
	}
	if onPath.Contains(b) {
		return fail("command is its own descendant")
	}
	onPath.Add(b)
	defer onPath.Delete(b)

	if err := validToken(b.name); err != nil {
		return fail("name: %v", err)
	}
	seenAlias := set.Of(b.name)
	for _, alias := range b.aliases {
		if err := validToken(alias); err != nil {
			return fail("alias: %v", err)
		}
		if seenAlias.Contains(alias) {
			return fail("duplicate alias %q", alias)
		}
		seenAlias.Add(alias)
	}

	args, err := validateArgs(b.args)
	if err != nil {
		return fail("%v", err)
	}

	t := &Tree{
		name:        b.name,
		aliases:     append([]string(nil), b.aliases...),
		description: b.description,
		usage:       b.usage,
		hidden:      b.hidden,
		args:        args,
		handler:     b.handler,
	}
	for _, sb := range b.subs {
		if sb == nil {
			return fail("nil subcommand")
		}
		child, err := sb.build(path, onPath)
		if err != nil {
			return nil, err
		}
		for _, tok := range child.Tokens() {
			if other, ok := t.index[tok]; ok {
				return fail("subcommand token %q used by both %q and %q", tok, other.name, child.name)
			}
			mak.Set(&t.index, tok, child)
		}
		t.children = append(t.children, child)
	}
	sort.Slice(t.children, func(i, j int) bool { return t.children[i].name < t.children[j].name })
	return t, nil
}

func validateArgs(in []Arg) ([]Arg, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]Arg, len(in))
	names := make(set.Set[string])
	sawOptional := ""
	for i, a := range in {
		if a.Name == "" {
			return nil, fmt.Errorf("argument %d has no name", i)
		}
		if names.Contains(a.Name) {
			return nil, fmt.Errorf("duplicate argument %q", a.Name)
		}
		names.Add(a.Name)
		if a.Type == "" {
			return nil, fmt.Errorf("argument %q has no type", a.Name)
		}
		if a.Parser == nil {
			return nil, fmt.Errorf("argument %q: no parser for type %s", a.Name, a.Type)
		}
		if a.HasDefault {
			a.Optional = true
		}
		if a.Optional {
			if sawOptional == "" {
				sawOptional = a.Name
			}
		} else if sawOptional != "" {
			return nil, fmt.Errorf("required argument %q follows optional argument %q", a.Name, sawOptional)
		}
		out[i] = a
	}
	return out, nil
}

func validToken(s string) error {
	if s == "" {
		return fmt.Errorf("empty")
	}
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%q contains whitespace", s)
	}
	return nil
}

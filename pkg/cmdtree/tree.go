// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmdtree

import (
	"context"
	"slices"

	"github.com/yeetrun/cmdtree/pkg/argparse"
)

// Handler is the executable binding of a command.
type Handler func(ctx context.Context, inv *Invocation) (any, error)

// Tree is one command node. A Tree is immutable once built; every accessor
// returns copies, so a Tree may be shared between goroutines freely.
type Tree struct {
	name        string
	aliases     []string
	description string
	usage       string
	hidden      bool
	args        []Arg
	children    []*Tree          // sorted by name
	index       map[string]*Tree // name and aliases of children
	handler     Handler
}

// TreeProvider is implemented by host objects that build their own tree.
type TreeProvider interface {
	CommandTree() (*Tree, error)
}

func (t *Tree) Name() string        { return t.name }
func (t *Tree) Description() string { return t.description }
func (t *Tree) Usage() string       { return t.usage }
func (t *Tree) Hidden() bool        { return t.hidden }

// Aliases returns the alternate invocation tokens of t.
func (t *Tree) Aliases() []string { return slices.Clone(t.aliases) }

// Tokens returns the name followed by the aliases.
func (t *Tree) Tokens() []string {
	return append([]string{t.name}, t.aliases...)
}

// Args returns the declared arguments in positional order.
func (t *Tree) Args() []Arg { return slices.Clone(t.args) }

// Executable reports whether t has a handler.
func (t *Tree) Executable() bool { return t.handler != nil }

// IsGroup reports whether t only groups subcommands: it has children but
// neither a handler nor arguments. A stray token under such a node names an
// unknown subcommand.
func (t *Tree) IsGroup() bool {
	return t.handler == nil && len(t.args) == 0 && len(t.children) > 0
}

// Children returns the direct subcommands sorted by name.
func (t *Tree) Children() []*Tree { return slices.Clone(t.children) }

// Child returns the direct subcommand invoked by token (a name or alias).
func (t *Tree) Child(token string) (*Tree, bool) {
	c, ok := t.index[token]
	return c, ok
}

// ChildNames returns the canonical names of the direct subcommands.
func (t *Tree) ChildNames() []string {
	names := make([]string, 0, len(t.children))
	for _, c := range t.children {
		names = append(names, c.name)
	}
	return names
}

// childTokens returns every token that selects a visible child.
func (t *Tree) childTokens() []string {
	tokens := make([]string, 0, len(t.index))
	for _, c := range t.children {
		if c.hidden {
			continue
		}
		tokens = append(tokens, c.Tokens()...)
	}
	return tokens
}

// Walk calls fn for t and every descendant in depth-first pre-order. path
// holds the canonical names from t to the node. Returning false from fn
// skips the node's children.
func (t *Tree) Walk(fn func(path []string, node *Tree) bool) {
	t.walk(nil, fn)
}

func (t *Tree) walk(parent []string, fn func([]string, *Tree) bool) {
	path := append(slices.Clip(parent), t.name)
	if !fn(path, t) {
		return
	}
	for _, c := range t.children {
		c.walk(path, fn)
	}
}

// Resolve descends from t along tokens while they name subcommands. It
// returns the node reached, the canonical path to it (starting with t's
// name), and the tokens that were not consumed.
func (t *Tree) Resolve(tokens []string) (node *Tree, path []string, rest []string) {
	node = t
	path = []string{t.name}
	rest = tokens
	for len(rest) > 0 {
		next, ok := node.index[rest[0]]
		if !ok {
			break
		}
		node = next
		path = append(path, next.name)
		rest = rest[1:]
	}
	return node, path, rest
}

// Outline is a plain snapshot of a tree, suitable for comparison and for
// encoding as JSON or YAML.
type Outline struct {
	Name        string       `json:"name" yaml:"name"`
	Aliases     []string     `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Hidden      bool         `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Executable  bool         `json:"executable" yaml:"executable"`
	Args        []ArgOutline `json:"args,omitempty" yaml:"args,omitempty"`
	Children    []Outline    `json:"children,omitempty" yaml:"children,omitempty"`
}

// ArgOutline is the snapshot of an Arg.
type ArgOutline struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Optional    bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
	Default     string `json:"default,omitempty" yaml:"default,omitempty"`
}

// Outline returns a snapshot of t and its descendants.
func (t *Tree) Outline() Outline {
	o := Outline{
		Name:        t.name,
		Aliases:     slices.Clone(t.aliases),
		Description: t.description,
		Hidden:      t.hidden,
		Executable:  t.handler != nil,
	}
	for _, a := range t.args {
		ao := ArgOutline{
			Name:        a.Name,
			Type:        a.Type.String(),
			Description: a.Description,
			Optional:    !a.Required(),
		}
		if a.HasDefault {
			ao.Default = argparse.FormatValue(a.Parser, a.Default)
		}
		o.Args = append(o.Args, ao)
	}
	for _, c := range t.children {
		o.Children = append(o.Children, c.Outline())
	}
	return o
}

// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package registrar owns the parser registry, the factory chain and the set
// of registered command trees, and dispatches tokenized input against them.
//
// Parsers are registered first. The first call that resolves an object
// freezes the parser registry; from then on trees may be registered from
// any number of goroutines and dispatched concurrently.
package registrar

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/yeetrun/cmdtree/pkg/argparse"
	"github.com/yeetrun/cmdtree/pkg/cmdtree"
	"github.com/yeetrun/cmdtree/pkg/factory"
	"github.com/yeetrun/cmdtree/pkg/manifest"
	"golang.org/x/sync/errgroup"
	"tailscale.com/syncs"
	"tailscale.com/types/lazy"
)

// Chain is an ordered list of factories. The first factory that recognizes
// an object, or that returns an error, decides the outcome.
type Chain []factory.Factory

// Resolve runs obj through the chain.
func (c Chain) Resolve(parsers *argparse.Registry, obj any) (*cmdtree.Tree, factory.Factory, error) {
	for _, f := range c {
		t, ok, err := f.Create(parsers, obj)
		if err != nil {
			return nil, f, err
		}
		if !ok {
			continue
		}
		if t == nil {
			return nil, f, fmt.Errorf("%T matched %T but built no tree", f, obj)
		}
		return t, f, nil
	}
	return nil, nil, &UnrecognizedCommandSourceError{Type: fmt.Sprintf("%T", obj)}
}

// DefaultConcurrency bounds RegisterAll unless WithConcurrency is given.
const DefaultConcurrency = 8

// Registrar registers command trees and dispatches to them. The zero value
// is not usable; use New.
type Registrar struct {
	parsers     *argparse.Registry
	chain       Chain
	log         zerolog.Logger
	concurrency int
	handlers    map[string]cmdtree.Handler

	mu    sync.Mutex // serializes insertion into roots
	roots syncs.Map[string, *cmdtree.Tree]

	initOnce lazy.SyncValue[error]
}

// Option configures a Registrar.
type Option func(*Registrar)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Registrar) { r.log = log }
}

// WithParsers sets the parser registry. The default is argparse.Default().
func WithParsers(p *argparse.Registry) Option {
	return func(r *Registrar) { r.parsers = p }
}

// WithFactories replaces the factory chain.
func WithFactories(fs ...factory.Factory) Option {
	return func(r *Registrar) { r.chain = Chain(fs) }
}

// WithHandlers sets the handlers the default manifest factory binds by
// name. It has no effect together with WithFactories.
func WithHandlers(h map[string]cmdtree.Handler) Option {
	return func(r *Registrar) { r.handlers = h }
}

// WithConcurrency bounds the number of objects RegisterAll resolves at
// once.
func WithConcurrency(n int) Option {
	return func(r *Registrar) { r.concurrency = n }
}

// New returns a Registrar.
func New(opts ...Option) *Registrar {
	r := &Registrar{
		log:         zerolog.Nop(),
		concurrency: DefaultConcurrency,
	}
	for _, o := range opts {
		o(r)
	}
	if r.parsers == nil {
		r.parsers = argparse.Default()
	}
	if r.chain == nil {
		r.chain = Chain(factory.Defaults(r.handlers))
	}
	if r.concurrency < 1 {
		r.concurrency = 1
	}
	return r
}

// Parsers returns the parser registry. Register custom parsers on it
// before the first object is registered.
func (r *Registrar) Parsers() *argparse.Registry {
	return r.parsers
}

// Register resolves obj through the factory chain and adds the resulting
// tree. Nothing is stored if resolution fails or if any of the root's
// tokens is taken.
func (r *Registrar) Register(obj any) error {
	r.parsers.Freeze()
	tree, f, err := r.chain.Resolve(r.parsers, obj)
	if err != nil {
		r.log.Warn().Str("type", fmt.Sprintf("%T", obj)).Err(err).Msg("command not registered")
		return err
	}
	if err := r.insert(tree); err != nil {
		r.log.Warn().Str("command", tree.Name()).Err(err).Msg("command not registered")
		return err
	}
	r.log.Debug().
		Str("command", tree.Name()).
		Strs("aliases", tree.Aliases()).
		Str("factory", fmt.Sprintf("%T", f)).
		Msg("registered command")
	return nil
}

// insert adds t under its name and aliases, all or nothing.
func (r *Registrar) insert(t *cmdtree.Tree) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tokens := t.Tokens()
	for _, tok := range tokens {
		if existing, ok := r.roots.Load(tok); ok {
			return &DuplicateCommandError{Token: tok, Existing: existing.Name(), Command: t.Name()}
		}
	}
	for _, tok := range tokens {
		r.roots.Store(tok, t)
	}
	return nil
}

// RegisterAll registers objs concurrently. Every object is attempted; the
// failures are returned together as a *BatchError. When two objects claim
// the same token, which of them is registered is unspecified.
func (r *Registrar) RegisterAll(ctx context.Context, objs ...any) error {
	r.parsers.Freeze()
	errs := make([]error, len(objs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, obj := range objs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = r.Register(obj)
			return nil
		})
	}
	_ = g.Wait() // each goroutine records its own error

	var be BatchError
	for i, err := range errs {
		if err != nil {
			be.Failures = append(be.Failures, Failure{Index: i, Type: fmt.Sprintf("%T", objs[i]), Err: err})
		}
	}
	if len(be.Failures) > 0 {
		return &be
	}
	return nil
}

// RegisterManifest registers every top-level command of f.
func (r *Registrar) RegisterManifest(ctx context.Context, f *manifest.File) error {
	objs := make([]any, len(f.Commands))
	for i := range f.Commands {
		objs[i] = &f.Commands[i]
	}
	if err := r.RegisterAll(ctx, objs...); err != nil {
		if f.Source != "" {
			return fmt.Errorf("%s: %w", f.Source, err)
		}
		return err
	}
	return nil
}

// Init runs setup against the parser registry and then registers sources.
// It runs once; later calls return ErrAlreadyInitialized.
func (r *Registrar) Init(ctx context.Context, setup func(*argparse.Registry) error, sources ...any) error {
	first := false
	err := r.initOnce.Get(func() error {
		first = true
		if setup != nil {
			if err := setup(r.parsers); err != nil {
				return fmt.Errorf("parser setup: %w", err)
			}
		}
		return r.RegisterAll(ctx, sources...)
	})
	if !first {
		return ErrAlreadyInitialized
	}
	return err
}

// Lookup returns the root invoked by token (a name or alias).
func (r *Registrar) Lookup(token string) (*cmdtree.Tree, bool) {
	return r.roots.Load(token)
}

// Trees returns the registered roots sorted by name.
func (r *Registrar) Trees() []*cmdtree.Tree {
	seen := make(map[*cmdtree.Tree]bool)
	var out []*cmdtree.Tree
	for _, t := range r.roots.All() {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// tokens returns every token that selects a visible root.
func (r *Registrar) tokens() []string {
	var out []string
	for tok, t := range r.roots.All() {
		if !t.Hidden() {
			out = append(out, tok)
		}
	}
	sort.Strings(out)
	return out
}

// Dispatch runs tokens against the registered trees. tokens[0] selects the
// root; the rest are handed to the root's Execute.
func (r *Registrar) Dispatch(ctx context.Context, tokens []string) (*cmdtree.Result, error) {
	if len(tokens) == 0 {
		return nil, ErrNoInput
	}
	root, ok := r.roots.Load(tokens[0])
	if !ok {
		return nil, &UnknownCommandError{Token: tokens[0], Suggestions: cmdtree.Suggest(tokens[0], r.tokens())}
	}
	res, err := root.Execute(ctx, tokens[1:])
	if err != nil {
		r.log.Debug().Strs("tokens", tokens).Err(err).Msg("dispatch failed")
		return nil, err
	}
	return res, nil
}

// Help renders help for the command named by tokens without running it.
// With no tokens it lists the registered roots.
func (r *Registrar) Help(tokens []string) (string, error) {
	if len(tokens) == 0 {
		return "COMMANDS:\n" + cmdtree.Summary(r.Trees()), nil
	}
	root, ok := r.roots.Load(tokens[0])
	if !ok {
		return "", &UnknownCommandError{Token: tokens[0], Suggestions: cmdtree.Suggest(tokens[0], r.tokens())}
	}
	node, path, rest := root.Resolve(tokens[1:])
	if len(rest) > 0 && node.IsGroup() {
		var names []string
		for _, c := range node.Children() {
			if !c.Hidden() {
				names = append(names, c.Tokens()...)
			}
		}
		return "", &cmdtree.UnknownSubcommandError{Path: path, Token: rest[0], Suggestions: cmdtree.Suggest(rest[0], names)}
	}
	return cmdtree.Help(node, path), nil
}

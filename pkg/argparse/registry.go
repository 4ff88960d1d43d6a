// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argparse

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"tailscale.com/util/mak"
)

// ErrRegistryFrozen is returned by Register after Freeze.
var ErrRegistryFrozen = errors.New("parser registry is frozen")

// DuplicateParserError is returned when a parser is already registered for
// a type. The existing parser is left in place.
type DuplicateParserError struct {
	Type TypeID
}

func (e *DuplicateParserError) Error() string {
	return fmt.Sprintf("parser for type %s already registered", e.Type)
}

// Registry maps a TypeID to its Parser.
//
// The host fills the registry before building command trees and calls
// Freeze once it is done; after that the registry is read-only.
type Registry struct {
	mu      sync.RWMutex
	parsers map[TypeID]Parser
	frozen  bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds p as the parser for id.
func (r *Registry) Register(id TypeID, p Parser) error {
	if id == "" {
		return errors.New("register parser: empty type id")
	}
	if p == nil {
		return fmt.Errorf("register parser for %s: nil parser", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("register parser for %s: %w", id, ErrRegistryFrozen)
	}
	if _, ok := r.parsers[id]; ok {
		return &DuplicateParserError{Type: id}
	}
	mak.Set(&r.parsers, id, p)
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(id TypeID, p Parser) {
	if err := r.Register(id, p); err != nil {
		panic(err)
	}
}

// Register adds p as the parser for T.
func Register[T any](r *Registry, p Parser) error {
	return r.Register(TypeFor[T](), p)
}

// Lookup returns the parser registered for id. A missing parser is not an
// error; callers decide what absence means.
func (r *Registry) Lookup(id TypeID) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[id]
	return p, ok
}

// Freeze makes the registry read-only. It is safe to call more than once.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Len returns the number of registered parsers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.parsers)
}

// Types returns the registered type ids, sorted.
func (r *Registry) Types() []TypeID {
	r.mu.RLock()
	ids := make([]TypeID, 0, len(r.parsers))
	for id := range r.parsers {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

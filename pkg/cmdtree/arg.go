// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmdtree

import (
	"github.com/yeetrun/cmdtree/pkg/argparse"
)

// Arg describes a positional argument. Arguments bind in declared order.
type Arg struct {
	Name        string
	Type        argparse.TypeID
	Description string
	Optional    bool
	Default     any
	HasDefault  bool // Default is set; implies Optional
	Parser      argparse.Parser
}

// Required reports whether dispatch fails when the argument is absent.
func (a Arg) Required() bool {
	return !a.Optional && !a.HasDefault
}

// Value is a bound argument.
type Value struct {
	Name      string
	Type      argparse.TypeID
	Value     any
	Tokens    []string // Tokens consumed; nil if the value was not given
	Present   bool     // Value came from tokens
	Defaulted bool     // Value came from the argument's default
}

// Invocation is what a Handler receives.
type Invocation struct {
	// Path holds the canonical names from the root to the executed node.
	Path []string
	// Args holds one entry per declared argument, in declared order.
	// Optional arguments that were not given have a nil Value.
	Args []Value
}

// Value returns the value of the i'th declared argument, or nil.
func (inv *Invocation) Value(i int) any {
	if i < 0 || i >= len(inv.Args) {
		return nil
	}
	return inv.Args[i].Value
}

// Values returns the argument values in declared order.
func (inv *Invocation) Values() []any {
	out := make([]any, len(inv.Args))
	for i, a := range inv.Args {
		out[i] = a.Value
	}
	return out
}

// Lookup returns the bound argument with the given name.
func (inv *Invocation) Lookup(name string) (Value, bool) {
	for _, a := range inv.Args {
		if a.Name == name {
			return a, true
		}
	}
	return Value{}, false
}

// Has reports whether the named argument has a value, given or defaulted.
func (inv *Invocation) Has(name string) bool {
	v, ok := inv.Lookup(name)
	return ok && v.Value != nil
}

// ArgValue returns the named argument as a T. ok is false if the argument
// is absent or of another type.
func ArgValue[T any](inv *Invocation, name string) (v T, ok bool) {
	a, found := inv.Lookup(name)
	if !found || a.Value == nil {
		return v, false
	}
	v, ok = a.Value.(T)
	return v, ok
}

// String returns the named argument as a string. Text values are
// converted.
func (inv *Invocation) String(name string) string {
	a, _ := inv.Lookup(name)
	switch v := a.Value.(type) {
	case string:
		return v
	case argparse.Text:
		return string(v)
	}
	return ""
}

// Int returns the named int argument, or 0.
func (inv *Invocation) Int(name string) int {
	v, _ := ArgValue[int](inv, name)
	return v
}

// Result describes a completed dispatch.
type Result struct {
	Path  []string
	Args  []Value
	Value any // Whatever the handler returned
}

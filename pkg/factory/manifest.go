// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package factory

import (
	"fmt"
	"sort"

	"github.com/yeetrun/cmdtree/pkg/argparse"
	"github.com/yeetrun/cmdtree/pkg/cmdtree"
	"github.com/yeetrun/cmdtree/pkg/manifest"
)

// Manifest accepts *manifest.Command values (and manifest.Command) and
// binds each command's handler name through Handlers.
type Manifest struct {
	Handlers   map[string]cmdtree.Handler
	Middleware []cmdtree.Middleware // Applied to every bound handler
}

// UnknownHandlerError is returned when a manifest command names a handler
// that the factory does not hold.
type UnknownHandlerError struct {
	Command string
	Handler string
	Known   []string
}

func (e *UnknownHandlerError) Error() string {
	return fmt.Sprintf("command %q: unknown handler %q (known: %v)", e.Command, e.Handler, e.Known)
}

func (f *Manifest) Create(parsers *argparse.Registry, obj any) (*cmdtree.Tree, bool, error) {
	var c *manifest.Command
	switch v := obj.(type) {
	case *manifest.Command:
		if v == nil {
			return nil, false, nil
		}
		c = v
	case manifest.Command:
		c = &v
	default:
		return nil, false, nil
	}
	if err := c.Validate(); err != nil {
		return nil, true, err
	}
	b, err := f.builder(parsers, c)
	if err != nil {
		return nil, true, err
	}
	t, err := b.Build()
	if err != nil {
		return nil, true, err
	}
	return t, true, nil
}

func (f *Manifest) builder(parsers *argparse.Registry, c *manifest.Command) (*cmdtree.Builder, error) {
	b := cmdtree.New(c.Name).
		Alias(c.Aliases...).
		Describe(c.Description).
		Usage(c.Usage)
	if c.Hidden {
		b.Hide()
	}
	if c.Handler != "" {
		h, ok := f.Handlers[c.Handler]
		if !ok {
			return nil, &UnknownHandlerError{Command: c.Name, Handler: c.Handler, Known: f.handlerNames()}
		}
		b.Run(cmdtree.Chain(h, f.Middleware...))
	}
	for _, ad := range c.Args {
		d := ArgDecl{
			Name:        ad.Name,
			Type:        argparse.ResolveTypeName(ad.Type),
			Description: ad.Description,
			Optional:    ad.Optional,
		}
		if ad.Default != nil {
			d.Default = *ad.Default
		}
		a, err := ResolveArg(parsers, c.Name, d)
		if err != nil {
			return nil, err
		}
		b.Arg(a)
	}
	for i := range c.Commands {
		child, err := f.builder(parsers, &c.Commands[i])
		if err != nil {
			return nil, err
		}
		b.Sub(child)
	}
	return b, nil
}

func (f *Manifest) handlerNames() []string {
	names := make([]string, 0, len(f.Handlers))
	for name := range f.Handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

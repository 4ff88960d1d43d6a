// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package factory

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/shayne/yargs"
	"github.com/yeetrun/cmdtree/pkg/argparse"
	"github.com/yeetrun/cmdtree/pkg/cmdtree"
)

// YargsApp pairs a yargs command registry with the handlers that run its
// commands. Handlers and Raw are keyed by command path: "status" for a flat
// subcommand, "docker run" for a command in a group.
type YargsApp struct {
	Registry yargs.Registry
	Handlers map[string]cmdtree.Handler
	// Raw holds handlers written against yargs. A command bound through Raw
	// receives its argument tokens unparsed; without an ArgsSchema it
	// accepts any number of them.
	Raw map[string]yargs.SubcommandHandler
}

// Yargs accepts YargsApp values. The registry's command becomes the root,
// flat subcommands its children, and groups non-executable folder nodes.
type Yargs struct{}

func (f Yargs) Create(parsers *argparse.Registry, obj any) (*cmdtree.Tree, bool, error) {
	var app *YargsApp
	switch v := obj.(type) {
	case *YargsApp:
		if v == nil {
			return nil, false, nil
		}
		app = v
	case YargsApp:
		app = &v
	default:
		return nil, false, nil
	}
	if app.Registry.Command.Name == "" {
		return nil, true, fmt.Errorf("yargs registry has no command name")
	}
	root := cmdtree.New(app.Registry.Command.Name).Describe(app.Registry.Command.Description)
	for name, spec := range app.Registry.SubCommands {
		b, err := f.command(parsers, app, []string{name}, spec)
		if err != nil {
			return nil, true, err
		}
		root.Sub(b)
	}
	for name, group := range app.Registry.Groups {
		g := cmdtree.New(name).Describe(group.Info.Description)
		if group.Info.Hidden {
			g.Hide()
		}
		for cmdName, spec := range group.Commands {
			b, err := f.command(parsers, app, []string{name, cmdName}, spec)
			if err != nil {
				return nil, true, err
			}
			g.Sub(b)
		}
		root.Sub(g)
	}
	t, err := root.Build()
	if err != nil {
		return nil, true, err
	}
	return t, true, nil
}

func (f Yargs) command(parsers *argparse.Registry, app *YargsApp, path []string, spec yargs.CommandSpec) (*cmdtree.Builder, error) {
	key := strings.Join(path, " ")
	name := path[len(path)-1]
	info := spec.Info
	b := cmdtree.New(name).
		Alias(info.Aliases...).
		Describe(info.Description).
		Usage(info.Usage)
	if info.Hidden {
		b.Hide()
	}

	var fields []FieldArg
	if spec.ArgsSchema != nil {
		var err error
		fields, err = SchemaArgs(parsers, key, reflect.TypeOf(spec.ArgsSchema))
		if err != nil {
			return nil, err
		}
		for _, fa := range fields {
			b.Arg(fa.Arg)
		}
	}

	if h, ok := app.Handlers[key]; ok {
		return b.Run(h), nil
	}
	raw, ok := app.Raw[key]
	if !ok {
		return nil, fmt.Errorf("yargs command %q has no handler", key)
	}
	if spec.ArgsSchema == nil {
		rest, ok := parsers.Lookup(argparse.TypeStrings)
		if !ok {
			return nil, &UnknownTypeError{Command: key, Arg: "args", Type: argparse.TypeStrings}
		}
		b.Arg(cmdtree.Arg{Name: "args", Type: argparse.TypeStrings, Optional: true, Parser: rest})
	}
	return b.Run(func(ctx context.Context, inv *cmdtree.Invocation) (any, error) {
		var tokens []string
		for _, v := range inv.Args {
			tokens = append(tokens, v.Tokens...)
		}
		return nil, raw(ctx, tokens)
	}), nil
}

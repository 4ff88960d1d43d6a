// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmdtree

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeetrun/cmdtree/pkg/argparse"
)

// Execute dispatches tokens against t. tokens exclude t's own invocation
// token; t is taken to be already selected.
//
// At each node a token naming a subcommand selects it; subcommands win over
// positional arguments. Once a node is chosen its arguments are bound
// positionally and resolution never returns to consider siblings. The
// handler runs at most once; its error, or a panic, is returned as an
// *ExecutionError.
func (t *Tree) Execute(ctx context.Context, tokens []string) (*Result, error) {
	node, path, rest := t.Resolve(tokens)
	return node.run(ctx, path, rest)
}

func (t *Tree) run(ctx context.Context, path, tokens []string) (*Result, error) {
	if len(tokens) > 0 && t.IsGroup() {
		return nil, &UnknownSubcommandError{
			Path:        path,
			Token:       tokens[0],
			Suggestions: Suggest(tokens[0], t.childTokens()),
		}
	}
	values, err := t.bind(path, tokens)
	if err != nil {
		return nil, err
	}
	if t.handler == nil {
		return nil, &NotExecutableError{Path: path, Children: t.ChildNames()}
	}
	inv := &Invocation{Path: path, Args: values}
	out, err := invoke(ctx, t.handler, inv)
	if err != nil {
		return nil, &ExecutionError{Path: path, Err: err}
	}
	return &Result{Path: path, Args: values, Value: out}, nil
}

// bind resolves tokens against the declared arguments.
func (t *Tree) bind(path, tokens []string) ([]Value, error) {
	values := make([]Value, 0, len(t.args))
	rest := tokens
	for _, a := range t.args {
		if len(rest) == 0 {
			switch {
			case a.HasDefault:
				values = append(values, Value{Name: a.Name, Type: a.Type, Value: a.Default, Defaulted: true})
			case a.Optional:
				values = append(values, Value{Name: a.Name, Type: a.Type})
			default:
				return nil, &MissingArgumentError{Path: path, Arg: a.Name, Type: a.Type, Received: tokens}
			}
			continue
		}
		v, n, err := a.Parser.Parse(rest)
		if err != nil {
			return nil, argParseError(a, rest, n, err)
		}
		if n <= 0 || n > len(rest) {
			return nil, &argparse.ParseError{
				Arg:    a.Name,
				Type:   a.Type,
				Tokens: rest,
				Reason: fmt.Sprintf("parser consumed %d of %d tokens", n, len(rest)),
			}
		}
		values = append(values, Value{
			Name:    a.Name,
			Type:    a.Type,
			Value:   v,
			Tokens:  rest[:n:n],
			Present: true,
		})
		rest = rest[n:]
	}
	if len(rest) > 0 {
		return nil, &UnexpectedArgumentsError{Path: path, Tokens: rest}
	}
	return values, nil
}

func argParseError(a Arg, window []string, consumed int, err error) *argparse.ParseError {
	var pe *argparse.ParseError
	if errors.As(err, &pe) {
		out := *pe
		out.Arg = a.Name
		if out.Type == "" {
			out.Type = a.Type
		}
		if out.Tokens == nil {
			out.Tokens = window[:1:1]
		}
		return &out
	}
	return &argparse.ParseError{
		Arg:      a.Name,
		Type:     a.Type,
		Tokens:   window[:1:1],
		Consumed: consumed,
		Reason:   err.Error(),
		Err:      err,
	}
}

func invoke(ctx context.Context, h Handler, inv *Invocation) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(ctx, inv)
}

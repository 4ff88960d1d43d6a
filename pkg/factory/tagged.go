// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package factory

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/yeetrun/cmdtree/pkg/argparse"
	"github.com/yeetrun/cmdtree/pkg/cmdtree"
)

// Meta marks a struct as a command. Its struct tags carry the command
// metadata:
//
//	type Deploy struct {
//	    factory.Meta `name:"deploy" aliases:"d" help:"Deploy a service"`
//	    Logs         DeployLogs `cmd:""`
//	}
//
//	type DeployArgs struct {
//	    Service string `pos:"0" help:"Service name"`
//	    Count   int    `pos:"1?" default:"1"`
//	}
//
//	func (d *Deploy) Run(ctx context.Context, args DeployArgs) (any, error)
//
// Fields tagged cmd are subcommands and must be Meta-marked structs
// themselves. The Run method is optional; without it the command only
// groups its subcommands. Run may also take only a context.
type Meta struct{}

var (
	metaType       = reflect.TypeFor[Meta]()
	ctxType        = reflect.TypeFor[context.Context]()
	anyType        = reflect.TypeFor[any]()
	errType        = reflect.TypeFor[error]()
	invocationType = reflect.TypeFor[*cmdtree.Invocation]()
)

// Tagged accepts structs (or pointers to structs) with a Meta field.
type Tagged struct{}

func (f Tagged) Create(parsers *argparse.Registry, obj any) (*cmdtree.Tree, bool, error) {
	v, ok := taggedValue(obj)
	if !ok {
		return nil, false, nil
	}
	b, err := f.builder(parsers, v, 0)
	if err != nil {
		return nil, true, err
	}
	t, err := b.Build()
	if err != nil {
		return nil, true, err
	}
	return t, true, nil
}

// taggedValue returns an addressable struct value for obj if it carries a
// Meta field.
func taggedValue(obj any) (reflect.Value, bool) {
	v := reflect.ValueOf(obj)
	if !v.IsValid() {
		return reflect.Value{}, false
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() || v.Elem().Kind() != reflect.Struct {
			return reflect.Value{}, false
		}
		v = v.Elem()
	} else if v.Kind() == reflect.Struct {
		cp := reflect.New(v.Type())
		cp.Elem().Set(v)
		v = cp.Elem()
	} else {
		return reflect.Value{}, false
	}
	if _, ok := metaField(v.Type()); !ok {
		return reflect.Value{}, false
	}
	return v, true
}

func metaField(t reflect.Type) (reflect.StructField, bool) {
	for i := range t.NumField() {
		if sf := t.Field(i); sf.Type == metaType {
			return sf, true
		}
	}
	return reflect.StructField{}, false
}

func (f Tagged) builder(parsers *argparse.Registry, v reflect.Value, depth int) (*cmdtree.Builder, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("command nesting exceeds %d levels", maxDepth)
	}
	t := v.Type()
	meta, _ := metaField(t)
	name := meta.Tag.Get("name")
	if name == "" {
		name = strings.ToLower(t.Name())
	}
	b := cmdtree.New(name).Describe(meta.Tag.Get("help"))
	if aliases := meta.Tag.Get("aliases"); aliases != "" {
		for _, a := range strings.Split(aliases, ",") {
			b.Alias(strings.TrimSpace(a))
		}
	}
	if u := meta.Tag.Get("usage"); u != "" {
		b.Usage(u)
	}
	if hidden, _ := strconv.ParseBool(meta.Tag.Get("hidden")); hidden {
		b.Hide()
	}

	if m := v.Addr().MethodByName("Run"); m.IsValid() {
		args, h, err := bindRun(parsers, name, m)
		if err != nil {
			return nil, err
		}
		b.Arg(args...).Run(h)
	}

	for i := range t.NumField() {
		sf := t.Field(i)
		if _, ok := sf.Tag.Lookup("cmd"); !ok {
			continue
		}
		if !sf.IsExported() {
			return nil, fmt.Errorf("command %q: subcommand field %s is unexported", name, sf.Name)
		}
		fv := v.Field(i)
		if fv.Kind() == reflect.Pointer {
			// A nil field is built from a fresh value; the host is not written.
			if fv.IsNil() {
				fv = reflect.New(fv.Type().Elem())
			}
			fv = fv.Elem()
		}
		if fv.Kind() != reflect.Struct {
			return nil, fmt.Errorf("command %q: subcommand field %s is a %s, not a struct", name, sf.Name, fv.Kind())
		}
		if _, ok := metaField(fv.Type()); !ok {
			return nil, fmt.Errorf("command %q: subcommand field %s has no factory.Meta", name, sf.Name)
		}
		child, err := f.builder(parsers, fv, depth+1)
		if err != nil {
			return nil, err
		}
		b.Sub(child)
	}
	return b, nil
}

// bindRun checks the signature of a Run method and derives the argument
// list from its argument struct.
func bindRun(parsers *argparse.Registry, name string, m reflect.Value) ([]cmdtree.Arg, cmdtree.Handler, error) {
	mt := m.Type()
	badSig := fmt.Errorf("command %q: Run must be func(context.Context[, Args]) (any, error), got %s", name, mt)
	if mt.NumIn() < 1 || mt.NumIn() > 2 || mt.In(0) != ctxType {
		return nil, nil, badSig
	}
	if mt.NumOut() != 2 || mt.Out(0) != anyType || mt.Out(1) != errType {
		return nil, nil, badSig
	}

	if mt.NumIn() == 1 {
		return nil, func(ctx context.Context, _ *cmdtree.Invocation) (any, error) {
			return callRun(m, reflect.ValueOf(ctx))
		}, nil
	}

	argsType := mt.In(1)
	if argsType == invocationType {
		return nil, func(ctx context.Context, inv *cmdtree.Invocation) (any, error) {
			return callRun(m, reflect.ValueOf(ctx), reflect.ValueOf(inv))
		}, nil
	}
	if argsType.Kind() != reflect.Struct {
		return nil, nil, badSig
	}
	fields, err := SchemaArgs(parsers, name, argsType)
	if err != nil {
		return nil, nil, err
	}
	args := make([]cmdtree.Arg, len(fields))
	for i, fa := range fields {
		args[i] = fa.Arg
	}
	h := func(ctx context.Context, inv *cmdtree.Invocation) (any, error) {
		in := reflect.New(argsType).Elem()
		if err := fillArgs(in, fields, inv); err != nil {
			return nil, err
		}
		return callRun(m, reflect.ValueOf(ctx), in)
	}
	return args, h, nil
}

func callRun(m reflect.Value, in ...reflect.Value) (any, error) {
	out := m.Call(in)
	err, _ := out[1].Interface().(error)
	return out[0].Interface(), err
}

// FieldArg is an argument derived from a struct field.
type FieldArg struct {
	cmdtree.Arg
	Index []int // Field index in the argument struct
}

// SchemaArgs derives positional arguments from the pos-tagged fields of
// the struct type t. Tags follow the form pos:"N" (required), pos:"N?"
// (optional), pos:"N*" (zero or more) and pos:"N+" (one or more); the
// latter two consume all remaining tokens. default and help tags set the
// default and description; name overrides the lower-cased field name.
func SchemaArgs(parsers *argparse.Registry, command string, t reflect.Type) ([]FieldArg, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("command %q: argument schema %s is not a struct", command, t)
	}
	type posField struct {
		pos  int
		decl ArgDecl
		idx  []int
	}
	var found []posField
	for i := range t.NumField() {
		sf := t.Field(i)
		tag, ok := sf.Tag.Lookup("pos")
		if !ok || !sf.IsExported() {
			continue
		}
		d := ArgDecl{
			Name:        sf.Tag.Get("name"),
			Type:        argparse.TypeOf(sf.Type),
			Description: sf.Tag.Get("help"),
		}
		if d.Name == "" {
			d.Name = strings.ToLower(sf.Name)
		}
		posStr := tag
		switch {
		case strings.HasSuffix(tag, "?"):
			d.Optional = true
			posStr = strings.TrimSuffix(tag, "?")
		case strings.HasSuffix(tag, "*"):
			d.Optional = true
			posStr = strings.TrimSuffix(tag, "*")
		case strings.HasSuffix(tag, "+"):
			posStr = strings.TrimSuffix(tag, "+")
		}
		if tag != posStr && !strings.HasSuffix(tag, "?") && sf.Type.Kind() != reflect.Slice {
			return nil, fmt.Errorf("command %q: variadic argument %s must be a slice", command, sf.Name)
		}
		pos, err := strconv.Atoi(posStr)
		if err != nil || pos < 0 {
			return nil, fmt.Errorf("command %q: field %s: invalid pos tag %q", command, sf.Name, tag)
		}
		if def, ok := sf.Tag.Lookup("default"); ok {
			d.Default = def
		}
		found = append(found, posField{pos: pos, decl: d, idx: sf.Index})
	}
	slices.SortFunc(found, func(a, b posField) int { return a.pos - b.pos })

	out := make([]FieldArg, 0, len(found))
	for i, pf := range found {
		if pf.pos != i {
			return nil, fmt.Errorf("command %q: argument %q has position %d, want %d", command, pf.decl.Name, pf.pos, i)
		}
		a, err := ResolveArg(parsers, command, pf.decl)
		if err != nil {
			return nil, err
		}
		out = append(out, FieldArg{Arg: a, Index: pf.idx})
	}
	return out, nil
}

// fillArgs copies bound values into the argument struct.
func fillArgs(dst reflect.Value, fields []FieldArg, inv *cmdtree.Invocation) error {
	for i, fa := range fields {
		if i >= len(inv.Args) || inv.Args[i].Value == nil {
			continue
		}
		fv := dst.FieldByIndex(fa.Index)
		v := reflect.ValueOf(inv.Args[i].Value)
		switch {
		case v.Type().AssignableTo(fv.Type()):
			fv.Set(v)
		case v.Type().ConvertibleTo(fv.Type()):
			fv.Set(v.Convert(fv.Type()))
		default:
			return fmt.Errorf("argument %q: cannot assign %s to field of type %s", fa.Name, v.Type(), fv.Type())
		}
	}
	return nil
}

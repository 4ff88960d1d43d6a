// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package manifest decodes command definitions from TOML or YAML files.
//
// A manifest declares commands by name, their positional arguments by type
// name, and the handler each one binds to:
//
//	version = 1
//
//	[[commands]]
//	name = "math"
//	description = "Arithmetic"
//
//	  [[commands.commands]]
//	  name = "add"
//	  handler = "sum"
//	  args = [
//	    { name = "a", type = "int" },
//	    { name = "b", type = "int", default = "0" },
//	  ]
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const Version = 1

// Format is the encoding of a manifest.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFor returns the format implied by the extension of path.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("manifest %s: unsupported extension %q", path, filepath.Ext(path))
}

// File is a decoded manifest.
type File struct {
	Version  int       `toml:"version,omitempty" yaml:"version,omitempty"`
	Commands []Command `toml:"commands" yaml:"commands"`

	// Source is the path the file was loaded from, if any.
	Source string `toml:"-" yaml:"-"`
}

// Command declares one command node.
type Command struct {
	Name        string    `toml:"name" yaml:"name"`
	Aliases     []string  `toml:"aliases,omitempty" yaml:"aliases,omitempty"`
	Description string    `toml:"description,omitempty" yaml:"description,omitempty"`
	Usage       string    `toml:"usage,omitempty" yaml:"usage,omitempty"`
	Hidden      bool      `toml:"hidden,omitempty" yaml:"hidden,omitempty"`
	Handler     string    `toml:"handler,omitempty" yaml:"handler,omitempty"`
	Args        []ArgDecl `toml:"args,omitempty" yaml:"args,omitempty"`
	Commands    []Command `toml:"commands,omitempty" yaml:"commands,omitempty"`
}

// ArgDecl declares a positional argument. Type is a TypeID or one of the
// short type names ("int", "text", "semver", ...).
type ArgDecl struct {
	Name        string  `toml:"name" yaml:"name"`
	Type        string  `toml:"type" yaml:"type"`
	Description string  `toml:"description,omitempty" yaml:"description,omitempty"`
	Optional    bool    `toml:"optional,omitempty" yaml:"optional,omitempty"`
	Default     *string `toml:"default,omitempty" yaml:"default,omitempty"`
}

// Load reads and validates the manifest at path.
func Load(path string) (*File, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	f.Source = path
	return f, nil
}

// Decode reads a manifest of the given format from r and validates it.
func Decode(r io.Reader, format Format) (*File, error) {
	var f File
	switch format {
	case FormatTOML:
		md, err := toml.NewDecoder(r).Decode(&f)
		if err != nil {
			return nil, err
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			return nil, fmt.Errorf("unknown field %q", undec[0].String())
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", format)
	}
	if f.Version == 0 {
		f.Version = Version
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Encode writes f to w in the given format.
func Encode(w io.Writer, f *File, format Format) error {
	switch format {
	case FormatTOML:
		return toml.NewEncoder(w).Encode(f)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported manifest format %q", format)
}

// ValidationError reports a structurally invalid manifest entry.
type ValidationError struct {
	Path   []string // Command path of the entry
	Reason string
}

func (e *ValidationError) Error() string {
	if len(e.Path) == 0 {
		return "invalid manifest: " + e.Reason
	}
	return fmt.Sprintf("invalid manifest command %q: %s", strings.Join(e.Path, " "), e.Reason)
}

// Validate checks the structure of f. It does not resolve argument types
// or handlers; that happens when a tree is built.
func (f *File) Validate() error {
	if f.Version > Version {
		return &ValidationError{Reason: fmt.Sprintf("unsupported version %d", f.Version)}
	}
	if len(f.Commands) == 0 {
		return &ValidationError{Reason: "no commands"}
	}
	for i := range f.Commands {
		if err := f.Commands[i].validate(nil); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the structure of c and its subcommands.
func (c *Command) Validate() error {
	return c.validate(nil)
}

func (c *Command) validate(parent []string) error {
	path := append(append([]string(nil), parent...), c.Name)
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Path: parent, Reason: "command without a name"}
	}
	if c.Handler == "" && len(c.Commands) == 0 {
		return &ValidationError{Path: path, Reason: "needs a handler or subcommands"}
	}
	if c.Handler == "" && len(c.Args) > 0 {
		return &ValidationError{Path: path, Reason: "declares arguments but no handler"}
	}
	for i, a := range c.Args {
		if strings.TrimSpace(a.Name) == "" {
			return &ValidationError{Path: path, Reason: fmt.Sprintf("argument %d has no name", i)}
		}
		if strings.TrimSpace(a.Type) == "" {
			return &ValidationError{Path: path, Reason: fmt.Sprintf("argument %q has no type", a.Name)}
		}
	}
	for i := range c.Commands {
		if err := c.Commands[i].validate(path); err != nil {
			return err
		}
	}
	return nil
}

// Walk calls fn for every command in f, depth first.
func (f *File) Walk(fn func(path []string, c *Command)) {
	for i := range f.Commands {
		f.Commands[i].walk(nil, fn)
	}
}

func (c *Command) walk(parent []string, fn func([]string, *Command)) {
	path := append(append([]string(nil), parent...), c.Name)
	fn(path, c)
	for i := range c.Commands {
		c.Commands[i].walk(path, fn)
	}
}

// Handlers returns the handler names referenced by f, in order of first
// appearance.
func (f *File) Handlers() []string {
	var out []string
	seen := make(map[string]bool)
	f.Walk(func(_ []string, c *Command) {
		if c.Handler != "" && !seen[c.Handler] {
			seen[c.Handler] = true
			out = append(out, c.Handler)
		}
	})
	return out
}

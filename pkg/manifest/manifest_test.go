// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package manifest

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const tomlManifest = `
version = 1

[[commands]]
name = "math"
aliases = ["m"]
description = "Arithmetic"

  [[commands.commands]]
  name = "add"
  handler = "sum"
  args = [
    { name = "a", type = "int" },
    { name = "b", type = "int", default = "0" },
  ]

[[commands]]
name = "echo"
handler = "echo"
args = [{ name = "words", type = "text", optional = true }]
`

const yamlManifest = `
version: 1
commands:
  - name: math
    aliases: [m]
    description: Arithmetic
    commands:
      - name: add
        handler: sum
        args:
          - {name: a, type: int}
          - {name: b, type: int, default: "0"}
  - name: echo
    handler: echo
    args:
      - {name: words, type: text, optional: true}
`

func ptr[T any](v T) *T { return &v }

func wantFile() *File {
	return &File{
		Version: 1,
		Commands: []Command{
			{
				Name:        "math",
				Aliases:     []string{"m"},
				Description: "Arithmetic",
				Commands: []Command{{
					Name:    "add",
					Handler: "sum",
					Args: []ArgDecl{
						{Name: "a", Type: "int"},
						{Name: "b", Type: "int", Default: ptr("0")},
					},
				}},
			},
			{
				Name:    "echo",
				Handler: "echo",
				Args:    []ArgDecl{{Name: "words", Type: "text", Optional: true}},
			},
		},
	}
}

func TestDecodeFormats(t *testing.T) {
	tests := []struct {
		format Format
		input  string
	}{
		{FormatTOML, tomlManifest},
		{FormatYAML, yamlManifest},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			got, err := Decode(strings.NewReader(tt.input), tt.format)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if diff := cmp.Diff(wantFile(), got); diff != "" {
				t.Fatalf("manifest mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"cmds.toml": tomlManifest,
		"cmds.yml":  yamlManifest,
	} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		f, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%s): %v", name, err)
		}
		if f.Source != path {
			t.Errorf("Source = %q, want %q", f.Source, path)
		}
		if diff := cmp.Diff([]string{"sum", "echo"}, f.Handlers()); diff != "" {
			t.Errorf("Handlers mismatch (-want +got):\n%s", diff)
		}
	}

	if _, err := Load(filepath.Join(dir, "cmds.json")); err == nil {
		t.Fatal("Load(.json) succeeded")
	}
	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Load(missing) = %v, want ErrNotExist", err)
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  string
		want   string
	}{
		{"unknown-toml-field", FormatTOML, "[[commands]]\nname = \"x\"\nhandler = \"h\"\ncolour = 1\n", "unknown field"},
		{"unknown-yaml-field", FormatYAML, "commands:\n  - name: x\n    handler: h\n    colour: 1\n", "colour"},
		{"empty", FormatYAML, "", "no commands"},
		{"no-name", FormatYAML, "commands:\n  - handler: h\n", "without a name"},
		{"no-handler", FormatYAML, "commands:\n  - name: x\n", "needs a handler"},
		{"args-without-handler", FormatYAML, "commands:\n  - name: x\n    args: [{name: a, type: int}]\n    commands: [{name: y, handler: h}]\n", "no handler"},
		{"arg-no-type", FormatYAML, "commands:\n  - name: x\n    handler: h\n    args: [{name: a}]\n", `"a" has no type`},
		{"nested", FormatYAML, "commands:\n  - name: x\n    commands: [{name: y}]\n", `"x y"`},
		{"future-version", FormatTOML, "version = 9\n[[commands]]\nname = \"x\"\nhandler = \"h\"\n", "unsupported version"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input), tt.format)
			if err == nil {
				t.Fatal("Decode succeeded")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestEncodeRoundTripsThroughYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, wantFile(), FormatYAML); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(&buf, FormatYAML)
	if err != nil {
		t.Fatalf("Decode: %v\n%s", err, buf.String())
	}
	if diff := cmp.Diff(wantFile(), got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

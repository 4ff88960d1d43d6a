// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/yeetrun/cmdtree/pkg/argparse"
	"github.com/yeetrun/cmdtree/pkg/cmdtree"
	"github.com/yeetrun/cmdtree/pkg/config"
	"github.com/yeetrun/cmdtree/pkg/registrar"
)

const helloDigest = "sha256:2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

var exampleManifests = []string{
	filepath.Join("..", "..", "example", "commands.toml"),
	filepath.Join("..", "..", "example", "ops.yaml"),
}

func newTestApp(t *testing.T, manifests ...string) (*app, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := &app{stdin: strings.NewReader(""), stdout: &stdout, stderr: &stderr}
	cfg := config.Default()
	cfg.Color = config.ColorNever
	cfg.Manifests = manifests
	a.configure(&cfg)
	return a, &stdout
}

func TestRunBuiltins(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"prebuilt", []string{"run", "echo", "hello", "world"}, "hello world\n"},
		{"prebuilt no args", []string{"run", "echo"}, ""},
		{"tagged with custom parser", []string{"run", "sum", "1", "2", "3.5"}, "6.5\n"},
		{"negative numbers after double dash", []string{"run", "--", "add", "-3", "4"}, "1\n"},
		{"run alias", []string{"x", "semver", "bump", "1.2.3", "minor"}, "1.3.0\n"},
		{"tagged default", []string{"run", "sv", "bump", "v2.0.9"}, "2.0.10\n"},
		{"constraint", []string{"run", "semver", "check", ">=1.2, <2", "1.5.0", "2.1.0"}, "1.5.0 yes\n2.1.0 no\n"},
		{"pointer subcommand", []string{"run", "semver", "sort", "1.10.0", "1.2.0", "v1.9.0"}, "1.2.0\nv1.9.0\n1.10.0\n"},
		{"interface with args", []string{"run", "digest", "hello"}, helloDigest + "\n"},
		{"child wins over argument", []string{"run", "digest", "verify", helloDigest, "hello"}, "ok\n"},
		{"hidden still dispatches", []string{"run", "level", "warn"}, "warn\n"},
		{"interface alias", []string{"run", "wait", "1ms"}, "slept 1ms\n"},
		{"map result", []string{"run", "uuid", "inspect", "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
			"uuid: 6ba7b810-9dad-11d1-80b4-00c04fd430c8\nvariant: RFC4122\nversion: VERSION_1\n"},
		{"quiet", []string{"run", "--quiet", "echo", "hi"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, stdout := newTestApp(t)
			if err := a.main(context.Background(), tt.args); err != nil {
				t.Fatalf("main(%q): %v", tt.args, err)
			}
			if diff := cmp.Diff(tt.want, stdout.String()); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()

	a, _ := newTestApp(t)
	err := a.main(ctx, []string{"run", "ech", "hi"})
	var uc *registrar.UnknownCommandError
	if !errors.As(err, &uc) {
		t.Fatalf("err = %v, want UnknownCommandError", err)
	}
	if diff := cmp.Diff([]string{"echo"}, uc.Suggestions); diff != "" {
		t.Errorf("suggestions mismatch (-want +got):\n%s", diff)
	}

	a, _ = newTestApp(t)
	a.cfg.Suggestions = false
	err = a.main(ctx, []string{"run", "ech"})
	if !errors.As(err, &uc) || len(uc.Suggestions) != 0 {
		t.Errorf("err = %v, want UnknownCommandError without suggestions", err)
	}

	a, _ = newTestApp(t)
	err = a.main(ctx, []string{"run", "sum", "1", "two"})
	var pe *argparse.ParseError
	if !errors.As(err, &pe) || !errors.Is(err, argparse.ErrInvalidFormat) {
		t.Errorf("err = %v, want invalid-format ParseError", err)
	}

	a, _ = newTestApp(t)
	err = a.main(ctx, []string{"run", "digest", "verify", helloDigest})
	var me *cmdtree.MissingArgumentError
	if !errors.As(err, &me) || me.Arg != "text" {
		t.Errorf("err = %v, want MissingArgumentError for text", err)
	}

	a, _ = newTestApp(t)
	err = a.main(ctx, []string{"run", "--timeout", "10ms", "sleep", "1h"})
	var ee *cmdtree.ExecutionError
	if !errors.As(err, &ee) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want ExecutionError wrapping DeadlineExceeded", err)
	}

	a, _ = newTestApp(t)
	if err := a.main(ctx, []string{"run"}); err == nil || !strings.Contains(err.Error(), "requires a command") {
		t.Errorf("err = %v, want missing command error", err)
	}
}

func TestManifestCommands(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"run", "greet"}, "hello, world\n"},
		{[]string{"run", "hi", "bob"}, "hello, bob\n"},
		{[]string{"run", "remote", "ping", "10.0.0.1"}, "10.0.0.1 22\n"},
		{[]string{"run", "r", "ping", "::1", "2222"}, "::1 2222\n"},
		{[]string{"run", "remote", "wait", "1ms"}, "slept 1ms\n"},
		{[]string{"run", "remote", "debug", "a", "b"}, "a b\n"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args[1:], " "), func(t *testing.T) {
			a, stdout := newTestApp(t, exampleManifests...)
			if err := a.main(context.Background(), tt.args); err != nil {
				t.Fatalf("main: %v", err)
			}
			if diff := cmp.Diff(tt.want, stdout.String()); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("exec", func(t *testing.T) {
		if _, err := exec.LookPath("sh"); err != nil {
			t.Skip("sh not available")
		}
		a, stdout := newTestApp(t, exampleManifests...)
		// Tokens after "--" are not taken as global flags.
		err := a.main(context.Background(), []string{"run", "--", "exec", "sh", "-c", "echo from sh"})
		if err != nil {
			t.Fatalf("main: %v", err)
		}
		if got := stdout.String(); got != "from sh\n" {
			t.Errorf("output = %q", got)
		}
	})

	t.Run("getenv", func(t *testing.T) {
		t.Setenv("CMDTREE_TEST_VALUE", "42")
		a, stdout := newTestApp(t, exampleManifests...)
		if err := a.main(context.Background(), []string{"run", "env", "get", "CMDTREE_TEST_VALUE"}); err != nil {
			t.Fatalf("main: %v", err)
		}
		if got := stdout.String(); got != "42\n" {
			t.Errorf("output = %q", got)
		}
	})
}

func TestManifestClashFailsRegistration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clash.yaml")
	if err := os.WriteFile(path, []byte("commands:\n  - name: echo\n    handler: echo\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	a, _ := newTestApp(t, path)
	err := a.main(context.Background(), []string{"run", "echo", "x"})
	var dup *registrar.DuplicateCommandError
	if !errors.As(err, &dup) {
		t.Fatalf("err = %v, want DuplicateCommandError", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q does not name the manifest", err)
	}
}

func TestShellScript(t *testing.T) {
	a, stdout := newTestApp(t)
	a.stdin = strings.NewReader(strings.Join([]string{
		"kv set greeting 'hello there'",
		"kv get greeting",
		"kv ls",
		"# comment",
		"",
		"kv rm greeting",
		"kv get greeting",
		"exit",
		"echo never",
	}, "\n"))

	err := a.main(context.Background(), []string{"shell"})
	if err == nil || err.Error() != "1 command(s) failed" {
		t.Fatalf("err = %v, want one failure", err)
	}
	want := "hello there\ngreeting\nerror: 'kv get' failed: no such key \"greeting\"\n"
	if diff := cmp.Diff(want, stdout.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestShellHelpAndExpansion(t *testing.T) {
	t.Setenv("CMDTREE_WHO", "shell")
	a, stdout := newTestApp(t)
	a.stdin = strings.NewReader("help semver bump\necho \"hi $CMDTREE_WHO\"\nkv clear\n")
	if err := a.main(context.Background(), []string{"shell"}); err != nil {
		t.Fatalf("shell: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "USAGE:\n    semver bump <version:*semver.Version> [part:string]\n") {
		t.Errorf("help output missing usage:\n%s", out)
	}
	if !strings.HasSuffix(out, "hi shell\n") {
		t.Errorf("output %q does not end with the expanded echo", out)
	}
}

func TestTree(t *testing.T) {
	a, stdout := newTestApp(t)
	if err := a.main(context.Background(), []string{"tree", "--format=json"}); err != nil {
		t.Fatalf("tree: %v", err)
	}
	var outlines []cmdtree.Outline
	if err := json.Unmarshal(stdout.Bytes(), &outlines); err != nil {
		t.Fatalf("decoding tree output: %v", err)
	}
	var names []string
	for _, o := range outlines {
		names = append(names, o.Name)
	}
	want := []string{"digest", "echo", "kv", "semver", "sleep", "sum", "uuid"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("roots mismatch (-want +got):\n%s", diff)
	}

	a, stdout = newTestApp(t)
	if err := a.main(context.Background(), []string{"tree", "--hidden", "semver"}); err != nil {
		t.Fatalf("tree semver: %v", err)
	}
	lines := strings.Split(strings.TrimRight(stdout.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), stdout)
	}
	if !strings.HasPrefix(lines[0], "semver <command>") {
		t.Errorf("first line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "  bump <version:*semver.Version> [part:string]") {
		t.Errorf("second line = %q", lines[1])
	}

	a, _ = newTestApp(t)
	err := a.main(context.Background(), []string{"tree", "semver", "bmup"})
	var us *cmdtree.UnknownSubcommandError
	if !errors.As(err, &us) {
		t.Errorf("err = %v, want UnknownSubcommandError", err)
	}
}

func TestDescribe(t *testing.T) {
	a, stdout := newTestApp(t)
	if err := a.main(context.Background(), []string{"describe", "kv", "set"}); err != nil {
		t.Fatalf("describe: %v", err)
	}
	if !strings.Contains(stdout.String(), "kv set <key:string> <value:argparse.Text>") {
		t.Errorf("describe output:\n%s", stdout)
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.toml")
	body := "[[commands]]\nname = \"x\"\nhandler = \"nope\"\n"
	if err := os.WriteFile(bad, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	a, stdout := newTestApp(t)
	if err := a.main(context.Background(), append([]string{"check"}, exampleManifests...)); err != nil {
		t.Fatalf("check: %v\n%s", err, stdout)
	}
	want := "ok " + exampleManifests[0] + " (5 commands)\nok " + exampleManifests[1] + " (4 commands)\n"
	if diff := cmp.Diff(want, stdout.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}

	a, stdout = newTestApp(t, bad)
	err := a.main(context.Background(), []string{"check"})
	if err == nil || err.Error() != "1 of 1 manifests failed" {
		t.Fatalf("err = %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "FAIL "+bad+"\n") || !strings.Contains(stdout.String(), `"nope"`) {
		t.Errorf("output:\n%s", stdout)
	}
}

func TestParsersListsCustomTypes(t *testing.T) {
	a, stdout := newTestApp(t)
	if err := a.main(context.Background(), []string{"parsers"}); err != nil {
		t.Fatalf("parsers: %v", err)
	}
	out := stdout.String()
	for _, want := range []string{"TYPE", "[]float64", "zerolog.Level", "time.Duration"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestVersionJSON(t *testing.T) {
	a, stdout := newTestApp(t)
	if err := a.main(context.Background(), []string{"version", "--json"}); err != nil {
		t.Fatalf("version: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if got["version"] == "" || !strings.HasPrefix(got["go"], "go") {
		t.Errorf("version = %v", got)
	}
}

func TestCompleter(t *testing.T) {
	a, _ := newTestApp(t)
	reg, err := a.registrar(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	complete := completer(reg)
	tests := []struct {
		line    string
		want    string
		wantPos int
		ok      bool
	}{
		{"sem", "semver ", 7, true},
		{"semver b", "semver bump ", 12, true},
		{"uuid ins 1", "uuid inspect 1", 12, true},
		{"s", "", 0, false},
		{"lev", "", 0, false},
		{"nope x", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			pos := len(tt.line)
			if tt.line == "uuid ins 1" {
				pos = len("uuid ins")
			}
			got, gotPos, ok := complete(tt.line, pos, '\t')
			if ok != tt.ok || got != tt.want || gotPos != tt.wantPos {
				t.Errorf("complete(%q) = %q, %d, %v; want %q, %d, %v", tt.line, got, gotPos, ok, tt.want, tt.wantPos, tt.ok)
			}
		})
	}
}

func TestCommandArgs(t *testing.T) {
	tests := []struct {
		in, want []string
	}{
		{[]string{"run", "echo"}, []string{"echo"}},
		{[]string{"--x", "run", "echo"}, []string{"--x", "echo"}},
		{[]string{"--only-flags"}, []string{"--only-flags"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, commandArgs(tt.in)); diff != "" {
			t.Errorf("commandArgs(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

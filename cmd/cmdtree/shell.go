// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/yeetrun/cmdtree/pkg/cli"
	"github.com/yeetrun/cmdtree/pkg/registrar"
	"github.com/yeetrun/cmdtree/pkg/tui"
	"golang.org/x/term"
	"mvdan.cc/sh/v3/shell"
)

func (a *app) handleShell(ctx context.Context, args []string) error {
	flags, rest, err := cli.ParseShell(commandArgs(args))
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("'shell' takes no arguments, got %q", strings.Join(rest, " "))
	}
	reg, err := a.registrar(ctx)
	if err != nil {
		return err
	}
	prompt := a.cfg.Prompt
	if flags.Prompt != "" {
		prompt = flags.Prompt
	}
	if f, ok := a.stdin.(*os.File); ok && isTerminalFn(int(f.Fd())) {
		return a.interactiveShell(ctx, reg, f, prompt)
	}
	return a.scriptShell(ctx, reg, a.stdin)
}

// session runs input lines against a registrar.
type session struct {
	app *app
	reg *registrar.Registrar
	out io.Writer

	failed int
}

// exec runs one line. It returns false once the session should end.
func (s *session) exec(ctx context.Context, line string) bool {
	tokens, err := shell.Fields(line, os.Getenv)
	if err != nil {
		s.fail(fmt.Errorf("cannot parse line: %w", err))
		return true
	}
	if len(tokens) == 0 {
		return true
	}
	switch tokens[0] {
	case "exit", "quit":
		return false
	case "help", "?":
		text, err := s.reg.Help(tokens[1:])
		if err != nil {
			s.fail(err)
			return true
		}
		fmt.Fprint(s.out, text)
		return true
	}

	res, err := s.app.dispatch(ctx, s.reg, tokens)
	if err != nil {
		s.fail(err)
		return true
	}
	if err := tui.PrintResult(s.out, res.Value); err != nil {
		s.fail(err)
	}
	return true
}

func (s *session) fail(err error) {
	s.failed++
	tui.PrintError(s.out, s.app.color, err)
}

// scriptShell reads commands from r until EOF. Every line runs even if an
// earlier one fails; the failures are reported at the end.
func (a *app) scriptShell(ctx context.Context, reg *registrar.Registrar, r io.Reader) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := &session{app: a, reg: reg, out: a.stdout}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !s.exec(ctx, sc.Text()) {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if s.failed > 0 {
		return fmt.Errorf("%d command(s) failed", s.failed)
	}
	return nil
}

// interactiveShell runs a line editor on the terminal. The terminal is
// returned to cooked mode while a command runs so that ^C interrupts it.
func (a *app) interactiveShell(ctx context.Context, reg *registrar.Registrar, f *os.File, prompt string) error {
	fd := int(f.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to set up terminal: %w", err)
	}
	defer term.Restore(fd, state)

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{f, a.stdout}, a.color.Bold(prompt))
	if w, h, err := term.GetSize(fd); err == nil {
		t.SetSize(w, h)
	}
	t.AutoCompleteCallback = completer(reg)

	s := &session{app: a, reg: reg, out: t}
	fmt.Fprintf(t, "%s\n", a.color.Dim("Type 'help' for commands, 'exit' or ^D to quit."))
	for {
		line, err := t.ReadLine()
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(t)
			return nil
		}
		if err != nil {
			return err
		}
		if err := term.Restore(fd, state); err != nil {
			return err
		}
		cmdCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		more := s.exec(cmdCtx, line)
		stop()
		if _, err := term.MakeRaw(fd); err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// completer completes the word under the cursor when exactly one command
// token matches it.
func completer(reg *registrar.Registrar) func(line string, pos int, key rune) (string, int, bool) {
	return func(line string, pos int, key rune) (string, int, bool) {
		if key != '\t' || pos > len(line) {
			return "", 0, false
		}
		head := line[:pos]
		words := strings.Fields(head)
		partial := ""
		if len(words) > 0 && !strings.HasSuffix(head, " ") {
			partial = words[len(words)-1]
			words = words[:len(words)-1]
		}
		var match string
		for _, c := range completions(reg, words) {
			if !strings.HasPrefix(c, partial) {
				continue
			}
			if match != "" {
				return "", 0, false
			}
			match = c
		}
		if match == "" {
			return "", 0, false
		}
		completed := head[:len(head)-len(partial)] + match
		if !strings.HasPrefix(line[pos:], " ") {
			completed += " "
		}
		return completed + line[pos:], len(completed), true
	}
}

// completions lists the command tokens that may follow words.
func completions(reg *registrar.Registrar, words []string) []string {
	var out []string
	if len(words) == 0 {
		for _, t := range reg.Trees() {
			if !t.Hidden() {
				out = append(out, t.Tokens()...)
			}
		}
		return out
	}
	root, ok := reg.Lookup(words[0])
	if !ok {
		return nil
	}
	node, _, rest := root.Resolve(words[1:])
	if len(rest) > 0 {
		return nil
	}
	for _, c := range node.Children() {
		if !c.Hidden() {
			out = append(out, c.Tokens()...)
		}
	}
	return out
}

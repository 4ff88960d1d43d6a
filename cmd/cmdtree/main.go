// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The cmdtree command loads command trees from Go code and manifests and
// runs them, one at a time or from an interactive shell.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"slices"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/shayne/yargs"
	"github.com/yeetrun/cmdtree/pkg/argparse"
	"github.com/yeetrun/cmdtree/pkg/cli"
	"github.com/yeetrun/cmdtree/pkg/cmdtree"
	"github.com/yeetrun/cmdtree/pkg/config"
	"github.com/yeetrun/cmdtree/pkg/factory"
	"github.com/yeetrun/cmdtree/pkg/manifest"
	"github.com/yeetrun/cmdtree/pkg/registrar"
	"github.com/yeetrun/cmdtree/pkg/tui"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

const (
	description  = "Register command trees and dispatch to them"
	spinnerDelay = 300 * time.Millisecond
)

var isTerminalFn = term.IsTerminal

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg   *config.Config
	log   zerolog.Logger
	color tui.Colorizer
	reg   *registrar.Registrar
}

func main() {
	a := &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	if err := a.main(context.Background(), os.Args[1:]); err != nil {
		printCLIError(os.Stderr, a.color, err)
		os.Exit(1)
	}
}

func printCLIError(w io.Writer, c tui.Colorizer, err error) {
	tui.PrintError(w, c, err)
}

func (a *app) main(ctx context.Context, args []string) error {
	globals, remaining, err := cli.ParseGlobal(args)
	if err != nil {
		return err
	}
	if a.cfg == nil {
		if err := a.setup(globals); err != nil {
			return err
		}
	}
	handlers := map[string]yargs.SubcommandHandler{
		"run":      a.handleRun,
		"shell":    a.handleShell,
		"tree":     a.handleTree,
		"describe": a.handleDescribe,
		"check":    a.handleCheck,
		"parsers":  a.handleParsers,
		"version":  a.handleVersion,
	}
	helpConfig := cli.Registry(description).HelpConfig()
	return yargs.RunSubcommands(ctx, remaining, helpConfig, cli.GlobalFlags{}, handlers)
}

// setup loads the config and applies global flag overrides.
func (a *app) setup(globals cli.GlobalFlags) error {
	var (
		cfg *config.Config
		err error
	)
	if globals.Config != "" {
		cfg, err = config.LoadFile(globals.Config)
	} else {
		cfg, err = config.LoadFromCwd()
	}
	if err != nil {
		return err
	}
	if globals.LogLevel != "" {
		cfg.LogLevel = globals.LogLevel
	}
	if globals.Verbose {
		cfg.LogLevel = zerolog.LevelDebugValue
	}
	if globals.Color != "" {
		cfg.Color = globals.Color
	}
	if len(globals.Manifests) > 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		cfg.Manifests = append(cfg.Manifests, config.ResolvePaths(cwd, globals.Manifests)...)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.configure(cfg)
	return nil
}

func (a *app) configure(cfg *config.Config) {
	a.cfg = cfg
	a.color = tui.ColorizerFor(cfg.Color)
	lvl, _ := cfg.Level()
	a.log = zerolog.New(zerolog.ConsoleWriter{
		Out:        a.stderr,
		NoColor:    !a.color.Enabled,
		TimeFormat: time.Kitchen,
	}).Level(lvl).With().Timestamp().Logger()
}

func newRegistrar(log zerolog.Logger, concurrency int) *registrar.Registrar {
	return registrar.New(
		registrar.WithLogger(log),
		registrar.WithConcurrency(concurrency),
		registrar.WithFactories(
			factory.Prebuilt{},
			factory.Interface{},
			factory.Tagged{},
			&factory.Manifest{
				Handlers:   manifestHandlers(),
				Middleware: []cmdtree.Middleware{cmdtree.LogMiddleware(log)},
			},
			factory.Yargs{},
		),
	)
}

// registrar returns the registrar with the built-in commands and every
// configured manifest registered. It is built on first use.
func (a *app) registrar(ctx context.Context) (*registrar.Registrar, error) {
	if a.reg != nil {
		return a.reg, nil
	}
	reg := newRegistrar(a.log, a.cfg.Concurrency)
	if err := reg.Init(ctx, setupParsers, builtinCommands()...); err != nil {
		return nil, fmt.Errorf("built-in commands: %w", err)
	}
	for _, path := range a.cfg.Manifests {
		f, err := manifest.Load(path)
		if err != nil {
			return nil, err
		}
		if err := reg.RegisterManifest(ctx, f); err != nil {
			return nil, err
		}
		a.log.Debug().Str("manifest", path).Int("commands", len(f.Commands)).Msg("loaded manifest")
	}
	a.reg = reg
	return reg, nil
}

// dispatch runs tokens and strips suggestions from the error when they are
// turned off.
func (a *app) dispatch(ctx context.Context, reg *registrar.Registrar, tokens []string) (*cmdtree.Result, error) {
	res, err := reg.Dispatch(ctx, tokens)
	if err != nil && !a.cfg.Suggestions {
		dropSuggestions(err)
	}
	return res, err
}

func dropSuggestions(err error) {
	var uc *registrar.UnknownCommandError
	if errors.As(err, &uc) {
		uc.Suggestions = nil
	}
	var us *cmdtree.UnknownSubcommandError
	if errors.As(err, &us) {
		us.Suggestions = nil
	}
}

// commandArgs drops the subcommand name that yargs passes along.
func commandArgs(args []string) []string {
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			return append(slices.Clone(args[:i]), args[i+1:]...)
		}
	}
	return args
}

func (a *app) stderrIsTerminal() bool {
	f, ok := a.stderr.(*os.File)
	return ok && isTerminalFn(int(f.Fd()))
}

func (a *app) handleRun(ctx context.Context, args []string) error {
	flags, tokens, err := cli.ParseRun(commandArgs(args))
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return errors.New("'run' requires a command; see 'cmdtree tree' for the list")
	}
	reg, err := a.registrar(ctx)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if flags.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flags.Timeout)
		defer cancel()
	}

	var res *cmdtree.Result
	run := func() error {
		var err error
		res, err = a.dispatch(ctx, reg, tokens)
		return err
	}
	if !flags.Quiet && a.stderrIsTerminal() {
		sp := tui.NewSpinner(a.stderr,
			tui.WithDelay(spinnerDelay),
			tui.WithHideCursor(true),
			tui.WithColor(a.color, color.FgCyan))
		err = sp.Track(strings.Join(tokens, " "), run)
	} else {
		err = run()
	}
	if err != nil {
		return err
	}
	if flags.Quiet {
		return nil
	}
	return tui.PrintResult(a.stdout, res.Value)
}

func (a *app) handleTree(ctx context.Context, args []string) error {
	flags, tokens, err := cli.ParseTree(commandArgs(args))
	if err != nil {
		return err
	}
	reg, err := a.registrar(ctx)
	if err != nil {
		return err
	}

	var entries []*cmdtree.Tree
	if len(tokens) == 0 {
		for _, t := range reg.Trees() {
			if flags.Hidden || !t.Hidden() {
				entries = append(entries, t)
			}
		}
	} else {
		if _, err := reg.Help(tokens); err != nil {
			return err
		}
		root, _ := reg.Lookup(tokens[0])
		node, path, rest := root.Resolve(tokens[1:])
		if len(rest) > 0 {
			return fmt.Errorf("'%s' has no subcommand %q", strings.Join(path, " "), rest[0])
		}
		entries = append(entries, node)
	}

	switch flags.Format {
	case cli.FormatYAML, cli.FormatJSON:
		outlines := make([]cmdtree.Outline, 0, len(entries))
		for _, e := range entries {
			o := e.Outline()
			if !flags.Hidden {
				o = pruneHidden(o)
			}
			outlines = append(outlines, o)
		}
		if flags.Format == cli.FormatJSON {
			enc := json.NewEncoder(a.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(outlines)
		}
		enc := yaml.NewEncoder(a.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(outlines); err != nil {
			return err
		}
		return enc.Close()
	default:
		tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
		for _, e := range entries {
			e.Walk(func(path []string, n *cmdtree.Tree) bool {
				if n.Hidden() && !flags.Hidden {
					return false
				}
				indent := strings.Repeat("  ", len(path)-1)
				line := cmdtree.UsageLine(path[len(path)-1:], n)
				fmt.Fprintf(tw, "%s%s\t%s\n", indent, line, n.Description())
				return true
			})
		}
		return tw.Flush()
	}
}

func pruneHidden(o cmdtree.Outline) cmdtree.Outline {
	kept := o.Children[:0:0]
	for _, c := range o.Children {
		if !c.Hidden {
			kept = append(kept, pruneHidden(c))
		}
	}
	if len(kept) == 0 {
		kept = nil
	}
	o.Children = kept
	return o
}

func (a *app) handleDescribe(ctx context.Context, args []string) error {
	reg, err := a.registrar(ctx)
	if err != nil {
		return err
	}
	text, err := reg.Help(commandArgs(args))
	if err != nil {
		if !a.cfg.Suggestions {
			dropSuggestions(err)
		}
		return err
	}
	fmt.Fprint(a.stdout, text)
	return nil
}

func (a *app) handleCheck(ctx context.Context, args []string) error {
	files := commandArgs(args)
	for _, f := range files {
		if strings.HasPrefix(f, "-") {
			return fmt.Errorf("unknown flag %s", f)
		}
	}
	if len(files) == 0 {
		files = a.cfg.Manifests
	}
	if len(files) == 0 {
		return errors.New("no manifests to check; pass files or list them in " + config.FileName)
	}

	var failed int
	for _, path := range files {
		n, err := a.checkManifest(ctx, path)
		if err != nil {
			failed++
			fmt.Fprintf(a.stdout, "%s %s\n", a.color.Error("FAIL"), path)
			for _, line := range strings.Split(err.Error(), "\n") {
				fmt.Fprintf(a.stdout, "    %s\n", line)
			}
			continue
		}
		fmt.Fprintf(a.stdout, "%s %s (%d commands)\n", a.color.Success("ok"), path, n)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d manifests failed", failed, len(files))
	}
	return nil
}

// checkManifest loads path and builds its trees next to the built-in
// commands, which catches unknown types, unknown handlers, bad defaults
// and name clashes without running anything.
func (a *app) checkManifest(ctx context.Context, path string) (int, error) {
	f, err := manifest.Load(path)
	if err != nil {
		return 0, err
	}
	reg := newRegistrar(a.log, a.cfg.Concurrency)
	if err := reg.Init(ctx, setupParsers, builtinCommands()...); err != nil {
		return 0, err
	}
	if err := reg.RegisterManifest(ctx, f); err != nil {
		return 0, err
	}
	n := 0
	f.Walk(func([]string, *manifest.Command) { n++ })
	return n, nil
}

func (a *app) handleParsers(ctx context.Context, args []string) error {
	if rest := commandArgs(args); len(rest) > 0 {
		return fmt.Errorf("'parsers' takes no arguments, got %q", strings.Join(rest, " "))
	}
	reg, err := a.registrar(ctx)
	if err != nil {
		return err
	}
	short := make(map[argparse.TypeID][]string)
	for _, name := range argparse.TypeNames() {
		id := argparse.ResolveTypeName(name)
		short[id] = append(short[id], name)
	}
	types := reg.Parsers().Types()
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tNAMES")
	for _, id := range types {
		fmt.Fprintf(tw, "%s\t%s\n", id, strings.Join(short[id], ", "))
	}
	return tw.Flush()
}

func (a *app) handleVersion(_ context.Context, args []string) error {
	flags, _, err := cli.ParseVersion(commandArgs(args))
	if err != nil {
		return err
	}
	if flags.JSON {
		return json.NewEncoder(a.stdout).Encode(map[string]string{
			"version": Version(),
			"commit":  VersionCommit(),
			"go":      runtime.Version(),
		})
	}
	fmt.Fprintln(a.stdout, Version())
	return nil
}

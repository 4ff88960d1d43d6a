// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cli holds the flag and help metadata of the cmdtree binary.
package cli

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/shayne/yargs"
)

type FlagSpec struct {
	ConsumesValue bool
}

type CommandInfo struct {
	Name        string
	Description string
	Usage       string
	Examples    []string
	Hidden      bool
	Aliases     []string
	// ArgsSchema optionally defines positional args via `pos` tags.
	ArgsSchema any
}

// GlobalFlags are accepted anywhere before "--".
type GlobalFlags struct {
	Config    string   `flag:"config" short:"c" help:"Config file (default: nearest cmdtree.toml)"`
	Manifests []string `flag:"manifest" short:"m" help:"Load an extra command manifest (repeatable)"`
	LogLevel  string   `flag:"log-level" help:"Log level (CMDTREE_LOG_LEVEL)"`
	Color     string   `flag:"color" help:"Color mode: auto, always or never (CMDTREE_COLOR)"`
	Verbose   bool     `flag:"verbose" short:"v" help:"Same as --log-level=debug"`
}

type RunFlags struct {
	Timeout time.Duration
	Quiet   bool
}

type ShellFlags struct {
	Prompt string
}

type TreeFlags struct {
	Format string
	Hidden bool
}

type VersionFlags struct {
	JSON bool
}

type runFlagsParsed struct {
	Timeout time.Duration `flag:"timeout" short:"t"`
	Quiet   bool          `flag:"quiet" short:"q"`
}

type shellFlagsParsed struct {
	Prompt string `flag:"prompt"`
}

type treeFlagsParsed struct {
	Format string `flag:"format" short:"f" default:"text"`
	Hidden bool   `flag:"hidden"`
}

type versionFlagsParsed struct {
	JSON bool `flag:"json"`
}

// Tree output formats.
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

type CommandArgs struct {
	Command []string `pos:"0*" help:"Command tokens"`
}

type CheckArgs struct {
	Files []string `pos:"0*" help:"Manifest files (default: configured manifests)"`
}

var commandInfos = map[string]CommandInfo{
	"run": {Name: "run", Description: "Run one registered command", Usage: "[--timeout=DUR] [--quiet] [--] COMMAND [ARGS...]", Examples: []string{
		"cmdtree run greet alice",
		"cmdtree run --timeout=2s sleep 5s",
		"cmdtree run -- sum -3 4",
	}, Aliases: []string{"x"}, ArgsSchema: CommandArgs{}},
	"shell": {Name: "shell", Description: "Read commands interactively", Usage: "[--prompt=STR]", Aliases: []string{"repl"}},
	"tree": {Name: "tree", Description: "Print the registered command trees", Usage: "[--format=text|yaml|json] [--hidden] [COMMAND...]", Examples: []string{
		"cmdtree tree",
		"cmdtree tree --format=yaml remote",
	}, ArgsSchema: CommandArgs{}},
	"describe": {Name: "describe", Description: "Show usage for a registered command", Usage: "COMMAND [SUBCOMMAND...]", Examples: []string{
		"cmdtree describe remote add",
	}, Aliases: []string{"usage"}, ArgsSchema: CommandArgs{}},
	"check":   {Name: "check", Description: "Validate command manifests without running anything", Usage: "[FILE...]", ArgsSchema: CheckArgs{}},
	"parsers": {Name: "parsers", Description: "List the registered argument types"},
	"version": {Name: "version", Description: "Show the cmdtree version", Usage: "[--json]"},
}

var flagSpecs = map[string]map[string]FlagSpec{
	"run":      flagSpecsFromStruct(runFlagsParsed{}),
	"shell":    flagSpecsFromStruct(shellFlagsParsed{}),
	"tree":     flagSpecsFromStruct(treeFlagsParsed{}),
	"version":  flagSpecsFromStruct(versionFlagsParsed{}),
	"describe": {},
	"check":    {},
	"parsers":  {},
}

func CommandNames() []string {
	names := make([]string, 0, len(commandInfos))
	for name := range commandInfos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func CommandInfos() map[string]CommandInfo {
	return commandInfos
}

func FlagSpecs(command string) map[string]FlagSpec {
	return flagSpecs[command]
}

func Registry(description string) yargs.Registry {
	subcommands := make(map[string]yargs.CommandSpec, len(commandInfos))
	for name, info := range commandInfos {
		subcommands[name] = yargs.CommandSpec{
			Info:       toSubCommandInfo(name, info),
			ArgsSchema: info.ArgsSchema,
		}
	}
	return yargs.Registry{
		Command: yargs.CommandInfo{
			Name:        "cmdtree",
			Description: description,
			Examples: []string{
				"cmdtree run greet alice",
				"cmdtree -m ./commands.yaml shell",
				"cmdtree tree --format=json",
			},
		},
		SubCommands: subcommands,
	}
}

func toSubCommandInfo(name string, info CommandInfo) yargs.SubCommandInfo {
	return yargs.SubCommandInfo{
		Name:        name,
		Description: info.Description,
		Usage:       info.Usage,
		Examples:    info.Examples,
		Hidden:      info.Hidden,
		Aliases:     info.Aliases,
	}
}

// ParseGlobal pulls the global flags out of args.
func ParseGlobal(args []string) (GlobalFlags, []string, error) {
	result, err := yargs.ParseKnownFlags[GlobalFlags](args, yargs.KnownFlagsOptions{SplitCommaSlices: true})
	if err != nil {
		return GlobalFlags{}, nil, err
	}
	return result.Flags, result.RemainingArgs, nil
}

// ParseRun parses the flags leading args. Everything from the first
// positional token (or after "--") is returned untouched as the command.
func ParseRun(args []string) (RunFlags, []string, error) {
	flagArgs, command := splitLeadingFlags(args, flagSpecs["run"])
	parsed, err := parseFlags[runFlagsParsed](flagArgs)
	if err != nil {
		return RunFlags{}, nil, err
	}
	flags := RunFlags{
		Timeout: parsed.Flags.Timeout,
		Quiet:   parsed.Flags.Quiet,
	}
	if flags.Timeout < 0 {
		return RunFlags{}, nil, fmt.Errorf("--timeout must not be negative, got %v", flags.Timeout)
	}
	return flags, command, nil
}

func ParseShell(args []string) (ShellFlags, []string, error) {
	parsed, err := parseFlags[shellFlagsParsed](args)
	if err != nil {
		return ShellFlags{}, nil, err
	}
	return ShellFlags{Prompt: parsed.Flags.Prompt}, parsed.Args, nil
}

func ParseTree(args []string) (TreeFlags, []string, error) {
	parseArgs, extraArgs := splitArgsAtDoubleDash(args)
	parsed, err := parseFlags[treeFlagsParsed](parseArgs)
	if err != nil {
		return TreeFlags{}, nil, err
	}
	flags := TreeFlags{
		Format: strings.ToLower(parsed.Flags.Format),
		Hidden: parsed.Flags.Hidden,
	}
	switch flags.Format {
	case FormatText, FormatYAML, FormatJSON:
	default:
		return TreeFlags{}, nil, fmt.Errorf("unknown format %q (want text, yaml or json)", parsed.Flags.Format)
	}
	argsOut := append(parsed.Args, extraArgs...)
	return flags, argsOut, nil
}

func ParseVersion(args []string) (VersionFlags, []string, error) {
	parseArgs, extraArgs := splitArgsAtDoubleDash(args)
	parsed, err := parseFlags[versionFlagsParsed](parseArgs)
	if err != nil {
		return VersionFlags{}, nil, err
	}
	flags := VersionFlags{JSON: parsed.Flags.JSON}
	argsOut := append(parsed.Args, extraArgs...)
	return flags, argsOut, nil
}

type parsedFlags[T any] struct {
	Flags  T
	Args   []string
	Parser *yargs.Parser
}

func parseFlags[T any](args []string) (parsedFlags[T], error) {
	result, err := yargs.ParseFlags[T](args)
	if err != nil {
		return parsedFlags[T]{}, err
	}
	argsOut := append([]string{}, result.Args...)
	if len(result.RemainingArgs) > 0 {
		argsOut = append(argsOut, result.RemainingArgs...)
	}
	return parsedFlags[T]{Flags: result.Flags, Args: argsOut, Parser: result.Parser}, nil
}

func splitArgsAtDoubleDash(args []string) ([]string, []string) {
	for i, arg := range args {
		if arg == "--" {
			if i+1 < len(args) {
				return args[:i], args[i+1:]
			}
			return args[:i], nil
		}
	}
	return args, nil
}

// splitLeadingFlags splits args at the first token that is not one of the
// known flags in specs (or a value consumed by one). A "--" ends the flags
// and is dropped.
func splitLeadingFlags(args []string, specs map[string]FlagSpec) ([]string, []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return args[:i], args[i+1:]
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			return args[:i], args[i:]
		}
		name, _, hasValue := strings.Cut(arg, "=")
		spec, ok := specs[name]
		if !ok {
			return args[:i], args[i:]
		}
		if spec.ConsumesValue && !hasValue {
			i++
		}
	}
	return args, nil
}

func flagSpecsFromStruct(v any) map[string]FlagSpec {
	specs := make(map[string]FlagSpec)
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return specs
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Tag.Get("flag")
		if name == "" {
			name = strings.ToLower(field.Name)
		}
		spec := FlagSpec{ConsumesValue: consumesValue(field.Type)}
		specs["--"+name] = spec
		if short := field.Tag.Get("short"); short != "" {
			specs["-"+short] = spec
		}
	}
	return specs
}

func consumesValue(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool:
		return false
	default:
		return true
	}
}

// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	_ "crypto/sha256"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/opencontainers/go-digest"
	"github.com/rs/zerolog"
	"github.com/shayne/yargs"
	"github.com/yeetrun/cmdtree/pkg/argparse"
	"github.com/yeetrun/cmdtree/pkg/cmdtree"
	"github.com/yeetrun/cmdtree/pkg/cmdutil"
	"github.com/yeetrun/cmdtree/pkg/factory"
	"tailscale.com/syncs"
)

// floatsParser consumes every remaining token as a float64.
type floatsParser struct{}

func (floatsParser) Parse(tokens []string) (any, int, error) {
	out := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, len(out), argparse.Invalid("%q is not a number", tok)
		}
		if math.IsInf(f, 0) {
			return nil, len(out), argparse.OutOfRange("%q overflows float64", tok)
		}
		out = append(out, f)
	}
	return out, len(tokens), nil
}

// setupParsers registers the parsers the built-in commands need on top of
// argparse's defaults.
func setupParsers(p *argparse.Registry) error {
	if err := argparse.Register[[]float64](p, floatsParser{}); err != nil {
		return err
	}
	return argparse.Register[zerolog.Level](p, argparse.Scalar(zerolog.ParseLevel, func(l zerolog.Level) string {
		return l.String()
	}))
}

// builtinCommands returns the command objects every cmdtree binary
// registers, one per factory flavor.
func builtinCommands() []any {
	return []any{
		echoCommand(),
		sleepCommand{},
		&sumCmd{},
		&semverCmd{},
		uuidGroup{},
		digestCommand{},
		levelCommand{},
		kvApp(newKVStore()),
	}
}

// echo is a prebuilt tree.
func echoCommand() *cmdtree.Builder {
	return cmdtree.New("echo").
		Describe("Print the arguments").
		Arg(cmdtree.Arg{Name: "words", Type: argparse.TypeText, Description: "Words to print", Optional: true, Parser: argparse.Greedy()}).
		Run(func(ctx context.Context, inv *cmdtree.Invocation) (any, error) {
			return inv.String("words"), nil
		})
}

type sleepCommand struct{}

func (sleepCommand) Name() string        { return "sleep" }
func (sleepCommand) Description() string { return "Wait for a duration or until cancelled" }
func (sleepCommand) Aliases() []string   { return []string{"wait"} }

func (sleepCommand) Args() []factory.ArgDecl {
	return []factory.ArgDecl{
		{Name: "duration", Type: argparse.TypeDuration, Description: "How long to wait", Default: "1s"},
	}
}

func (sleepCommand) Run(ctx context.Context, inv *cmdtree.Invocation) (any, error) {
	d, _ := cmdtree.ArgValue[time.Duration](inv, "duration")
	return sleep(ctx, d)
}

func sleep(ctx context.Context, d time.Duration) (any, error) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return fmt.Sprintf("slept %v", d), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type sumCmd struct {
	factory.Meta `name:"sum" aliases:"add" help:"Add numbers"`
}

type sumArgs struct {
	Numbers []float64 `pos:"0+" help:"Numbers to add"`
}

func (*sumCmd) Run(_ context.Context, args sumArgs) (any, error) {
	var total float64
	for _, n := range args.Numbers {
		total += n
	}
	return strconv.FormatFloat(total, 'g', -1, 64), nil
}

type semverCmd struct {
	factory.Meta `name:"semver" aliases:"sv" help:"Semantic version helpers"`

	Bump  semverBumpCmd  `cmd:""`
	Check semverCheckCmd `cmd:""`
	Sort  *semverSortCmd `cmd:""`
}

type semverBumpCmd struct {
	factory.Meta `name:"bump" help:"Increment a version"`
}

type semverBumpArgs struct {
	Version *semver.Version `pos:"0" help:"Version to bump"`
	Part    string          `pos:"1?" default:"patch" help:"major, minor or patch"`
}

func (semverBumpCmd) Run(_ context.Context, args semverBumpArgs) (any, error) {
	var v semver.Version
	switch strings.ToLower(args.Part) {
	case "major":
		v = args.Version.IncMajor()
	case "minor":
		v = args.Version.IncMinor()
	case "patch":
		v = args.Version.IncPatch()
	default:
		return nil, fmt.Errorf("unknown version part %q (want major, minor or patch)", args.Part)
	}
	return v.String(), nil
}

type semverCheckCmd struct {
	factory.Meta `name:"check" aliases:"satisfies" help:"Report which versions satisfy a constraint"`
}

type semverCheckArgs struct {
	Constraint *semver.Constraints `pos:"0" help:"Constraint such as >=1.2, <2"`
	Versions   []string            `pos:"1+" help:"Versions to test"`
}

func (semverCheckCmd) Run(_ context.Context, args semverCheckArgs) (any, error) {
	out := make([]string, 0, len(args.Versions))
	for _, s := range args.Versions {
		v, err := semver.NewVersion(s)
		if err != nil {
			return nil, fmt.Errorf("invalid version %q: %w", s, err)
		}
		verdict := "no"
		if args.Constraint.Check(v) {
			verdict = "yes"
		}
		out = append(out, fmt.Sprintf("%s %s", v, verdict))
	}
	return out, nil
}

type semverSortCmd struct {
	factory.Meta `name:"sort" help:"Sort versions in ascending order"`
}

type semverSortArgs struct {
	Versions []string `pos:"0*" help:"Versions to sort"`
}

func (*semverSortCmd) Run(_ context.Context, args semverSortArgs) (any, error) {
	vs := make(semver.Collection, 0, len(args.Versions))
	for _, w := range args.Versions {
		v, err := semver.NewVersion(w)
		if err != nil {
			return nil, fmt.Errorf("invalid version %q: %w", w, err)
		}
		vs = append(vs, v)
	}
	sort.Sort(vs)
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Original()
	}
	return out, nil
}

type uuidGroup struct{}

func (uuidGroup) Name() string        { return "uuid" }
func (uuidGroup) Description() string { return "Generate and inspect UUIDs" }
func (uuidGroup) Subcommands() []any  { return []any{uuidNew{}, uuidParse{}} }

type uuidNew struct{}

func (uuidNew) Name() string        { return "new" }
func (uuidNew) Description() string { return "Generate random UUIDs" }
func (uuidNew) Args() []factory.ArgDecl {
	return []factory.ArgDecl{{Name: "count", Type: argparse.TypeInt, Description: "How many", Default: 1}}
}

func (uuidNew) Run(_ context.Context, inv *cmdtree.Invocation) (any, error) {
	n := inv.Int("count")
	if n < 1 || n > 1000 {
		return nil, fmt.Errorf("count must be between 1 and 1000, got %d", n)
	}
	out := make([]string, n)
	for i := range out {
		out[i] = uuid.NewString()
	}
	return out, nil
}

type uuidParse struct{}

func (uuidParse) Name() string        { return "parse" }
func (uuidParse) Description() string { return "Show the version and variant of a UUID" }
func (uuidParse) Aliases() []string   { return []string{"inspect"} }
func (uuidParse) Args() []factory.ArgDecl {
	return []factory.ArgDecl{{Name: "id", Type: argparse.TypeUUID, Description: "UUID to inspect"}}
}

func (uuidParse) Run(_ context.Context, inv *cmdtree.Invocation) (any, error) {
	id, _ := cmdtree.ArgValue[uuid.UUID](inv, "id")
	return map[string]string{
		"uuid":    id.String(),
		"version": id.Version().String(),
		"variant": id.Variant().String(),
	}, nil
}

// digestCommand computes a digest and has a verify subcommand. Verify wins
// over the text argument when the first token is "verify".
type digestCommand struct{}

func (digestCommand) Name() string        { return "digest" }
func (digestCommand) Description() string { return "Print the sha256 digest of text" }
func (digestCommand) Args() []factory.ArgDecl {
	return []factory.ArgDecl{{Name: "text", Type: argparse.TypeText, Description: "Text to hash"}}
}

func (digestCommand) Run(_ context.Context, inv *cmdtree.Invocation) (any, error) {
	return digest.FromString(inv.String("text")).String(), nil
}

func (digestCommand) Subcommands() []any { return []any{digestVerify{}} }

type digestVerify struct{}

func (digestVerify) Name() string        { return "verify" }
func (digestVerify) Description() string { return "Check text against a digest" }
func (digestVerify) Args() []factory.ArgDecl {
	return []factory.ArgDecl{
		{Name: "digest", Type: argparse.TypeDigest, Description: "Expected digest"},
		{Name: "text", Type: argparse.TypeText, Description: "Text to check"},
	}
}

func (digestVerify) Run(_ context.Context, inv *cmdtree.Invocation) (any, error) {
	want, _ := cmdtree.ArgValue[digest.Digest](inv, "digest")
	v := want.Verifier()
	if _, err := v.Write([]byte(inv.String("text"))); err != nil {
		return nil, err
	}
	if !v.Verified() {
		return nil, fmt.Errorf("digest mismatch: text does not hash to %s", want)
	}
	return "ok", nil
}

// levelCommand exercises a parser registered at startup.
type levelCommand struct{}

func (levelCommand) Name() string        { return "level" }
func (levelCommand) Description() string { return "Normalize a log level name" }
func (levelCommand) Hidden() bool        { return true }
func (levelCommand) Args() []factory.ArgDecl {
	return []factory.ArgDecl{{Name: "level", Type: argparse.TypeFor[zerolog.Level]()}}
}

func (levelCommand) Run(_ context.Context, inv *cmdtree.Invocation) (any, error) {
	l, _ := cmdtree.ArgValue[zerolog.Level](inv, "level")
	return l.String(), nil
}

type kvStore struct {
	m syncs.Map[string, string]
}

func newKVStore() *kvStore { return &kvStore{} }

type kvKeyArgs struct {
	Key string `pos:"0" help:"Key"`
}

type kvSetArgs struct {
	Key   string        `pos:"0" help:"Key"`
	Value argparse.Text `pos:"1" help:"Value (rest of the line)"`
}

type kvListArgs struct {
	Prefix string `pos:"0?" help:"Only keys with this prefix"`
}

// kvApp is an in-memory key/value store described with a yargs registry.
func kvApp(s *kvStore) *factory.YargsApp {
	return &factory.YargsApp{
		Registry: yargs.Registry{
			Command: yargs.CommandInfo{Name: "kv", Description: "In-memory key/value store"},
			SubCommands: map[string]yargs.CommandSpec{
				"get":   {Info: yargs.SubCommandInfo{Name: "get", Description: "Print a value"}, ArgsSchema: kvKeyArgs{}},
				"set":   {Info: yargs.SubCommandInfo{Name: "set", Description: "Store a value"}, ArgsSchema: kvSetArgs{}},
				"del":   {Info: yargs.SubCommandInfo{Name: "del", Description: "Delete a key", Aliases: []string{"rm"}}, ArgsSchema: kvKeyArgs{}},
				"list":  {Info: yargs.SubCommandInfo{Name: "list", Description: "List keys", Aliases: []string{"ls"}}, ArgsSchema: kvListArgs{}},
				"clear": {Info: yargs.SubCommandInfo{Name: "clear", Description: "Delete keys (all when none given)"}},
			},
		},
		Handlers: map[string]cmdtree.Handler{
			"get": func(_ context.Context, inv *cmdtree.Invocation) (any, error) {
				key := inv.String("key")
				v, ok := s.m.Load(key)
				if !ok {
					return nil, fmt.Errorf("no such key %q", key)
				}
				return v, nil
			},
			"set": func(_ context.Context, inv *cmdtree.Invocation) (any, error) {
				s.m.Store(inv.String("key"), inv.String("value"))
				return nil, nil
			},
			"del": func(_ context.Context, inv *cmdtree.Invocation) (any, error) {
				key := inv.String("key")
				if _, ok := s.m.LoadAndDelete(key); !ok {
					return nil, fmt.Errorf("no such key %q", key)
				}
				return nil, nil
			},
			"list": func(_ context.Context, inv *cmdtree.Invocation) (any, error) {
				prefix := inv.String("prefix")
				keys := []string{}
				for k := range s.m.Keys() {
					if strings.HasPrefix(k, prefix) {
						keys = append(keys, k)
					}
				}
				sort.Strings(keys)
				return keys, nil
			},
		},
		Raw: map[string]yargs.SubcommandHandler{
			"clear": func(_ context.Context, args []string) error {
				if len(args) == 0 {
					s.m.Clear()
					return nil
				}
				for _, k := range args {
					s.m.Delete(k)
				}
				return nil
			},
		},
	}
}

// manifestHandlers are the handlers manifest commands can name.
func manifestHandlers() map[string]cmdtree.Handler {
	return map[string]cmdtree.Handler{
		"echo": func(_ context.Context, inv *cmdtree.Invocation) (any, error) {
			var words []string
			for _, a := range inv.Args {
				if a.Value == nil {
					continue
				}
				switch v := a.Value.(type) {
				case []string:
					words = append(words, v...)
				default:
					words = append(words, fmt.Sprint(v))
				}
			}
			return strings.Join(words, " "), nil
		},
		"greet": func(_ context.Context, inv *cmdtree.Invocation) (any, error) {
			name := inv.String("name")
			if name == "" {
				name = "world"
			}
			return "hello, " + name, nil
		},
		"getenv": func(_ context.Context, inv *cmdtree.Invocation) (any, error) {
			key := inv.String("name")
			v, ok := os.LookupEnv(key)
			if !ok {
				return nil, fmt.Errorf("%s is not set", key)
			}
			return v, nil
		},
		"sleep": func(ctx context.Context, inv *cmdtree.Invocation) (any, error) {
			d, ok := cmdtree.ArgValue[time.Duration](inv, "duration")
			if !ok {
				d = time.Second
			}
			return sleep(ctx, d)
		},
		"exec": func(ctx context.Context, inv *cmdtree.Invocation) (any, error) {
			argv, _ := cmdtree.ArgValue[[]string](inv, "argv")
			if len(argv) == 0 {
				return nil, fmt.Errorf("no program to run")
			}
			return cmdutil.Output(ctx, os.Stderr, argv[0], argv[1:]...)
		},
		"now": func(_ context.Context, inv *cmdtree.Invocation) (any, error) {
			layout := inv.String("layout")
			if layout == "" {
				layout = time.RFC3339
			}
			return time.Now().Format(layout), nil
		},
	}
}

// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argparse

import (
	"errors"
	"net/netip"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/opencontainers/go-digest"
)

type countingParser struct {
	calls int
}

func (p *countingParser) Parse(tokens []string) (any, int, error) {
	return len(tokens), len(tokens), nil
}

func TestTypeForMatchesConstants(t *testing.T) {
	tests := []struct {
		got  TypeID
		want TypeID
	}{
		{TypeFor[string](), TypeString},
		{TypeFor[Text](), TypeText},
		{TypeFor[[]string](), TypeStrings},
		{TypeFor[int](), TypeInt},
		{TypeFor[int64](), TypeInt64},
		{TypeFor[uint](), TypeUint},
		{TypeFor[float64](), TypeFloat},
		{TypeFor[bool](), TypeBool},
		{TypeFor[time.Duration](), TypeDuration},
		{TypeFor[*url.URL](), TypeURL},
		{TypeFor[Port](), TypePort},
		{TypeFor[netip.Addr](), TypeAddr},
		{TypeFor[*semver.Version](), TypeSemver},
		{TypeFor[*semver.Constraints](), TypeSemverConstraint},
		{TypeFor[uuid.UUID](), TypeUUID},
		{TypeFor[digest.Digest](), TypeDigest},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("TypeFor = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestResolveTypeName(t *testing.T) {
	tests := map[string]TypeID{
		"int":           TypeInt,
		"Text":          TypeText,
		"port":          TypePort,
		"semver":        TypeSemver,
		" uuid ":        TypeUUID,
		"time.Duration": TypeDuration,
		"custom.Kind":   TypeID("custom.Kind"),
	}
	for name, want := range tests {
		if got := ResolveTypeName(name); got != want {
			t.Errorf("ResolveTypeName(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestRegistryLookupReturnsRegisteredInstance(t *testing.T) {
	r := NewRegistry()
	p := &countingParser{}
	if err := r.Register("counter", p); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, ok := r.Lookup("counter")
	if !ok {
		t.Fatalf("Lookup: not found")
	}
	if got != Parser(p) {
		t.Fatalf("Lookup returned %p, want %p", got, p)
	}
}

func TestRegistryDuplicateKeepsFirst(t *testing.T) {
	r := NewRegistry()
	first := &countingParser{}
	second := &countingParser{}
	if err := r.Register("counter", first); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err := r.Register("counter", second)
	var dup *DuplicateParserError
	if !errors.As(err, &dup) {
		t.Fatalf("second Register error = %v, want DuplicateParserError", err)
	}
	if dup.Type != "counter" {
		t.Errorf("dup.Type = %q, want %q", dup.Type, "counter")
	}
	got, _ := r.Lookup("counter")
	if got != Parser(first) {
		t.Fatalf("Lookup after duplicate returned the second parser")
	}
}

func TestRegistryLookupMissing(t *testing.T) {
	r := NewRegistry()
	p, ok := r.Lookup(TypeInt)
	if ok || p != nil {
		t.Fatalf("Lookup(missing) = %v, %v; want nil, false", p, ok)
	}
}

func TestRegistryFreeze(t *testing.T) {
	r := Default()
	r.Freeze()
	r.Freeze()
	if !r.Frozen() {
		t.Fatalf("Frozen() = false after Freeze")
	}
	err := r.Register("late", &countingParser{})
	if !errors.Is(err, ErrRegistryFrozen) {
		t.Fatalf("Register after Freeze error = %v, want ErrRegistryFrozen", err)
	}
	if _, ok := r.Lookup(TypeInt); !ok {
		t.Fatalf("Lookup(int) failed on frozen registry")
	}
}

func TestRegistryRejectsEmpty(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("", &countingParser{}); err == nil {
		t.Errorf("Register with empty id succeeded")
	}
	if err := r.Register("x", nil); err == nil {
		t.Errorf("Register with nil parser succeeded")
	}
}

func TestGenericRegister(t *testing.T) {
	type color string
	r := NewRegistry()
	p := Scalar(func(s string) (color, error) { return color(s), nil }, nil)
	if err := Register[color](r, p); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, ok := r.Lookup(TypeFor[color]()); !ok {
		t.Fatalf("Lookup(%s) failed", TypeFor[color]())
	}
}

func TestDefaultTypes(t *testing.T) {
	r := Default()
	if got, want := r.Len(), len(Builtins()); got != want {
		t.Fatalf("Len = %d, want %d", got, want)
	}
	types := r.Types()
	for i := 1; i < len(types); i++ {
		if types[i-1] >= types[i] {
			t.Fatalf("Types not sorted: %v", types)
		}
	}
}

func TestIntRoundTrip(t *testing.T) {
	p, _ := Default().Lookup(TypeInt)
	v, n, err := p.Parse([]string{"123"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n != 1 {
		t.Errorf("consumed = %d, want 1", n)
	}
	if v != 123 {
		t.Errorf("value = %v, want 123", v)
	}
	f, ok := p.(Formatter)
	if !ok {
		t.Fatalf("int parser is not a Formatter")
	}
	s, err := f.Format(v)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if s != "123" {
		t.Errorf("Format = %q, want %q", s, "123")
	}
}

func TestScalarParsers(t *testing.T) {
	reg := Default()
	tests := []struct {
		name    string
		typ     TypeID
		tokens  []string
		want    any
		wantErr error
	}{
		{name: "string", typ: TypeString, tokens: []string{"hello", "world"}, want: "hello"},
		{name: "int negative", typ: TypeInt, tokens: []string{"-5"}, want: -5},
		{name: "int format", typ: TypeInt, tokens: []string{"abc"}, wantErr: ErrInvalidFormat},
		{name: "int overflow", typ: TypeInt64, tokens: []string{"9223372036854775808"}, wantErr: ErrOutOfRange},
		{name: "uint negative", typ: TypeUint, tokens: []string{"-1"}, wantErr: ErrInvalidFormat},
		{name: "float", typ: TypeFloat, tokens: []string{"1.5"}, want: 1.5},
		{name: "float overflow", typ: TypeFloat, tokens: []string{"1e400"}, wantErr: ErrOutOfRange},
		{name: "float nan", typ: TypeFloat, tokens: []string{"NaN"}, wantErr: ErrInvalidFormat},
		{name: "bool yes", typ: TypeBool, tokens: []string{"yes"}, want: true},
		{name: "bool false", typ: TypeBool, tokens: []string{"false"}, want: false},
		{name: "bool bad", typ: TypeBool, tokens: []string{"maybe"}, wantErr: ErrInvalidFormat},
		{name: "duration", typ: TypeDuration, tokens: []string{"1m30s"}, want: 90 * time.Second},
		{name: "port", typ: TypePort, tokens: []string{"8080"}, want: Port(8080)},
		{name: "port overflow", typ: TypePort, tokens: []string{"70000"}, wantErr: ErrOutOfRange},
		{name: "addr", typ: TypeAddr, tokens: []string{"10.0.0.1"}, want: netip.MustParseAddr("10.0.0.1")},
		{name: "addr bad", typ: TypeAddr, tokens: []string{"10.0.0"}, wantErr: ErrInvalidFormat},
		{name: "uuid", typ: TypeUUID, tokens: []string{"6ba7b810-9dad-11d1-80b4-00c04fd430c8"}, want: uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")},
		{name: "uuid bad", typ: TypeUUID, tokens: []string{"nope"}, wantErr: ErrInvalidFormat},
		{name: "digest bad", typ: TypeDigest, tokens: []string{"sha256:xyz"}, wantErr: ErrInvalidFormat},
		{name: "semver bad", typ: TypeSemver, tokens: []string{"not-a-version"}, wantErr: ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := reg.Lookup(tt.typ)
			if !ok {
				t.Fatalf("no parser for %s", tt.typ)
			}
			v, n, err := p.Parse(tt.tokens)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse error = %v, want %v", err, tt.wantErr)
				}
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Fatalf("Parse error %T is not a *ParseError", err)
				}
				if diff := cmp.Diff(tt.tokens[:1], pe.Tokens); diff != "" {
					t.Errorf("ParseError.Tokens mismatch (-want +got):\n%s", diff)
				}
				if pe.Type != tt.typ {
					t.Errorf("ParseError.Type = %q, want %q", pe.Type, tt.typ)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if n != 1 {
				t.Errorf("consumed = %d, want 1", n)
			}
			if diff := cmp.Diff(tt.want, v, cmp.Comparer(func(a, b netip.Addr) bool { return a == b })); diff != "" {
				t.Errorf("value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSemverFormat(t *testing.T) {
	p, _ := Default().Lookup(TypeSemver)
	v, _, err := p.Parse([]string{"v1.2.3"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := FormatValue(p, v); got != "v1.2.3" {
		t.Errorf("FormatValue = %q, want %q", got, "v1.2.3")
	}
	if ver := v.(*semver.Version); ver.Minor() != 2 {
		t.Errorf("Minor = %d, want 2", ver.Minor())
	}
}

func TestGreedyParsers(t *testing.T) {
	reg := Default()
	text, _ := reg.Lookup(TypeText)
	v, n, err := text.Parse([]string{"hello", "there", "world"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v != Text("hello there world") || n != 3 {
		t.Errorf("Text parse = %q, %d", v, n)
	}

	rest, _ := reg.Lookup(TypeStrings)
	in := []string{"a", "b"}
	v, n, err = rest.Parse(in)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := v.([]string)
	got[0] = "changed"
	if in[0] != "a" {
		t.Errorf("[]string parser aliased its input")
	}
	if n != 2 {
		t.Errorf("consumed = %d, want 2", n)
	}

	_, _, err = text.Parse(nil)
	if !errors.Is(err, ErrNoTokens) {
		t.Errorf("Parse(nil) error = %v, want ErrNoTokens", err)
	}
}

func TestPortRange(t *testing.T) {
	p := PortRange(8000, 9000)
	if _, _, err := p.Parse([]string{"8080"}); err != nil {
		t.Fatalf("Parse(8080): %v", err)
	}
	_, _, err := p.Parse([]string{"80"})
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("Parse(80) error = %v, want ErrOutOfRange", err)
	}
	if got := err.Error(); got != `port must be between 8000-9000 (got "80")` {
		t.Errorf("error = %q", got)
	}

	min, max, err := ParsePortRange("1-1024")
	if err != nil || min != 1 || max != 1024 {
		t.Errorf("ParsePortRange = %d, %d, %v", min, max, err)
	}
	if _, _, err := ParsePortRange("9000-8000"); err == nil {
		t.Errorf("ParsePortRange(inverted) succeeded")
	}
}

func TestParseIsIdempotent(t *testing.T) {
	p, _ := Default().Lookup(TypeInt)
	tokens := []string{"42", "rest"}
	for i := 0; i < 3; i++ {
		v, n, err := p.Parse(tokens)
		if err != nil || v != 42 || n != 1 {
			t.Fatalf("Parse #%d = %v, %d, %v", i, v, n, err)
		}
	}
	if diff := cmp.Diff([]string{"42", "rest"}, tokens); diff != "" {
		t.Errorf("tokens mutated (-want +got):\n%s", diff)
	}
}

func TestFormatWrongType(t *testing.T) {
	p, _ := Default().Lookup(TypeInt)
	_, err := p.(Formatter).Format("nope")
	if !errors.Is(err, ErrWrongType) {
		t.Fatalf("Format error = %v, want ErrWrongType", err)
	}
	if got := FormatValue(p, "nope"); got != "nope" {
		t.Errorf("FormatValue fallback = %q", got)
	}
}

func TestRegistryConcurrentReads(t *testing.T) {
	r := Default()
	r.Freeze()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, id := range r.Types() {
				if _, ok := r.Lookup(id); !ok {
					t.Errorf("Lookup(%s) failed", id)
				}
			}
		}()
	}
	wg.Wait()
}

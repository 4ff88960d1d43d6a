// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argparse

import (
	_ "crypto/sha256"
	_ "crypto/sha512"
	"errors"
	"math"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/opencontainers/go-digest"
)

func rangeErr(err error) bool {
	var numErr *strconv.NumError
	return errors.As(err, &numErr) && numErr.Err == strconv.ErrRange
}

func parseInt(s string) (int, error) {
	i, err := strconv.ParseInt(s, 10, strconv.IntSize)
	if err != nil {
		if rangeErr(err) {
			return 0, OutOfRange("integer must be between %d and %d", math.MinInt, math.MaxInt)
		}
		return 0, Invalid("expected an integer")
	}
	return int(i), nil
}

func parseInt64(s string) (int64, error) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		if rangeErr(err) {
			return 0, OutOfRange("integer must be between %d and %d", int64(math.MinInt64), int64(math.MaxInt64))
		}
		return 0, Invalid("expected an integer")
	}
	return i, nil
}

func parseUint(s string) (uint, error) {
	u, err := strconv.ParseUint(s, 10, strconv.IntSize)
	if err != nil {
		if rangeErr(err) {
			return 0, OutOfRange("unsigned integer must be at most %d", uint64(math.MaxUint))
		}
		return 0, Invalid("expected a non-negative integer")
	}
	return uint(u), nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if rangeErr(err) {
			return 0, OutOfRange("number does not fit in a float64")
		}
		return 0, Invalid("expected a number")
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, Invalid("expected a finite number")
	}
	return f, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, Invalid("expected true or false")
	}
	return b, nil
}

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, Invalid("expected a duration like 1m30s")
	}
	return d, nil
}

func parseURL(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, Invalid("invalid URL: %v", err)
	}
	return u, nil
}

func parseAddr(s string) (netip.Addr, error) {
	a, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, Invalid("expected an IP address")
	}
	return a, nil
}

func parseSemver(s string) (*semver.Version, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, Invalid("invalid semantic version: %v", err)
	}
	return v, nil
}

func parseConstraint(s string) (*semver.Constraints, error) {
	c, err := semver.NewConstraint(s)
	if err != nil {
		return nil, Invalid("invalid version constraint: %v", err)
	}
	return c, nil
}

func parseUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, Invalid("expected a UUID")
	}
	return id, nil
}

func parseDigest(s string) (digest.Digest, error) {
	d, err := digest.Parse(s)
	if err != nil {
		return "", Invalid("invalid digest: %v", err)
	}
	return d, nil
}

func formatInt(i int) string { return strconv.Itoa(i) }
func formatInt64(i int64) string { return strconv.FormatInt(i, 10) }
func formatUint(u uint) string { return strconv.FormatUint(uint64(u), 10) }
func formatFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
func formatURL(u *url.URL) string { return u.String() }
func formatSemver(v *semver.Version) string {
	return v.Original()
}

// Builtins returns a fresh set of the builtin parsers keyed by type.
func Builtins() map[TypeID]Parser {
	return map[TypeID]Parser{
		TypeString:           Scalar(func(s string) (string, error) { return s, nil }, nil),
		TypeText:             Greedy(),
		TypeStrings:          Rest(),
		TypeInt:              Scalar(parseInt, formatInt),
		TypeInt64:            Scalar(parseInt64, formatInt64),
		TypeUint:             Scalar(parseUint, formatUint),
		TypeFloat:            Scalar(parseFloat, formatFloat),
		TypeBool:             Scalar(parseBool, strconv.FormatBool),
		TypeDuration:         Scalar(parseDuration, time.Duration.String),
		TypeURL:              Scalar(parseURL, formatURL),
		TypePort:             Scalar(parsePort, Port.String),
		TypeAddr:             Scalar(parseAddr, netip.Addr.String),
		TypeSemver:           Scalar(parseSemver, formatSemver),
		TypeSemverConstraint: Scalar(parseConstraint, (*semver.Constraints).String),
		TypeUUID:             Scalar(parseUUID, uuid.UUID.String),
		TypeDigest:           Scalar(parseDigest, digest.Digest.String),
	}
}

// RegisterBuiltins registers every builtin parser into r.
func RegisterBuiltins(r *Registry) error {
	for id, p := range Builtins() {
		if err := r.Register(id, p); err != nil {
			return err
		}
	}
	return nil
}

// Default returns an unfrozen registry holding the builtin parsers.
func Default() *Registry {
	r := NewRegistry()
	if err := RegisterBuiltins(r); err != nil {
		panic(err)
	}
	return r
}

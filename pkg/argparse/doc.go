// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package argparse turns raw command tokens into typed values.
//
// A Parser is keyed by the type it produces. Types are named by a TypeID,
// a stable string tag derived from the Go type:
//
//	argparse.TypeFor[int]()             // "int"
//	argparse.TypeFor[*semver.Version]() // "*semver.Version"
//
// Parsers live in a Registry that is filled by the host before any command
// tree is built and frozen afterwards:
//
//	reg := argparse.Default()
//	if err := reg.Register(argparse.TypeFor[Color](), argparse.Scalar(parseColor, Color.String)); err != nil {
//	    log.Fatal(err)
//	}
//	reg.Freeze()
//
// A parser reports how many tokens it consumed so that a caller walking a
// token window can advance past them. Scalars consume exactly one token;
// Text and []string consume everything that is left.
//
// # Supported Types
//
// Default registers parsers for:
//   - string, Text (rest of line), []string (rest of tokens)
//   - int, int64, uint, float64, bool
//   - time.Duration, *url.URL, netip.Addr
//   - Port (uint16, see PortRange for bounded variants)
//   - *semver.Version, *semver.Constraints
//   - uuid.UUID, digest.Digest
//
// Manifest files may use the short names accepted by ResolveTypeName
// ("int", "text", "port", "semver", ...).
package argparse

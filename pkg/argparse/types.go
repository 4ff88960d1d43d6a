// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argparse

import (
	"reflect"
	"sort"
	"strings"
)

// TypeID identifies the type a Parser produces. It is the registry key.
type TypeID string

func (id TypeID) String() string { return string(id) }

// TypeFor returns the TypeID of T.
func TypeFor[T any]() TypeID {
	return TypeOf(reflect.TypeFor[T]())
}

// TypeOf returns the TypeID of t, or "" if t is nil.
func TypeOf(t reflect.Type) TypeID {
	if t == nil {
		return ""
	}
	return TypeID(t.String())
}

// Text is a string argument that consumes every remaining token, joined by
// single spaces.
type Text string

const (
	TypeString           TypeID = "string"
	TypeText             TypeID = "argparse.Text"
	TypeStrings          TypeID = "[]string"
	TypeInt              TypeID = "int"
	TypeInt64            TypeID = "int64"
	TypeUint             TypeID = "uint"
	TypeFloat            TypeID = "float64"
	TypeBool             TypeID = "bool"
	TypeDuration         TypeID = "time.Duration"
	TypeURL              TypeID = "*url.URL"
	TypePort             TypeID = "argparse.Port"
	TypeAddr             TypeID = "netip.Addr"
	TypeSemver           TypeID = "*semver.Version"
	TypeSemverConstraint TypeID = "*semver.Constraints"
	TypeUUID             TypeID = "uuid.UUID"
	TypeDigest           TypeID = "digest.Digest"
)

// typeNames maps the short names used in manifests to TypeIDs.
var typeNames = map[string]TypeID{
	"str":               TypeString,
	"text":              TypeText,
	"rest":              TypeText,
	"strings":           TypeStrings,
	"integer":           TypeInt,
	"float":             TypeFloat,
	"number":            TypeFloat,
	"boolean":           TypeBool,
	"duration":          TypeDuration,
	"url":               TypeURL,
	"port":              TypePort,
	"addr":              TypeAddr,
	"ip":                TypeAddr,
	"semver":            TypeSemver,
	"version":           TypeSemver,
	"semver-constraint": TypeSemverConstraint,
	"constraint":        TypeSemverConstraint,
	"uuid":              TypeUUID,
	"digest":            TypeDigest,
}

// ResolveTypeName maps a short type name ("int", "text", "semver") to its
// TypeID. Names that are not short names are returned unchanged, so full
// TypeIDs such as "time.Duration" pass through.
func ResolveTypeName(name string) TypeID {
	name = strings.TrimSpace(name)
	if id, ok := typeNames[strings.ToLower(name)]; ok {
		return id
	}
	return TypeID(name)
}

// TypeNames returns the short names accepted by ResolveTypeName, sorted.
func TypeNames() []string {
	names := make([]string, 0, len(typeNames))
	for name := range typeNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

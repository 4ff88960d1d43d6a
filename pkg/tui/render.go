// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tui

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// PrintError writes err as "error: <message>". Continuation lines of a
// multi-line message are dimmed.
func PrintError(w io.Writer, c Colorizer, err error) {
	if err == nil {
		return
	}
	first, rest, _ := strings.Cut(err.Error(), "\n")
	fmt.Fprintf(w, "%s %s\n", c.Error("error:"), first)
	if rest != "" {
		fmt.Fprintln(w, c.Dim(rest))
	}
}

// PrintResult writes a command's return value. Strings, string slices,
// Stringers and scalars print as text; anything else is rendered as YAML.
func PrintResult(w io.Writer, v any) error {
	switch v := v.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		_, err := fmt.Fprintln(w, v)
		return err
	case []string:
		for _, s := range v {
			if _, err := fmt.Fprintln(w, s); err != nil {
				return err
			}
		}
		return nil
	case fmt.Stringer:
		_, err := fmt.Fprintln(w, v.String())
		return err
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		_, err := fmt.Fprintln(w, v)
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to render result: %w", err)
	}
	return enc.Close()
}

// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cmdutil runs external programs on behalf of command handlers.
package cmdutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// NewCmd returns a command bound to ctx whose stderr goes to stderr.
func NewCmd(ctx context.Context, stderr io.Writer, name string, arg ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, arg...)
	cmd.Stderr = stderr
	return cmd
}

// Output runs name and returns its standard output with the trailing
// newline removed. A non-zero exit is reported with the exit code.
func Output(ctx context.Context, stderr io.Writer, name string, arg ...string) (string, error) {
	var stdout bytes.Buffer
	cmd := NewCmd(ctx, stderr, name, arg...)
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return "", fmt.Errorf("%s exited with status %d", name, ee.ExitCode())
		}
		return "", err
	}
	return strings.TrimSuffix(stdout.String(), "\n"), nil
}

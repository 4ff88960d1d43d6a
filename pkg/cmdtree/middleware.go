// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmdtree

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Middleware wraps a handler (e.g. logging, metrics, timeouts).
type Middleware func(Handler) Handler

// Chain applies middlewares in order; the first in the list is the
// outermost.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// LogMiddleware logs each invocation with its duration at debug level and
// failures at warn level.
func LogMiddleware(log zerolog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, inv *Invocation) (any, error) {
			start := time.Now()
			out, err := next(ctx, inv)
			cmd := strings.Join(inv.Path, " ")
			if err != nil {
				log.Warn().Str("command", cmd).Dur("took", time.Since(start)).Err(err).Msg("command failed")
				return out, err
			}
			log.Debug().Str("command", cmd).Dur("took", time.Since(start)).Msg("command finished")
			return out, nil
		}
	}
}

// TimeoutMiddleware bounds the context handed to the handler. Handlers
// that ignore ctx are not interrupted.
func TimeoutMiddleware(d time.Duration) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, inv *Invocation) (any, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, inv)
		}
	}
}

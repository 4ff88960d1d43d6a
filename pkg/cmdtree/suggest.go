// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmdtree

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxSuggestions bounds how many candidates Suggest returns.
const maxSuggestions = 3

// Suggest returns the candidates closest to token by edit distance, best
// first. A candidate qualifies when it has token as a prefix or lies within
// a third of its length in edits (at least one).
func Suggest(token string, candidates []string) []string {
	if token == "" {
		return nil
	}
	type scored struct {
		name string
		dist int
	}
	limit := max(1, len(token)/3)
	var hits []scored
	seen := make(map[string]bool)
	for _, c := range candidates {
		if c == token || seen[c] {
			continue
		}
		seen[c] = true
		d := levenshtein.ComputeDistance(strings.ToLower(token), strings.ToLower(c))
		if strings.HasPrefix(c, token) {
			d = 0
		}
		if d <= limit {
			hits = append(hits, scored{c, d})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].name < hits[j].name
	})
	if len(hits) > maxSuggestions {
		hits = hits[:maxSuggestions]
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.name
	}
	return out
}

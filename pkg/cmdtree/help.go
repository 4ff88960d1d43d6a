// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmdtree

import (
	"fmt"
	"strings"

	"github.com/yeetrun/cmdtree/pkg/argparse"
)

func aliasSuffix(aliases []string) string {
	if len(aliases) == 0 {
		return ""
	}
	if len(aliases) == 1 {
		return fmt.Sprintf(" (alias: %s)", aliases[0])
	}
	return fmt.Sprintf(" (aliases: %s)", strings.Join(aliases, ", "))
}

func describeWithAliases(desc string, aliases []string) string {
	suffix := aliasSuffix(aliases)
	if desc == "" {
		return strings.TrimSpace(suffix)
	}
	return desc + suffix
}

// UsageLine renders the invocation of node at path, e.g.
// "remote add <name:string> [url:*url.URL]".
func UsageLine(path []string, node *Tree) string {
	var b strings.Builder
	b.WriteString(strings.Join(path, " "))
	if len(node.children) > 0 && (node.handler == nil || len(node.args) == 0) {
		if node.handler == nil {
			b.WriteString(" <command>")
		} else {
			b.WriteString(" [command]")
		}
	}
	for _, a := range node.args {
		if a.Required() {
			fmt.Fprintf(&b, " <%s:%s>", a.Name, a.Type)
		} else {
			fmt.Fprintf(&b, " [%s:%s]", a.Name, a.Type)
		}
	}
	if node.usage != "" {
		b.WriteString(" ")
		b.WriteString(node.usage)
	}
	return b.String()
}

// Help renders help for node. path is the command path shown in the usage
// line; it normally ends with node's name.
func Help(node *Tree, path []string) string {
	if len(path) == 0 {
		path = []string{node.name}
	}
	var b strings.Builder

	if d := describeWithAliases(node.description, node.aliases); d != "" {
		b.WriteString(d)
		b.WriteString("\n\n")
	}

	b.WriteString("USAGE:\n")
	fmt.Fprintf(&b, "    %s\n\n", UsageLine(path, node))

	if len(node.args) > 0 {
		b.WriteString("ARGUMENTS:\n")
		for _, a := range node.args {
			line := fmt.Sprintf("    %-20s %s", a.Name, a.Type)
			if a.Description != "" {
				line += "  " + a.Description
			}
			if a.HasDefault {
				line += fmt.Sprintf(" (default: %s)", argparse.FormatValue(a.Parser, a.Default))
			} else if a.Optional {
				line += " (optional)"
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	var visible []*Tree
	for _, c := range node.children {
		if !c.hidden {
			visible = append(visible, c)
		}
	}
	if len(visible) > 0 {
		b.WriteString("COMMANDS:\n")
		for _, c := range visible {
			desc := describeWithAliases(c.description, c.aliases)
			if desc != "" {
				fmt.Fprintf(&b, "    %-20s %s\n", c.name, desc)
			} else {
				fmt.Fprintf(&b, "    %s\n", c.name)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Summary renders a one-line entry per visible root for a listing.
func Summary(roots []*Tree) string {
	var b strings.Builder
	for _, t := range roots {
		if t.hidden {
			continue
		}
		desc := describeWithAliases(t.description, t.aliases)
		if desc != "" {
			fmt.Fprintf(&b, "    %-20s %s\n", t.name, desc)
		} else {
			fmt.Fprintf(&b, "    %s\n", t.name)
		}
	}
	return b.String()
}

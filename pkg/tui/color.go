// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tui

import (
	"os"

	"github.com/fatih/color"
)

// Color modes accepted by ColorizerFor.
const (
	ModeAuto   = "auto"
	ModeAlways = "always"
	ModeNever  = "never"
)

type Colorizer struct {
	Enabled bool
}

// NewColorizer returns an enabled Colorizer unless enabled is false,
// NO_COLOR is set, or TERM is empty or dumb.
func NewColorizer(enabled bool) Colorizer {
	if !enabled {
		return Colorizer{}
	}
	if os.Getenv("NO_COLOR") != "" {
		return Colorizer{}
	}
	term := os.Getenv("TERM")
	if term == "" || term == "dumb" {
		return Colorizer{}
	}
	return Colorizer{Enabled: true}
}

// ColorizerFor maps a color mode to a Colorizer. Auto additionally
// requires stdout to be a terminal.
func ColorizerFor(mode string) Colorizer {
	switch mode {
	case ModeAlways:
		return Colorizer{Enabled: true}
	case ModeNever:
		return Colorizer{}
	default:
		return NewColorizer(!color.NoColor)
	}
}

// Wrap renders text with attrs when the Colorizer is enabled.
func (c Colorizer) Wrap(text string, attrs ...color.Attribute) string {
	if !c.Enabled || len(attrs) == 0 {
		return text
	}
	cc := color.New(attrs...)
	cc.EnableColor()
	return cc.Sprint(text)
}

func (c Colorizer) Error(text string) string   { return c.Wrap(text, color.FgRed, color.Bold) }
func (c Colorizer) Warn(text string) string    { return c.Wrap(text, color.FgYellow) }
func (c Colorizer) Success(text string) string { return c.Wrap(text, color.FgGreen) }
func (c Colorizer) Dim(text string) string     { return c.Wrap(text, color.FgHiBlack) }
func (c Colorizer) Bold(text string) string    { return c.Wrap(text, color.Bold) }

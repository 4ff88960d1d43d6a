// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads cmdtree settings from a project file and the
// environment.
//
// Settings come from, in increasing priority: built-in defaults, the
// nearest cmdtree.toml found by walking up from the working directory, a
// .env file next to it, and CMDTREE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	FileName  = "cmdtree.toml"
	EnvPrefix = "CMDTREE_"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

type Config struct {
	// Manifests lists command manifest files (.toml, .yaml or .yml).
	// Relative paths are relative to the directory of the config file.
	Manifests   []string `toml:"manifests,omitempty" env:"MANIFESTS" envSeparator:","`
	LogLevel    string   `toml:"log_level,omitempty" env:"LOG_LEVEL"`
	Prompt      string   `toml:"prompt,omitempty" env:"PROMPT"`
	Color       string   `toml:"color,omitempty" env:"COLOR"`
	Suggestions bool     `toml:"suggestions" env:"SUGGESTIONS"`
	Concurrency int      `toml:"concurrency,omitempty" env:"CONCURRENCY"`

	// Path is the config file the settings were read from, if any.
	Path string `toml:"-" env:"-"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:    "warn",
		Prompt:      "> ",
		Color:       ColorAuto,
		Suggestions: true,
		Concurrency: 8,
	}
}

// Load finds and reads cmdtree.toml starting at startDir, then applies
// the environment. A missing config file is not an error.
func Load(startDir string) (*Config, error) {
	path, err := findConfigPath(startDir)
	switch {
	case err == nil:
		return load(path, filepath.Dir(path))
	case errors.Is(err, os.ErrNotExist):
		return load("", startDir)
	default:
		return nil, err
	}
}

// LoadFile reads the config file at path, which must exist, then applies
// the environment.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return load(path, filepath.Dir(path))
}

func load(path, dir string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		cfg.Path = path
	}

	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	cfg.Manifests = ResolvePaths(dir, cfg.Manifests)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolvePaths trims paths, drops empty ones and makes relative ones
// relative to dir.
func ResolvePaths(dir string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		out = append(out, p)
	}
	return out
}

// LoadFromCwd is Load starting at the working directory.
func LoadFromCwd() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return Load(cwd)
}

func findConfigPath(startDir string) (string, error) {
	dir := filepath.Clean(startDir)
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

// Validate checks field values.
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("invalid color mode %q (want auto, always or never)", c.Color)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	return nil
}

// Level returns the configured log level.
func (c *Config) Level() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"golang.org/x/term"
)

const configName = "cmdr.toml"

// Color modes.
const (
	colorAuto   = "auto"
	colorAlways = "always"
	colorNever  = "never"
)

// Config is the contents of cmdr.toml.
type Config struct {
	// Manifest is the manifest or compiled tree to load. A relative path is
	// resolved against the directory of cmdr.toml.
	Manifest string `toml:"manifest,omitempty"`
	Program  string `toml:"program,omitempty"`
	Color    string `toml:"color,omitempty"`
	CacheDir string `toml:"cache_dir,omitempty"`
}

type configLocation struct {
	Path   string
	Dir    string
	Config *Config
}

// loadConfig finds cmdr.toml in startDir or one of its parents. It returns
// an empty config when there is none.
func loadConfig(startDir string) (*configLocation, error) {
	path, err := findConfigPath(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &configLocation{Dir: startDir, Config: &Config{}}, nil
		}
		return nil, err
	}
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if un := md.Undecoded(); len(un) > 0 {
		return nil, fmt.Errorf("%s: unknown keys %v", path, un)
	}
	loc := &configLocation{Path: path, Dir: filepath.Dir(path), Config: &cfg}
	if cfg.Manifest != "" && !filepath.IsAbs(cfg.Manifest) {
		cfg.Manifest = filepath.Join(loc.Dir, cfg.Manifest)
	}
	if cfg.CacheDir != "" && !filepath.IsAbs(cfg.CacheDir) {
		cfg.CacheDir = filepath.Join(loc.Dir, cfg.CacheDir)
	}
	return loc, nil
}

func findConfigPath(startDir string) (string, error) {
	dir := filepath.Clean(startDir)
	for {
		path := filepath.Join(dir, configName)
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

// applyEnv overrides c with CMDR_MANIFEST and CMDR_CACHE_DIR.
func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("CMDR_MANIFEST"); v != "" {
		c.Manifest = v
	}
	if v := getenv("CMDR_CACHE_DIR"); v != "" {
		c.CacheDir = v
	}
}

func (c *Config) applyFlags(g globalFlagsParsed) {
	if g.Manifest != "" {
		c.Manifest = g.Manifest
	}
	if g.Color != "" {
		c.Color = g.Color
	}
}

func (c *Config) validate() error {
	switch c.Color {
	case "", colorAuto, colorAlways, colorNever:
		return nil
	}
	return fmt.Errorf("invalid color mode %q (want auto, always or never)", c.Color)
}

// useColor reports whether output to f should be colored.
func (c *Config) useColor(f *os.File, getenv func(string) string) bool {
	switch c.Color {
	case colorAlways:
		return true
	case colorNever:
		return false
	}
	if getenv("NO_COLOR") != "" || getenv("TERM") == "dumb" {
		return false
	}
	return f != nil && term.IsTerminal(int(f.Fd()))
}

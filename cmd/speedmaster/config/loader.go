// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ErrConfigExists is returned by WriteDefault when the file is present
// and force is not set.
var ErrConfigExists = errors.New("config file already exists")

// DefaultPath returns ~/.speedmaster/speedmaster.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".speedmaster", "speedmaster.yaml"), nil
}

// Load reads the config at path, creating it with defaults on first run,
// then applies SPEEDMASTER_* environment overrides. An empty path means
// DefaultPath.
func Load(path string) (SpeedMasterConfig, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return SpeedMasterConfig{}, err
		}
		path = p
	}
	path = ExpandPath(path)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, " First run detected, creating the config at %s\n", path)
		if err := createDefault(path); err != nil {
			return SpeedMasterConfig{}, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return SpeedMasterConfig{}, fmt.Errorf("failed to read the config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SpeedMasterConfig{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := env.Parse(&cfg); err != nil {
		return SpeedMasterConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// WriteDefault writes the default config to path. An existing file is
// only replaced when force is set.
func WriteDefault(path string, force bool) error {
	path = ExpandPath(path)
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	return createDefault(path)
}

func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package doot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const configFileName = "doot.toml"

// fileConfig is the optional doot.toml sitting next to the do script. It
// seeds manager defaults; explicit ManagerOptions override it.
type fileConfig struct {
	Name             string            `toml:"name,omitempty"`
	Splash           string            `toml:"splash,omitempty"`
	DefaultContainer string            `toml:"default_container,omitempty"`
	Env              map[string]string `toml:"env,omitempty"`
}

// loadConfig reads dir/doot.toml. A missing file is not an error and returns
// a nil config.
func loadConfig(dir string) (*fileConfig, error) {
	path := filepath.Join(dir, configFileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var cfg fileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *fileConfig) apply(m *Manager) {
	if c.Name != "" {
		m.name = c.Name
	}
	if c.Splash != "" {
		splash := c.Splash
		m.splash = func() string { return splash }
	}
	if c.DefaultContainer != "" {
		m.runner.DefaultContainer = c.DefaultContainer
	}
	for k, v := range c.Env {
		os.Setenv(k, v)
	}
}

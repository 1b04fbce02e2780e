// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compose reads just enough of a docker-compose file to name its
// services in diagnostics.
package compose

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

var defaultFiles = []string{
	"compose.yaml",
	"compose.yml",
	"docker-compose.yaml",
	"docker-compose.yml",
}

// Services returns the sorted service names declared in the compose file at
// path.
func Services(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse compose file %s: %w", path, err)
	}
	servicesRaw, ok := doc["services"]
	if !ok {
		return nil, fmt.Errorf("compose file missing services")
	}
	services, ok := servicesRaw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("compose services are not a map")
	}
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// FindServices looks for a compose file under dir using the conventional
// file names and returns its service names. Returns ok=false when no compose
// file exists or it cannot be read.
func FindServices(dir string) ([]string, bool) {
	for _, name := range defaultFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		names, err := Services(path)
		if err != nil {
			return nil, false
		}
		return names, true
	}
	return nil, false
}

// Package config loads the optional tools file: a YAML mapping from tool
// names to explicit executable paths and default arguments, overriding
// PATH lookup.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"fieldsolve/internal/proc"
)

// KnownTools are the external collaborators the driver may invoke. Names
// outside this set in a tools file are rejected to catch typos.
var KnownTools = []string{
	"backend",
	"augment-xylist",
	"plotxy",
	"plotquad",
	"plot-constellations",
	"wcs-rd2xy",
	"curl",
	"wget",
}

type toolEntry struct {
	Path string   `yaml:"path"`
	Args []string `yaml:"args"`
}

type toolsFile struct {
	Tools map[string]toolEntry `yaml:"tools"`
}

// LoadTools parses the tools file at path into runner overrides.
func LoadTools(path string) (map[string]proc.Tool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tools file: %w", err)
	}
	var file toolsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing tools file %s: %w", path, err)
	}

	overrides := make(map[string]proc.Tool, len(file.Tools))
	for name, entry := range file.Tools {
		if !knownTool(name) {
			return nil, fmt.Errorf("tools file %s names unknown tool %q", path, name)
		}
		overrides[name] = proc.Tool{Path: entry.Path, Args: entry.Args}
	}
	return overrides, nil
}

func knownTool(name string) bool {
	for _, k := range KnownTools {
		if k == name {
			return true
		}
	}
	return false
}

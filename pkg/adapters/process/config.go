package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// CommandConfig describes a local command that serves as a model backend.
type CommandConfig struct {
	Name        string            `yaml:"name" json:"name" mapstructure:"name"`
	Command     string            `yaml:"command" json:"command" mapstructure:"command"`
	Args        []string          `yaml:"args" json:"args" mapstructure:"args"`
	Environment map[string]string `yaml:"env" json:"env" mapstructure:"env"`
	Description string            `yaml:"description" json:"description" mapstructure:"description"`
}

// ConfigFile represents the structure of models.yaml
type ConfigFile struct {
	Models []CommandConfig `yaml:"models" json:"models"`
}

// LoadCommands reads a configuration file (YAML or JSON) and returns the
// commands keyed by model name. A missing file yields an empty set.
func LoadCommands(path string) (map[string]CommandConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]CommandConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read models config: %w", err)
	}

	var cfg ConfigFile
	ext := strings.ToLower(filepath.Ext(path))

	if ext == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	return Index(cfg.Models), nil
}

// Index keys commands by name, skipping unnamed entries.
func Index(commands []CommandConfig) map[string]CommandConfig {
	out := make(map[string]CommandConfig, len(commands))
	for _, c := range commands {
		if c.Name == "" {
			continue
		}
		out[c.Name] = c
	}
	return out
}

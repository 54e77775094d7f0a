// Package config implements JSON configuration for the repository
// (spec.md's ambient config needs): a global file in the user's home
// directory merged with a per-repository override, matching the
// teacher's two-tier global/repo config layering and JSON encoding.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds anvil's configuration.
type Config struct {
	User UserConfig `json:"user"`
	Core CoreConfig `json:"core"`
}

// UserConfig holds commit author identity.
type UserConfig struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CoreConfig holds general behavior settings.
type CoreConfig struct {
	Editor string `json:"editor,omitempty"`
	Pager  string `json:"pager,omitempty"`
}

// DefaultConfig returns a config with sensible defaults, seeded from
// the environment where applicable.
func DefaultConfig() *Config {
	return &Config{
		Core: CoreConfig{
			Editor: os.Getenv("EDITOR"),
			Pager:  os.Getenv("PAGER"),
		},
	}
}

func globalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: get home directory: %w", err)
	}
	return filepath.Join(home, ".anvilconfig"), nil
}

func repoConfigPath(metaDir string) string {
	return filepath.Join(metaDir, "config")
}

// Load reads configuration, applying the global file first and then
// letting a repository-local override (metaDir/config) take
// precedence. metaDir may be "" when operating outside a repository,
// in which case only the global file is consulted.
func Load(metaDir string) (*Config, error) {
	cfg := DefaultConfig()

	if globalPath, err := globalConfigPath(); err == nil {
		if data, err := os.ReadFile(globalPath); err == nil {
			var globalCfg Config
			if err := json.Unmarshal(data, &globalCfg); err == nil {
				merge(cfg, &globalCfg)
			}
		}
	}

	if metaDir != "" {
		if data, err := os.ReadFile(repoConfigPath(metaDir)); err == nil {
			var repoCfg Config
			if err := json.Unmarshal(data, &repoCfg); err == nil {
				merge(cfg, &repoCfg)
			}
		}
	}

	return cfg, nil
}

// SaveGlobal writes cfg to the user's global config file.
func SaveGlobal(cfg *Config) error {
	path, err := globalConfigPath()
	if err != nil {
		return err
	}
	return writeJSON(path, cfg)
}

// SaveRepo writes cfg to the repository's config file.
func SaveRepo(metaDir string, cfg *Config) error {
	path := repoConfigPath(metaDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create metadata directory: %w", err)
	}
	return writeJSON(path, cfg)
}

func writeJSON(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Get retrieves a value by "section.key" (e.g. "user.name").
func Get(metaDir, key string) (string, error) {
	cfg, err := Load(metaDir)
	if err != nil {
		return "", err
	}
	section, field, err := splitKey(key)
	if err != nil {
		return "", err
	}
	switch section {
	case "user":
		switch field {
		case "name":
			return cfg.User.Name, nil
		case "email":
			return cfg.User.Email, nil
		}
	case "core":
		switch field {
		case "editor":
			return cfg.Core.Editor, nil
		case "pager":
			return cfg.Core.Pager, nil
		}
	}
	return "", fmt.Errorf("config: unknown key %q", key)
}

// Set sets a value by "section.key", persisting to either the global
// or repository config file.
func Set(metaDir, key, value string, global bool) error {
	var cfg *Config
	if global {
		path, err := globalConfigPath()
		if err != nil {
			return err
		}
		cfg = readOrDefault(path)
	} else {
		cfg = readOrDefault(repoConfigPath(metaDir))
	}

	section, field, err := splitKey(key)
	if err != nil {
		return err
	}
	switch section {
	case "user":
		switch field {
		case "name":
			cfg.User.Name = value
		case "email":
			cfg.User.Email = value
		default:
			return fmt.Errorf("config: unknown user field %q", field)
		}
	case "core":
		switch field {
		case "editor":
			cfg.Core.Editor = value
		case "pager":
			cfg.Core.Pager = value
		default:
			return fmt.Errorf("config: unknown core field %q", field)
		}
	default:
		return fmt.Errorf("config: unknown section %q", section)
	}

	if global {
		return SaveGlobal(cfg)
	}
	return SaveRepo(metaDir, cfg)
}

func readOrDefault(path string) *Config {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig()
	}
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return DefaultConfig()
	}
	return cfg
}

func splitKey(key string) (section, field string, err error) {
	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("config: invalid key %q (expected section.key)", key)
	}
	return parts[0], parts[1], nil
}

// Author formats the configured commit author as "Name <email>".
func Author(metaDir string) (string, error) {
	cfg, err := Load(metaDir)
	if err != nil {
		return "", err
	}
	if cfg.User.Name == "" || cfg.User.Email == "" {
		return "", fmt.Errorf("config: user.name and user.email are not set (set them in ~/.anvilconfig or the repository's config file)")
	}
	return fmt.Sprintf("%s <%s>", cfg.User.Name, cfg.User.Email), nil
}

// merge copies every non-empty field from src into dst.
func merge(dst, src *Config) {
	if src.User.Name != "" {
		dst.User.Name = src.User.Name
	}
	if src.User.Email != "" {
		dst.User.Email = src.User.Email
	}
	if src.Core.Editor != "" {
		dst.Core.Editor = src.Core.Editor
	}
	if src.Core.Pager != "" {
		dst.Core.Pager = src.Core.Pager
	}
}

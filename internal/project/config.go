// Package project reads the optional per-project settings kept under
// .projectgen/ in a project root.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	// SettingsDir is the per-project settings directory.
	SettingsDir = ".projectgen"
	// ConfigFile is the name of the project configuration file
	ConfigFile = "config.json"
	// RulesFile holds extra instructions appended to the chat system prompt.
	RulesFile = "rules"
)

// ProjectConfig holds per-project configuration settings.
type ProjectConfig struct {
	// DisableWatch turns off the filesystem watcher for chat sessions.
	DisableWatch bool `json:"disable_watch"`
	// DisableSnapshots skips the git commit after each applied edit.
	DisableSnapshots bool `json:"disable_snapshots"`
}

// Watching reports whether chat sessions should watch the project tree.
// A nil config watches.
func (c *ProjectConfig) Watching() bool {
	return c == nil || !c.DisableWatch
}

// Snapshotting reports whether applied edits should be committed.
func (c *ProjectConfig) Snapshotting() bool {
	return c == nil || !c.DisableSnapshots
}

func configPath(root string) string {
	return filepath.Join(root, SettingsDir, ConfigFile)
}

func rulesPath(root string) string {
	return filepath.Join(root, SettingsDir, RulesFile)
}

// LoadConfig reads the project configuration from disk.
// Returns nil and no error if the config file does not exist.
func LoadConfig(root string) (*ProjectConfig, error) {
	data, err := os.ReadFile(configPath(root))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read project config: %w", err)
	}

	var cfg ProjectConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse project config: %w", err)
	}
	return &cfg, nil
}

// LoadRules reads custom chat rules from .projectgen/rules.
// Returns empty string and no error if the file does not exist.
func LoadRules(root string) (string, error) {
	data, err := os.ReadFile(rulesPath(root))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read rules file: %w", err)
	}
	return string(data), nil
}

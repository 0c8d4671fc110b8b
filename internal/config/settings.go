// Package config handles JSON settings loading for the hand-off core.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Settings holds merged configuration from multiple sources.
// Later sources override earlier ones (user < project).
type Settings struct {
	Model               string   `json:"model,omitempty"`
	SupportedModels     []string `json:"supportedModels,omitempty"`
	MaxRetries          *int     `json:"maxRetries,omitempty"`
	CarryBuilderHistory *bool    `json:"carryBuilderHistory,omitempty"`
	RequestLimit        int64    `json:"requestLimit,omitempty"`
	TotalTokensLimit    int64    `json:"totalTokensLimit,omitempty"`
}

// LoadSettings merges settings from multiple JSON file paths.
// Later paths override earlier ones. Missing files are silently skipped.
func LoadSettings(paths ...string) (*Settings, error) {
	merged := &Settings{}

	for _, path := range paths {
		s, err := loadSettingsFile(path)
		if err != nil {
			continue // Skip missing or invalid files
		}
		mergeSettings(merged, s)
	}

	return merged, nil
}

// DefaultSettingsPaths returns the standard settings file search paths.
func DefaultSettingsPaths(projectDir string) []string {
	home, _ := os.UserHomeDir()
	var paths []string

	if home != "" {
		paths = append(paths, filepath.Join(home, ".agentforge", "settings.json"))
	}
	if projectDir != "" {
		paths = append(paths, filepath.Join(projectDir, ".agentforge", "settings.json"))
	}

	return paths
}

func loadSettingsFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func mergeSettings(dst, src *Settings) {
	if src.Model != "" {
		dst.Model = src.Model
	}
	if len(src.SupportedModels) > 0 {
		dst.SupportedModels = src.SupportedModels
	}
	if src.MaxRetries != nil {
		dst.MaxRetries = src.MaxRetries
	}
	if src.CarryBuilderHistory != nil {
		dst.CarryBuilderHistory = src.CarryBuilderHistory
	}
	if src.RequestLimit > 0 {
		dst.RequestLimit = src.RequestLimit
	}
	if src.TotalTokensLimit > 0 {
		dst.TotalTokensLimit = src.TotalTokensLimit
	}
}

// Package config loads rules files and engine settings. Rules files stay in
// their raw decoded shape so the feedback normalizer owns all shape
// interpretation; this package only picks the parser by extension.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds engine-level configuration.
type Settings struct {
	// AnalysisTimeout bounds one AST bridge call, e.g. "2s".
	AnalysisTimeout string `yaml:"analysis_timeout" json:"analysis_timeout"`
	// HistoryPath enables the feedback history store when non-empty.
	HistoryPath string `yaml:"history_path" json:"history_path"`
	Debug       bool   `yaml:"debug" json:"debug"`
}

// DefaultSettings returns the settings used when no settings file exists.
func DefaultSettings() Settings {
	return Settings{AnalysisTimeout: "2s"}
}

// AnalysisTimeoutDuration parses the timeout, falling back to the default on
// bad input.
func (s Settings) AnalysisTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(s.AnalysisTimeout)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// LoadSettings reads a YAML or JSON settings file. A missing file yields
// defaults without error.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, err
	}
	if err := unmarshalByExt(path, data, &s); err != nil {
		return s, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s, nil
}

// LoadRules reads a rules file and returns the raw configuration shape for
// feedback.NormalizeConfig / feedback.ValidateConfig.
func LoadRules(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var raw map[string]interface{}
	if err := unmarshalByExt(path, data, &raw); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	return raw, nil
}

func unmarshalByExt(path string, data []byte, out interface{}) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, out)
	case ".json":
		return json.Unmarshal(data, out)
	default:
		return fmt.Errorf("unsupported rules format %q (want .yaml, .yml, or .json)", filepath.Ext(path))
	}
}

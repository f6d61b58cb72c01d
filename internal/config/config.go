// Package config loads the optional .tasksh YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the name of the configuration file looked up by Load.
const FileName = ".tasksh"

// Default values.
const (
	DefaultBinary       = "task"
	DefaultPrompt       = "task"
	DefaultReviewPeriod = "1week"
)

// Config holds the parsed .tasksh configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Version     int          `yaml:"version"`
	RawBinary   string       `yaml:"binary"`    // Taskwarrior executable, e.g. "task" or "/opt/bin/task"
	RawPrompt   string       `yaml:"prompt"`    // leading prompt text
	RawColor    *bool        `yaml:"color"`     // nil means enabled
	RawLogLevel string       `yaml:"log_level"` // debug, info, warn, error
	Review      ReviewConfig `yaml:"review"`
}

// ReviewConfig controls the review workflow.
type ReviewConfig struct {
	Period string   `yaml:"period"` // Taskwarrior duration, e.g. "1week", "6days"
	Filter []string `yaml:"filter"` // extra filter terms, e.g. ["project:home"]
}

// Binary returns the configured Taskwarrior executable or the default.
func (c *Config) Binary() string {
	if c.RawBinary != "" {
		return c.RawBinary
	}
	return DefaultBinary
}

// Prompt returns the configured prompt text or the default.
func (c *Config) Prompt() string {
	if c.RawPrompt != "" {
		return c.RawPrompt
	}
	return DefaultPrompt
}

// Color reports whether coloured output is enabled.
func (c *Config) Color() bool {
	if c.RawColor != nil {
		return *c.RawColor
	}
	return true
}

// LogLevel returns the configured log level, falling back to info when the
// value is missing or unrecognised.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if c.RawLogLevel != "" && level.UnmarshalText([]byte(c.RawLogLevel)) == nil {
		return level
	}
	return slog.LevelInfo
}

// ReviewPeriod returns the configured review period or the default.
func (c *Config) ReviewPeriod() string {
	if c.Review.Period != "" {
		return c.Review.Period
	}
	return DefaultReviewPeriod
}

// LoadResult holds the parsed config and where it came from.
type LoadResult struct {
	Config *Config
	Path   string // file that was read; empty when defaults are in use
}

// Load finds and reads the .tasksh file. It walks upward from dir, then
// tries home. If neither has one, a default Config is returned.
func Load(dir, home string) (*LoadResult, error) {
	path, err := findConfig(dir)
	if err != nil && home != "" {
		candidate := filepath.Join(home, FileName)
		if _, statErr := os.Stat(candidate); statErr == nil {
			path, err = candidate, nil
		}
	}
	if err != nil {
		return &LoadResult{Config: &Config{}}, nil
	}
	return LoadFile(path)
}

// LoadFile reads the configuration at path. Unlike Load, a missing file is
// an error.
func LoadFile(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &LoadResult{Config: cfg, Path: path}, nil
}

// findConfig walks upward from dir looking for a .tasksh file.
func findConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s not found", FileName)
		}
		dir = parent
	}
}

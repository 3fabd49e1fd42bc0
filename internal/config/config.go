// Package config provides configuration management for flowspec.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/mur-run/flowspec/internal/flowspec"
)

// CurrentSchemaVersion is the latest config schema version.
// Increment this when adding new config fields that need migration.
const CurrentSchemaVersion = 2

// Config represents the flowspec configuration structure.
type Config struct {
	SchemaVersion int           `yaml:"schema_version"`
	FlowsDir      string        `yaml:"flows_dir"` // Directory scanned for *.flow.yaml
	Editor        EditorConfig  `yaml:"editor"`
	Journal       JournalConfig `yaml:"journal"`
	Log           LogConfig     `yaml:"log"`
}

// EditorConfig controls validation and undo behaviour.
type EditorConfig struct {
	HistorySize        int    `yaml:"history_size" validate:"gte=1,lte=1000"`
	Strict             bool   `yaml:"strict"`                                                   // Treat warnings as errors
	StepIDs            string `yaml:"step_ids" validate:"omitempty,oneof=strict lenient"`       // Step id pattern for validation
	SchemaLint         *bool  `yaml:"schema_lint"`                                              // JSON Schema findings as warnings (default: false)
	DefaultOwner       string `yaml:"default_owner" validate:"omitempty,email"`                 // Owner for `flowspec new`
	DefaultEnforcement string `yaml:"default_enforcement" validate:"omitempty,oneof=none advice guard hard"`
}

// JournalConfig controls the edit journal.
type JournalConfig struct {
	Enabled *bool  `yaml:"enabled"` // default: true
	Dir     string `yaml:"dir"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// IsEnabled returns whether the journal is enabled (default: true).
func (j JournalConfig) IsEnabled() bool {
	if j.Enabled == nil {
		return true
	}
	return *j.Enabled
}

// IsSchemaLint returns whether schema conformance runs during validation.
func (e EditorConfig) IsSchemaLint() bool {
	return e.SchemaLint != nil && *e.SchemaLint
}

// StepIDMode returns the configured step id mode.
func (e EditorConfig) StepIDMode() flowspec.StepIDMode {
	mode, err := flowspec.ParseStepIDMode(e.StepIDs)
	if err != nil {
		return flowspec.StepIDStrict
	}
	return mode
}

func boolPtr(b bool) *bool {
	return &b
}

// DataDir returns ~/.flowspec.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".flowspec"), nil
}

// ConfigPath returns the path to the config file (~/.flowspec/config.yaml).
func ConfigPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ExpandPath replaces a leading "~/" with the home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// Load reads and parses the config file.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if file doesn't exist
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config: %w", err)
	}

	MigrateConfig(&cfg)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// applyDefaults fills in zero values with sensible defaults.
func (c *Config) applyDefaults() {
	if c.FlowsDir == "" {
		c.FlowsDir = "."
	}
	if c.Editor.HistorySize == 0 {
		c.Editor.HistorySize = 50
	}
	if c.Editor.StepIDs == "" {
		c.Editor.StepIDs = string(flowspec.StepIDStrict)
	}
	if c.Editor.DefaultEnforcement == "" {
		c.Editor.DefaultEnforcement = string(flowspec.EnforcementNone)
	}
	if c.Journal.Dir == "" {
		c.Journal.Dir = "~/.flowspec"
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field values against their allowed ranges.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: %q fails %s", fe.Namespace(), fmt.Sprint(fe.Value()), describeTag(fe)))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describeTag(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// Save writes config back to file.
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("cannot serialize config: %w", err)
	}

	// Add header comment
	header := "# flowspec configuration\n# https://github.com/mur-run/flowspec\n\n"
	content := header + string(data)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("cannot write config: %w", err)
	}

	return nil
}

// Keys lists the dotted keys accepted by Get and Set.
var Keys = []string{
	"flows_dir",
	"editor.history_size",
	"editor.strict",
	"editor.step_ids",
	"editor.schema_lint",
	"editor.default_owner",
	"editor.default_enforcement",
	"journal.enabled",
	"journal.dir",
	"log.level",
}

// Get returns the value of a dotted key as text.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "flows_dir":
		return c.FlowsDir, nil
	case "editor.history_size":
		return strconv.Itoa(c.Editor.HistorySize), nil
	case "editor.strict":
		return strconv.FormatBool(c.Editor.Strict), nil
	case "editor.step_ids":
		return c.Editor.StepIDs, nil
	case "editor.schema_lint":
		return strconv.FormatBool(c.Editor.IsSchemaLint()), nil
	case "editor.default_owner":
		return c.Editor.DefaultOwner, nil
	case "editor.default_enforcement":
		return c.Editor.DefaultEnforcement, nil
	case "journal.enabled":
		return strconv.FormatBool(c.Journal.IsEnabled()), nil
	case "journal.dir":
		return c.Journal.Dir, nil
	case "log.level":
		return c.Log.Level, nil
	}
	return "", fmt.Errorf("unknown config key: %s", key)
}

// Set assigns a dotted key from text and re-validates the config.
func (c *Config) Set(key, value string) error {
	next := *c
	switch key {
	case "flows_dir":
		next.FlowsDir = value
	case "editor.history_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		next.Editor.HistorySize = n
	case "editor.strict":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		next.Editor.Strict = b
	case "editor.step_ids":
		next.Editor.StepIDs = value
	case "editor.schema_lint":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		next.Editor.SchemaLint = boolPtr(b)
	case "editor.default_owner":
		next.Editor.DefaultOwner = value
	case "editor.default_enforcement":
		next.Editor.DefaultEnforcement = value
	case "journal.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		next.Journal.Enabled = boolPtr(b)
	case "journal.dir":
		next.Journal.Dir = value
	case "log.level":
		next.Log.Level = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Default returns a default configuration.
func Default() *Config {
	return defaultConfig()
}

// defaultConfig returns a default configuration.
func defaultConfig() *Config {
	return &Config{
		SchemaVersion: CurrentSchemaVersion,
		FlowsDir:      ".",
		Editor: EditorConfig{
			HistorySize:        50,
			StepIDs:            string(flowspec.StepIDStrict),
			SchemaLint:         boolPtr(false),
			DefaultEnforcement: string(flowspec.EnforcementNone),
		},
		Journal: JournalConfig{
			Enabled: boolPtr(true),
			Dir:     "~/.flowspec",
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

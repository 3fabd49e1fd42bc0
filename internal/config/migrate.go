package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MigrationChange describes a single config change during migration.
type MigrationChange struct {
	Field       string
	Description string
}

// MigrateConfig migrates config to the latest schema version.
// Returns true if any changes were made, along with a list of changes.
func MigrateConfig(cfg *Config) (changed bool, changes []MigrationChange) {
	startVersion := cfg.SchemaVersion

	// Configs without schema_version are v1 (pre-versioning)
	if cfg.SchemaVersion == 0 {
		cfg.SchemaVersion = 1
	}

	// v1 → v2: Add the edit journal
	if cfg.SchemaVersion < 2 {
		if cfg.Journal == (JournalConfig{}) {
			cfg.Journal = JournalConfig{Enabled: boolPtr(true), Dir: "~/.flowspec"}
			changes = append(changes, MigrationChange{
				Field:       "journal.enabled",
				Description: fmt.Sprintf("default: %v", *cfg.Journal.Enabled),
			})
			changes = append(changes, MigrationChange{
				Field:       "journal.dir",
				Description: "default: " + cfg.Journal.Dir,
			})
		}
		cfg.SchemaVersion = 2
	}

	changed = cfg.SchemaVersion != startVersion
	return changed, changes
}

// NeedsMigration returns true if the config needs migration.
func NeedsMigration(cfg *Config) bool {
	return cfg.SchemaVersion < CurrentSchemaVersion
}

// MigrateFile upgrades the config file on disk in place. It returns the
// changes made; a missing file is written out with defaults.
func MigrateFile() ([]MigrationChange, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return nil, Default().Save()
	case err != nil:
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config: %w", err)
	}

	_, changes := MigrateConfig(&cfg)
	merged := MergeConfig(&cfg, Default())
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return changes, merged.Save()
}

package config

// MergeConfig merges defaults into existing config.
// Existing values take precedence; only missing fields are added from defaults.
func MergeConfig(existing, defaults *Config) *Config {
	result := *existing

	// NOTE: Don't update SchemaVersion here - let MigrateConfig handle it
	// This preserves the original version for migration detection

	if result.FlowsDir == "" {
		result.FlowsDir = defaults.FlowsDir
	}

	// Merge Editor (preserve existing, fill missing)
	if result.Editor.HistorySize == 0 {
		result.Editor.HistorySize = defaults.Editor.HistorySize
	}
	if result.Editor.StepIDs == "" {
		result.Editor.StepIDs = defaults.Editor.StepIDs
	}
	if result.Editor.SchemaLint == nil {
		result.Editor.SchemaLint = defaults.Editor.SchemaLint
	}
	if result.Editor.DefaultOwner == "" {
		result.Editor.DefaultOwner = defaults.Editor.DefaultOwner
	}
	if result.Editor.DefaultEnforcement == "" {
		result.Editor.DefaultEnforcement = defaults.Editor.DefaultEnforcement
	}

	// Merge Journal
	if result.Journal.Enabled == nil {
		result.Journal.Enabled = defaults.Journal.Enabled
	}
	if result.Journal.Dir == "" {
		result.Journal.Dir = defaults.Journal.Dir
	}

	if result.Log.Level == "" {
		result.Log.Level = defaults.Log.Level
	}

	return &result
}

package main

import (
	"strings"

	"github.com/franz/media-tracker/internal/report"
	"github.com/franz/media-tracker/internal/util"
	"github.com/spf13/viper"
)

// envKeyReplacer maps nested keys to env names: tmdb.api_key -> MTRACK_TMDB_API_KEY
var envKeyReplacer = strings.NewReplacer(".", "_")

// GetConfigString retrieves a string config value with proper precedence:
// 1. Command-line flag (if set)
// 2. Environment variable (MTRACK_*)
// 3. Config file
// 4. Default value
func GetConfigString(key string, defaultValue string) string {
	val := strings.TrimSpace(viper.GetString(key))
	if val == "" {
		return defaultValue
	}
	return val
}

// eventLevel picks the JSONL event threshold from the console switches
func eventLevel() report.EventLevel {
	switch {
	case viper.GetBool("quiet"):
		return report.LevelWarning
	case viper.GetBool("verbose"):
		return report.LevelDebug
	}
	return report.LevelInfo
}

// openEventLogger creates the run's event log under the artifacts directory.
// A failure is logged and yields a nil logger, which drops every event.
func openEventLogger(runID string) *report.EventLogger {
	logger, err := report.NewEventLogger(GetConfigString(util.KeyArtifacts, "artifacts"), runID, eventLevel())
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		return nil
	}
	util.InfoLog("Event log: %s", logger.Path())
	return logger
}

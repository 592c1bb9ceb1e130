package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/media-tracker/internal/offline"
	"github.com/franz/media-tracker/internal/store"
	"github.com/franz/media-tracker/internal/util"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the environment and configuration",
	Long: `Run diagnostic checks to ensure mtrack can operate correctly.

This command checks:
- SQLite version and database integrity
- Whether another import holds the database lock
- The artifacts directory used for event logs
- The TMDB API key (needed for movie and TV imports)
- The optional anime offline database

Use this command to troubleshoot issues before importing.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	util.InfoLog("=== mtrack doctor ===")
	util.InfoLog("")

	dbPath := viper.GetString(util.KeyDB)
	results := []checkResult{
		checkSQLite(),
		checkDatabase(dbPath),
		checkImportLock(dbPath),
		checkArtifactsDirectory(GetConfigString(util.KeyArtifacts, "artifacts")),
		checkTMDBKey(util.GetTMDBAPIKey()),
		checkOfflineDatabase(viper.GetString(util.KeyOfflineDatabase)),
	}

	hasErrors := false
	hasWarnings := false

	for _, r := range results {
		symbol := "✓"
		if r.error {
			symbol = "✗"
			hasErrors = true
		} else if r.warning {
			symbol = "⚠"
			hasWarnings = true
		}

		line := fmt.Sprintf("[%s] %s", symbol, r.name)
		if r.message != "" {
			line += fmt.Sprintf(": %s", r.message)
		}

		if r.error {
			util.ErrorLog("%s", line)
		} else if r.warning {
			util.WarnLog("%s", line)
		} else {
			util.SuccessLog("%s", line)
		}
	}

	util.InfoLog("")
	if hasErrors {
		util.ErrorLog("Some critical checks failed. Please resolve errors before importing.")
		return fmt.Errorf("system diagnostics failed")
	} else if hasWarnings {
		util.WarnLog("Some checks produced warnings. Review them before proceeding.")
	} else {
		util.SuccessLog("All checks passed.")
	}
	return nil
}

// checkSQLite verifies the embedded SQLite reports a version
func checkSQLite() checkResult {
	version := store.SQLiteVersion()
	if version == "" {
		return checkResult{name: "SQLite", error: true, message: "unable to determine version"}
	}
	return checkResult{name: "SQLite", message: fmt.Sprintf("version %s (built-in)", version)}
}

// checkDatabase verifies database file accessibility
func checkDatabase(dbPath string) checkResult {
	if dbPath == "" {
		return checkResult{
			name:    "Database",
			warning: true,
			message: "no database path specified (use --db flag or config)",
		}
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return checkResult{
				name:    "Database",
				message: fmt.Sprintf("%s (will be created on first run)", dbPath),
			}
		}
		return checkResult{name: "Database", error: true, message: fmt.Sprintf("cannot access %s: %v", dbPath, err)}
	}
	if !info.Mode().IsRegular() {
		return checkResult{name: "Database", error: true, message: fmt.Sprintf("%s is not a regular file", dbPath)}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return checkResult{name: "Database", error: true, message: fmt.Sprintf("cannot open %s: %v", dbPath, err)}
	}
	defer db.Close()

	if err := db.CheckIntegrity(); err != nil {
		return checkResult{name: "Database", error: true, message: fmt.Sprintf("integrity check failed: %v", err)}
	}

	count, _ := db.CountItems("")
	return checkResult{
		name:    "Database",
		message: fmt.Sprintf("%s (%s, %s items)", dbPath, humanize.Bytes(uint64(info.Size())), humanize.Comma(int64(count))),
	}
}

// checkImportLock reports whether another process is importing into dbPath
func checkImportLock(dbPath string) checkResult {
	if dbPath == "" {
		return checkResult{name: "Import lock", warning: true, message: "no database path"}
	}
	lockPath := dbPath + ".import.lock"
	if _, err := os.Stat(filepath.Dir(lockPath)); err != nil {
		return checkResult{name: "Import lock", message: "free"}
	}

	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return checkResult{name: "Import lock", warning: true, message: fmt.Sprintf("cannot probe %s: %v", lockPath, err)}
	}
	if !locked {
		return checkResult{name: "Import lock", warning: true, message: "held by a running import"}
	}
	lock.Unlock()
	return checkResult{name: "Import lock", message: "free"}
}

// checkArtifactsDirectory verifies the event log directory is writable,
// creating it when missing
func checkArtifactsDirectory(path string) checkResult {
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return checkResult{name: "Artifacts directory", error: true, message: fmt.Sprintf("cannot access %s: %v", path, err)}
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return checkResult{name: "Artifacts directory", error: true, message: fmt.Sprintf("cannot create %s: %v", path, err)}
		}
	} else if !info.IsDir() {
		return checkResult{name: "Artifacts directory", error: true, message: fmt.Sprintf("%s is not a directory", path)}
	}

	probe, err := os.CreateTemp(path, ".mtrack-doctor-*")
	if err != nil {
		return checkResult{name: "Artifacts directory", error: true, message: fmt.Sprintf("%s is not writable: %v", path, err)}
	}
	probe.Close()
	os.Remove(probe.Name())

	return checkResult{name: "Artifacts directory", message: path}
}

// checkTMDBKey warns when movie and TV imports cannot run
func checkTMDBKey(key string) checkResult {
	if key == "" {
		return checkResult{
			name:    "TMDB API key",
			warning: true,
			message: "not set; movie and TV imports are disabled (set tmdb.api_key or MTRACK_TMDB_API_KEY)",
		}
	}
	return checkResult{name: "TMDB API key", message: "configured"}
}

// checkOfflineDatabase loads the optional anime offline database
func checkOfflineDatabase(path string) checkResult {
	if path == "" {
		return checkResult{name: "Offline anime database (optional)", message: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		return checkResult{
			name:    "Offline anime database (optional)",
			warning: true,
			message: fmt.Sprintf("%s not found (download it from %s)", path, offline.DownloadURL),
		}
	}

	ix := offline.Open(path)
	if ix.Len() == 0 {
		return checkResult{name: "Offline anime database (optional)", warning: true, message: fmt.Sprintf("%s has no usable entries", path)}
	}
	return checkResult{
		name:    "Offline anime database (optional)",
		message: fmt.Sprintf("%s (%s, %s entries)", path, humanize.Bytes(uint64(info.Size())), humanize.Comma(int64(ix.Len()))),
	}
}

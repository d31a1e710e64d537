package config

import (
	"os"
	"path/filepath"
)

const (
	// DefaultSourceTag is attached to every created entry alongside the notebook name
	DefaultSourceTag = "reMarkable"

	// DefaultSchedule runs the scheduled export hourly at :00
	DefaultSchedule = "0 * * * *"

	// DefaultLogLevel keeps diagnostic logging out of the progress output
	DefaultLogLevel = "warn"

	DefaultInkscapeBin = "/opt/homebrew/bin/inkscape"
	DefaultDayOneBin   = "/usr/local/bin/dayone"
)

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// DefaultDataDir is where the reMarkable desktop app keeps its document store on macOS.
func DefaultDataDir() string {
	return filepath.Join(homeDir(), "Library", "Containers", "com.remarkable.desktop", "Data",
		"Library", "Application Support", "remarkable", "desktop")
}

// DefaultDayOneDatabasePath is the Day One app's Core Data store.
func DefaultDayOneDatabasePath() string {
	return filepath.Join(homeDir(), "Library", "Group Containers", "5U8NS4GX82.dayoneapp2", "Data",
		"Documents", "DayOne.sqlite")
}

// Dir is the per-user configuration directory.
func Dir() string {
	return filepath.Join(homeDir(), ".config", "deardayone")
}

// DefaultConfigFile holds the persisted export state.
func DefaultConfigFile() string {
	return filepath.Join(Dir(), "config.json")
}

// DefaultHistoryDatabasePath holds the export history log.
func DefaultHistoryDatabasePath() string {
	return filepath.Join(Dir(), "history.db")
}

func DefaultRmcBin() string {
	return filepath.Join(homeDir(), ".local", "bin", "rmc")
}

package config

import (
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every configuration key when read from the environment,
// e.g. data_dir is read from DEARDAYONE_DATA_DIR.
const EnvPrefix = "DEARDAYONE"

type (
	Config struct {
		Remarkable
		State
		DayOne
		Tools
		History
		Schedule
		Log
	}

	Remarkable struct {
		DataDir string // Root of the desktop app's document store
	}
	State struct {
		ConfigFile string // JSON file holding the selected notebook and exported pages
	}
	DayOne struct {
		DatabasePath string // Day One SQLite store, read only during setup
		Bin          string
		SourceTag    string
	}
	Tools struct {
		RmcBin      string
		InkscapeBin string
	}
	History struct {
		Enabled      bool
		DatabasePath string
	}
	Schedule struct {
		Cron string // Cron format: "0 * * * *" = hourly
	}
	Log struct {
		Level string
	}
)

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) {
	for _, path := range paths {
		_ = godotenv.Load(path)
	}
}

// DotEnvPaths lists the .env files consulted at startup, most specific first.
func DotEnvPaths() []string {
	return []string{".env", filepath.Join(Dir(), ".env")}
}

func NewConfig() *Config {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("config_file", DefaultConfigFile())
	v.SetDefault("dayone_db", DefaultDayOneDatabasePath())
	v.SetDefault("dayone_bin", DefaultDayOneBin)
	v.SetDefault("source_tag", DefaultSourceTag)
	v.SetDefault("rmc_bin", DefaultRmcBin())
	v.SetDefault("inkscape_bin", DefaultInkscapeBin)
	v.SetDefault("history_enabled", true)
	v.SetDefault("history_db", DefaultHistoryDatabasePath())
	v.SetDefault("schedule", DefaultSchedule)
	v.SetDefault("log_level", DefaultLogLevel)

	return &Config{
		Remarkable: Remarkable{
			DataDir: v.GetString("data_dir"),
		},
		State: State{
			ConfigFile: v.GetString("config_file"),
		},
		DayOne: DayOne{
			DatabasePath: v.GetString("dayone_db"),
			Bin:          v.GetString("dayone_bin"),
			SourceTag:    v.GetString("source_tag"),
		},
		Tools: Tools{
			RmcBin:      v.GetString("rmc_bin"),
			InkscapeBin: v.GetString("inkscape_bin"),
		},
		History: History{
			Enabled:      v.GetBool("history_enabled"),
			DatabasePath: v.GetString("history_db"),
		},
		Schedule: Schedule{
			Cron: v.GetString("schedule"),
		},
		Log: Log{
			Level: v.GetString("log_level"),
		},
	}
}

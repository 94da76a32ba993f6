// Package config loads the application settings and resolves the on-disk
// paths for the config file, databases, and logs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/pterm/pterm"
)

type (
	// Config holds all configuration settings.
	Config struct {
		Tracking TrackingConfig
		System   SystemConfig
	}

	// TrackingConfig holds the session controller and adjustment
	// thresholds.
	TrackingConfig struct {
		// IdleThreshold is how long input must be absent before the
		// controller treats the session as idle.
		IdleThreshold time.Duration
		// PollInterval is the tick cadence of the controller.
		PollInterval time.Duration
		// SleepSlack is the margin added to the poll interval before a
		// tick gap is treated as a suspend.
		SleepSlack time.Duration
		// AdjacencyThreshold is the largest gap across which a boundary
		// edit cascades into the next entry.
		AdjacencyThreshold time.Duration
		// MaxPersistRetries bounds close retries before an interval is
		// abandoned as lost.
		MaxPersistRetries int
		// IdleProbeCmd is the external command printing milliseconds
		// since last input. Empty disables idle detection.
		IdleProbeCmd string
		// SuggestionLimit caps the mode suggestion list.
		SuggestionLimit int
	}

	// SystemConfig holds file locations.
	SystemConfig struct {
		ConfigPath   string
		DBPath       string
		SnapshotPath string
	}

	// Option is a function that modifies Config.
	Option func(*Config) error
)

const Version = "v0.3.0"

var (
	configDir        = "manweek"
	configFileName   = "config.yml"
	dbFileName       = "manweek.db"
	snapshotFileName = "snapshot.db"
	logFileName      = "manweek.log"

	configFilePath   string
	dbFilePath       string
	snapshotFilePath string
	logFilePath      string
)

func Dir() string {
	return configDir
}

func DBFilePath() string {
	return dbFilePath
}

func SnapshotFilePath() string {
	return snapshotFilePath
}

func LogFilePath() string {
	return logFilePath
}

func ConfigFilePath() string {
	return configFilePath
}

// InitializePaths resolves all file locations through XDG. A MANWEEK_ENV
// value isolates the files of parallel installations (mostly tests).
func InitializePaths() {
	env := strings.TrimSpace(os.Getenv("MANWEEK_ENV"))
	if env != "" {
		configFileName = fmt.Sprintf("config_%s.yml", env)
		dbFileName = fmt.Sprintf("manweek_%s.db", env)
		snapshotFileName = fmt.Sprintf("snapshot_%s.db", env)
		logFileName = fmt.Sprintf("manweek_%s.log", env)
	}

	var err error

	relPath := filepath.Join(configDir, configFileName)

	configFilePath, err = xdg.ConfigFile(relPath)
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	dataDir, err := xdg.DataFile(configDir)
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	dbFilePath = filepath.Join(dataDir, dbFileName)

	snapshotFilePath = filepath.Join(dataDir, snapshotFileName)

	logFilePath = filepath.Join(dataDir, "log", logFileName)
}

// New creates a new Config with default values and applies options.
func New(opts ...Option) (*Config, error) {
	cfg := &Config{}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

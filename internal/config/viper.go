package config

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/viper"
)

// viperKeys defines the mapping between config keys and their Viper
// counterparts.
const (
	keyIdleThreshold      = "tracking.idle_threshold"
	keyPollInterval       = "tracking.poll_interval"
	keySleepSlack         = "tracking.sleep_slack"
	keyAdjacencyThreshold = "tracking.adjacency_threshold"
	keyMaxPersistRetries  = "tracking.max_persist_retries"
	keyIdleProbeCmd       = "tracking.idle_probe_cmd"
	keySuggestionLimit    = "tracking.suggestion_limit"
)

// WithViperConfig returns an Option that loads configuration from the YAML
// config file, writing one with the defaults on first run.
func WithViperConfig(configPath string) Option {
	return func(c *Config) error {
		v := viper.New()

		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		setViperDefaults(v)

		err := v.ReadInConfig()
		if err == nil {
			return loadViperConfig(v, c)
		}

		if !errors.Is(err, os.ErrNotExist) {
			return errReadConfig.WithCause(err)
		}

		if err := v.WriteConfig(); err != nil {
			return errWriteConfig.WithCause(err)
		}

		return loadViperConfig(v, c)
	}
}

func setViperDefaults(v *viper.Viper) {
	v.SetDefault(keyIdleThreshold, "300s")
	v.SetDefault(keyPollInterval, "20s")
	v.SetDefault(keySleepSlack, "30s")
	v.SetDefault(keyAdjacencyThreshold, "180s")
	v.SetDefault(keyMaxPersistRetries, 3)
	v.SetDefault(keyIdleProbeCmd, "")
	v.SetDefault(keySuggestionLimit, 10)
}

// loadViperConfig loads configuration from Viper into the Config struct.
func loadViperConfig(v *viper.Viper, c *Config) error {
	durations := map[string]*time.Duration{
		keyIdleThreshold:      &c.Tracking.IdleThreshold,
		keyPollInterval:       &c.Tracking.PollInterval,
		keySleepSlack:         &c.Tracking.SleepSlack,
		keyAdjacencyThreshold: &c.Tracking.AdjacencyThreshold,
	}

	for key, dst := range durations {
		dur, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return errInvalidDuration.Fmt(key, v.GetString(key)).WithCause(err)
		}

		*dst = dur
	}

	c.Tracking.MaxPersistRetries = v.GetInt(keyMaxPersistRetries)
	c.Tracking.IdleProbeCmd = v.GetString(keyIdleProbeCmd)
	c.Tracking.SuggestionLimit = v.GetInt(keySuggestionLimit)

	c.System.ConfigPath = ConfigFilePath()
	c.System.DBPath = DBFilePath()
	c.System.SnapshotPath = SnapshotFilePath()

	return nil
}

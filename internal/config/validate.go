package config

import "time"

const (
	minIdleThreshold = 30 * time.Second
	minPollInterval  = 5 * time.Second

	minPersistRetries = 1
	maxPersistRetries = 10
)

// Validate checks that the tracking thresholds are usable. A poll interval
// longer than the idle threshold would make idleness undetectable, so that
// combination is rejected too.
func (c *Config) Validate() error {
	if c.Tracking.IdleThreshold < minIdleThreshold {
		return errThresholdTooSmall.Fmt("idle threshold", minIdleThreshold)
	}

	if c.Tracking.PollInterval < minPollInterval {
		return errThresholdTooSmall.Fmt("poll interval", minPollInterval)
	}

	if c.Tracking.PollInterval > c.Tracking.IdleThreshold {
		return errThresholdTooSmall.Fmt(
			"idle threshold (relative to the poll interval)",
			c.Tracking.PollInterval,
		)
	}

	if c.Tracking.AdjacencyThreshold < 0 {
		return errThresholdTooSmall.Fmt("adjacency threshold", time.Duration(0))
	}

	if c.Tracking.SleepSlack <= 0 {
		return errThresholdTooSmall.Fmt("sleep slack", time.Second)
	}

	if c.Tracking.MaxPersistRetries < minPersistRetries ||
		c.Tracking.MaxPersistRetries > maxPersistRetries {
		return errRetriesOutOfRange.Fmt(minPersistRetries, maxPersistRetries)
	}

	return nil
}

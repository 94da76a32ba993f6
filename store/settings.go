package store

import (
	"database/sql"
	"time"
)

// Setting keys stored in the database. These override the config file so
// threshold changes travel with the ledger they shaped.
const (
	SettingIdleThreshold      = "idle_threshold"
	SettingAdjacencyThreshold = "adjacency_threshold"
)

// GetSetting returns the stored value for key, or ok=false when unset.
func (c *Client) GetSetting(key string) (value string, ok bool, err error) {
	err = c.db.QueryRow(
		`SELECT value FROM settings WHERE key = ?`,
		key,
	).Scan(&value)

	if err == sql.ErrNoRows {
		return "", false, nil
	}

	if err != nil {
		return "", false, errStoreUnavailable.WithCause(err)
	}

	return value, true, nil
}

// SetSetting stores a key/value pair, replacing any previous value.
func (c *Client) SetSetting(key, value string) error {
	return c.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
			key,
			value,
		)
		if err != nil {
			return errStoreUnavailable.WithCause(err)
		}

		return nil
	})
}

// DurationSetting parses a stored duration override, returning fallback
// when the key is unset or unparsable.
func (c *Client) DurationSetting(
	key string,
	fallback time.Duration,
) time.Duration {
	value, ok, err := c.GetSetting(key)
	if err != nil || !ok {
		return fallback
	}

	dur, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}

	return dur
}

package store

import (
	"database/sql"
	"strings"
	"time"

	"github.com/mkallio/manweek/internal/models"
)

// UpsertMode looks a label up by canonical key. An existing mode gets its
// usage counters bumped and keeps its original display casing; an unknown
// label becomes a new mode with the given casing.
func (c *Client) UpsertMode(label string) (*models.Mode, error) {
	if models.Canonical(label) == "" {
		return nil, errEmptyLabel
	}

	var mode *models.Mode

	err := c.withTx(func(tx *sql.Tx) error {
		var err error

		mode, err = upsertModeTx(tx, label, time.Now().Unix())

		return err
	})
	if err != nil {
		return nil, err
	}

	return mode, nil
}

func upsertModeTx(tx *sql.Tx, label string, now int64) (*models.Mode, error) {
	display := strings.TrimSpace(label)
	key := models.Canonical(label)

	if key == "" {
		return nil, errEmptyLabel
	}

	mode, err := getModeTx(tx, `SELECT id, label, usage_count, last_used_at
		FROM modes WHERE label_key = ?`, key)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	if err == nil {
		_, err = tx.Exec(
			`UPDATE modes SET usage_count = usage_count + 1, last_used_at = ?
			WHERE id = ?`,
			now,
			mode.ID,
		)
		if err != nil {
			return nil, errStoreUnavailable.WithCause(err)
		}

		mode.UsageCount++
		mode.LastUsedAt = time.Unix(now, 0)

		return mode, nil
	}

	res, err := tx.Exec(
		`INSERT INTO modes (label, label_key, usage_count, last_used_at)
		VALUES (?, ?, 1, ?)`,
		display,
		key,
		now,
	)
	if err != nil {
		return nil, errStoreUnavailable.WithCause(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, errStoreUnavailable.WithCause(err)
	}

	return &models.Mode{
		ID:         id,
		Label:      display,
		UsageCount: 1,
		LastUsedAt: time.Unix(now, 0),
	}, nil
}

// EnsureMode resolves a label to its mode without touching usage
// counters, creating the mode when the label is new. Retroactive edits go
// through here so that only appended entries drive suggestion ranking.
func (c *Client) EnsureMode(label string) (*models.Mode, error) {
	display := strings.TrimSpace(label)
	key := models.Canonical(label)

	if key == "" {
		return nil, errEmptyLabel
	}

	var mode *models.Mode

	err := c.withTx(func(tx *sql.Tx) error {
		existing, err := getModeTx(
			tx,
			`SELECT id, label, usage_count, last_used_at FROM modes
			WHERE label_key = ?`,
			key,
		)
		if err == nil {
			mode = existing
			return nil
		}

		if err != sql.ErrNoRows {
			return err
		}

		res, err := tx.Exec(
			`INSERT INTO modes (label, label_key, usage_count, last_used_at)
			VALUES (?, ?, 0, NULL)`,
			display,
			key,
		)
		if err != nil {
			return errStoreUnavailable.WithCause(err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return errStoreUnavailable.WithCause(err)
		}

		mode = &models.Mode{ID: id, Label: display}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return mode, nil
}

// CheckNameConflict reports whether candidate's canonical key belongs to
// any mode other than excludingID.
func (c *Client) CheckNameConflict(
	candidate string,
	excludingID int64,
) (bool, error) {
	var id int64

	err := c.db.QueryRow(
		`SELECT id FROM modes WHERE label_key = ? AND id != ?`,
		models.Canonical(candidate),
		excludingID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}

	if err != nil {
		return false, errStoreUnavailable.WithCause(err)
	}

	return true, nil
}

// RenameMode changes a mode's label and rewrites every ledger entry that
// references it, as one atomic operation. Renaming to a label whose
// canonical key is already taken fails, as does renaming a mode to itself
// (including pure case or whitespace variants).
func (c *Client) RenameMode(modeID int64, newLabel string) error {
	display := strings.TrimSpace(newLabel)
	key := models.Canonical(newLabel)

	if key == "" {
		return errEmptyLabel
	}

	return c.withTx(func(tx *sql.Tx) error {
		mode, err := getModeTx(tx, `SELECT id, label, usage_count,
			last_used_at FROM modes WHERE id = ?`, modeID)
		if err == sql.ErrNoRows {
			return errModeNotFound.Fmt(modeID)
		}

		if err != nil {
			return err
		}

		if models.Canonical(mode.Label) == key {
			return errModeSameName.Fmt(newLabel)
		}

		var conflictID int64

		err = tx.QueryRow(
			`SELECT id FROM modes WHERE label_key = ? AND id != ?`,
			key,
			modeID,
		).Scan(&conflictID)

		if err == nil {
			return errModeNameConflict.Fmt(display)
		}

		if err != sql.ErrNoRows {
			return errStoreUnavailable.WithCause(err)
		}

		_, err = tx.Exec(
			`UPDATE modes SET label = ?, label_key = ? WHERE id = ?`,
			display,
			key,
			modeID,
		)
		if err != nil {
			return errStoreUnavailable.WithCause(err)
		}

		// Entries always carry the registry's display casing, so an
		// exact match is both sufficient and Unicode-safe (SQLite's
		// lower() only folds ASCII).
		_, err = tx.Exec(
			`UPDATE time_entries SET mode_label = ?
			WHERE mode_label = ?`,
			display,
			mode.Label,
		)
		if err != nil {
			return errStoreUnavailable.WithCause(err)
		}

		return nil
	})
}

// ListModes returns every stored mode ordered by label.
func (c *Client) ListModes() ([]models.Mode, error) {
	return c.queryModes(
		`SELECT id, label, usage_count, last_used_at FROM modes
		ORDER BY label_key ASC`,
	)
}

// ModeSuggestions returns up to limit modes ordered by how often and how
// recently they were used. This drives autocomplete ordering.
func (c *Client) ModeSuggestions(limit int) ([]models.Mode, error) {
	return c.queryModes(
		`SELECT id, label, usage_count, last_used_at FROM modes
		ORDER BY usage_count DESC, last_used_at DESC LIMIT ?`,
		limit,
	)
}

// ModeTotal is the aggregate active time recorded against one mode.
type ModeTotal struct {
	Label         string
	ActiveSeconds int64
}

// ModeDistribution returns total active seconds grouped by mode,
// descending.
func (c *Client) ModeDistribution() ([]ModeTotal, error) {
	rows, err := c.db.Query(
		`SELECT mode_label, COALESCE(SUM(active_seconds), 0) AS total
		FROM time_entries GROUP BY mode_label ORDER BY total DESC`,
	)
	if err != nil {
		return nil, errStoreUnavailable.WithCause(err)
	}
	defer rows.Close()

	var totals []ModeTotal

	for rows.Next() {
		var t ModeTotal

		if err := rows.Scan(&t.Label, &t.ActiveSeconds); err != nil {
			return nil, errReadRow.WithCause(err)
		}

		totals = append(totals, t)
	}

	if err := rows.Err(); err != nil {
		return nil, errReadRow.WithCause(err)
	}

	return totals, nil
}

func getModeTx(tx *sql.Tx, query string, args ...any) (*models.Mode, error) {
	var (
		mode     models.Mode
		lastUsed sql.NullInt64
	)

	err := tx.QueryRow(query, args...).Scan(
		&mode.ID,
		&mode.Label,
		&mode.UsageCount,
		&lastUsed,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}

	if err != nil {
		return nil, errReadRow.WithCause(err)
	}

	if lastUsed.Valid {
		mode.LastUsedAt = time.Unix(lastUsed.Int64, 0)
	}

	return &mode, nil
}

func (c *Client) queryModes(
	query string,
	args ...any,
) ([]models.Mode, error) {
	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, errStoreUnavailable.WithCause(err)
	}
	defer rows.Close()

	var modes []models.Mode

	for rows.Next() {
		var (
			mode     models.Mode
			lastUsed sql.NullInt64
		)

		err := rows.Scan(
			&mode.ID,
			&mode.Label,
			&mode.UsageCount,
			&lastUsed,
		)
		if err != nil {
			return nil, errReadRow.WithCause(err)
		}

		if lastUsed.Valid {
			mode.LastUsedAt = time.Unix(lastUsed.Int64, 0)
		}

		modes = append(modes, mode)
	}

	if err := rows.Err(); err != nil {
		return nil, errReadRow.WithCause(err)
	}

	return modes, nil
}

package store

import (
	"database/sql"
	"time"

	"github.com/mkallio/manweek/internal/apperr"
	"github.com/mkallio/manweek/internal/models"
	"github.com/mkallio/manweek/internal/timeutil"
)

const entryColumns = `id, week_id, date, start_ts, end_ts, active_seconds,
	idle_seconds, manual_seconds, project_id, mode_label, description,
	source, replaced_by`

// AppendEntry validates and inserts a new ledger entry. As a side effect it
// creates the owning ISO week row if needed and bumps the mode's usage
// counters. The entry's Date, WeekID, and ModeLabel (registry display
// casing) are filled in; the new row id is returned.
func (c *Client) AppendEntry(e *models.TimeEntry) (int64, error) {
	e.Date = timeutil.DateOf(e.StartTS)

	if err := e.Validate(); err != nil {
		return 0, err
	}

	if e.Source == models.SourceManual && e.Duration() > models.MaxEntrySeconds {
		return 0, apperr.New(
			apperr.Validation,
			"manual entries must not exceed 24 hours",
		)
	}

	var id int64

	err := c.withTx(func(tx *sql.Tx) error {
		now := time.Now().Unix()

		week, err := ensureWeekTx(tx, time.Unix(e.StartTS, 0), now)
		if err != nil {
			return err
		}

		e.WeekID = week.ID

		mode, err := upsertModeTx(tx, e.ModeLabel, now)
		if err != nil {
			return err
		}

		// Entries always carry the registry's display casing so a later
		// rename can cascade by label.
		e.ModeLabel = mode.Label

		res, err := tx.Exec(
			`INSERT INTO time_entries (week_id, date, start_ts, end_ts,
				active_seconds, idle_seconds, manual_seconds, project_id,
				mode_label, description, source, replaced_by)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.WeekID,
			e.Date,
			e.StartTS,
			e.EndTS,
			e.ActiveSeconds,
			e.IdleSeconds,
			e.ManualSeconds,
			e.ProjectID,
			e.ModeLabel,
			e.Description,
			string(e.Source),
			e.ReplacedBy,
		)
		if err != nil {
			return errStoreUnavailable.WithCause(err)
		}

		id, err = res.LastInsertId()
		if err != nil {
			return errStoreUnavailable.WithCause(err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	e.ID = id

	return id, nil
}

// CloseInterval finalizes a pending interval into a persisted entry. It
// returns nil without writing anything when the interval is shorter than
// the minimum worth keeping.
func (c *Client) CloseInterval(
	iv *models.Interval,
	endTS int64,
) (*models.TimeEntry, error) {
	dur := endTS - iv.StartTS
	if dur < models.MinEntrySeconds {
		return nil, nil
	}

	idleSecs := iv.IdleSeconds
	if idleSecs > dur {
		idleSecs = dur
	}

	entry := &models.TimeEntry{
		StartTS:       iv.StartTS,
		EndTS:         endTS,
		ActiveSeconds: dur - idleSecs,
		IdleSeconds:   idleSecs,
		ProjectID:     iv.ProjectID,
		ModeLabel:     iv.ModeLabel,
		Description:   iv.Description,
		Source:        models.SourceAuto,
	}

	if _, err := c.AppendEntry(entry); err != nil {
		return nil, err
	}

	return entry, nil
}

// EntriesForDate returns all entries whose start falls on the given
// calendar date, ordered by start time ascending.
func (c *Client) EntriesForDate(date string) ([]models.TimeEntry, error) {
	return c.queryEntries(
		`SELECT `+entryColumns+` FROM time_entries
		WHERE date = ? ORDER BY start_ts ASC`,
		date,
	)
}

// EntriesBetween returns all entries with a date inside [from, to],
// ordered by start time ascending.
func (c *Client) EntriesBetween(from, to string) ([]models.TimeEntry, error) {
	return c.queryEntries(
		`SELECT `+entryColumns+` FROM time_entries
		WHERE date >= ? AND date <= ? ORDER BY start_ts ASC`,
		from,
		to,
	)
}

// GetEntry loads a single entry by id.
func (c *Client) GetEntry(id int64) (*models.TimeEntry, error) {
	row := c.db.QueryRow(
		`SELECT `+entryColumns+` FROM time_entries WHERE id = ?`,
		id,
	)

	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, errEntryNotFound.Fmt(id)
	}

	if err != nil {
		return nil, err
	}

	return e, nil
}

// UpdateEntries rewrites the given rows as one atomic operation, marking
// each as user-adjusted. Every row is re-validated first; either all rows
// are updated or none are.
func (c *Client) UpdateEntries(entries []*models.TimeEntry) error {
	for _, e := range entries {
		e.Source = models.SourceModified
		e.Date = timeutil.DateOf(e.StartTS)

		if err := e.Validate(); err != nil {
			return err
		}
	}

	return c.withTx(func(tx *sql.Tx) error {
		now := time.Now().Unix()

		for _, e := range entries {
			// A moved start may land in a different week.
			week, err := ensureWeekTx(tx, time.Unix(e.StartTS, 0), now)
			if err != nil {
				return err
			}

			e.WeekID = week.ID

			res, err := tx.Exec(
				`UPDATE time_entries SET week_id = ?, date = ?, start_ts = ?,
					end_ts = ?, active_seconds = ?, idle_seconds = ?,
					manual_seconds = ?, project_id = ?, mode_label = ?,
					description = ?, source = ?
				WHERE id = ?`,
				e.WeekID,
				e.Date,
				e.StartTS,
				e.EndTS,
				e.ActiveSeconds,
				e.IdleSeconds,
				e.ManualSeconds,
				e.ProjectID,
				e.ModeLabel,
				e.Description,
				string(e.Source),
				e.ID,
			)
			if err != nil {
				return errStoreUnavailable.WithCause(err)
			}

			n, err := res.RowsAffected()
			if err != nil {
				return errStoreUnavailable.WithCause(err)
			}

			if n == 0 {
				return errEntryNotFound.Fmt(e.ID)
			}
		}

		return nil
	})
}

// UpdateEntry rewrites a single row, marking it as user-adjusted.
func (c *Client) UpdateEntry(e *models.TimeEntry) error {
	return c.UpdateEntries([]*models.TimeEntry{e})
}

// ClearStats reports what a Clear call removed.
type ClearStats struct {
	Entries    int64
	Weeks      int64
	ModesReset int64
}

// Clear removes every recorded entry and week and resets mode usage
// counters. Mode labels are kept so suggestions keep working.
func (c *Client) Clear() (*ClearStats, error) {
	stats := &ClearStats{}

	err := c.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM time_entries`)
		if err != nil {
			return errStoreUnavailable.WithCause(err)
		}

		stats.Entries, _ = res.RowsAffected()

		res, err = tx.Exec(`DELETE FROM weeks`)
		if err != nil {
			return errStoreUnavailable.WithCause(err)
		}

		stats.Weeks, _ = res.RowsAffected()

		res, err = tx.Exec(
			`UPDATE modes SET usage_count = 0, last_used_at = NULL`,
		)
		if err != nil {
			return errStoreUnavailable.WithCause(err)
		}

		stats.ModesReset, _ = res.RowsAffected()

		return nil
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.TimeEntry, error) {
	var (
		e          models.TimeEntry
		projectID  sql.NullInt64
		replacedBy sql.NullInt64
		source     string
	)

	err := row.Scan(
		&e.ID,
		&e.WeekID,
		&e.Date,
		&e.StartTS,
		&e.EndTS,
		&e.ActiveSeconds,
		&e.IdleSeconds,
		&e.ManualSeconds,
		&projectID,
		&e.ModeLabel,
		&e.Description,
		&source,
		&replacedBy,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}

	if err != nil {
		return nil, errReadRow.WithCause(err)
	}

	if projectID.Valid {
		e.ProjectID = &projectID.Int64
	}

	if replacedBy.Valid {
		e.ReplacedBy = &replacedBy.Int64
	}

	e.Source = models.Source(source)

	return &e, nil
}

func (c *Client) queryEntries(
	query string,
	args ...any,
) ([]models.TimeEntry, error) {
	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, errStoreUnavailable.WithCause(err)
	}
	defer rows.Close()

	var entries []models.TimeEntry

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}

		entries = append(entries, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, errReadRow.WithCause(err)
	}

	return entries, nil
}

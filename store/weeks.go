package store

import (
	"database/sql"
	"time"

	"github.com/mkallio/manweek/internal/models"
	"github.com/mkallio/manweek/internal/timeutil"
)

// EnsureWeek returns the ISO week row containing the given date, creating
// it on first use. The operation is idempotent: two calls for dates in the
// same ISO week return the same row.
func (c *Client) EnsureWeek(date time.Time) (*models.Week, error) {
	var week *models.Week

	err := c.withTx(func(tx *sql.Tx) error {
		var err error

		week, err = ensureWeekTx(tx, date, time.Now().Unix())

		return err
	})
	if err != nil {
		return nil, err
	}

	return week, nil
}

func ensureWeekTx(
	tx *sql.Tx,
	date time.Time,
	now int64,
) (*models.Week, error) {
	isoYear, isoWeek := timeutil.ISOWeekOf(date)

	var week models.Week

	err := tx.QueryRow(
		`SELECT id, iso_year, iso_week, start_date FROM weeks
		WHERE iso_year = ? AND iso_week = ?`,
		isoYear,
		isoWeek,
	).Scan(&week.ID, &week.ISOYear, &week.ISOWeek, &week.StartDate)

	if err == nil {
		return &week, nil
	}

	if err != sql.ErrNoRows {
		return nil, errReadRow.WithCause(err)
	}

	startDate := timeutil.ISOWeekStart(date).Format(timeutil.DateLayout)

	res, err := tx.Exec(
		`INSERT INTO weeks (iso_year, iso_week, start_date, created_at)
		VALUES (?, ?, ?, ?)`,
		isoYear,
		isoWeek,
		startDate,
		now,
	)
	if err != nil {
		return nil, errStoreUnavailable.WithCause(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, errStoreUnavailable.WithCause(err)
	}

	return &models.Week{
		ID:        id,
		ISOYear:   isoYear,
		ISOWeek:   isoWeek,
		StartDate: startDate,
	}, nil
}

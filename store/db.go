package store

import (
	"time"

	"github.com/mkallio/manweek/internal/models"
)

// DB is the ledger storage interface implemented by Client.
type DB interface {
	// AppendEntry validates and inserts an entry, creating the owning
	// week and bumping mode usage counters as side effects.
	AppendEntry(e *models.TimeEntry) (int64, error)
	// CloseInterval finalizes a pending interval into an entry, or
	// returns nil when the interval is discarded under the minimum
	// duration rule.
	CloseInterval(iv *models.Interval, endTS int64) (*models.TimeEntry, error)
	// EntriesForDate returns a date's entries ordered by start time.
	EntriesForDate(date string) ([]models.TimeEntry, error)
	// EntriesBetween returns entries for an inclusive date range.
	EntriesBetween(from, to string) ([]models.TimeEntry, error)
	// GetEntry loads a single entry by id.
	GetEntry(id int64) (*models.TimeEntry, error)
	// UpdateEntry rewrites one row, marking it modified.
	UpdateEntry(e *models.TimeEntry) error
	// UpdateEntries rewrites several rows as one atomic operation.
	UpdateEntries(entries []*models.TimeEntry) error
	// Clear removes all entries and weeks and resets mode usage.
	Clear() (*ClearStats, error)

	// UpsertMode canonicalizes and stores an activity label, counting
	// the use.
	UpsertMode(label string) (*models.Mode, error)
	// EnsureMode resolves a label without touching usage counters.
	EnsureMode(label string) (*models.Mode, error)
	// CheckNameConflict reports whether a candidate label collides with
	// a mode other than excludingID.
	CheckNameConflict(candidate string, excludingID int64) (bool, error)
	// RenameMode relabels a mode and cascades into its entries.
	RenameMode(modeID int64, newLabel string) error
	// ListModes returns all modes ordered by label.
	ListModes() ([]models.Mode, error)
	// ModeSuggestions returns modes ordered for autocomplete.
	ModeSuggestions(limit int) ([]models.Mode, error)
	// ModeDistribution aggregates active time per mode.
	ModeDistribution() ([]ModeTotal, error)

	// EnsureWeek idempotently creates the ISO week row for a date.
	EnsureWeek(date time.Time) (*models.Week, error)

	UpsertProject(code, name string) (*models.Project, error)
	GetProject(id int64) (*models.Project, error)
	GetProjectByCode(code string) (*models.Project, error)
	ListProjects(includeArchived bool) ([]models.Project, error)
	SetProjectArchived(id int64, archived bool) error

	GetSetting(key string) (value string, ok bool, err error)
	SetSetting(key, value string) error
	DurationSetting(key string, fallback time.Duration) time.Duration

	// Close ends the database connection.
	Close() error
}

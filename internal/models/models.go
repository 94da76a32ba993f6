// Package models defines the persisted entities of the time ledger.
package models

import (
	"strings"
	"time"

	"github.com/mkallio/manweek/internal/apperr"
)

// Source records how a time entry came into existence.
type Source string

const (
	// SourceAuto marks entries written by the session controller.
	SourceAuto Source = "auto"
	// SourceManual marks entries inserted by hand for a chosen date.
	SourceManual Source = "manual"
	// SourceModified marks entries that were edited after the fact.
	SourceModified Source = "modified"
)

const (
	// MinEntrySeconds is the shortest interval worth persisting. Anything
	// below it is discarded at close time and rejected during adjustment.
	MinEntrySeconds int64 = 10

	// MaxEntrySeconds caps a single entry at 24 hours.
	MaxEntrySeconds int64 = 24 * 60 * 60

	// BalanceTolerance is the permitted rounding slack between the
	// component sum and the entry duration.
	BalanceTolerance int64 = 1
)

// Project is optional metadata attached to entries. Identity is the
// case-insensitive, trimmed code.
type Project struct {
	ID        int64
	Code      string
	Name      string
	Archived  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Mode is a free-text working intention. Display casing is preserved;
// uniqueness and lookups go through the canonical key.
type Mode struct {
	ID         int64
	Label      string
	UsageCount int64
	LastUsedAt time.Time
}

// Week is one ISO (Monday through Sunday) calendar week that has at least
// one entry.
type Week struct {
	ID        int64
	ISOYear   int
	ISOWeek   int
	StartDate string // YYYY-MM-DD, always a Monday
}

// TimeEntry is one contiguous recorded interval. Timestamps are Unix
// seconds; Date is derived from StartTS only, so an entry that crosses
// midnight still belongs to its start date.
type TimeEntry struct {
	ID            int64
	WeekID        int64
	Date          string // YYYY-MM-DD
	StartTS       int64
	EndTS         int64
	ActiveSeconds int64
	IdleSeconds   int64
	ManualSeconds int64
	ProjectID     *int64
	ModeLabel     string
	Description   string
	Source        Source
	ReplacedBy    *int64 // reserved for a future replacement strategy
}

// Duration returns the entry span in seconds.
func (e *TimeEntry) Duration() int64 {
	return e.EndTS - e.StartTS
}

// Validate checks the ledger invariants that every persisted entry must
// satisfy.
func (e *TimeEntry) Validate() error {
	if e.EndTS <= e.StartTS {
		return apperr.New(
			apperr.Validation,
			"entry end (%d) must be after start (%d)",
			e.EndTS,
			e.StartTS,
		)
	}

	dur := e.Duration()

	if dur < MinEntrySeconds {
		return apperr.New(
			apperr.Validation,
			"entry duration %ds is below the %ds minimum",
			dur,
			MinEntrySeconds,
		)
	}

	if e.ActiveSeconds < 0 || e.IdleSeconds < 0 || e.ManualSeconds < 0 {
		return apperr.New(apperr.Validation, "time components must not be negative")
	}

	sum := e.ActiveSeconds + e.IdleSeconds + e.ManualSeconds

	diff := sum - dur
	if diff < -BalanceTolerance || diff > BalanceTolerance {
		return apperr.New(
			apperr.Validation,
			"time components (%ds) do not balance entry duration (%ds)",
			sum,
			dur,
		)
	}

	if strings.TrimSpace(e.ModeLabel) == "" {
		return apperr.New(apperr.Validation, "entry mode must not be empty")
	}

	return nil
}

// Interval is a pending, not-yet-persisted stretch of tracked time owned by
// the session controller.
type Interval struct {
	StartTS     int64  `json:"start_ts"`
	LastTick    int64  `json:"last_tick"`
	ProjectID   *int64 `json:"project_id"`
	ModeLabel   string `json:"mode_label"`
	Description string `json:"description"`
	IdleSeconds int64  `json:"idle_seconds"`
	// IdleSince is the start of an unfinished idle span, zero while
	// active. It rides along in snapshots so a crash during idleness is
	// still accounted as idle time.
	IdleSince int64 `json:"idle_since"`
}

// Canonical reduces a label to its identity key: surrounding whitespace
// trimmed and case folded. Two labels with the same canonical form are the
// same mode.
func Canonical(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

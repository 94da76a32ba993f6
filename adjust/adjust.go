// Package adjust retroactively reshapes closed ledger entries. Structural
// edits operate on one entry of one calendar date at a time; shortening or
// lengthening an entry cascades the boundary shift into its chronological
// neighbor when the two are adjacent, keeping the overall span intact.
package adjust

import (
	"strings"
	"time"

	"github.com/mkallio/manweek/internal/models"
	"github.com/mkallio/manweek/store"
)

// Engine reshapes recorded entries through the ledger. It shares the
// ledger's single-writer discipline: no partial state is visible until a
// preview is committed.
type Engine struct {
	db        store.DB
	adjacency time.Duration
}

// New creates an engine with the given adjacency threshold (the largest
// gap across which a boundary edit still drags the next entry along).
func New(db store.DB, adjacency time.Duration) *Engine {
	return &Engine{db: db, adjacency: adjacency}
}

// Change is one prospective row rewrite.
type Change struct {
	Before models.TimeEntry
	After  models.TimeEntry
}

// Preview is the full set of changes a structural edit would make. Nothing
// is persisted until Commit; an abandoned preview needs no cleanup.
type Preview struct {
	Date    string
	Changes []Change
}

// PreviewResize computes the effect of moving one entry's end to newEndTS.
// Exactly one entry is resized per call; the next entry on the same date is
// pulled or pushed to keep the span contiguous when the pre-edit gap is
// within the adjacency threshold. Components are rescaled proportionally,
// with the rounding remainder absorbed into active seconds.
func (e *Engine) PreviewResize(
	entryID int64,
	newEndTS int64,
) (*Preview, error) {
	entry, err := e.db.GetEntry(entryID)
	if err != nil {
		return nil, err
	}

	if newEndTS <= entry.StartTS {
		return nil, errEndBeforeStart
	}

	if newEndTS-entry.StartTS > models.MaxEntrySeconds {
		return nil, errTooLong
	}

	if newEndTS-entry.StartTS < models.MinEntrySeconds {
		return nil, errTooShort.Fmt(models.MinEntrySeconds)
	}

	preview := &Preview{Date: entry.Date}

	resized := *entry
	rescale(&resized, entry.StartTS, newEndTS)

	preview.Changes = append(preview.Changes, Change{
		Before: *entry,
		After:  resized,
	})

	next, err := e.nextOnDate(entry)
	if err != nil {
		return nil, err
	}

	// The cascade only applies when the entries were already adjacent
	// before the edit. Otherwise the gap (or overlap, if lengthened)
	// stays as the user made it; filler entries are never invented.
	if next != nil &&
		next.StartTS-entry.EndTS <= int64(e.adjacency.Seconds()) {
		if next.EndTS-newEndTS < models.MinEntrySeconds {
			return nil, errNeighborTooShort.Fmt(
				next.ID,
				models.MinEntrySeconds,
			)
		}

		shifted := *next
		rescale(&shifted, newEndTS, next.EndTS)

		preview.Changes = append(preview.Changes, Change{
			Before: *next,
			After:  shifted,
		})
	}

	return preview, nil
}

// Commit persists a preview as one atomic operation. A persistence failure
// is surfaced immediately; the ledger guarantees that either every change
// landed or none did.
func (e *Engine) Commit(preview *Preview) error {
	if preview == nil || len(preview.Changes) == 0 {
		return errEmptyPreview
	}

	entries := make([]*models.TimeEntry, 0, len(preview.Changes))

	for i := range preview.Changes {
		after := preview.Changes[i].After
		entries = append(entries, &after)
	}

	return e.db.UpdateEntries(entries)
}

// FieldPatch is a non-structural edit to a single entry. Nil fields are
// left untouched; no cascading occurs.
type FieldPatch struct {
	ModeLabel   *string
	ProjectID   **int64 // outer nil: keep; inner nil: clear the project
	Description *string
}

// EditFields applies a field-level edit to one entry and marks it
// modified.
func (e *Engine) EditFields(entryID int64, patch FieldPatch) error {
	entry, err := e.db.GetEntry(entryID)
	if err != nil {
		return err
	}

	if patch.ModeLabel != nil {
		label := strings.TrimSpace(*patch.ModeLabel)
		if label == "" {
			return errEmptyMode
		}

		// Edits must not inflate the usage ranking; only appends count.
		mode, err := e.db.EnsureMode(label)
		if err != nil {
			return err
		}

		entry.ModeLabel = mode.Label
	}

	if patch.ProjectID != nil {
		if *patch.ProjectID != nil {
			if _, err := e.db.GetProject(**patch.ProjectID); err != nil {
				return err
			}
		}

		entry.ProjectID = *patch.ProjectID
	}

	if patch.Description != nil {
		entry.Description = strings.TrimSpace(*patch.Description)
	}

	return e.db.UpdateEntry(entry)
}

// InsertManual records a hand-entered interval for a date. The whole
// duration is attributed to manual seconds.
func (e *Engine) InsertManual(
	startTS, endTS int64,
	modeLabel string,
	projectID *int64,
	description string,
) (*models.TimeEntry, error) {
	if endTS <= startTS {
		return nil, errEndBeforeStart
	}

	if endTS-startTS > models.MaxEntrySeconds {
		return nil, errTooLong
	}

	if projectID != nil {
		if _, err := e.db.GetProject(*projectID); err != nil {
			return nil, err
		}
	}

	entry := &models.TimeEntry{
		StartTS:       startTS,
		EndTS:         endTS,
		ManualSeconds: endTS - startTS,
		ProjectID:     projectID,
		ModeLabel:     modeLabel,
		Description:   strings.TrimSpace(description),
		Source:        models.SourceManual,
	}

	if _, err := e.db.AppendEntry(entry); err != nil {
		return nil, err
	}

	return entry, nil
}

// nextOnDate returns the chronologically next entry on the same date, by
// start time, or nil when entry is the day's last.
func (e *Engine) nextOnDate(
	entry *models.TimeEntry,
) (*models.TimeEntry, error) {
	entries, err := e.db.EntriesForDate(entry.Date)
	if err != nil {
		return nil, err
	}

	var next *models.TimeEntry

	for i := range entries {
		candidate := entries[i]

		if candidate.ID == entry.ID || candidate.StartTS <= entry.StartTS {
			continue
		}

		if next == nil || candidate.StartTS < next.StartTS {
			next = &candidate
		}
	}

	return next, nil
}

// rescale moves an entry to the new bounds and scales its components so
// they sum exactly to the new duration. The rounding remainder lands in
// active seconds.
func rescale(e *models.TimeEntry, newStart, newEnd int64) {
	oldDur := e.Duration()
	newDur := newEnd - newStart

	scale := func(v int64) int64 {
		if oldDur == 0 {
			return 0
		}
		// Integer rounding to nearest.
		return (v*newDur + oldDur/2) / oldDur
	}

	active := scale(e.ActiveSeconds)
	idle := scale(e.IdleSeconds)
	manual := scale(e.ManualSeconds)

	active += newDur - (active + idle + manual)

	// On entries with little or no active time, rounding can overshoot
	// and drive active below zero; take the deficit out of the larger
	// remaining component instead.
	if active < 0 {
		if idle >= manual {
			idle += active
		} else {
			manual += active
		}

		active = 0
	}

	e.StartTS = newStart
	e.EndTS = newEnd
	e.ActiveSeconds = active
	e.IdleSeconds = idle
	e.ManualSeconds = manual
	e.Source = models.SourceModified
}

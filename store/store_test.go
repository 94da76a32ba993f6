package store_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/mkallio/manweek/internal/apperr"
	"github.com/mkallio/manweek/internal/models"
	"github.com/mkallio/manweek/store"
)

// baseDay is a fixed Thursday used by every test so dates are stable.
var baseDay = time.Date(2024, 3, 14, 0, 0, 0, 0, time.Local)

func ts(hour, minute int) int64 {
	return baseDay.Add(
		time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute,
	).Unix()
}

func newTestClient(t *testing.T) *store.Client {
	t.Helper()

	client, err := store.NewClient(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("opening test ledger: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

func seedEntry(
	t *testing.T,
	client *store.Client,
	start, end int64,
	mode string,
) *models.TimeEntry {
	t.Helper()

	entry := &models.TimeEntry{
		StartTS:       start,
		EndTS:         end,
		ActiveSeconds: end - start,
		ModeLabel:     mode,
		Source:        models.SourceAuto,
	}

	if _, err := client.AppendEntry(entry); err != nil {
		t.Fatalf("seeding entry: %v", err)
	}

	return entry
}

func TestAppendEntryValidation(t *testing.T) {
	client := newTestClient(t)

	testCases := []struct {
		name  string
		entry models.TimeEntry
	}{
		{
			name: "end before start",
			entry: models.TimeEntry{
				StartTS:   ts(10, 0),
				EndTS:     ts(9, 0),
				ModeLabel: "Coding",
				Source:    models.SourceAuto,
			},
		},
		{
			name: "below minimum duration",
			entry: models.TimeEntry{
				StartTS:       ts(9, 0),
				EndTS:         ts(9, 0) + 5,
				ActiveSeconds: 5,
				ModeLabel:     "Coding",
				Source:        models.SourceAuto,
			},
		},
		{
			name: "components do not balance",
			entry: models.TimeEntry{
				StartTS:       ts(9, 0),
				EndTS:         ts(10, 0),
				ActiveSeconds: 100,
				ModeLabel:     "Coding",
				Source:        models.SourceAuto,
			},
		},
		{
			name: "empty mode",
			entry: models.TimeEntry{
				StartTS:       ts(9, 0),
				EndTS:         ts(10, 0),
				ActiveSeconds: 3600,
				ModeLabel:     "   ",
				Source:        models.SourceAuto,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			entry := tc.entry

			_, err := client.AppendEntry(&entry)
			if err == nil {
				t.Fatal("expected a validation error, but got none")
			}

			if !apperr.IsKind(err, apperr.Validation) {
				t.Errorf("expected a validation error, but got: %v", err)
			}
		})
	}

	entries, err := client.EntriesForDate("2024-03-14")
	if err != nil {
		t.Fatal(err)
	}

	if len(entries) != 0 {
		t.Errorf("rejected appends must not persist rows, found %d", len(entries))
	}
}

func TestAppendEntrySideEffects(t *testing.T) {
	client := newTestClient(t)

	entry := seedEntry(t, client, ts(9, 0), ts(10, 0), "Coding")

	if entry.Date != "2024-03-14" {
		t.Errorf("expected the date to derive from start, got %s", entry.Date)
	}

	week, err := client.EnsureWeek(baseDay)
	if err != nil {
		t.Fatal(err)
	}

	if entry.WeekID != week.ID {
		t.Errorf(
			"expected entry week %d to match ensured week %d",
			entry.WeekID,
			week.ID,
		)
	}

	if week.StartDate != "2024-03-11" {
		t.Errorf("expected a Monday start date, got %s", week.StartDate)
	}

	modes, err := client.ListModes()
	if err != nil {
		t.Fatal(err)
	}

	if len(modes) != 1 || modes[0].Label != "Coding" {
		t.Fatalf("expected a single Coding mode, got %v", modes)
	}

	if modes[0].UsageCount != 1 {
		t.Errorf("expected usage count 1, got %d", modes[0].UsageCount)
	}

	// A second use through a different casing reuses the row, keeps the
	// original display casing, and bumps the counter.
	second := seedEntry(t, client, ts(10, 0), ts(11, 0), "  coding ")

	if second.ModeLabel != "Coding" {
		t.Errorf(
			"expected the registry's display casing, got %q",
			second.ModeLabel,
		)
	}

	modes, err = client.ListModes()
	if err != nil {
		t.Fatal(err)
	}

	if len(modes) != 1 || modes[0].UsageCount != 2 {
		t.Fatalf("expected one mode used twice, got %v", modes)
	}
}

func TestEntryCrossingMidnightKeepsStartDate(t *testing.T) {
	client := newTestClient(t)

	start := baseDay.Add(23*time.Hour + 30*time.Minute).Unix()
	end := baseDay.Add(24*time.Hour + 30*time.Minute).Unix()

	entry := seedEntry(t, client, start, end, "Night shift")

	if entry.Date != "2024-03-14" {
		t.Errorf(
			"an entry crossing midnight must keep its start date, got %s",
			entry.Date,
		)
	}

	entries, err := client.EntriesForDate("2024-03-15")
	if err != nil {
		t.Fatal(err)
	}

	if len(entries) != 0 {
		t.Error("the entry must not appear under the following date")
	}
}

func TestCloseInterval(t *testing.T) {
	client := newTestClient(t)

	t.Run("discards intervals below the minimum", func(t *testing.T) {
		iv := &models.Interval{StartTS: ts(9, 0), ModeLabel: "Coding"}

		entry, err := client.CloseInterval(iv, ts(9, 0)+9)
		if err != nil {
			t.Fatal(err)
		}

		if entry != nil {
			t.Error("expected a sub-10s interval to be discarded")
		}
	})

	t.Run("splits duration into active and idle", func(t *testing.T) {
		iv := &models.Interval{
			StartTS:     ts(9, 0),
			ModeLabel:   "Coding",
			IdleSeconds: 600,
		}

		entry, err := client.CloseInterval(iv, ts(10, 0))
		if err != nil {
			t.Fatal(err)
		}

		if entry == nil {
			t.Fatal("expected the interval to be persisted")
		}

		if entry.ActiveSeconds != 3000 || entry.IdleSeconds != 600 {
			t.Errorf(
				"expected 3000 active / 600 idle, got %d / %d",
				entry.ActiveSeconds,
				entry.IdleSeconds,
			)
		}

		if entry.Source != models.SourceAuto {
			t.Errorf("expected an auto entry, got %s", entry.Source)
		}
	})
}

func TestEntriesForDateOrdering(t *testing.T) {
	client := newTestClient(t)

	seedEntry(t, client, ts(14, 0), ts(15, 0), "Afternoon")
	seedEntry(t, client, ts(9, 0), ts(10, 0), "Morning")
	seedEntry(t, client, ts(11, 0), ts(12, 0), "Midday")

	entries, err := client.EntriesForDate("2024-03-14")
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, e := range entries {
		got = append(got, e.ModeLabel)
	}

	expected := []string{"Morning", "Midday", "Afternoon"}

	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("unexpected ordering (-want +got):\n%s", diff)
	}
}

func TestEnsureWeekIdempotent(t *testing.T) {
	client := newTestClient(t)

	first, err := client.EnsureWeek(baseDay)
	if err != nil {
		t.Fatal(err)
	}

	// Sunday of the same ISO week must resolve to the same row.
	sunday := time.Date(2024, 3, 17, 12, 0, 0, 0, time.Local)

	second, err := client.EnsureWeek(sunday)
	if err != nil {
		t.Fatal(err)
	}

	if first.ID != second.ID {
		t.Errorf(
			"expected the same week row, got ids %d and %d",
			first.ID,
			second.ID,
		)
	}

	nextMonday, err := client.EnsureWeek(
		time.Date(2024, 3, 18, 0, 0, 0, 0, time.Local),
	)
	if err != nil {
		t.Fatal(err)
	}

	if nextMonday.ID == first.ID {
		t.Error("expected the following Monday to open a new week")
	}
}

func TestUpdateEntriesIsAtomic(t *testing.T) {
	client := newTestClient(t)

	first := seedEntry(t, client, ts(9, 0), ts(10, 0), "Coding")

	firstUpdate := *first
	firstUpdate.EndTS = ts(9, 30)
	firstUpdate.ActiveSeconds = 1800

	missing := *first
	missing.ID = 9999

	err := client.UpdateEntries(
		[]*models.TimeEntry{&firstUpdate, &missing},
	)
	if err == nil {
		t.Fatal("expected the batch to fail on the missing row")
	}

	reloaded, err := client.GetEntry(first.ID)
	if err != nil {
		t.Fatal(err)
	}

	if reloaded.EndTS != ts(10, 0) || reloaded.Source != models.SourceAuto {
		t.Error("a failed batch must leave every row untouched")
	}
}

func TestUpdateEntryMarksModified(t *testing.T) {
	client := newTestClient(t)

	entry := seedEntry(t, client, ts(9, 0), ts(10, 0), "Coding")

	entry.Description = "reviewed the quarterly numbers"

	if err := client.UpdateEntry(entry); err != nil {
		t.Fatal(err)
	}

	reloaded, err := client.GetEntry(entry.ID)
	if err != nil {
		t.Fatal(err)
	}

	if reloaded.Source != models.SourceModified {
		t.Errorf("expected source to transition to modified, got %s", reloaded.Source)
	}

	if reloaded.Description != "reviewed the quarterly numbers" {
		t.Errorf("unexpected description: %q", reloaded.Description)
	}
}

func TestRenameMode(t *testing.T) {
	client := newTestClient(t)

	seedEntry(t, client, ts(9, 0), ts(10, 0), "Lunch")
	seedEntry(t, client, ts(12, 0), ts(13, 0), "lunch")
	seedEntry(t, client, ts(14, 0), ts(15, 0), "Coffee")

	modes, err := client.ListModes()
	if err != nil {
		t.Fatal(err)
	}

	var lunchID, coffeeID int64

	for _, m := range modes {
		switch m.Label {
		case "Lunch":
			lunchID = m.ID
		case "Coffee":
			coffeeID = m.ID
		}
	}

	if lunchID == 0 || coffeeID == 0 {
		t.Fatalf("expected Lunch and Coffee modes, got %v", modes)
	}

	t.Run("conflicting rename fails", func(t *testing.T) {
		err := client.RenameMode(lunchID, "coffee  ")
		if err == nil {
			t.Fatal("expected a name conflict")
		}

		if !apperr.IsKind(err, apperr.NameConflict) {
			t.Errorf("expected a name conflict error, got: %v", err)
		}
	})

	t.Run("identity rename fails", func(t *testing.T) {
		for _, label := range []string{"Lunch", "lunch", "  LUNCH  "} {
			err := client.RenameMode(lunchID, label)
			if err == nil {
				t.Fatalf("expected renaming to %q to fail", label)
			}

			if !apperr.IsKind(err, apperr.NameConflict) {
				t.Errorf("expected a name conflict error, got: %v", err)
			}
		}
	})

	t.Run("successful rename cascades into entries", func(t *testing.T) {
		if err := client.RenameMode(lunchID, "Midday Break"); err != nil {
			t.Fatal(err)
		}

		entries, err := client.EntriesForDate("2024-03-14")
		if err != nil {
			t.Fatal(err)
		}

		var renamed, stale int

		for _, e := range entries {
			switch e.ModeLabel {
			case "Midday Break":
				renamed++
			case "Lunch", "lunch":
				stale++
			}
		}

		if stale != 0 {
			t.Errorf("%d entries still reference the old label", stale)
		}

		if renamed != 2 {
			t.Errorf("expected 2 renamed entries, got %d", renamed)
		}
	})
}

func TestRenameModeNonASCIILabels(t *testing.T) {
	client := newTestClient(t)

	// Canonicalization happens in Go, so labels beyond ASCII fold the
	// same way everywhere.
	seedEntry(t, client, ts(9, 0), ts(10, 0), "Überstunden")
	seedEntry(t, client, ts(11, 0), ts(12, 0), "ÜBERSTUNDEN")

	modes, err := client.ListModes()
	if err != nil {
		t.Fatal(err)
	}

	if len(modes) != 1 {
		t.Fatalf("expected the casings to share a mode, got %v", modes)
	}

	if err := client.RenameMode(modes[0].ID, "Overtime"); err != nil {
		t.Fatal(err)
	}

	entries, err := client.EntriesForDate("2024-03-14")
	if err != nil {
		t.Fatal(err)
	}

	for _, e := range entries {
		if e.ModeLabel != "Overtime" {
			t.Errorf("entry %d kept the old label %q", e.ID, e.ModeLabel)
		}
	}
}

func TestEnsureMode(t *testing.T) {
	client := newTestClient(t)

	existing, err := client.UpsertMode("Coding")
	if err != nil {
		t.Fatal(err)
	}

	resolved, err := client.EnsureMode("  CODING ")
	if err != nil {
		t.Fatal(err)
	}

	if resolved.ID != existing.ID || resolved.Label != "Coding" {
		t.Errorf("expected the existing mode row, got %+v", resolved)
	}

	if resolved.UsageCount != 1 {
		t.Errorf("resolving must not count a use, got %d", resolved.UsageCount)
	}

	created, err := client.EnsureMode("Research")
	if err != nil {
		t.Fatal(err)
	}

	if created.UsageCount != 0 {
		t.Errorf("a mode created by resolution starts unused, got %d", created.UsageCount)
	}

	modes, err := client.ListModes()
	if err != nil {
		t.Fatal(err)
	}

	if len(modes) != 2 {
		t.Fatalf("expected two modes, got %v", modes)
	}
}

func TestCheckNameConflict(t *testing.T) {
	client := newTestClient(t)

	mode, err := client.UpsertMode("Deep Work")
	if err != nil {
		t.Fatal(err)
	}

	conflict, err := client.CheckNameConflict(" deep work ", 0)
	if err != nil {
		t.Fatal(err)
	}

	if !conflict {
		t.Error("expected a conflict with the canonical twin")
	}

	conflict, err = client.CheckNameConflict("deep work", mode.ID)
	if err != nil {
		t.Fatal(err)
	}

	if conflict {
		t.Error("the mode itself must be excludable from the check")
	}
}

func TestModeSuggestionsOrdering(t *testing.T) {
	client := newTestClient(t)

	for i := 0; i < 3; i++ {
		if _, err := client.UpsertMode("Meetings"); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := client.UpsertMode("Coding"); err != nil {
		t.Fatal(err)
	}

	suggestions, err := client.ModeSuggestions(10)
	if err != nil {
		t.Fatal(err)
	}

	if len(suggestions) != 2 || suggestions[0].Label != "Meetings" {
		t.Errorf("expected Meetings first, got %v", suggestions)
	}
}

func TestProjects(t *testing.T) {
	client := newTestClient(t)

	project, err := client.UpsertProject(" ACME ", "Acme Corp")
	if err != nil {
		t.Fatal(err)
	}

	if project.Code != "ACME" {
		t.Errorf("expected a trimmed code, got %q", project.Code)
	}

	// Upserting through a different casing updates in place.
	again, err := client.UpsertProject("acme", "Acme Corporation")
	if err != nil {
		t.Fatal(err)
	}

	if again.ID != project.ID {
		t.Errorf("expected the same project row, got %d and %d", project.ID, again.ID)
	}

	if err := client.SetProjectArchived(project.ID, true); err != nil {
		t.Fatal(err)
	}

	active, err := client.ListProjects(false)
	if err != nil {
		t.Fatal(err)
	}

	if len(active) != 0 {
		t.Error("archived projects must not appear in the active list")
	}

	all, err := client.ListProjects(true)
	if err != nil {
		t.Fatal(err)
	}

	if len(all) != 1 || !all[0].Archived {
		t.Errorf("expected one archived project, got %v", all)
	}

	// Archiving is reversible.
	if err := client.SetProjectArchived(project.ID, false); err != nil {
		t.Fatal(err)
	}

	active, err = client.ListProjects(false)
	if err != nil {
		t.Fatal(err)
	}

	if len(active) != 1 {
		t.Error("unarchiving must restore the project to the active list")
	}
}

func TestSettings(t *testing.T) {
	client := newTestClient(t)

	_, ok, err := client.GetSetting(store.SettingIdleThreshold)
	if err != nil {
		t.Fatal(err)
	}

	if ok {
		t.Error("expected no stored value initially")
	}

	fallback := 300 * time.Second

	if got := client.DurationSetting(store.SettingIdleThreshold, fallback); got != fallback {
		t.Errorf("expected the fallback, got %v", got)
	}

	if err := client.SetSetting(store.SettingIdleThreshold, "240s"); err != nil {
		t.Fatal(err)
	}

	if got := client.DurationSetting(store.SettingIdleThreshold, fallback); got != 240*time.Second {
		t.Errorf("expected the stored override, got %v", got)
	}

	// Replacing an existing value must not fail.
	if err := client.SetSetting(store.SettingIdleThreshold, "600s"); err != nil {
		t.Fatal(err)
	}

	if got := client.DurationSetting(store.SettingIdleThreshold, fallback); got != 600*time.Second {
		t.Errorf("expected the replaced override, got %v", got)
	}
}

func TestClear(t *testing.T) {
	client := newTestClient(t)

	seedEntry(t, client, ts(9, 0), ts(10, 0), "Coding")
	seedEntry(t, client, ts(10, 0), ts(11, 0), "Meetings")

	stats, err := client.Clear()
	if err != nil {
		t.Fatal(err)
	}

	if stats.Entries != 2 || stats.Weeks != 1 || stats.ModesReset != 2 {
		t.Errorf("unexpected clear stats: %+v", stats)
	}

	entries, err := client.EntriesForDate("2024-03-14")
	if err != nil {
		t.Fatal(err)
	}

	if len(entries) != 0 {
		t.Error("expected no entries after clear")
	}

	// Labels survive for suggestions, with counters reset.
	modes, err := client.ListModes()
	if err != nil {
		t.Fatal(err)
	}

	if len(modes) != 2 {
		t.Fatalf("expected the mode labels to survive, got %v", modes)
	}

	for _, m := range modes {
		if m.UsageCount != 0 {
			t.Errorf("expected usage counters to reset, got %d for %s", m.UsageCount, m.Label)
		}
	}
}

package store_test

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mkallio/manweek/internal/apperr"
	"github.com/mkallio/manweek/internal/models"
	"github.com/mkallio/manweek/store"
)

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.db")

	snaps, err := store.NewSnapshotStore(path)
	if err != nil {
		t.Fatal(err)
	}

	defer func() {
		_ = snaps.Close()
	}()

	projectID := int64(7)

	iv := &models.Interval{
		StartTS:     1710403200,
		LastTick:    1710403260,
		ProjectID:   &projectID,
		ModeLabel:   "Coding",
		Description: "refactoring the importer",
		IdleSeconds: 30,
	}

	if err := snaps.Save(iv); err != nil {
		t.Fatal(err)
	}

	// Saving again under the same start overwrites, not duplicates.
	iv.LastTick = 1710403320

	if err := snaps.Save(iv); err != nil {
		t.Fatal(err)
	}

	leftover, err := snaps.Leftover()
	if err != nil {
		t.Fatal(err)
	}

	if len(leftover) != 1 {
		t.Fatalf("expected a single snapshot, got %d", len(leftover))
	}

	if diff := cmp.Diff(*iv, leftover[0]); diff != "" {
		t.Errorf("snapshot did not survive the round trip (-want +got):\n%s", diff)
	}

	if err := snaps.Delete(iv); err != nil {
		t.Fatal(err)
	}

	leftover, err = snaps.Leftover()
	if err != nil {
		t.Fatal(err)
	}

	if len(leftover) != 0 {
		t.Errorf("expected no snapshots after delete, got %d", len(leftover))
	}
}

func TestSnapshotSingleInstance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.db")

	first, err := store.NewSnapshotStore(path)
	if err != nil {
		t.Fatal(err)
	}

	_, err = store.NewSnapshotStore(path)
	if err == nil {
		t.Fatal("expected a second open on the same file to fail")
	}

	if !apperr.IsKind(err, apperr.Persistence) {
		t.Errorf("expected a persistence error, got: %v", err)
	}

	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	// Releasing the lock makes the file openable again.
	second, err := store.NewSnapshotStore(path)
	if err != nil {
		t.Fatalf("expected reopening after close to succeed: %v", err)
	}

	_ = second.Close()
}

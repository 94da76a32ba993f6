package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mkallio/manweek/internal/models"
)

const intervalBucket = "intervals"

// SnapshotStore persists the controller's in-progress interval in a small
// bbolt database so a crashed or killed process can recover it at the next
// startup instead of silently losing the time. Holding the bbolt file lock
// also guarantees a single tracking instance per machine.
type SnapshotStore struct {
	db *bolt.DB
}

// NewSnapshotStore opens (or creates) the snapshot database and locks it.
func NewSnapshotStore(path string) (*SnapshotStore, error) {
	var fileMode fs.FileMode = 0o600

	db, err := bolt.Open(path, fileMode, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		// Lock contention surfaces as a timeout on the file lock.
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, errTrackerRunning
		}

		return nil, errStoreUnavailable.WithCause(err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(intervalBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errStoreUnavailable.WithCause(err)
	}

	return &SnapshotStore{db: db}, nil
}

// Save stores the interval, keyed by its start timestamp. Saving the same
// interval again overwrites the previous snapshot.
func (s *SnapshotStore) Save(iv *models.Interval) error {
	value, err := json.Marshal(iv)
	if err != nil {
		return errStoreUnavailable.WithCause(err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(intervalBucket)).Put(snapshotKey(iv), value)
	})
	if err != nil {
		return errStoreUnavailable.WithCause(err)
	}

	return nil
}

// Delete removes the snapshot for the given interval, if any.
func (s *SnapshotStore) Delete(iv *models.Interval) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(intervalBucket)).Delete(snapshotKey(iv))
	})
	if err != nil {
		return errStoreUnavailable.WithCause(err)
	}

	return nil
}

// Leftover returns any intervals a previous process failed to close.
func (s *SnapshotStore) Leftover() ([]models.Interval, error) {
	var intervals []models.Interval

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(intervalBucket)).
			ForEach(func(_, v []byte) error {
				var iv models.Interval

				if err := json.Unmarshal(v, &iv); err != nil {
					return err
				}

				intervals = append(intervals, iv)

				return nil
			})
	})
	if err != nil {
		return nil, errReadRow.WithCause(err)
	}

	return intervals, nil
}

// Close ends the snapshot database connection and releases the instance
// lock.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

func snapshotKey(iv *models.Interval) []byte {
	return []byte(time.Unix(iv.StartTS, 0).Format(time.RFC3339Nano))
}

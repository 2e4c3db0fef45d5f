package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"stratus/internal/model"
)

const (
	BucketRuns  = "runs"
	runsDbName  = "runs.db"
	maxRunsKept = 200
)

// RunDB keeps the history of reconciliation invocations in a small bbolt
// file next to the sqlite index. The history is operational bookkeeping, not
// part of the index itself, so losing it is harmless.
type RunDB struct {
	db *bbolt.DB
}

func NewRunDB(dataDir string) (*RunDB, error) {
	db, err := bbolt.Open(filepath.Join(dataDir, runsDbName), 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BucketRuns))
		return err
	})
	if err != nil {
		return nil, err
	}

	return &RunDB{db: db}, nil
}

func (d *RunDB) Close() error {
	return d.db.Close()
}

func (d *RunDB) SaveRun(run *model.Run) error {
	return d.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketRuns))
		data, err := json.Marshal(run)
		if err != nil {
			return fmt.Errorf("failed to marshal run: %w", err)
		}
		if err := b.Put([]byte(run.ID), data); err != nil {
			return err
		}
		return pruneRuns(b)
	})
}

func (d *RunDB) GetRun(id string) (*model.Run, error) {
	var run *model.Run
	err := d.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketRuns))
		data := b.Get([]byte(id))
		if data == nil {
			return nil // Not found
		}
		run = &model.Run{}
		return json.Unmarshal(data, run)
	})
	return run, err
}

// ListRuns returns runs newest first.
func (d *RunDB) ListRuns(limit int) ([]*model.Run, error) {
	var runs []*model.Run
	err := d.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketRuns))
		return b.ForEach(func(_, v []byte) error {
			var run model.Run
			if err := json.Unmarshal(v, &run); err != nil {
				return err
			}
			runs = append(runs, &run)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// pruneRuns caps the history so the file does not grow unbounded under a
// scheduled caller.
func pruneRuns(b *bbolt.Bucket) error {
	type entry struct {
		key       []byte
		startedAt time.Time
	}

	var entries []entry
	err := b.ForEach(func(k, v []byte) error {
		var run model.Run
		if err := json.Unmarshal(v, &run); err != nil {
			return err
		}
		entries = append(entries, entry{key: append([]byte(nil), k...), startedAt: run.StartedAt})
		return nil
	})
	if err != nil {
		return err
	}
	if len(entries) <= maxRunsKept {
		return nil
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].startedAt.Before(entries[j].startedAt)
	})
	for _, e := range entries[:len(entries)-maxRunsKept] {
		if err := b.Delete(e.key); err != nil {
			return err
		}
	}
	return nil
}

package stats

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const snapshotPrefix = "snapshot:"

// Repository keeps named snapshots in BadgerDB, one key per model: "snapshot:{name}"
type Repository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewRepository(db *badger.DB, log *slog.Logger) Repository {
	return Repository{db: db, log: log}
}

// OpenBadger opens (or creates) the database at path
func OpenBadger(path string) (*badger.DB, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("database opening failed: %w", err)
	}
	return db, nil
}

func (r Repository) Save(name string, s *Store) error {
	bytes, err := Encode(s.Snapshot(name))
	if err != nil {
		return err
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(snapshotPrefix+name), bytes)
	})
	if err != nil {
		return fmt.Errorf("error storing snapshot %s: %w", name, err)
	}
	r.log.Debug("Snapshot stored", "name", name, "documents", s.TotalDocs(), "bytes", len(bytes))
	return nil
}

func (r Repository) Load(name string) (*Store, error) {
	var value []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(snapshotPrefix + name))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading snapshot %s: %w", name, err)
	}

	var snap Snapshot
	if err := Decode(value, &snap); err != nil {
		return nil, err
	}
	s := NewStore()
	if err := s.Restore(snap); err != nil {
		return nil, err
	}
	return s, nil
}

// List returns the stored snapshot names in key order
func (r Repository) List() ([]string, error) {
	names := []string{}
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte(snapshotPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			names = append(names, strings.TrimPrefix(string(it.Item().Key()), snapshotPrefix))
		}
		return nil
	})
	return names, err
}

// Delete removes a stored snapshot, ErrSnapshotNotFound when there is none
func (r Repository) Delete(name string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		key := []byte(snapshotPrefix + name)
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("error deleting snapshot: %w", err)
	}
	r.log.Debug("Snapshot deleted", "name", name)
	return nil
}

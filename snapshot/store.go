package snapshot

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/waldo/delegate"
)

// ErrNotFound indicates the requested receiver isn't in the store.
var ErrNotFound = errors.New("receiver not found in store")

var log = commonlog.GetLogger("waldo.store")

// Store persists receiver snapshots to SQLite. Snapshots carry behavior
// names, not behavior code, so a store is only as good as the behavior
// table it is opened with.
type Store struct {
	db        *sql.DB
	path      string
	space     *delegate.Space
	behaviors *delegate.BehaviorTable
	mu        sync.Mutex
}

// Open opens (creating if needed) a receiver store at the given path.
func Open(path string, space *delegate.Space, behaviors *delegate.BehaviorTable) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS receivers (
		id TEXT PRIMARY KEY,
		data BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{
		db:        db,
		path:      path,
		space:     space,
		behaviors: behaviors,
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the store's database path.
func (s *Store) Path() string {
	return s.path
}

// Save captures a receiver and persists it.
func (s *Store) Save(r *delegate.Receiver) error {
	snap, err := Capture(r)
	if err != nil {
		return err
	}
	data, err := Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding receiver %s: %w", r.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(
		"INSERT OR REPLACE INTO receivers (id, data) VALUES (?, ?)",
		r.ID, data,
	); err != nil {
		return fmt.Errorf("saving receiver %s: %w", r.ID, err)
	}
	return nil
}

// Load restores a receiver by ID, registering it in the space. A live
// receiver with the same ID is returned as-is without touching the
// database.
func (s *Store) Load(id string) (*delegate.Receiver, error) {
	if r := s.space.Get(id); r != nil {
		return r, nil
	}

	var data []byte
	err := s.db.QueryRow("SELECT data FROM receivers WHERE id = ?", id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("querying receiver %s: %w", id, err)
	}

	snap, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return Restore(snap, s.space, s.behaviors)
}

// Peek returns the raw snapshot for an ID without restoring a live
// receiver. Useful for inspection tooling.
func (s *Store) Peek(id string) (*ReceiverSnapshot, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM receivers WHERE id = ?", id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("querying receiver %s: %w", id, err)
	}
	return Unmarshal(data)
}

// Delete removes a receiver from the store and the space.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM receivers WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting receiver %s: %w", id, err)
	}
	s.space.Remove(id)
	return nil
}

// IDs returns all persisted receiver IDs.
func (s *Store) IDs() ([]string, error) {
	rows, err := s.db.Query("SELECT id FROM receivers ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Count returns the number of persisted receivers.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM receivers").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting receivers: %w", err)
	}
	return n, nil
}

// SaveAll persists every receiver currently in the space.
func (s *Store) SaveAll() error {
	for _, id := range s.space.IDs() {
		r := s.space.Get(id)
		if r == nil {
			continue
		}
		if err := s.Save(r); err != nil {
			return err
		}
	}
	return nil
}

// LoadAll restores every persisted receiver into the space. Rows that
// fail to decode or resolve are logged and skipped.
func (s *Store) LoadAll() error {
	rows, err := s.db.Query("SELECT id, data FROM receivers")
	if err != nil {
		return fmt.Errorf("querying all receivers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return fmt.Errorf("scanning receiver: %w", err)
		}
		if s.space.Get(id) != nil {
			continue
		}

		snap, err := Unmarshal(data)
		if err != nil {
			log.Warningf("skipping receiver %s: %s", id, err.Error())
			continue
		}
		if _, err := Restore(snap, s.space, s.behaviors); err != nil {
			log.Warningf("skipping receiver %s: %s", id, err.Error())
			continue
		}
	}
	return rows.Err()
}

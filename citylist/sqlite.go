package citylist

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the city list as a JSON array in a key-value preferences table
type SQLiteStore struct {
	db       *sql.DB
	mu       sync.Mutex // serializes read-modify-write cycles
	defaults []string
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens (or creates) the database at path
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases consistent
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS preferences (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create preferences table: %w", err)
	}

	return &SQLiteStore{db: db, defaults: DefaultCities}, nil
}

// SetDefaults replaces the list returned before anything was saved.
// Names are trimmed, and blanks or case-insensitive duplicates are skipped.
func (s *SQLiteStore) SetDefaults(cities []string) {
	var defaults []string
	for _, city := range cities {
		if updated, err := appendCity(defaults, city); err == nil {
			defaults = updated
		}
	}

	s.mu.Lock()
	s.defaults = defaults
	s.mu.Unlock()
}

// List returns the tracked cities, or the defaults if none were ever saved
func (s *SQLiteStore) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Add appends a city to the end of the list
func (s *SQLiteStore) Add(name string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cities, err := s.load()
	if err != nil {
		return nil, err
	}
	updated, err := appendCity(cities, name)
	if err != nil {
		return nil, err
	}
	return updated, s.save(updated)
}

// Remove deletes a city by name, ignoring case
func (s *SQLiteStore) Remove(name string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cities, err := s.load()
	if err != nil {
		return nil, err
	}
	updated, err := removeIndex(cities, indexOf(cities, normalize(name)))
	if err != nil {
		return nil, err
	}
	return updated, s.save(updated)
}

// RemoveAt deletes the city at index
func (s *SQLiteStore) RemoveAt(index int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cities, err := s.load()
	if err != nil {
		return nil, err
	}
	updated, err := removeIndex(cities, index)
	if err != nil {
		return nil, err
	}
	return updated, s.save(updated)
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) load() ([]string, error) {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, PreferenceKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return append([]string{}, s.defaults...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read city list: %w", err)
	}

	var cities []string
	if err := json.Unmarshal([]byte(raw), &cities); err != nil {
		return nil, fmt.Errorf("failed to decode city list: %w", err)
	}
	return cities, nil
}

func (s *SQLiteStore) save(cities []string) error {
	raw, err := json.Marshal(cities)
	if err != nil {
		return fmt.Errorf("failed to encode city list: %w", err)
	}

	_, err = s.db.Exec(`INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, PreferenceKey, string(raw))
	if err != nil {
		return fmt.Errorf("failed to save city list: %w", err)
	}
	return nil
}

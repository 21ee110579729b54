package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Provisioning is one entry of the provisioning history.
type Provisioning struct {
	SSID string
	AKM  string
	At   time.Time
}

// SQLStore persists profiles in a SQLite database and keeps a history of
// every provisioning.
type SQLStore struct {
	db *sql.DB
	mu sync.RWMutex

	now func() time.Time
}

// NewSQLStore opens the database at dbPath and creates the schema.
// Use ":memory:" for an in-memory database.
func NewSQLStore(dbPath string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	s := &SQLStore{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		ssid TEXT PRIMARY KEY,
		akm TEXT NOT NULL,
		data BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS provisionings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ssid TEXT NOT NULL,
		akm TEXT NOT NULL,
		at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_provisionings_ssid ON provisionings(ssid);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// ProvisionProfile stores p, replacing any profile for the same SSID, and
// records the provisioning.
func (s *SQLStore) ProvisionProfile(ctx context.Context, p Profile) error {
	data, err := storeEncMode.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.now().UnixNano()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO profiles (ssid, akm, data, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(ssid) DO UPDATE SET akm = excluded.akm, data = excluded.data, updated_at = excluded.updated_at
	`, p.SSID, p.AKM, data, at); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO provisionings (ssid, akm, at) VALUES (?, ?, ?)
	`, p.SSID, p.AKM, at); err != nil {
		return err
	}
	return tx.Commit()
}

// Get returns the profile for ssid.
func (s *SQLStore) Get(ssid string) (Profile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data []byte
	err := s.db.QueryRow(`SELECT data FROM profiles WHERE ssid = ?`, ssid).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, false, nil
	}
	if err != nil {
		return Profile{}, false, err
	}

	var p Profile
	if err := storeDecMode.Unmarshal(data, &p); err != nil {
		return Profile{}, false, fmt.Errorf("failed to decode profile %q: %w", ssid, err)
	}
	return p, true, nil
}

// Load returns every stored profile ordered by SSID.
func (s *SQLStore) Load() ([]Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT ssid, data FROM profiles ORDER BY ssid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		var ssid string
		var data []byte
		if err := rows.Scan(&ssid, &data); err != nil {
			return nil, err
		}
		var p Profile
		if err := storeDecMode.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode profile %q: %w", ssid, err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// History returns the provisioning history, most recent first. A limit of
// zero or less returns at most 100 entries.
func (s *SQLStore) History(limit int) ([]Provisioning, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(`
		SELECT ssid, akm, at FROM provisionings ORDER BY at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Provisioning
	for rows.Next() {
		var p Provisioning
		var at int64
		if err := rows.Scan(&p.SSID, &p.AKM, &at); err != nil {
			return nil, err
		}
		p.At = time.Unix(0, at)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete removes the profile for ssid. The history is kept.
func (s *SQLStore) Delete(ssid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM profiles WHERE ssid = ?`, ssid)
	return err
}

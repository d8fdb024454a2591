package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrBuildNotFound is returned when updating a build that was never created.
var ErrBuildNotFound = errors.New("history: build not found")

// Store provides SQLite persistence for builds and their outputs.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore opens the database at dbPath, creating the schema if needed.
// Use ":memory:" for an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		PRAGMA foreign_keys = ON;
		PRAGMA journal_mode = WAL;
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		generator TEXT,
		sources_json TEXT,
		status TEXT NOT NULL DEFAULT 'running',
		started_at DATETIME NOT NULL,
		completed_at DATETIME,
		entries INTEGER DEFAULT 0,
		hash_size INTEGER DEFAULT 0,
		max_probe INTEGER DEFAULT 0,
		collisions_json TEXT,
		fingerprint TEXT,
		error_message TEXT
	);

	CREATE TABLE IF NOT EXISTS build_outputs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL REFERENCES builds(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		path TEXT NOT NULL,
		size INTEGER DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_build_outputs_build_id ON build_outputs(build_id);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	CREATE INDEX IF NOT EXISTS idx_builds_fingerprint ON builds(fingerprint);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateBuild records the start of a build. Status defaults to running and
// StartedAt to now.
func (s *Store) CreateBuild(b *Build) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.Status == "" {
		b.Status = StatusRunning
	}
	if b.StartedAt.IsZero() {
		b.StartedAt = time.Now().UTC()
	}
	sources, err := json.Marshal(b.Sources)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO builds (id, generator, sources_json, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, b.ID, b.Generator, string(sources), b.Status, b.StartedAt)
	return err
}

// CompleteBuild marks a build as completed with its index statistics.
func (s *Store) CompleteBuild(id string, sum Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	collisions, err := json.Marshal(sum.Collisions)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(`
		UPDATE builds
		SET status = ?, completed_at = ?, entries = ?, hash_size = ?,
		    max_probe = ?, collisions_json = ?, fingerprint = ?
		WHERE id = ?
	`, StatusCompleted, time.Now().UTC(), sum.Entries, sum.HashSize,
		sum.MaxProbe, string(collisions), sum.Fingerprint, id)
	if err != nil {
		return err
	}
	return checkUpdated(res, id)
}

// FailBuild marks a build as failed.
func (s *Store) FailBuild(id string, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	res, err := s.db.Exec(`
		UPDATE builds SET status = ?, completed_at = ?, error_message = ?
		WHERE id = ?
	`, StatusFailed, time.Now().UTC(), msg, id)
	if err != nil {
		return err
	}
	return checkUpdated(res, id)
}

func checkUpdated(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrBuildNotFound, id)
	}
	return nil
}

const buildColumns = `id, generator, sources_json, status, started_at, completed_at,
	entries, hash_size, max_probe, collisions_json, fingerprint, error_message`

type scanner interface {
	Scan(dest ...any) error
}

func scanBuild(sc scanner) (*Build, error) {
	var b Build
	var generator, sources, collisions, fingerprint, errMsg sql.NullString
	var completedAt sql.NullTime

	if err := sc.Scan(
		&b.ID, &generator, &sources, &b.Status, &b.StartedAt, &completedAt,
		&b.Entries, &b.HashSize, &b.MaxProbe, &collisions, &fingerprint, &errMsg,
	); err != nil {
		return nil, err
	}

	b.Generator = generator.String
	b.Fingerprint = fingerprint.String
	b.Error = errMsg.String
	if sources.Valid && sources.String != "" {
		if err := json.Unmarshal([]byte(sources.String), &b.Sources); err != nil {
			return nil, fmt.Errorf("build %s: sources: %w", b.ID, err)
		}
	}
	if collisions.Valid && collisions.String != "" {
		if err := json.Unmarshal([]byte(collisions.String), &b.Collisions); err != nil {
			return nil, fmt.Errorf("build %s: collisions: %w", b.ID, err)
		}
	}
	if completedAt.Valid {
		b.CompletedAt = &completedAt.Time
		b.Duration = completedAt.Time.Sub(b.StartedAt).Round(time.Millisecond).String()
	}
	return &b, nil
}

// GetBuild retrieves a build by ID. It returns nil, nil if there is none.
func (s *Store) GetBuild(id string) (*Build, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := scanBuild(s.db.QueryRow(`SELECT `+buildColumns+` FROM builds WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

// ListBuilds returns builds, most recent first.
func (s *Store) ListBuilds(limit, offset int) ([]Build, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(`
		SELECT `+buildColumns+`
		FROM builds
		ORDER BY started_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var builds []Build
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, err
		}
		builds = append(builds, *b)
	}
	return builds, rows.Err()
}

// CountBuilds returns the number of recorded builds.
func (s *Store) CountBuilds() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM builds`).Scan(&n)
	return n, err
}

// FindByFingerprint returns the completed builds that produced fingerprint,
// oldest first.
func (s *Store) FindByFingerprint(fingerprint string) ([]Build, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT `+buildColumns+`
		FROM builds
		WHERE fingerprint = ? AND status = ?
		ORDER BY started_at ASC
	`, fingerprint, StatusCompleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var builds []Build
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, err
		}
		builds = append(builds, *b)
	}
	return builds, rows.Err()
}

// AddOutput records a file written by a build.
func (s *Store) AddOutput(buildID string, out Output) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO build_outputs (build_id, kind, path, size, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, buildID, out.Kind, out.Path, out.Size, out.CreatedAt)
	return err
}

// GetOutputs returns the outputs of a build in insertion order.
func (s *Store) GetOutputs(buildID string) ([]Output, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT kind, path, size, created_at
		FROM build_outputs
		WHERE build_id = ?
		ORDER BY id ASC
	`, buildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outputs []Output
	for rows.Next() {
		var o Output
		if err := rows.Scan(&o.Kind, &o.Path, &o.Size, &o.CreatedAt); err != nil {
			return nil, err
		}
		outputs = append(outputs, o)
	}
	return outputs, rows.Err()
}

// DeleteBuild removes a build and its outputs.
func (s *Store) DeleteBuild(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM builds WHERE id = ?`, id)
	return err
}

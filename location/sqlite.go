package location

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"
)

// DefaultSnapshotName is the row used when several caches are not sharing
// one database.
const DefaultSnapshotName = "default"

// SQLite keeps the snapshot as one row of a table in a SQLite database file.
// Several caches may share a database by using distinct snapshot names. The
// database is opened per operation; snapshots are loaded once and saved
// rarely.
type SQLite struct {
	path    string
	name    string
	timeout time.Duration
}

var _ Location = (*SQLite)(nil)

// SQLiteOption configures a SQLite location.
type SQLiteOption func(*SQLite)

// WithSQLiteTimeout bounds each database operation. Defaults to DefaultTimeout.
func WithSQLiteTimeout(d time.Duration) SQLiteOption {
	return func(s *SQLite) { s.timeout = d }
}

// NewSQLite returns a Location for the snapshot called name inside the
// database file at path. An empty name selects DefaultSnapshotName.
func NewSQLite(path, name string, opts ...SQLiteOption) *SQLite {
	if name == "" {
		name = DefaultSnapshotName
	}
	s := &SQLite{path: path, name: name, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SQLite) String() string {
	return "sqlite://" + s.path + "#" + s.name
}

func (s *SQLite) exists() (bool, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if errors.Is(err, syscall.ENOTDIR) {
		return false, errors.Wrapf(ErrInvalid, "%s has a parent that is not a directory", s.path)
	}
	if err != nil {
		return false, errors.Wrapf(err, "stat %s", s.path)
	}
	if !info.Mode().IsRegular() {
		return true, errors.Wrapf(ErrInvalid, "%s is not a database file", s.path)
	}
	return true, nil
}

func (s *SQLite) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", s.path)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func (s *SQLite) Load(ctx context.Context) ([]byte, error) {
	exists, err := s.exists()
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var tables int
	if err := db.QueryRowContext(qctx,
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'memo_snapshot'`,
	).Scan(&tables); err != nil {
		return nil, errors.Wrapf(err, "inspect %s", s.path)
	}
	if tables == 0 {
		return nil, ErrNotFound
	}

	var data []byte
	err = db.QueryRowContext(qctx, `SELECT data FROM memo_snapshot WHERE name = ?`, s.name).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "query snapshot %s", s.name)
	}
	return data, nil
}

func (s *SQLite) Save(ctx context.Context, data []byte) error {
	if _, err := s.exists(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrapf(err, "create directory for %s", s.path)
	}
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := db.ExecContext(qctx, `CREATE TABLE IF NOT EXISTS memo_snapshot (
		name TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		saved_at INTEGER NOT NULL
	)`); err != nil {
		return errors.Wrapf(err, "create snapshot table in %s", s.path)
	}
	if _, err := db.ExecContext(qctx,
		`INSERT INTO memo_snapshot (name, data, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, saved_at = excluded.saved_at`,
		s.name, data, time.Now().UnixNano(),
	); err != nil {
		return errors.Wrapf(err, "write snapshot %s", s.name)
	}
	return nil
}

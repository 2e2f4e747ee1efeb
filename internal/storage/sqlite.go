package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS archive (
    name       TEXT PRIMARY KEY,
    data       BLOB NOT NULL,
    size       INTEGER NOT NULL,
    stored_at  DATETIME NOT NULL
);
`

// SQLiteStorage archives analyses in a local SQLite file. It is used when
// no blob storage account is configured.
type SQLiteStorage struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ StorageInterface = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens the database at path and creates the archive table.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStorage{db: db, now: time.Now}, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) Store(ctx context.Context, filename string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO archive (name, data, size, stored_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			data = excluded.data,
			size = excluded.size,
			stored_at = excluded.stored_at
	`, filename, data, len(data), s.now().UTC())
	if err != nil {
		return fmt.Errorf("store %s: %w", filename, err)
	}

	logrus.Debugf("Stored %s (%d bytes) in sqlite archive", filename, len(data))
	return nil
}

func (s *SQLiteStorage) Retrieve(ctx context.Context, filename string) ([]byte, error) {
	var data []byte
	err := s.db.GetContext(ctx, &data, "SELECT data FROM archive WHERE name = ?", filename)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("retrieve %s: %w", filename, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("retrieve %s: %w", filename, err)
	}
	return data, nil
}

// List returns archived names starting with prefix, in name order.
func (s *SQLiteStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := s.db.SelectContext(ctx, &names,
		"SELECT name FROM archive WHERE substr(name, 1, ?) = ? ORDER BY name",
		len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}
	return names, nil
}

func (s *SQLiteStorage) Delete(ctx context.Context, filename string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM archive WHERE name = ?", filename); err != nil {
		return fmt.Errorf("delete %s: %w", filename, err)
	}
	return nil
}

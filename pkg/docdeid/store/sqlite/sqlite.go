package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/docdeid/pkg/docdeid/internalerr"
	"github.com/cognicore/docdeid/pkg/docdeid/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS lists (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL,
	updated_at TEXT
);

CREATE TABLE IF NOT EXISTS list_items (
	list_id INTEGER NOT NULL,
	item TEXT NOT NULL,
	UNIQUE(list_id, item),
	FOREIGN KEY(list_id) REFERENCES lists(id) ON DELETE CASCADE
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// upsertList returns the id of the named list, creating it if needed.
func upsertList(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	const stmt = `
INSERT INTO lists (name, updated_at)
VALUES (?, ?)
ON CONFLICT(name) DO UPDATE SET
	updated_at=excluded.updated_at
RETURNING id;
`
	var id int64
	err := tx.QueryRowContext(ctx, stmt, name, time.Now().UTC().Format(time.RFC3339)).Scan(&id)
	return id, err
}

func insertItems(ctx context.Context, tx *sql.Tx, listID int64, items []string) error {
	if len(items) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO list_items (list_id, item) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, listID, item); err != nil {
			return err
		}
	}
	return nil
}

// PutList replaces the items of a list in a single transaction.
func (s *sqliteStore) PutList(ctx context.Context, name string, items []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	id, err := upsertList(ctx, tx, name)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM list_items WHERE list_id=?`, id); err != nil {
		return err
	}
	if err := insertItems(ctx, tx, id, store.Clean(items)); err != nil {
		return err
	}
	return tx.Commit()
}

// AppendItems adds items to a list.
func (s *sqliteStore) AppendItems(ctx context.Context, name string, items []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	id, err := upsertList(ctx, tx, name)
	if err != nil {
		return err
	}
	if err := insertItems(ctx, tx, id, store.Clean(items)); err != nil {
		return err
	}
	return tx.Commit()
}

// List returns the items of a list, sorted.
func (s *sqliteStore) List(ctx context.Context, name string) ([]string, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM lists WHERE name=?`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	items, err := s.loadStringColumn(ctx, `SELECT item FROM list_items WHERE list_id=? ORDER BY item`, id)
	if err != nil {
		return nil, false, err
	}
	if items == nil {
		items = []string{}
	}
	return items, true, nil
}

// Names returns all list names, sorted.
func (s *sqliteStore) Names(ctx context.Context) ([]string, error) {
	return s.loadStringColumn(ctx, `SELECT name FROM lists ORDER BY name`)
}

// DeleteList removes a list and its items. The items are deleted explicitly
// since foreign_keys is only enabled on the connection that opened the store.
func (s *sqliteStore) DeleteList(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM list_items WHERE list_id IN (SELECT id FROM lists WHERE name=?)`, name); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM lists WHERE name=?`, name); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *sqliteStore) loadStringColumn(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var val string
		if err := rows.Scan(&val); err != nil {
			return nil, err
		}
		result = append(result, val)
	}
	return result, rows.Err()
}

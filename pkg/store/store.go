// Package store persists parsed chat tables in SQLite with full-text search
// over message bodies.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ccollicutt/chatsift/pkg/parser"
	"github.com/ccollicutt/chatsift/pkg/table"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS imports (
    id          TEXT PRIMARY KEY,
    source      TEXT NOT NULL,
    imported_at TEXT NOT NULL,
    date_order  TEXT NOT NULL DEFAULT '',
    messages    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS messages (
    import_id   TEXT NOT NULL REFERENCES imports(id) ON DELETE CASCADE,
    seq         INTEGER NOT NULL,
    date        TEXT NOT NULL,
    time        TEXT NOT NULL,
    sender      TEXT NOT NULL,
    body        TEXT NOT NULL,
    parsed_date TEXT,
    hour        INTEGER,
    length      INTEGER NOT NULL DEFAULT 0,
    source      TEXT NOT NULL DEFAULT '',
    line        INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (import_id, seq)
);

CREATE INDEX IF NOT EXISTS messages_sender ON messages(sender);

CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    body,
    content=messages,
    content_rowid=rowid,
    tokenize='unicode61'
);

-- triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, body) VALUES (new.rowid, new.body);
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, body) VALUES('delete', old.rowid, old.body);
END;

CREATE TRIGGER IF NOT EXISTS messages_au AFTER UPDATE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, body) VALUES('delete', old.rowid, old.body);
    INSERT INTO messages_fts(rowid, body) VALUES (new.rowid, new.body);
END;
`

const parsedDateLayout = "2006-01-02"

// Store is a SQLite database of imported chat tables.
type Store struct {
	db *sql.DB
}

// Import describes one stored table.
type Import struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	ImportedAt time.Time `json:"imported_at"`
	DateOrder  string    `json:"date_order,omitempty"`
	Messages   int       `json:"messages"`
}

// Open opens or creates the database at path, creating parent directories.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// PRAGMAs are per connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveTable stores every row of tbl as a new import. Importing the same
// source twice creates two imports.
func (s *Store) SaveTable(ctx context.Context, source string, tbl *table.Table) (*Import, error) {
	imp := &Import{
		ID:         uuid.NewString(),
		Source:     source,
		ImportedAt: time.Now().UTC().Truncate(time.Second),
		DateOrder:  string(tbl.Order),
		Messages:   tbl.Len(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO imports (id, source, imported_at, date_order, messages) VALUES (?, ?, ?, ?, ?)",
		imp.ID, imp.Source, imp.ImportedAt.Format(time.RFC3339), imp.DateOrder, imp.Messages,
	); err != nil {
		return nil, fmt.Errorf("insert import: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (import_id, seq, date, time, sender, body, parsed_date, hour, length, source, line)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range tbl.Rows {
		r := &tbl.Rows[i]
		var parsedDate, hour interface{}
		if r.ParsedDate != nil {
			parsedDate = r.ParsedDate.Format(parsedDateLayout)
		}
		if r.Hour != nil {
			hour = *r.Hour
		}
		if _, err := stmt.ExecContext(ctx,
			imp.ID, i, r.Date, r.Time, r.Sender, r.Body, parsedDate, hour, r.Length, r.Source, r.Line,
		); err != nil {
			return nil, fmt.Errorf("insert message %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return imp, nil
}

// Imports lists stored imports, newest first.
func (s *Store) Imports(ctx context.Context) ([]Import, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, source, imported_at, date_order, messages FROM imports ORDER BY imported_at DESC, rowid DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var imports []Import
	for rows.Next() {
		var imp Import
		var at string
		if err := rows.Scan(&imp.ID, &imp.Source, &at, &imp.DateOrder, &imp.Messages); err != nil {
			return nil, err
		}
		imp.ImportedAt, _ = time.Parse(time.RFC3339, at)
		imports = append(imports, imp)
	}
	return imports, rows.Err()
}

// MessageCount returns the number of stored messages across all imports.
func (s *Store) MessageCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages").Scan(&n)
	return n, err
}

// LoadTable reads one import back as a table. The derived columns are
// recomputed with the date order the import was stored with.
func (s *Store) LoadTable(ctx context.Context, importID string) (*table.Table, error) {
	var order string
	err := s.db.QueryRowContext(ctx, "SELECT date_order FROM imports WHERE id = ?", importID).Scan(&order)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("import %s not found", importID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT date, time, sender, body, source, line FROM messages WHERE import_id = ? ORDER BY seq", importID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tbl := &table.Table{Order: parser.DateOrder(order)}
	for rows.Next() {
		var m parser.Message
		if err := rows.Scan(&m.Date, &m.Time, &m.Sender, &m.Body, &m.Source, &m.Line); err != nil {
			return nil, err
		}
		tbl.Append(m)
	}
	return tbl, rows.Err()
}

// DeleteImport removes an import and its messages.
func (s *Store) DeleteImport(ctx context.Context, importID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM imports WHERE id = ?", importID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("import %s not found", importID)
	}
	return nil
}

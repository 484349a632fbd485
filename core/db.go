package core

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

type SQLiteOptions struct {
	// Mode can be ro | rw | rwc | memory
	Mode string
	// Cache can be shared | private
	Cache string
	// JournalMode can be DELETE | TRUNCATE | PERSIST | MEMORY | WAL | OFF
	JournalMode string
}

func (o *SQLiteOptions) encode() string {
	if o == nil {
		return ""
	}
	values := url.Values{}
	if o.Mode != "" {
		values.Set("mode", o.Mode)
	}
	if o.Cache != "" {
		values.Set("cache", o.Cache)
	}
	if o.JournalMode != "" {
		values.Set("journal_mode", o.JournalMode)
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// SQLiteDB wraps an SQLite database handle together with the location of
// its goose migration files.
type SQLiteDB struct {
	*sql.DB
	migrationDir string
}

func NewSQLiteDB(file, migrationDir string, options *SQLiteOptions) (*SQLiteDB, error) {
	dsn := fmt.Sprintf("file:%s%s", file, options.encode())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	return &SQLiteDB{DB: db, migrationDir: migrationDir}, nil
}

// Migrate applies all pending goose migrations from the migration directory.
func (db *SQLiteDB) Migrate() error {
	goose.SetBaseFS(os.DirFS(db.migrationDir))

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("SetDialect: %w", err)
	}

	if err := goose.Up(db.DB, "."); err != nil {
		return fmt.Errorf("Up: %w", err)
	}
	return nil
}

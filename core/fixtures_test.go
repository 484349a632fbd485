package core

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

type MessageFixture struct {
	store    MessageStore
	service  *MessageService
	db       *sql.DB
	ctx      context.Context
	tearDown func()
	t        *testing.T
}

func NewMessageFixture(t *testing.T) *MessageFixture {

	ctx, cancel := context.WithCancel(context.Background())

	db, err := sql.Open("sqlite3", "file::memory:?cache=shared")
	if err != nil {
		t.Fatal(err)
	}

	migrationfs := os.DirFS("../migrations")
	goose.SetBaseFS(migrationfs)

	if err := goose.SetDialect("sqlite3"); err != nil {
		t.Fatal(err)
	}

	if err := goose.Up(db, "."); err != nil {
		t.Fatal(err)
	}

	store := NewSQLiteMessageStore(db)

	return &MessageFixture{
		store:   store,
		service: NewMessageService(store),
		db:      db,
		ctx:     ctx,
		t:       t,
		tearDown: func() {
			cancel()
			db.Close()
		},
	}
}

package core

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteMessageStore is a MessageStore backed by SQLite. IDs are assigned
// by the messages table's AUTOINCREMENT column, so GetAll returns messages
// in insertion order.
type SQLiteMessageStore struct {
	db *sql.DB
}

func NewSQLiteMessageStore(db *sql.DB) *SQLiteMessageStore {
	return &SQLiteMessageStore{db: db}
}

func (s *SQLiteMessageStore) Insert(ctx context.Context, message Message) (Message, error) {
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO messages (content, author, created_at, updated_at, active)
	          VALUES (@content, @author, @created_at, @updated_at, @active)`
	res, err := s.db.ExecContext(ctx, query,
		sql.Named("content", message.Content),
		sql.Named("author", message.Author),
		sql.Named("created_at", message.CreatedAt),
		sql.Named("updated_at", nullableTime(message.UpdatedAt)),
		sql.Named("active", message.Active),
	)
	if err != nil {
		return Message{}, fmt.Errorf("ExecContext(insert message): %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Message{}, fmt.Errorf("LastInsertId: %w", err)
	}
	message.ID = id

	return message, nil
}

func (s *SQLiteMessageStore) GetByID(ctx context.Context, id int64) (*Message, error) {
	query := `SELECT id, content, author, created_at, updated_at, active
	          FROM messages WHERE id = @id`
	row := s.db.QueryRowContext(ctx, query, sql.Named("id", id))

	message, err := scanMessage(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("row.Scan: %w", err)
	}
	return &message, nil
}

func (s *SQLiteMessageStore) GetAll(ctx context.Context) ([]Message, error) {
	query := `SELECT id, content, author, created_at, updated_at, active
	          FROM messages ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("QueryContext: %w", err)
	}
	return collectMessages(rows)
}

func (s *SQLiteMessageStore) GetByAuthor(ctx context.Context, author string) ([]Message, error) {
	query := `SELECT id, content, author, created_at, updated_at, active
	          FROM messages WHERE author = @author ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, sql.Named("author", author))
	if err != nil {
		return nil, fmt.Errorf("QueryContext: %w", err)
	}
	return collectMessages(rows)
}

func (s *SQLiteMessageStore) SearchContent(ctx context.Context, keyword string) ([]Message, error) {
	// instr avoids LIKE wildcard escaping for user-supplied keywords.
	query := `SELECT id, content, author, created_at, updated_at, active
	          FROM messages WHERE instr(lower(content), lower(@keyword)) > 0 ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, sql.Named("keyword", keyword))
	if err != nil {
		return nil, fmt.Errorf("QueryContext: %w", err)
	}
	return collectMessages(rows)
}

func (s *SQLiteMessageStore) GetCreatedAfterActive(ctx context.Context, cutoff time.Time) ([]Message, error) {
	query := `SELECT id, content, author, created_at, updated_at, active
	          FROM messages WHERE created_at > @cutoff AND active ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, sql.Named("cutoff", cutoff.UTC()))
	if err != nil {
		return nil, fmt.Errorf("QueryContext: %w", err)
	}
	return collectMessages(rows)
}

func (s *SQLiteMessageStore) CountActive(ctx context.Context) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM messages WHERE active`
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("row.Scan: %w", err)
	}
	return count, nil
}

func (s *SQLiteMessageStore) Update(ctx context.Context, message Message) error {
	query := `UPDATE messages
	          SET content = @content, author = @author, updated_at = @updated_at, active = @active
	          WHERE id = @id`
	_, err := s.db.ExecContext(ctx, query,
		sql.Named("content", message.Content),
		sql.Named("author", message.Author),
		sql.Named("updated_at", nullableTime(message.UpdatedAt)),
		sql.Named("active", message.Active),
		sql.Named("id", message.ID),
	)
	if err != nil {
		return fmt.Errorf("ExecContext(update message): %w", err)
	}
	return nil
}

func (s *SQLiteMessageStore) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM messages WHERE id = @id`
	if _, err := s.db.ExecContext(ctx, query, sql.Named("id", id)); err != nil {
		return fmt.Errorf("ExecContext(delete message): %w", err)
	}
	return nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func scanMessage(scan func(dest ...any) error) (Message, error) {
	var message Message
	var updatedAt sql.NullTime
	err := scan(
		&message.ID, &message.Content, &message.Author,
		&message.CreatedAt, &updatedAt, &message.Active,
	)
	if err != nil {
		return Message{}, err
	}
	if updatedAt.Valid {
		message.UpdatedAt = &updatedAt.Time
	}
	return message, nil
}

func collectMessages(rows *sql.Rows) ([]Message, error) {
	defer rows.Close()

	messages := make([]Message, 0)
	for rows.Next() {
		message, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}
	return messages, nil
}

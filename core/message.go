package core

import (
	"context"
	"errors"
	"time"
)

// MaxContentLength bounds message content, matching the width of the
// content column.
const MaxContentLength = 500

// Message represents a single entry on the message board.
type Message struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
	Author  string `json:"author"`
	// CreatedAt is set once when the message is created and never changes.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is nil until the content is modified for the first time.
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	// Active is a filtering flag used by statistics queries. Deleting a
	// message removes the row; the flag does not implement soft deletes.
	Active bool `json:"active"`
}

var (
	// ErrInvalidMessage is returned when message input fails validation.
	ErrInvalidMessage = errors.New("invalid message")
	// ErrMessageNotFound is returned when no message exists with the given ID.
	ErrMessageNotFound = errors.New("message not found")
)

// CreateMessageInput represents the input for creating a message.
type CreateMessageInput struct {
	Content string `json:"content" validate:"required,max=500"`
	Author  string `json:"author" validate:"required"`
}

// Validate validates the message input.
func (m *CreateMessageInput) Validate() error {
	return validate.Struct(m)
}

// MessageStore is the persistence contract for messages. Implementations
// perform no validation; they trust the MessageService.
type MessageStore interface {

	// Insert persists a new message and returns it with its assigned ID.
	// If CreatedAt is the zero value, the store fills it in.
	Insert(ctx context.Context, message Message) (Message, error)

	// GetByID returns the message with the given ID.
	// If the message is not found, it returns nil.
	GetByID(ctx context.Context, id int64) (*Message, error)

	// GetAll returns every stored message in insertion order.
	GetAll(ctx context.Context) ([]Message, error)

	// GetByAuthor returns messages whose author matches exactly.
	GetByAuthor(ctx context.Context, author string) ([]Message, error)

	// SearchContent returns messages whose content contains the keyword,
	// ignoring case.
	SearchContent(ctx context.Context, keyword string) ([]Message, error)

	// GetCreatedAfterActive returns active messages created strictly after
	// the cutoff.
	GetCreatedAfterActive(ctx context.Context, cutoff time.Time) ([]Message, error)

	// CountActive returns the number of active messages.
	CountActive(ctx context.Context) (int64, error)

	// Update overwrites the stored message with the same ID.
	Update(ctx context.Context, message Message) error

	// Delete permanently removes the message with the given ID.
	Delete(ctx context.Context, id int64) error
}

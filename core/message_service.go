package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MessageService owns the business rules around the message lifecycle. It
// is the only component that mutates messages; the store trusts it and
// performs no validation of its own. The service holds no state besides
// its store, so it is safe to share between the HTTP handlers and the
// stats reporter as long as the store handles concurrent access.
type MessageService struct {
	store MessageStore
}

func NewMessageService(store MessageStore) *MessageService {
	return &MessageService{store: store}
}

// Create validates the input and persists a new active message. It returns
// ErrInvalidMessage when content or author is blank or content exceeds
// MaxContentLength. Timestamps are set here, not by the store.
func (s *MessageService) Create(ctx context.Context, content, author string) (Message, error) {
	input := CreateMessageInput{Content: content, Author: author}
	if err := input.Validate(); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if strings.TrimSpace(content) == "" || strings.TrimSpace(author) == "" {
		return Message{}, fmt.Errorf("%w: content and author cannot be empty", ErrInvalidMessage)
	}

	message := Message{
		Content:   content,
		Author:    author,
		CreatedAt: time.Now().UTC(),
		Active:    true,
	}

	created, err := s.store.Insert(ctx, message)
	if err != nil {
		return Message{}, fmt.Errorf("Insert: %w", err)
	}
	return created, nil
}

// GetByID returns the message with the given ID or ErrMessageNotFound.
func (s *MessageService) GetByID(ctx context.Context, id int64) (Message, error) {
	message, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Message{}, fmt.Errorf("GetByID: %w", err)
	}
	if message == nil {
		return Message{}, fmt.Errorf("%w: id %d", ErrMessageNotFound, id)
	}
	return *message, nil
}

// GetAll returns every stored message in insertion order.
func (s *MessageService) GetAll(ctx context.Context) ([]Message, error) {
	messages, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetAll: %w", err)
	}
	return messages, nil
}

// Update overwrites the content of an existing message and stamps
// UpdatedAt. The new content is deliberately not checked for emptiness,
// unlike Create.
func (s *MessageService) Update(ctx context.Context, id int64, content string) (Message, error) {
	message, err := s.GetByID(ctx, id)
	if err != nil {
		return Message{}, err
	}

	now := time.Now().UTC()
	message.Content = content
	message.UpdatedAt = &now

	if err := s.store.Update(ctx, message); err != nil {
		return Message{}, fmt.Errorf("Update: %w", err)
	}
	return message, nil
}

// Delete permanently removes the message with the given ID. It returns
// ErrMessageNotFound when the ID does not exist.
func (s *MessageService) Delete(ctx context.Context, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

// GetByAuthor returns all messages by the given author. An author with no
// messages yields an empty slice, not an error.
func (s *MessageService) GetByAuthor(ctx context.Context, author string) ([]Message, error) {
	messages, err := s.store.GetByAuthor(ctx, author)
	if err != nil {
		return nil, fmt.Errorf("GetByAuthor: %w", err)
	}
	return messages, nil
}

// Search returns messages whose content contains the keyword, ignoring
// case. A blank keyword falls back to returning all messages.
func (s *MessageService) Search(ctx context.Context, keyword string) ([]Message, error) {
	trimmed := strings.TrimSpace(keyword)
	if trimmed == "" {
		return s.GetAll(ctx)
	}
	messages, err := s.store.SearchContent(ctx, trimmed)
	if err != nil {
		return nil, fmt.Errorf("SearchContent: %w", err)
	}
	return messages, nil
}

// GetRecentMessages returns active messages created strictly within the
// last daysAgo days.
func (s *MessageService) GetRecentMessages(ctx context.Context, daysAgo int) ([]Message, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -daysAgo)
	messages, err := s.store.GetCreatedAfterActive(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("GetCreatedAfterActive: %w", err)
	}
	return messages, nil
}

// GetActiveMessageCount returns the number of active messages.
func (s *MessageService) GetActiveMessageCount(ctx context.Context) (int64, error) {
	count, err := s.store.CountActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("CountActive: %w", err)
	}
	return count, nil
}

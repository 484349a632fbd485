package messageboard

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/nytour/messageboard/core"
	"github.com/nytour/messageboard/pkg/router"
)

// MessageHandler is a thin HTTP adapter over the message service. It
// shapes requests and responses and holds no business logic of its own.
type MessageHandler struct {
	service *core.MessageService
}

func NewMessageHandler(service *core.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

type CreateMessagePayload struct {
	Content string `json:"content"`
	Author  string `json:"author"`
}

type UpdateMessagePayload struct {
	Content string `json:"content"`
}

type MessageResponse struct {
	ID        int64      `json:"id"`
	Content   string     `json:"content"`
	Author    string     `json:"author"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	Active    bool       `json:"active"`
}

func NewMessageResponse(message core.Message) MessageResponse {
	return MessageResponse{
		ID:        message.ID,
		Content:   message.Content,
		Author:    message.Author,
		CreatedAt: message.CreatedAt,
		UpdatedAt: message.UpdatedAt,
		Active:    message.Active,
	}
}

func NewMessagesResponse(messages []core.Message) []MessageResponse {
	return lo.Map(messages, func(message core.Message, _ int) MessageResponse {
		return NewMessageResponse(message)
	})
}

type MessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
	Count    int               `json:"count"`
}

type StatsResponse struct {
	TotalMessages    int64     `json:"total_messages"`
	ActiveMessages   int64     `json:"active_messages"`
	InactiveMessages int64     `json:"inactive_messages"`
	Timestamp        time.Time `json:"timestamp"`
}

func (h *MessageHandler) CreateMessageHandler(w http.ResponseWriter, r *http.Request) error {
	var payload CreateMessagePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return router.NewJSONError(http.StatusBadRequest, "invalid request body")
	}
	r.Body.Close()

	message, err := h.service.Create(r.Context(), payload.Content, payload.Author)
	if err != nil {
		return err
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(NewMessageResponse(message))
	return nil
}

func (h *MessageHandler) GetAllMessagesHandler(w http.ResponseWriter, r *http.Request) error {
	messages, err := h.service.GetAll(r.Context())
	if err != nil {
		return err
	}

	json.NewEncoder(w).Encode(MessagesResponse{
		Messages: NewMessagesResponse(messages),
		Count:    len(messages),
	})
	return nil
}

func (h *MessageHandler) GetMessageByIDHandler(w http.ResponseWriter, r *http.Request) error {
	id, err := messageID(r)
	if err != nil {
		return err
	}

	message, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		return err
	}

	json.NewEncoder(w).Encode(NewMessageResponse(message))
	return nil
}

func (h *MessageHandler) UpdateMessageHandler(w http.ResponseWriter, r *http.Request) error {
	id, err := messageID(r)
	if err != nil {
		return err
	}

	var payload UpdateMessagePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return router.NewJSONError(http.StatusBadRequest, "invalid request body")
	}
	r.Body.Close()

	message, err := h.service.Update(r.Context(), id, payload.Content)
	if err != nil {
		return err
	}

	json.NewEncoder(w).Encode(NewMessageResponse(message))
	return nil
}

func (h *MessageHandler) DeleteMessageHandler(w http.ResponseWriter, r *http.Request) error {
	id, err := messageID(r)
	if err != nil {
		return err
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		return err
	}

	w.WriteHeader(http.StatusOK)
	return nil
}

func (h *MessageHandler) SearchMessagesHandler(w http.ResponseWriter, r *http.Request) error {
	keyword := r.URL.Query().Get("keyword")

	messages, err := h.service.Search(r.Context(), keyword)
	if err != nil {
		return err
	}

	json.NewEncoder(w).Encode(MessagesResponse{
		Messages: NewMessagesResponse(messages),
		Count:    len(messages),
	})
	return nil
}

func (h *MessageHandler) GetMessagesByAuthorHandler(w http.ResponseWriter, r *http.Request) error {
	author := chi.URLParam(r, "author")

	messages, err := h.service.GetByAuthor(r.Context(), author)
	if err != nil {
		return err
	}

	json.NewEncoder(w).Encode(MessagesResponse{
		Messages: NewMessagesResponse(messages),
		Count:    len(messages),
	})
	return nil
}

func (h *MessageHandler) GetStatsHandler(w http.ResponseWriter, r *http.Request) error {
	messages, err := h.service.GetAll(r.Context())
	if err != nil {
		return err
	}

	active, err := h.service.GetActiveMessageCount(r.Context())
	if err != nil {
		return err
	}

	total := int64(len(messages))
	json.NewEncoder(w).Encode(StatsResponse{
		TotalMessages:    total,
		ActiveMessages:   active,
		InactiveMessages: total - active,
		Timestamp:        time.Now().UTC(),
	})
	return nil
}

func messageID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, router.NewJSONError(http.StatusBadRequest, "invalid message id")
	}
	return id, nil
}

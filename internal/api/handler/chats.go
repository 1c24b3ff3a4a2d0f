package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Rrens/fai-advisor/internal/api/middleware"
	"github.com/Rrens/fai-advisor/internal/api/response"
	"github.com/Rrens/fai-advisor/internal/chat"
	"github.com/Rrens/fai-advisor/internal/domain"
	"github.com/go-chi/chi/v5"
)

// ChatState is the controller state returned by every chat endpoint
type ChatState struct {
	ActiveID string               `json:"active_id"`
	Messages []domain.Message     `json:"messages"`
	Sessions []domain.ChatSession `json:"sessions"`
	Pending  bool                 `json:"pending"`
	Alerts   []string             `json:"alerts,omitempty"`
}

type ChatHandler struct {
	registry *chat.Registry
}

func NewChatHandler(registry *chat.Registry) *ChatHandler {
	return &ChatHandler{registry: registry}
}

func (h *ChatHandler) controller(r *http.Request) (*chat.Controller, bool) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		return nil, false
	}
	return h.registry.Get(r.Context(), middleware.ClientKey(r.Context()), user.ID), true
}

func state(c *chat.Controller) ChatState {
	return ChatState{
		ActiveID: c.ActiveID(),
		Messages: c.Messages(),
		Sessions: c.Sessions(),
		Pending:  c.Pending(),
		Alerts:   c.DrainAlerts(),
	}
}

func writeChatError(w http.ResponseWriter, c *chat.Controller, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		status = http.StatusBadRequest
	case errors.Is(err, chat.ErrBusy):
		status = http.StatusConflict
	case errors.Is(err, chat.ErrNotConfirmed):
		status = http.StatusPreconditionFailed
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrBackendUnavailable):
		status = http.StatusServiceUnavailable
	}

	message := err.Error()
	if alerts := c.DrainAlerts(); len(alerts) > 0 {
		message = strings.Join(alerts, " ")
	}
	response.Error(w, status, message)
}

// List returns the chat state, reloading stored chats when refresh=true
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(r)
	if !ok {
		response.Unauthorized(w, "not signed in")
		return
	}

	if r.URL.Query().Get("refresh") == "true" {
		if err := c.Load(r.Context()); err != nil {
			writeChatError(w, c, err)
			return
		}
	}

	response.OK(w, state(c))
}

// Create starts a new stored chat holding only the greeting
func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(r)
	if !ok {
		response.Unauthorized(w, "not signed in")
		return
	}

	if _, err := c.CreateSession(r.Context()); err != nil {
		writeChatError(w, c, err)
		return
	}

	response.Created(w, state(c))
}

// SendMessage posts a user message and waits for the reply. A failed save
// still returns the transcript, with the failure listed in alerts.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(r)
	if !ok {
		response.Unauthorized(w, "not signed in")
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	err := c.SendMessage(r.Context(), req.Message)
	if errors.Is(err, chat.ErrEmptyMessage) || errors.Is(err, chat.ErrBusy) {
		writeChatError(w, c, err)
		return
	}

	response.OK(w, state(c))
}

// Rename updates a chat title. Blank titles leave the chat unchanged.
func (h *ChatHandler) Rename(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(r)
	if !ok {
		response.Unauthorized(w, "not signed in")
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := c.RenameSession(r.Context(), chi.URLParam(r, "id"), req.Title); err != nil {
		writeChatError(w, c, err)
		return
	}

	response.OK(w, state(c))
}

// Delete removes a chat. The caller confirms with confirm=true.
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(r)
	if !ok {
		response.Unauthorized(w, "not signed in")
		return
	}

	ctx := chat.WithConfirmation(r.Context(), r.URL.Query().Get("confirm") == "true")
	if err := c.DeleteSession(ctx, chi.URLParam(r, "id")); err != nil {
		writeChatError(w, c, err)
		return
	}

	response.OK(w, state(c))
}

// Select shows a cached chat
func (h *ChatHandler) Select(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(r)
	if !ok {
		response.Unauthorized(w, "not signed in")
		return
	}

	if !c.SelectSession(chi.URLParam(r, "id")) {
		response.NotFound(w, "chat not found")
		return
	}

	response.OK(w, state(c))
}

package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Rrens/fai-advisor/internal/api/handler"
	"github.com/Rrens/fai-advisor/internal/api/middleware"
	"github.com/Rrens/fai-advisor/internal/chat"
	"github.com/Rrens/fai-advisor/internal/domain"
	"github.com/Rrens/fai-advisor/internal/repository/memory"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool              `json:"success"`
	Data    handler.ChatState `json:"data"`
	Error   any               `json:"error"`
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()

	handler.HealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response["success"] != true {
		t.Error("expected success to be true")
	}

	data, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatal("expected data to be a map")
	}

	if data["status"] != "ok" {
		t.Errorf("expected status 'ok', got %v", data["status"])
	}
}

func TestReadyCheck(t *testing.T) {
	rec := httptest.NewRecorder()
	handler.ReadyCheck(pinger{})(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ReadyCheck(pinger{err: errors.New("down")})(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func newChatRouter(t *testing.T, repo domain.ChatRepository) http.Handler {
	t.Helper()
	registry := chat.NewRegistry(time.Minute, chat.Options{
		Repository: repo,
		Generator:  chat.NewKeywordGenerator(0, 0),
	})
	h := handler.NewChatHandler(registry)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Test-User") != "" {
				id := domain.Identity{ID: r.Header.Get("X-Test-User"), Email: "student@example.com"}
				r = r.WithContext(middleware.WithUser(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Get("/chats", h.List)
	r.Post("/chats", h.Create)
	r.Post("/chats/messages", h.SendMessage)
	r.Patch("/chats/{id}", h.Rename)
	r.Delete("/chats/{id}", h.Delete)
	r.Post("/chats/{id}/select", h.Select)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("X-Test-User", "alice")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return rec, env
}

func TestChatHandler_RequiresUser(t *testing.T) {
	h := newChatRouter(t, memory.NewChatRepository())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chats", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChatHandler_Flow(t *testing.T) {
	repo := memory.NewChatRepository()
	h := newChatRouter(t, repo)

	rec, env := do(t, h, http.MethodGet, "/chats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, env.Data.Messages, 1)
	assert.Equal(t, chat.GreetingID, env.Data.Messages[0].ID)
	assert.Empty(t, env.Data.Sessions)

	rec, env = do(t, h, http.MethodPost, "/chats/messages", `{"message":"What are the admission requirements?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, env.Data.Messages, 3)
	assert.Contains(t, env.Data.Messages[2].Content, "high school certificate")
	require.Len(t, env.Data.Sessions, 1)
	assert.Equal(t, "Chat about What are the admission require...", env.Data.Sessions[0].Title)
	id := env.Data.ActiveID
	require.NotEmpty(t, id)

	rec, env = do(t, h, http.MethodPatch, "/chats/"+id, `{"title":"  Admission  "}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Admission", env.Data.Sessions[0].Title)

	stored, err := repo.List(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Admission", stored[0].Title)
	assert.Len(t, stored[0].Messages, 3)
}

func TestChatHandler_SendMessageErrors(t *testing.T) {
	h := newChatRouter(t, memory.NewChatRepository())

	rec, _ := do(t, h, http.MethodPost, "/chats/messages", `{"message":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chats/messages", strings.NewReader("not json"))
	req.Header.Set("X-Test-User", "alice")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatHandler_DeleteNeedsConfirmation(t *testing.T) {
	h := newChatRouter(t, memory.NewChatRepository())

	rec, env := do(t, h, http.MethodPost, "/chats", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	id := env.Data.ActiveID
	require.NotEmpty(t, id)

	rec, _ = do(t, h, http.MethodDelete, "/chats/"+id, "")
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)

	rec, env = do(t, h, http.MethodDelete, "/chats/"+id+"?confirm=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, env.Data.Sessions)
	assert.Empty(t, env.Data.ActiveID)
	assert.Len(t, env.Data.Messages, 1)

	// deleting again is harmless
	rec, _ = do(t, h, http.MethodDelete, "/chats/"+id+"?confirm=true", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChatHandler_Select(t *testing.T) {
	h := newChatRouter(t, memory.NewChatRepository())

	rec, _ := do(t, h, http.MethodPost, "/chats/unknown/select", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, env := do(t, h, http.MethodPost, "/chats", "")
	id := env.Data.ActiveID

	rec, env = do(t, h, http.MethodPost, "/chats/"+id+"/select", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, env.Data.ActiveID)
}

func TestChatHandler_BackendUnavailable(t *testing.T) {
	repo := new(failingRepo)
	h := newChatRouter(t, repo)

	rec, _ := do(t, h, http.MethodPost, "/chats", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type failingRepo struct{}

func (failingRepo) Create(context.Context, string, string, []domain.Message) (*domain.ChatSession, error) {
	return nil, domain.ErrBackendUnavailable
}
func (failingRepo) List(context.Context, string) ([]domain.ChatSession, error) {
	return nil, domain.ErrBackendUnavailable
}
func (failingRepo) Rename(context.Context, string, string, string) error {
	return domain.ErrBackendUnavailable
}
func (failingRepo) ReplaceMessages(context.Context, string, string, []domain.Message) error {
	return domain.ErrBackendUnavailable
}
func (failingRepo) Delete(context.Context, string, string) error { return domain.ErrBackendUnavailable }

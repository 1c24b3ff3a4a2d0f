package websession

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Rrens/fai-advisor/internal/config"
	"github.com/Rrens/fai-advisor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager() (*Manager, *MemoryStore) {
	store := NewMemoryStore(time.Hour)
	return NewManager(store, config.SessionConfig{CookieName: "fai_session", TTL: time.Hour}), store
}

func TestManager_LoadCreatesSession(t *testing.T) {
	m, store := newManager()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	s, err := m.Load(rec, req)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.False(t, s.SignedIn())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "fai_session", cookies[0].Name)
	assert.Equal(t, s.ID, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	stored, err := store.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored)
}

func TestManager_LoadExisting(t *testing.T) {
	m, _ := newManager()

	rec := httptest.NewRecorder()
	first, err := m.Load(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	first.SetAuth(&domain.AuthSession{
		AccessToken: "at",
		User:        domain.Identity{ID: "u1", Email: "student@example.com"},
	})
	require.NoError(t, m.Save(context.Background(), first))

	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	rec2 := httptest.NewRecorder()

	second, err := m.Load(rec2, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.SignedIn())
	assert.Equal(t, "at", second.AccessToken)
	assert.Empty(t, rec2.Result().Cookies())
}

func TestManager_UnknownCookieStartsFresh(t *testing.T) {
	m, _ := newManager()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "fai_session", Value: "stale"})

	s, err := m.Load(httptest.NewRecorder(), req)
	require.NoError(t, err)
	assert.NotEqual(t, "stale", s.ID)
}

func TestManager_Destroy(t *testing.T) {
	m, store := newManager()

	rec := httptest.NewRecorder()
	s, err := m.Load(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	require.NoError(t, m.Destroy(context.Background(), rec, s))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)

	stored, err := store.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestSession_FlashAndClear(t *testing.T) {
	s := &Session{Flash: "saved"}
	assert.Equal(t, "saved", s.PopFlash())
	assert.Empty(t, s.PopFlash())

	s.SetAuth(&domain.AuthSession{AccessToken: "a", RefreshToken: "r", User: domain.Identity{ID: "u"}})
	s.Recovery = true
	s.ClearAuth()
	assert.False(t, s.SignedIn())
	assert.Empty(t, s.AccessToken)
	assert.False(t, s.Recovery)
}

func TestMemoryStore_CopiesOnSave(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	s := &Session{ID: "s1", Flash: "a"}
	require.NoError(t, store.Save(context.Background(), s))

	s.Flash = "b"
	got, err := store.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Flash)
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	s := &Session{ID: "s1"}
	assert.Same(t, s, FromContext(WithSession(context.Background(), s)))
}

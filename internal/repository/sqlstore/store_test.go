package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/Rrens/fai-advisor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), DriverSQLite, ":memory:", 1)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_CreateAndList(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t)

	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	greeting := []domain.Message{{ID: 1, Role: domain.RoleBot, Content: "🤖 أهلاً", Timestamp: ts}}

	first, err := store.Create(ctx, "alice", "Chat 1", greeting)
	require.NoError(t, err)
	second, err := store.Create(ctx, "alice", "Chat 2", nil)
	require.NoError(t, err)
	_, err = store.Create(ctx, "bob", "Other", greeting)
	require.NoError(t, err)

	list, err := store.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, second.ID, list[0].ID)
	assert.Empty(t, list[0].Messages)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Equal(t, "alice", list[1].OwnerID)
	require.Len(t, list[1].Messages, 1)
	assert.Equal(t, "🤖 أهلاً", list[1].Messages[0].Content)
	assert.True(t, ts.Equal(list[1].Messages[0].Timestamp))
	assert.True(t, first.CreatedAt.Equal(list[1].CreatedAt))
}

func TestStore_RenameAndReplace(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t)

	chat, err := store.Create(ctx, "alice", "Chat 1", nil)
	require.NoError(t, err)

	require.NoError(t, store.Rename(ctx, "alice", chat.ID, "Admission"))
	assert.ErrorIs(t, store.Rename(ctx, "bob", chat.ID, "Mine"), domain.ErrNotFound)
	assert.ErrorIs(t, store.Rename(ctx, "alice", "missing", "x"), domain.ErrNotFound)

	msgs := []domain.Message{
		{ID: 1, Role: domain.RoleBot, Content: "hi"},
		{ID: 2, Role: domain.RoleUser, Content: "credit hours"},
	}
	require.NoError(t, store.ReplaceMessages(ctx, "alice", chat.ID, msgs))
	assert.ErrorIs(t, store.ReplaceMessages(ctx, "bob", chat.ID, msgs), domain.ErrNotFound)

	list, err := store.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Admission", list[0].Title)
	assert.Equal(t, msgs[1].Content, list[0].Messages[1].Content)
	assert.True(t, list[0].UpdatedAt.After(list[0].CreatedAt))
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t)

	chat, err := store.Create(ctx, "alice", "Chat 1", nil)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "bob", chat.ID))
	list, err := store.List(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, store.Delete(ctx, "alice", chat.ID))
	require.NoError(t, store.Delete(ctx, "alice", chat.ID))

	list, err = store.List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "", 0)
	assert.Error(t, err)
}

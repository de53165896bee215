package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhidalgo/inboxq/internal/db"
)

func newTestPrefs(t *testing.T) *PrefsServiceImpl {
	t.Helper()
	ctx := context.Background()
	store, err := db.Open(ctx, filepath.Join(t.TempDir(), "inboxq.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewPrefsService(db.NewPrefsStore(store), nil)
}

func TestPrefsServiceImpl_DarkMode(t *testing.T) {
	ctx := context.Background()
	svc := newTestPrefs(t)

	assert.False(t, svc.DarkMode(ctx))

	require.NoError(t, svc.SetDarkMode(ctx, true))
	assert.True(t, svc.DarkMode(ctx))

	require.NoError(t, svc.SetDarkMode(ctx, false))
	assert.False(t, svc.DarkMode(ctx))
}

func TestPrefsServiceImpl_LastUserID(t *testing.T) {
	ctx := context.Background()
	svc := newTestPrefs(t)

	assert.Empty(t, svc.LastUserID(ctx))

	require.NoError(t, svc.SetLastUserID(ctx, "alice"))
	assert.Equal(t, "alice", svc.LastUserID(ctx))

	// Blank identity clears the stored one
	require.NoError(t, svc.SetLastUserID(ctx, "  "))
	assert.Empty(t, svc.LastUserID(ctx))
}

func TestPrefsServiceImpl_NilStore(t *testing.T) {
	ctx := context.Background()
	svc := NewPrefsService(nil, nil)

	assert.False(t, svc.DarkMode(ctx))
	assert.Empty(t, svc.LastUserID(ctx))
	assert.NoError(t, svc.SetDarkMode(ctx, true))
	assert.NoError(t, svc.SetLastUserID(ctx, "alice"))
}

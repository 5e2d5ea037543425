package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "inspector.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

func TestMigrator_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "inspector.db"))
	require.NoError(t, err)
	defer db.Close()

	applied, err := NewMigrator(db).Up(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied, "second run should not re-apply migrations")

	v, err := NewStore(db).GetSchemaMetaValue(ctx, "schema_version")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

func TestStore_PutGetOverwrite(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, ok, err := s.Get(ctx, "checklists")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "checklists", []byte(`[]`)))
	require.NoError(t, s.Put(ctx, "checklists", []byte(`[{"id":"a"}]`)))

	got, ok, err := s.Get(ctx, "checklists")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"id":"a"}]`, string(got))

	prev, ok, err := s.Previous(ctx, "checklists")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[]`, string(prev))

	slots, err := s.ListSlots(ctx)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "checklists", slots[0].Name)
	assert.Equal(t, int64(len(`[{"id":"a"}]`)), slots[0].SizeBytes)
}

func TestStore_DeleteAndEmptyName(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Put(ctx, "darkMode", []byte(`true`)))
	require.NoError(t, s.Delete(ctx, "darkMode"))
	require.NoError(t, s.Delete(ctx, "darkMode"))

	_, ok, err := s.Get(ctx, "darkMode")
	require.NoError(t, err)
	assert.False(t, ok)

	// 删除前的值仍可找回；删除不存在的槽位不覆盖历史。
	prev, ok, err := s.Previous(ctx, "darkMode")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `true`, string(prev))

	assert.Error(t, s.Put(ctx, "  ", []byte(`1`)))
}

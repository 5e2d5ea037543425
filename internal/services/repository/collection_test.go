package repository

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"engine-inspector/internal/adapters/store/memory"
	sqliteadapter "engine-inspector/internal/adapters/store/sqlite"
	"engine-inspector/internal/domain/model"
	"engine-inspector/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id string) model.ChecklistEntry {
	return model.ChecklistEntry{
		ID:           id,
		Date:         "2025-03-05",
		Type:         "Préventive",
		SerialNumber: "SN-" + id,
		HourCounter:  100,
		Components:   model.UniformComponents(model.StatusGood),
		Observations: "",
		Photos:       []string{},
	}
}

func ids(items []model.ChecklistEntry) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestCollection_AppendPreservesOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	c := OpenChecklists(ctx, store, Options{})

	for _, id := range []string{"A", "B", "C", "D"} {
		require.NoError(t, c.Append(ctx, entry(id)))
	}
	assert.Equal(t, []string{"A", "B", "C", "D"}, ids(c.List()))

	// 重新打开后顺序不变。
	reopened := OpenChecklists(ctx, store, Options{})
	assert.Equal(t, []string{"A", "B", "C", "D"}, ids(reopened.List()))
}

func TestCollection_RemoveMiddle(t *testing.T) {
	ctx := context.Background()
	c := OpenChecklists(ctx, memory.NewStore(), Options{})
	for _, id := range []string{"A", "B", "C"} {
		require.NoError(t, c.Append(ctx, entry(id)))
	}

	removed, err := c.Remove(ctx, "B")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []string{"A", "C"}, ids(c.List()))
}

func TestCollection_RemoveThenFindIsAbsent(t *testing.T) {
	ctx := context.Background()
	c := OpenChecklists(ctx, memory.NewStore(), Options{})
	require.NoError(t, c.Append(ctx, entry("A")))

	for _, id := range []string{"A", "never-existed"} {
		_, err := c.Remove(ctx, id)
		require.NoError(t, err)
		_, ok := c.FindByID(id)
		assert.False(t, ok, id)
	}

	removed, err := c.Remove(ctx, "never-existed")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestCollection_AppendThenFindIsDeepEqual(t *testing.T) {
	ctx := context.Background()
	c := OpenChecklists(ctx, memory.NewStore(), Options{})

	e := entry("A")
	e.Observations = "fuite légère sur le flexible"
	e.Photos = []string{"data:image/png;base64,AAAA", "https://example.com/p.jpg"}
	require.NoError(t, c.Append(ctx, e))

	got, ok := c.FindByID("A")
	require.True(t, ok)
	assert.Equal(t, e, got)

	// 返回的是副本，修改不会影响仓库。
	got.Photos[0] = "mutated"
	again, _ := c.FindByID("A")
	assert.Equal(t, e.Photos, again.Photos)
}

func TestCollection_RejectsDuplicateAndInvalid(t *testing.T) {
	ctx := context.Background()
	c := OpenChecklists(ctx, memory.NewStore(), Options{})
	require.NoError(t, c.Append(ctx, entry("A")))

	err := c.Append(ctx, entry("A"))
	assert.True(t, errors.Is(err, ErrDuplicateID))

	bad := entry("B")
	bad.HourCounter = 0
	assert.Error(t, c.Append(ctx, bad))
	assert.Equal(t, 1, c.Len())
}

func TestCollection_Replace(t *testing.T) {
	ctx := context.Background()
	c := OpenChecklists(ctx, memory.NewStore(), Options{})
	require.NoError(t, c.Append(ctx, entry("A")))
	require.NoError(t, c.Append(ctx, entry("B")))

	edited := entry("A")
	edited.HourCounter = 4321
	require.NoError(t, c.Replace(ctx, "A", edited))

	got, _ := c.FindByID("A")
	assert.Equal(t, 4321, got.HourCounter)
	assert.Equal(t, []string{"A", "B"}, ids(c.List()))

	assert.True(t, errors.Is(c.Replace(ctx, "Z", entry("Z")), ErrNotFound))
	assert.Error(t, c.Replace(ctx, "A", entry("B")))
}

func TestCollection_FailedWriteLeavesMemoryUnchanged(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	c := OpenChecklists(ctx, store, Options{})
	require.NoError(t, c.Append(ctx, entry("A")))

	store.FailPut = errors.New("disk full")
	assert.Error(t, c.Append(ctx, entry("B")))
	_, err := c.Remove(ctx, "A")
	assert.Error(t, err)

	assert.Equal(t, []string{"A"}, ids(c.List()))
}

func TestCollection_CorruptDocumentIsEmpty(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.Raw(SlotChecklists, []byte(`[{"id": "A",`))
	reg := metrics.New()

	c := OpenChecklists(ctx, store, Options{Metrics: reg})
	assert.Equal(t, 0, c.Len())
	assert.NotEmpty(t, c.Warnings())
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.StorageFallbacks.WithLabelValues(SlotChecklists)))

	// 之后的写入会生成合法文档。
	require.NoError(t, c.Append(ctx, entry("A")))
	raw, _, _ := store.Get(ctx, SlotChecklists)
	var decoded []model.ChecklistEntry
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Len(t, decoded, 1)
}

func TestCollection_EmptyDocumentIsArray(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	c := OpenChecklists(ctx, store, Options{})
	require.NoError(t, c.Append(ctx, entry("A")))
	_, err := c.Remove(ctx, "A")
	require.NoError(t, err)

	raw, ok, err := store.Get(ctx, SlotChecklists)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "[]", string(raw))
}

func TestCollection_NilPhotosPersistAsArray(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	c := OpenChecklists(ctx, store, Options{})
	e := entry("A")
	e.Photos = nil
	require.NoError(t, c.Append(ctx, e))

	raw, ok, err := store.Get(ctx, SlotChecklists)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(raw), `"photos":[]`)
	assert.NotContains(t, string(raw), "null")

	got, ok := c.FindByID("A")
	require.True(t, ok)
	assert.NotNil(t, got.Photos)
}

func TestCollection_Search(t *testing.T) {
	ctx := context.Background()
	c := OpenChecklists(ctx, memory.NewStore(), Options{})
	a := entry("A")
	a.SerialNumber = "CAT-3512"
	b := entry("B")
	b.SerialNumber = "MTU-4000"
	b.Type = "Corrective"
	require.NoError(t, c.Append(ctx, a))
	require.NoError(t, c.Append(ctx, b))

	assert.Equal(t, []string{"A"}, ids(c.Search("cat")))
	assert.Equal(t, []string{"B"}, ids(c.Search("CORRECT")))
	assert.Equal(t, []string{"A", "B"}, ids(c.Search("  ")))
	assert.Empty(t, c.Search("volvo"))
}

func TestCollection_SQLiteBackend(t *testing.T) {
	ctx := context.Background()
	db, err := sqliteadapter.Open(ctx, filepath.Join(t.TempDir(), "inspector.db"))
	require.NoError(t, err)
	defer db.Close()
	store := sqliteadapter.NewStore(db)

	c := OpenChecklists(ctx, store, Options{})
	require.NoError(t, c.Append(ctx, entry("A")))
	require.NoError(t, c.Append(ctx, entry("B")))

	reopened := OpenChecklists(ctx, store, Options{})
	assert.Equal(t, []string{"A", "B"}, ids(reopened.List()))
	assert.Empty(t, reopened.Warnings())
}

func TestLegacyCollection_SeparateSlot(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	legacy := OpenLegacy(ctx, store, Options{})
	current := OpenChecklists(ctx, store, Options{})

	l := model.LegacyChecklist{
		ID:            "L1",
		Date:          "2024-01-10",
		ChecklistType: model.LegacyExpedition,
		EngineInfo:    model.EngineInfo{SerialNumber: "SN-9", HMCurrent: 10},
		Items:         model.DefaultLegacyItems(),
	}
	require.NoError(t, legacy.Append(ctx, l))
	assert.Equal(t, 1, legacy.Len())
	assert.Equal(t, 0, current.Len())
	assert.Len(t, legacy.Search("expédition"), 1)
}

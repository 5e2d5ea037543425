package settings

import (
	"context"
	"errors"
	"testing"

	"engine-inspector/internal/adapters/lists"
	"engine-inspector/internal/adapters/store/memory"
	"engine-inspector/internal/domain/model"
	"engine-inspector/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SeedsDefaultRevisionTypes(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	s, err := Open(ctx, store, Options{})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultRevisionTypes(), s.RevisionTypes())
	assert.Empty(t, s.EngineSerials())
	assert.False(t, s.DarkMode())

	// 默认值已写回，之后打开读到的是存储内容。
	raw, ok, err := store.Get(ctx, SlotRevisionTypes)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(raw), "Transfert")
	_, ok, _ = store.Get(ctx, SlotEngineSerials)
	assert.False(t, ok)
}

func TestOpen_SeedFromLists(t *testing.T) {
	ctx := context.Background()
	seed := &lists.Loaded{Bundle: lists.Bundle{
		RevisionTypes: []string{"Préventive", "Transfert"},
		EngineSerials: []string{"CAT-3512-001"},
	}}

	s, err := Open(ctx, memory.NewStore(), Options{Seed: seed})
	require.NoError(t, err)
	assert.Equal(t, []string{"Préventive", "Transfert"}, s.RevisionTypes())
	assert.Equal(t, []string{"CAT-3512-001"}, s.EngineSerials())

	// 修改种子切片不影响已加载的设置。
	seed.Bundle.RevisionTypes[0] = "x"
	assert.Equal(t, "Préventive", s.RevisionTypes()[0])
}

func TestOpen_StoredListsWinOverSeed(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.Raw(SlotRevisionTypes, []byte(`["Spéciale"]`))
	store.Raw(SlotEngineSerials, []byte(`[]`))
	seed := &lists.Loaded{Bundle: lists.Bundle{
		RevisionTypes: []string{"Préventive"},
		EngineSerials: []string{"CAT-1"},
	}}

	s, err := Open(ctx, store, Options{Seed: seed})
	require.NoError(t, err)
	assert.Equal(t, []string{"Spéciale"}, s.RevisionTypes())
	assert.Empty(t, s.EngineSerials())
}

func TestOpen_CorruptSlotFallsBackToDefaults(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.Raw(SlotRevisionTypes, []byte(`{"oops"`))
	reg := metrics.New()

	s, err := Open(ctx, store, Options{Metrics: reg})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultRevisionTypes(), s.RevisionTypes())
	assert.NotEmpty(t, s.Warnings())
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.StorageFallbacks.WithLabelValues(SlotRevisionTypes)))
}

func TestAddRevisionType(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	s, err := Open(ctx, store, Options{})
	require.NoError(t, err)
	before := len(s.RevisionTypes())

	added, err := s.AddRevisionType(ctx, "  Hivernage ")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, "Hivernage", s.RevisionTypes()[before])

	for _, v := range []string{"", "   ", "hivernage", "PRÉVENTIVE"} {
		added, err := s.AddRevisionType(ctx, v)
		require.NoError(t, err)
		assert.False(t, added, v)
	}
	assert.Len(t, s.RevisionTypes(), before+1)

	reopened, err := Open(ctx, store, Options{})
	require.NoError(t, err)
	assert.Equal(t, s.RevisionTypes(), reopened.RevisionTypes())
}

func TestRemoveByIndex(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, memory.NewStore(), Options{})
	require.NoError(t, err)

	for _, v := range []string{"A-1", "B-2", "C-3"} {
		_, err := s.AddEngineSerial(ctx, v)
		require.NoError(t, err)
	}

	removed, err := s.RemoveEngineSerial(ctx, 1)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []string{"A-1", "C-3"}, s.EngineSerials())

	for _, idx := range []int{-1, 2, 99} {
		removed, err := s.RemoveEngineSerial(ctx, idx)
		require.NoError(t, err)
		assert.False(t, removed, idx)
	}
	assert.Equal(t, []string{"A-1", "C-3"}, s.EngineSerials())

	removed, err = s.RemoveRevisionType(ctx, 0)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, s.KnownRevisionType("Préventive"))
	assert.True(t, s.KnownEngineSerial(" a-1 "))
}

func TestFailedWriteLeavesListsUnchanged(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	s, err := Open(ctx, store, Options{})
	require.NoError(t, err)
	before := s.RevisionTypes()

	store.FailPut = errors.New("quota exceeded")
	_, err = s.AddRevisionType(ctx, "Nouvelle")
	assert.Error(t, err)
	_, err = s.RemoveRevisionType(ctx, 0)
	assert.Error(t, err)
	assert.Error(t, s.SetDarkMode(ctx, true))

	assert.Equal(t, before, s.RevisionTypes())
	assert.False(t, s.DarkMode())
}

func TestDarkModePersists(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	s, err := Open(ctx, store, Options{})
	require.NoError(t, err)

	require.NoError(t, s.SetDarkMode(ctx, true))
	raw, _, _ := store.Get(ctx, SlotDarkMode)
	assert.Equal(t, "true", string(raw))

	reopened, err := Open(ctx, store, Options{})
	require.NoError(t, err)
	assert.True(t, reopened.DarkMode())

	store.Raw(SlotDarkMode, []byte(`"true"`))
	reopened, err = Open(ctx, store, Options{})
	require.NoError(t, err)
	assert.True(t, reopened.DarkMode())
}

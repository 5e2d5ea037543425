package dataexport

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"engine-inspector/internal/domain/model"
	"engine-inspector/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 5, 18, 0, 0, 0, time.UTC)

func entry(id string) model.ChecklistEntry {
	return model.ChecklistEntry{
		ID:           id,
		Date:         "2025-03-01",
		Type:         "Préventive",
		SerialNumber: "SN-" + id,
		HourCounter:  10,
		Components:   model.UniformComponents(model.StatusGood),
		Photos:       []string{},
	}
}

func TestFilenames(t *testing.T) {
	assert.Equal(t, "inspections-export-2025-03-05.json", CollectionFilename(now))
	assert.Equal(t, "inspection-chk_1-2025-03-05.json", RecordFilename(entry("chk_1"), now))
}

func TestCollection_IndentedAndEmptyArray(t *testing.T) {
	raw, err := Collection(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))

	raw, err = Collection([]model.ChecklistEntry{entry("A")})
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  {\n    \"id\": \"A\"")

	var back []model.ChecklistEntry
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, []model.ChecklistEntry{entry("A")}, back)
}

func TestAll_Shape(t *testing.T) {
	raw, err := All(AllData{RevisionTypes: []string{"Préventive"}})
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Len(t, m, 3)
	assert.Equal(t, "[]", string(m["checklists"]))
	assert.Equal(t, "[]", string(m["engineSerials"]))
}

func TestWriter(t *testing.T) {
	ctx := context.Background()
	reg := metrics.New()
	w := NewWriter(filepath.Join(t.TempDir(), "out"), reg)
	w.Now = func() time.Time { return now }

	f, err := w.WriteCollection(ctx, []model.ChecklistEntry{entry("A"), entry("B")})
	require.NoError(t, err)
	assert.Equal(t, "inspections-export-2025-03-05.json", filepath.Base(f.Path))
	raw, err := os.ReadFile(f.Path)
	require.NoError(t, err)
	assert.Equal(t, int64(len(raw)), f.Size)

	f, err = w.WriteRecord(ctx, entry("A"))
	require.NoError(t, err)
	assert.Equal(t, "inspection-A-2025-03-05.json", filepath.Base(f.Path))

	f, err = w.WriteAll(ctx, AllData{})
	require.NoError(t, err)
	assert.Equal(t, AllFilename, filepath.Base(f.Path))

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.JSONExports.WithLabelValues(KindCollection)))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.JSONExports.WithLabelValues(KindRecord)))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.JSONExports.WithLabelValues(KindAll)))
}

package wizard

import (
	"context"
	"testing"

	"engine-inspector/internal/domain/model"
	"engine-inspector/internal/services/repository"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func legacySample() model.LegacyChecklist {
	items := model.DefaultLegacyItems()
	items[0].Status = model.SensorMissing
	return model.LegacyChecklist{
		ID:            "chk_old",
		Date:          "2024-11-20",
		ChecklistType: model.LegacyReception,
		Responsables:  model.Responsables{Electrical: "A. Benali"},
		EngineInfo:    model.EngineInfo{SerialNumber: "SN-77", EcmNumber: "ECM-1", HMCurrent: 840},
		Items:         items,
		Observations:  "RAS",
	}
}

func allComponents(status string) map[string]string {
	out := map[string]string{}
	for _, def := range model.ComponentDefs() {
		out[string(def.Key)] = status
	}
	return out
}

func TestSubmitMigration(t *testing.T) {
	f := newFixture(t)
	comps := allComponents("bon")
	comps["exhaust"] = "mauvais"

	res, err := SubmitMigration(context.Background(), f.deps, legacySample(), Draft{
		Type:       "Corrective",
		Components: comps,
	})
	require.NoError(t, err)

	e := res.Entry
	assert.Equal(t, "chk_old", e.ID)
	assert.Equal(t, "2024-11-20", e.Date)
	assert.Equal(t, "Corrective", e.Type)
	assert.Equal(t, "SN-77", e.SerialNumber)
	assert.Equal(t, 840, e.HourCounter)
	assert.Equal(t, model.StatusBad, e.Components.Exhaust)
	assert.Contains(t, e.Observations, "RAS")
	assert.Contains(t, e.Observations, "ECM-1")

	got, ok := f.repo.FindByID("chk_old")
	require.True(t, ok)
	assert.Equal(t, e, got)
	require.Len(t, f.exporter.calls, 1)
	assert.Equal(t, []bool{true}, f.exporter.seen)

	_, err = SubmitMigration(context.Background(), f.deps, legacySample(), Draft{Components: allComponents("bon")})
	assert.ErrorIs(t, err, repository.ErrDuplicateID)
	assert.Equal(t, 1, f.repo.Len())
}

func TestSubmitMigration_RequiresEveryComponent(t *testing.T) {
	f := newFixture(t)
	comps := allComponents("bon")
	delete(comps, "chassis")
	comps["hoses"] = "neuf"

	_, err := SubmitMigration(context.Background(), f.deps, legacySample(), Draft{Components: comps})
	ve, ok := IsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "components.chassis")
	assert.Contains(t, ve.Fields, "components.hoses")
	assert.Equal(t, 0, f.repo.Len())
	assert.Empty(t, f.exporter.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ValidationFailures.WithLabelValues("components.chassis")))
}

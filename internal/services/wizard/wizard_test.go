package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	"engine-inspector/internal/adapters/store/memory"
	"engine-inspector/internal/domain/model"
	"engine-inspector/internal/platform/metrics"
	"engine-inspector/internal/services/inspectionpdf"
	"engine-inspector/internal/services/repository"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 5, 9, 30, 0, 0, time.UTC)

type fakeExporter struct {
	calls []model.ChecklistEntry
	// seen 记录导出时仓库中是否已有该记录
	seen []bool
	repo *repository.Collection[model.ChecklistEntry]
	err  error
}

func (f *fakeExporter) ExportEntry(_ context.Context, e model.ChecklistEntry) (*inspectionpdf.Artifact, error) {
	f.calls = append(f.calls, e)
	if f.repo != nil {
		_, ok := f.repo.FindByID(e.ID)
		f.seen = append(f.seen, ok)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &inspectionpdf.Artifact{Path: "/tmp/" + inspectionpdf.Filename(e), SHA256: "abc"}, nil
}

type fixture struct {
	repo     *repository.Collection[model.ChecklistEntry]
	exporter *fakeExporter
	notes    *Collect
	metrics  *metrics.Registry
	deps     Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := repository.OpenChecklists(context.Background(), memory.NewStore(), repository.Options{})
	f := &fixture{
		repo:     repo,
		exporter: &fakeExporter{repo: repo},
		notes:    &Collect{},
		metrics:  metrics.New(),
	}
	n := 0
	f.deps = Deps{
		Repo:     repo,
		Exporter: f.exporter,
		Notifier: f.notes,
		Clock:    func() time.Time { return fixedNow },
		NewID: func() string {
			n++
			return "chk_" + string(rune('0'+n))
		},
		Metrics: f.metrics,
	}
	return f
}

func fillValid(t *testing.T, c *Controller) {
	t.Helper()
	require.NoError(t, c.SetType("Préventive"))
	require.NoError(t, c.SetSerialNumber(" CAT-3512-001 "))
	require.NoError(t, c.SetHourCounter(1250))
}

func TestController_Defaults(t *testing.T) {
	c := New(newFixture(t).deps)
	d := c.Draft()
	assert.Equal(t, SectionGeneral, c.Section())
	assert.Equal(t, "2025-03-05", d.Date)
	assert.Equal(t, model.UniformComponents(model.StatusGood), d.Components)
	assert.NotNil(t, d.Photos)
	assert.False(t, c.Editing())
}

func TestController_NavigationIsClamped(t *testing.T) {
	c := New(newFixture(t).deps)
	assert.Equal(t, SectionGeneral, c.Previous())
	assert.Equal(t, SectionComponents, c.Next())
	assert.Equal(t, SectionNotes, c.Next())
	assert.Equal(t, SectionNotes, c.Next())
	assert.Equal(t, SectionComponents, c.Previous())
	assert.Equal(t, "État des composants", c.Section().Title())
	assert.Len(t, c.Sections(), 3)
}

func TestController_ProvenanceOnlyForTransfer(t *testing.T) {
	f := newFixture(t)
	c := New(f.deps)
	fillValid(t, c)
	require.NoError(t, c.SetProvenance("MTU-4000"))
	assert.False(t, c.ProvenanceVisible())

	res, err := c.Finish(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Entry.ProvenanceEngine)

	c = New(f.deps)
	fillValid(t, c)
	require.NoError(t, c.SetType("Transfert"))
	assert.True(t, c.ProvenanceVisible())
	_, err = c.Finish(context.Background())
	ve, ok := IsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "provenanceEngine")

	require.NoError(t, c.SetProvenance("MTU-4000"))
	res, err = c.Finish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "MTU-4000", res.Entry.ProvenanceEngine)
}

func TestController_ZeroHourCounterIsRejected(t *testing.T) {
	f := newFixture(t)
	c := New(f.deps)
	require.NoError(t, c.SetType("Corrective"))
	require.NoError(t, c.SetSerialNumber("SN-1"))
	require.NoError(t, c.SetHourCounter(0))
	c.Next()

	before := f.repo.Len()
	_, err := c.Finish(context.Background())
	ve, ok := IsValidation(err)
	require.True(t, ok, "%v", err)
	assert.Contains(t, ve.Fields, "hourCounter")

	assert.Equal(t, before, f.repo.Len())
	assert.Equal(t, SectionComponents, c.Section())
	assert.False(t, c.Finished())
	assert.Empty(t, f.exporter.calls)
	assert.Empty(t, f.notes.Notes)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ValidationFailures.WithLabelValues("hourCounter")))

	assert.Error(t, c.SetHourCounter(-5))
}

func TestController_RequiredFields(t *testing.T) {
	c := New(newFixture(t).deps)
	err := c.Validate()
	ve, ok := IsValidation(err)
	require.True(t, ok)
	for _, k := range []string{"type", "serialNumber", "hourCounter"} {
		assert.Contains(t, ve.Fields, k)
	}
	assert.NotContains(t, ve.Fields, "date")
	assert.Contains(t, err.Error(), "hourCounter")
}

func TestController_FinishAppendsThenExports(t *testing.T) {
	f := newFixture(t)
	c := New(f.deps)
	fillValid(t, c)
	c.Next()
	require.NoError(t, c.SetComponent(model.ComponentHoses, model.StatusBad))
	c.Next()
	require.NoError(t, c.SetObservations("Remplacer le flexible"))
	require.NoError(t, c.AddPhoto("https://example.com/p.jpg"))

	res, err := c.Finish(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "chk_1", res.Entry.ID)
	assert.Equal(t, "CAT-3512-001", res.Entry.SerialNumber)
	assert.Equal(t, "/tmp/inspection_CAT-3512-001_05-03-2025.pdf", res.PDFPath)
	assert.Equal(t, "abc", res.PDFSHA256)

	// 导出发生在入库之后
	require.Len(t, f.exporter.calls, 1)
	assert.Equal(t, []bool{true}, f.exporter.seen)

	stored, ok := f.repo.FindByID("chk_1")
	require.True(t, ok)
	assert.Equal(t, res.Entry, stored)

	require.Len(t, f.notes.Notes, 1)
	assert.Equal(t, LevelSuccess, f.notes.Notes[0].Level)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ChecklistsCreated))

	// 已提交的表单不能再修改或重复提交
	assert.True(t, errors.Is(c.SetType("x"), ErrFinished))
	_, err = c.Finish(context.Background())
	assert.True(t, errors.Is(err, ErrFinished))
	assert.Equal(t, 1, f.repo.Len())
}

func TestController_EveryComponentKeyPopulated(t *testing.T) {
	f := newFixture(t)
	statuses := model.ComponentStatuses()
	for i, def := range model.ComponentDefs() {
		c := New(f.deps)
		fillValid(t, c)
		require.NoError(t, c.SetComponent(def.Key, statuses[i%len(statuses)]))
		res, err := c.Finish(context.Background())
		require.NoError(t, err)

		rows := res.Entry.Components.Rows()
		require.Len(t, rows, len(model.ComponentDefs()))
		for _, r := range rows {
			assert.True(t, r.Status.Valid(), "%s=%q", r.Key, r.Status)
		}
	}
}

func TestController_ExportFailureKeepsRecord(t *testing.T) {
	f := newFixture(t)
	f.exporter.err = errors.New("disk full")
	c := New(f.deps)
	fillValid(t, c)

	res, err := c.Finish(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.PDFPath)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "disk full")
	assert.Equal(t, 1, f.repo.Len())
	assert.Equal(t, LevelWarning, f.notes.Notes[0].Level)
}

func TestController_AppendFailureKeepsFormOpen(t *testing.T) {
	store := memory.NewStore()
	repo := repository.OpenChecklists(context.Background(), store, repository.Options{})
	f := newFixture(t)
	f.deps.Repo = repo
	store.FailPut = errors.New("quota exceeded")

	c := New(f.deps)
	fillValid(t, c)
	_, err := c.Finish(context.Background())
	require.Error(t, err)
	assert.False(t, c.Finished())
	assert.Empty(t, f.exporter.calls)

	store.FailPut = nil
	_, err = c.Finish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.Len())
}

func TestController_EditReplacesSameID(t *testing.T) {
	f := newFixture(t)
	c := New(f.deps)
	fillValid(t, c)
	first, err := c.Finish(context.Background())
	require.NoError(t, err)

	hours := 1300
	res, err := SubmitEdit(context.Background(), f.deps, first.Entry, Draft{HourCounter: &hours})
	require.NoError(t, err)
	assert.Equal(t, first.Entry.ID, res.Entry.ID)
	assert.Equal(t, 1300, res.Entry.HourCounter)
	assert.Equal(t, first.Entry.SerialNumber, res.Entry.SerialNumber)
	assert.Equal(t, 1, f.repo.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ChecklistsReplaced))

	// 被删除的记录不能再编辑
	_, err = f.repo.Remove(context.Background(), first.Entry.ID)
	require.NoError(t, err)
	_, err = SubmitEdit(context.Background(), f.deps, first.Entry, Draft{})
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestSubmit_DraftErrorsAreCollected(t *testing.T) {
	f := newFixture(t)
	hours := 10
	_, err := Submit(context.Background(), f.deps, Draft{
		Date:         "05/03/2025",
		Type:         "Préventive",
		SerialNumber: "SN-1",
		HourCounter:  &hours,
		Components:   map[string]string{"turbo": "bon", "chassis": "neuf"},
	})
	ve, ok := IsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "date")
	assert.Contains(t, ve.Fields, "components.turbo")
	assert.Contains(t, ve.Fields, "components.chassis")
	assert.Equal(t, 0, f.repo.Len())

	obs := "RAS"
	res, err := Submit(context.Background(), f.deps, Draft{
		Date:         "2025-02-01",
		Type:         "Préventive",
		SerialNumber: "SN-1",
		HourCounter:  &hours,
		Components:   map[string]string{"chassis": "mauvais"},
		Observations: &obs,
		Photos:       []string{" ", "https://example.com/a.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-02-01", res.Entry.Date)
	assert.Equal(t, model.StatusBad, res.Entry.Components.Chassis)
	assert.Equal(t, []string{"https://example.com/a.jpg"}, res.Entry.Photos)
}

func TestController_RemovePhoto(t *testing.T) {
	c := New(newFixture(t).deps)
	require.NoError(t, c.AddPhoto("a"))
	require.NoError(t, c.AddPhoto("b"))
	assert.Error(t, c.AddPhoto("  "))

	ok, err := c.RemovePhoto(5)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = c.RemovePhoto(0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"b"}, c.Draft().Photos)
}

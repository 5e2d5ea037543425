package wizard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"engine-inspector/internal/domain/model"
	"engine-inspector/internal/platform/metrics"
	"engine-inspector/internal/services/inspectionpdf"

	"go.uber.org/zap"
)

// LegacySection 是旧版四步表单的步骤。
type LegacySection int

const (
	LegacySectionGeneral LegacySection = iota + 1
	LegacySectionResponsables
	LegacySectionEngine
	LegacySectionItems
)

var legacyTitles = map[LegacySection]string{
	LegacySectionGeneral:      "Date et type de checklist",
	LegacySectionResponsables: "Responsables",
	LegacySectionEngine:       "Informations moteur",
	LegacySectionItems:        "Capteurs, faisceaux et démarrage",
}

func (s LegacySection) Title() string { return legacyTitles[s] }

// LegacyRepository 是旧版记录的集合。
type LegacyRepository interface {
	Append(ctx context.Context, l model.LegacyChecklist) error
}

// LegacyExporter 渲染旧版记录。
type LegacyExporter interface {
	ExportLegacy(ctx context.Context, l model.LegacyChecklist) (*inspectionpdf.Artifact, error)
}

// LegacyDeps 是旧版控制器的依赖；其余字段与 Deps 含义相同。
type LegacyDeps struct {
	Repo     LegacyRepository
	Exporter LegacyExporter
	Notifier Notifier
	Clock    func() time.Time
	NewID    func() string
	Log      *zap.SugaredLogger
	Metrics  *metrics.Registry
}

// LegacyResult 是旧版表单提交结果。
type LegacyResult struct {
	Checklist model.LegacyChecklist `json:"checklist"`
	PDFPath   string                `json:"pdf_path,omitempty"`
	PDFSHA256 string                `json:"pdf_sha256,omitempty"`
	Warnings  []string              `json:"warnings,omitempty"`
}

// LegacyController 驱动旧版“接收/发运”检查单，条目使用传感器状态词表。
type LegacyController struct {
	mu       sync.Mutex
	repo     LegacyRepository
	exporter LegacyExporter
	deps     Deps
	section  LegacySection
	draft    model.LegacyChecklist
	finished bool
}

func NewLegacy(deps LegacyDeps) *LegacyController {
	base := Deps{
		Notifier: deps.Notifier,
		Clock:    deps.Clock,
		NewID:    deps.NewID,
		Log:      deps.Log,
		Metrics:  deps.Metrics,
	}.withDefaults("chk")
	return &LegacyController{
		repo:     deps.Repo,
		exporter: deps.Exporter,
		deps:     base,
		section:  LegacySectionGeneral,
		draft: model.LegacyChecklist{
			Date:  model.FormatDate(base.Clock()),
			Items: model.DefaultLegacyItems(),
		},
	}
}

func (c *LegacyController) Section() LegacySection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.section
}

func (c *LegacyController) Next() LegacySection {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.section < LegacySectionItems {
		c.section++
	}
	return c.section
}

func (c *LegacyController) Previous() LegacySection {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.section > LegacySectionGeneral {
		c.section--
	}
	return c.section
}

func (c *LegacyController) Draft() model.LegacyChecklist {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Clone()
}

func (c *LegacyController) edit(fn func(d *model.LegacyChecklist) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finished {
		return ErrFinished
	}
	return fn(&c.draft)
}

func (c *LegacyController) SetDate(s string) error {
	t, err := model.ParseDate(s)
	if err != nil {
		return err
	}
	return c.edit(func(d *model.LegacyChecklist) error {
		d.Date = model.FormatDate(t)
		return nil
	})
}

func (c *LegacyController) SetChecklistType(t model.LegacyChecklistType) error {
	if !t.Valid() {
		return fmt.Errorf("unknown checklist type %q", t)
	}
	return c.edit(func(d *model.LegacyChecklist) error {
		d.ChecklistType = t
		return nil
	})
}

func (c *LegacyController) SetResponsables(r model.Responsables) error {
	return c.edit(func(d *model.LegacyChecklist) error {
		d.Responsables = model.Responsables{
			Electrical: strings.TrimSpace(r.Electrical),
			Workshop:   strings.TrimSpace(r.Workshop),
			Inspector:  strings.TrimSpace(r.Inspector),
		}
		return nil
	})
}

func (c *LegacyController) SetEngineInfo(e model.EngineInfo) error {
	if e.HMCurrent < 0 {
		return fmt.Errorf("hour meter must not be negative: %d", e.HMCurrent)
	}
	return c.edit(func(d *model.LegacyChecklist) error {
		d.EngineInfo = model.EngineInfo{
			SerialNumber: strings.TrimSpace(e.SerialNumber),
			EcmNumber:    strings.TrimSpace(e.EcmNumber),
			HMCurrent:    e.HMCurrent,
		}
		return nil
	})
}

// SetItemStatus 按条目标签设置状态（不区分大小写）。
func (c *LegacyController) SetItemStatus(label string, status model.SensorStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid sensor status %q", status)
	}
	return c.edit(func(d *model.LegacyChecklist) error {
		for i := range d.Items {
			if strings.EqualFold(d.Items[i].Label, strings.TrimSpace(label)) {
				d.Items[i].Status = status
				return nil
			}
		}
		return fmt.Errorf("unknown checklist item %q", label)
	})
}

func (c *LegacyController) SetObservations(s string) error {
	return c.edit(func(d *model.LegacyChecklist) error {
		d.Observations = s
		return nil
	})
}

func validateLegacy(d model.LegacyChecklist) error {
	ve := &ValidationError{}
	if _, err := model.ParseDate(d.Date); err != nil {
		ve.add("date", "date must be YYYY-MM-DD")
	}
	if !d.ChecklistType.Valid() {
		ve.add("checklistType", "checklist type is required")
	}
	if strings.TrimSpace(d.EngineInfo.SerialNumber) == "" {
		ve.add("engineInfo.serialNumber", "serial number is required")
	}
	if d.EngineInfo.HMCurrent <= 0 {
		ve.add("engineInfo.hmCurrent", "hour meter must be greater than zero")
	}
	for _, it := range d.Items {
		if !it.Status.Valid() {
			ve.add("items", fmt.Sprintf("invalid status for %s", it.Label))
		}
	}
	return ve.orNil()
}

// Finish 与 Controller.Finish 相同的终止流程（旧版没有编辑流程）。
func (c *LegacyController) Finish(ctx context.Context) (*LegacyResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finished {
		return nil, ErrFinished
	}
	if err := validateLegacy(c.draft); err != nil {
		if ve, ok := err.(*ValidationError); ok && c.deps.Metrics != nil {
			for field := range ve.Fields {
				c.deps.Metrics.ValidationFailures.WithLabelValues(field).Inc()
			}
		}
		return nil, err
	}

	rec := c.draft.Clone()
	rec.ID = c.deps.NewID()
	if err := c.repo.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("append legacy checklist: %w", err)
	}
	c.finished = true
	c.draft = rec.Clone()
	if c.deps.Metrics != nil {
		c.deps.Metrics.ChecklistsCreated.Inc()
	}
	c.deps.Log.Infow("legacy checklist saved", "id", rec.ID, "serial", rec.EngineInfo.SerialNumber)

	res := &LegacyResult{Checklist: rec}
	note := Notification{
		Level:   LevelSuccess,
		Title:   "Checklist enregistrée",
		Message: "La checklist a été enregistrée.",
		EntryID: rec.ID,
	}
	if c.exporter != nil {
		art, err := c.exporter.ExportLegacy(ctx, rec)
		if err != nil {
			res.Warnings = append(res.Warnings, "pdf export failed: "+err.Error())
			note.Level = LevelWarning
		} else {
			res.PDFPath = art.Path
			res.PDFSHA256 = art.SHA256
			res.Warnings = append(res.Warnings, art.Warnings...)
			note.PDFPath = art.Path
		}
	}
	c.deps.Notifier.Notify(ctx, note)
	return res, nil
}

// LegacyDraft 是旧版表单的一次性输入。Items 以条目标签为键。
type LegacyDraft struct {
	Date          string             `json:"date"`
	ChecklistType string             `json:"checklistType"`
	Responsables  model.Responsables `json:"responsables"`
	EngineInfo    model.EngineInfo   `json:"engineInfo"`
	Items         map[string]string  `json:"items"`
	Observations  string             `json:"observations"`
}

// Apply 依次填写四个步骤。
func (c *LegacyController) Apply(d LegacyDraft) error {
	ve := &ValidationError{}
	note := func(field string, err error) {
		if err != nil {
			ve.add(field, err.Error())
		}
	}
	if strings.TrimSpace(d.Date) != "" {
		note("date", c.SetDate(d.Date))
	}
	if d.ChecklistType != "" {
		note("checklistType", c.SetChecklistType(model.LegacyChecklistType(strings.TrimSpace(d.ChecklistType))))
	}
	c.Next()
	note("responsables", c.SetResponsables(d.Responsables))
	c.Next()
	note("engineInfo", c.SetEngineInfo(d.EngineInfo))
	c.Next()
	for label, status := range d.Items {
		note("items."+label, c.SetItemStatus(label, model.SensorStatus(strings.TrimSpace(status))))
	}
	note("observations", c.SetObservations(d.Observations))
	return ve.orNil()
}

// SubmitLegacy 新建旧版表单、填入 LegacyDraft 并提交。
func SubmitLegacy(ctx context.Context, deps LegacyDeps, d LegacyDraft) (*LegacyResult, error) {
	c := NewLegacy(deps)
	if err := c.Apply(d); err != nil {
		return nil, err
	}
	return c.Finish(ctx)
}

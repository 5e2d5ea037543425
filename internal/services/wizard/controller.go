package wizard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"engine-inspector/internal/domain/model"
	"engine-inspector/internal/platform/id"
	"engine-inspector/internal/platform/logging"
	"engine-inspector/internal/platform/metrics"
	"engine-inspector/internal/services/inspectionpdf"

	"go.uber.org/zap"
)

// Section 是表单的步骤（从 1 开始）。
type Section int

const (
	SectionGeneral Section = iota + 1
	SectionComponents
	SectionNotes
)

var sectionTitles = map[Section]string{
	SectionGeneral:    "Informations générales",
	SectionComponents: "État des composants",
	SectionNotes:      "Observations et photos",
}

func (s Section) Title() string { return sectionTitles[s] }

// EntryRepository 是提交时写入的集合（repository.Collection[model.ChecklistEntry]）。
type EntryRepository interface {
	Append(ctx context.Context, e model.ChecklistEntry) error
	Replace(ctx context.Context, id string, e model.ChecklistEntry) error
}

// EntryExporter 在记录入库后生成 PDF。
type EntryExporter interface {
	ExportEntry(ctx context.Context, e model.ChecklistEntry) (*inspectionpdf.Artifact, error)
}

// Deps 是控制器的依赖。Exporter 为 nil 时不导出 PDF。
type Deps struct {
	Repo     EntryRepository
	Exporter EntryExporter
	Notifier Notifier
	Clock    func() time.Time
	NewID    func() string
	Log      *zap.SugaredLogger
	Metrics  *metrics.Registry
}

func (d Deps) withDefaults(idPrefix string) Deps {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.NewID == nil {
		d.NewID = func() string { return id.New(idPrefix) }
	}
	d.Log = logging.OrNop(d.Log)
	if d.Notifier == nil {
		d.Notifier = LogNotifier{Log: d.Log}
	}
	return d
}

// FinishResult 是提交成功后的结果。
type FinishResult struct {
	Entry     model.ChecklistEntry `json:"entry"`
	PDFPath   string               `json:"pdf_path,omitempty"`
	PDFSHA256 string               `json:"pdf_sha256,omitempty"`
	Warnings  []string             `json:"warnings,omitempty"`
}

// Controller 驱动当前版本的三步表单，逐步累积一份草稿。
//
// 状态只在 Finish 中产生副作用：生成 id、写入仓库、导出 PDF、发提示。
// 校验失败时停留在当前步骤，不保存任何内容。
type Controller struct {
	mu       sync.Mutex
	deps     Deps
	section  Section
	draft    model.ChecklistEntry
	editID   string
	// keepID 非空时新建记录沿用该 id（旧版记录迁移）。
	keepID   string
	finished bool
}

// New 创建空白表单：日期为今天，全部子系统预置为 bon。
func New(deps Deps) *Controller {
	deps = deps.withDefaults("chk")
	return &Controller{
		deps:    deps,
		section: SectionGeneral,
		draft: model.ChecklistEntry{
			Date:       model.FormatDate(deps.Clock()),
			Components: model.UniformComponents(model.StatusGood),
			Photos:     []string{},
		},
	}
}

// NewEdit 以已有记录为草稿；Finish 时按同一 id 整体替换。
func NewEdit(deps Deps, existing model.ChecklistEntry) *Controller {
	c := New(deps)
	c.draft = existing.Clone()
	if c.draft.Photos == nil {
		c.draft.Photos = []string{}
	}
	c.editID = existing.ID
	return c
}

// Editing 返回是否为编辑流程。
func (c *Controller) Editing() bool { return c.editID != "" }

// Section 返回当前步骤。
func (c *Controller) Section() Section {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.section
}

// Sections 返回全部步骤。
func (c *Controller) Sections() []Section {
	return []Section{SectionGeneral, SectionComponents, SectionNotes}
}

// Next 前进一步；已在最后一步时不动。
func (c *Controller) Next() Section {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.section < SectionNotes {
		c.section++
	}
	return c.section
}

// Previous 后退一步；已在第一步时不动。
func (c *Controller) Previous() Section {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.section > SectionGeneral {
		c.section--
	}
	return c.section
}

// Draft 返回草稿副本。
func (c *Controller) Draft() model.ChecklistEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Clone()
}

// ProvenanceVisible 表示“来源发动机”子字段是否显示（仅 Transfert）。
func (c *Controller) ProvenanceVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.IsTransferred(c.draft.Type)
}

// edit 在锁内修改草稿；已提交的表单拒绝修改。
func (c *Controller) edit(fn func(d *model.ChecklistEntry) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finished {
		return ErrFinished
	}
	return fn(&c.draft)
}

func (c *Controller) SetDate(s string) error {
	t, err := model.ParseDate(s)
	if err != nil {
		return err
	}
	return c.edit(func(d *model.ChecklistEntry) error {
		d.Date = model.FormatDate(t)
		return nil
	})
}

func (c *Controller) SetType(s string) error {
	return c.edit(func(d *model.ChecklistEntry) error {
		d.Type = strings.TrimSpace(s)
		return nil
	})
}

func (c *Controller) SetSerialNumber(s string) error {
	return c.edit(func(d *model.ChecklistEntry) error {
		d.SerialNumber = strings.TrimSpace(s)
		return nil
	})
}

// SetHourCounter 拒绝负数；0 允许暂存，但 Finish 会拒绝。
func (c *Controller) SetHourCounter(n int) error {
	if n < 0 {
		return fmt.Errorf("hour counter must not be negative: %d", n)
	}
	return c.edit(func(d *model.ChecklistEntry) error {
		d.HourCounter = n
		return nil
	})
}

func (c *Controller) SetProvenance(s string) error {
	return c.edit(func(d *model.ChecklistEntry) error {
		d.ProvenanceEngine = strings.TrimSpace(s)
		return nil
	})
}

// SetComponent 设置一个子系统的状态；键和状态都必须属于固定集合。
func (c *Controller) SetComponent(key model.ComponentKey, status model.ComponentStatus) error {
	return c.edit(func(d *model.ChecklistEntry) error {
		return d.Components.Set(key, status)
	})
}

func (c *Controller) SetObservations(s string) error {
	return c.edit(func(d *model.ChecklistEntry) error {
		d.Observations = s
		return nil
	})
}

// AddPhoto 追加一张照片（data URI 或 URL）。
func (c *Controller) AddPhoto(ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return fmt.Errorf("photo reference is empty")
	}
	return c.edit(func(d *model.ChecklistEntry) error {
		d.Photos = append(d.Photos, ref)
		return nil
	})
}

// RemovePhoto 按下标删除照片；越界时返回 false。
func (c *Controller) RemovePhoto(i int) (bool, error) {
	removed := false
	err := c.edit(func(d *model.ChecklistEntry) error {
		if i < 0 || i >= len(d.Photos) {
			return nil
		}
		d.Photos = append(d.Photos[:i:i], d.Photos[i+1:]...)
		removed = true
		return nil
	})
	return removed, err
}

// Validate 检查提交所需字段，不改变状态。
func (c *Controller) Validate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return validateEntry(c.draft)
}

func validateEntry(d model.ChecklistEntry) error {
	ve := &ValidationError{}
	if _, err := model.ParseDate(d.Date); err != nil {
		ve.add("date", "date must be YYYY-MM-DD")
	}
	if strings.TrimSpace(d.Type) == "" {
		ve.add("type", "revision type is required")
	}
	if strings.TrimSpace(d.SerialNumber) == "" {
		ve.add("serialNumber", "serial number is required")
	}
	if d.HourCounter <= 0 {
		ve.add("hourCounter", "hour counter must be greater than zero")
	}
	if model.IsTransferred(d.Type) && strings.TrimSpace(d.ProvenanceEngine) == "" {
		ve.add("provenanceEngine", "provenance engine is required for a transfer")
	}
	if err := d.Components.Validate(); err != nil {
		ve.add("components", err.Error())
	}
	return ve.orNil()
}

// Finish 是唯一的终止动作：校验 → 生成 id → 入库 → 导出 PDF → 提示。
//
// 校验或入库失败时表单保持可编辑，仓库不变。
// 记录入库后才会渲染；渲染失败只作为 warning 返回。
func (c *Controller) Finish(ctx context.Context) (*FinishResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finished {
		return nil, ErrFinished
	}

	if err := validateEntry(c.draft); err != nil {
		c.countValidation(err)
		return nil, err
	}

	entry := c.draft.Clone()
	if !model.IsTransferred(entry.Type) {
		// 子字段隐藏时不保存
		entry.ProvenanceEngine = ""
	}
	if entry.Photos == nil {
		entry.Photos = []string{}
	}

	if c.editID != "" {
		entry.ID = c.editID
		if err := c.deps.Repo.Replace(ctx, c.editID, entry); err != nil {
			return nil, fmt.Errorf("replace checklist: %w", err)
		}
		if c.deps.Metrics != nil {
			c.deps.Metrics.ChecklistsReplaced.Inc()
		}
	} else {
		entry.ID = c.keepID
		if entry.ID == "" {
			entry.ID = c.deps.NewID()
		}
		if err := c.deps.Repo.Append(ctx, entry); err != nil {
			return nil, fmt.Errorf("append checklist: %w", err)
		}
		if c.deps.Metrics != nil {
			c.deps.Metrics.ChecklistsCreated.Inc()
		}
	}
	c.finished = true
	c.draft = entry.Clone()
	c.deps.Log.Infow("checklist saved", "id", entry.ID, "serial", entry.SerialNumber, "edit", c.editID != "")

	res := &FinishResult{Entry: entry}
	note := Notification{
		Level:   LevelSuccess,
		Title:   "Checklist enregistrée",
		Message: "L'inspection a été enregistrée.",
		EntryID: entry.ID,
	}
	if c.deps.Exporter != nil {
		art, err := c.deps.Exporter.ExportEntry(ctx, entry)
		if err != nil {
			res.Warnings = append(res.Warnings, "pdf export failed: "+err.Error())
			note.Level = LevelWarning
			note.Message = "L'inspection a été enregistrée, mais le PDF n'a pas pu être généré."
		} else {
			res.PDFPath = art.Path
			res.PDFSHA256 = art.SHA256
			res.Warnings = append(res.Warnings, art.Warnings...)
			note.PDFPath = art.Path
			note.Message = "L'inspection a été enregistrée et le PDF a été généré."
		}
	}
	c.deps.Notifier.Notify(ctx, note)
	return res, nil
}

// Finished 返回是否已提交。
func (c *Controller) Finished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finished
}

func (c *Controller) countValidation(err error) {
	ve, ok := IsValidation(err)
	if !ok || c.deps.Metrics == nil {
		return
	}
	for field := range ve.Fields {
		c.deps.Metrics.ValidationFailures.WithLabelValues(field).Inc()
	}
}

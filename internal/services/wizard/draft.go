package wizard

import (
	"context"
	"errors"
	"strings"

	"engine-inspector/internal/domain/model"
)

// Draft 是一次性提交整张表单时的输入（HTTP API 与 CLI 使用）。
// 空字段表示“保持草稿当前值”；Components 中未出现的键也保持不变。
type Draft struct {
	Date             string            `json:"date"`
	Type             string            `json:"type"`
	SerialNumber     string            `json:"serialNumber"`
	HourCounter      *int              `json:"hourCounter"`
	ProvenanceEngine *string           `json:"provenanceEngine"`
	Components       map[string]string `json:"components"`
	Observations     *string           `json:"observations"`
	Photos           []string          `json:"photos"`
}

// Apply 按步骤顺序把 Draft 填入表单，并停在最后一步。
// 所有字段错误汇总为一个 *ValidationError。
func (c *Controller) Apply(d Draft) error {
	ve := &ValidationError{}
	note := func(field string, err error) {
		if err == nil {
			return
		}
		ve.add(field, err.Error())
	}
	if c.Finished() {
		return ErrFinished
	}

	// 1. 基本信息
	if strings.TrimSpace(d.Date) != "" {
		note("date", c.SetDate(d.Date))
	}
	if d.Type != "" {
		note("type", c.SetType(d.Type))
	}
	if d.SerialNumber != "" {
		note("serialNumber", c.SetSerialNumber(d.SerialNumber))
	}
	if d.HourCounter != nil {
		note("hourCounter", c.SetHourCounter(*d.HourCounter))
	}
	if d.ProvenanceEngine != nil {
		note("provenanceEngine", c.SetProvenance(*d.ProvenanceEngine))
	}
	c.Next()

	// 2. 部件状态
	for k, v := range d.Components {
		key, err := model.ParseComponentKey(k)
		if err != nil {
			ve.add("components."+k, err.Error())
			continue
		}
		note("components."+k, c.SetComponent(key, model.ComponentStatus(strings.TrimSpace(v))))
	}
	c.Next()

	// 3. 备注与照片
	if d.Observations != nil {
		note("observations", c.SetObservations(*d.Observations))
	}
	if d.Photos != nil {
		note("photos", c.replacePhotos(d.Photos))
	}
	return ve.orNil()
}

func (c *Controller) replacePhotos(refs []string) error {
	clean := make([]string, 0, len(refs))
	for _, r := range refs {
		if r = strings.TrimSpace(r); r != "" {
			clean = append(clean, r)
		}
	}
	return c.edit(func(d *model.ChecklistEntry) error {
		d.Photos = clean
		return nil
	})
}

// Submit 新建表单、填入 Draft 并提交。
func Submit(ctx context.Context, deps Deps, d Draft) (*FinishResult, error) {
	c := New(deps)
	if err := c.Apply(d); err != nil {
		c.countValidation(err)
		return nil, err
	}
	return c.Finish(ctx)
}

// SubmitEdit 以已有记录为草稿、覆盖 Draft 中给出的字段并提交。
func SubmitEdit(ctx context.Context, deps Deps, existing model.ChecklistEntry, d Draft) (*FinishResult, error) {
	c := NewEdit(deps, existing)
	if err := c.Apply(d); err != nil {
		c.countValidation(err)
		return nil, err
	}
	return c.Finish(ctx)
}

// IsValidation 判断 err 是否为字段校验错误。
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

package wizard

import (
	"context"
	"strings"

	"engine-inspector/internal/domain/model"
)

// SubmitMigration 把一条旧版记录迁移为当前 schema，再按新建流程提交。
//
// 两套状态词表不做自动映射：d.Components 必须给出全部子系统的状态。
// 迁移后的记录沿用旧版 id；同一条记录重复迁移返回 repository.ErrDuplicateID。
// d 中的其他非空字段覆盖迁移结果（例如把类型改为某个修订类型）。
func SubmitMigration(ctx context.Context, deps Deps, l model.LegacyChecklist, d Draft) (*FinishResult, error) {
	ve := &ValidationError{}
	comps := model.Components{}
	for _, def := range model.ComponentDefs() {
		v, ok := d.Components[string(def.Key)]
		if !ok {
			ve.add("components."+string(def.Key), "status is required when migrating a legacy checklist")
			continue
		}
		if err := comps.Set(def.Key, model.ComponentStatus(strings.TrimSpace(v))); err != nil {
			ve.add("components."+string(def.Key), err.Error())
		}
	}
	for k := range d.Components {
		if _, err := model.ParseComponentKey(k); err != nil {
			ve.add("components."+k, err.Error())
		}
	}
	if err := ve.orNil(); err != nil {
		c := New(deps)
		c.countValidation(err)
		return nil, err
	}

	entry, err := model.MigrateLegacy(l, comps)
	if err != nil {
		return nil, err
	}

	c := New(deps)
	c.draft = entry.Clone()
	c.keepID = l.ID
	rest := d
	rest.Components = nil
	if err := c.Apply(rest); err != nil {
		c.countValidation(err)
		return nil, err
	}
	res, err := c.Finish(ctx)
	if err != nil {
		return nil, err
	}
	c.deps.Log.Infow("legacy checklist migrated", "id", l.ID,
		"from_schema", model.SchemaLegacy, "to_schema", model.SchemaCurrent)
	return res, nil
}

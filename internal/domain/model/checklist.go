package model

import (
	"errors"
	"fmt"
	"strings"
)

// ComponentKey 是被检查的发动机子系统键名，集合固定。
type ComponentKey string

const (
	ComponentAdmission       ComponentKey = "admission"
	ComponentGazoil          ComponentKey = "gazoil"
	ComponentExhaust         ComponentKey = "exhaust"
	ComponentHoses           ComponentKey = "hoses"
	ComponentStructure       ComponentKey = "structure"
	ComponentChassis         ComponentKey = "chassis"
	ComponentSafetyEquipment ComponentKey = "safetyEquipment"
)

// ComponentDef 是子系统的键名与展示标签。
type ComponentDef struct {
	Key   ComponentKey `json:"key"`
	Label string       `json:"label"`
}

var componentDefs = []ComponentDef{
	{Key: ComponentAdmission, Label: "Circuit d'admission"},
	{Key: ComponentGazoil, Label: "Circuit de gazoil"},
	{Key: ComponentExhaust, Label: "Circuit d'échappement"},
	{Key: ComponentHoses, Label: "Flexibles"},
	{Key: ComponentStructure, Label: "Structure"},
	{Key: ComponentChassis, Label: "Châssis"},
	{Key: ComponentSafetyEquipment, Label: "Équipements de sécurité"},
}

// ComponentDefs 按报告顺序返回全部子系统定义（返回副本）。
func ComponentDefs() []ComponentDef {
	return append([]ComponentDef(nil), componentDefs...)
}

// Label 返回子系统标签；未知键原样返回。
func (k ComponentKey) Label() string {
	for _, d := range componentDefs {
		if d.Key == k {
			return d.Label
		}
	}
	return string(k)
}

// ParseComponentKey 校验键名是否属于固定集合。
func ParseComponentKey(s string) (ComponentKey, error) {
	k := ComponentKey(strings.TrimSpace(s))
	for _, d := range componentDefs {
		if d.Key == k {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown component: %q", s)
}

// Components 是子系统到状态的映射。
// 使用结构体而不是 map：键集合由类型保证，不会缺失也不会多出。
type Components struct {
	Admission       ComponentStatus `json:"admission"`
	Gazoil          ComponentStatus `json:"gazoil"`
	Exhaust         ComponentStatus `json:"exhaust"`
	Hoses           ComponentStatus `json:"hoses"`
	Structure       ComponentStatus `json:"structure"`
	Chassis         ComponentStatus `json:"chassis"`
	SafetyEquipment ComponentStatus `json:"safetyEquipment"`
}

// UniformComponents 返回所有子系统均为同一状态的取值，用于新草稿的初始值。
func UniformComponents(s ComponentStatus) Components {
	return Components{
		Admission:       s,
		Gazoil:          s,
		Exhaust:         s,
		Hoses:           s,
		Structure:       s,
		Chassis:         s,
		SafetyEquipment: s,
	}
}

func (c *Components) slot(k ComponentKey) *ComponentStatus {
	switch k {
	case ComponentAdmission:
		return &c.Admission
	case ComponentGazoil:
		return &c.Gazoil
	case ComponentExhaust:
		return &c.Exhaust
	case ComponentHoses:
		return &c.Hoses
	case ComponentStructure:
		return &c.Structure
	case ComponentChassis:
		return &c.Chassis
	case ComponentSafetyEquipment:
		return &c.SafetyEquipment
	}
	return nil
}

// Get 读取某个子系统的状态；未知键返回空值。
func (c Components) Get(k ComponentKey) ComponentStatus {
	if p := c.slot(k); p != nil {
		return *p
	}
	return ""
}

// Set 写入某个子系统的状态，键与取值都必须合法。
func (c *Components) Set(k ComponentKey, s ComponentStatus) error {
	p := c.slot(k)
	if p == nil {
		return fmt.Errorf("unknown component: %q", k)
	}
	if !s.Valid() {
		return fmt.Errorf("invalid status for %s: %q", k, s)
	}
	*p = s
	return nil
}

// ComponentRow 是一个子系统的报告行。
type ComponentRow struct {
	Key    ComponentKey    `json:"key"`
	Label  string          `json:"label"`
	Status ComponentStatus `json:"status"`
}

// Rows 按固定顺序展开为报告行。
func (c Components) Rows() []ComponentRow {
	rows := make([]ComponentRow, 0, len(componentDefs))
	for _, d := range componentDefs {
		rows = append(rows, ComponentRow{Key: d.Key, Label: d.Label, Status: c.Get(d.Key)})
	}
	return rows
}

// Validate 检查每个子系统都有合法状态。
func (c Components) Validate() error {
	var bad []string
	for _, r := range c.Rows() {
		if !r.Status.Valid() {
			bad = append(bad, fmt.Sprintf("%s=%q", r.Key, r.Status))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("invalid component status: %s", strings.Join(bad, ", "))
	}
	return nil
}

// Worst 返回最严重的状态（用于列表页摘要）。
func (c Components) Worst() ComponentStatus {
	worst := StatusGood
	for _, r := range c.Rows() {
		if r.Status.Severity() > worst.Severity() {
			worst = r.Status
		}
	}
	return worst
}

// ChecklistEntry 是一次发动机检查记录（当前 schema）。
// JSON 字段名即存储格式，不能随意改动。
type ChecklistEntry struct {
	ID               string     `json:"id"`
	Date             string     `json:"date"`
	Type             string     `json:"type"`
	SerialNumber     string     `json:"serialNumber"`
	HourCounter      int        `json:"hourCounter"`
	ProvenanceEngine string     `json:"provenanceEngine,omitempty"`
	Components       Components `json:"components"`
	Observations     string     `json:"observations"`
	Photos           []string   `json:"photos"`
}

// RecordID 实现 repository.Record。
func (e ChecklistEntry) RecordID() string { return e.ID }

// SearchKeys 返回历史列表检索使用的字段（序列号 + 类型）。
func (e ChecklistEntry) SearchKeys() []string {
	return []string{e.SerialNumber, e.Type}
}

// Validate 检查入库不变量：id 非空、日期合法、计时器为正、子系统状态完整。
func (e ChecklistEntry) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("checklist: id is required")
	}
	if _, err := ParseDate(e.Date); err != nil {
		return fmt.Errorf("checklist %s: %w", e.ID, err)
	}
	if e.HourCounter <= 0 {
		return fmt.Errorf("checklist %s: hourCounter must be > 0", e.ID)
	}
	if err := e.Components.Validate(); err != nil {
		return fmt.Errorf("checklist %s: %w", e.ID, err)
	}
	return nil
}

// Clone 返回深拷贝，避免调用方通过 Photos 切片修改仓库内的记录。
// Photos 为 nil 时归一为空数组，保证序列化为 []。
func (e ChecklistEntry) Clone() ChecklistEntry {
	out := e
	out.Photos = append([]string{}, e.Photos...)
	return out
}

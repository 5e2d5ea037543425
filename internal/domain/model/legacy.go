package model

import (
	"errors"
	"fmt"
	"strings"
)

// SchemaVersion 标识记录所属的表单版本。
type SchemaVersion int

const (
	// SchemaLegacy 是旧版“接收/发运”检查单（传感器/线束/启动回路）。
	SchemaLegacy SchemaVersion = 1
	// SchemaCurrent 是当前的结构部件检查单。
	SchemaCurrent SchemaVersion = 2
)

// LegacyChecklistType 是旧版检查单类型。
type LegacyChecklistType string

const (
	LegacyReception  LegacyChecklistType = "reception"
	LegacyExpedition LegacyChecklistType = "expedition"
)

// Label 返回类型的展示名。
func (t LegacyChecklistType) Label() string {
	switch t {
	case LegacyReception:
		return "Réception"
	case LegacyExpedition:
		return "Expédition"
	}
	return string(t)
}

func (t LegacyChecklistType) Valid() bool {
	return t == LegacyReception || t == LegacyExpedition
}

// Responsables 是旧版表单第二步录入的责任人。
type Responsables struct {
	Electrical string `json:"electrical"`
	Workshop   string `json:"workshop"`
	Inspector  string `json:"inspector"`
}

// EngineInfo 是旧版表单第三步录入的发动机信息。
type EngineInfo struct {
	SerialNumber string `json:"serialNumber"`
	EcmNumber    string `json:"ecmNumber"`
	HMCurrent    int    `json:"hmCurrent"`
}

// LegacyItem 是旧版检查单中的一行（某个传感器/线束/启动回路部件）。
type LegacyItem struct {
	Group  string       `json:"group"`
	Label  string       `json:"label"`
	Status SensorStatus `json:"status"`
}

// LegacyChecklist 是旧版 schema 的检查记录，单独存放，不与 ChecklistEntry 混用。
type LegacyChecklist struct {
	ID            string              `json:"id"`
	Date          string              `json:"date"`
	ChecklistType LegacyChecklistType `json:"checklistType"`
	Responsables  Responsables        `json:"responsables"`
	EngineInfo    EngineInfo          `json:"engineInfo"`
	Items         []LegacyItem        `json:"items"`
	Observations  string              `json:"observations"`
}

// 旧版检查单的分组名。
const (
	LegacyGroupSensors  = "Capteurs"
	LegacyGroupWiring   = "Faisceaux"
	LegacyGroupStarting = "Circuit de démarrage"
)

// DefaultLegacyItems 返回旧版检查单的固定条目，状态初始化为 bon。
func DefaultLegacyItems() []LegacyItem {
	labels := []struct{ group, label string }{
		{LegacyGroupSensors, "Capteur de pression d'huile"},
		{LegacyGroupSensors, "Capteur de température liquide"},
		{LegacyGroupSensors, "Capteur de régime"},
		{LegacyGroupSensors, "Capteur de pression de suralimentation"},
		{LegacyGroupSensors, "Capteur de pression carburant"},
		{LegacyGroupWiring, "Faisceau moteur"},
		{LegacyGroupWiring, "Faisceau ECM"},
		{LegacyGroupWiring, "Connecteurs"},
		{LegacyGroupStarting, "Démarreur"},
		{LegacyGroupStarting, "Alternateur"},
		{LegacyGroupStarting, "Batteries"},
		{LegacyGroupStarting, "Relais de démarrage"},
	}
	items := make([]LegacyItem, 0, len(labels))
	for _, l := range labels {
		items = append(items, LegacyItem{Group: l.group, Label: l.label, Status: SensorGood})
	}
	return items
}

func (l LegacyChecklist) RecordID() string { return l.ID }

func (l LegacyChecklist) SearchKeys() []string {
	return []string{l.EngineInfo.SerialNumber, l.ChecklistType.Label()}
}

// Validate 检查旧版记录的入库不变量。
func (l LegacyChecklist) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return errors.New("legacy checklist: id is required")
	}
	if _, err := ParseDate(l.Date); err != nil {
		return fmt.Errorf("legacy checklist %s: %w", l.ID, err)
	}
	if !l.ChecklistType.Valid() {
		return fmt.Errorf("legacy checklist %s: invalid checklistType %q", l.ID, l.ChecklistType)
	}
	if l.EngineInfo.HMCurrent <= 0 {
		return fmt.Errorf("legacy checklist %s: hmCurrent must be > 0", l.ID)
	}
	for _, it := range l.Items {
		if !it.Status.Valid() {
			return fmt.Errorf("legacy checklist %s: invalid status for %s: %q", l.ID, it.Label, it.Status)
		}
	}
	return nil
}

func (l LegacyChecklist) Clone() LegacyChecklist {
	out := l
	out.Items = append([]LegacyItem{}, l.Items...)
	return out
}

// MigrateLegacy 把旧版记录迁移为当前 schema。
//
// 两套状态词表没有可靠的对应关系，所以部件状态必须由调用方给出；
// 旧版条目以文本形式追加到 observations，原始信息不丢失。
func MigrateLegacy(l LegacyChecklist, components Components) (ChecklistEntry, error) {
	if err := components.Validate(); err != nil {
		return ChecklistEntry{}, fmt.Errorf("migrate %s: %w", l.ID, err)
	}

	var notes []string
	if s := strings.TrimSpace(l.Observations); s != "" {
		notes = append(notes, s)
	}
	if len(l.Items) > 0 {
		lines := make([]string, 0, len(l.Items))
		for _, it := range l.Items {
			lines = append(lines, fmt.Sprintf("- [%s] %s: %s", it.Group, it.Label, it.Status))
		}
		notes = append(notes, "Checklist d'origine ("+l.ChecklistType.Label()+"):\n"+strings.Join(lines, "\n"))
	}
	r := l.Responsables
	if r.Electrical != "" || r.Workshop != "" || r.Inspector != "" {
		notes = append(notes, fmt.Sprintf("Responsables: électrique=%s, atelier=%s, inspecteur=%s", r.Electrical, r.Workshop, r.Inspector))
	}
	if ecm := strings.TrimSpace(l.EngineInfo.EcmNumber); ecm != "" {
		notes = append(notes, "ECM: "+ecm)
	}

	e := ChecklistEntry{
		ID:           l.ID,
		Date:         l.Date,
		Type:         l.ChecklistType.Label(),
		SerialNumber: l.EngineInfo.SerialNumber,
		HourCounter:  l.EngineInfo.HMCurrent,
		Components:   components,
		Observations: strings.Join(notes, "\n\n"),
		Photos:       []string{},
	}
	if err := e.Validate(); err != nil {
		return ChecklistEntry{}, fmt.Errorf("migrate %s: %w", l.ID, err)
	}
	return e, nil
}

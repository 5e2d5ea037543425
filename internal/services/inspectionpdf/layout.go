package inspectionpdf

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"engine-inspector/internal/domain/model"
)

// 报告的声明式描述：BuildLayout 只决定“画什么”，分页交给 Paginate，
// 样式与坐标交给 Render。

// SectionKind 是版块类型。
type SectionKind int

const (
	// SectionFields 是“标签: 值”列表。
	SectionFields SectionKind = iota + 1
	// SectionStatusTable 是每行一个子系统的状态表。
	SectionStatusTable
	// SectionParagraph 是自由文本（带底色框）。
	SectionParagraph
	// SectionImageGrid 是照片网格。
	SectionImageGrid
)

// Field 是一行“标签: 值”。
type Field struct {
	Label string
	Value string
}

// StatusRow 是状态表中的一行，外观来自状态词表，不在这里重新计算。
type StatusRow struct {
	Label      string
	Value      string
	Appearance model.Appearance
}

// Section 是报告中的一个版块；按 Kind 只使用对应字段。
type Section struct {
	Kind    SectionKind
	Title   string
	Columns [2]string
	Fields  []Field
	Rows    []StatusRow
	Text    string
	Images  []string
}

// Layout 是一份报告的完整描述。
type Layout struct {
	Title    string
	Subtitle string
	// Created 写入 PDF 元数据；由记录日期推出，保证同一记录输出一致。
	Created  time.Time
	Sections []Section
}

const (
	reportTitle       = "Rapport d'Inspection d'Engin"
	sectionGeneral    = "Informations Générales"
	sectionComponents = "État des Composants"
	sectionObs        = "Observations"
	sectionPhotos     = "Photos"
)

// BuildLayout 描述当前 schema 记录的报告。
// observations 为空白、photos 为空时不生成对应版块。
func BuildLayout(e model.ChecklistEntry) Layout {
	fields := []Field{
		{Label: "Type de révision", Value: e.Type},
		{Label: "Numéro de série", Value: e.SerialNumber},
		{Label: "Compteur horaire", Value: strconv.Itoa(e.HourCounter) + " heures"},
	}
	if p := strings.TrimSpace(e.ProvenanceEngine); p != "" {
		fields = append(fields, Field{Label: "Moteur de provenance", Value: p})
	}

	rows := make([]StatusRow, 0, len(model.ComponentDefs()))
	for _, r := range e.Components.Rows() {
		rows = append(rows, StatusRow{
			Label:      r.Label,
			Value:      string(r.Status),
			Appearance: r.Status.Appearance(),
		})
	}

	l := Layout{
		Title:    reportTitle,
		Subtitle: "Date: " + model.FormatDateFR(e.Date),
		Created:  createdAt(e.Date),
		Sections: []Section{
			{Kind: SectionFields, Title: sectionGeneral, Fields: fields},
			{Kind: SectionStatusTable, Title: sectionComponents, Columns: [2]string{"Composant", "État"}, Rows: rows},
		},
	}
	if obs := strings.TrimSpace(e.Observations); obs != "" {
		l.Sections = append(l.Sections, Section{Kind: SectionParagraph, Title: sectionObs, Text: obs})
	}
	if len(e.Photos) > 0 {
		l.Sections = append(l.Sections, Section{
			Kind:   SectionImageGrid,
			Title:  fmt.Sprintf("%s (%d photo(s))", sectionPhotos, len(e.Photos)),
			Images: append([]string{}, e.Photos...),
		})
	}
	return l
}

// BuildLegacyLayout 描述旧版（接收/发运）检查单的报告，每个分组一张状态表。
func BuildLegacyLayout(c model.LegacyChecklist) Layout {
	r := c.Responsables
	general := []Field{
		{Label: "Type de checklist", Value: c.ChecklistType.Label()},
		{Label: "Responsable électrique", Value: r.Electrical},
		{Label: "Responsable atelier", Value: r.Workshop},
		{Label: "Inspecteur", Value: r.Inspector},
	}
	engine := []Field{
		{Label: "Numéro de série", Value: c.EngineInfo.SerialNumber},
		{Label: "Numéro ECM", Value: c.EngineInfo.EcmNumber},
		{Label: "Compteur horaire", Value: strconv.Itoa(c.EngineInfo.HMCurrent) + " heures"},
	}

	l := Layout{
		Title:    "Checklist " + c.ChecklistType.Label(),
		Subtitle: "Date: " + model.FormatDateFR(c.Date),
		Created:  createdAt(c.Date),
		Sections: []Section{
			{Kind: SectionFields, Title: sectionGeneral, Fields: general},
			{Kind: SectionFields, Title: "Moteur", Fields: engine},
		},
	}

	// 分组按首次出现的顺序输出
	var groups []string
	byGroup := map[string][]StatusRow{}
	for _, it := range c.Items {
		if _, ok := byGroup[it.Group]; !ok {
			groups = append(groups, it.Group)
		}
		byGroup[it.Group] = append(byGroup[it.Group], StatusRow{
			Label:      it.Label,
			Value:      string(it.Status),
			Appearance: it.Status.Appearance(),
		})
	}
	for _, g := range groups {
		title := g
		if strings.TrimSpace(title) == "" {
			title = "Autres"
		}
		l.Sections = append(l.Sections, Section{
			Kind:    SectionStatusTable,
			Title:   title,
			Columns: [2]string{"Élément", "État"},
			Rows:    byGroup[g],
		})
	}
	if obs := strings.TrimSpace(c.Observations); obs != "" {
		l.Sections = append(l.Sections, Section{Kind: SectionParagraph, Title: sectionObs, Text: obs})
	}
	return l
}

// createdAt 把记录日期换成固定的元数据时间；无法解析时用 Unix 零点。
func createdAt(date string) time.Time {
	t, err := model.ParseDate(date)
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	return t
}

package model

// RGB 是报告/终端统一使用的颜色三元组。
type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Appearance 描述一个状态值的固定展示语义（标签、颜色、图标）。
//
// 列表页、CLI 与 PDF 导出都从这里取值，同一状态在全系统只有一种外观。
type Appearance struct {
	Label      string `json:"label"`
	Color      RGB    `json:"color"`
	Glyph      string `json:"glyph"`
	ASCIIGlyph string `json:"ascii_glyph"`
}

// UnknownAppearance 用于词表之外的状态值：导出不失败，只显示为灰色。
var UnknownAppearance = Appearance{
	Label:      "inconnu",
	Color:      RGB{142, 145, 150},
	Glyph:      "?",
	ASCIIGlyph: "?",
}

// ComponentStatus 表示结构部件的检查结论（当前版本表单）。
type ComponentStatus string

const (
	// StatusGood 表示良好。
	StatusGood ComponentStatus = "bon"
	// StatusFair 表示一般，需要关注。
	StatusFair ComponentStatus = "moyen"
	// StatusBad 表示差，需要处理。
	StatusBad ComponentStatus = "mauvais"
)

var componentAppearances = map[ComponentStatus]Appearance{
	StatusGood: {Label: "bon", Color: RGB{39, 174, 96}, Glyph: "✓", ASCIIGlyph: "OK"},
	StatusFair: {Label: "moyen", Color: RGB{241, 196, 15}, Glyph: "⚠", ASCIIGlyph: "!"},
	StatusBad:  {Label: "mauvais", Color: RGB{231, 76, 60}, Glyph: "✕", ASCIIGlyph: "X"},
}

// ComponentStatuses 按严重程度从低到高返回全部取值。
func ComponentStatuses() []ComponentStatus {
	return []ComponentStatus{StatusGood, StatusFair, StatusBad}
}

// Valid 判断取值是否属于封闭词表。
func (s ComponentStatus) Valid() bool {
	_, ok := componentAppearances[s]
	return ok
}

// Severity 返回严重程度：bon=0, moyen=1, mauvais=2；未知值返回 -1。
func (s ComponentStatus) Severity() int {
	for i, v := range ComponentStatuses() {
		if v == s {
			return i
		}
	}
	return -1
}

// Appearance 返回固定外观；未知值回退为 UnknownAppearance。
func (s ComponentStatus) Appearance() Appearance {
	if a, ok := componentAppearances[s]; ok {
		return a
	}
	return UnknownAppearance
}

// SensorStatus 是旧版（传感器/线束/启动回路）表单使用的四值词表。
// 与 ComponentStatus 相互独立，不做任何映射。
type SensorStatus string

const (
	SensorNew     SensorStatus = "neuf"
	SensorGood    SensorStatus = "bon"
	SensorBad     SensorStatus = "mauvais"
	SensorMissing SensorStatus = "manquant"
)

var sensorAppearances = map[SensorStatus]Appearance{
	SensorNew:     {Label: "neuf", Color: RGB{41, 128, 185}, Glyph: "★", ASCIIGlyph: "N"},
	SensorGood:    {Label: "bon", Color: RGB{39, 174, 96}, Glyph: "✓", ASCIIGlyph: "OK"},
	SensorBad:     {Label: "mauvais", Color: RGB{231, 76, 60}, Glyph: "✕", ASCIIGlyph: "X"},
	SensorMissing: {Label: "manquant", Color: RGB{127, 140, 141}, Glyph: "∅", ASCIIGlyph: "-"},
}

// SensorStatuses 返回旧版词表的全部取值。
func SensorStatuses() []SensorStatus {
	return []SensorStatus{SensorNew, SensorGood, SensorBad, SensorMissing}
}

func (s SensorStatus) Valid() bool {
	_, ok := sensorAppearances[s]
	return ok
}

func (s SensorStatus) Appearance() Appearance {
	if a, ok := sensorAppearances[s]; ok {
		return a
	}
	return UnknownAppearance
}

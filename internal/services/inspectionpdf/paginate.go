package inspectionpdf

import (
	"strings"
)

// PageGeometry 是页面尺寸与各类块的固定高度（单位 mm）。
type PageGeometry struct {
	Width        float64
	Height       float64
	MarginTop    float64
	MarginBottom float64
	MarginLeft   float64
	MarginRight  float64

	HeaderBand   float64
	SectionTitle float64
	FieldRow     float64
	TableHeader  float64
	StatusRow    float64
	TextLine     float64
	ImageRow     float64
	SectionGap   float64

	ImagesPerRow int
	ImageWidth   float64
	ImageHeight  float64
}

// A4 返回报告使用的页面几何。
func A4() PageGeometry {
	return PageGeometry{
		Width:        210,
		Height:       297,
		MarginTop:    20,
		MarginBottom: 20,
		MarginLeft:   20,
		MarginRight:  20,

		HeaderBand:   30,
		SectionTitle: 12,
		FieldRow:     8,
		TableHeader:  9,
		StatusRow:    10,
		TextLine:     6,
		ImageRow:     40,
		SectionGap:   6,

		ImagesPerRow: 3,
		ImageWidth:   50,
		ImageHeight:  35,
	}
}

// ContentWidth 返回左右边距之间的宽度。
func (g PageGeometry) ContentWidth() float64 {
	return g.Width - g.MarginLeft - g.MarginRight
}

// usable 返回正文区的下边界。
func (g PageGeometry) usable() float64 {
	return g.Height - g.MarginBottom
}

// BlockKind 是分页后的最小不可分割单元。
type BlockKind int

const (
	BlockHeaderBand BlockKind = iota + 1
	BlockSectionTitle
	BlockField
	BlockTableHeader
	BlockStatusRow
	BlockTextLine
	BlockImageRow
)

// Block 是放到某页某个纵坐标上的一个块。
// Index 指向所属版块内的行（字段/状态行/文本行/照片行）。
type Block struct {
	Kind    BlockKind
	Section int
	Index   int
	Y       float64
	Height  float64
	Text    string
}

// Page 是一页上的块，按从上到下排列。
type Page struct {
	Blocks []Block
}

// TextMeasure 返回一段文本在段落字体下的宽度。
type TextMeasure func(s string) float64

// Paginate 把 Layout 排到若干页上，不做任何绘制。
//
// 规则：
// - 纵向游标超过正文下边界时换页，游标回到上边距
// - 每个块是原子的，不会跨页
// - 版块标题与它的第一行放在同一页
// - 状态表跨页时在新页重复表头
func Paginate(l Layout, g PageGeometry, measure TextMeasure) []Page {
	p := &planner{g: g}
	p.newPage()
	p.place(Block{Kind: BlockHeaderBand, Section: -1, Height: g.HeaderBand})

	for si, s := range l.Sections {
		children := p.children(si, s, measure)
		if len(children) == 0 {
			continue
		}

		title := Block{Kind: BlockSectionTitle, Section: si, Height: g.SectionTitle, Text: s.Title}
		first := children[0].Height
		if s.Kind == SectionStatusTable && len(children) > 1 {
			// 表头 + 第一行数据
			first += children[1].Height
		}
		if !p.fits(title.Height+first) && !p.atTop() {
			p.newPage()
		}
		p.place(title)

		for _, b := range children {
			if !p.fits(b.Height) && !p.atTop() {
				p.newPage()
				if b.Kind == BlockStatusRow {
					p.place(Block{Kind: BlockTableHeader, Section: si, Height: g.TableHeader})
				}
			}
			p.place(b)
		}
		p.y += g.SectionGap
	}
	return p.pages
}

type planner struct {
	g     PageGeometry
	pages []Page
	y     float64
}

func (p *planner) newPage() {
	p.pages = append(p.pages, Page{})
	p.y = p.g.MarginTop
}

func (p *planner) atTop() bool {
	return p.y <= p.g.MarginTop
}

func (p *planner) fits(h float64) bool {
	return p.y+h <= p.g.usable()
}

func (p *planner) place(b Block) {
	b.Y = p.y
	cur := &p.pages[len(p.pages)-1]
	cur.Blocks = append(cur.Blocks, b)
	p.y += b.Height
}

// children 把版块展开成原子块（不含标题）。
func (p *planner) children(si int, s Section, measure TextMeasure) []Block {
	g := p.g
	var out []Block
	switch s.Kind {
	case SectionFields:
		for i := range s.Fields {
			out = append(out, Block{Kind: BlockField, Section: si, Index: i, Height: g.FieldRow})
		}
	case SectionStatusTable:
		if len(s.Rows) == 0 {
			return nil
		}
		out = append(out, Block{Kind: BlockTableHeader, Section: si, Height: g.TableHeader})
		for i := range s.Rows {
			out = append(out, Block{Kind: BlockStatusRow, Section: si, Index: i, Height: g.StatusRow})
		}
	case SectionParagraph:
		// 段落框左右各留 5mm 内边距
		for i, line := range WrapText(s.Text, g.ContentWidth()-10, measure) {
			out = append(out, Block{Kind: BlockTextLine, Section: si, Index: i, Height: g.TextLine, Text: line})
		}
	case SectionImageGrid:
		per := g.ImagesPerRow
		if per <= 0 {
			per = 1
		}
		rows := (len(s.Images) + per - 1) / per
		for i := 0; i < rows; i++ {
			out = append(out, Block{Kind: BlockImageRow, Section: si, Index: i, Height: g.ImageRow})
		}
	}
	return out
}

// WrapText 按宽度折行；保留原文中的换行，单个超宽单词独占一行。
func WrapText(text string, width float64, measure TextMeasure) []string {
	var out []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			candidate := line + " " + w
			if measure(candidate) <= width {
				line = candidate
				continue
			}
			out = append(out, line)
			line = w
		}
		out = append(out, line)
	}
	// 去掉首尾空行
	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

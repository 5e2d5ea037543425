package inspectionpdf

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"engine-inspector/internal/domain/model"

	"github.com/phpdave11/gofpdf"
)

// 报告配色
var (
	colorIndigo    = model.RGB{R: 88, G: 86, B: 214}
	colorPurple    = model.RGB{R: 126, G: 87, B: 194}
	colorText      = model.RGB{R: 33, G: 37, B: 41}
	colorMuted     = model.RGB{R: 108, G: 117, B: 125}
	colorRule      = model.RGB{R: 222, G: 226, B: 230}
	colorTableHead = model.RGB{R: 246, G: 246, B: 246}
	colorTableAlt  = model.RGB{R: 250, G: 250, B: 250}
	colorNoteFill  = model.RGB{R: 248, G: 249, B: 250}
	colorPhotoBox  = model.RGB{R: 240, G: 240, B: 240}
)

// Renderer 把 Layout 画成 PDF。
type Renderer struct {
	Geometry PageGeometry
	// FontPath 是可选的 UTF-8 TrueType 字体；为空时使用 Helvetica + cp1252。
	FontPath string
}

// Rendered 是一次渲染的结果。
type Rendered struct {
	Data     []byte
	Pages    int
	Warnings []string
}

// NewRenderer 使用 A4 几何创建 Renderer。
func NewRenderer(fontPath string) Renderer {
	return Renderer{Geometry: A4(), FontPath: strings.TrimSpace(fontPath)}
}

// fontSet 描述当前可用字体以及文本转换方式。
type fontSet struct {
	family string
	utf8   bool
	tr     func(string) string
}

func (f fontSet) text(s string) string {
	if f.utf8 {
		return s
	}
	return f.tr(s)
}

func (f fontSet) glyph(a model.Appearance) string {
	if f.utf8 {
		return a.Glyph
	}
	return a.ASCIIGlyph
}

// Render 输出 PDF 字节。
//
// 创建/修改时间取自 Layout.Created，目录对象排序固定，
// 使用内置字体时同一 Layout 的输出逐字节一致。
// 渲染不会因为单张照片或未知状态而失败，问题写入 Warnings。
func (r Renderer) Render(l Layout) (*Rendered, error) {
	g := r.Geometry
	if g.Width == 0 {
		g = A4()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(g.MarginLeft, g.MarginTop, g.MarginRight)
	pdf.SetAutoPageBreak(false, g.MarginBottom)
	pdf.SetCreationDate(l.Created)
	pdf.SetModificationDate(l.Created)
	pdf.SetCatalogSort(true)
	pdf.SetCreator("engine-inspector", false)

	var warnings []string
	fonts, err := r.initFont(pdf)
	if err != nil {
		warnings = append(warnings, err.Error())
	}
	pdf.SetTitle(l.Title, true)

	pdf.SetFont(fonts.family, "", 10)
	measure := func(s string) float64 { return pdf.GetStringWidth(fonts.text(s)) }
	pages := Paginate(l, g, measure)

	d := &drawer{pdf: pdf, g: g, fonts: fonts, layout: l}
	for pi, page := range pages {
		pdf.AddPage()
		for _, b := range page.Blocks {
			d.block(b)
		}
		d.footer(pi+1, len(pages))
	}
	warnings = append(warnings, d.warnings...)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return &Rendered{Data: buf.Bytes(), Pages: len(pages), Warnings: warnings}, nil
}

// initFont 加载配置的 UTF-8 字体；未配置或加载失败时回退到 Helvetica。
// 即使只有一个字体文件，也同时注册 B 样式，避免 SetFont(...,"B",...) 报错。
func (r Renderer) initFont(pdf *gofpdf.Fpdf) (fontSet, error) {
	core := func() fontSet {
		return fontSet{family: "Helvetica", tr: pdf.UnicodeTranslatorFromDescriptor("")}
	}
	if r.FontPath == "" {
		return core(), nil
	}
	if _, err := os.Stat(r.FontPath); err != nil {
		return core(), fmt.Errorf("pdf font %s not available; falling back to Helvetica", r.FontPath)
	}

	const family = "unicode"
	pdf.AddUTF8Font(family, "", r.FontPath)
	if pdf.Err() {
		pdf.ClearError()
		return core(), fmt.Errorf("pdf font %s could not be loaded; falling back to Helvetica", r.FontPath)
	}
	pdf.AddUTF8Font(family, "B", r.FontPath)
	if pdf.Err() {
		pdf.ClearError()
	}
	return fontSet{family: family, utf8: true}, nil
}

type drawer struct {
	pdf      *gofpdf.Fpdf
	g        PageGeometry
	fonts    fontSet
	layout   Layout
	warnings []string
}

func (d *drawer) fill(c model.RGB)  { d.pdf.SetFillColor(c.R, c.G, c.B) }
func (d *drawer) color(c model.RGB) { d.pdf.SetTextColor(c.R, c.G, c.B) }

func (d *drawer) block(b Block) {
	switch b.Kind {
	case BlockHeaderBand:
		d.header(b)
	case BlockSectionTitle:
		d.sectionTitle(b)
	case BlockField:
		d.field(b)
	case BlockTableHeader:
		d.tableHeader(b)
	case BlockStatusRow:
		d.statusRow(b)
	case BlockTextLine:
		d.textLine(b)
	case BlockImageRow:
		d.imageRow(b)
	}
}

func (d *drawer) header(b Block) {
	pdf, g := d.pdf, d.g
	bottom := b.Y + b.Height - 5
	d.fill(colorIndigo)
	pdf.Rect(0, 0, g.Width, bottom, "F")
	d.fill(colorPurple)
	pdf.Rect(0, bottom-3, g.Width, 3, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont(d.fonts.family, "B", 20)
	pdf.SetXY(g.MarginLeft, b.Y-6)
	pdf.CellFormat(g.ContentWidth(), 10, d.fonts.text(d.layout.Title), "", 0, "C", false, 0, "")
	pdf.SetFont(d.fonts.family, "", 11)
	pdf.SetXY(g.MarginLeft, b.Y+7)
	pdf.CellFormat(g.ContentWidth(), 6, d.fonts.text(d.layout.Subtitle), "", 0, "C", false, 0, "")
}

func (d *drawer) sectionTitle(b Block) {
	pdf, g := d.pdf, d.g
	pdf.SetFont(d.fonts.family, "B", 14)
	d.color(colorIndigo)
	pdf.SetXY(g.MarginLeft, b.Y+1)
	pdf.CellFormat(g.ContentWidth(), 8, d.fonts.text(b.Text), "", 0, "L", false, 0, "")
	pdf.SetDrawColor(colorRule.R, colorRule.G, colorRule.B)
	pdf.SetLineWidth(0.3)
	pdf.Line(g.MarginLeft, b.Y+10, g.Width-g.MarginRight, b.Y+10)
}

func (d *drawer) field(b Block) {
	pdf, g := d.pdf, d.g
	f := d.layout.Sections[b.Section].Fields[b.Index]
	value := f.Value
	if strings.TrimSpace(value) == "" {
		value = "-"
	}
	pdf.SetXY(g.MarginLeft, b.Y)
	pdf.SetFont(d.fonts.family, "B", 10)
	d.color(colorMuted)
	pdf.CellFormat(55, b.Height, d.fonts.text(f.Label+":"), "", 0, "L", false, 0, "")
	pdf.SetFont(d.fonts.family, "", 10)
	d.color(colorText)
	pdf.CellFormat(g.ContentWidth()-55, b.Height, d.fonts.text(value), "", 0, "L", false, 0, "")
}

// statusColumn 返回状态列的左边界与宽度。
func (d *drawer) statusColumn() (float64, float64) {
	g := d.g
	return g.Width - g.MarginRight - 50, 50
}

func (d *drawer) tableHeader(b Block) {
	pdf, g := d.pdf, d.g
	cols := d.layout.Sections[b.Section].Columns
	d.fill(colorTableHead)
	pdf.Rect(g.MarginLeft, b.Y, g.ContentWidth(), b.Height, "F")
	pdf.SetFont(d.fonts.family, "B", 10)
	d.color(colorText)
	pdf.SetXY(g.MarginLeft+3, b.Y)
	pdf.CellFormat(g.ContentWidth()-56, b.Height, d.fonts.text(cols[0]), "", 0, "L", false, 0, "")
	x, w := d.statusColumn()
	pdf.SetXY(x, b.Y)
	pdf.CellFormat(w, b.Height, d.fonts.text(cols[1]), "", 0, "C", false, 0, "")
}

func (d *drawer) statusRow(b Block) {
	pdf, g := d.pdf, d.g
	row := d.layout.Sections[b.Section].Rows[b.Index]
	if b.Index%2 == 1 {
		d.fill(colorTableAlt)
		pdf.Rect(g.MarginLeft, b.Y, g.ContentWidth(), b.Height, "F")
	}

	pdf.SetFont(d.fonts.family, "", 10)
	d.color(colorText)
	pdf.SetXY(g.MarginLeft+3, b.Y)
	pdf.CellFormat(g.ContentWidth()-56, b.Height, d.fonts.text(row.Label), "", 0, "L", false, 0, "")

	// 状态徽章：颜色与图标来自词表
	a := row.Appearance
	x, w := d.statusColumn()
	bx, bw, bh := x+5, w-10, 7.0
	by := b.Y + (b.Height-bh)/2
	d.fill(a.Color)
	pdf.RoundedRect(bx, by, bw, bh, 2, "1234", "F")
	pdf.SetFont(d.fonts.family, "B", 9)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetXY(bx, by)
	label := strings.TrimSpace(d.fonts.glyph(a) + " " + row.Value)
	pdf.CellFormat(bw, bh, d.fonts.text(label), "", 0, "C", false, 0, "")
}

func (d *drawer) textLine(b Block) {
	pdf, g := d.pdf, d.g
	d.fill(colorNoteFill)
	pdf.Rect(g.MarginLeft, b.Y, g.ContentWidth(), b.Height, "F")
	pdf.SetFont(d.fonts.family, "", 10)
	d.color(colorText)
	pdf.SetXY(g.MarginLeft+5, b.Y)
	pdf.CellFormat(g.ContentWidth()-10, b.Height, d.fonts.text(b.Text), "", 0, "L", false, 0, "")
}

func (d *drawer) imageRow(b Block) {
	pdf, g := d.pdf, d.g
	images := d.layout.Sections[b.Section].Images
	per := g.ImagesPerRow
	if per <= 0 {
		per = 1
	}
	gap := 0.0
	if per > 1 {
		gap = (g.ContentWidth() - float64(per)*g.ImageWidth) / float64(per-1)
	}

	for j := 0; j < per; j++ {
		i := b.Index*per + j
		if i >= len(images) {
			break
		}
		x := g.MarginLeft + float64(j)*(g.ImageWidth+gap)
		if name, ok := d.registerPhoto(i, images[i]); ok {
			pdf.ImageOptions(name, x, b.Y, g.ImageWidth, g.ImageHeight, false, gofpdf.ImageOptions{}, 0, "")
			continue
		}
		d.placeholder(i, x, b.Y)
	}
}

// registerPhoto 只嵌入 data URI；其他引用（URL）不下载，画占位框。
func (d *drawer) registerPhoto(i int, ref string) (string, bool) {
	mime, data, ok := DecodeDataURI(ref)
	if !ok {
		if strings.HasPrefix(strings.TrimSpace(ref), "data:") {
			d.warnings = append(d.warnings, fmt.Sprintf("photo %d: malformed data URI", i+1))
		}
		return "", false
	}
	var tp string
	switch mime {
	case "image/png":
		tp = "PNG"
	case "image/jpeg", "image/jpg":
		tp = "JPG"
	case "image/gif":
		tp = "GIF"
	default:
		d.warnings = append(d.warnings, fmt.Sprintf("photo %d: unsupported image type %s", i+1, mime))
		return "", false
	}

	name := fmt.Sprintf("photo-%d", i+1)
	d.pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: tp}, bytes.NewReader(data))
	if d.pdf.Err() {
		d.warnings = append(d.warnings, fmt.Sprintf("photo %d: %v", i+1, d.pdf.Error()))
		d.pdf.ClearError()
		return "", false
	}
	return name, true
}

func (d *drawer) placeholder(i int, x, y float64) {
	pdf, g := d.pdf, d.g
	d.fill(colorPhotoBox)
	pdf.SetDrawColor(colorRule.R, colorRule.G, colorRule.B)
	pdf.Rect(x, y, g.ImageWidth, g.ImageHeight, "FD")
	pdf.SetFont(d.fonts.family, "", 9)
	d.color(colorMuted)
	pdf.SetXY(x, y)
	pdf.CellFormat(g.ImageWidth, g.ImageHeight, d.fonts.text(fmt.Sprintf("Photo %d", i+1)), "", 0, "CM", false, 0, "")
}

func (d *drawer) footer(page, total int) {
	pdf, g := d.pdf, d.g
	pdf.SetFont(d.fonts.family, "", 8)
	d.color(colorMuted)
	pdf.SetXY(g.MarginLeft, g.Height-g.MarginBottom+6)
	pdf.CellFormat(g.ContentWidth(), 5, d.fonts.text(fmt.Sprintf("Page %d / %d", page, total)), "", 0, "C", false, 0, "")
}

// DecodeDataURI 解析 data:<mime>;base64,<payload>。
func DecodeDataURI(ref string) (mime string, data []byte, ok bool) {
	ref = strings.TrimSpace(ref)
	rest, found := strings.CutPrefix(ref, "data:")
	if !found {
		return "", nil, false
	}
	meta, payload, found := strings.Cut(rest, ",")
	if !found {
		return "", nil, false
	}
	mime, enc, _ := strings.Cut(meta, ";")
	if enc != "base64" {
		return "", nil, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return "", nil, false
	}
	return strings.ToLower(mime), data, true
}

package inspectionpdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"engine-inspector/internal/domain/model"
	"engine-inspector/internal/platform/hash"
	"engine-inspector/internal/platform/logging"
	"engine-inspector/internal/platform/metrics"

	"go.uber.org/zap"
)

// 文件名前缀
const (
	PrefixCurrent = "inspection"
	PrefixLegacy  = "checklist"
)

// Artifact 是落盘后的 PDF。
type Artifact struct {
	Path     string   `json:"path"`
	SHA256   string   `json:"sha256"`
	Pages    int      `json:"pages"`
	Warnings []string `json:"warnings,omitempty"`
}

// Exporter 渲染记录并写入导出目录。
type Exporter struct {
	Dir      string
	Renderer Renderer
	Log      *zap.SugaredLogger
	Metrics  *metrics.Registry
}

// NewExporter 创建导出器；fontPath 可为空。
func NewExporter(dir, fontPath string, log *zap.SugaredLogger, m *metrics.Registry) *Exporter {
	return &Exporter{
		Dir:      dir,
		Renderer: NewRenderer(fontPath),
		Log:      logging.OrNop(log),
		Metrics:  m,
	}
}

// Filename 返回当前 schema 记录的文件名：inspection_<serial>_<dd-MM-yyyy>.pdf。
func Filename(e model.ChecklistEntry) string {
	return buildFilename(PrefixCurrent, e.SerialNumber, e.Date)
}

// LegacyFilename 返回旧版记录的文件名：checklist_<serial>_<dd-MM-yyyy>.pdf。
func LegacyFilename(l model.LegacyChecklist) string {
	return buildFilename(PrefixLegacy, l.EngineInfo.SerialNumber, l.Date)
}

func buildFilename(prefix, serial, date string) string {
	return fmt.Sprintf("%s_%s_%s.pdf", prefix, sanitize(serial), model.FormatDateFile(date))
}

// sanitize 把序列号中不适合出现在文件名里的字符替换为 '_'。
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "sans-serie"
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// RenderEntry 只渲染不落盘（HTTP 下载使用）。
func (x *Exporter) RenderEntry(e model.ChecklistEntry) (*Rendered, error) {
	return x.render("current", BuildLayout(e))
}

// RenderLegacy 只渲染不落盘。
func (x *Exporter) RenderLegacy(l model.LegacyChecklist) (*Rendered, error) {
	return x.render("legacy", BuildLegacyLayout(l))
}

func (x *Exporter) render(schema string, l Layout) (*Rendered, error) {
	start := time.Now()
	out, err := x.Renderer.Render(l)
	if err != nil {
		return nil, err
	}
	if x.Metrics != nil {
		x.Metrics.PDFRenderSeconds.Observe(time.Since(start).Seconds())
		x.Metrics.PDFExports.WithLabelValues(schema).Inc()
	}
	return out, nil
}

// ExportEntry 渲染当前 schema 记录并写入 Dir。
func (x *Exporter) ExportEntry(ctx context.Context, e model.ChecklistEntry) (*Artifact, error) {
	out, err := x.RenderEntry(e)
	if err != nil {
		return nil, err
	}
	return x.write(ctx, Filename(e), out)
}

// ExportLegacy 渲染旧版记录并写入 Dir。
func (x *Exporter) ExportLegacy(ctx context.Context, l model.LegacyChecklist) (*Artifact, error) {
	out, err := x.RenderLegacy(l)
	if err != nil {
		return nil, err
	}
	return x.write(ctx, LegacyFilename(l), out)
}

func (x *Exporter) write(ctx context.Context, name string, out *Rendered) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(x.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir export dir: %w", err)
	}
	path := filepath.Join(x.Dir, name)
	if err := os.WriteFile(path, out.Data, 0o644); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}

	sum, _, err := hash.File(path)
	if err != nil {
		return nil, fmt.Errorf("sha256 pdf: %w", err)
	}
	log := logging.OrNop(x.Log)
	log.Infow("pdf exported", "path", path, "pages", out.Pages, "sha256", sum)
	for _, w := range out.Warnings {
		log.Warnw("pdf export warning", "path", path, "warning", w)
	}

	return &Artifact{
		Path:     path,
		SHA256:   sum,
		Pages:    out.Pages,
		Warnings: out.Warnings,
	}, nil
}

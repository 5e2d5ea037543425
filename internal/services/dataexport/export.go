package dataexport

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"engine-inspector/internal/domain/model"
	"engine-inspector/internal/platform/hash"
	"engine-inspector/internal/platform/metrics"
)

// 导出种类（同时是指标标签）。
const (
	KindCollection = "collection"
	KindRecord     = "record"
	KindAll        = "all"
)

// AllFilename 是完整数据导出的固定文件名。
const AllFilename = "checklist-data-export.json"

// CollectionFilename 返回全部记录导出的文件名：inspections-export-<yyyy-MM-dd>.json。
func CollectionFilename(now time.Time) string {
	return "inspections-export-" + now.Format("2006-01-02") + ".json"
}

// RecordFilename 返回单条记录导出的文件名：inspection-<id>-<yyyy-MM-dd>.json。
func RecordFilename(e model.ChecklistEntry, now time.Time) string {
	return fmt.Sprintf("inspection-%s-%s.json", e.ID, now.Format("2006-01-02"))
}

// AllData 是设置页“导出全部数据”的内容。
type AllData struct {
	Checklists    []model.ChecklistEntry `json:"checklists"`
	RevisionTypes []string               `json:"revisionTypes"`
	EngineSerials []string               `json:"engineSerials"`
}

// Collection 以两空格缩进编码记录数组；nil 编码为 []。
func Collection(entries []model.ChecklistEntry) ([]byte, error) {
	if entries == nil {
		entries = []model.ChecklistEntry{}
	}
	return encode(entries)
}

// Record 编码单条记录。
func Record(e model.ChecklistEntry) ([]byte, error) {
	return encode(e)
}

// All 编码完整数据；nil 切片编码为 []。
func All(d AllData) ([]byte, error) {
	if d.Checklists == nil {
		d.Checklists = []model.ChecklistEntry{}
	}
	if d.RevisionTypes == nil {
		d.RevisionTypes = []string{}
	}
	if d.EngineSerials == nil {
		d.EngineSerials = []string{}
	}
	return encode(d)
}

func encode(v any) ([]byte, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return raw, nil
}

// File 是写入磁盘的导出文件。
type File struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

// Writer 把导出写入目录并计数。
type Writer struct {
	Dir     string
	Now     func() time.Time
	Build   BuildInfo
	Metrics *metrics.Registry
}

func NewWriter(dir string, m *metrics.Registry) *Writer {
	return &Writer{Dir: dir, Now: time.Now, Metrics: m}
}

// Time 返回文件名使用的当前时间。
func (w *Writer) Time() time.Time {
	if w.Now == nil {
		return time.Now()
	}
	return w.Now()
}

// WriteCollection 写出全部记录。
func (w *Writer) WriteCollection(ctx context.Context, entries []model.ChecklistEntry) (*File, error) {
	raw, err := Collection(entries)
	if err != nil {
		return nil, err
	}
	return w.write(ctx, KindCollection, CollectionFilename(w.Time()), raw)
}

// WriteRecord 写出单条记录。
func (w *Writer) WriteRecord(ctx context.Context, e model.ChecklistEntry) (*File, error) {
	raw, err := Record(e)
	if err != nil {
		return nil, err
	}
	return w.write(ctx, KindRecord, RecordFilename(e, w.Time()), raw)
}

// WriteAll 写出完整数据。
func (w *Writer) WriteAll(ctx context.Context, d AllData) (*File, error) {
	raw, err := All(d)
	if err != nil {
		return nil, err
	}
	return w.write(ctx, KindAll, AllFilename, raw)
}

// Count 记录一次导出（HTTP 直接下载时不落盘，也需要计数）。
func (w *Writer) Count(kind string) {
	if w.Metrics != nil {
		w.Metrics.JSONExports.WithLabelValues(kind).Inc()
	}
}

func (w *Writer) write(ctx context.Context, kind, name string, raw []byte) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir export dir: %w", err)
	}
	path := filepath.Join(w.Dir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", name, err)
	}
	w.Count(kind)
	return &File{Path: path, SHA256: hash.Bytes(raw), Size: int64(len(raw))}, nil
}

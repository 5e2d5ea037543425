package dataexport

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"engine-inspector/internal/domain/model"
	"engine-inspector/internal/platform/hash"
	"engine-inspector/internal/services/inspectionpdf"
)

// KindArchive 是 ZIP 归档的指标标签。
const KindArchive = "archive"

const archiveManifestSchema = "engine_inspector.archive_manifest.v1"

// ArchiveFilename 返回归档文件名：checklist-archive-<yyyy-MM-dd>.zip。
func ArchiveFilename(now time.Time) string {
	return "checklist-archive-" + now.Format("2006-01-02") + ".zip"
}

// EntryRenderer 为归档渲染每条记录的 PDF。
type EntryRenderer interface {
	RenderEntry(e model.ChecklistEntry) (*inspectionpdf.Rendered, error)
}

// BuildInfo 是写入 manifest 的程序版本信息。
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// ArchiveFile 是归档内单个文件的哈希登记。
type ArchiveFile struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
	Kind   string `json:"kind"` // data|pdf|manifest
}

// ArchiveManifest 是归档内 manifest.json 的内容。
type ArchiveManifest struct {
	Schema      string        `json:"schema"`
	GeneratedAt string        `json:"generated_at"`
	App         BuildInfo     `json:"app"`
	Checklists  int           `json:"checklists"`
	Files       []ArchiveFile `json:"files"`
	Warnings    []string      `json:"warnings,omitempty"`
}

// Archive 是一次归档导出的摘要。
type Archive struct {
	Path     string   `json:"path"`
	SHA256   string   `json:"sha256"`
	Files    int      `json:"files"`
	Warnings []string `json:"warnings,omitempty"`
}

// WriteArchive 把完整数据与每条记录的 PDF 打包为一个 ZIP：
//   - data.json：与 WriteAll 相同的内容
//   - pdf/<文件名>：每条记录的报告；同名时追加记录 id
//   - manifest.json：文件清单与哈希
//   - hashes.sha256：sha256sum 兼容格式，不包含自身
//
// 单条 PDF 渲染失败只记 warning，不中断归档。renderer 为 nil 时不含 PDF。
func (w *Writer) WriteArchive(ctx context.Context, d AllData, renderer EntryRenderer) (*Archive, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir export dir: %w", err)
	}
	now := w.Time()
	zipPath := filepath.Join(w.Dir, ArchiveFilename(now))
	f, err := os.Create(zipPath)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	var files []ArchiveFile
	var warnings []string
	add := func(name, kind string, b []byte) error {
		sum, size, err := writeZipEntry(zw, name, b, now)
		if err != nil {
			return fmt.Errorf("write %s to archive: %w", name, err)
		}
		files = append(files, ArchiveFile{Path: name, SHA256: sum, Size: size, Kind: kind})
		return nil
	}

	raw, err := All(d)
	if err != nil {
		return nil, err
	}
	if err := add("data.json", "data", raw); err != nil {
		return nil, err
	}

	if renderer != nil {
		used := map[string]bool{}
		for _, e := range d.Checklists {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out, err := renderer.RenderEntry(e)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("pdf %s: %v", e.ID, err))
				continue
			}
			name := inspectionpdf.Filename(e)
			if used[name] {
				name = strings.TrimSuffix(name, ".pdf") + "_" + e.ID + ".pdf"
			}
			used[name] = true
			if err := add("pdf/"+name, "pdf", out.Data); err != nil {
				return nil, err
			}
		}
	}

	manifest := ArchiveManifest{
		Schema:      archiveManifestSchema,
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Checklists:  len(d.Checklists),
		Warnings:    warnings,
		App:         w.Build,
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	manifest.Files = files

	manifestRaw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := add("manifest.json", "manifest", manifestRaw); err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	lines := []string{"# format: <sha256><two spaces><path>"}
	for _, fh := range files {
		lines = append(lines, fmt.Sprintf("%s  %s", fh.SHA256, fh.Path))
	}
	lines = append(lines, "")
	if _, _, err := writeZipEntry(zw, "hashes.sha256", []byte(strings.Join(lines, "\n")), now); err != nil {
		return nil, fmt.Errorf("write hashes.sha256 to archive: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip writer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}

	sum, _, err := hash.File(zipPath)
	if err != nil {
		return nil, fmt.Errorf("hash archive: %w", err)
	}
	w.Count(KindArchive)
	return &Archive{Path: zipPath, SHA256: sum, Files: len(files) + 1, Warnings: warnings}, nil
}

// writeZipEntry 写入一个条目并返回内容的 sha256 与长度。修改时间固定为导出时间。
func writeZipEntry(zw *zip.Writer, name string, b []byte, modified time.Time) (sum string, size int64, err error) {
	hdr := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	}
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return "", 0, err
	}
	hasher := sha256.New()
	n, err := io.Copy(io.MultiWriter(w, hasher), bytes.NewReader(b))
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(hasher.Sum(nil)), n, nil
}

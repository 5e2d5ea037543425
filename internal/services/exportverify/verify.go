package exportverify

import (
	"errors"
	"io/fs"
	"path/filepath"

	"engine-inspector/internal/domain/model"
	"engine-inspector/internal/platform/hash"
	"engine-inspector/internal/services/inspectionpdf"
)

// Renderer 重新渲染记录的 PDF，用于与磁盘上的导出文件比对。
type Renderer interface {
	RenderEntry(e model.ChecklistEntry) (*inspectionpdf.Rendered, error)
}

// FailureItem 是一条不一致的明细（用于 UI/CLI 展示）。
type FailureItem struct {
	Index    int    `json:"index"`
	EntryID  string `json:"entry_id"`
	Serial   string `json:"serial_number"`
	Path     string `json:"path"`
	Expected string `json:"expected_sha256,omitempty"`
	Actual   string `json:"actual_sha256,omitempty"`
	Message  string `json:"message"`
}

// Result 是一次导出校验的结果。
//
// Missing 只统计尚未导出的记录，不影响 OK。
// 同一机号同一天的多条记录共用一个文件名，后导出的覆盖先前的：
// 文件与其中任一条记录一致即算通过，其余记录计入 Superseded。
// 文件与所有候选记录都不一致，或无法渲染/读取时 OK=false。
type Result struct {
	OK bool `json:"ok"`

	Total      int `json:"total"`
	Verified   int `json:"verified"`
	Missing    int `json:"missing"`
	Superseded int `json:"superseded"`
	Mismatched int `json:"mismatched"`

	Failures []FailureItem `json:"failures"`
}

type candidate struct {
	index int
	entry model.ChecklistEntry
}

// VerifyEntries 对 dir 下每个导出 PDF 做强校验：
// 按当前记录重新渲染，比较 sha256。PDF 输出是确定性的，
// 所以不一致说明记录在导出后被修改，或文件被替换。
func VerifyEntries(dir string, entries []model.ChecklistEntry, r Renderer) Result {
	res := Result{
		OK:       true,
		Total:    len(entries),
		Failures: []FailureItem{},
	}

	var names []string
	groups := map[string][]candidate{}
	for i, e := range entries {
		name := inspectionpdf.Filename(e)
		if _, ok := groups[name]; !ok {
			names = append(names, name)
		}
		groups[name] = append(groups[name], candidate{index: i, entry: e})
	}

	for _, name := range names {
		group := groups[name]
		path := filepath.Join(dir, name)

		actual, _, err := hash.File(path)
		if errors.Is(err, fs.ErrNotExist) {
			res.Missing += len(group)
			continue
		}
		last := group[len(group)-1]
		if err != nil {
			res.OK = false
			res.Failures = append(res.Failures, failure(last, path, "", "", "read export: "+err.Error()))
			continue
		}

		// 从后往前比：后追加的记录更可能是最后一次导出。
		matched := false
		var expected string
		var renderErr error
		for k := len(group) - 1; k >= 0; k-- {
			out, err := r.RenderEntry(group[k].entry)
			if err != nil {
				renderErr = err
				continue
			}
			sum := hash.Bytes(out.Data)
			if k == len(group)-1 {
				expected = sum
			}
			if sum == actual {
				matched = true
				break
			}
		}
		switch {
		case matched:
			res.Verified++
			res.Superseded += len(group) - 1
		case renderErr != nil && expected == "":
			res.OK = false
			res.Failures = append(res.Failures, failure(last, path, "", actual, "render: "+renderErr.Error()))
		default:
			res.OK = false
			res.Mismatched++
			res.Superseded += len(group) - 1
			res.Failures = append(res.Failures, failure(last, path, expected, actual, "pdf does not match the current record"))
		}
	}
	return res
}

func failure(c candidate, path, expected, actual, msg string) FailureItem {
	return FailureItem{
		Index:    c.index,
		EntryID:  c.entry.ID,
		Serial:   c.entry.SerialNumber,
		Path:     path,
		Expected: expected,
		Actual:   actual,
		Message:  msg,
	}
}

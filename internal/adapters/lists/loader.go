package lists

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"engine-inspector/internal/platform/hash"

	"gopkg.in/yaml.v3"
)

// Bundle 是可配置选择列表的种子文件结构。
type Bundle struct {
	Version       string   `yaml:"version"`
	BundleType    string   `yaml:"bundle_type"`
	Maintainer    string   `yaml:"maintainer"`
	Description   string   `yaml:"description"`
	RevisionTypes []string `yaml:"revision_types"`
	EngineSerials []string `yaml:"engine_serials"`
}

// Loaded 是加载后的列表和文件哈希，用于确认种子版本。
type Loaded struct {
	Bundle Bundle
	SHA256 string
	Path   string
}

// Loader 负责从磁盘读取并校验种子文件。
type Loader struct {
	File string
}

func NewLoader(file string) *Loader {
	return &Loader{File: file}
}

const bundleType = "inspection_lists"

// Load 读取种子文件并做结构校验；条目会去掉首尾空白。
func (l *Loader) Load(ctx context.Context) (*Loaded, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(l.File)
	if err != nil {
		return nil, fmt.Errorf("read lists seed: %w", err)
	}
	return Parse(raw, l.File)
}

// Parse 解析内存中的种子内容。
func Parse(raw []byte, path string) (*Loaded, error) {
	var b Bundle
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("parse lists seed: %w", err)
	}
	b.RevisionTypes = trimAll(b.RevisionTypes)
	b.EngineSerials = trimAll(b.EngineSerials)
	if err := validate(b); err != nil {
		return nil, err
	}

	return &Loaded{
		Bundle: b,
		SHA256: hash.Bytes(raw),
		Path:   path,
	}, nil
}

func validate(b Bundle) error {
	if strings.TrimSpace(b.Version) == "" {
		return errors.New("lists seed: version is required")
	}
	if strings.TrimSpace(b.BundleType) != bundleType {
		return fmt.Errorf("lists seed: bundle_type must be %q", bundleType)
	}
	if len(b.RevisionTypes) == 0 {
		return errors.New("lists seed: revision_types is empty")
	}
	if err := checkEntries("revision_types", b.RevisionTypes); err != nil {
		return err
	}
	return checkEntries("engine_serials", b.EngineSerials)
}

// checkEntries 检查条目非空且不重复（不区分大小写）。
func checkEntries(field string, entries []string) error {
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if e == "" {
			return fmt.Errorf("lists seed: %s[%d] is empty", field, i)
		}
		k := strings.ToLower(e)
		if _, ok := seen[k]; ok {
			return fmt.Errorf("lists seed: duplicate %s entry: %s", field, e)
		}
		seen[k] = struct{}{}
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"engine-inspector/internal/domain/model"
	"engine-inspector/internal/platform/logging"
	"engine-inspector/internal/platform/metrics"

	"go.uber.org/zap"
)

// 槽位名即持久化布局的一部分，改名等于丢数据。
const (
	SlotChecklists       = "checklists"
	SlotLegacyChecklists = "legacyChecklists"
)

var (
	// ErrNotFound 表示 Replace 找不到对应 id。
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateID 表示 Append 的 id 已存在。
	ErrDuplicateID = errors.New("duplicate record id")
)

// SlotStore 是命名槽位存储（sqlite.Store / memory.Store）。
type SlotStore interface {
	Get(ctx context.Context, name string) ([]byte, bool, error)
	Put(ctx context.Context, name string, value []byte) error
}

// Record 是可被集合保存的记录类型。
type Record[T any] interface {
	RecordID() string
	SearchKeys() []string
	Validate() error
	Clone() T
}

// Options 是集合的可选依赖。
type Options struct {
	Log     *zap.SugaredLogger
	Metrics *metrics.Registry
}

// Collection 在一个槽位中以 JSON 数组保存全部记录，并保持追加顺序。
//
// 规则：
// - 启动时读取一次；槽位缺失/损坏/读失败都按空集合处理，只记 warning
// - 每次修改先序列化并整体写回槽位，写成功后才替换内存副本（写失败内存不变）
// - 查找不到不是错误：FindByID 返回 ok=false，Remove 为 no-op
type Collection[T Record[T]] struct {
	mu       sync.Mutex
	store    SlotStore
	slot     string
	items    []T
	warnings []string

	log     *zap.SugaredLogger
	metrics *metrics.Registry
}

// Open 打开槽位对应的集合。
func Open[T Record[T]](ctx context.Context, store SlotStore, slot string, opts Options) *Collection[T] {
	c := &Collection[T]{
		store:   store,
		slot:    slot,
		log:     logging.OrNop(opts.Log),
		metrics: opts.Metrics,
	}
	c.load(ctx)
	return c
}

// OpenChecklists 打开当前 schema 的检查记录集合。
func OpenChecklists(ctx context.Context, store SlotStore, opts Options) *Collection[model.ChecklistEntry] {
	return Open[model.ChecklistEntry](ctx, store, SlotChecklists, opts)
}

// OpenLegacy 打开旧版 schema 的检查记录集合。
func OpenLegacy(ctx context.Context, store SlotStore, opts Options) *Collection[model.LegacyChecklist] {
	return Open[model.LegacyChecklist](ctx, store, SlotLegacyChecklists, opts)
}

func (c *Collection[T]) load(ctx context.Context) {
	c.items = []T{}
	c.warnings = nil

	raw, ok, err := c.store.Get(ctx, c.slot)
	switch {
	case err != nil:
		c.fallback("read failed: " + err.Error())
		return
	case !ok || len(strings.TrimSpace(string(raw))) == 0:
		return
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		c.fallback("corrupt document: " + err.Error())
		return
	}
	if items == nil {
		// 文档为 "null"
		items = []T{}
	}

	invalid := 0
	for _, it := range items {
		if it.Validate() != nil {
			invalid++
		}
	}
	if invalid > 0 {
		// 记录本身保留（不丢用户数据），导出时按默认外观渲染。
		msg := fmt.Sprintf("%d stored record(s) do not satisfy the schema", invalid)
		c.warnings = append(c.warnings, msg)
		c.log.Warnw("slot contains invalid records", "slot", c.slot, "count", invalid)
	}
	c.items = items
}

func (c *Collection[T]) fallback(reason string) {
	c.warnings = append(c.warnings, c.slot+": "+reason+"; using empty collection")
	c.log.Warnw("slot unreadable, using empty collection", "slot", c.slot, "reason", reason)
	if c.metrics != nil {
		c.metrics.StorageFallbacks.WithLabelValues(c.slot).Inc()
	}
}

// Warnings 返回最近一次加载时的降级说明。
func (c *Collection[T]) Warnings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.warnings...)
}

// Len 返回记录数。
func (c *Collection[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// List 按追加顺序返回全部记录（副本）。
func (c *Collection[T]) List() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it.Clone())
	}
	return out
}

// FindByID 按 id 查找。
func (c *Collection[T]) FindByID(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(id); i >= 0 {
		return c.items[i].Clone(), true
	}
	var zero T
	return zero, false
}

// Search 对检索字段做不区分大小写的子串匹配；空查询返回全部。
func (c *Collection[T]) Search(query string) []T {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.List()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	out := []T{}
	for _, it := range c.items {
		for _, k := range it.SearchKeys() {
			if strings.Contains(strings.ToLower(k), q) {
				out = append(out, it.Clone())
				break
			}
		}
	}
	return out
}

// Append 把记录追加到末尾并整体写回。调用方负责生成唯一 id。
func (c *Collection[T]) Append(ctx context.Context, rec T) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexOf(rec.RecordID()) >= 0 {
		return fmt.Errorf("append %s: %w", rec.RecordID(), ErrDuplicateID)
	}

	next := make([]T, 0, len(c.items)+1)
	next = append(next, c.items...)
	next = append(next, rec.Clone())
	return c.commit(ctx, next)
}

// Replace 用同 id 的新记录整体替换旧记录（编辑流程）。
func (c *Collection[T]) Replace(ctx context.Context, id string, rec T) error {
	if rec.RecordID() != id {
		return fmt.Errorf("replace %s: record id %q does not match", id, rec.RecordID())
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return fmt.Errorf("replace %s: %w", id, ErrNotFound)
	}

	next := append([]T{}, c.items...)
	next[i] = rec.Clone()
	return c.commit(ctx, next)
}

// Remove 删除 id 对应的记录；不存在时返回 false 且不写存储。
func (c *Collection[T]) Remove(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return false, nil
	}

	next := make([]T, 0, len(c.items)-1)
	next = append(next, c.items[:i]...)
	next = append(next, c.items[i+1:]...)
	if err := c.commit(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Collection[T]) indexOf(id string) int {
	for i, it := range c.items {
		if it.RecordID() == id {
			return i
		}
	}
	return -1
}

// commit 先写存储，成功后再替换内存副本。调用方需持有锁。
func (c *Collection[T]) commit(ctx context.Context, next []T) error {
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.slot, err)
	}
	if err := c.store.Put(ctx, c.slot, raw); err != nil {
		return fmt.Errorf("persist %s: %w", c.slot, err)
	}
	c.items = next
	return nil
}

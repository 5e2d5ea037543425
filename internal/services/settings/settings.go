package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"engine-inspector/internal/adapters/lists"
	"engine-inspector/internal/domain/model"
	"engine-inspector/internal/platform/logging"
	"engine-inspector/internal/platform/metrics"
	"engine-inspector/internal/services/repository"

	"go.uber.org/zap"
)

// 设置页使用的槽位名。
const (
	SlotRevisionTypes = "revisionTypes"
	SlotEngineSerials = "engineSerials"
	SlotDarkMode      = "darkMode"
)

// Options 是设置服务的可选依赖。
type Options struct {
	// Seed 为 nil 时使用 model.DefaultRevisionTypes() 且序列号列表为空。
	Seed    *lists.Loaded
	Log     *zap.SugaredLogger
	Metrics *metrics.Registry
}

// Settings 管理两个可编辑的选择列表（维修类型、发动机序列号）和主题开关。
//
// 与检查记录集合一样：每个列表是一个槽位里的 JSON 字符串数组，修改后整体写回。
type Settings struct {
	mu       sync.Mutex
	store    repository.SlotStore
	types    []string
	serials  []string
	dark     bool
	warnings []string

	log     *zap.SugaredLogger
	metrics *metrics.Registry
}

// Open 读取全部设置槽位；维修类型槽位不存在时写入种子值。
func Open(ctx context.Context, store repository.SlotStore, opts Options) (*Settings, error) {
	s := &Settings{
		store:   store,
		log:     logging.OrNop(opts.Log),
		metrics: opts.Metrics,
	}

	defTypes := model.DefaultRevisionTypes()
	defSerials := []string{}
	if opts.Seed != nil {
		defTypes = append([]string{}, opts.Seed.Bundle.RevisionTypes...)
		defSerials = append([]string{}, opts.Seed.Bundle.EngineSerials...)
	}

	types, seeded := s.readList(ctx, SlotRevisionTypes, defTypes)
	s.types = types
	if seeded {
		if err := s.writeJSON(ctx, SlotRevisionTypes, s.types); err != nil {
			return nil, err
		}
	}

	serials, seeded := s.readList(ctx, SlotEngineSerials, defSerials)
	s.serials = serials
	if seeded && len(s.serials) > 0 {
		if err := s.writeJSON(ctx, SlotEngineSerials, s.serials); err != nil {
			return nil, err
		}
	}

	s.dark = s.readBool(ctx, SlotDarkMode)
	return s, nil
}

// readList 读取字符串数组槽位。
// 返回 seeded=true 表示槽位不存在、已用默认值代替（调用方决定是否写回）。
func (s *Settings) readList(ctx context.Context, slot string, def []string) ([]string, bool) {
	raw, ok, err := s.store.Get(ctx, slot)
	if err != nil {
		s.fallback(slot, "read failed: "+err.Error())
		return def, false
	}
	if !ok {
		return def, true
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		s.fallback(slot, "corrupt document: "+err.Error())
		return def, false
	}
	if out == nil {
		out = []string{}
	}
	return out, false
}

func (s *Settings) readBool(ctx context.Context, slot string) bool {
	raw, ok, err := s.store.Get(ctx, slot)
	if err != nil || !ok {
		return false
	}
	// 兼容字符串形式 "true"/"false"
	v := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	return v == "true"
}

func (s *Settings) fallback(slot, reason string) {
	s.warnings = append(s.warnings, slot+": "+reason+"; using defaults")
	s.log.Warnw("settings slot unreadable, using defaults", "slot", slot, "reason", reason)
	if s.metrics != nil {
		s.metrics.StorageFallbacks.WithLabelValues(slot).Inc()
	}
}

func (s *Settings) writeJSON(ctx context.Context, slot string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", slot, err)
	}
	if err := s.store.Put(ctx, slot, raw); err != nil {
		return fmt.Errorf("persist %s: %w", slot, err)
	}
	return nil
}

// Warnings 返回加载时的降级说明。
func (s *Settings) Warnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.warnings...)
}

// RevisionTypes 返回维修类型列表（副本）。
func (s *Settings) RevisionTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.types...)
}

// EngineSerials 返回发动机序列号列表（副本）。
func (s *Settings) EngineSerials() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.serials...)
}

// AddRevisionType 追加维修类型；空白或已存在（不区分大小写）时返回 false。
func (s *Settings) AddRevisionType(ctx context.Context, v string) (bool, error) {
	return s.add(ctx, SlotRevisionTypes, &s.types, v)
}

// RemoveRevisionType 按下标删除；越界时返回 false。
func (s *Settings) RemoveRevisionType(ctx context.Context, index int) (bool, error) {
	return s.remove(ctx, SlotRevisionTypes, &s.types, index)
}

func (s *Settings) AddEngineSerial(ctx context.Context, v string) (bool, error) {
	return s.add(ctx, SlotEngineSerials, &s.serials, v)
}

func (s *Settings) RemoveEngineSerial(ctx context.Context, index int) (bool, error) {
	return s.remove(ctx, SlotEngineSerials, &s.serials, index)
}

func (s *Settings) add(ctx context.Context, slot string, list *[]string, v string) (bool, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range *list {
		if strings.EqualFold(existing, v) {
			return false, nil
		}
	}
	next := append(append([]string{}, *list...), v)
	if err := s.writeJSON(ctx, slot, next); err != nil {
		return false, err
	}
	*list = next
	return true, nil
}

func (s *Settings) remove(ctx context.Context, slot string, list *[]string, index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(*list) {
		return false, nil
	}
	next := make([]string, 0, len(*list)-1)
	next = append(next, (*list)[:index]...)
	next = append(next, (*list)[index+1:]...)
	if err := s.writeJSON(ctx, slot, next); err != nil {
		return false, err
	}
	*list = next
	return true, nil
}

// DarkMode 返回主题开关。
func (s *Settings) DarkMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dark
}

// SetDarkMode 写入主题开关。
func (s *Settings) SetDarkMode(ctx context.Context, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeJSON(ctx, SlotDarkMode, on); err != nil {
		return err
	}
	s.dark = on
	return nil
}

// KnownRevisionType 判断取值是否在维修类型列表中（不区分大小写）。
func (s *Settings) KnownRevisionType(v string) bool {
	return containsFold(s.RevisionTypes(), v)
}

// KnownEngineSerial 判断取值是否在序列号列表中（不区分大小写）。
func (s *Settings) KnownEngineSerial(v string) bool {
	return containsFold(s.EngineSerials(), v)
}

func containsFold(list []string, v string) bool {
	v = strings.TrimSpace(v)
	for _, it := range list {
		if strings.EqualFold(it, v) {
			return true
		}
	}
	return false
}

package memory

import (
	"context"
	"sync"
)

// Store 是进程内的槽位存储，语义与 sqlite.Store 相同，用于测试与临时会话。
//
// FailPut 非 nil 时 Put 直接返回该错误，用于模拟持久化失败。
type Store struct {
	mu      sync.Mutex
	slots   map[string][]byte
	FailPut error
}

func NewStore() *Store {
	return &Store{slots: map[string][]byte{}}
}

func (s *Store) Get(ctx context.Context, name string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.slots[name]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *Store) Put(ctx context.Context, name string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPut != nil {
		return s.FailPut
	}
	s.slots[name] = append([]byte(nil), value...)
	return nil
}

// Raw 直接写入原始字节（可以是非法 JSON），用于构造损坏数据。
func (s *Store) Raw(name string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[name] = append([]byte(nil), value...)
}

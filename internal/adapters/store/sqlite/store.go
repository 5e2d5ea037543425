package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"engine-inspector/internal/platform/hash"
)

// Store 是“本地命名槽位”存储：每个槽位保存一个完整的 JSON 文档。
//
// 写入总是整体覆盖，不做增量；上一版内容保留在 slot_history 中。
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Get 读取槽位内容；槽位不存在时返回 ok=false。
func (s *Store) Get(ctx context.Context, name string) ([]byte, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `
		SELECT value
		FROM slots
		WHERE name = ?
		LIMIT 1
	`, name).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query slot %s: %w", name, err)
	}
	return []byte(v), true, nil
}

// Put 在一个事务内：把旧值移入 slot_history，再覆盖写新值。
func (s *Store) Put(ctx context.Context, name string, value []byte) (err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("slot name is required")
	}
	now := s.now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx put slot %s: %w", name, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = archiveSlot(ctx, tx, name, now); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO slots(name, value, sha256, updated_at)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			value=excluded.value,
			sha256=excluded.sha256,
			updated_at=excluded.updated_at
	`, name, string(value), hash.Bytes(value), now)
	if err != nil {
		return fmt.Errorf("write slot %s: %w", name, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit put slot %s: %w", name, err)
	}
	return nil
}

// Delete 在一个事务内把当前值移入 slot_history 再删除槽位，
// 所以删除后仍可用 Previous 找回。槽位不存在不算错误。
func (s *Store) Delete(ctx context.Context, name string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx delete slot %s: %w", name, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = archiveSlot(ctx, tx, name, s.now().Unix()); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM slots WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete slot %s: %w", name, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete slot %s: %w", name, err)
	}
	return nil
}

// archiveSlot 把槽位当前值写入 slot_history；槽位不存在时不动历史。
func archiveSlot(ctx context.Context, tx *sql.Tx, name string, now int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO slot_history(name, value, replaced_at)
		SELECT name, value, ? FROM slots WHERE name = ?
		ON CONFLICT(name) DO UPDATE SET
			value=excluded.value,
			replaced_at=excluded.replaced_at
	`, now, name)
	if err != nil {
		return fmt.Errorf("archive slot %s: %w", name, err)
	}
	return nil
}

// Previous 返回槽位被覆盖前的上一版内容。
func (s *Store) Previous(ctx context.Context, name string) ([]byte, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM slot_history WHERE name = ? LIMIT 1`, name).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query slot history %s: %w", name, err)
	}
	return []byte(v), true, nil
}

// SlotInfo 是槽位的元信息（不含内容）。
type SlotInfo struct {
	Name      string `json:"name"`
	SHA256    string `json:"sha256"`
	SizeBytes int64  `json:"size_bytes"`
	UpdatedAt int64  `json:"updated_at"`
}

// ListSlots 按名称排序返回全部槽位的元信息。
func (s *Store) ListSlots(ctx context.Context) ([]SlotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, sha256, LENGTH(value), updated_at
		FROM slots
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()

	out := []SlotInfo{}
	for rows.Next() {
		var it SlotInfo
		if err := rows.Scan(&it.Name, &it.SHA256, &it.SizeBytes, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}
	return out, nil
}

// GetSchemaMetaValue 查询 schema_meta 表指定 key 的 value。
func (s *Store) GetSchemaMetaValue(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `
		SELECT value
		FROM schema_meta
		WHERE key = ?
		LIMIT 1
	`, key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("query schema_meta %s: %w", key, err)
	}
	return v, nil
}

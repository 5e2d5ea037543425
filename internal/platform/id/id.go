package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// New 生成带前缀的唯一 ID：prefix + "_" + UUIDv4（去掉连字符）。
// 前缀便于在日志与导出文件中区分记录类型。
func New(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	if prefix == "" {
		return raw
	}
	return fmt.Sprintf("%s_%s", prefix, raw)
}

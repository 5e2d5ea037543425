package wizard

import (
	"context"

	"engine-inspector/internal/platform/logging"

	"go.uber.org/zap"
)

// Level 是提示的级别。
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
)

// Notification 是提交完成后给用户的提示。
type Notification struct {
	Level   Level  `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
	EntryID string `json:"entry_id"`
	PDFPath string `json:"pdf_path,omitempty"`
}

// Notifier 把提示交给界面层（CLI 输出、HTTP 响应、日志）。
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// LogNotifier 把提示写入日志；未配置 Notifier 时使用。
type LogNotifier struct {
	Log *zap.SugaredLogger
}

func (n LogNotifier) Notify(_ context.Context, note Notification) {
	log := logging.OrNop(n.Log)
	kv := []any{"entry_id", note.EntryID, "title", note.Title, "message", note.Message, "pdf", note.PDFPath}
	if note.Level == LevelWarning {
		log.Warnw("form finished with warnings", kv...)
		return
	}
	log.Infow("form finished", kv...)
}

// Collect 记录收到的全部提示，用于测试和 HTTP 响应。
type Collect struct {
	Notes []Notification
}

func (c *Collect) Notify(_ context.Context, n Notification) {
	c.Notes = append(c.Notes, n)
}

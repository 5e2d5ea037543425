package webapp

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"engine-inspector/internal/app"
	"engine-inspector/internal/platform/logging"
	"engine-inspector/internal/services/wizard"

	"go.uber.org/zap"
)

// 注意：go:embed 路径相对当前包目录；ui_dist/ 至少要有一个文件（已放置 index.html）。
//
//go:embed ui_dist
var uiFS embed.FS

// UI 返回内置前端的文件系统。
func UI() (fs.FS, error) {
	sub, err := fs.Sub(uiFS, "ui_dist")
	if err != nil {
		return nil, fmt.Errorf("sub ui fs: %w", err)
	}
	return sub, nil
}

// Run 打开运行时并启动 Web UI + API，直到 ctx 取消。
func Run(ctx context.Context, cfg app.Config, log *zap.SugaredLogger) error {
	log = logging.OrNop(log)

	rt, err := app.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	ui, err := UI()
	if err != nil {
		return err
	}

	notifier := wizard.LogNotifier{Log: log}
	s := NewServer(Deps{
		Checklists:    rt.Checklists,
		Legacy:        rt.Legacy,
		Settings:      rt.Settings,
		PDF:           rt.PDF,
		JSON:          rt.JSON,
		Wizard:        rt.WizardDeps(notifier),
		LegacyWizard:  rt.LegacyDeps(notifier),
		SchemaVersion: func(ctx context.Context) (string, error) { return rt.Store.GetSchemaMetaValue(ctx, "schema_version") },
		UI:            ui,
		CORSOrigins:   cfg.CORSOrigins,
		PDFCacheTTL:   cfg.PDFCacheTTL,
		Log:           log,
		Metrics:       rt.Metrics,
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Infow("webapp listening", "addr", "http://"+cfg.ListenAddr, "db", cfg.DBPath)
	err = httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

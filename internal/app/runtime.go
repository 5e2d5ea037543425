package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"engine-inspector/internal/adapters/lists"
	sqliteadapter "engine-inspector/internal/adapters/store/sqlite"
	"engine-inspector/internal/domain/model"
	"engine-inspector/internal/platform/logging"
	"engine-inspector/internal/platform/metrics"
	"engine-inspector/internal/services/dataexport"
	"engine-inspector/internal/services/inspectionpdf"
	"engine-inspector/internal/services/repository"
	"engine-inspector/internal/services/settings"
	"engine-inspector/internal/services/wizard"

	"go.uber.org/zap"
)

// Runtime 持有一次进程运行所需的全部已打开组件，CLI 与 Web 服务共用。
type Runtime struct {
	Config  Config
	Log     *zap.SugaredLogger
	Metrics *metrics.Registry

	DB         *sql.DB
	Store      *sqliteadapter.Store
	Seed       *lists.Loaded
	Checklists *repository.Collection[model.ChecklistEntry]
	Legacy     *repository.Collection[model.LegacyChecklist]
	Settings   *settings.Settings
	PDF        *inspectionpdf.Exporter
	JSON       *dataexport.Writer
}

// Open 打开数据库、执行迁移、加载种子列表并装配各服务。
// 种子文件不存在时使用内置默认列表；文件存在但格式错误时返回错误。
func Open(ctx context.Context, cfg Config, log *zap.SugaredLogger) (*Runtime, error) {
	log = logging.OrNop(log)
	reg := metrics.New()

	db, err := sqliteadapter.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	store := sqliteadapter.NewStore(db)

	var seed *lists.Loaded
	if cfg.ListsSeedPath != "" {
		seed, err = lists.NewLoader(cfg.ListsSeedPath).Load(ctx)
		switch {
		case err == nil:
			log.Infow("lists seed loaded", "path", seed.Path, "version", seed.Bundle.Version, "sha256", seed.SHA256)
		case errors.Is(err, fs.ErrNotExist):
			log.Infow("lists seed not found, using built-in defaults", "path", cfg.ListsSeedPath)
			seed = nil
		default:
			_ = db.Close()
			return nil, err
		}
	}

	opts := repository.Options{Log: log, Metrics: reg}
	st, err := settings.Open(ctx, store, settings.Options{Seed: seed, Log: log, Metrics: reg})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open settings: %w", err)
	}

	jsonw := dataexport.NewWriter(cfg.ExportDir, reg)
	jsonw.Build = dataexport.BuildInfo{Version: Version, Commit: Commit, BuildTime: BuildTime}

	return &Runtime{
		Config:     cfg,
		Log:        log,
		Metrics:    reg,
		DB:         db,
		Store:      store,
		Seed:       seed,
		Checklists: repository.OpenChecklists(ctx, store, opts),
		Legacy:     repository.OpenLegacy(ctx, store, opts),
		Settings:   st,
		PDF:        inspectionpdf.NewExporter(cfg.ExportDir, cfg.PDFFont, log, reg),
		JSON:       jsonw,
	}, nil
}

// Close 关闭数据库。
func (r *Runtime) Close() error {
	return r.DB.Close()
}

// WizardDeps 返回当前版本表单的依赖；notifier 为 nil 时写日志。
func (r *Runtime) WizardDeps(notifier wizard.Notifier) wizard.Deps {
	return wizard.Deps{
		Repo:     r.Checklists,
		Exporter: r.PDF,
		Notifier: notifier,
		Log:      r.Log,
		Metrics:  r.Metrics,
	}
}

// LegacyDeps 返回旧版表单的依赖。
func (r *Runtime) LegacyDeps(notifier wizard.Notifier) wizard.LegacyDeps {
	return wizard.LegacyDeps{
		Repo:     r.Legacy,
		Exporter: r.PDF,
		Notifier: notifier,
		Log:      r.Log,
		Metrics:  r.Metrics,
	}
}

// AllData 汇总“导出全部数据”的内容。
func (r *Runtime) AllData() dataexport.AllData {
	return dataexport.AllData{
		Checklists:    r.Checklists.List(),
		RevisionTypes: r.Settings.RevisionTypes(),
		EngineSerials: r.Settings.EngineSerials(),
	}
}

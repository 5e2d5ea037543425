package webapp

import (
	"context"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"engine-inspector/internal/domain/model"
	"engine-inspector/internal/platform/logging"
	"engine-inspector/internal/platform/metrics"
	"engine-inspector/internal/services/dataexport"
	"engine-inspector/internal/services/inspectionpdf"
	"engine-inspector/internal/services/repository"
	"engine-inspector/internal/services/settings"
	"engine-inspector/internal/services/wizard"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps 是 HTTP 服务的依赖。UI 为 nil 时只提供 API。
type Deps struct {
	Checklists   *repository.Collection[model.ChecklistEntry]
	Legacy       *repository.Collection[model.LegacyChecklist]
	Settings     *settings.Settings
	PDF          *inspectionpdf.Exporter
	JSON         *dataexport.Writer
	Wizard       wizard.Deps
	LegacyWizard wizard.LegacyDeps

	// SchemaVersion 读取存储 schema 版本，仅用于 /api/meta 展示。
	SchemaVersion func(ctx context.Context) (string, error)

	UI          fs.FS
	CORSOrigins []string
	PDFCacheTTL time.Duration

	Log     *zap.SugaredLogger
	Metrics *metrics.Registry
}

// Server 是内置 Web UI/API 的运行时对象。
type Server struct {
	deps Deps
	log  *zap.SugaredLogger
	// pdfs 以记录内容哈希为键缓存渲染结果，记录修改后键自然失效。
	pdfs *cache.Cache
}

func NewServer(deps Deps) *Server {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.JSON == nil {
		deps.JSON = dataexport.NewWriter("", deps.Metrics)
	}
	ttl := deps.PDFCacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Server{
		deps: deps,
		log:  logging.OrNop(deps.Log),
		pdfs: cache.New(ttl, 2*ttl),
	}
}

// Handler 组装路由。
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.metricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.deps.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/metrics", promhttp.HandlerFor(s.deps.Metrics.Gatherer(), promhttp.HandlerOpts{}).ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/meta", s.handleMeta)

		r.Route("/checklists", func(r chi.Router) {
			r.Get("/", s.handleChecklistList)
			r.Post("/", s.handleChecklistCreate)
			r.Get("/export", s.handleChecklistExport)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleChecklistGet)
				r.Put("/", s.handleChecklistUpdate)
				r.Delete("/", s.handleChecklistDelete)
				r.Get("/pdf", s.handleChecklistPDF)
				r.Get("/json", s.handleChecklistJSON)
			})
		})

		r.Route("/legacy-checklists", func(r chi.Router) {
			r.Get("/", s.handleLegacyList)
			r.Post("/", s.handleLegacyCreate)
			r.Get("/{id}", s.handleLegacyGet)
			r.Get("/{id}/pdf", s.handleLegacyPDF)
			r.Post("/{id}/migrate", s.handleLegacyMigrate)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/revision-types", s.handleListGet(s.deps.Settings.RevisionTypes))
			r.Post("/revision-types", s.handleListAdd(s.deps.Settings.AddRevisionType, s.deps.Settings.RevisionTypes))
			r.Delete("/revision-types/{index}", s.handleListRemove(s.deps.Settings.RemoveRevisionType, s.deps.Settings.RevisionTypes))
			r.Get("/engine-serials", s.handleListGet(s.deps.Settings.EngineSerials))
			r.Post("/engine-serials", s.handleListAdd(s.deps.Settings.AddEngineSerial, s.deps.Settings.EngineSerials))
			r.Delete("/engine-serials/{index}", s.handleListRemove(s.deps.Settings.RemoveEngineSerial, s.deps.Settings.EngineSerials))
			r.Get("/theme", s.handleThemeGet)
			r.Put("/theme", s.handleThemePut)
			r.Post("/lists/import", s.handleListsImport)
		})

		r.Get("/export/all", s.handleExportAll)
		r.Post("/export/archive", s.handleExportArchive)
		r.Get("/export/verify", s.handleExportVerify)
	})

	if s.deps.UI != nil {
		uiFileServer := http.FileServer(http.FS(s.deps.UI))
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			s.handleUI(w, r, uiFileServer)
		})
	}
	return r
}

// metricsMiddleware 按路由模板计数。模板在路由匹配之后才可用，所以在 next 返回后读取。
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unknown"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.deps.Metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		s.log.Debugw("http request", "method", r.Method, "route", route, "status", status, "duration", time.Since(start))
	})
}

func (s *Server) handleUI(w http.ResponseWriter, r *http.Request, uiFileServer http.Handler) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	// "/" 交给 FileServer 自动返回 index.html；改写成 /index.html 会触发 301 规范化。
	if r.URL.Path == "/" || r.URL.Path == "" {
		uiFileServer.ServeHTTP(w, r)
		return
	}

	reqPath := strings.TrimPrefix(r.URL.Path, "/")
	if info, err := fs.Stat(s.deps.UI, reqPath); err == nil && !info.IsDir() {
		uiFileServer.ServeHTTP(w, r)
		return
	}

	// 缺失的资源：有扩展名 -> 404；无扩展名 -> 前端路由，回落 index.html
	if strings.Contains(reqPath, ".") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	r2 := r.Clone(r.Context())
	r2.URL.Path = "/"
	uiFileServer.ServeHTTP(w, r2)
}

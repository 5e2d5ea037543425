package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry 汇总检查记录相关的 Prometheus 指标。
//
// 每个 Registry 自带独立的 prometheus.Registry，测试中可以重复创建而不会触发重复注册。
type Registry struct {
	reg *prometheus.Registry

	ChecklistsCreated  prometheus.Counter
	ChecklistsReplaced prometheus.Counter
	ChecklistsDeleted  prometheus.Counter
	ValidationFailures *prometheus.CounterVec
	PDFExports         *prometheus.CounterVec
	PDFRenderSeconds   prometheus.Histogram
	JSONExports        *prometheus.CounterVec
	StorageFallbacks   *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
}

// New 创建并注册全部指标。
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	f := promauto.With(reg)

	return &Registry{
		reg: reg,
		ChecklistsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "inspector_checklists_created_total",
			Help: "Checklist entries appended to the repository",
		}),
		ChecklistsReplaced: f.NewCounter(prometheus.CounterOpts{
			Name: "inspector_checklists_replaced_total",
			Help: "Checklist entries replaced through the edit flow",
		}),
		ChecklistsDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "inspector_checklists_deleted_total",
			Help: "Checklist entries removed by the user",
		}),
		ValidationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "inspector_validation_failures_total",
			Help: "Form submissions rejected by validation, by field",
		}, []string{"field"}),
		PDFExports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "inspector_pdf_exports_total",
			Help: "PDF documents rendered, by schema",
		}, []string{"schema"}),
		PDFRenderSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "inspector_pdf_render_seconds",
			Help:    "PDF render latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		JSONExports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "inspector_json_exports_total",
			Help: "JSON exports produced, by kind",
		}, []string{"kind"}),
		StorageFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "inspector_storage_fallbacks_total",
			Help: "Absent or corrupt slots replaced by their default value",
		}, []string{"slot"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "inspector_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code",
		}, []string{"route", "method", "status_code"}),
	}
}

// Gatherer 用于 promhttp.HandlerFor。
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

package webapp

import (
	"net/http"

	"engine-inspector/internal/app"
	"engine-inspector/internal/domain/model"
)

type statusMeta struct {
	Value      string           `json:"value"`
	Appearance model.Appearance `json:"appearance"`
}

// handleMeta 返回前端渲染表单所需的全部静态信息：词表与外观、子系统、列表与版本。
func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	componentStatuses := []statusMeta{}
	for _, st := range model.ComponentStatuses() {
		componentStatuses = append(componentStatuses, statusMeta{Value: string(st), Appearance: st.Appearance()})
	}
	sensorStatuses := []statusMeta{}
	for _, st := range model.SensorStatuses() {
		sensorStatuses = append(sensorStatuses, statusMeta{Value: string(st), Appearance: st.Appearance()})
	}

	schemaVersion := ""
	if s.deps.SchemaVersion != nil {
		v, err := s.deps.SchemaVersion(r.Context())
		if err != nil {
			s.log.Warnw("read schema version", "error", err)
		}
		schemaVersion = v
	}

	warnings := append([]string{}, s.deps.Checklists.Warnings()...)
	warnings = append(warnings, s.deps.Settings.Warnings()...)

	writeJSON(w, http.StatusOK, map[string]any{
		"version":            app.Version,
		"commit":             app.Commit,
		"build_time":         app.BuildTime,
		"schema_version":     schemaVersion,
		"record_schemas": map[string]model.SchemaVersion{
			"checklist":        model.SchemaCurrent,
			"legacy_checklist": model.SchemaLegacy,
		},
		"component_statuses": componentStatuses,
		"sensor_statuses":    sensorStatuses,
		"unknown_status":     model.UnknownAppearance,
		"components":         model.ComponentDefs(),
		"legacy_items":       model.DefaultLegacyItems(),
		"legacy_types": []map[string]string{
			{"value": string(model.LegacyReception), "label": model.LegacyReception.Label()},
			{"value": string(model.LegacyExpedition), "label": model.LegacyExpedition.Label()},
		},
		"revision_types":  s.deps.Settings.RevisionTypes(),
		"engine_serials":  s.deps.Settings.EngineSerials(),
		"dark_mode":       s.deps.Settings.DarkMode(),
		"checklist_count": s.deps.Checklists.Len(),
		"warnings":        warnings,
	})
}

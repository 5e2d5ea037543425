package webapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"engine-inspector/internal/platform/hash"
	"engine-inspector/internal/services/dataexport"
	"engine-inspector/internal/services/exportverify"
	"engine-inspector/internal/services/inspectionpdf"
	"engine-inspector/internal/services/repository"
	"engine-inspector/internal/services/wizard"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"service": "webapp",
		"time":    time.Now().Unix(),
	})
}

func (s *Server) handleChecklistList(w http.ResponseWriter, r *http.Request) {
	entries := s.deps.Checklists.Search(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, map[string]any{
		"checklists": entries,
		"count":      len(entries),
		"warnings":   nonNil(s.deps.Checklists.Warnings()),
	})
}

func (s *Server) handleChecklistCreate(w http.ResponseWriter, r *http.Request) {
	var d wizard.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	res, err := wizard.Submit(r.Context(), s.deps.Wizard, d)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleChecklistGet(w http.ResponseWriter, r *http.Request) {
	e, ok := s.deps.Checklists.FindByID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, repository.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleChecklistUpdate(w http.ResponseWriter, r *http.Request) {
	existing, ok := s.deps.Checklists.FindByID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, repository.ErrNotFound)
		return
	}
	var d wizard.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	res, err := wizard.SubmitEdit(r.Context(), s.deps.Wizard, existing, d)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleChecklistDelete 删除记录。未知 id 是 no-op，同样返回 204；
// X-Removed 头说明是否真的删除了记录。
func (s *Server) handleChecklistDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	removed, err := s.deps.Checklists.Remove(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if removed {
		s.deps.Metrics.ChecklistsDeleted.Inc()
		s.log.Infow("checklist deleted", "id", id)
	}
	w.Header().Set("X-Removed", strconv.FormatBool(removed))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChecklistPDF(w http.ResponseWriter, r *http.Request) {
	if s.deps.PDF == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("pdf export disabled"))
		return
	}
	e, ok := s.deps.Checklists.FindByID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, repository.ErrNotFound)
		return
	}
	out, err := s.cachedPDF("entry", e, func() (*inspectionpdf.Rendered, error) {
		return s.deps.PDF.RenderEntry(e)
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("X-PDF-Pages", strconv.Itoa(out.Pages))
	serveAttachment(w, inspectionpdf.Filename(e), "application/pdf", out.Data)
}

func (s *Server) handleChecklistJSON(w http.ResponseWriter, r *http.Request) {
	e, ok := s.deps.Checklists.FindByID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, repository.ErrNotFound)
		return
	}
	raw, err := dataexport.Record(e)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.deps.JSON.Count(dataexport.KindRecord)
	serveAttachment(w, dataexport.RecordFilename(e, s.deps.JSON.Time()), "application/json", raw)
}

func (s *Server) handleChecklistExport(w http.ResponseWriter, r *http.Request) {
	raw, err := dataexport.Collection(s.deps.Checklists.List())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.deps.JSON.Count(dataexport.KindCollection)
	serveAttachment(w, dataexport.CollectionFilename(s.deps.JSON.Time()), "application/json", raw)
}

func (s *Server) handleExportAll(w http.ResponseWriter, r *http.Request) {
	raw, err := dataexport.All(dataexport.AllData{
		Checklists:    s.deps.Checklists.List(),
		RevisionTypes: s.deps.Settings.RevisionTypes(),
		EngineSerials: s.deps.Settings.EngineSerials(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.deps.JSON.Count(dataexport.KindAll)
	serveAttachment(w, dataexport.AllFilename, "application/json", raw)
}

// handleExportArchive 在导出目录生成 ZIP 归档（数据 + 全部 PDF + 哈希清单）。
func (s *Server) handleExportArchive(w http.ResponseWriter, r *http.Request) {
	var renderer dataexport.EntryRenderer
	if s.deps.PDF != nil {
		renderer = s.deps.PDF
	}
	res, err := s.deps.JSON.WriteArchive(r.Context(), dataexport.AllData{
		Checklists:    s.deps.Checklists.List(),
		RevisionTypes: s.deps.Settings.RevisionTypes(),
		EngineSerials: s.deps.Settings.EngineSerials(),
	}, renderer)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.log.Infow("archive written", "path", res.Path, "sha256", res.SHA256, "files", res.Files)
	writeJSON(w, http.StatusCreated, res)
}

// handleExportVerify 校验导出目录中的 PDF 是否仍与当前记录一致。
func (s *Server) handleExportVerify(w http.ResponseWriter, r *http.Request) {
	if s.deps.PDF == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("pdf export disabled"))
		return
	}
	writeJSON(w, http.StatusOK, exportverify.VerifyEntries(s.deps.PDF.Dir, s.deps.Checklists.List(), s.deps.PDF))
}

// cachedPDF 以“种类 + 记录 JSON 哈希”为键复用渲染结果。
func (s *Server) cachedPDF(kind string, rec any, render func() (*inspectionpdf.Rendered, error)) (*inspectionpdf.Rendered, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	key := kind + ":" + hash.Bytes(raw)
	if v, ok := s.pdfs.Get(key); ok {
		return v.(*inspectionpdf.Rendered), nil
	}
	out, err := render()
	if err != nil {
		return nil, err
	}
	s.pdfs.SetDefault(key, out)
	return out, nil
}

// writeServiceError 把领域错误映射为 HTTP 状态码。
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	if ve, ok := wizard.IsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  ve.Error(),
			"fields": ve.Fields,
		})
		return
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, repository.ErrDuplicateID):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, wizard.ErrFinished):
		writeError(w, http.StatusConflict, err)
	default:
		s.log.Errorw("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{
		"error": err.Error(),
	})
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

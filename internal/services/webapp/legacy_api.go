package webapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"engine-inspector/internal/services/inspectionpdf"
	"engine-inspector/internal/services/repository"
	"engine-inspector/internal/services/wizard"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleLegacyList(w http.ResponseWriter, r *http.Request) {
	items := s.deps.Legacy.Search(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, map[string]any{
		"checklists": items,
		"count":      len(items),
		"warnings":   nonNil(s.deps.Legacy.Warnings()),
	})
}

func (s *Server) handleLegacyCreate(w http.ResponseWriter, r *http.Request) {
	var d wizard.LegacyDraft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	res, err := wizard.SubmitLegacy(r.Context(), s.deps.LegacyWizard, d)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleLegacyGet(w http.ResponseWriter, r *http.Request) {
	l, ok := s.deps.Legacy.FindByID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, repository.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleLegacyPDF(w http.ResponseWriter, r *http.Request) {
	if s.deps.PDF == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("pdf export disabled"))
		return
	}
	l, ok := s.deps.Legacy.FindByID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, repository.ErrNotFound)
		return
	}
	out, err := s.cachedPDF("legacy", l, func() (*inspectionpdf.Rendered, error) {
		return s.deps.PDF.RenderLegacy(l)
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("X-PDF-Pages", strconv.Itoa(out.Pages))
	serveAttachment(w, inspectionpdf.LegacyFilename(l), "application/pdf", out.Data)
}

// handleLegacyMigrate 把旧版记录迁移为当前 schema；请求体同 POST /api/checklists，
// components 必须给出全部子系统。重复迁移返回 409。
func (s *Server) handleLegacyMigrate(w http.ResponseWriter, r *http.Request) {
	l, ok := s.deps.Legacy.FindByID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, repository.ErrNotFound)
		return
	}
	var d wizard.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	res, err := wizard.SubmitMigration(r.Context(), s.deps.Wizard, l, d)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

package webapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"engine-inspector/internal/adapters/lists"

	"github.com/go-chi/chi/v5"
)

type listValue struct {
	Value string `json:"value"`
}

func (s *Server) handleListGet(get func() []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"items": get()})
	}
}

// handleListAdd 追加一个值；空值或重复值返回 409 且列表不变。
func (s *Server) handleListAdd(add func(context.Context, string) (bool, error), get func() []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req listValue
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		if strings.TrimSpace(req.Value) == "" {
			writeError(w, http.StatusBadRequest, errors.New("empty value"))
			return
		}
		added, err := add(r.Context(), req.Value)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if !added {
			writeJSON(w, http.StatusConflict, map[string]any{"error": "duplicate value", "items": get()})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"items": get()})
	}
}

func (s *Server) handleListRemove(remove func(context.Context, int) (bool, error), get func() []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx := parseInt(chi.URLParam(r, "index"), -1)
		removed, err := remove(r.Context(), idx)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if !removed {
			writeError(w, http.StatusNotFound, fmt.Errorf("index out of range: %s", chi.URLParam(r, "index")))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": get()})
	}
}

func (s *Server) handleThemeGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"darkMode": s.deps.Settings.DarkMode()})
}

func (s *Server) handleThemePut(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DarkMode *bool `json:"darkMode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	if req.DarkMode == nil {
		writeError(w, http.StatusBadRequest, errors.New("missing darkMode"))
		return
	}
	if err := s.deps.Settings.SetDarkMode(r.Context(), *req.DarkMode); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"darkMode": s.deps.Settings.DarkMode()})
}

// handleListsImport 接收一份列表 YAML（与 config/lists.yaml 同格式），
// 校验后把其中的新值合并进当前列表；已有值跳过。
func (s *Server) handleListsImport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename string `json:"filename,omitempty"`
		Content  string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, errors.New("empty content"))
		return
	}
	name := strings.TrimSpace(req.Filename)
	if name == "" {
		name = "upload.yaml"
	}
	loaded, err := lists.Parse([]byte(req.Content), name)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid lists bundle: %w", err))
		return
	}

	ctx := r.Context()
	addedTypes, addedSerials := 0, 0
	for _, v := range loaded.Bundle.RevisionTypes {
		ok, err := s.deps.Settings.AddRevisionType(ctx, v)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if ok {
			addedTypes++
		}
	}
	for _, v := range loaded.Bundle.EngineSerials {
		ok, err := s.deps.Settings.AddEngineSerial(ctx, v)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if ok {
			addedSerials++
		}
	}
	s.log.Infow("lists bundle imported", "file", name, "sha256", loaded.SHA256,
		"revision_types_added", addedTypes, "engine_serials_added", addedSerials)

	writeJSON(w, http.StatusOK, map[string]any{
		"sha256":               loaded.SHA256,
		"revision_types_added": addedTypes,
		"engine_serials_added": addedSerials,
		"revisionTypes":        s.deps.Settings.RevisionTypes(),
		"engineSerials":        s.deps.Settings.EngineSerials(),
	})
}

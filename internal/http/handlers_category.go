package http

import (
	"net/http"

	"spendwise/internal/core"
	applog "spendwise/internal/log"
)

type categoryResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Color  string `json:"color"`
	Global bool   `json:"global"`
}

func newCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{
		ID:     c.ID,
		Name:   c.Name,
		Kind:   string(c.Kind),
		Color:  c.Color,
		Global: c.Owner.IsGlobal(),
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.Categories.List(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, newCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}

	created, err := s.svc.Categories.Create(r.Context(), currentUser(r), core.Category{
		Name:  sanitizeInput(req.Name),
		Kind:  core.CategoryKind(req.Kind),
		Color: req.Color,
	})
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCategoryResponse(created))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.svc.Categories.Delete(r.Context(), currentUser(r), id); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

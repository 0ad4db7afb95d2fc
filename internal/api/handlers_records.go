package api

import (
	"net/http"
	"strconv"

	"github.com/dgallion1/bestiary/internal/pathstore"
	"github.com/go-chi/chi/v5"
)

// recordSlug returns the {slug} URL parameter when the record routes are
// usable, or writes the error response.
func (s *Server) recordSlug(w http.ResponseWriter, r *http.Request) (string, bool) {
	if s.records == nil {
		jsonError(w, "record store not configured", http.StatusServiceUnavailable)
		return "", false
	}
	slug := chi.URLParam(r, "slug")
	if slug == "" || pathstore.Slugify(slug) != slug {
		jsonError(w, "invalid record slug", http.StatusBadRequest)
		return "", false
	}
	return slug, true
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	if s.records == nil {
		jsonError(w, "record store not configured", http.StatusServiceUnavailable)
		return
	}
	limit := 200
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	keys, err := s.records.ListRecords(r.Context(), limit)
	if err != nil {
		jsonError(w, "failed to list records: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": keys})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	slug, ok := s.recordSlug(w, r)
	if !ok {
		return
	}
	raw, err := s.records.GetRecord(r.Context(), slug)
	if err != nil {
		jsonError(w, "failed to read record: "+err.Error(), http.StatusBadGateway)
		return
	}
	if raw == nil {
		jsonError(w, "record not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(raw)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	slug, ok := s.recordSlug(w, r)
	if !ok {
		return
	}
	if err := s.records.DeleteRecord(r.Context(), slug); err != nil {
		jsonError(w, "failed to delete record: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": slug})
}

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/bestiary/internal/parser"
	"github.com/dgallion1/bestiary/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// handleParse extracts one document synchronously. The body is the page,
// HTML unless the content type says markdown.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	identity := r.URL.Query().Get("identity")
	if identity == "" {
		jsonError(w, "identity query parameter is required", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("body exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(data) == 0 {
		jsonError(w, "empty body", http.StatusBadRequest)
		return
	}

	res := s.orchestrator.Extractor().Process(r.Context(), pipeline.Document{
		Identity:    identity,
		ContentType: r.Header.Get("Content-Type"),
		Data:        data,
	})
	code := http.StatusOK
	if res.Outcome == pipeline.OutcomeFailed {
		code = http.StatusUnprocessableEntity
	}
	writeJSON(w, code, res)
}

// handleBatch queues a batch job over the uploaded files. File n's identity
// is the form value identity_<n>, or its filename.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	var docs []pipeline.Document
	rejected := []map[string]string{}
	for i, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		if !parser.IsSupportedExtension(filename) {
			rejected = append(rejected, map[string]string{
				"filename": filename,
				"error":    fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)),
			})
			continue
		}

		f, err := fh.Open()
		if err != nil {
			rejected = append(rejected, map[string]string{"filename": filename, "error": "failed to open file"})
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			rejected = append(rejected, map[string]string{"filename": filename, "error": "read error"})
			continue
		}

		identity := r.FormValue("identity_" + strconv.Itoa(i))
		if identity == "" {
			identity = filename
		}
		docs = append(docs, pipeline.Document{Identity: identity, Filename: filename, Data: data})
	}
	if len(docs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "no usable files", "rejected": rejected})
		return
	}

	job := pipeline.NewJob(docs)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":     job.ID,
		"status":     pipeline.StatusQueued,
		"total_docs": len(docs),
		"rejected":   rejected,
		"poll_url":   fmt.Sprintf("/api/batch/%s/status", job.ID),
	})
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// handleBatchRecords returns the records of a finished job keyed by
// identity, with the batch summary.
func (s *Server) handleBatchRecords(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	b := job.Batch()
	if b == nil {
		jsonError(w, fmt.Sprintf("job is %s", job.Snapshot().Status), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":  job.ID,
		"summary": b.Summary,
		"records": b.Records(),
	})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}

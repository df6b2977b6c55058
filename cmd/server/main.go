package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"paperqa/internal/app"
	"paperqa/internal/httputil"
	"paperqa/internal/index"
	"paperqa/internal/loader"
	"paperqa/internal/pipeline"
	"paperqa/internal/queue"
)

type queryRequest struct {
	Question   string `json:"question" validate:"required,min=3,max=500"`
	DocumentID string `json:"document_id" validate:"required,min=1,max=200"`
}

type ingestTaskPayload struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	r := httputil.NewRouter(deps.Log)

	r.Post("/api/documents/upload", uploadHandler(deps))
	r.Post("/api/query", queryHandler(deps))
	r.Get("/api/documents/{id}/related", relatedHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	deps.Log.Info("server listening", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		deps.Log.Error("server failed", "err", err)
	}
}

func uploadHandler(deps app.Deps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			httputil.Fail(deps.Log, w, "file is required", err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		if header.Size > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}
		if !isPDF(header.Filename, header.Header.Get("Content-Type")) {
			httputil.Fail(deps.Log, w, "unsupported file type (only PDF allowed)", nil, http.StatusBadRequest)
			return
		}

		content, err := io.ReadAll(file)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to read file", err, http.StatusInternalServerError)
			return
		}

		// With a queue configured, ?async=1 defers ingestion to a worker.
		if r.URL.Query().Get("async") == "1" && deps.Queue != nil {
			enqueueIngest(deps, w, r, header.Filename, content)
			return
		}

		res, err := deps.Pipeline.Ingest(r.Context(), content, header.Filename)
		if err != nil {
			status := http.StatusInternalServerError
			var le *loader.LoadError
			if errors.As(err, &le) || errors.Is(err, pipeline.ErrEmptyDocument) {
				status = http.StatusUnprocessableEntity
			}
			httputil.Fail(deps.Log, w, "ingestion failed", err, status)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, res)
	}
}

func enqueueIngest(deps app.Deps, w http.ResponseWriter, r *http.Request, filename string, content []byte) {
	body, err := json.Marshal(ingestTaskPayload{Filename: filename, Content: content})
	if err != nil {
		httputil.Fail(deps.Log, w, "marshal payload failed", err, http.StatusInternalServerError)
		return
	}
	task := queue.Task{Type: queue.TaskTypeIngest, Payload: body}
	if err := queue.EnqueueWithRetry(r.Context(), deps.Queue, task, 3, 200*time.Millisecond); err != nil {
		httputil.Fail(deps.Log, w, "failed to enqueue document; please retry", err, http.StatusInternalServerError)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
		"document_id": pipeline.DocumentID(filename),
		"status":      "queued",
	})
}

func queryHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		res, err := deps.Pipeline.Ask(r.Context(), req.Question, req.DocumentID)
		if err != nil {
			if errors.Is(err, index.ErrIndexNotFound) {
				httputil.Fail(deps.Log, w, "document not ingested", err, http.StatusNotFound)
				return
			}
			httputil.Fail(deps.Log, w, "query failed", err, http.StatusInternalServerError)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, res)
	}
}

func relatedHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docID := chi.URLParam(r, "id")
		if docID == "" {
			httputil.Fail(deps.Log, w, "document id required", nil, http.StatusBadRequest)
			return
		}
		res, err := deps.Pipeline.Related(r.Context(), docID)
		if err != nil {
			if errors.Is(err, index.ErrIndexNotFound) {
				httputil.Fail(deps.Log, w, "document not ingested", err, http.StatusNotFound)
				return
			}
			httputil.Fail(deps.Log, w, "related papers lookup failed", err, http.StatusInternalServerError)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, res)
	}
}

// isPDF accepts by Content-Type when present, falling back to the extension.
func isPDF(filename, contentType string) bool {
	if contentType != "" {
		return contentType == "application/pdf" || strings.HasPrefix(contentType, "application/pdf;")
	}
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"

	"paperqa/internal/answer"
	"paperqa/internal/app"
	"paperqa/internal/cache"
	"paperqa/internal/chunker"
	"paperqa/internal/config"
	"paperqa/internal/index"
	"paperqa/internal/llm"
	"paperqa/internal/loader"
	"paperqa/internal/papers"
	"paperqa/internal/pipeline"
	"paperqa/internal/summarize"
	"paperqa/internal/tokens"
)

const answerSystem = "You answer questions using ONLY the provided document chunks."

func newTestDeps(t *testing.T, client llm.Client) app.Deps {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := index.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("fs store: %v", err)
	}
	strategy := index.NewLexicalStrategy(store)
	p := pipeline.New(pipeline.Params{
		Log:          log,
		ChunkOptions: chunker.Options{Size: 200, Overlap: 20},
		Thresholds:   tokens.DefaultThresholds(),
		Summarizer:   summarize.New(client, log, summarize.Options{}),
		Indexer:      strategy,
		Retriever:    strategy,
		Store:        store,
		Answerer:     answer.New(client, log),
		Finder:       papers.NewFinder(nil, nil, log, 7),
		Cache:        cache.NewNoOpCache(),
		CacheTTL:     time.Minute,
		TopK:         3,
	})
	return app.Deps{
		Config:   config.Config{MaxUploadSize: 1 << 20},
		Log:      log,
		Pipeline: p,
	}
}

func ingestSample(t *testing.T, deps app.Deps, docID string) {
	t.Helper()
	pages := []loader.Page{
		{Number: 1, Text: strings.Repeat("Neural networks learn representations from data. ", 10)},
	}
	if _, err := deps.Pipeline.IngestPages(context.Background(), docID, pages); err != nil {
		t.Fatalf("ingest: %v", err)
	}
}

func TestQueryHandler(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    string
		setup          func(*testing.T, app.Deps, *llm.MockClient)
		wantStatusCode int
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name:        "successful query",
			requestBody: `{"question": "What do neural networks learn?", "document_id": "paper"}`,
			setup: func(t *testing.T, deps app.Deps, client *llm.MockClient) {
				client.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("summary", nil).Once()
				ingestSample(t, deps, "paper")
				client.On("Complete", mock.Anything, answerSystem, mock.Anything).
					Return("1) Representations.\n2) Chunk 1", nil).Once()
			},
			wantStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var result map[string]any
				if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if result["answer"] != "1) Representations.\n2) Chunk 1" {
					t.Errorf("unexpected answer: %v", result["answer"])
				}
			},
		},
		{
			name:           "missing question fails validation",
			requestBody:    `{"document_id": "paper"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "question too short fails validation",
			requestBody:    `{"question": "ab", "document_id": "paper"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "malformed json",
			requestBody:    `{"question": `,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "unknown document",
			requestBody:    `{"question": "What do neural networks learn?", "document_id": "ghost"}`,
			wantStatusCode: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(llm.MockClient)
			deps := newTestDeps(t, client)
			if tt.setup != nil {
				tt.setup(t, deps, client)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(tt.requestBody))
			rec := httptest.NewRecorder()
			queryHandler(deps)(rec, req)

			resp := rec.Result()
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatusCode {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatusCode)
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
			client.AssertExpectations(t)
		})
	}
}

func multipartBody(t *testing.T, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	if contentType != "" {
		hdr.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUploadHandler(t *testing.T) {
	tests := []struct {
		name           string
		filename       string
		fileType       string
		content        []byte
		wantStatusCode int
	}{
		{
			name:           "unparseable pdf",
			filename:       "broken.pdf",
			fileType:       "application/pdf",
			content:        []byte("not actually a pdf"),
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:           "unsupported type",
			filename:       "notes.txt",
			fileType:       "text/plain",
			content:        []byte("plain text"),
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "pdf by extension when content type missing",
			filename:       "broken.pdf",
			fileType:       "",
			content:        []byte("still not a pdf"),
			wantStatusCode: http.StatusUnprocessableEntity,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps(t, new(llm.MockClient))

			body, formType := multipartBody(t, tt.filename, tt.fileType, tt.content)
			req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
			req.Header.Set("Content-Type", formType)
			rec := httptest.NewRecorder()
			uploadHandler(deps)(rec, req)

			if rec.Code != tt.wantStatusCode {
				t.Fatalf("status = %d, want %d (body %q)", rec.Code, tt.wantStatusCode, rec.Body.String())
			}
		})
	}
}

func TestUploadHandlerRejectsOversizedBody(t *testing.T) {
	deps := newTestDeps(t, new(llm.MockClient))
	deps.Config.MaxUploadSize = 10

	body, formType := multipartBody(t, "big.pdf", "application/pdf", bytes.Repeat([]byte("x"), 100))
	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
	req.Header.Set("Content-Type", formType)
	rec := httptest.NewRecorder()
	uploadHandler(deps)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestRelatedHandlerUnknownDocument(t *testing.T) {
	deps := newTestDeps(t, new(llm.MockClient))

	r := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/documents/ghost/related", nil)
	req = withChiParam(req, "id", "ghost")
	relatedHandler(deps)(r, req)

	if r.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", r.Code, http.StatusNotFound)
	}
}

func withChiParam(r *http.Request, key, val string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, val)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestIsPDF(t *testing.T) {
	tests := []struct {
		filename    string
		contentType string
		want        bool
	}{
		{"paper.pdf", "application/pdf", true},
		{"paper.pdf", "", true},
		{"paper.PDF", "", true},
		{"paper.txt", "text/plain", false},
		{"paper", "", false},
		{"paper.pdf", "text/plain", false},
	}
	for _, tt := range tests {
		if got := isPDF(tt.filename, tt.contentType); got != tt.want {
			t.Errorf("isPDF(%q, %q) = %v, want %v", tt.filename, tt.contentType, got, tt.want)
		}
	}
}

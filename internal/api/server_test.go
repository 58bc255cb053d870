package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/sectiongest/internal/chunker"
	"github.com/dgallion1/sectiongest/internal/config"
	"github.com/dgallion1/sectiongest/internal/pathstore"
	"github.com/dgallion1/sectiongest/internal/pipeline"
)

const testAPIKey = "test-key"

const numberedDoc = "Preamble\n 1 Introduction\nIntro body.\n 1.1 Scope\nScope body.\n 2 Terms\nTerms body.\n"

type fakeStore struct {
	mu    sync.Mutex
	nodes map[string]any
}

func newFakeStore() *fakeStore { return &fakeStore{nodes: map[string]any{}} }

func (f *fakeStore) PutNode(ctx context.Context, key string, req pathstore.NodeRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nodes[key] = req.Value
	return nil
}

func (f *fakeStore) GetNode(ctx context.Context, key string) (*pathstore.NodeResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.nodes[key]
	if !ok {
		return nil, nil
	}
	return &pathstore.NodeResponse{Key: key, Value: v}, nil
}

func (f *fakeStore) DeleteNode(ctx context.Context, key string, recursive bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.nodes, key)
	if recursive {
		for k := range f.nodes {
			if strings.HasPrefix(k, key+"/") {
				delete(f.nodes, k)
			}
		}
	}
	return nil
}

func (f *fakeStore) ListChildren(ctx context.Context, key string, limit int) ([]pathstore.ChildNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []pathstore.ChildNode
	for k, v := range f.nodes {
		if strings.HasPrefix(k, key+"/") {
			out = append(out, pathstore.ChildNode{Key: k, Value: v})
		}
	}
	return out, nil
}

func (f *fakeStore) PutLink(ctx context.Context, req pathstore.LinkRequest) error { return nil }

func newTestServer(t *testing.T, store pipeline.Store) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		APIKey:             testAPIKey,
		WorkerCount:        1,
		MaxQueueSize:       4,
		MaxConcurrentStore: 1,
		MaxUploadBytes:     1 << 20,
		JobTTL:             time.Hour,
	}
	orch := pipeline.NewOrchestrator(cfg, chunker.New(chunker.WithLogger(log)), store, log)
	return NewServer(orch, log, cfg)
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func multipartBody(t *testing.T, fields map[string]string, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(content))
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, newFakeStore())
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, newFakeStore())

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic " + testAPIKey},
		{"wrong key", "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/stats/chunking", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if rec := serve(s, req); rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestChunk_RawBody(t *testing.T) {
	s := newTestServer(t, newFakeStore())
	req := authed(httptest.NewRequest(http.MethodPost, "/api/chunk?filename=spec.txt", strings.NewReader(numberedDoc)))
	req.Header.Set("Content-Type", "text/plain")

	rec := serve(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp chunkResponse
	decode(t, rec, &resp)
	if resp.Sections != 3 {
		t.Errorf("expected 3 sections, got %d", resp.Sections)
	}
	if len(resp.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(resp.Chunks))
	}
	if got := resp.Chunks[1].Breadcrumb; len(got) != 2 || got[1] != "1.1 Scope" {
		t.Errorf("unexpected breadcrumb %v", got)
	}
	if resp.Tree != nil {
		t.Error("expected no tree without tree=true")
	}
	if resp.Title != "spec" {
		t.Errorf("expected title from filename, got %q", resp.Title)
	}
}

func TestChunk_MultipartWithTree(t *testing.T) {
	s := newTestServer(t, newFakeStore())
	body, ct := multipartBody(t, map[string]string{"tree": "true", "title": "Spec"}, "spec.txt", numberedDoc)
	req := authed(httptest.NewRequest(http.MethodPost, "/api/chunk", body))
	req.Header.Set("Content-Type", ct)

	rec := serve(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp chunkResponse
	decode(t, rec, &resp)
	if resp.Tree == nil {
		t.Fatal("expected tree in response")
	}
	if resp.Tree.Title != "Spec" || len(resp.Tree.Children) != 2 {
		t.Errorf("unexpected tree %+v", resp.Tree)
	}
	if n := resp.Tree.Children[0]; n.Number != "1" || len(n.Children) != 1 {
		t.Errorf("unexpected first root %+v", n)
	}
}

func TestChunk_Errors(t *testing.T) {
	longLine := strings.Repeat("word ", 20)
	tests := []struct {
		name     string
		url      string
		body     string
		wantCode int
		wantErr  string
	}{
		{"no sections", "/api/chunk?filename=a.txt", "just prose\n", http.StatusUnprocessableEntity, "no_sections_found"},
		{"line too long", "/api/chunk?filename=a.txt&max_words=10", "\n 1 Introduction\n" + longLine + "\n 2 Terms\nend\n", http.StatusUnprocessableEntity, "line_too_long"},
		{"bad max_words", "/api/chunk?filename=a.txt&max_words=-1", numberedDoc, http.StatusBadRequest, "max_words"},
		{"unsupported type", "/api/chunk?filename=a.xlsx", numberedDoc, http.StatusBadRequest, "unsupported"},
	}
	s := newTestServer(t, newFakeStore())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := authed(httptest.NewRequest(http.MethodPost, tt.url, strings.NewReader(tt.body)))
			req.Header.Set("Content-Type", "text/plain")
			rec := serve(s, req)
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.wantErr) {
				t.Errorf("expected body to mention %q, got %s", tt.wantErr, rec.Body.String())
			}
		})
	}
}

func TestIngest_QueuesJob(t *testing.T) {
	s := newTestServer(t, newFakeStore())
	body, ct := multipartBody(t, map[string]string{"user_id": "u1"}, "spec.txt", numberedDoc)
	req := authed(httptest.NewRequest(http.MethodPost, "/api/ingest", body))
	req.Header.Set("Content-Type", ct)

	rec := serve(s, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	decode(t, rec, &resp)
	jobID, _ := resp["job_id"].(string)
	if jobID == "" {
		t.Fatal("expected job_id")
	}

	// The orchestrator is not started, so the job stays queued.
	rec = serve(s, authed(httptest.NewRequest(http.MethodGet, "/api/ingest/"+jobID+"/status", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var status map[string]any
	decode(t, rec, &status)
	if status["status"] != string(pipeline.StatusQueued) {
		t.Errorf("expected queued, got %v", status["status"])
	}
}

func TestIngest_Validation(t *testing.T) {
	s := newTestServer(t, newFakeStore())

	body, ct := multipartBody(t, nil, "spec.txt", numberedDoc)
	req := authed(httptest.NewRequest(http.MethodPost, "/api/ingest", body))
	req.Header.Set("Content-Type", ct)
	if rec := serve(s, req); rec.Code != http.StatusBadRequest {
		t.Errorf("missing user_id: expected 400, got %d", rec.Code)
	}

	body, ct = multipartBody(t, map[string]string{"user_id": "u1"}, "sheet.xlsx", "x")
	req = authed(httptest.NewRequest(http.MethodPost, "/api/ingest", body))
	req.Header.Set("Content-Type", ct)
	if rec := serve(s, req); rec.Code != http.StatusBadRequest {
		t.Errorf("unsupported type: expected 400, got %d", rec.Code)
	}

	rec := serve(s, authed(httptest.NewRequest(http.MethodGet, "/api/ingest/nope/status", nil)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown job: expected 404, got %d", rec.Code)
	}
}

func TestDocuments_ListAndDelete(t *testing.T) {
	store := newFakeStore()
	prefix := pipeline.DocPrefix("u1", "d1")
	store.nodes[prefix+"/meta"] = map[string]any{"filename": "spec.txt", "content_hash": "abc"}
	store.nodes[pipeline.ChunkPath("u1", "d1", 0)] = map[string]any{"text": "x"}
	store.nodes[pipeline.ChunkPath("u1", "d1", 1)] = map[string]any{"text": "y"}
	store.nodes[pipeline.HashIndexPrefix("u1", "abc")+"/d1"] = map[string]any{}
	s := newTestServer(t, store)

	rec := serve(s, authed(httptest.NewRequest(http.MethodGet, "/api/documents?user_id=u1", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var list struct {
		Documents []map[string]any `json:"documents"`
	}
	decode(t, rec, &list)
	if len(list.Documents) != 1 {
		t.Fatalf("expected 1 document, got %d", len(list.Documents))
	}

	rec = serve(s, authed(httptest.NewRequest(http.MethodDelete, "/api/documents/d1?user_id=u1", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	var del map[string]any
	decode(t, rec, &del)
	if del["chunks_deleted"] != float64(2) || del["hash_index_deleted"] != true {
		t.Errorf("unexpected delete response %v", del)
	}
	if len(store.nodes) != 0 {
		t.Errorf("expected store to be empty, got %v", store.nodes)
	}

	rec = serve(s, authed(httptest.NewRequest(http.MethodGet, "/api/documents", nil)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing user_id: expected 400, got %d", rec.Code)
	}
}

func TestChunkingStats(t *testing.T) {
	s := newTestServer(t, newFakeStore())
	req := authed(httptest.NewRequest(http.MethodPost, "/api/chunk?filename=spec.txt", strings.NewReader(numberedDoc)))
	serve(s, req)

	rec := serve(s, authed(httptest.NewRequest(http.MethodGet, "/api/stats/chunking", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		MaxWords int                    `json:"max_words"`
		Grammar  string                 `json:"grammar"`
		Latency  pipeline.StatsSnapshot `json:"latency"`
	}
	decode(t, rec, &resp)
	if resp.MaxWords != chunker.DefaultMaxWords || resp.Grammar != "dotted" {
		t.Errorf("unexpected stats %+v", resp)
	}
	if resp.Latency.Count != 1 {
		t.Errorf("expected 1 latency sample, got %d", resp.Latency.Count)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"../../etc/passwd", "passwd"},
		{"spec.txt", "spec.txt"},
		{"", "unnamed"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

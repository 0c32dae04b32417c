package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/vaultmetrics/internal/metrics"
	"github.com/starford/vaultmetrics/internal/models"
	"github.com/starford/vaultmetrics/internal/service"
	"github.com/starford/vaultmetrics/internal/testutil"
)

// testEnv sets up a temp vault, service, and router for testing.
// An empty authToken means disabled mode; otherwise token mode.
func testEnv(t *testing.T, authToken string) (*service.Service, http.Handler) {
	t.Helper()
	return testEnvWithSSE(t, authToken != "", authToken, nil)
}

func testEnvWithSSE(t *testing.T, authEnabled bool, token string, sseHandler http.Handler) (*service.Service, http.Handler) {
	t.Helper()
	_, store := testutil.TestVault(t, testutil.SampleNotes)
	svc := service.New(store, metrics.Options{TodoTags: metrics.TodoTagsAll}, "metrics.json", testutil.Logger())
	return svc, NewRouter(svc, authEnabled, token, sseHandler)
}

type snapshotDoc struct {
	NoteInfo []metrics.NoteMetrics `json:"note_info"`
	Digraph  struct {
		Nodes []metrics.NoteMetrics `json:"nodes"`
		Edges [][]any               `json:"edges"`
	} `json:"digraph"`
	CountDuplicatedNotesByName int `json:"count_duplicated_notes_by_name"`
}

func postMetrics(t *testing.T, router http.Handler, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/metrics", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestComputeMetrics(t *testing.T) {
	_, router := testEnv(t, "")

	body, _ := json.Marshal(models.Request{
		PathToVault: "/v",
		Notes: []models.NoteInput{
			{FullText: "see [[b]]", Path: "/v/a.md"},
			{FullText: "---\ntags: [x]\n---\nbody", Path: "/v/dir/b.md"},
		},
	})
	w := postMetrics(t, router, body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("content type = %q", ct)
	}

	var doc snapshotDoc
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.NoteInfo) != 2 {
		t.Fatalf("note_info = %d, want 2", len(doc.NoteInfo))
	}
	if doc.NoteInfo[1].PathDepth != 2 || doc.NoteInfo[1].CountYAMLField != 1 {
		t.Errorf("b metrics = %+v", doc.NoteInfo[1])
	}
	if len(doc.Digraph.Edges) != 1 {
		t.Errorf("edges = %v, want one a -> b edge", doc.Digraph.Edges)
	}
}

func TestComputeMetrics_EmptyPayload(t *testing.T) {
	_, router := testEnv(t, "")

	w := postMetrics(t, router, []byte(`{"notes":[],"path_to_vault":"/v"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var doc snapshotDoc
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.NoteInfo) != 0 || doc.CountDuplicatedNotesByName != 0 {
		t.Errorf("empty vault snapshot = %+v", doc)
	}
}

func TestComputeMetrics_InvalidJSON(t *testing.T) {
	_, router := testEnv(t, "")

	w := postMetrics(t, router, []byte("{not json"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid body = %d, want 400", w.Code)
	}
}

func TestComputeMetrics_PayloadTooLarge(t *testing.T) {
	svc, _ := testEnv(t, "")
	h := &Handler{svc: svc, maxPayload: 64}

	body, _ := json.Marshal(models.Request{
		PathToVault: "/v",
		Notes:       []models.NoteInput{{FullText: strings.Repeat("x", 256), Path: "/v/a.md"}},
	})
	req := httptest.NewRequest(http.MethodPost, "/metrics", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ComputeMetrics(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body = %d, want 413", w.Code)
	}
}

func TestComputeMetrics_PathOutsideVault(t *testing.T) {
	_, router := testEnv(t, "")

	body, _ := json.Marshal(models.Request{
		PathToVault: "/v",
		Notes:       []models.NoteInput{{FullText: "x", Path: "/other/x.md"}},
	})
	w := postMetrics(t, router, body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("outside root = %d, want 422", w.Code)
	}
}

func TestVaultMetrics(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var doc snapshotDoc
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.NoteInfo) != 4 {
		t.Errorf("note_info = %d, want 4 (broken note skipped)", len(doc.NoteInfo))
	}
	if doc.CountDuplicatedNotesByName != 1 {
		t.Errorf("duplicates = %d, want 1", doc.CountDuplicatedNotesByName)
	}
}

func TestNoteMetricsEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/metrics/notes/projects%2Falpha.md", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var m metrics.NoteMetrics
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatal(err)
	}
	if m.PathDepth != 2 || m.Todos != 2 {
		t.Errorf("alpha = %+v", m)
	}
}

func TestNoteMetrics_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/metrics/notes/nope.md", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing note = %d, want 404", w.Code)
	}
}

func TestDuplicatesEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/duplicates", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp DuplicatesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 1 || len(resp.Duplicates["ideas"]) != 2 {
		t.Errorf("duplicates = %+v", resp)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodPost, "/metrics", strings.NewReader(`{"notes":[]}`))
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

// blockingSSE writes headers and blocks until the request context ends.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "secret", blockingSSE)

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
}

func TestSSEEvents_NotMounted(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("events without broker = %d, want 404", w.Code)
	}
}

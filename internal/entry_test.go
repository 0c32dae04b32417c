package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/vaultmetrics/internal/metrics"
	"github.com/starford/vaultmetrics/internal/service"
	"github.com/starford/vaultmetrics/internal/testutil"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	root, _ := testutil.TestVault(t, testutil.SampleNotes)
	cfg := NewDefaultConfig()
	cfg.Vault.Path = root
	return cfg
}

func TestGenerate_WritesOutput(t *testing.T) {
	cfg := testConfig(t)

	res, err := Generate(context.Background(), WithConfig(cfg), WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !res.Changed || res.Notes != 4 || res.Skipped != 1 {
		t.Errorf("result = %+v", res)
	}

	data, err := os.ReadFile(filepath.Join(cfg.Vault.Path, "metrics.json"))
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	for _, key := range []string{"note_info", "digraph", "count_duplicated_notes_by_name"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("output missing %q", key)
		}
	}

	res, err = Generate(context.Background(), WithConfig(cfg), WithLogOutput(io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	if res.Changed {
		t.Error("second run should leave the output untouched")
	}
}

func TestGenerate_MissingVault(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Vault.Path = filepath.Join(t.TempDir(), "absent")
	if _, err := Generate(context.Background(), WithConfig(cfg), WithLogOutput(io.Discard)); err == nil {
		t.Fatal("expected error for missing vault")
	}
}

func TestRequiresConfig(t *testing.T) {
	if _, err := Generate(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestCompute_StdinToStdout(t *testing.T) {
	in := strings.NewReader(`{"notes":[{"full_text":"#todo link [[b]]","path":"/v/a.md"},{"full_text":"b","path":"/v/b.md"}],"path_to_vault":"/v"}`)
	var out bytes.Buffer

	err := Compute(context.Background(), in, &out, WithConfig(NewDefaultConfig()), WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	var doc struct {
		NoteInfo []metrics.NoteMetrics `json:"note_info"`
	}
	if err := json.Unmarshal(out.Bytes(), &doc); err != nil {
		t.Fatalf("decode %q: %v", out.String(), err)
	}
	if len(doc.NoteInfo) != 2 || doc.NoteInfo[0].Todos != 1 {
		t.Errorf("note_info = %+v", doc.NoteInfo)
	}
}

func TestCompute_BadInput(t *testing.T) {
	var out bytes.Buffer
	err := Compute(context.Background(), strings.NewReader("nope"), &out, WithConfig(NewDefaultConfig()), WithLogOutput(io.Discard))
	if err == nil {
		t.Fatal("expected decode error")
	}
	if out.Len() != 0 {
		t.Errorf("nothing should be written on error, got %q", out.String())
	}
}

func TestHTTPHandler_HealthAndAPI(t *testing.T) {
	root, store := testutil.TestVault(t, testutil.SampleNotes)
	cfg := NewDefaultConfig()
	cfg.Vault.Path = root
	svc := service.New(store, cfg.Metrics.Options(""), cfg.Vault.Output, testutil.Logger())
	h := NewHTTPHandler(cfg, svc, nil)

	for _, path := range []string{"/health/live", "/health/ready", "/api/metrics", "/api/duplicates"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, w.Code)
		}
	}
}

func TestHTTPHandler_TokenAuth(t *testing.T) {
	root, store := testutil.TestVault(t, testutil.SampleNotes)
	cfg := NewDefaultConfig()
	cfg.Vault.Path = root
	cfg.Auth = AuthConfig{Mode: AuthModeToken, Token: "s3cret"}
	svc := service.New(store, cfg.Metrics.Options(""), cfg.Vault.Output, testutil.Logger())
	h := NewHTTPHandler(cfg, svc, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health should stay public, got %d", w.Code)
	}
}

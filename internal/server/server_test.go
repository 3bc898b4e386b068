package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"ragbot/internal/config"
	"ragbot/internal/domain"
	"ragbot/internal/service"
)

const testContent = `=== PAGINA: Orari ===
Il museo apre alle 9 e chiude alle 18.

=== PAGINA: Prezzi ===
Il biglietto intero costa 12 euro.`

func newTestRouter(t *testing.T) (http.Handler, string) {
	t.Helper()
	t.Setenv("RAGBOT_TEST_LLM_KEY", "")

	contentPath := filepath.Join(t.TempDir(), "content.txt")
	if err := os.WriteFile(contentPath, []byte(testContent), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := &config.AppConfig{
		Paths:     config.PathsConfig{IndexDir: t.TempDir(), ContentFile: contentPath},
		Chunking:  config.ChunkingConfig{ChunkSize: 500, ChunkOverlap: 50},
		Embedder:  config.EmbedderConfig{Type: "hashing", BatchSize: 8, Hashing: &config.HashingEmbedderConfig{Dimension: 64}},
		Retrieval: config.RetrievalConfig{TopK: 3},
		LLM:       config.LLMConfig{APIKeyEnv: "RAGBOT_TEST_LLM_KEY"},
	}
	svc, err := service.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return NewRouter(NewHandler(svc)), contentPath
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthBeforeBuild(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var health healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "ok" || health.IndexReady {
		t.Errorf("health = %+v, want ok and not ready", health)
	}
}

func TestRetrieveBeforeBuildConflicts(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/retrieve", retrieveRequest{Query: "prezzi"})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestStatsBeforeBuildConflicts(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/stats", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestBuildThenRetrieve(t *testing.T) {
	router, contentPath := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/build", buildRequest{ContentPath: contentPath})
	if rec.Code != http.StatusOK {
		t.Fatalf("build status = %d: %s", rec.Code, rec.Body.String())
	}
	var stats struct {
		TotalChunks int `json:"total_chunks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.TotalChunks != 2 {
		t.Errorf("total_chunks = %d, want 2", stats.TotalChunks)
	}

	rec = doJSON(t, router, http.MethodGet, "/health", nil)
	var health healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	if !health.IndexReady {
		t.Error("index must be ready after build")
	}

	rec = doJSON(t, router, http.MethodPost, "/retrieve", retrieveRequest{Query: "quanto costa il biglietto intero", TopK: 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("retrieve status = %d: %s", rec.Code, rec.Body.String())
	}
	var results []domain.RetrievalResult
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Rank != 1 {
		t.Errorf("first result rank = %d", results[0].Rank)
	}
}

func TestAskWithoutLLMKey(t *testing.T) {
	router, contentPath := newTestRouter(t)
	if rec := doJSON(t, router, http.MethodPost, "/build", buildRequest{ContentPath: contentPath}); rec.Code != http.StatusOK {
		t.Fatalf("build status = %d", rec.Code)
	}
	rec := doJSON(t, router, http.MethodPost, "/ask", askRequest{Query: "quanto costa?"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestBuildMissingContentPath(t *testing.T) {
	router, _ := newTestRouter(t)
	missing := filepath.Join(t.TempDir(), "missing.txt")
	rec := doJSON(t, router, http.MethodPost, "/build", buildRequest{ContentPath: missing})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404: %s", rec.Code, rec.Body.String())
	}
}

func TestRetrieveMissingQuery(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/retrieve", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAskMissingQuery(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/ask", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/ask", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("preflight status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestContentTypeHeader(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
}

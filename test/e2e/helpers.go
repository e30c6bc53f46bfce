//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clarivex-health/advera/internal/api/handlers"
	"github.com/clarivex-health/advera/internal/repository"
	"github.com/clarivex-health/advera/internal/server"
	"github.com/clarivex-health/advera/internal/service"
	"github.com/clarivex-health/advera/internal/storage"
	"github.com/clarivex-health/advera/internal/testutil"
)

// E2ETestEnv holds all resources needed for end-to-end tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	Ingest       *service.IngestService
	HTTPClient   *http.Client
}

// fakeEmbeddingClient produces deterministic 384-dim embeddings from word
// hashes, so texts sharing vocabulary get genuinely similar vectors without
// calling a real embedding backend.
type fakeEmbeddingClient struct{}

func (c *fakeEmbeddingClient) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, 384)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(strings.Trim(word, ".,;:()")))
		v[h.Sum32()%384] += 1.0
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm > 0 {
		scale := float32(1.0 / math.Sqrt(norm))
		for i := range v {
			v[i] *= scale
		}
	}
	return v, nil
}

// fakeGenerationClient returns a canned seven-section assessment so field
// extraction has real headings to work against.
type fakeGenerationClient struct{}

func (c *fakeGenerationClient) GenerateCompletion(_ context.Context, _, _ string) (string, error) {
	return `1. CASE SUMMARY
The patient developed the reported adverse event during therapy.

2. MECHANISTIC EXPLANATION
The pathway is known. Direct pharmacologic toxicity at the target tissue explains the presentation. Dose dependence is typical.

3. SYNDROME CORRELATION
The picture fits a recognized pattern. Probable drug-induced syndrome consistent with the retrieved profiles. Criteria are met.

4. LITERATURE CONTEXT
Published case series describe similar presentations.

5. SERIOUSNESS ASSESSMENT
Classification follows. Severe, warranting prompt clinical review. Hospitalization may be required.

6. REGULATORY CAUSALITY ASSESSMENT
Applying WHO-UMC categories. Probable/Likely based on the temporal relationship and dechallenge response. No rechallenge was performed.

7. CLINICAL RECOMMENDATIONS
The following applies. Discontinue the implicated drug and monitor until resolution. Document the reaction in the patient record.`, nil
}

// SetupE2EEnv starts a pgvector container and an HTTP server wired with fake
// embedding and generation backends plus a local report store.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	chunkRepo := repository.NewChunkRepository(pool)
	embedding := &fakeEmbeddingClient{}

	reportStore, err := storage.NewLocalReportStore(filepath.Join(t.TempDir(), "reports"))
	if err != nil {
		t.Fatalf("failed to create report store: %v", err)
	}

	ingestSvc := service.NewIngestService(chunkRepo, embedding)
	knowledgeSvc := service.NewKnowledgeService(chunkRepo, embedding)
	retriever := service.NewRetrieverService(chunkRepo, embedding, 5, 3)
	narrativeSvc := service.NewNarrativeService(retriever, &fakeGenerationClient{}, reportStore)

	cfg := server.RouterConfig{
		NarrativeHandler: handlers.NewNarrativeHandler(narrativeSvc),
		KnowledgeHandler: handlers.NewKnowledgeHandler(knowledgeSvc),
		HealthHandler:    handlers.NewHealthHandler(pool, true, true),
	}

	router := server.NewRouter(cfg)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return &E2ETestEnv{
		T:         t,
		Ctx:       ctx,
		PostgresC: pgC,
		Pool:      pool,
		ServerURL: serverURL,
		ServerCloser: func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		},
		Ingest:     ingestSvc,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// SeedKnowledge writes knowledge documents into temp directories and ingests
// them through the real ingestion path.
func (e *E2ETestEnv) SeedKnowledge(drugDocs, syndromeDocs map[string]string) {
	drugDir := filepath.Join(e.T.TempDir(), "drug_knowledge")
	syndromeDir := filepath.Join(e.T.TempDir(), "syndrome_knowledge")

	writeDocs := func(dir string, docs map[string]string) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			e.T.Fatalf("failed to create knowledge dir: %v", err)
		}
		for name, content := range docs {
			if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
				e.T.Fatalf("failed to write knowledge doc: %v", err)
			}
		}
	}
	writeDocs(drugDir, drugDocs)
	writeDocs(syndromeDir, syndromeDocs)

	if _, err := e.Ingest.IngestDirectory(e.Ctx, drugDir, "drug"); err != nil {
		e.T.Fatalf("failed to ingest drug knowledge: %v", err)
	}
	if _, err := e.Ingest.IngestDirectory(e.Ctx, syndromeDir, "syndrome"); err != nil {
		e.T.Fatalf("failed to ingest syndrome knowledge: %v", err)
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	return e.doRequest(http.MethodGet, path, nil)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest(http.MethodPost, path, body)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) (*APIResponse, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, e.ServerURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

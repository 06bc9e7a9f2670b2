//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/cloo-solutions/agentrag/internal/api/handlers"
	"github.com/cloo-solutions/agentrag/internal/crawler"
	"github.com/cloo-solutions/agentrag/internal/jobs"
	"github.com/cloo-solutions/agentrag/internal/repository"
	"github.com/cloo-solutions/agentrag/internal/server"
	"github.com/cloo-solutions/agentrag/internal/service"
	"github.com/cloo-solutions/agentrag/internal/storage"
	"github.com/cloo-solutions/agentrag/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	testCollection = "e2e_chunks"
	testVectorSize = 8
	testBucket     = "agentrag-uploads"
)

// hashEmbedder derives a deterministic unit vector from each text.
type hashEmbedder struct{}

func (hashEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		sum := sha256.Sum256([]byte(text))
		vec := make([]float32, testVectorSize)
		var norm float64
		for j := range vec {
			v := float64(binary.BigEndian.Uint32(sum[j*4:])%1000) + 1
			vec[j] = float32(v)
			norm += v * v
		}
		for j := range vec {
			vec[j] = float32(float64(vec[j]) / math.Sqrt(norm))
		}
		out[i] = vec
	}
	return out, nil
}

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T         *testing.T
	Ctx       context.Context
	Pool      *pgxpool.Pool
	S3Client  *storage.S3Client
	Server    *httptest.Server
	Site      *httptest.Server
	Worker    *jobs.TrainingWorker
	Vectors   *repository.VectorIndexRepository
	OwnerID   string
	Token     string
	BinaryDir string

	auth *service.AuthService
}

// SetupE2EEnv starts Postgres and RustFS, wires the full service graph
// in process and registers one owner with an API key.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	t.Helper()
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { pgC.Terminate(ctx) })
	s3C := testutil.NewRustFSContainer(ctx, t)
	t.Cleanup(func() { s3C.Terminate(ctx) })

	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")
	t.Cleanup(pool.Close)

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          testBucket,
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	env := &E2ETestEnv{
		T:        t,
		Ctx:      ctx,
		Pool:     pool,
		S3Client: s3Client,
		Site:     newSite(t),
		Vectors:  repository.NewVectorIndexRepository(pool),
	}
	env.startServer()
	env.bootstrap()
	return env
}

func (e *E2ETestEnv) startServer() {
	uuidGen := &service.DefaultUUIDGenerator{}
	ownerRepo := repository.NewOwnerRepository(e.Pool)
	apiKeyRepo := repository.NewAPIKeyRepository(e.Pool)
	agentRepo := repository.NewAgentRepository(e.Pool)
	fileRepo := repository.NewAgentFileRepository(e.Pool)
	jobRepo := repository.NewTrainingJobRepository(e.Pool)

	index := service.NewIndexManager(e.Vectors, service.IndexManagerConfig{
		Collection: testCollection,
		VectorSize: testVectorSize,
	}, repository.NewAdvisoryLocker(e.Pool))
	training := service.NewTrainingService(fileRepo, hashEmbedder{}, index)

	authSvc := service.NewAuthService(ownerRepo, apiKeyRepo, uuidGen)
	agentSvc := service.NewAgentService(agentRepo)
	fileSvc := service.NewAgentFileService(fileRepo, agentSvc, repository.NewTxRunner(e.Pool))
	jobSvc := service.NewTrainingJobService(jobRepo, agentSvc, training)
	ingestSvc := service.NewIngestService(fileSvc, agentSvc, crawler.New(crawler.Config{Workers: 2}), e.S3Client)

	worker, err := jobs.NewTrainingWorker(jobRepo, training, 2)
	if err != nil {
		e.T.Fatalf("failed to create worker: %v", err)
	}
	e.T.Cleanup(worker.Release)
	e.Worker = worker

	e.Server = httptest.NewServer(server.NewRouter(server.RouterConfig{
		AuthValidator:   authSvc,
		AgentHandler:    handlers.NewAgentHandler(agentSvc),
		FileHandler:     handlers.NewFileHandler(fileSvc),
		TrainingHandler: handlers.NewTrainingHandler(jobSvc),
		IngestHandler:   handlers.NewIngestHandler(ingestSvc),
	}))
	e.T.Cleanup(e.Server.Close)

	e.auth = authSvc
}

func (e *E2ETestEnv) bootstrap() {
	owner, err := e.auth.EnsureOwner(e.Ctx, "e2e owner")
	if err != nil {
		e.T.Fatalf("failed to create owner: %v", err)
	}
	token, err := e.auth.CreateAPIKey(e.Ctx, owner.ID, "e2e")
	if err != nil {
		e.T.Fatalf("failed to create API key: %v", err)
	}
	e.OwnerID = owner.ID
	e.Token = token
}

// newSite serves two linked HTML pages and a 404.
func newSite(t *testing.T) *httptest.Server {
	pages := map[string]string{
		"/":        `<html><head><title>Docs</title></head><body><p>Welcome to the docs.</p><a href="/refunds">Refunds</a><a href="/gone">Gone</a></body></html>`,
		"/refunds": `<html><head><title>Refunds</title></head><body><p>Refunds are issued within 30 days.</p></body></html>`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// APIResponse represents a standard API response
type APIResponse struct {
	Status int             `json:"-"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error,omitempty"`
}

func (r *APIResponse) Decode(t *testing.T, v any) {
	t.Helper()
	if err := json.Unmarshal(r.Data, v); err != nil {
		t.Fatalf("failed to decode %s: %v", r.Data, err)
	}
}

// Do sends a JSON request with the env token.
func (e *E2ETestEnv) Do(method, path string, body any) *APIResponse {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			e.T.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	return e.send(method, path, reader, "application/json", e.Token)
}

// Upload posts a multipart form to /extract.
func (e *E2ETestEnv) Upload(fileName string, content []byte, fields map[string]string) *APIResponse {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	part, _ := mw.CreateFormFile("file", fileName)
	part.Write(content)
	mw.Close()
	return e.send(http.MethodPost, "/extract", &buf, mw.FormDataContentType(), e.Token)
}

func (e *E2ETestEnv) send(method, path string, body io.Reader, contentType, token string) *APIResponse {
	e.T.Helper()
	req, err := http.NewRequestWithContext(e.Ctx, method, e.Server.URL+path, body)
	if err != nil {
		e.T.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.Server.Client().Do(req)
	if err != nil {
		e.T.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	out := &APIResponse{Status: resp.StatusCode}
	data, _ := io.ReadAll(resp.Body)
	if len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			e.T.Fatalf("non-JSON response (%d): %s", resp.StatusCode, data)
		}
	}
	return out
}

// BuildCLI builds the agentrag binary into a temp dir.
func (e *E2ETestEnv) BuildCLI() {
	e.BinaryDir = e.T.TempDir()
	cmd := exec.Command("go", "build", "-o", filepath.Join(e.BinaryDir, "agentrag"), "./cmd/agentrag")
	cmd.Dir = "../.."
	if out, err := cmd.CombinedOutput(); err != nil {
		e.T.Fatalf("failed to build agentrag: %v\n%s", err, out)
	}
}

// RunCLI runs the agentrag binary against the test server.
func (e *E2ETestEnv) RunCLI(stdin string, args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "agentrag"), args...)
	cmd.Dir = e.T.TempDir()
	cmd.Stdin = bytes.NewReader([]byte(stdin))
	cmd.Env = append(os.Environ(),
		"AGENTRAG_API_KEY="+e.Token,
		"AGENTRAG_API_URL="+e.Server.URL,
		"XDG_CONFIG_HOME="+e.T.TempDir(),
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func (e *E2ETestEnv) countVectors(agentID string) int {
	n, err := e.Vectors.CountByAgent(e.Ctx, testCollection, agentID)
	if err != nil {
		e.T.Fatalf("failed to count vectors: %v", err)
	}
	return n
}

func (e *E2ETestEnv) mustStatus(resp *APIResponse, want int) {
	e.T.Helper()
	if resp.Status != want {
		e.T.Fatalf("expected status %d, got %d (%s)", want, resp.Status, resp.Error)
	}
}

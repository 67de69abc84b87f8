package handler

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"resumerag/internal/ai"
	"resumerag/internal/config"
	"resumerag/internal/filestore"
	"resumerag/internal/service"
	"resumerag/internal/store"
)

type stubEmbedder struct{}

func (stubEmbedder) ModelName() string {
	return "stub-embed"
}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	lowered := strings.ToLower(text)
	vec := make([]float32, 3)
	for i, word := range []string{"python", "java", "go"} {
		vec[i] = float32(strings.Count(lowered, word))
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm == 0 {
		return []float32{0, 0, 0}, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}

type stubGenerator struct {
	available bool
	answer    string
}

func (g stubGenerator) ModelName() string {
	return "stub-llm"
}

func (g stubGenerator) Available(ctx context.Context) bool {
	return g.available
}

func (g stubGenerator) ListModels(ctx context.Context) ([]string, error) {
	if !g.available {
		return nil, fmt.Errorf("%w: connection refused", ai.ErrUnavailable)
	}
	return []string{"stub-llm"}, nil
}

func (g stubGenerator) Complete(ctx context.Context, systemPrompt string, userPrompt string, opts ai.GenerateOptions) (string, error) {
	return g.answer, nil
}

func newTestRouter(t *testing.T, gen ai.IGenerator) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	uploadDir := filepath.Join(dir, "uploads")
	uploads, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": uploadDir},
	})
	require.NoError(t, err)

	rag := service.NewRAGService(
		store.NewCorpus(),
		store.NewSnapshot(filepath.Join(dir, "rag_state.json")),
		stubEmbedder{},
		gen,
		service.Options{},
	)

	engine := gin.New()
	RegisterRoutes(engine.Group("/api/v1"), RouterDeps{
		Resumes: NewResumeHandler(rag, uploads),
		Search:  NewSearchHandler(rag),
		Status:  NewStatusHandler(rag),
	})
	return engine, uploadDir
}

func doJSON(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func doUpload(t *testing.T, engine *gin.Engine, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestUploadIndexesAndStoresFile(t *testing.T) {
	engine, uploadDir := newTestRouter(t, stubGenerator{available: true, answer: "ok"})

	rec := doUpload(t, engine, "alice.txt", "Python backend developer")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "alice.txt")
	require.Contains(t, rec.Body.String(), "uploaded and indexed")

	entries, err := os.ReadDir(uploadDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, strings.HasSuffix(entries[0].Name(), "_alice.txt"))

	rec = doJSON(engine, http.MethodGet, "/api/v1/resumes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"total":1`)
}

func TestUploadRejectsNonTxt(t *testing.T) {
	engine, uploadDir := newTestRouter(t, stubGenerator{available: true})

	rec := doUpload(t, engine, "alice.pdf", "not a text file")
	require.Contains(t, rec.Body.String(), "only .txt files are allowed")

	_, err := os.ReadDir(uploadDir)
	require.True(t, os.IsNotExist(err))
}

func TestAddSearchDeleteFlow(t *testing.T) {
	engine, _ := newTestRouter(t, stubGenerator{available: true, answer: "Alice is the Python developer."})

	rec := doJSON(engine, http.MethodPost, "/api/v1/resumes",
		`{"id":"alice","filename":"alice.txt","content":"Python backend developer"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"id":"alice"`)

	rec = doJSON(engine, http.MethodPost, "/api/v1/resumes",
		`{"id":"bob","filename":"bob.txt","content":"Java backend developer"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(engine, http.MethodPost, "/api/v1/search",
		`{"query":"python developer","top_k":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `"id":"alice"`)
	require.NotContains(t, body, `"id":"bob"`)
	require.Contains(t, body, `"total_resumes":2`)
	require.Contains(t, body, `"answer_state":"generated"`)
	require.Contains(t, body, "Alice is the Python developer.")

	rec = doJSON(engine, http.MethodDelete, "/api/v1/resumes/alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "deleted successfully")
	require.Contains(t, rec.Body.String(), `"remaining":1`)

	rec = doJSON(engine, http.MethodDelete, "/api/v1/resumes/alice", "")
	require.Contains(t, rec.Body.String(), "resume not found")
}

func TestAddResumeRejectsDuplicateID(t *testing.T) {
	engine, _ := newTestRouter(t, stubGenerator{available: true})

	rec := doJSON(engine, http.MethodPost, "/api/v1/resumes",
		`{"id":"dup","filename":"a.txt","content":"Python developer"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(engine, http.MethodPost, "/api/v1/resumes",
		`{"id":"dup","filename":"b.txt","content":"Java developer"}`)
	require.Contains(t, rec.Body.String(), "already exists")
}

func TestSearchValidation(t *testing.T) {
	engine, _ := newTestRouter(t, stubGenerator{available: true})

	rec := doJSON(engine, http.MethodPost, "/api/v1/search", `{"query":"  "}`)
	require.Contains(t, rec.Body.String(), "query is required")

	rec = doJSON(engine, http.MethodPost, "/api/v1/search", `{"query":"x","top_k":99}`)
	require.Contains(t, rec.Body.String(), "top_k must be between 1 and 10")

	rec = doJSON(engine, http.MethodPost, "/api/v1/search", `{"query":"x","top_k":-1}`)
	require.Contains(t, rec.Body.String(), "top_k must be between 1 and 10")
}

func TestSearchDegradedAnswerWhenProviderDown(t *testing.T) {
	engine, _ := newTestRouter(t, stubGenerator{available: false})

	rec := doJSON(engine, http.MethodPost, "/api/v1/resumes",
		`{"id":"alice","filename":"alice.txt","content":"Python backend developer"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(engine, http.MethodPost, "/api/v1/search", `{"query":"python"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `"id":"alice"`)
	require.Contains(t, body, `"answer_state":"degraded"`)
}

func TestSearchWithoutAnswer(t *testing.T) {
	engine, _ := newTestRouter(t, stubGenerator{available: true, answer: "should not appear"})

	rec := doJSON(engine, http.MethodPost, "/api/v1/resumes",
		`{"id":"alice","filename":"alice.txt","content":"Python backend developer"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(engine, http.MethodPost, "/api/v1/search",
		`{"query":"python","generate_answer":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "answer_state")
}

func TestStatusHealthModels(t *testing.T) {
	engine, _ := newTestRouter(t, stubGenerator{available: true})

	rec := doJSON(engine, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"service":"resumerag"`)
	require.Contains(t, rec.Body.String(), `"provider_reachable":true`)

	rec = doJSON(engine, http.MethodGet, "/api/v1/health", "")
	require.Contains(t, rec.Body.String(), `"status":"healthy"`)

	rec = doJSON(engine, http.MethodGet, "/api/v1/models", "")
	require.Contains(t, rec.Body.String(), `"current_model":"stub-llm"`)
	require.Contains(t, rec.Body.String(), `"available_models":["stub-llm"]`)
}

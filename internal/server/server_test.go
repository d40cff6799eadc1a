package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/raaihank/doc-redactor/internal/audit"
	"github.com/raaihank/doc-redactor/internal/config"
	"github.com/raaihank/doc-redactor/internal/document"
	"github.com/raaihank/doc-redactor/internal/logger"
	"github.com/raaihank/doc-redactor/internal/redaction"
	"github.com/raaihank/doc-redactor/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	mu      sync.Mutex
	results map[string]*document.Result
	gets    int
}

func (c *memoryCache) Get(_ context.Context, hash string) (*document.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	result, ok := c.results[hash]
	return result, ok
}

func (c *memoryCache) Set(_ context.Context, hash string, result *document.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[hash] = result
	return nil
}

type memoryAudit struct {
	mu      sync.Mutex
	records []audit.Record
	err     error
}

func (a *memoryAudit) Record(_ context.Context, record *audit.Record) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	record.ID = int64(len(a.records) + 1)
	a.records = append(a.records, *record)
	return nil
}

func (a *memoryAudit) Recent(_ context.Context, limit int) ([]audit.Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	return append([]audit.Record(nil), a.records...), nil
}

func testConfig() *config.Config {
	cfg := config.GetDefaults()
	cfg.Events.Enabled = false
	cfg.RateLimit.Enabled = false
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, opts ...Option) *Server {
	t.Helper()
	catalog, err := redaction.DefaultCatalog()
	require.NoError(t, err)

	s, err := New(cfg, logger.NewNop(), catalog, opts...)
	require.NoError(t, err)
	return s
}

func uploadRequest(t *testing.T, filename string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/redact-pdf", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestRedactPDF(t *testing.T) {
	s := newTestServer(t, testConfig())

	pdf := testutil.BuildPDF("Email jane@example.com", "Call 555-123-4567")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, "report.PDF", pdf))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	resp := decode[redactPDFResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.TotalPages)
	require.Len(t, resp.RedactedText, 2)

	assert.Contains(t, resp.RedactedText[0], "[EMAIL REDACTED]")
	assert.NotContains(t, resp.RedactedText[0], "jane@example.com")
	assert.Contains(t, resp.RedactedText[1], "[PHONE REDACTED]")

	require.Len(t, resp.RedactionStats, 2)
	for i, page := range resp.RedactionStats {
		assert.Len(t, page, 11, "page %d", i)
	}
	assert.Equal(t, 1, resp.RedactionStats[0][redaction.LabelEmails])
	assert.Zero(t, resp.RedactionStats[0][redaction.LabelPhones])
	assert.Zero(t, resp.RedactionStats[1][redaction.LabelEmails])
	assert.GreaterOrEqual(t, resp.RedactionStats[1][redaction.LabelPhones], 1)

	assert.Len(t, resp.TotalRedactions, 11)
	sum := 0
	for label, total := range resp.TotalRedactions {
		assert.Equal(t, resp.RedactionStats[0][label]+resp.RedactionStats[1][label], total, label)
		sum += total
	}
	assert.Equal(t, 1, resp.TotalRedactions[redaction.LabelEmails])
	assert.Equal(t, sum, resp.RedactionCount)
}

func TestRedactPDFWithoutPages(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, "empty.pdf", testutil.BuildPDF()))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[redactPDFResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Zero(t, resp.TotalPages)
	assert.Empty(t, resp.RedactedText)
	assert.Empty(t, resp.RedactionStats)
	assert.Len(t, resp.TotalRedactions, 11)
	for label, n := range resp.TotalRedactions {
		assert.Zero(t, n, label)
	}
	assert.Zero(t, resp.RedactionCount)
}

func TestRedactPDFRejectsBadUploads(t *testing.T) {
	s := newTestServer(t, testConfig())

	t.Run("not a pdf name", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, uploadRequest(t, "notes.txt", []byte("hello")))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "File must be a PDF", decode[errorResponse](t, rec).Error)
	})

	t.Run("no file field", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("other", "x"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/redact-pdf", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "No file uploaded", decode[errorResponse](t, rec).Error)
	})

	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/redact-pdf", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unreadable pdf", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, uploadRequest(t, "broken.pdf", []byte("this is not a pdf")))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.True(t, strings.HasPrefix(decode[errorResponse](t, rec).Error, "Error processing PDF: "))
	})
}

func TestRedactPDFUploadLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxUploadMB = 1
	s := newTestServer(t, cfg)

	big := bytes.Repeat([]byte("A"), 2<<20)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, "big.pdf", big))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRedactPDFUsesCacheAndAudit(t *testing.T) {
	store := &memoryAudit{}
	results := &memoryCache{results: map[string]*document.Result{}}
	s := newTestServer(t, testConfig(), WithCache(results), WithAudit(store))

	pdf := testutil.BuildPDF("Email jane@example.com")
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, uploadRequest(t, "report.pdf", pdf))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	assert.Equal(t, 2, results.gets)
	assert.Len(t, results.results, 1)

	require.Len(t, store.records, 2)
	assert.False(t, store.records[0].CacheHit)
	assert.True(t, store.records[1].CacheHit)
	assert.Equal(t, store.records[0].DocumentHash, store.records[1].DocumentHash)
	assert.Equal(t, 1, store.records[1].TotalRedactions[redaction.LabelEmails])
	assert.Equal(t, "report.pdf", store.records[0].Filename)
}

func TestRedactPDFAuditFailureDoesNotFailRequest(t *testing.T) {
	s := newTestServer(t, testConfig(), WithAudit(&memoryAudit{err: errors.New("db down")}))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, "report.pdf", testutil.BuildPDF("hello")))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRedactText(t *testing.T) {
	s := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/redact-text",
		strings.NewReader(`{"text":"Contact me at john@example.com or 555-123-4567"}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[redactTextResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Contains(t, resp.RedactedText, "[EMAIL REDACTED]")
	assert.Contains(t, resp.RedactedText, "[PHONE REDACTED]")
	assert.Equal(t, 1, resp.RedactionStats[redaction.LabelEmails])

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/redact-text", strings.NewReader("nope")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/api/redact-pdf", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	cfg := testConfig()
	cfg.Server.AllowedOrigins = []string{"https://app.example.com"}
	s = newTestServer(t, cfg)

	assert.Equal(t, "https://app.example.com", s.allowedOrigin("https://app.example.com"))
	assert.Empty(t, s.allowedOrigin("https://evil.example.com"))
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RequestsPerMin = 1
	cfg.RateLimit.Burst = 1
	s := newTestServer(t, cfg)

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/redact-text", strings.NewReader(`{"text":"hi"}`))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestAuditEndpoint(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		s := newTestServer(t, testConfig())
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/audit", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("enabled", func(t *testing.T) {
		store := &memoryAudit{records: []audit.Record{{ID: 1, Filename: "a.pdf", TotalPages: 3}}}
		s := newTestServer(t, testConfig(), WithAudit(store))

		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/audit?limit=10", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decode[struct {
			Records []audit.Record `json:"records"`
		}](t, rec)
		require.Len(t, resp.Records, 1)
		assert.Equal(t, "a.pdf", resp.Records[0].Filename)
	})

	t.Run("bad limit", func(t *testing.T) {
		s := newTestServer(t, testConfig(), WithAudit(&memoryAudit{}))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/audit?limit=abc", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthAndInfo(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, rec)["status"])

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/info", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[map[string]any](t, rec)
	assert.Equal(t, "doc-redactor", info["name"])
	assert.Len(t, info["categories"], 11)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRequiresCatalog(t *testing.T) {
	_, err := New(testConfig(), logger.NewNop(), nil)
	assert.Error(t, err)
}

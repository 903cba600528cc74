package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/truther/engine"
	"github.com/use-agent/truther/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	gotReq *models.EvidenceRequest
	result *models.AnalysisResult
	err    error
}

func (f *fakeVerifier) Verify(ctx context.Context, req *models.EvidenceRequest) (*models.AnalysisResult, error) {
	f.gotReq = req
	return f.result, f.err
}

type fakeExtractor struct {
	gotTarget string
	gotGated  bool
	gotMaxAge time.Duration
	result    *models.ExtractionResult
	err       error
}

func (f *fakeExtractor) ExtractWithCacheAge(ctx context.Context, target string, gated bool, maxAge time.Duration) (*models.ExtractionResult, error) {
	f.gotTarget = target
	f.gotGated = gated
	f.gotMaxAge = maxAge
	return f.result, f.err
}

type fakeBackend struct {
	stats models.PoolStats
}

func (f *fakeBackend) Name() string { return "local" }
func (f *fakeBackend) OpenSession(ctx context.Context, opts engine.SessionOptions) (engine.Session, error) {
	return nil, nil
}
func (f *fakeBackend) Stats() models.PoolStats { return f.stats }
func (f *fakeBackend) Close()                  {}

func sampleResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		Status:           models.StatusLikelyFake,
		Score:            25,
		Title:            "T",
		SimpleSummary:    "S",
		DetailedAnalysis: "D",
		ContentDate:      "2026-08-01",
		Sources:          []models.Source{},
	}
}

func multipartBody(t *testing.T, text string, fileBytes []byte, fileMime string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if text != "" {
		if err := w.WriteField("textInput", text); err != nil {
			t.Fatal(err)
		}
	}
	if fileBytes != nil {
		part, err := w.CreatePart(textproto.MIMEHeader{
			"Content-Disposition": {`form-data; name="fileInput"; filename="upload.jpg"`},
			"Content-Type":        {fileMime},
		})
		if err != nil {
			t.Fatal(err)
		}
		part.Write(fileBytes)
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func performAnalyze(v Verifier, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	r := gin.New()
	r.POST("/api/v1/analyze", Analyze(v, 1<<20))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeTextSuccess(t *testing.T) {
	v := &fakeVerifier{result: sampleResult()}
	body, ct := multipartBody(t, "is this claim true?", nil, "")

	rec := performAnalyze(v, body, ct)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
	var got models.AnalysisResult
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusLikelyFake || got.Score != 25 {
		t.Errorf("result = %+v", got)
	}
	if v.gotReq.RawInput != "is this claim true?" {
		t.Errorf("RawInput = %q", v.gotReq.RawInput)
	}
}

func TestAnalyzeMediaUpload(t *testing.T) {
	v := &fakeVerifier{result: sampleResult()}
	body, ct := multipartBody(t, "", []byte("jpegbytes"), "image/jpeg")

	rec := performAnalyze(v, body, ct)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if v.gotReq.Media == nil {
		t.Fatal("media not forwarded")
	}
	if v.gotReq.Media.MimeType != "image/jpeg" {
		t.Errorf("mime = %q", v.gotReq.Media.MimeType)
	}
	if string(v.gotReq.Media.Data) != "jpegbytes" {
		t.Errorf("data = %q", v.gotReq.Media.Data)
	}
}

func TestAnalyzeRejectsUnsupportedMediaType(t *testing.T) {
	v := &fakeVerifier{result: sampleResult()}
	body, ct := multipartBody(t, "", []byte("%PDF-1.7"), "application/pdf")

	rec := performAnalyze(v, body, ct)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp models.ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if !strings.Contains(resp.Error, "unsupported media type") {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestAnalyzeEmptyRequest(t *testing.T) {
	v := &fakeVerifier{result: sampleResult()}
	body, ct := multipartBody(t, "", nil, "")

	rec := performAnalyze(v, body, ct)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if v.gotReq != nil {
		t.Error("verifier should not run for an empty request")
	}
	var resp models.ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Error == "" {
		t.Error("empty error message")
	}
}

func TestAnalyzeSafetyRejection(t *testing.T) {
	v := &fakeVerifier{err: models.NewAnalysisError(models.ErrCodeModelSafety, "blocked", nil)}
	body, ct := multipartBody(t, "something", nil, "")

	rec := performAnalyze(v, body, ct)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var resp models.ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if !strings.Contains(resp.Error, "safety") {
		t.Errorf("error = %q, want safety-specific message", resp.Error)
	}
}

func TestAnalyzeGenericModelFailure(t *testing.T) {
	v := &fakeVerifier{err: models.NewAnalysisError(models.ErrCodeModelFailure, "boom", nil)}
	body, ct := multipartBody(t, "something", nil, "")

	rec := performAnalyze(v, body, ct)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var resp models.ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if strings.Contains(resp.Error, "safety") {
		t.Errorf("generic failure must not use the safety message: %q", resp.Error)
	}
}

func TestAnalyzeModelRateLimited(t *testing.T) {
	v := &fakeVerifier{err: models.NewAnalysisError(models.ErrCodeModelRateLimited, "quota", nil)}
	body, ct := multipartBody(t, "something", nil, "")

	rec := performAnalyze(v, body, ct)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

func performExtract(ex PageExtractor, body string) *httptest.ResponseRecorder {
	r := gin.New()
	r.POST("/api/v1/extract", Extract(ex))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestExtractSuccess(t *testing.T) {
	ex := &fakeExtractor{result: &models.ExtractionResult{
		Success:     true,
		URL:         "https://example.com/a",
		Text:        "body text",
		FetchMethod: "browser",
	}}

	rec := performExtract(ex, `{"url": "https://example.com/a", "max_age": 60000}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ex.gotTarget != "https://example.com/a" {
		t.Errorf("target = %q", ex.gotTarget)
	}
	if ex.gotMaxAge != time.Minute {
		t.Errorf("maxAge = %v, want 1m", ex.gotMaxAge)
	}
	var got models.ExtractionResult
	json.Unmarshal(rec.Body.Bytes(), &got)
	if !got.Success || got.CacheStatus != "miss" {
		t.Errorf("result = %+v", got)
	}
}

func TestExtractGatedHostEnablesStealth(t *testing.T) {
	ex := &fakeExtractor{result: &models.ExtractionResult{Success: true, Text: "x"}}

	rec := performExtract(ex, `{"url": "https://www.instagram.com/p/abc/"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !ex.gotGated {
		t.Error("gated host should request stealth")
	}
}

func TestExtractValidation(t *testing.T) {
	ex := &fakeExtractor{}
	for _, body := range []string{
		`{}`,
		`{"url": "not a url"}`,
		`{"url": "https://example.com", "max_age": -5}`,
		`not json`,
	} {
		rec := performExtract(ex, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
	if ex.gotTarget != "" {
		t.Error("extractor ran on invalid input")
	}
}

func TestExtractErrorStatusMapping(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{models.ErrCodeNavTimeout, http.StatusGatewayTimeout},
		{models.ErrCodeNavFailed, http.StatusBadGateway},
		{models.ErrCodeExtractionEmpty, http.StatusBadGateway},
		{models.ErrCodeSessionUnavailable, http.StatusServiceUnavailable},
		{models.ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		ex := &fakeExtractor{err: models.NewAnalysisError(tt.code, "failed", nil)}
		rec := performExtract(ex, `{"url": "https://example.com/a"}`)
		if rec.Code != tt.want {
			t.Errorf("code %s: status = %d, want %d", tt.code, rec.Code, tt.want)
		}
		var got models.ExtractionResult
		json.Unmarshal(rec.Body.Bytes(), &got)
		if got.Success || got.Error == nil || got.Error.Code != tt.code {
			t.Errorf("code %s: body = %+v", tt.code, got)
		}
	}
}

func TestHealthStatus(t *testing.T) {
	tests := []struct {
		name  string
		stats models.PoolStats
		want  string
	}{
		{"healthy", models.PoolStats{MaxSessions: 10, ActiveSessions: 3}, "healthy"},
		{"degraded", models.PoolStats{MaxSessions: 10, ActiveSessions: 9}, "degraded"},
		{"at threshold", models.PoolStats{MaxSessions: 10, ActiveSessions: 8}, "healthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/api/v1/health", Health(&fakeBackend{stats: tt.stats}, time.Now().Add(-time.Minute)))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var got models.HealthResponse
			json.Unmarshal(rec.Body.Bytes(), &got)
			if got.Status != tt.want {
				t.Errorf("status = %q, want %q", got.Status, tt.want)
			}
			if got.Backend != "local" {
				t.Errorf("backend = %q", got.Backend)
			}
		})
	}
}

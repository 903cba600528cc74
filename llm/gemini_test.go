package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/use-agent/truther/config"
	"github.com/use-agent/truther/models"
	"github.com/use-agent/truther/prompt"
)

func testConfig(baseURL string) config.ModelConfig {
	return config.ModelConfig{
		APIKey:  "test-key",
		Model:   "gemini-2.5-flash",
		BaseURL: baseURL,
	}
}

func candidateResponse(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":` + jsonString(text) + `}]},"finishReason":"STOP"}]}`
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(config.ModelConfig{Model: "gemini-2.5-flash"}, nil)
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
	var analysisErr *models.AnalysisError
	if !errors.As(err, &analysisErr) || analysisErr.Code != models.ErrCodeModelAuthFailure {
		t.Errorf("err = %v, want MODEL_AUTH_FAILURE", err)
	}
}

func TestGenerateRequestShape(t *testing.T) {
	var captured struct {
		path   string
		apiKey string
		body   map[string]any
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.apiKey = r.Header.Get("x-goog-api-key")
		json.NewDecoder(r.Body).Decode(&captured.body)
		w.Write([]byte(candidateResponse(`{"status":"UNCERTAIN"}`)))
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL), srv.Client())
	if err != nil {
		t.Fatal(err)
	}

	payload := prompt.Payload{
		System:       "You verify things.",
		Text:         "TARGET DATA: \"the moon is cheese\"",
		Media:        &models.Media{Data: []byte{0x1, 0x2}, MimeType: "image/png"},
		GroundSearch: true,
	}
	got, err := client.Generate(context.Background(), payload)
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"status":"UNCERTAIN"}` {
		t.Errorf("text = %q", got)
	}

	if captured.path != "/models/gemini-2.5-flash:generateContent" {
		t.Errorf("path = %q", captured.path)
	}
	if captured.apiKey != "test-key" {
		t.Errorf("api key header = %q", captured.apiKey)
	}
	if _, ok := captured.body["system_instruction"]; !ok {
		t.Error("system_instruction missing from request body")
	}
	tools, ok := captured.body["tools"].([]any)
	if !ok || len(tools) != 1 {
		t.Fatalf("tools = %v, want one google_search entry", captured.body["tools"])
	}
	if _, ok := tools[0].(map[string]any)["google_search"]; !ok {
		t.Error("google_search tool missing")
	}

	contents := captured.body["contents"].([]any)
	parts := contents[0].(map[string]any)["parts"].([]any)
	if len(parts) != 2 {
		t.Fatalf("parts = %d, want text + inline_data", len(parts))
	}
	inline := parts[1].(map[string]any)["inline_data"].(map[string]any)
	if inline["mime_type"] != "image/png" {
		t.Errorf("mime_type = %v", inline["mime_type"])
	}
	if inline["data"] != "AQI=" {
		t.Errorf("inline data = %v, want base64 of raw bytes", inline["data"])
	}
}

func TestGenerateNoSearchToolWhenDisabled(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(candidateResponse("ok")))
	}))
	defer srv.Close()

	client, _ := NewClient(testConfig(srv.URL), srv.Client())
	if _, err := client.Generate(context.Background(), prompt.Payload{Text: "hi"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := body["tools"]; ok {
		t.Errorf("tools = %v, want omitted", body["tools"])
	}
	if _, ok := body["system_instruction"]; ok {
		t.Error("system_instruction should be omitted when empty")
	}
}

func TestGenerateConcatenatesParts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"sta"},{"text":"tus\":\"UNCERTAIN\"}"}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	client, _ := NewClient(testConfig(srv.URL), srv.Client())
	got, err := client.Generate(context.Background(), prompt.Payload{Text: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"status":"UNCERTAIN"}` {
		t.Errorf("text = %q", got)
	}
}

func TestGenerateErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
	}{
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			body:     `{"error":{"code":401,"message":"API key not valid","status":"UNAUTHENTICATED"}}`,
			wantCode: models.ErrCodeModelAuthFailure,
		},
		{
			name:     "forbidden",
			status:   http.StatusForbidden,
			body:     `{"error":{"code":403,"message":"denied"}}`,
			wantCode: models.ErrCodeModelAuthFailure,
		},
		{
			name:     "rate limited",
			status:   http.StatusTooManyRequests,
			body:     `{"error":{"code":429,"message":"quota exceeded"}}`,
			wantCode: models.ErrCodeModelRateLimited,
		},
		{
			name:     "server error",
			status:   http.StatusInternalServerError,
			body:     `oops`,
			wantCode: models.ErrCodeModelFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client, _ := NewClient(testConfig(srv.URL), srv.Client())
			_, err := client.Generate(context.Background(), prompt.Payload{Text: "hi"})
			var analysisErr *models.AnalysisError
			if !errors.As(err, &analysisErr) {
				t.Fatalf("err = %v, want *models.AnalysisError", err)
			}
			if analysisErr.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", analysisErr.Code, tt.wantCode)
			}
		})
	}
}

func TestGenerateSafetyRejection(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "prompt blocked",
			body: `{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`,
		},
		{
			name: "response blocked",
			body: `{"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client, _ := NewClient(testConfig(srv.URL), srv.Client())
			_, err := client.Generate(context.Background(), prompt.Payload{Text: "hi"})
			var analysisErr *models.AnalysisError
			if !errors.As(err, &analysisErr) {
				t.Fatalf("err = %v, want *models.AnalysisError", err)
			}
			if analysisErr.Code != models.ErrCodeModelSafety {
				t.Errorf("code = %q, want MODEL_SAFETY_REJECTED", analysisErr.Code)
			}
		})
	}
}

func TestGenerateEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	client, _ := NewClient(testConfig(srv.URL), srv.Client())
	_, err := client.Generate(context.Background(), prompt.Payload{Text: "hi"})
	var analysisErr *models.AnalysisError
	if !errors.As(err, &analysisErr) || analysisErr.Code != models.ErrCodeModelFailure {
		t.Errorf("err = %v, want MODEL_FAILURE", err)
	}
}

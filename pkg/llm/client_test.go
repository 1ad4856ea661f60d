package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nikogura/cv-coach/pkg/config"
)

func TestNewClaudeClient(t *testing.T) {
	apiKey := "test-api-key"
	model := "claude-sonnet-4-20250514"
	client := NewClaudeClient(apiKey, model)

	if client == nil {
		t.Fatal("Expected non-nil client")
	}

	if client.apiKey != apiKey {
		t.Errorf("Expected API key '%s', got '%s'", apiKey, client.apiKey)
	}

	if client.model != model {
		t.Errorf("Expected model '%s', got '%s'", model, client.model)
	}

	if client.endpoint != ClaudeAPIEndpoint {
		t.Errorf("Expected endpoint '%s', got '%s'", ClaudeAPIEndpoint, client.endpoint)
	}

	if client.httpClient == nil {
		t.Error("Expected non-nil HTTP client")
	}
}

func TestNewClaudeClientDefaultModel(t *testing.T) {
	client := NewClaudeClient("k", "")
	if client.model != ClaudeModel {
		t.Errorf("Expected default model '%s', got '%s'", ClaudeModel, client.model)
	}
}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}

		body, _ := io.ReadAll(r.Body)
		var req ClaudeRequest
		err := json.Unmarshal(body, &req)
		if err != nil {
			t.Fatalf("Request body is not JSON: %v", err)
		}

		if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.Messages[0].Content != "critique this" {
			t.Errorf("Unexpected messages: %+v", req.Messages)
		}

		if req.System != SystemPrompt {
			t.Errorf("Expected system prompt to be sent, got %q", req.System)
		}

		if req.MaxTokens != claudeMaxTokens {
			t.Errorf("Expected max tokens %d, got %d", claudeMaxTokens, req.MaxTokens)
		}

		claudeResp := ClaudeResponse{
			ID:   "test-id",
			Type: "message",
			Role: "assistant",
			Content: []Content{
				{Type: "text", Text: "Impression. "},
				{Type: "text", Text: "More."},
			},
			Model: ClaudeModel,
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(claudeResp)
	}))
	defer server.Close()

	client := NewClaudeClient("test-key", "")
	client.endpoint = server.URL

	text, err := client.Generate(context.Background(), "critique this")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if text != "Impression. More." {
		t.Errorf("Expected joined text blocks, got %q", text)
	}
}

func TestAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "Invalid request"}`))
	}))
	defer server.Close()

	client := NewClaudeClient("test-key", "")
	client.endpoint = server.URL

	_, err := client.Generate(context.Background(), "Test")
	if err == nil {
		t.Fatal("Expected error for bad request, got nil")
	}

	if !strings.Contains(err.Error(), "400") {
		t.Errorf("Error should mention status code 400: %v", err)
	}
}

func TestStructuredAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(529)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
	}))
	defer server.Close()

	client := NewClaudeClient("test-key", "")
	client.endpoint = server.URL

	_, err := client.Generate(context.Background(), "Test")
	if err == nil {
		t.Fatal("Expected error for overloaded API, got nil")
	}

	if !strings.Contains(err.Error(), "overloaded_error: Overloaded") {
		t.Errorf("Error should carry the API error type and message: %v", err)
	}
}

func TestEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claudeResp := ClaudeResponse{
			Content: []Content{},
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(claudeResp)
	}))
	defer server.Close()

	client := NewClaudeClient("test-key", "")
	client.endpoint = server.URL

	_, err := client.Generate(context.Background(), "Test")
	if err == nil {
		t.Fatal("Expected error for empty content, got nil")
	}

	if !strings.Contains(err.Error(), "no content") {
		t.Errorf("Error should mention 'no content': %v", err)
	}
}

func TestInvalidResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClaudeClient("test-key", "")
	client.endpoint = server.URL

	_, err := client.Generate(context.Background(), "Test")
	if err == nil {
		t.Error("Expected error for invalid response body, got nil")
	}
}

func TestContextCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	defer close(release)

	client := NewClaudeClient("test-key", "")
	client.endpoint = server.URL

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := client.Generate(ctx, "Test")
	if err == nil {
		t.Error("Expected error for cancelled context, got nil")
	}
}

func TestHTTPClientTimeout(t *testing.T) {
	client := NewClaudeClient("test-key", "")

	if client.httpClient.Timeout != 120*time.Second {
		t.Errorf("Expected timeout 120s, got %v", client.httpClient.Timeout)
	}
}

func TestRequestHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Error("Missing Content-Type header")
		}

		if r.Header.Get("X-Api-Key") != "my-api-key" {
			t.Errorf("Expected API key 'my-api-key', got '%s'", r.Header.Get("X-Api-Key"))
		}

		if r.Header.Get("Anthropic-Version") != ClaudeAPIVersion {
			t.Errorf("Expected version '%s', got '%s'", ClaudeAPIVersion, r.Header.Get("Anthropic-Version"))
		}

		claudeResp := ClaudeResponse{
			Content: []Content{{Type: "text", Text: "ok"}},
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(claudeResp)
	}))
	defer server.Close()

	client := NewClaudeClient("my-api-key", "")
	client.endpoint = server.URL

	_, _ = client.Generate(context.Background(), "Test")
}

func TestNewGenerator(t *testing.T) {
	gen, err := NewGenerator(context.Background(), config.Config{Provider: config.ProviderClaude, AnthropicAPIKey: "k"})
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	claude, ok := gen.(*ClaudeClient)
	if !ok {
		t.Fatalf("Expected *ClaudeClient, got %T", gen)
	}

	if claude.model != config.DefaultClaudeModel {
		t.Errorf("Expected model '%s', got '%s'", config.DefaultClaudeModel, claude.model)
	}

	_, err = NewGenerator(context.Background(), config.Config{Provider: "openai"})
	if err == nil {
		t.Error("Expected error for unknown provider, got nil")
	}

	_, err = NewGenerator(context.Background(), config.Config{Provider: config.ProviderGemini})
	if err == nil {
		t.Error("Expected error for gemini without key, got nil")
	}
}

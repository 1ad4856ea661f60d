package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// ClaudeAPIEndpoint is the Anthropic API endpoint.
	ClaudeAPIEndpoint = "https://api.anthropic.com/v1/messages"
	// ClaudeModel is the model to use.
	ClaudeModel = "claude-sonnet-4-20250514"
	// ClaudeAPIVersion is the API version.
	ClaudeAPIVersion = "2023-06-01"

	claudeMaxTokens = 4096
)

// ClaudeClient talks to the Anthropic Messages API.
type ClaudeClient struct {
	apiKey     string
	model      string
	system     string
	httpClient *http.Client
	endpoint   string
}

// NewClaudeClient creates a new Claude API client.
func NewClaudeClient(apiKey, model string) (client *ClaudeClient) {
	if model == "" {
		model = ClaudeModel
	}
	client = &ClaudeClient{
		apiKey:   apiKey,
		model:    model,
		system:   SystemPrompt,
		endpoint: ClaudeAPIEndpoint,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	return client
}

// Generate implements Generator.
func (c *ClaudeClient) Generate(ctx context.Context, prompt string) (text string, err error) {
	text, err = c.sendRequest(ctx, prompt)
	if err != nil {
		err = errors.Wrap(err, "claude generation request failed")
		return text, err
	}
	return text, err
}

// sendRequest sends a request to Claude API.
func (c *ClaudeClient) sendRequest(ctx context.Context, prompt string) (responseText string, err error) {
	claudeReq := ClaudeRequest{
		Model:     c.model,
		MaxTokens: claudeMaxTokens,
		System:    c.system,
		Messages: []Message{
			{
				Role:    "user",
				Content: prompt,
			},
		},
	}

	var reqBody []byte
	reqBody, err = json.Marshal(claudeReq)
	if err != nil {
		err = errors.Wrap(err, "failed to marshal request")
		return responseText, err
	}

	var httpReq *http.Request
	httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return responseText, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", ClaudeAPIVersion)

	var resp *http.Response
	resp, err = c.httpClient.Do(httpReq)
	if err != nil {
		err = errors.Wrap(err, "HTTP request failed")
		return responseText, err
	}
	defer resp.Body.Close()

	var respBody []byte
	respBody, err = io.ReadAll(resp.Body)
	if err != nil {
		err = errors.Wrap(err, "failed to read response body")
		return responseText, err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr ClaudeErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			err = errors.Errorf("API request failed with status %d: %s: %s", resp.StatusCode, apiErr.Error.Type, apiErr.Error.Message)
			return responseText, err
		}
		err = errors.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
		return responseText, err
	}

	var claudeResp ClaudeResponse
	err = json.Unmarshal(respBody, &claudeResp)
	if err != nil {
		err = errors.Wrapf(err, "failed to parse Claude response: %s", string(respBody))
		return responseText, err
	}

	var parts []string
	for _, block := range claudeResp.Content {
		if block.Type == "" || block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}

	if len(parts) == 0 {
		err = errors.New("no content in Claude response")
		return responseText, err
	}

	responseText = strings.Join(parts, "")

	return responseText, err
}

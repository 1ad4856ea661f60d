package llm

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// GeminiClient generates text with Google Gemini.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, apiKey, model string) (client *GeminiClient, err error) {
	if apiKey == "" {
		err = errors.New("gemini API key is required")
		return client, err
	}

	var gc *genai.Client
	gc, err = genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		err = errors.Wrap(err, "failed to create Gemini client")
		return client, err
	}

	client = &GeminiClient{
		client: gc,
		model:  model,
	}
	return client, err
}

// Generate implements Generator.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (text string, err error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0.4)
	model.SystemInstruction = genai.NewUserContent(genai.Text(SystemPrompt))

	var resp *genai.GenerateContentResponse
	resp, err = model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		err = errors.Wrap(err, "gemini generation request failed")
		return text, err
	}

	text, err = geminiText(resp)
	return text, err
}

// Close releases the underlying connection.
func (c *GeminiClient) Close() (err error) {
	if c.client != nil {
		err = c.client.Close()
	}
	return err
}

func geminiText(resp *genai.GenerateContentResponse) (text string, err error) {
	if resp == nil || len(resp.Candidates) == 0 {
		err = errors.New("no candidates in Gemini response")
		return text, err
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		err = errors.New("no content in Gemini response")
		return text, err
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			parts = append(parts, string(t))
		}
	}

	if len(parts) == 0 {
		err = errors.New("no text parts in Gemini response")
		return text, err
	}

	text = strings.Join(parts, "")
	return text, err
}

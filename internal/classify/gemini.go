package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient implements the same JSON contract through the Gemini API,
// using its native JSON response mode.
type GeminiClient struct {
	client *genai.Client
	model  string
}

var _ Classifier = (*GeminiClient)(nil)

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

func (c *GeminiClient) Summarize(ctx context.Context, content string) (string, error) {
	raw, err := c.generateJSON(ctx, summarizePrompt(content))
	if err != nil {
		return "", err
	}

	var parsed summaryResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse summary response: %w", err)
	}
	if err := modelError(parsed.Error); err != nil {
		return "", err
	}
	if strings.TrimSpace(parsed.Summary) == "" {
		return "", errors.New("empty summary")
	}
	return parsed.Summary, nil
}

func (c *GeminiClient) CheckImportance(ctx context.Context, title, summary string) (Importance, error) {
	raw, err := c.generateJSON(ctx, importancePrompt(title, summary))
	if err != nil {
		return Importance{}, err
	}

	var parsed importanceResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Importance{}, fmt.Errorf("parse importance response: %w", err)
	}
	if err := modelError(parsed.Error); err != nil {
		return Importance{}, err
	}
	return Importance{
		Important:      parsed.ExistentialImportanceBool,
		Reasoning:      parsed.ExistentialImportanceReasoning,
		HighImportance: parsed.HighImportanceBool,
	}, nil
}

func (c *GeminiClient) generateJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	model := c.client.GenerativeModel(c.model)
	model.GenerationConfig.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("no candidates in response")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, errors.New("unexpected part type in response")
	}
	return json.RawMessage(cleanJSONResponse(string(text))), nil
}

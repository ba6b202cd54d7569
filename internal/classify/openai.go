package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIClient talks to an OpenAI-compatible chat-completions endpoint in
// JSON-object response mode.
type OpenAIClient struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ Classifier = (*OpenAIClient)(nil)

func NewOpenAIClient(endpoint, model, apiKey string, timeout time.Duration) *OpenAIClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIClient{
		endpoint: endpoint,
		model:    model,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *OpenAIClient) Summarize(ctx context.Context, content string) (string, error) {
	raw, err := c.completeJSON(ctx, summarizePrompt(content))
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

func (c *OpenAIClient) CheckImportance(ctx context.Context, title, summary string) (Importance, error) {
	raw, err := c.completeJSON(ctx, importancePrompt(title, summary))
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

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat responseFmt   `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFmt struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// completeJSON sends a single user-role prompt and returns the raw JSON body
// the model produced.
func (c *OpenAIClient) completeJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	body, err := json.Marshal(chatRequest{
		Model:          c.model,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		ResponseFormat: responseFmt{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("chat completion %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("no choices in response")
	}
	return json.RawMessage(cleanJSONResponse(parsed.Choices[0].Message.Content)), nil
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"parentpal_backend/pkg/apperrors"
)

// CompletionConfig configures the OpenAI-compatible completion service used
// for event extraction.
type CompletionConfig struct {
	Endpoint    string
	APIKey      string
	Model       string
	Temperature float64
	TimeoutSecs int
}

// CompletionClient handles communication with an OpenAI-compatible
// chat-completions API.
type CompletionClient struct {
	config CompletionConfig
	http   *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func NewCompletionClient(config CompletionConfig) *CompletionClient {
	if config.TimeoutSecs == 0 {
		config.TimeoutSecs = 30
	}
	return &CompletionClient{
		config: config,
		http: &http.Client{
			Timeout: time.Duration(config.TimeoutSecs) * time.Second,
		},
	}
}

func (c *CompletionClient) Configured() bool {
	return c.config.Endpoint != "" && c.config.APIKey != ""
}

// Complete sends a system+user prompt pair and returns the raw response text.
// Rate-limit (429) and expired-credential (401) rejections come back as their
// typed apperrors variants so callers can branch without string matching.
func (c *CompletionClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if !c.Configured() {
		return "", apperrors.ErrNotConfigured("extractor", "completion service credentials missing")
	}

	req := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.config.Temperature,
	}

	requestBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", apperrors.ErrRateLimited(fmt.Errorf("HTTP 429: %s", body), "extractor")
	case resp.StatusCode == http.StatusUnauthorized:
		return "", apperrors.ErrCredentialExpired(fmt.Errorf("HTTP 401: %s", body), "extractor")
	case resp.StatusCode != http.StatusOK:
		return "", apperrors.ErrExternalService(
			fmt.Errorf("HTTP %d: %s", resp.StatusCode, body), "extractor", "completion request failed")
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("parsing response JSON: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}
	content := chatResp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty completion response")
	}

	return content, nil
}

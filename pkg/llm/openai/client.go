package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/user/mindloom/pkg/llm"
)

// Client implements the llm.Provider interface for OpenAI-compatible chat
// endpoints, including local inference servers that accept the extended
// sampling parameters (top_k, min_p, repetition_penalty).
type Client struct {
	config     *llm.Config
	httpClient *http.Client
}

// New creates a new client with the given configuration.
func New(config *llm.Config) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// chatRequest is the chat completions request body. Stream is always false.
type chatRequest struct {
	Model             string        `json:"model,omitempty"`
	Messages          []llm.Message `json:"messages"`
	MaxTokens         int           `json:"max_tokens,omitempty"`
	Temperature       *float32      `json:"temperature,omitempty"`
	TopP              *float32      `json:"top_p,omitempty"`
	TopK              int           `json:"top_k,omitempty"`
	MinP              *float32      `json:"min_p,omitempty"`
	RepetitionPenalty *float32      `json:"repetition_penalty,omitempty"`
	Stream            bool          `json:"stream"`
}

// chatResponse is the chat completions response body. A populated Error
// field is treated the same as a transport failure.
type chatResponse struct {
	Choices []choice       `json:"choices"`
	Error   *responseError `json:"error"`
}

type choice struct {
	Message responseMessage `json:"message"`
}

type responseMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseError struct {
	Message string `json:"message"`
}

// Complete sends a chat completion request and returns the full response.
func (c *Client) Complete(ctx context.Context, messages []llm.Message) (*llm.Response, error) {
	reqBody := chatRequest{
		Model:    c.config.Model,
		Messages: messages,
	}

	if c.config.MaxTokens > 0 {
		reqBody.MaxTokens = c.config.MaxTokens
	}
	if c.config.Temperature != 0 {
		temp := c.config.Temperature
		reqBody.Temperature = &temp
	}
	if c.config.TopP != 0 {
		topP := c.config.TopP
		reqBody.TopP = &topP
	}
	if c.config.TopK != 0 {
		reqBody.TopK = c.config.TopK
	}
	if c.config.MinP != 0 {
		minP := c.config.MinP
		reqBody.MinP = &minP
	}
	if c.config.RepetitionPenalty != 0 {
		rp := c.config.RepetitionPenalty
		reqBody.RepetitionPenalty = &rp
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := c.config.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	if chatResp.Error != nil {
		return nil, fmt.Errorf("model error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return &llm.Response{Content: chatResp.Choices[0].Message.Content}, nil
}

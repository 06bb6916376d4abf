// Package ai proxies chat requests to an OpenAI-compatible completion API.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/safar/commerce-admin/internal/config"
)

// ErrTimeout marks an upstream call that exceeded the configured timeout,
// distinct from other upstream failures.
var ErrTimeout = errors.New("ai service timeout")

var ErrNotConfigured = errors.New("ai api key not configured")

// UpstreamError carries a non-200 upstream response verbatim.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream api error (status %d): %s", e.StatusCode, e.Body)
}

const systemPrompt = `You are a business assistant for an e-commerce admin dashboard.
You help with sales analysis, inventory management and customer operations.
Keep answers concise and practical, back them with concrete numbers where
possible, and suggest actionable next steps.

Current time: %s`

// contextWindow is how many trailing conversation messages are forwarded
// upstream alongside the new message.
const contextWindow = 6

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message string    `json:"message"`
	Model   string    `json:"model"`
	Context []Message `json:"context,omitempty"`
}

type ChatResponse struct {
	Response string `json:"response"`
	Model    string `json:"model"`
}

type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func Models() []ModelInfo {
	return []ModelInfo{
		{ID: "gemini-3-pro-preview", Name: "Gemini 3 Pro", Description: "Google's multimodal AI model"},
		{ID: "claude-opus-4-5-20251101-thinking", Name: "Claude Opus 4.5", Description: "Anthropic's thinking model"},
		{ID: "grok-4-1-thinking-1129", Name: "Grok 4.1", Description: "xAI's reasoning model"},
		{ID: "gpt-5", Name: "GPT-5", Description: "OpenAI's latest model"},
	}
}

const DefaultModel = "gemini-3-pro-preview"

type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func New(cfg config.AIConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpc:   &http.Client{Timeout: cfg.Timeout},
	}
}

type upstreamRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type upstreamResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Chat forwards one user message plus trimmed conversation context and
// returns the assistant's reply.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	model := req.Model
	if model == "" {
		model = DefaultModel
	}

	messages := []Message{
		{Role: "system", Content: fmt.Sprintf(systemPrompt, time.Now().Format("2006-01-02 15:04:05"))},
	}

	history := req.Context
	if len(history) > contextWindow {
		history = history[len(history)-contextWindow:]
	}
	for _, msg := range history {
		role := msg.Role
		if role == "" {
			role = "user"
		}
		messages = append(messages, Message{Role: role, Content: msg.Content})
	}

	messages = append(messages, Message{Role: "user", Content: req.Message})

	body, err := json.Marshal(upstreamRequest{
		Model:       model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   4096,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("call upstream: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var parsed upstreamResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode upstream response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: "empty choices in response"}
	}

	return &ChatResponse{
		Response: parsed.Choices[0].Message.Content,
		Model:    model,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

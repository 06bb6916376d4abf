package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/safar/commerce-admin/internal/config"
)

func testClient(url string, timeout time.Duration) *Client {
	return New(config.AIConfig{
		BaseURL: url,
		APIKey:  "test-key",
		Timeout: timeout,
	})
}

func completionResponse(content string) string {
	return `{"choices":[{"message":{"role":"assistant","content":"` + content + `"}}]}`
}

func TestChat(t *testing.T) {
	var captured upstreamRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode upstream request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionResponse("hello there")))
	}))
	defer server.Close()

	c := testClient(server.URL, 5*time.Second)

	resp, err := c.Chat(context.Background(), ChatRequest{Message: "hi"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Response != "hello there" {
		t.Errorf("expected relayed content, got %q", resp.Response)
	}
	if resp.Model != DefaultModel {
		t.Errorf("expected default model, got %q", resp.Model)
	}

	if captured.Temperature != 0.7 || captured.MaxTokens != 4096 {
		t.Errorf("unexpected sampling params: %+v", captured)
	}
	// system + user
	if len(captured.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(captured.Messages))
	}
	if captured.Messages[0].Role != "system" {
		t.Errorf("first message should be the system prompt, got role %q", captured.Messages[0].Role)
	}
}

func TestChatTrimsContextWindow(t *testing.T) {
	var captured upstreamRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.Write([]byte(completionResponse("ok")))
	}))
	defer server.Close()

	c := testClient(server.URL, 5*time.Second)

	var history []Message
	for i := 0; i < 10; i++ {
		history = append(history, Message{Role: "user", Content: "old"})
	}
	history[9].Content = "newest"

	_, err := c.Chat(context.Background(), ChatRequest{Message: "hi", Context: history})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	// system + last 6 context + user
	if len(captured.Messages) != 8 {
		t.Fatalf("expected 8 messages, got %d", len(captured.Messages))
	}
	if captured.Messages[6].Content != "newest" {
		t.Errorf("trim should keep the newest context messages, got %q", captured.Messages[6].Content)
	}
}

func TestChatUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := testClient(server.URL, 5*time.Second)

	_, err := c.Chat(context.Background(), ChatRequest{Message: "hi"})
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", upstream.StatusCode)
	}
}

func TestChatTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(completionResponse("late")))
	}))
	defer server.Close()

	c := testClient(server.URL, 20*time.Millisecond)

	_, err := c.Chat(context.Background(), ChatRequest{Message: "hi"})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestChatRequiresAPIKey(t *testing.T) {
	c := New(config.AIConfig{BaseURL: "http://localhost:0", Timeout: time.Second})

	_, err := c.Chat(context.Background(), ChatRequest{Message: "hi"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pulseai/pulseai/internal/config"
)

func TestOpenAICompleter_Complete(t *testing.T) {
	var got struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		Messages  []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		json.NewDecoder(r.Body).Decode(&got)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "4"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 30, "completion_tokens": 12, "total_tokens": 42}
		}`))
	}))
	defer srv.Close()

	c := NewOpenAICompleter(config.AIConfig{
		APIKey:       "sk-test",
		BaseURL:      srv.URL,
		Model:        "gpt-4",
		MaxTokens:    1000,
		SystemPrompt: "be brief",
		Timeout:      5 * time.Second,
	})

	out, err := c.Complete(context.Background(), "2+2?")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out.Answer != "4" || out.TokensUsed != 42 {
		t.Errorf("Complete() = %+v", out)
	}

	if got.Model != "gpt-4" || got.MaxTokens != 1000 {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "2+2?" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestOpenAICompleter_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "provider error", status: http.StatusInternalServerError, body: `{"error":{"message":"boom","type":"server_error"}}`},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[],"usage":{"total_tokens":0}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewOpenAICompleter(config.AIConfig{APIKey: "sk-test", BaseURL: srv.URL, Model: "gpt-4", Timeout: 5 * time.Second})
			if _, err := c.Complete(context.Background(), "q"); err == nil {
				t.Error("Complete() expected error")
			}
		})
	}
}

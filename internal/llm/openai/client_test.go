package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"uploadagent/internal/llm"
)

func completionBody(content string) string {
	return `{"id":"chatcmpl-1","object":"chat.completion","created":1700000000,"model":"gpt-4o-mini",` +
		`"choices":[{"index":0,"message":{"role":"assistant","content":` + quote(content) + `},"finish_reason":"stop"}]}`
}

func quote(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

func TestComplete(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantContent string
		wantErr     error
		wantAnyErr  bool
	}{
		{
			name:        "success",
			status:      http.StatusOK,
			body:        completionBody(`{"title":"t"}`),
			wantContent: `{"title":"t"}`,
		},
		{
			name:    "emptyContent",
			status:  http.StatusOK,
			body:    completionBody(""),
			wantErr: llm.ErrEmptyResponse,
		},
		{
			name:    "noChoices",
			status:  http.StatusOK,
			body:    `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[]}`,
			wantErr: llm.ErrNoResponse,
		},
		{
			name:       "serverError",
			status:     http.StatusInternalServerError,
			body:       `{"error":{"message":"boom","type":"server_error"}}`,
			wantAnyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(Options{APIKey: "test", Model: "gpt-4o-mini", BaseURL: server.URL + "/"})
			got, err := client.Complete(context.Background(), llm.Request{System: "s", User: "u", Temperature: 0.8})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Complete() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if tt.wantAnyErr {
				if err == nil {
					t.Error("Complete() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Complete() unexpected error: %v", err)
			}
			if got != tt.wantContent {
				t.Errorf("Complete() = %q, want %q", got, tt.wantContent)
			}
		})
	}
}

func TestCompleteSendsTemperature(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("ok")))
	}))
	defer server.Close()

	client := NewClient(Options{APIKey: "test", Model: "gpt-4o-mini", BaseURL: server.URL + "/"})
	if _, err := client.Complete(context.Background(), llm.Request{System: "s", User: "u", Temperature: 0.8}); err != nil {
		t.Fatalf("Complete() error: %v", err)
	}

	if received["temperature"] != 0.8 {
		t.Errorf("temperature = %v, want 0.8", received["temperature"])
	}
	if received["model"] != "gpt-4o-mini" {
		t.Errorf("model = %v, want gpt-4o-mini", received["model"])
	}
	messages, _ := received["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(messages))
	}
	first, _ := messages[0].(map[string]any)
	if first["role"] != "system" {
		t.Errorf("first role = %v, want system", first["role"])
	}
}

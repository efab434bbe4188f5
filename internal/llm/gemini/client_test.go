package gemini

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"uploadagent/internal/llm"
)

func TestComplete(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantContent string
		wantErr     error
	}{
		{
			name:        "success",
			body:        `{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"title\":\"x\"}"}]}}]}`,
			wantContent: `{"title":"x"}`,
		},
		{
			name:    "noCandidates",
			body:    `{"candidates":[]}`,
			wantErr: llm.ErrNoResponse,
		},
		{
			name:    "emptyText",
			body:    `{"candidates":[{"content":{"role":"model","parts":[{"text":""}]}}]}`,
			wantErr: llm.ErrEmptyResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewClient(context.Background(), Options{
				APIKey:  "test-key",
				Model:   "gemini-2.0-flash",
				BaseURL: server.URL + "/",
			})
			if err != nil {
				t.Fatalf("NewClient() error: %v", err)
			}

			got, err := client.Complete(context.Background(), llm.Request{System: "s", User: "u", Temperature: 0.8, JSON: true})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Complete() error = %v, want %v", err, tt.wantErr)
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

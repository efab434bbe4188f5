package config

import (
	"context"
	"fmt"
	"log/slog"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

type secretAccessor interface {
	Access(ctx context.Context, id string) (string, error)
}

type secretManager struct {
	client  *secretmanager.Client
	project string
}

func newSecretManager(ctx context.Context, project string) (*secretManager, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &secretManager{client: client, project: project}, nil
}

func (s *secretManager) Access(ctx context.Context, id string) (string, error) {
	name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.project, id)
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("access secret %s: %w", id, err)
	}
	return string(resp.GetPayload().GetData()), nil
}

func (s *secretManager) Close() error {
	return s.client.Close()
}

// resolveSecrets fills credentials that the environment left empty. Values
// already present in the environment always win.
func resolveSecrets(ctx context.Context, cfg *Config, sm secretAccessor) {
	targets := []struct {
		id    string
		field *string
	}{
		{"groq-api-key", &cfg.GroqAPIKey},
		{"openai-api-key", &cfg.OpenAIAPIKey},
		{"gemini-api-key", &cfg.GeminiAPIKey},
		{"google-client-id", &cfg.GoogleClientID},
		{"google-client-secret", &cfg.GoogleClientSecret},
	}

	for _, t := range targets {
		if *t.field != "" {
			continue
		}
		value, err := sm.Access(ctx, t.id)
		if err != nil {
			slog.Debug("Secret not resolved", "secret", t.id, "error", err)
			continue
		}
		*t.field = value
	}
}

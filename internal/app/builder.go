package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"uploadagent/internal/distribution/youtube"
	"uploadagent/internal/history"
	"uploadagent/internal/llm"
	"uploadagent/internal/llm/gemini"
	"uploadagent/internal/llm/groq"
	"uploadagent/internal/llm/openai"
	"uploadagent/internal/media"
	"uploadagent/internal/metadata"
	"uploadagent/internal/storage"
	"uploadagent/internal/submission"
	"uploadagent/pkg/config"
	"uploadagent/pkg/httputil"
	"uploadagent/pkg/prompts"
)

func BuildService(ctx context.Context, cfg *config.Config) (*Service, error) {
	p, err := prompts.Load()
	if err != nil {
		return nil, err
	}

	llmClient, err := newLLMClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	fetcher := httputil.NewRetryClient(
		&http.Client{Timeout: cfg.Media.FetchTimeout},
		fetchRetryConfig(cfg.Media.FetchRetries),
	)

	hist := history.Open(cfg.History.Path, cfg.History.Limit)

	generator := metadata.NewGenerator(metadata.GeneratorOptions{
		Client:      llmClient,
		Prompts:     p,
		Temperature: cfg.LLM.Temperature,
	})

	orchestrator := submission.NewOrchestrator(submission.Options{
		Credentials: cfg,
		NewUploader: func() (submission.AuthorizedUploader, error) {
			return youtube.NewClient(NewYouTubeAuth(cfg)), nil
		},
		Opener:  media.NewOpener(store, fetcher),
		History: hist,
	})

	slog.Debug("Service built",
		"llm", llmClient.Provider(),
		"storage", cfg.Storage.Provider,
		"platform_credentials", cfg.HasPlatformCredentials(),
	)

	return NewService(ServiceOptions{
		Config:       cfg,
		LLM:          llmClient,
		Generator:    generator,
		Orchestrator: orchestrator,
		Store:        store,
		History:      hist,
	}), nil
}

// NewYouTubeAuth reads the token file fresh each time so a token saved by
// `uploadagent auth youtube` is picked up without a restart.
func NewYouTubeAuth(cfg *config.Config) *youtube.Auth {
	return youtube.NewAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.YouTubeTokenPath, cfg.YouTube.OAuthPort)
}

func newLLMClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	apiKey := cfg.LLMAPIKey()
	if apiKey == "" {
		slog.Warn("No API key for language model, metadata will use keyword fallback", "provider", cfg.LLM.Provider)
		return llm.Disabled{Name: cfg.LLM.Provider}, nil
	}

	switch cfg.LLM.Provider {
	case config.ProviderGroq:
		return groq.NewClient(groq.Options{
			APIKey:  apiKey,
			Model:   cfg.LLM.Model,
			BaseURL: cfg.LLM.BaseURL,
		})
	case config.ProviderOpenAI:
		return openai.NewClient(openai.Options{
			APIKey:  apiKey,
			Model:   cfg.LLM.Model,
			BaseURL: cfg.LLM.BaseURL,
		}), nil
	case config.ProviderGemini:
		return gemini.NewClient(ctx, gemini.Options{
			APIKey:  apiKey,
			Model:   cfg.LLM.Model,
			BaseURL: cfg.LLM.BaseURL,
		})
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, cfg.LLM.Provider)
	}
}

func newStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Provider {
	case config.StorageGCS:
		return storage.NewGCSStorage(ctx, cfg.GCSBucket, cfg.Storage.Prefix)
	case config.StorageLocal, "":
		return storage.NewLocalStorage(cfg.Storage.Dir), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownStorage, cfg.Storage.Provider)
	}
}

func fetchRetryConfig(retries *int) httputil.RetryConfig {
	rc := httputil.DefaultRetryConfig()
	switch {
	case retries == nil:
	case *retries <= 0:
		rc.MaxRetries = httputil.NoRetries
	default:
		rc.MaxRetries = *retries
	}
	return rc
}

package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"uploadagent/internal/llm"
)

const providerName = "gemini"

var _ llm.Client = (*Client)(nil)

type Client struct {
	client *genai.Client
	model  string
}

type Options struct {
	APIKey  string
	Model   string
	BaseURL string
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{client: client, model: opts.Model}, nil
}

func (c *Client) Provider() string {
	return providerName
}

func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	temperature := float32(req.Temperature)
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		},
		Temperature: &temperature,
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.User), config)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", llm.ErrNoResponse
	}

	text := resp.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", llm.ErrEmptyResponse
	}

	return text, nil
}

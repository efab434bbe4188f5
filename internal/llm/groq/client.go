package groq

import (
	"context"
	"fmt"

	"github.com/conneroisu/groq-go"

	"uploadagent/internal/llm"
)

const providerName = "groq"

var _ llm.Client = (*Client)(nil)

type Client struct {
	client *groq.Client
	model  groq.ChatModel
}

type Options struct {
	APIKey  string
	Model   string
	BaseURL string
}

func NewClient(opts Options) (*Client, error) {
	var groqOpts []groq.Opts
	if opts.BaseURL != "" {
		groqOpts = append(groqOpts, groq.WithBaseURL(opts.BaseURL))
	}

	client, err := groq.NewClient(opts.APIKey, groqOpts...)
	if err != nil {
		return nil, fmt.Errorf("create groq client: %w", err)
	}

	return &Client{
		client: client,
		model:  groq.ChatModel(opts.Model),
	}, nil
}

func (c *Client) Provider() string {
	return providerName
}

func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	chatReq := groq.ChatCompletionRequest{
		Model: c.model,
		Messages: []groq.ChatCompletionMessage{
			{Role: groq.RoleSystem, Content: req.System},
			{Role: groq.RoleUser, Content: req.User},
		},
		Temperature: float32(req.Temperature),
	}

	if req.JSON {
		chatReq.ResponseFormat = &groq.ChatResponseFormat{Type: "json_object"}
	}

	resp, err := c.client.ChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", llm.ErrNoResponse
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", llm.ErrEmptyResponse
	}

	return content, nil
}

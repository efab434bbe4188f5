package llm

import (
	"context"
	"errors"
)

var (
	ErrNotConfigured = errors.New("language model not configured")
	ErrNoResponse    = errors.New("no response")
	ErrEmptyResponse = errors.New("empty response")
)

// Request is a single role-tagged instruction pair.
type Request struct {
	System      string
	User        string
	Temperature float64
	JSON        bool
}

type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	Provider() string
}

// Disabled stands in for a provider whose API key is missing. Every call
// fails, which sends metadata generation down its fallback path.
type Disabled struct {
	Name string
}

var _ Client = Disabled{}

func (d Disabled) Complete(ctx context.Context, req Request) (string, error) {
	return "", ErrNotConfigured
}

func (d Disabled) Provider() string {
	if d.Name == "" {
		return "disabled"
	}
	return d.Name + " (disabled)"
}

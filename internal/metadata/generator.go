package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"uploadagent/internal/llm"
	"uploadagent/pkg/prompts"
)

// DefaultTemperature favours creative variation between drafts.
const DefaultTemperature = 0.8

const defaultContextLabel = "video"

var errMissingTitle = errors.New("missing title")

type Request struct {
	Category     Category
	Language     string
	ContextLabel string
}

type Generator struct {
	client      llm.Client
	prompts     *prompts.Prompts
	temperature float64
}

type GeneratorOptions struct {
	Client      llm.Client
	Prompts     *prompts.Prompts
	Temperature float64
}

func NewGenerator(opts GeneratorOptions) *Generator {
	if opts.Client == nil {
		opts.Client = llm.Disabled{}
	}
	if opts.Prompts == nil {
		opts.Prompts = prompts.Default()
	}
	if opts.Temperature == 0 {
		opts.Temperature = DefaultTemperature
	}
	return &Generator{
		client:      opts.Client,
		prompts:     opts.Prompts,
		temperature: opts.Temperature,
	}
}

// ContextLabel names the video for the prompt: the uploaded file's name, the
// last path segment of the URL, or "video".
func ContextLabel(fileName, url string) string {
	if fileName != "" {
		return fileName
	}
	if url != "" {
		if i := strings.LastIndex(url, "/"); i >= 0 {
			url = url[i+1:]
		}
		if url != "" {
			return url
		}
	}
	return defaultContextLabel
}

// Generate asks the language model for a draft. It never fails: transport and
// parse errors produce keyword-based fallback metadata instead.
func (g *Generator) Generate(ctx context.Context, req Request) Result {
	m, err := g.fromModel(ctx, req)
	if err != nil {
		slog.Warn("Metadata generation fell back to keywords",
			"provider", g.client.Provider(),
			"category", req.Category,
			"error", err,
		)
		return Result{Metadata: Fallback(req.Category, req.ContextLabel), Source: SourceFallback}
	}
	return Result{Metadata: m, Source: SourceModel}
}

// Draft generates and normalizes metadata ready to show the user.
func (g *Generator) Draft(ctx context.Context, req Request) Result {
	result := g.Generate(ctx, req)
	result.Metadata = Normalize(result.Metadata)
	return result
}

func (g *Generator) fromModel(ctx context.Context, req Request) (Metadata, error) {
	prompt, err := g.prompts.RenderMetadata(prompts.MetadataParams{
		Category:     string(req.Category),
		Language:     req.Language,
		ContextLabel: req.ContextLabel,
	})
	if err != nil {
		return Metadata{}, fmt.Errorf("render prompt: %w", err)
	}

	content, err := g.client.Complete(ctx, llm.Request{
		System:      g.prompts.System.Metadata,
		User:        prompt,
		Temperature: g.temperature,
		JSON:        true,
	})
	if err != nil {
		return Metadata{}, err
	}

	return parseMetadata(content)
}

func parseMetadata(content string) (Metadata, error) {
	var m Metadata
	if err := json.Unmarshal([]byte(stripFence(content)), &m); err != nil {
		return Metadata{}, fmt.Errorf("parse response: %w", err)
	}
	if strings.TrimSpace(m.Title) == "" {
		return Metadata{}, fmt.Errorf("parse response: %w", errMissingTitle)
	}
	if m.Hashtags == nil {
		m.Hashtags = []string{}
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	return m, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

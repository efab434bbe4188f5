package prompts

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

const defaultPromptsPath = "prompts.yaml"

const (
	defaultMetadataSystem = "You are a YouTube SEO expert. Always respond with valid JSON only."

	defaultMetadataGenerate = `You are a YouTube SEO expert. Generate optimized metadata for a {{.Category}} video with filename/context: "{{.ContextLabel}}".

Requirements:
- Title: 60-70 characters, SEO-optimized, attention-grabbing
- Description: 200-300 words with keywords, call-to-action, and value proposition
- Hashtags: 5-8 relevant hashtags
- Tags: 15-20 SEO keywords
- Thumbnail prompt: Detailed description for creating an eye-catching thumbnail

Category: {{.Category}}
Language: {{.Language}}

Return ONLY valid JSON in this exact format:
{
  "title": "SEO Title Here",
  "description": "Full description here...",
  "hashtags": ["#hashtag1", "#hashtag2"],
  "tags": ["tag1", "tag2", "tag3"],
  "thumbnailPrompt": "Thumbnail description here"
}`
)

type Prompts struct {
	System   SystemPrompts   `yaml:"system"`
	Metadata MetadataPrompts `yaml:"metadata"`
}

type SystemPrompts struct {
	Metadata string `yaml:"metadata"`
}

type MetadataPrompts struct {
	Generate string `yaml:"generate"`
}

type MetadataParams struct {
	Category     string
	Language     string
	ContextLabel string
}

// Default returns the built-in prompt set.
func Default() *Prompts {
	return &Prompts{
		System:   SystemPrompts{Metadata: defaultMetadataSystem},
		Metadata: MetadataPrompts{Generate: defaultMetadataGenerate},
	}
}

// Load reads prompts.yaml from the working directory. A missing file is not
// an error: the built-in prompts are used instead.
func Load() (*Prompts, error) {
	p, err := LoadFrom(defaultPromptsPath)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return p, err
}

// LoadFrom reads a prompts file. Keys absent from the file keep their
// built-in values.
func LoadFrom(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	p := Default()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}

	return p, nil
}

func (p *Prompts) RenderMetadata(params MetadataParams) (string, error) {
	return render(p.Metadata.Generate, params)
}

func render(tmpl string, data any) (string, error) {
	t, err := template.New("prompt").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

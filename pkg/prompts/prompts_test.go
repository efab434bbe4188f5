package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	originalWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(originalWd) }()

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}

	p, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.System.Metadata != defaultMetadataSystem {
		t.Errorf("System.Metadata = %q, want default", p.System.Metadata)
	}
	if p.Metadata.Generate != defaultMetadataGenerate {
		t.Error("Metadata.Generate is not the default template")
	}
}

func TestLoadFromOverridesOnlyGivenKeys(t *testing.T) {
	tmpDir := t.TempDir()
	promptsPath := filepath.Join(tmpDir, "custom.yaml")

	content := `
system:
  metadata: "Custom system"
`
	if err := os.WriteFile(promptsPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadFrom(promptsPath)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if p.System.Metadata != "Custom system" {
		t.Errorf("System.Metadata = %q, want %q", p.System.Metadata, "Custom system")
	}
	if p.Metadata.Generate != defaultMetadataGenerate {
		t.Error("Metadata.Generate should keep the default")
	}
}

func TestLoadFromInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	promptsPath := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(promptsPath, []byte("system: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(promptsPath); err == nil {
		t.Error("LoadFrom() should fail on invalid yaml")
	}
}

func TestRenderMetadata(t *testing.T) {
	p := Default()

	got, err := p.RenderMetadata(MetadataParams{
		Category:     "gaming",
		Language:     "de",
		ContextLabel: "clip1.mp4",
	})
	if err != nil {
		t.Fatalf("RenderMetadata() error = %v", err)
	}

	wants := []string{
		`a gaming video with filename/context: "clip1.mp4"`,
		"Title: 60-70 characters",
		"Description: 200-300 words",
		"Hashtags: 5-8",
		"Tags: 15-20",
		"Category: gaming",
		"Language: de",
		`"thumbnailPrompt"`,
	}
	for _, want := range wants {
		if !strings.Contains(got, want) {
			t.Errorf("rendered prompt missing %q", want)
		}
	}
}

func TestRenderInvalidTemplate(t *testing.T) {
	p := &Prompts{Metadata: MetadataPrompts{Generate: "{{.Category"}}
	if _, err := p.RenderMetadata(MetadataParams{}); err == nil {
		t.Error("RenderMetadata() should fail on a malformed template")
	}
}

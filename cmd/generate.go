package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"uploadagent/internal/api"
	"uploadagent/internal/app"
	"uploadagent/internal/distribution"
	"uploadagent/internal/media"
	"uploadagent/internal/metadata"
	"uploadagent/internal/workflow"
	"uploadagent/pkg/config"
)

var (
	genFile     string
	genURL      string
	genCategory string
	genLanguage string
	genSchedule string
	genMonetize bool
	genUpload   bool
	genJSON     bool
	genServer   string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Draft metadata for a video, optionally uploading it",
	Long: `Draft SEO metadata for a local file or a video URL. With --upload the
draft is submitted right away; use "wizard" to review and edit it first.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genFile, "file", "f", "", "Path to a local video file")
	generateCmd.Flags().StringVarP(&genURL, "url", "u", "", "URL of a remote video")
	generateCmd.Flags().StringVarP(&genCategory, "category", "c", string(metadata.CategoryTech), "Category: tech, vlog, shorts, gaming or tutorial")
	generateCmd.Flags().StringVarP(&genLanguage, "language", "l", "en", "Language tag passed to the model")
	generateCmd.Flags().StringVar(&genSchedule, "schedule", "", "Publish time (RFC3339 or 2006-01-02T15:04); empty publishes immediately")
	generateCmd.Flags().BoolVar(&genMonetize, "monetize", false, "Request monetization")
	generateCmd.Flags().BoolVar(&genUpload, "upload", false, "Upload after drafting")
	generateCmd.Flags().BoolVar(&genJSON, "json", false, "Print the draft as JSON")
	generateCmd.Flags().StringVarP(&genServer, "server", "s", "", "Use a running server instead of generating in-process")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	video, err := videoReference(genFile, genURL)
	if err != nil {
		return err
	}
	category, err := parseCategory(genCategory)
	if err != nil {
		return err
	}
	if genSchedule != "" {
		if _, err := distribution.ParseSchedule(genSchedule); err != nil {
			return err
		}
	}

	c, done, err := newController(ctx, genServer)
	if err != nil {
		return err
	}
	defer done()

	if err := c.Update(func(r *workflow.UploadRequest) {
		r.Video = video
		r.Category = category
		r.Language = genLanguage
		r.Monetization = genMonetize
		r.ScheduleTime = genSchedule
	}); err != nil {
		return err
	}

	if err := c.Generate(ctx); err != nil {
		return err
	}

	preview, ok := c.State().(workflow.Preview)
	if !ok {
		return fmt.Errorf("unexpected stage %s after generation", c.State().Stage())
	}

	if genJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(preview.Metadata); err != nil {
			return err
		}
	} else {
		printMetadata(preview.Metadata)
	}

	if !genUpload {
		return nil
	}

	if err := c.Upload(ctx); err != nil {
		return err
	}
	if summary, ok := c.State().(workflow.Summary); ok {
		printSummary(summary)
	}
	return nil
}

// newController builds a controller that runs in-process, or against a
// server when addr is set. The returned func releases resources.
func newController(ctx context.Context, addr string) (*workflow.Controller, func(), error) {
	if addr != "" {
		client := api.NewClient(addr, nil)
		if err := client.Health(ctx); err != nil {
			return nil, nil, fmt.Errorf("server %s not reachable: %w", addr, err)
		}
		return workflow.NewController(client, client), func() {}, nil
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	service, err := app.BuildService(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return service.NewController(), func() { _ = service.Close() }, nil
}

func videoReference(file, url string) (media.Reference, error) {
	switch {
	case file != "" && url != "":
		return media.Reference{}, errors.New("use either --file or --url, not both")
	case file != "":
		info, err := os.Stat(file)
		if err != nil {
			return media.Reference{}, fmt.Errorf("video file: %w", err)
		}
		if info.IsDir() {
			return media.Reference{}, fmt.Errorf("video file %s is a directory", file)
		}
		return media.Reference{FileName: filepath.Base(file), LocalPath: file}, nil
	case url != "":
		if err := media.ValidateURL(url); err != nil {
			return media.Reference{}, err
		}
		return media.Reference{URL: url}, nil
	default:
		return media.Reference{}, media.ErrNoVideo
	}
}

func parseCategory(s string) (metadata.Category, error) {
	c := metadata.Category(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(metadata.Categories, c) {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

func printMetadata(m metadata.Metadata) {
	fmt.Println(titleStyle.Render(m.Title))
	fmt.Println(m.Description)
	fmt.Println()
	fmt.Println(infoStyle.Render("Hashtags: ") + strings.Join(m.Hashtags, " "))
	fmt.Println(infoStyle.Render("Tags:     ") + strings.Join(m.Tags, ", "))
	fmt.Println(infoStyle.Render("Thumbnail: ") + m.ThumbnailPrompt)
	fmt.Println()
}

func printSummary(s workflow.Summary) {
	fmt.Println(successStyle.Render("✓ " + s.Result.Message))
	fmt.Println(infoStyle.Render("  Video:   ") + s.Result.VideoURL)
	fmt.Println(infoStyle.Render("  Publish: ") + s.PublishDate)
}

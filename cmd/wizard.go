package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"

	"uploadagent/internal/distribution"
	"uploadagent/internal/metadata"
	"uploadagent/internal/workflow"
)

const (
	actionUpload = "upload"
	actionEdit   = "edit"
	actionBack   = "back"
	actionReset  = "reset"
	actionQuit   = "quit"
)

var errQuit = errors.New("quit")

var wizardServer string

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactively draft, review and upload a video",
	Long: `Walk through the three steps of a submission: describe the video, review
and edit the generated metadata, then upload and see the summary.`,
	RunE: runWizard,
}

func init() {
	wizardCmd.Flags().StringVarP(&wizardServer, "server", "s", "", "Use a running server instead of generating in-process")
	rootCmd.AddCommand(wizardCmd)
}

func runWizard(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	c, done, err := newController(ctx, wizardServer)
	if err != nil {
		return err
	}
	defer done()

	fmt.Println(titleStyle.Render("🎬 Uploadagent"))

	for {
		var err error
		switch st := c.State().(type) {
		case workflow.Input:
			err = wizardInput(ctx, c, st)
		case workflow.Preview:
			err = wizardPreview(ctx, c, st)
		case workflow.Summary:
			err = wizardSummary(c, st)
		}
		if errors.Is(err, errQuit) || errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func wizardInput(ctx context.Context, c *workflow.Controller, st workflow.Input) error {
	req := st.Request
	category := string(req.Category)
	source := "file"
	var location string
	if req.Video.URL != "" {
		source, location = "url", req.Video.URL
	} else if req.Video.LocalPath != "" {
		location = req.Video.LocalPath
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Video source").
				Options(huh.NewOption("Local file", "file"), huh.NewOption("Remote URL", "url")).
				Value(&source),
			huh.NewInput().
				TitleFunc(func() string {
					if source == "url" {
						return "Video URL"
					}
					return "Video file path"
				}, &source).
				Value(&location).
				Validate(required("Video")),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Category").
				Options(categoryOptions()...).
				Value(&category),
			huh.NewInput().
				Title("Language").
				Value(&req.Language).
				Validate(required("Language")),
			huh.NewConfirm().
				Title("Enable monetization?").
				Value(&req.Monetization),
			huh.NewInput().
				Title("Schedule").
				Description("Optional publish time, e.g. 2030-01-02T15:04. Empty publishes immediately").
				Value(&req.ScheduleTime).
				Validate(validSchedule),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	var err error
	if source == "url" {
		req.Video, err = videoReference("", strings.TrimSpace(location))
	} else {
		req.Video, err = videoReference(strings.TrimSpace(location), "")
	}
	if err != nil {
		fmt.Println(errorStyle.Render("✗ " + err.Error()))
	}

	if err := c.Update(func(r *workflow.UploadRequest) {
		*r = req
		r.Category = metadata.Category(category)
	}); err != nil {
		return err
	}
	if !c.CanGenerate() {
		return nil
	}

	// A failed generation leaves the workflow at Input with the error shown.
	_ = runAction("Generating metadata", func() error { return c.Generate(ctx) })
	return ctx.Err()
}

func wizardPreview(ctx context.Context, c *workflow.Controller, st workflow.Preview) error {
	printMetadata(st.Metadata)
	if msg := c.Err(); msg != "" {
		fmt.Println(errorStyle.Render("✗ " + msg))
	}

	var action string
	if err := huh.NewSelect[string]().
		Title("What next?").
		Options(
			huh.NewOption("Upload", actionUpload),
			huh.NewOption("Edit metadata", actionEdit),
			huh.NewOption("Back to video details", actionBack),
			huh.NewOption("Quit", actionQuit),
		).
		Value(&action).
		Run(); err != nil {
		return err
	}

	switch action {
	case actionUpload:
		err := runAction("Uploading video", func() error { return c.Upload(ctx) })
		var subErr *workflow.SubmissionError
		if errors.As(err, &subErr) || errors.Is(err, metadata.ErrIncomplete) {
			return nil
		}
		return err
	case actionEdit:
		return editMetadata(c, st.Metadata)
	case actionBack:
		return c.Back()
	default:
		return errQuit
	}
}

func wizardSummary(c *workflow.Controller, st workflow.Summary) error {
	fmt.Println(titleStyle.Render(st.Metadata.Title))
	printSummary(st)

	var action string
	if err := huh.NewSelect[string]().
		Title("Done").
		Options(
			huh.NewOption("Upload another video", actionReset),
			huh.NewOption("Quit", actionQuit),
		).
		Value(&action).
		Run(); err != nil {
		return err
	}

	if action == actionReset {
		c.Reset()
		return nil
	}
	return errQuit
}

func editMetadata(c *workflow.Controller, m metadata.Metadata) error {
	hashtags := strings.Join(m.Hashtags, " ")
	tags := strings.Join(m.Tags, ", ")

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(&m.Title).CharLimit(100),
			huh.NewText().Title("Description").Value(&m.Description).Lines(8),
			huh.NewInput().Title("Hashtags").Description("Space separated").Value(&hashtags),
			huh.NewInput().Title("Tags").Description("Comma separated").Value(&tags),
			huh.NewText().Title("Thumbnail prompt").Value(&m.ThumbnailPrompt).Lines(3),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	m.Hashtags = strings.Fields(hashtags)
	m.Tags = splitTags(tags)
	return c.Edit(func(draft *metadata.Metadata) { *draft = m })
}

// runAction runs fn behind a spinner and reports its outcome.
func runAction(title string, fn func() error) error {
	var err error
	_ = spinner.New().
		Title(title).
		Action(func() { err = fn() }).
		Run()
	if err != nil {
		fmt.Println(errorStyle.Render("✗ " + err.Error()))
		return err
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}

func categoryOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(metadata.Categories))
	for _, c := range metadata.Categories {
		opts = append(opts, huh.NewOption(c.Title(), string(c)))
	}
	return opts
}

func validSchedule(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	_, err := distribution.ParseSchedule(strings.TrimSpace(s))
	return err
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

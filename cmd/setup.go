package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"uploadagent/internal/app"
	"uploadagent/pkg/config"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard for Uploadagent",
	Long:  `Configure API keys and Google credentials, and create the local working directories.`,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("🎬 Uploadagent Setup"))

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Creating directories", createDirectories},
		{"Configuring environment", configureEnv},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	return nil
}

func createDirectories() error {
	dirs := []string{".uploads", ".history"}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	fmt.Println(successStyle.Render("✓ Created directories"))
	return nil
}

func configureEnv() error {
	if _, err := os.Stat(".env"); err == nil {
		var overwrite bool
		if err := huh.NewConfirm().
			Title("Found existing .env file").
			Description("Overwrite?").
			Value(&overwrite).
			Run(); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println(infoStyle.Render("Kept existing .env"))
			return nil
		}
	}

	env := make(map[string]string)

	if err := configureLLM(env); err != nil {
		return err
	}

	if err := configureGCP(env); err != nil {
		return err
	}

	return writeEnvFile(env)
}

func configureLLM(env map[string]string) error {
	var provider, apiKey string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Language model provider").
				Options(
					huh.NewOption("Groq", config.ProviderGroq),
					huh.NewOption("OpenAI", config.ProviderOpenAI),
					huh.NewOption("Gemini", config.ProviderGemini),
				).
				Value(&provider),
		),
		huh.NewGroup(
			huh.NewInput().
				TitleFunc(func() string { return strings.ToUpper(provider) + " API Key" }, &provider).
				Description("Leave empty to always use keyword-based fallback metadata").
				EchoMode(huh.EchoModePassword).
				Value(&apiKey),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	env["LLM_PROVIDER"] = provider
	if apiKey = strings.TrimSpace(apiKey); apiKey != "" {
		env[providerKeyEnv(provider)] = apiKey
	}
	return nil
}

func providerKeyEnv(provider string) string {
	switch provider {
	case config.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case config.ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return "GROQ_API_KEY"
	}
}

func configureGCP(env map[string]string) error {
	var setupGCP bool
	if err := huh.NewConfirm().
		Title("Setup Google Cloud?").
		Description("Required for real YouTube uploads, optional GCS staging and Secret Manager").
		Value(&setupGCP).
		Run(); err != nil {
		return err
	}

	if !setupGCP {
		fmt.Println(infoStyle.Render("Uploads will run in demo mode"))
		return nil
	}

	if commandExists("gcloud") {
		if project, err := getOrCreateGCPProject(); err != nil {
			fmt.Println(warnStyle.Render(fmt.Sprintf("GCP project setup skipped: %v", err)))
		} else {
			env["GOOGLE_CLOUD_PROJECT"] = project
			if err := enableGCPAPIs(project); err != nil {
				fmt.Println(warnStyle.Render(fmt.Sprintf("API enablement failed: %v", err)))
			}
		}
	} else {
		fmt.Println(warnStyle.Render("gcloud CLI not found - install from https://cloud.google.com/sdk/docs/install"))
	}

	if err := setupYouTubeOAuth(env); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("YouTube OAuth skipped: %v", err)))
	}

	if err := setupStagingBucket(env); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("GCS staging skipped: %v", err)))
	}

	return nil
}

func getOrCreateGCPProject() (string, error) {
	existing := getActiveProject()

	var choice string
	options := []huh.Option[string]{
		huh.NewOption("Create new project", "new"),
	}

	if existing != "" {
		options = append([]huh.Option[string]{
			huh.NewOption(fmt.Sprintf("Use current: %s", existing), existing),
		}, options...)
	}

	options = append(options, huh.NewOption("Enter project ID manually", "manual"))

	if err := huh.NewSelect[string]().
		Title("Google Cloud Project").
		Options(options...).
		Value(&choice).
		Run(); err != nil {
		return "", err
	}

	switch choice {
	case "new":
		return createGCPProject()
	case "manual":
		var projectID string
		if err := huh.NewInput().
			Title("Project ID").
			Value(&projectID).
			Validate(required("Project ID")).
			Run(); err != nil {
			return "", err
		}
		return strings.TrimSpace(projectID), nil
	default:
		return choice, nil
	}
}

func getActiveProject() string {
	out, err := exec.Command("gcloud", "config", "get-value", "project").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func createGCPProject() (string, error) {
	var projectID string
	if err := huh.NewInput().
		Title("New Project ID").
		Description("Must be globally unique, 6-30 chars, lowercase letters, digits, hyphens").
		Placeholder("uploadagent-12345").
		Value(&projectID).
		Validate(func(s string) error {
			if len(s) < 6 || len(s) > 30 {
				return fmt.Errorf("must be 6-30 characters")
			}
			return nil
		}).
		Run(); err != nil {
		return "", err
	}

	err := runWithSpinner("Creating project", func() error {
		return runSetupCmd("gcloud", "projects", "create", projectID)
	})
	if err != nil {
		return "", err
	}

	_ = runSetupCmd("gcloud", "config", "set", "project", projectID)

	return projectID, nil
}

func enableGCPAPIs(project string) error {
	apis := []string{
		"youtube.googleapis.com",
		"storage.googleapis.com",
		"secretmanager.googleapis.com",
	}

	return runWithSpinner("Enabling APIs", func() error {
		args := append([]string{"services", "enable"}, apis...)
		args = append(args, "--project", project)
		return runSetupCmd("gcloud", args...)
	})
}

func setupYouTubeOAuth(env map[string]string) error {
	var setup bool
	if err := huh.NewConfirm().
		Title("Setup YouTube OAuth?").
		Description("Required for uploading videos to YouTube").
		Value(&setup).
		Run(); err != nil || !setup {
		return err
	}

	fmt.Println(infoStyle.Render(`
To create OAuth credentials:
1. Go to https://console.cloud.google.com/apis/credentials
2. Click "Create Credentials" → "OAuth client ID"
3. Choose "Desktop app" as application type
4. Copy the Client ID and Client Secret
`))

	var clientID, clientSecret string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Google Client ID").
				Value(&clientID),
			huh.NewInput().
				Title("Google Client Secret").
				EchoMode(huh.EchoModePassword).
				Value(&clientSecret),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	clientID = strings.TrimSpace(clientID)
	clientSecret = strings.TrimSpace(clientSecret)

	if clientID != "" {
		env["GOOGLE_CLIENT_ID"] = clientID
	}
	if clientSecret != "" {
		env["GOOGLE_CLIENT_SECRET"] = clientSecret
	}

	if clientID == "" || clientSecret == "" {
		return nil
	}

	var authenticate bool
	if err := huh.NewConfirm().
		Title("Authenticate with YouTube now?").
		Description("Opens browser to complete OAuth flow").
		Value(&authenticate).
		Run(); err != nil {
		return err
	}

	if authenticate {
		cfg := &config.Config{
			GoogleClientID:     clientID,
			GoogleClientSecret: clientSecret,
			YouTubeTokenPath:   config.DefaultYouTubeTokenPath,
		}
		if err := runYouTubeAuth(rootCmd.Context(), app.NewYouTubeAuth(cfg)); err != nil {
			fmt.Println(warnStyle.Render(fmt.Sprintf("OAuth flow failed: %v", err)))
			fmt.Println(infoStyle.Render("You can retry later with: uploadagent auth youtube"))
		}
	}

	return nil
}

func setupStagingBucket(env map[string]string) error {
	var bucket string
	if err := huh.NewInput().
		Title("GCS bucket for staged uploads").
		Description("Optional. Leave empty to stage uploaded files on local disk").
		Value(&bucket).
		Run(); err != nil {
		return err
	}

	if bucket = strings.TrimSpace(bucket); bucket != "" {
		env["GCS_BUCKET"] = bucket
	}
	return nil
}

func writeEnvFile(env map[string]string) error {
	f, err := os.Create(".env")
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	order := []string{
		"GOOGLE_CLOUD_PROJECT",
		"LLM_PROVIDER",
		"GROQ_API_KEY",
		"OPENAI_API_KEY",
		"GEMINI_API_KEY",
		"GOOGLE_CLIENT_ID",
		"GOOGLE_CLIENT_SECRET",
		"GCS_BUCKET",
	}

	for _, key := range order {
		if val, ok := env[key]; ok && val != "" {
			_, _ = fmt.Fprintf(f, "%s=%s\n", key, val)
		}
	}

	fmt.Println(successStyle.Render("✓ Created .env file"))
	printNextSteps()
	return nil
}

func printNextSteps() {
	fmt.Println()
	fmt.Println(titleStyle.Render("Next steps:"))
	fmt.Println("  1. Check credentials: uploadagent auth status")
	fmt.Println("  2. Try a draft:       uploadagent generate --url https://example.com/clip.mp4")
	fmt.Println("  3. Start the API:     uploadagent serve")
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runSetupCmd(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %s", err, stderr.String())
	}
	return nil
}

func runWithSpinner(title string, fn func() error) error {
	var err error
	_ = spinner.New().
		Title(title).
		Action(func() { err = fn() }).
		Run()
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}

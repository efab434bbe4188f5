package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"uploadagent/internal/app"
	"uploadagent/internal/distribution/youtube"
	"uploadagent/pkg/config"
)

const authTimeout = 5 * time.Minute

var (
	authInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	authSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	authErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate with external services",
	Long:  `Authenticate with YouTube using the OAuth client credentials from .env`,
}

var authYouTubeCmd = &cobra.Command{
	Use:   "youtube",
	Short: "Authenticate with YouTube (OAuth)",
	Long: `Complete the YouTube OAuth flow in the browser and store the token file
used for real uploads.`,
	RunE: runAuthYouTube,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check which services are configured and authenticated",
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authYouTubeCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println(authInfoStyle.Render("\nService Authentication Status:\n"))

	if cfg.HasPlatformCredentials() {
		if app.NewYouTubeAuth(cfg).HasToken() {
			fmt.Println(authSuccessStyle.Render("✓ YouTube: authenticated (token at " + cfg.YouTubeTokenPath + ")"))
		} else {
			fmt.Println(authErrorStyle.Render("✗ YouTube: credentials set, but not authenticated"))
			fmt.Println(authInfoStyle.Render("  Run: uploadagent auth youtube"))
		}
	} else {
		fmt.Println(authInfoStyle.Render("○ YouTube: GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET missing, uploads run in demo mode"))
	}

	if cfg.LLMAPIKey() != "" {
		fmt.Println(authSuccessStyle.Render(fmt.Sprintf("✓ LLM: %s (%s)", cfg.LLM.Provider, cfg.LLM.Model)))
	} else {
		fmt.Println(authErrorStyle.Render(fmt.Sprintf("✗ LLM: no API key for %s, metadata uses keyword fallback", cfg.LLM.Provider)))
	}

	switch cfg.Storage.Provider {
	case config.StorageGCS:
		fmt.Println(authSuccessStyle.Render("✓ Storage: gs://" + cfg.GCSBucket))
	default:
		fmt.Println(authInfoStyle.Render("○ Storage: local (" + cfg.Storage.Dir + ")"))
	}

	if cfg.Secrets.Enabled {
		fmt.Println(authSuccessStyle.Render("✓ Secret Manager: project " + cfg.GCPProject))
	} else {
		fmt.Println(authInfoStyle.Render("○ Secret Manager: not enabled (optional)"))
	}

	fmt.Println()
	return nil
}

func runAuthYouTube(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.HasPlatformCredentials() {
		return errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set in .env")
	}

	return runYouTubeAuth(ctx, app.NewYouTubeAuth(cfg))
}

func runYouTubeAuth(ctx context.Context, auth *youtube.Auth) error {
	redirect, err := url.Parse(auth.RedirectURL())
	if err != nil {
		return fmt.Errorf("invalid redirect URL: %w", err)
	}

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)
	state := uuid.NewString()

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}

	server := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
	}

	server.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != redirect.Path {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			errChan <- errors.New("no code in callback")
			_, _ = fmt.Fprintf(w, "<html><body><h1>Error</h1><p>No authorization code received.</p></body></html>")
			return
		}

		codeChan <- code
		_, _ = fmt.Fprintf(w, "<html><body><h1>Success!</h1><p>You can close this window and return to the terminal.</p></body></html>")
	})

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}()

	authURL := auth.AuthURL(state)
	fmt.Println(authInfoStyle.Render("\nOpening browser for YouTube authentication..."))
	fmt.Println(authInfoStyle.Render("If browser doesn't open, visit:\n" + authURL))

	_ = browser.OpenURL(authURL)

	fmt.Println(authInfoStyle.Render("\nWaiting for authentication..."))

	select {
	case code := <-codeChan:
		if err := auth.Exchange(ctx, code); err != nil {
			return err
		}
		fmt.Println(authSuccessStyle.Render("✓ YouTube authentication complete"))
		fmt.Println(authSuccessStyle.Render("  Token saved to: " + auth.TokenPath()))
		return nil

	case err := <-errChan:
		return err

	case <-ctx.Done():
		return ctx.Err()

	case <-time.After(authTimeout):
		return errors.New("authentication timed out")
	}
}

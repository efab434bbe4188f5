package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"uploadagent/internal/distribution"
)

const DefaultCallbackPort = 8085

var scopes = []string{
	"https://www.googleapis.com/auth/youtube.upload",
	"https://www.googleapis.com/auth/youtube",
}

// Auth holds the OAuth client configuration and the user token persisted by
// `uploadagent auth youtube`.
type Auth struct {
	config    *oauth2.Config
	tokenPath string

	mu    sync.Mutex
	token *oauth2.Token
}

func NewAuth(clientID, clientSecret, tokenPath string, callbackPort int) *Auth {
	if callbackPort == 0 {
		callbackPort = DefaultCallbackPort
	}
	return &Auth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       scopes,
			RedirectURL:  fmt.Sprintf("http://localhost:%d/callback", callbackPort),
		},
		tokenPath: tokenPath,
	}
}

func (a *Auth) TokenPath() string { return a.tokenPath }

func (a *Auth) RedirectURL() string { return a.config.RedirectURL }

func (a *Auth) LoadToken() error {
	data, err := os.ReadFile(a.tokenPath)
	if errors.Is(err, fs.ErrNotExist) {
		return distribution.ErrNotAuthenticated
	}
	if err != nil {
		return fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return fmt.Errorf("failed to parse token: %w", err)
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return distribution.ErrNotAuthenticated
	}

	a.mu.Lock()
	a.token = &token
	a.mu.Unlock()
	return nil
}

func (a *Auth) SaveToken() error {
	a.mu.Lock()
	token := a.token
	a.mu.Unlock()

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if dir := filepath.Dir(a.tokenPath); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}

	if err := os.WriteFile(a.tokenPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// HasToken reports whether a usable user token is stored. It does not check
// expiry: an expired access token is refreshed on first use.
func (a *Auth) HasToken() bool {
	a.mu.Lock()
	loaded := a.token != nil
	a.mu.Unlock()
	return loaded || a.LoadToken() == nil
}

func (a *Auth) AuthURL(state string) string {
	return a.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (a *Auth) Exchange(ctx context.Context, code string) error {
	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange code: %w", err)
	}

	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
	return a.SaveToken()
}

// Client returns an HTTP client that authorizes requests with the stored
// token and persists refreshed tokens back to disk.
func (a *Auth) Client(ctx context.Context) (*http.Client, error) {
	a.mu.Lock()
	token := a.token
	a.mu.Unlock()

	if token == nil {
		if err := a.LoadToken(); err != nil {
			return nil, err
		}
		a.mu.Lock()
		token = a.token
		a.mu.Unlock()
	}

	ts := &persistingSource{
		auth: a,
		base: a.config.TokenSource(ctx, token),
		last: token.AccessToken,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, ts)), nil
}

type persistingSource struct {
	auth *Auth
	base oauth2.TokenSource
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if token.AccessToken != s.last {
		s.last = token.AccessToken
		s.auth.mu.Lock()
		s.auth.token = token
		s.auth.mu.Unlock()
		_ = s.auth.SaveToken()
	}
	return token, nil
}

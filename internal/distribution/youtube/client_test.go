package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"uploadagent/internal/distribution"
)

func writeToken(t *testing.T, path string, token *oauth2.Token) {
	t.Helper()
	data, _ := json.Marshal(token)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write token: %v", err)
	}
}

func validToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  "test-access-token",
		TokenType:    "Bearer",
		RefreshToken: "test-refresh-token",
		Expiry:       time.Now().Add(time.Hour),
	}
}

func TestNewAuth(t *testing.T) {
	auth := NewAuth("client-id", "client-secret", "/tmp/token.json", 0)

	if auth.config.ClientID != "client-id" {
		t.Errorf("ClientID = %q, want %q", auth.config.ClientID, "client-id")
	}
	if auth.config.ClientSecret != "client-secret" {
		t.Errorf("ClientSecret = %q, want %q", auth.config.ClientSecret, "client-secret")
	}
	if auth.TokenPath() != "/tmp/token.json" {
		t.Errorf("TokenPath() = %q", auth.TokenPath())
	}
	if auth.RedirectURL() != "http://localhost:8085/callback" {
		t.Errorf("RedirectURL() = %q", auth.RedirectURL())
	}

	if got := NewAuth("a", "b", "t", 9000).RedirectURL(); got != "http://localhost:9000/callback" {
		t.Errorf("RedirectURL() with port = %q", got)
	}
}

func TestAuthURL(t *testing.T) {
	auth := NewAuth("client-id", "client-secret", "/tmp/token.json", 0)
	url := auth.AuthURL("state-123")

	for _, want := range []string{"client_id=client-id", "state=state-123", "access_type=offline", "youtube.upload"} {
		if !strings.Contains(url, want) {
			t.Errorf("AuthURL() = %q, missing %q", url, want)
		}
	}
}

func TestAuthLoadToken(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, path string)
		wantErr error
		anyErr  bool
	}{
		{
			name:  "validToken",
			setup: func(t *testing.T, path string) { writeToken(t, path, validToken()) },
		},
		{
			name:    "missingFile",
			setup:   func(t *testing.T, path string) {},
			wantErr: distribution.ErrNotAuthenticated,
		},
		{
			name:    "emptyToken",
			setup:   func(t *testing.T, path string) { writeToken(t, path, &oauth2.Token{}) },
			wantErr: distribution.ErrNotAuthenticated,
		},
		{
			name: "invalidJSON",
			setup: func(t *testing.T, path string) {
				_ = os.WriteFile(path, []byte("not valid json"), 0600)
			},
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokenPath := filepath.Join(t.TempDir(), "token.json")
			tt.setup(t, tokenPath)

			auth := NewAuth("id", "secret", tokenPath, 0)
			err := auth.LoadToken()

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("LoadToken() error = %v, want %v", err, tt.wantErr)
				}
			case tt.anyErr:
				if err == nil {
					t.Error("LoadToken() should fail")
				}
			default:
				if err != nil {
					t.Errorf("LoadToken() error = %v", err)
				}
				if !auth.HasToken() {
					t.Error("HasToken() = false after LoadToken")
				}
			}
		})
	}
}

func TestAuthSaveToken(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "nested", "token.json")

	auth := NewAuth("id", "secret", tokenPath, 0)
	auth.token = validToken()

	if err := auth.SaveToken(); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}

	info, err := os.Stat(tokenPath)
	if err != nil {
		t.Fatalf("token file missing: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("token file mode = %v, want 0600", info.Mode().Perm())
	}

	reloaded := NewAuth("id", "secret", tokenPath, 0)
	if err := reloaded.LoadToken(); err != nil {
		t.Fatalf("LoadToken() error = %v", err)
	}
	if reloaded.token.AccessToken != "test-access-token" {
		t.Errorf("AccessToken = %q", reloaded.token.AccessToken)
	}
}

func TestAuthHasToken(t *testing.T) {
	dir := t.TempDir()

	missing := NewAuth("id", "secret", filepath.Join(dir, "none.json"), 0)
	if missing.HasToken() {
		t.Error("HasToken() = true without token file")
	}

	path := filepath.Join(dir, "token.json")
	writeToken(t, path, &oauth2.Token{RefreshToken: "refresh", Expiry: time.Now().Add(-time.Hour)})
	expired := NewAuth("id", "secret", path, 0)
	if !expired.HasToken() {
		t.Error("HasToken() = false for expired token with refresh token")
	}
}

func TestAuthClientNoToken(t *testing.T) {
	auth := NewAuth("id", "secret", filepath.Join(t.TempDir(), "token.json"), 0)

	_, err := auth.Client(context.Background())
	if !errors.Is(err, distribution.ErrNotAuthenticated) {
		t.Errorf("Client() error = %v, want ErrNotAuthenticated", err)
	}
}

func TestCategoryID(t *testing.T) {
	tests := map[string]string{
		"tech":     "28",
		"vlog":     "22",
		"shorts":   "24",
		"gaming":   "20",
		"tutorial": "27",
		"cooking":  "22",
		"":         "22",
	}

	for category, want := range tests {
		if got := CategoryID(category); got != want {
			t.Errorf("CategoryID(%q) = %q, want %q", category, got, want)
		}
	}
}

func TestBuildVideo(t *testing.T) {
	immediate, err := buildVideo(distribution.UploadRequest{Title: "T", Category: "gaming", Tags: []string{"a"}})
	if err != nil {
		t.Fatalf("buildVideo() error = %v", err)
	}
	if immediate.Status.PrivacyStatus != "public" || immediate.Status.PublishAt != "" {
		t.Errorf("immediate status = %+v", immediate.Status)
	}
	if immediate.Snippet.CategoryId != "20" {
		t.Errorf("CategoryId = %q, want 20", immediate.Snippet.CategoryId)
	}

	scheduled, err := buildVideo(distribution.UploadRequest{Title: "T", ScheduleTime: "2030-01-02T15:04:05Z"})
	if err != nil {
		t.Fatalf("buildVideo() error = %v", err)
	}
	if scheduled.Status.PrivacyStatus != "private" {
		t.Errorf("PrivacyStatus = %q, want private", scheduled.Status.PrivacyStatus)
	}
	if scheduled.Status.PublishAt != "2030-01-02T15:04:05Z" {
		t.Errorf("PublishAt = %q", scheduled.Status.PublishAt)
	}

	if _, err := buildVideo(distribution.UploadRequest{ScheduleTime: "soon"}); !errors.Is(err, distribution.ErrInvalidSchedule) {
		t.Errorf("buildVideo() error = %v, want ErrInvalidSchedule", err)
	}
}

func TestClientUpload(t *testing.T) {
	var gotMeta map[string]map[string]any
	var gotVideo string
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/upload/youtube/v3/videos" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")

		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			t.Errorf("parse content type: %v", err)
		}
		mr := multipart.NewReader(r.Body, params["boundary"])

		metaPart, err := mr.NextPart()
		if err != nil {
			t.Errorf("metadata part: %v", err)
			return
		}
		_ = json.NewDecoder(metaPart).Decode(&gotMeta)

		mediaPart, err := mr.NextPart()
		if err != nil {
			t.Errorf("media part: %v", err)
			return
		}
		data, _ := io.ReadAll(mediaPart)
		gotVideo = string(data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"abc123","kind":"youtube#video"}`))
	}))
	defer server.Close()

	tokenPath := filepath.Join(t.TempDir(), "token.json")
	writeToken(t, tokenPath, validToken())

	client := NewClient(NewAuth("id", "secret", tokenPath, 0), option.WithEndpoint(server.URL+"/"))

	resp, err := client.Upload(context.Background(), distribution.UploadRequest{
		Video:        strings.NewReader("video-bytes"),
		Title:        "My Video",
		Description:  "Desc",
		Tags:         []string{"go", "tutorial"},
		Category:     "tutorial",
		ScheduleTime: "2030-06-01T12:00:00Z",
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if resp.ID != "abc123" {
		t.Errorf("ID = %q, want abc123", resp.ID)
	}
	if resp.URL != "https://youtube.com/watch?v=abc123" {
		t.Errorf("URL = %q", resp.URL)
	}
	if resp.Platform != "youtube" {
		t.Errorf("Platform = %q", resp.Platform)
	}
	if gotAuth != "Bearer test-access-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotVideo != "video-bytes" {
		t.Errorf("media = %q", gotVideo)
	}

	if gotMeta["snippet"]["title"] != "My Video" || gotMeta["snippet"]["categoryId"] != "27" {
		t.Errorf("snippet = %v", gotMeta["snippet"])
	}
	status := gotMeta["status"]
	if status["privacyStatus"] != "private" || status["publishAt"] != "2030-06-01T12:00:00Z" {
		t.Errorf("status = %v", status)
	}
	if status["madeForKids"] != false || status["selfDeclaredMadeForKids"] != false {
		t.Errorf("made for kids flags not sent as false: %v", status)
	}
}

func TestClientUploadNoAuth(t *testing.T) {
	auth := NewAuth("id", "secret", filepath.Join(t.TempDir(), "token.json"), 0)
	client := NewClient(auth)

	_, err := client.Upload(context.Background(), distribution.UploadRequest{
		Video: strings.NewReader("x"),
		Title: "Test",
	})
	if !errors.Is(err, distribution.ErrNotAuthenticated) {
		t.Errorf("Upload() error = %v, want ErrNotAuthenticated", err)
	}
}

func TestClientUploadAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quotaExceeded"}}`))
	}))
	defer server.Close()

	tokenPath := filepath.Join(t.TempDir(), "token.json")
	writeToken(t, tokenPath, validToken())
	client := NewClient(NewAuth("id", "secret", tokenPath, 0), option.WithEndpoint(server.URL+"/"))

	_, err := client.Upload(context.Background(), distribution.UploadRequest{Video: strings.NewReader("x"), Title: "T"})
	if err == nil || !strings.Contains(err.Error(), "quotaExceeded") {
		t.Errorf("Upload() error = %v, want quotaExceeded", err)
	}
}

func TestPlatform(t *testing.T) {
	if got := NewClient(nil).Platform(); got != platform {
		t.Errorf("Platform() = %q, want %q", got, platform)
	}
}

package api

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"uploadagent/internal/metadata"
	"uploadagent/internal/submission"
)

type sessionJSON struct {
	ID      string `json:"id"`
	Stage   string `json:"stage"`
	Request struct {
		Category     string `json:"category"`
		Language     string `json:"language"`
		Monetization bool   `json:"monetization"`
		ScheduleTime string `json:"scheduleTime"`
		Video        struct {
			FileName string `json:"fileName"`
			FileKey  string `json:"fileKey"`
			URL      string `json:"url"`
		} `json:"video"`
	} `json:"request"`
	Metadata    *metadata.Metadata `json:"metadata"`
	Result      *submission.Result `json:"result"`
	PublishDate string             `json:"publishDate"`
	Error       string             `json:"error"`
}

func call(t *testing.T, method, url, contentType string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("NewRequest() error: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s error: %v", method, url, err)
	}
	return resp
}

func expectSession(t *testing.T, resp *http.Response, status int) sessionJSON {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("status = %d, want %d", resp.StatusCode, status)
	}
	return decode[sessionJSON](t, resp)
}

func createSession(t *testing.T, f *fixture) string {
	t.Helper()
	s := expectSession(t, call(t, http.MethodPost, f.url+"/api/sessions", "", nil), http.StatusCreated)
	if s.ID == "" || s.Stage != "input" {
		t.Fatalf("unexpected new session %+v", s)
	}
	if s.Request.Category != "tech" || s.Request.Language != "en" || s.Request.Monetization {
		t.Fatalf("new session request = %+v, want defaults", s.Request)
	}
	return s.ID
}

func putRequest(t *testing.T, f *fixture, id string, fields map[string]string, file *upload) *http.Response {
	t.Helper()
	body, contentType := multipartBody(t, fields, file)
	return call(t, http.MethodPut, f.url+"/api/sessions/"+id+"/request", contentType, body)
}

func TestSessionFullFlow(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	id := createSession(t, f)
	base := f.url + "/api/sessions/" + id

	s := expectSession(t, putRequest(t, f, id, map[string]string{
		"category": "tutorial",
		"videoUrl": "https://x.com/a/b/myvid.mp4",
	}, nil), http.StatusOK)
	if s.Request.Category != "tutorial" || s.Request.Video.URL != "https://x.com/a/b/myvid.mp4" {
		t.Fatalf("request not updated: %+v", s.Request)
	}
	if s.Request.Language != "en" {
		t.Errorf("language = %q, want it kept", s.Request.Language)
	}

	s = expectSession(t, call(t, http.MethodPost, base+"/generate", "", nil), http.StatusOK)
	if s.Stage != "preview" || s.Metadata == nil {
		t.Fatalf("after generate: %+v", s)
	}
	if s.Metadata.Title != "Tutorial: myvid.mp4" {
		t.Errorf("title = %q", s.Metadata.Title)
	}

	s = expectSession(t, call(t, http.MethodPut, base+"/metadata", "application/json",
		strings.NewReader(`{"title":"Learn Go fast"}`)), http.StatusOK)
	if s.Metadata.Title != "Learn Go fast" {
		t.Errorf("edited title = %q", s.Metadata.Title)
	}
	if len(s.Metadata.Tags) == 0 {
		t.Error("partial edit dropped tags")
	}

	s = expectSession(t, call(t, http.MethodPost, base+"/upload", "", nil), http.StatusOK)
	if s.Stage != "summary" || s.Result == nil || !s.Result.Success {
		t.Fatalf("after upload: %+v", s)
	}
	if !strings.HasPrefix(s.Result.VideoID, "demo_") {
		t.Errorf("videoId = %q", s.Result.VideoID)
	}
	if s.PublishDate != "Published immediately" {
		t.Errorf("publishDate = %q", s.PublishDate)
	}
	if s.Metadata.Title != "Learn Go fast" {
		t.Errorf("summary title = %q", s.Metadata.Title)
	}

	s = expectSession(t, call(t, http.MethodPost, base+"/reset", "", nil), http.StatusOK)
	if s.Stage != "input" || s.Metadata != nil || s.Result != nil {
		t.Fatalf("after reset: %+v", s)
	}
	if s.Request.Category != "tech" || s.Request.Video.URL != "" {
		t.Errorf("reset request = %+v, want defaults", s.Request)
	}
}

func TestSessionUploadWithoutToken(t *testing.T) {
	f := newFixture(t, fixtureOptions{credentials: true, uploader: &fakeUploader{}})
	id := createSession(t, f)
	base := f.url + "/api/sessions/" + id

	expectSession(t, putRequest(t, f, id, map[string]string{"videoUrl": "https://example.com/v.mp4"}, nil), http.StatusOK)
	expectSession(t, call(t, http.MethodPost, base+"/generate", "", nil), http.StatusOK)

	s := expectSession(t, call(t, http.MethodPost, base+"/upload", "", nil), http.StatusUnauthorized)
	if s.Stage != "preview" {
		t.Errorf("stage = %q, want preview", s.Stage)
	}
	if s.Error != submission.AuthMessage {
		t.Errorf("error = %q", s.Error)
	}
	if s.Metadata == nil {
		t.Error("draft was lost")
	}
}

func TestSessionStagesFile(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	id := createSession(t, f)

	s := expectSession(t, putRequest(t, f, id, nil, &upload{name: "Clip.MP4", content: []byte("v1")}), http.StatusOK)
	first := s.Request.Video.FileKey
	if s.Request.Video.FileName != "Clip.MP4" || !strings.HasSuffix(first, ".mp4") {
		t.Fatalf("unexpected video %+v", s.Request.Video)
	}

	s = expectSession(t, putRequest(t, f, id, nil, &upload{name: "other.webm", content: []byte("v2")}), http.StatusOK)
	if s.Request.Video.FileKey == first {
		t.Fatal("file was not replaced")
	}

	keys, _ := f.store.List(t.Context())
	if len(keys) != 1 || keys[0] != s.Request.Video.FileKey {
		t.Errorf("store keys = %v, want only the latest file", keys)
	}

	resp := call(t, http.MethodDelete, f.url+"/api/sessions/"+id, "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want 204", resp.StatusCode)
	}
	if keys, _ := f.store.List(t.Context()); len(keys) != 0 {
		t.Errorf("store keys after delete = %v", keys)
	}

	resp = call(t, http.MethodGet, f.url+"/api/sessions/"+id, "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET deleted session status = %d, want 404", resp.StatusCode)
	}
}

func TestSessionDemoUploadReleasesFile(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	id := createSession(t, f)
	base := f.url + "/api/sessions/" + id

	expectSession(t, putRequest(t, f, id, nil, &upload{name: "clip.mp4", content: []byte("frames")}), http.StatusOK)
	expectSession(t, call(t, http.MethodPost, base+"/generate", "", nil), http.StatusOK)

	s := expectSession(t, call(t, http.MethodPost, base+"/upload", "", nil), http.StatusOK)
	if s.Stage != "summary" {
		t.Fatalf("stage = %q, want summary", s.Stage)
	}
	if keys, _ := f.store.List(t.Context()); len(keys) != 0 {
		t.Errorf("store keys after upload = %v, want none", keys)
	}

	expectSession(t, call(t, http.MethodPost, base+"/reset", "", nil), http.StatusOK)
	if keys, _ := f.store.List(t.Context()); len(keys) != 0 {
		t.Errorf("store keys after reset = %v, want none", keys)
	}
}

func TestSessionFailedUploadKeepsFile(t *testing.T) {
	f := newFixture(t, fixtureOptions{credentials: true, uploader: &fakeUploader{}})
	id := createSession(t, f)
	base := f.url + "/api/sessions/" + id

	expectSession(t, putRequest(t, f, id, nil, &upload{name: "clip.mp4", content: []byte("frames")}), http.StatusOK)
	expectSession(t, call(t, http.MethodPost, base+"/generate", "", nil), http.StatusOK)
	expectSession(t, call(t, http.MethodPost, base+"/upload", "", nil), http.StatusUnauthorized)

	if keys, _ := f.store.List(t.Context()); len(keys) != 1 {
		t.Errorf("store keys = %v, want the file kept for a retry", keys)
	}
}

func TestSweepDiscardsStagedFiles(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	inputID := createSession(t, f)
	previewID := createSession(t, f)

	expectSession(t, putRequest(t, f, inputID, nil, &upload{name: "a.mp4", content: []byte("a")}), http.StatusOK)
	expectSession(t, putRequest(t, f, previewID, nil, &upload{name: "b.mp4", content: []byte("b")}), http.StatusOK)
	expectSession(t, call(t, http.MethodPost, f.url+"/api/sessions/"+previewID+"/generate", "", nil), http.StatusOK)

	if keys, _ := f.store.List(t.Context()); len(keys) != 2 {
		t.Fatalf("store keys = %v, want 2 staged files", keys)
	}

	if n := f.server.sessions.Sweep(-time.Minute); n != 2 {
		t.Fatalf("Sweep() = %d, want 2", n)
	}
	if keys, _ := f.store.List(t.Context()); len(keys) != 0 {
		t.Errorf("store keys after sweep = %v, want none", keys)
	}
}

func TestSessionRefusals(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	id := createSession(t, f)
	base := f.url + "/api/sessions/" + id

	tests := []struct {
		name        string
		method      string
		url         string
		contentType string
		body        string
		wantStatus  int
	}{
		{name: "unknownSession", method: http.MethodGet, url: f.url + "/api/sessions/nope", wantStatus: http.StatusNotFound},
		{name: "generateWithoutVideo", method: http.MethodPost, url: base + "/generate", wantStatus: http.StatusBadRequest},
		{name: "backFromInput", method: http.MethodPost, url: base + "/back", wantStatus: http.StatusConflict},
		{name: "uploadFromInput", method: http.MethodPost, url: base + "/upload", wantStatus: http.StatusConflict},
		{name: "editFromInput", method: http.MethodPut, url: base + "/metadata", contentType: "application/json", body: `{"title":"x"}`, wantStatus: http.StatusConflict},
		{name: "malformedMetadata", method: http.MethodPut, url: base + "/metadata", contentType: "application/json", body: `{`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, tt.method, tt.url, tt.contentType, bytes.NewBufferString(tt.body))
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}

	s := expectSession(t, call(t, http.MethodGet, base, "", nil), http.StatusOK)
	if s.Stage != "input" {
		t.Errorf("refusals changed the stage to %q", s.Stage)
	}
}

func TestSessionUploadIncompleteDraft(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	id := createSession(t, f)
	base := f.url + "/api/sessions/" + id

	expectSession(t, putRequest(t, f, id, map[string]string{"videoUrl": "https://example.com/v.mp4"}, nil), http.StatusOK)
	expectSession(t, call(t, http.MethodPost, base+"/generate", "", nil), http.StatusOK)
	expectSession(t, call(t, http.MethodPut, base+"/metadata", "application/json",
		strings.NewReader(`{"title":"  "}`)), http.StatusOK)

	s := expectSession(t, call(t, http.MethodPost, base+"/upload", "", nil), http.StatusBadRequest)
	if s.Stage != "preview" || !strings.Contains(s.Error, "title") {
		t.Errorf("unexpected session %+v", s)
	}

	s = expectSession(t, call(t, http.MethodPost, base+"/back", "", nil), http.StatusOK)
	if s.Stage != "input" || s.Request.Video.URL != "https://example.com/v.mp4" || s.Error != "" {
		t.Errorf("after back: %+v", s)
	}
}

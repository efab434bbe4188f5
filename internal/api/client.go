package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"uploadagent/internal/history"
	"uploadagent/internal/media"
	"uploadagent/internal/metadata"
	"uploadagent/internal/submission"
	"uploadagent/internal/workflow"
	"uploadagent/pkg/httputil"
)

var (
	_ workflow.MetadataService = (*Client)(nil)
	_ workflow.Submitter       = (*Client)(nil)
)

// Client talks to a running server. It lets a workflow controller run on one
// machine while generation and upload happen on another.
type Client struct {
	baseURL string
	http    *http.Client
	retry   *httputil.RetryClient
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		retry:   httputil.NewRetryClient(httpClient, httputil.DefaultRetryConfig()),
	}
}

type formField struct {
	name  string
	value string
}

func (c *Client) Generate(ctx context.Context, req workflow.UploadRequest) (metadata.Metadata, error) {
	fields := []formField{
		{"category", string(req.Category)},
		{"language", req.Language},
	}

	resp, err := c.postForm(ctx, "/api/generate-metadata", fields, req.Video)
	if err != nil {
		return metadata.Metadata{}, fmt.Errorf("generate metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return metadata.Metadata{}, fmt.Errorf("generate metadata: %w", responseError(resp))
	}

	var m metadata.Metadata
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return metadata.Metadata{}, fmt.Errorf("decode metadata: %w", err)
	}
	return m, nil
}

// Submit posts the draft to the upload endpoint. Auth and transport
// failures come back as an unsuccessful Result; only malformed requests and
// unreachable servers are errors.
func (c *Client) Submit(ctx context.Context, req submission.Request) (submission.Result, error) {
	tags, err := json.Marshal(nonNil(req.Metadata.Tags))
	if err != nil {
		return submission.Result{}, fmt.Errorf("encode tags: %w", err)
	}
	fields := []formField{
		{"title", req.Metadata.Title},
		{"description", req.Metadata.Description},
		{"tags", string(tags)},
		{"category", string(req.Category)},
		{"language", req.Language},
		{"monetization", strconv.FormatBool(req.Monetization)},
		{"scheduleTime", req.ScheduleTime},
	}

	resp, err := c.postForm(ctx, "/api/upload-video", fields, req.Video)
	if err != nil {
		return submission.Result{}, fmt.Errorf("submit video: %w", err)
	}
	defer resp.Body.Close()

	var kind submission.FailureKind
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		kind = submission.FailureAuth
	case http.StatusInternalServerError:
		kind = submission.FailureTransport
	default:
		return submission.Result{}, fmt.Errorf("submit video: %w", responseError(resp))
	}

	var result submission.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return submission.Result{}, fmt.Errorf("decode result: %w", err)
	}
	if !result.Success {
		result.Kind = kind
		if result.Kind == submission.FailureNone {
			result.Kind = submission.FailureTransport
		}
	}
	return result, nil
}

// History returns the server's submission log, newest first.
func (c *Client) History(ctx context.Context) ([]history.Entry, error) {
	body, err := c.retry.Get(ctx, c.baseURL+"/api/uploads")
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	defer body.Close()

	var entries []history.Entry
	if err := json.NewDecoder(body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return entries, nil
}

func (c *Client) Health(ctx context.Context) error {
	body, err := c.retry.Get(ctx, c.baseURL+"/health")
	if err != nil {
		return fmt.Errorf("check health: %w", err)
	}
	return body.Close()
}

// postForm streams a multipart form so large local files are never held in
// memory.
func (c *Client) postForm(ctx context.Context, path string, fields []formField, video media.Reference) (*http.Response, error) {
	if !video.HasVideo() {
		return nil, media.ErrNoVideo
	}
	if video.LocalPath == "" && video.URL == "" {
		return nil, fmt.Errorf("staged video %s cannot be sent to a remote server", video.FileKey)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(mw, fields, video))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, pr)
	if err != nil {
		_ = pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.http.Do(req)
}

func writeForm(mw *multipart.Writer, fields []formField, video media.Reference) error {
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := mw.WriteField(f.name, f.value); err != nil {
			return err
		}
	}

	if video.LocalPath == "" {
		if err := mw.WriteField("videoUrl", video.URL); err != nil {
			return err
		}
		return mw.Close()
	}

	f, err := os.Open(video.LocalPath)
	if err != nil {
		return fmt.Errorf("open video: %w", err)
	}
	defer f.Close()

	name := video.FileName
	if name == "" {
		name = filepath.Base(video.LocalPath)
	}
	part, err := mw.CreateFormFile("videoFile", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("send video: %w", err)
	}
	return mw.Close()
}

func responseError(resp *http.Response) error {
	var body errorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("%s (status %d)", body.Error, resp.StatusCode)
	}
	return errors.New(resp.Status)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

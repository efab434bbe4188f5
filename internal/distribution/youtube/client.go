package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"uploadagent/internal/distribution"
)

const (
	platform          = "youtube"
	defaultCategoryID = "22"
	privacyPublic     = "public"
	privacyPrivate    = "private"
)

var categoryIDs = map[string]string{
	"tech":     "28",
	"vlog":     "22",
	"shorts":   "24",
	"gaming":   "20",
	"tutorial": "27",
}

var _ distribution.Uploader = (*Client)(nil)

type Client struct {
	auth *Auth
	opts []option.ClientOption
}

// NewClient builds an uploader. Extra options are appended when the YouTube
// service is created, e.g. option.WithEndpoint in tests.
func NewClient(auth *Auth, opts ...option.ClientOption) *Client {
	return &Client{auth: auth, opts: opts}
}

func (c *Client) Platform() string {
	return platform
}

func (c *Client) Auth() *Auth {
	return c.auth
}

// CategoryID maps a content category to a YouTube video category id.
func CategoryID(category string) string {
	if id, ok := categoryIDs[category]; ok {
		return id
	}
	return defaultCategoryID
}

func (c *Client) Upload(ctx context.Context, req distribution.UploadRequest) (*distribution.UploadResponse, error) {
	video, err := buildVideo(req)
	if err != nil {
		return nil, err
	}

	httpClient, err := c.auth.Client(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get auth client: %w", err)
	}

	opts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, c.opts...)
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	slog.Info("Uploading video to YouTube",
		"title", req.Title,
		"category_id", video.Snippet.CategoryId,
		"privacy", video.Status.PrivacyStatus,
	)

	resp, err := svc.Videos.Insert([]string{"snippet", "status"}, video).
		Media(req.Video, googleapi.ChunkSize(0)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to upload video: %w", err)
	}

	return &distribution.UploadResponse{
		ID:       resp.Id,
		URL:      distribution.WatchURL(resp.Id),
		Platform: platform,
	}, nil
}

func buildVideo(req distribution.UploadRequest) (*youtube.Video, error) {
	status := &youtube.VideoStatus{
		PrivacyStatus:           privacyPublic,
		SelfDeclaredMadeForKids: false,
		MadeForKids:             false,
		ForceSendFields:         []string{"SelfDeclaredMadeForKids", "MadeForKids"},
	}

	if req.ScheduleTime != "" {
		publishAt, err := distribution.ParseSchedule(req.ScheduleTime)
		if err != nil {
			return nil, err
		}
		status.PrivacyStatus = privacyPrivate
		status.PublishAt = publishAt.UTC().Format(time.RFC3339)
	}

	return &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:           req.Title,
			Description:     req.Description,
			Tags:            req.Tags,
			CategoryId:      CategoryID(req.Category),
			DefaultLanguage: req.Language,
		},
		Status: status,
	}, nil
}

// Authorized reports whether a user token is stored.
func (c *Client) Authorized() bool {
	return c.auth != nil && c.auth.HasToken()
}

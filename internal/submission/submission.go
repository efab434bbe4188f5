package submission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"uploadagent/internal/distribution"
	"uploadagent/internal/history"
	"uploadagent/internal/media"
	"uploadagent/internal/metadata"
)

const (
	DemoMessage    = "Demo mode: Video metadata prepared. Configure Google OAuth credentials to enable actual uploads."
	AuthMessage    = "Please authenticate with Google to upload videos. Run `uploadagent auth youtube` to complete the OAuth flow."
	successMessage = "Video uploaded successfully"
	demoPrefix     = "demo_"
	modeDemo       = "demo"
)

type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureAuth
	FailureTransport
)

func (k FailureKind) String() string {
	switch k {
	case FailureAuth:
		return "auth"
	case FailureTransport:
		return "transport"
	default:
		return "none"
	}
}

// Result is the outcome of a submission. Kind is set only when Success is
// false.
type Result struct {
	Success  bool        `json:"success"`
	VideoID  string      `json:"videoId,omitempty"`
	VideoURL string      `json:"videoUrl,omitempty"`
	Message  string      `json:"message,omitempty"`
	Error    string      `json:"error,omitempty"`
	Kind     FailureKind `json:"-"`
}

type Request struct {
	Metadata     metadata.Metadata
	Video        media.Reference
	Category     metadata.Category
	Language     string
	Monetization bool
	ScheduleTime string
}

// Credentials decides between demo and real submission.
type Credentials interface {
	HasPlatformCredentials() bool
}

// AuthorizedUploader is an uploader that can tell whether a user token is
// available before any bytes are read.
type AuthorizedUploader interface {
	distribution.Uploader
	Authorized() bool
}

type VideoOpener interface {
	Open(ctx context.Context, ref media.Reference) (io.ReadCloser, error)
	Release(ctx context.Context, ref media.Reference) error
}

type Options struct {
	Credentials Credentials
	NewUploader func() (AuthorizedUploader, error)
	Opener      VideoOpener
	History     *history.Log
	Now         func() time.Time
}

type Orchestrator struct {
	credentials Credentials
	newUploader func() (AuthorizedUploader, error)
	opener      VideoOpener
	history     *history.Log
	now         func() time.Time
}

func NewOrchestrator(opts Options) *Orchestrator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		credentials: opts.Credentials,
		newUploader: opts.NewUploader,
		opener:      opts.Opener,
		history:     opts.History,
		now:         opts.Now,
	}
}

// Submit publishes the video, or simulates it when no platform credentials
// are configured. It never returns an error: failures are reported in the
// Result with their kind.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (result Result) {
	mode := modeDemo
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Submission panicked", "panic", r)
			result = failure(FailureTransport, fmt.Sprint(r))
		}
		o.record(req, mode, result)
	}()

	if o.credentials == nil || !o.credentials.HasPlatformCredentials() {
		result = o.demo()
		o.release(ctx, req.Video)
		return result
	}

	mode = "platform"
	uploader, err := o.uploader()
	if err != nil {
		return failure(FailureTransport, err.Error())
	}
	mode = uploader.Platform()

	return o.upload(ctx, uploader, req)
}

func (o *Orchestrator) demo() Result {
	id := demoPrefix + strconv.FormatInt(o.now().UnixMilli(), 10)
	slog.Info("Demo submission", "video_id", id)
	return Result{
		Success:  true,
		VideoID:  id,
		VideoURL: distribution.WatchURL(id),
		Message:  DemoMessage,
	}
}

func (o *Orchestrator) uploader() (AuthorizedUploader, error) {
	if o.newUploader == nil {
		return nil, errors.New("no uploader configured")
	}
	u, err := o.newUploader()
	if err != nil {
		return nil, fmt.Errorf("create uploader: %w", err)
	}
	return u, nil
}

func (o *Orchestrator) upload(ctx context.Context, uploader AuthorizedUploader, req Request) Result {
	if !uploader.Authorized() {
		return failure(FailureAuth, AuthMessage)
	}
	if o.opener == nil {
		return failure(FailureTransport, "no video source configured")
	}

	video, err := o.opener.Open(ctx, req.Video)
	if err != nil {
		return failure(FailureTransport, err.Error())
	}
	defer func() { _ = video.Close() }()

	resp, err := uploader.Upload(ctx, distribution.UploadRequest{
		Video:        video,
		Title:        req.Metadata.Title,
		Description:  req.Metadata.Description,
		Tags:         req.Metadata.Tags,
		Category:     string(req.Category),
		Language:     req.Language,
		Monetization: req.Monetization,
		ScheduleTime: req.ScheduleTime,
	})
	if errors.Is(err, distribution.ErrNotAuthenticated) {
		return failure(FailureAuth, AuthMessage)
	}
	if err != nil {
		slog.Error("Upload failed", "platform", uploader.Platform(), "error", err)
		return failure(FailureTransport, err.Error())
	}

	o.release(ctx, req.Video)

	slog.Info("Video uploaded", "platform", resp.Platform, "video_id", resp.ID, "url", resp.URL)
	return Result{
		Success:  true,
		VideoID:  resp.ID,
		VideoURL: resp.URL,
		Message:  successMessage,
	}
}

// release drops a staged video once a submission has completed. Failed
// submissions keep it so the user can retry from the preview.
func (o *Orchestrator) release(ctx context.Context, ref media.Reference) {
	if o.opener == nil {
		return
	}
	if err := o.opener.Release(ctx, ref); err != nil {
		slog.Warn("Failed to release staged video", "key", ref.FileKey, "error", err)
	}
}

func (o *Orchestrator) record(req Request, mode string, r Result) {
	if o.history == nil {
		return
	}
	err := o.history.Append(history.Entry{
		Title:        req.Metadata.Title,
		Category:     string(req.Category),
		Mode:         mode,
		Success:      r.Success,
		VideoID:      r.VideoID,
		VideoURL:     r.VideoURL,
		Error:        r.Error,
		ScheduleTime: req.ScheduleTime,
		SubmittedAt:  o.now(),
	})
	if err != nil {
		slog.Warn("Failed to record submission", "error", err)
	}
}

func failure(kind FailureKind, msg string) Result {
	return Result{Success: false, Error: msg, Kind: kind}
}

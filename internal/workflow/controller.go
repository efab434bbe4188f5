package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"uploadagent/internal/media"
	"uploadagent/internal/metadata"
	"uploadagent/internal/submission"
)

var (
	ErrBusy       = errors.New("another action is in progress")
	ErrWrongStage = errors.New("action not allowed at this stage")
	ErrStale      = errors.New("workflow was reset while the action was running")
)

// MetadataService drafts metadata for a request.
type MetadataService interface {
	Generate(ctx context.Context, req UploadRequest) (metadata.Metadata, error)
}

// Submitter publishes a reviewed draft.
type Submitter interface {
	Submit(ctx context.Context, req submission.Request) (submission.Result, error)
}

// SubmissionError carries a submission that completed but did not succeed.
type SubmissionError struct {
	Result submission.Result
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission failed (%s): %s", e.Result.Kind, e.Result.Error)
}

// Controller drives one user's session through Input, Preview and Summary.
// All methods are safe for concurrent use; at most one Generate or Upload
// runs at a time.
type Controller struct {
	metadata  MetadataService
	submitter Submitter

	mu    sync.Mutex
	state State
	err   string
	busy  bool
	epoch uint64
}

func NewController(m MetadataService, s Submitter) *Controller {
	return &Controller{
		metadata:  m,
		submitter: s,
		state:     Input{Request: DefaultRequest()},
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneState(c.state)
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return snapshotOf(c.state, c.err, c.busy)
}

func (c *Controller) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Update edits the request. Only valid at the Input stage.
func (c *Controller) Update(fn func(*UploadRequest)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	in, ok := c.state.(Input)
	if !ok || c.busy {
		return c.refusal()
	}
	fn(&in.Request)
	c.state = in
	return nil
}

func (c *Controller) CanGenerate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	in, ok := c.state.(Input)
	return ok && in.Request.Video.HasVideo()
}

// Generate drafts metadata and moves to Preview. Without a video it is a
// no-op returning media.ErrNoVideo.
func (c *Controller) Generate(ctx context.Context) error {
	c.mu.Lock()
	in, ok := c.state.(Input)
	if !ok || c.busy {
		err := c.refusal()
		c.mu.Unlock()
		return err
	}
	if !in.Request.Video.HasVideo() {
		c.mu.Unlock()
		return media.ErrNoVideo
	}
	c.busy = true
	epoch := c.epoch
	c.mu.Unlock()

	slog.Info("Generating metadata", "category", in.Request.Category, "language", in.Request.Language)
	m, err := c.metadata.Generate(ctx, in.Request)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch {
		return ErrStale
	}
	c.busy = false
	if err != nil {
		c.err = err.Error()
		return fmt.Errorf("generate metadata: %w", err)
	}

	c.state = Preview{Request: in.Request, Metadata: metadata.Normalize(m)}
	c.err = ""
	return nil
}

// Edit changes the draft. Only valid at the Preview stage; nothing is
// validated until Upload.
func (c *Controller) Edit(fn func(*metadata.Metadata)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.state.(Preview)
	if !ok || c.busy {
		return c.refusal()
	}
	p.Metadata = p.Metadata.Clone()
	fn(&p.Metadata)
	c.state = p
	return nil
}

// Back returns to Input keeping the request and dropping the draft.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.state.(Preview)
	if !ok || c.busy {
		return c.refusal()
	}
	c.state = Input{Request: p.Request}
	c.err = ""
	return nil
}

// Upload submits the draft and moves to Summary on success. On failure the
// workflow stays at Preview with the error recorded.
func (c *Controller) Upload(ctx context.Context) error {
	c.mu.Lock()
	p, ok := c.state.(Preview)
	if !ok || c.busy {
		err := c.refusal()
		c.mu.Unlock()
		return err
	}
	if err := p.Metadata.Validate(); err != nil {
		c.err = err.Error()
		c.mu.Unlock()
		return err
	}
	md := p.Metadata.Clone()
	c.busy = true
	epoch := c.epoch
	c.mu.Unlock()

	slog.Info("Submitting video", "title", md.Title, "category", p.Request.Category)
	result, err := c.submitter.Submit(ctx, submission.Request{
		Metadata:     md,
		Video:        p.Request.Video,
		Category:     p.Request.Category,
		Language:     p.Request.Language,
		Monetization: p.Request.Monetization,
		ScheduleTime: p.Request.ScheduleTime,
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch {
		return ErrStale
	}
	c.busy = false
	if err != nil {
		c.err = err.Error()
		return fmt.Errorf("submit video: %w", err)
	}
	if !result.Success {
		c.err = result.Error
		return &SubmissionError{Result: result}
	}

	c.state = Summary{
		Request:     p.Request,
		Metadata:    md,
		Result:      result,
		PublishDate: publishDate(p.Request.ScheduleTime),
	}
	c.err = ""
	return nil
}

// Reset returns to Input with default preferences from any stage. An action
// still in flight finishes with ErrStale and its result is discarded.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = Input{Request: DefaultRequest()}
	c.err = ""
	c.busy = false
	c.epoch++
}

func (c *Controller) refusal() error {
	if c.busy {
		return ErrBusy
	}
	return fmt.Errorf("%w: %s", ErrWrongStage, c.state.Stage())
}

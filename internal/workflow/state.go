package workflow

import (
	"uploadagent/internal/media"
	"uploadagent/internal/metadata"
	"uploadagent/internal/submission"
)

const PublishedImmediately = "Published immediately"

type Stage int

const (
	StageInput Stage = iota
	StagePreview
	StageSummary
)

func (s Stage) String() string {
	switch s {
	case StagePreview:
		return "preview"
	case StageSummary:
		return "summary"
	default:
		return "input"
	}
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UploadRequest is what the user fills in on the first step.
type UploadRequest struct {
	Video        media.Reference   `json:"video"`
	Category     metadata.Category `json:"category"`
	Language     string            `json:"language"`
	Monetization bool              `json:"monetization"`
	ScheduleTime string            `json:"scheduleTime,omitempty"`
}

func DefaultRequest() UploadRequest {
	return UploadRequest{
		Category: metadata.CategoryTech,
		Language: "en",
	}
}

// State is one of Input, Preview or Summary. Each variant carries only the
// data that is valid at its stage.
type State interface {
	Stage() Stage
	sealed()
}

type Input struct {
	Request UploadRequest
}

type Preview struct {
	Request  UploadRequest
	Metadata metadata.Metadata
}

type Summary struct {
	Request     UploadRequest
	Metadata    metadata.Metadata
	Result      submission.Result
	PublishDate string
}

func (Input) Stage() Stage   { return StageInput }
func (Preview) Stage() Stage { return StagePreview }
func (Summary) Stage() Stage { return StageSummary }

func (Input) sealed()   {}
func (Preview) sealed() {}
func (Summary) sealed() {}

func publishDate(scheduleTime string) string {
	if scheduleTime != "" {
		return scheduleTime
	}
	return PublishedImmediately
}

func cloneState(s State) State {
	switch s := s.(type) {
	case Preview:
		s.Metadata = s.Metadata.Clone()
		return s
	case Summary:
		s.Metadata = s.Metadata.Clone()
		return s
	default:
		return s
	}
}

// Snapshot is a flat, serializable view of a controller.
type Snapshot struct {
	Stage       Stage              `json:"stage"`
	Request     UploadRequest      `json:"request"`
	Metadata    *metadata.Metadata `json:"metadata,omitempty"`
	Result      *submission.Result `json:"result,omitempty"`
	PublishDate string             `json:"publishDate,omitempty"`
	Error       string             `json:"error,omitempty"`
	Busy        bool               `json:"busy"`
}

func snapshotOf(s State, errMsg string, busy bool) Snapshot {
	snap := Snapshot{Stage: s.Stage(), Error: errMsg, Busy: busy}
	switch s := cloneState(s).(type) {
	case Input:
		snap.Request = s.Request
	case Preview:
		snap.Request = s.Request
		snap.Metadata = &s.Metadata
	case Summary:
		snap.Request = s.Request
		snap.Metadata = &s.Metadata
		snap.Result = &s.Result
		snap.PublishDate = s.PublishDate
	}
	return snap
}

package distribution

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated with platform")
	ErrInvalidSchedule  = errors.New("invalid schedule time")
)

type UploadRequest struct {
	Video        io.Reader
	Title        string
	Description  string
	Tags         []string
	Category     string
	Language     string
	Monetization bool
	// ScheduleTime is the user's literal publish time. Empty publishes
	// immediately.
	ScheduleTime string
}

type UploadResponse struct {
	ID       string
	URL      string
	Platform string
}

type Uploader interface {
	Upload(ctx context.Context, req UploadRequest) (*UploadResponse, error)
	Platform() string
}

func WatchURL(videoID string) string {
	return "https://youtube.com/watch?v=" + videoID
}

var scheduleLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseSchedule accepts RFC 3339 or a browser datetime-local value. Values
// without a zone are read in the server's local time zone.
func ParseSchedule(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range scheduleLayouts {
		var t time.Time
		var err error
		if layout == time.RFC3339 {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidSchedule, s)
}

package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"

	"uploadagent/internal/storage"
	"uploadagent/pkg/httputil"
)

var (
	ErrNoVideo    = errors.New("video file or URL is required")
	ErrInvalidURL = errors.New("video URL must be an absolute http(s) URL")
)

// Reference points at the video being published: a file staged in storage,
// a file on the local machine (CLI only), or a remote URL. A file wins over
// the URL when both are set.
type Reference struct {
	FileName  string `json:"fileName,omitempty"`
	FileKey   string `json:"fileKey,omitempty"`
	LocalPath string `json:"-"`
	URL       string `json:"url,omitempty"`
}

func (r Reference) HasFile() bool { return r.FileKey != "" || r.LocalPath != "" }

func (r Reference) HasVideo() bool { return r.HasFile() || r.URL != "" }

func (r Reference) Validate() error {
	if !r.HasVideo() {
		return ErrNoVideo
	}
	return nil
}

// Opener resolves a Reference to a byte stream.
type Opener struct {
	store   storage.Store
	fetcher *httputil.RetryClient
}

func NewOpener(store storage.Store, fetcher *httputil.RetryClient) *Opener {
	if fetcher == nil {
		fetcher = httputil.NewRetryClient(nil, httputil.DefaultRetryConfig())
	}
	return &Opener{store: store, fetcher: fetcher}
}

func (o *Opener) Open(ctx context.Context, ref Reference) (io.ReadCloser, error) {
	switch {
	case ref.FileKey != "":
		if o.store == nil {
			return nil, fmt.Errorf("open staged video %s: no storage configured", ref.FileKey)
		}
		r, err := o.store.Open(ctx, ref.FileKey)
		if err != nil {
			return nil, fmt.Errorf("open staged video: %w", err)
		}
		return r, nil

	case ref.LocalPath != "":
		f, err := os.Open(ref.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("open video file: %w", err)
		}
		return f, nil

	case ref.URL != "":
		if err := ValidateURL(ref.URL); err != nil {
			return nil, err
		}
		r, err := o.fetcher.Get(ctx, ref.URL)
		if err != nil {
			return nil, fmt.Errorf("fetch video: %w", err)
		}
		return r, nil
	}

	return nil, ErrNoVideo
}

// Release removes a staged file once it is no longer needed. Local files and
// URLs are left alone.
func (o *Opener) Release(ctx context.Context, ref Reference) error {
	if ref.FileKey == "" || o.store == nil {
		return nil
	}
	return o.store.Remove(ctx, ref.FileKey)
}

func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return nil
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"uploadagent/internal/media"
	"uploadagent/internal/metadata"
	"uploadagent/internal/submission"
)

const (
	msgNoVideo     = "Video file or URL is required"
	msgInvalidTags = "tags must be a JSON array of strings"
	defaultLang    = "en"
)

var errNoStorage = errors.New("no storage configured for uploaded files")

func (s *Server) generateMetadata(w http.ResponseWriter, r *http.Request) {
	parseErr := s.parseForm(w, r)
	defer cleanupForm(r)

	category := metadata.Category(r.FormValue("category"))
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Metadata generation panicked", "category", category, "panic", rec)
			writeJSON(w, http.StatusOK, metadata.BoundaryFallback(category))
		}
	}()

	if parseErr != nil {
		slog.Warn("Failed to parse metadata request", "error", parseErr)
		writeJSON(w, http.StatusOK, metadata.BoundaryFallback(category))
		return
	}

	fh, videoURL := videoFromForm(r)
	if fh == nil && videoURL == "" {
		writeError(w, http.StatusBadRequest, msgNoVideo)
		return
	}

	fileName := ""
	if fh != nil {
		fileName = fh.Filename
	}
	result := s.generator.Draft(r.Context(), metadata.Request{
		Category:     category,
		Language:     formLanguage(r),
		ContextLabel: metadata.ContextLabel(fileName, videoURL),
	})

	slog.Info("Generated metadata", "category", category, "source", result.Source)
	writeJSON(w, http.StatusOK, result.Metadata)
}

func (s *Server) uploadVideo(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Upload handler panicked", "panic", rec)
			writeError(w, http.StatusInternalServerError, fmt.Sprint(rec))
		}
	}()

	if err := s.parseForm(w, r); err != nil {
		writeError(w, formErrorStatus(err), err.Error())
		return
	}
	defer cleanupForm(r)

	fh, videoURL := videoFromForm(r)
	if fh == nil && videoURL == "" {
		writeError(w, http.StatusBadRequest, msgNoVideo)
		return
	}

	tags, err := parseTags(r.FormValue("tags"))
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidTags)
		return
	}

	ref := media.Reference{URL: videoURL}
	if fh != nil {
		ref, err = s.stage(r.Context(), fh)
		if err != nil {
			writeError(w, uploadErrorStatus(err), err.Error())
			return
		}
		defer s.discard(ref)
	}

	result := s.orchestrator.Submit(r.Context(), submission.Request{
		Metadata: metadata.Metadata{
			Title:       r.FormValue("title"),
			Description: r.FormValue("description"),
			Tags:        tags,
		},
		Video:        ref,
		Category:     metadata.Category(r.FormValue("category")),
		Language:     formLanguage(r),
		Monetization: r.FormValue("monetization") == "true",
		ScheduleTime: r.FormValue("scheduleTime"),
	})

	writeJSON(w, resultStatus(result), result)
}

func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+formOverheadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return fmt.Errorf("parse form: %w", err)
	}
	return nil
}

// stage validates an uploaded file and copies it into the store.
func (s *Server) stage(ctx context.Context, fh *multipart.FileHeader) (media.Reference, error) {
	if err := media.ValidateUpload(fh, s.maxUploadBytes); err != nil {
		return media.Reference{}, err
	}
	if s.store == nil {
		return media.Reference{}, errNoStorage
	}

	f, err := fh.Open()
	if err != nil {
		return media.Reference{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	key, err := s.store.Save(ctx, fh.Filename, f)
	if err != nil {
		return media.Reference{}, fmt.Errorf("stage upload: %w", err)
	}
	slog.Debug("Staged upload", "file", fh.Filename, "key", key, "bytes", fh.Size)
	return media.Reference{FileName: fh.Filename, FileKey: key}, nil
}

// discard removes a staged file. Missing keys are not an error.
func (s *Server) discard(ref media.Reference) {
	if ref.FileKey == "" || s.store == nil {
		return
	}
	if err := s.store.Remove(context.Background(), ref.FileKey); err != nil {
		slog.Warn("Failed to remove staged video", "key", ref.FileKey, "error", err)
	}
}

func videoFromForm(r *http.Request) (*multipart.FileHeader, string) {
	var fh *multipart.FileHeader
	if r.MultipartForm != nil {
		if files := r.MultipartForm.File["videoFile"]; len(files) > 0 {
			fh = files[0]
		}
	}
	return fh, strings.TrimSpace(r.FormValue("videoUrl"))
}

func formLanguage(r *http.Request) string {
	if lang := strings.TrimSpace(r.FormValue("language")); lang != "" {
		return lang
	}
	return defaultLang
}

// parseTags decodes the JSON array sent by the browser client. An absent
// field means no tags.
func parseTags(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func cleanupForm(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

func resultStatus(r submission.Result) int {
	switch {
	case r.Success:
		return http.StatusOK
	case r.Kind == submission.FailureAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func formErrorStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func uploadErrorStatus(err error) int {
	switch {
	case errors.Is(err, media.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, media.ErrEmptyFile),
		errors.Is(err, media.ErrInvalidFileType),
		errors.Is(err, media.ErrFilenameTooLong):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

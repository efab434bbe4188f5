package media

import (
	"errors"
	"mime/multipart"
	"path/filepath"
	"strings"
)

const maxFilenameLength = 255

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrInvalidFileType = errors.New("invalid file type - only video files are allowed")
	ErrFilenameTooLong = errors.New("filename too long - maximum 255 characters")
	ErrEmptyFile       = errors.New("file is empty")
)

var allowedMimeTypes = map[string]bool{
	"video/mp4":        true,
	"video/quicktime":  true,
	"video/webm":       true,
	"video/x-matroska": true,
	"video/x-msvideo":  true,
	"video/mpeg":       true,
	"video/3gpp":       true,
}

var extensionTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".3gp":  "video/3gpp",
}

// ValidateUpload checks a multipart video file before it is staged.
// maxBytes <= 0 disables the size check.
func ValidateUpload(fh *multipart.FileHeader, maxBytes int64) error {
	if fh.Size == 0 {
		return ErrEmptyFile
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return ErrFileTooLarge
	}
	if len(fh.Filename) > maxFilenameLength {
		return ErrFilenameTooLong
	}
	if !allowedMimeTypes[ContentType(fh.Filename, fh.Header.Get("Content-Type"))] {
		return ErrInvalidFileType
	}
	return nil
}

// ContentType normalizes the declared content type, guessing from the file
// extension when the client sent none or a generic one.
func ContentType(filename, declared string) string {
	declared = strings.ToLower(strings.TrimSpace(strings.Split(declared, ";")[0]))
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if ct, ok := extensionTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

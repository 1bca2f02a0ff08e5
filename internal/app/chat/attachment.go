package chat

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"relaychat/internal/app/store"
	"relaychat/internal/pkg/errs"
)

const (
	// MaxAttachmentSizeMB is the maximum allowed file size in megabytes.
	MaxAttachmentSizeMB = 5

	// MaxAttachmentSize is the maximum allowed file size in bytes.
	MaxAttachmentSize = MaxAttachmentSizeMB * 1024 * 1024

	// PresignedURLDuration is the fixed duration for which upload and
	// download URLs stay valid.
	PresignedURLDuration = 5 * time.Minute
)

// AllowedMIMETypes defines the set of permitted MIME types for attachments.
var AllowedMIMETypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/webp":      {},
	"image/gif":       {},
	"application/pdf": {},
	"text/plain":      {},
}

// DecodeAttachmentMetadata validates the metadata of an image or file message
// and returns the cleaned store representation.
func DecodeAttachmentMetadata(raw json.RawMessage) (*store.MessageMetadata, *errs.CustomError) {
	if len(raw) == 0 {
		return nil, errs.NewError(errs.ErrAttachmentInvalid)
	}

	var meta store.MessageMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, errs.NewError(errs.ErrAttachmentInvalid)
	}

	if customErr := ValidateFileSize(meta.FileSize); customErr != nil {
		return nil, customErr
	}

	if customErr := ValidateFileType(meta.FileType); customErr != nil {
		return nil, customErr
	}

	if meta.FileURL == "" {
		return nil, errs.NewError(errs.ErrAttachmentInvalid)
	}
	if _, err := url.ParseRequestURI(meta.FileURL); err != nil {
		return nil, errs.NewError(errs.ErrAttachmentInvalid)
	}

	return &meta, nil
}

// ValidateFileSize checks if the provided file size is within acceptable limits.
func ValidateFileSize(fileSize int64) *errs.CustomError {
	if fileSize <= 0 {
		return errs.NewError(errs.ErrAttachmentInvalid)
	}

	if fileSize > MaxAttachmentSize {
		return errs.NewError(errs.ErrFileSizeTooLarge)
	}

	return nil
}

// ValidateFileType checks if the provided MIME type is allowed.
func ValidateFileType(mimeType string) *errs.CustomError {
	if _, ok := AllowedMIMETypes[strings.ToLower(mimeType)]; !ok {
		return errs.NewError(errs.ErrAttachmentInvalid)
	}

	return nil
}

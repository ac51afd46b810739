// Package upload holds the contract for user-supplied audio files.
// The API server enforces what it can at presign time; the worker
// re-validates the real bytes before processing.
package upload

import "time"

const (
	MaxFileSizeBytes = 50 * 1024 * 1024
	MaxDurationSec   = 600

	PresignExpiry  = 15 * time.Minute
	DownloadExpiry = 15 * time.Minute
)

var allowedFormats = map[string]bool{
	"mp3":  true,
	"wav":  true,
	"m4a":  true,
	"flac": true,
}

var allowedContentTypes = map[string]bool{
	"audio/mpeg":  true,
	"audio/wav":   true,
	"audio/x-wav": true,
	"audio/mp4":   true,
	"audio/x-m4a": true,
	"audio/flac":  true,
}

func FormatAllowed(format string) bool {
	return allowedFormats[format]
}

func ContentTypeAllowed(contentType string) bool {
	return allowedContentTypes[contentType]
}

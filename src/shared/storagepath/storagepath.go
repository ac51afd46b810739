// Package storagepath is the single authority on object key layout in
// the upload and output buckets. Nothing else in the codebase
// concatenates bucket paths by hand.
package storagepath

import (
	"fmt"
	"path"
	"strings"
)

const (
	uploadsRoot = "uploads"
	outputRoot  = "output"

	LyricsFileName = "lyrics.json"

	// stems are transcoded to mp3 on the way out of separation
	StemFormat = "mp3"
)

// StemNames are the four tracks demucs produces, in the order they are
// reported.
var StemNames = []string{"drums", "bass", "other", "vocals"}

func UploadKey(ownerID string, songID string, fileName string) string {
	return fmt.Sprintf("%s/%s/%s/%s", uploadsRoot, ownerID, songID, SanitizeFileName(fileName))
}

func UploadPrefix(ownerID string, songID string) string {
	return fmt.Sprintf("%s/%s/%s/", uploadsRoot, ownerID, songID)
}

func OutputPrefix(ownerID string, songID string) string {
	return fmt.Sprintf("%s/%s/%s/", outputRoot, ownerID, songID)
}

func StemKey(ownerID string, songID string, stemName string, format string) string {
	return fmt.Sprintf("%s%s.%s", OutputPrefix(ownerID, songID), stemName, format)
}

func LyricsKey(ownerID string, songID string) string {
	return OutputPrefix(ownerID, songID) + LyricsFileName
}

// SanitizeFileName reduces a client-supplied file name to a single safe
// path segment. Directory components and traversal sequences are
// stripped, and anything outside a conservative character set is
// replaced with underscores.
func SanitizeFileName(fileName string) string {
	fileName = strings.ReplaceAll(fileName, "\\", "/")
	fileName = path.Base(fileName)
	fileName = strings.ReplaceAll(fileName, "..", "")

	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.' || r == '_' || r == '-':
			return r
		default:
			return '_'
		}
	}, fileName)

	sanitized = strings.TrimLeft(sanitized, ".")
	if sanitized == "" {
		return "audio"
	}

	return sanitized
}

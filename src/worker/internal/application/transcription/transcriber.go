package transcription

import (
	"context"

	songentity "github.com/unplugd-audio/unplugd-be/src/shared/song/entity"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

// Transcriber extracts lyrics from a song's separated vocals stem and
// writes lyrics.json to the output bucket.
//counterfeiter:generate . Transcriber
type Transcriber interface {
	TranscribeLyrics(ctx context.Context, song songentity.Song) error
}

package songentity

import "context"

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

// ValidatedUpload carries the fields that upload validation probes out
// of the audio file. They are written exactly once, on the transition
// to PROCESSING.
type ValidatedUpload struct {
	OriginalFormat string
	DurationSec    int
	FileSizeBytes  int64
}

// Store is the durable song record table. Updates are strictly
// mutations of an existing record - implementations must fail with a
// not-found style error rather than upsert, and must reject status
// transitions that AllowedPredecessors does not permit.
//counterfeiter:generate . Store
type Store interface {
	CreateSong(ctx context.Context, song Song) error
	GetSong(ctx context.Context, ownerID string, songID string) (Song, error)
	GetSongsForOwner(ctx context.Context, ownerID string) ([]Song, error)
	GetSongsForOwnerByStatus(ctx context.Context, ownerID string, status Status) ([]Song, error)
	SetProcessing(ctx context.Context, ownerID string, songID string, validated ValidatedUpload) error
	SetCompleted(ctx context.Context, ownerID string, songID string) error
	SetFailed(ctx context.Context, ownerID string, songID string, errorMessage string) error
	DeleteSong(ctx context.Context, ownerID string, songID string) error
}

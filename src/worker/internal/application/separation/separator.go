package separation

import (
	"context"

	songentity "github.com/unplugd-audio/unplugd-be/src/shared/song/entity"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

// Separator splits a song's uploaded audio into the four stems and
// writes them to the output bucket.
//counterfeiter:generate . Separator
type Separator interface {
	SeparateStems(ctx context.Context, song songentity.Song) error
}

package songerrors

import (
	"github.com/unplugd-audio/unplugd-be/src/server/internal/errors/api"
)

const (
	SongNotFoundCode      = api.ErrorCode("song_not_found")
	ExistingSongCode      = api.ErrorCode("existing_song")
	BadSongDataCode       = api.ErrorCode("bad_song_data")
	ConflictingStatusCode = api.ErrorCode("conflicting_status")
	UploadNotFoundCode    = api.ErrorCode("upload_not_found")
)

package songusecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/rabbitmq/amqp091-go"
	authusecase "github.com/unplugd-audio/unplugd-be/src/server/internal/auth"
	"github.com/unplugd-audio/unplugd-be/src/server/internal/errors/api"
	songerrors "github.com/unplugd-audio/unplugd-be/src/server/internal/song/errors"
	uploaderrors "github.com/unplugd-audio/unplugd-be/src/server/internal/upload"
	"github.com/unplugd-audio/unplugd-be/src/shared/blobstore"
	"github.com/unplugd-audio/unplugd-be/src/shared/lib/rabbitmq"
	songentity "github.com/unplugd-audio/unplugd-be/src/shared/song/entity"
	songstorage "github.com/unplugd-audio/unplugd-be/src/shared/song/storage"
	"github.com/unplugd-audio/unplugd-be/src/shared/storagepath"
	"github.com/unplugd-audio/unplugd-be/src/shared/upload"
)

type Usecase struct {
	songStore   songentity.Store
	uploadStore blobstore.Store
	outputStore blobstore.Store
	publisher   rabbitmq.Publisher
	authUsecase authusecase.Usecase
}

func NewUsecase(
	songStore songentity.Store,
	uploadStore blobstore.Store,
	outputStore blobstore.Store,
	publisher rabbitmq.Publisher,
	authUsecase authusecase.Usecase,
) Usecase {
	return Usecase{
		songStore:   songStore,
		uploadStore: uploadStore,
		outputStore: outputStore,
		publisher:   publisher,
		authUsecase: authUsecase,
	}
}

type UploadRequest struct {
	Title       string `json:"title"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

type UploadReceipt struct {
	SongID       string `json:"songId"`
	UploadURL    string `json:"uploadUrl"`
	Key          string `json:"key"`
	ExpiresInSec int    `json:"expiresInSec"`
}

// SongView is the API shape of a song record. Stem and lyrics URLs are
// only populated once processing has completed.
type SongView struct {
	SongID         string            `json:"songId"`
	Title          string            `json:"title"`
	Status         string            `json:"status"`
	ContentType    string            `json:"contentType"`
	OriginalFormat string            `json:"originalFormat,omitempty"`
	DurationSec    int               `json:"durationSec,omitempty"`
	FileSizeBytes  int64             `json:"fileSizeBytes,omitempty"`
	ErrorMessage   string            `json:"errorMessage,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
	Stems          map[string]string `json:"stems,omitempty"`
	LyricsURL      string            `json:"lyricsUrl,omitempty"`
}

func (u Usecase) CreateUpload(ctx context.Context, authHeader string, request UploadRequest) (UploadReceipt, *api.Error) {
	user, apiErr := u.authUsecase.ValidateHeader(ctx, authHeader)
	if apiErr != nil {
		return UploadReceipt{}, api.WrapError(apiErr, "Failed to validate auth header")
	}

	if request.FileName == "" {
		return UploadReceipt{}, api.CommitError(
			errors.New("No file name in upload request"),
			uploaderrors.BadUploadDataCode,
			"A file name is required to upload a song")
	}

	if !upload.ContentTypeAllowed(request.ContentType) {
		return UploadReceipt{}, api.CommitError(
			errors.Newf("Content type %s is not in the allowed set", request.ContentType),
			uploaderrors.UnsupportedContentTypeCode,
			"This audio format isn't supported. Please upload an mp3, wav, m4a, or flac file")
	}

	title := request.Title
	if title == "" {
		title = storagepath.SanitizeFileName(request.FileName)
	}

	song := songentity.Song{
		OwnerID:     user.ID,
		Title:       title,
		ContentType: request.ContentType,
		Status:      songentity.StatusPendingUpload,
	}

	song.CreateID()
	song.SetCreatedAtToNow()
	song.UploadKey = storagepath.UploadKey(user.ID, song.SongID, request.FileName)

	if err := u.songStore.CreateSong(ctx, song); err != nil {
		switch {
		case markers.Is(err, songstorage.SongAlreadyExistsMark):
			return UploadReceipt{}, api.CommitError(err,
				songerrors.ExistingSongCode,
				"A song with this ID already exists")

		default:
			return UploadReceipt{}, api.CommitError(err,
				api.DefaultErrorCode,
				"Unknown error: failed to create the song record")
		}
	}

	uploadURL, err := u.uploadStore.PresignPut(song.UploadKey, request.ContentType, upload.PresignExpiry)
	if err != nil {
		return UploadReceipt{}, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: failed to create the upload URL")
	}

	return UploadReceipt{
		SongID:       song.SongID,
		UploadURL:    uploadURL,
		Key:          song.UploadKey,
		ExpiresInSec: int(upload.PresignExpiry.Seconds()),
	}, nil
}

func (u Usecase) GetSong(ctx context.Context, authHeader string, songID string) (SongView, *api.Error) {
	user, apiErr := u.authUsecase.ValidateHeader(ctx, authHeader)
	if apiErr != nil {
		return SongView{}, api.WrapError(apiErr, "Failed to validate auth header")
	}

	song, err := u.songStore.GetSong(ctx, user.ID, songID)
	if err != nil {
		return SongView{}, u.mapGetError(err)
	}

	view, err := u.makeView(song)
	if err != nil {
		return SongView{}, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: failed to prepare the song's download URLs")
	}

	return view, nil
}

// GetSongs lists the caller's songs, optionally narrowed to one status.
// An empty statusFilter means all of them.
func (u Usecase) GetSongs(ctx context.Context, authHeader string, statusFilter string) ([]SongView, *api.Error) {
	user, apiErr := u.authUsecase.ValidateHeader(ctx, authHeader)
	if apiErr != nil {
		return nil, api.WrapError(apiErr, "Failed to validate auth header")
	}

	songs, err := u.fetchSongs(ctx, user.ID, statusFilter)
	if err != nil {
		if markers.Is(err, unknownStatusMark) {
			return nil, api.CommitError(err,
				songerrors.BadSongDataCode,
				"This isn't a status songs can have")
		}

		return nil, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: failed to fetch your songs")
	}

	views := []SongView{}
	for _, song := range songs {
		view, err := u.makeView(song)
		if err != nil {
			return nil, api.CommitError(err,
				api.DefaultErrorCode,
				"Unknown error: failed to prepare the song's download URLs")
		}

		views = append(views, view)
	}

	return views, nil
}

var unknownStatusMark = errors.New("unknown status filter")

func (u Usecase) fetchSongs(ctx context.Context, ownerID string, statusFilter string) ([]songentity.Song, error) {
	if statusFilter == "" {
		return u.songStore.GetSongsForOwner(ctx, ownerID)
	}

	status, ok := songentity.ParseStatus(statusFilter)
	if !ok {
		return nil, markers.Mark(
			errors.Newf("Status filter %s is not a song status", statusFilter),
			unknownStatusMark)
	}

	return u.songStore.GetSongsForOwnerByStatus(ctx, ownerID, status)
}

// Process enqueues the song for stem separation and transcription. The
// queue message only carries identity; the worker re-reads the record
// and performs its own conditional status transition, so a racing
// duplicate trigger loses there rather than here.
func (u Usecase) Process(ctx context.Context, authHeader string, songID string) *api.Error {
	user, apiErr := u.authUsecase.ValidateHeader(ctx, authHeader)
	if apiErr != nil {
		return api.WrapError(apiErr, "Failed to validate auth header")
	}

	song, err := u.songStore.GetSong(ctx, user.ID, songID)
	if err != nil {
		return u.mapGetError(err)
	}

	if song.Status != songentity.StatusPendingUpload {
		return api.CommitError(
			errors.Newf("Song is in status %s, not pending upload", song.Status),
			songerrors.ConflictingStatusCode,
			"This song has already been submitted for processing")
	}

	if _, err := u.uploadStore.Head(ctx, song.UploadKey); err != nil {
		if markers.Is(err, blobstore.ObjectNotFoundMark) {
			return api.CommitError(err,
				songerrors.UploadNotFoundCode,
				"No uploaded file was found for this song. Please upload it first")
		}

		return api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: failed to check for the uploaded file")
	}

	if err := u.publishProcessJob(user.ID, songID); err != nil {
		return api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: failed to enqueue the song for processing")
	}

	return nil
}

func (u Usecase) DeleteSong(ctx context.Context, authHeader string, songID string) *api.Error {
	user, apiErr := u.authUsecase.ValidateHeader(ctx, authHeader)
	if apiErr != nil {
		return api.WrapError(apiErr, "Failed to validate auth header")
	}

	err := u.songStore.DeleteSong(ctx, user.ID, songID)
	if err != nil {
		return u.mapGetError(err)
	}

	// objects are cleaned up best effort - the record is the source of
	// truth and it is already gone
	if _, err := u.uploadStore.DeletePrefix(ctx, storagepath.UploadPrefix(user.ID, songID)); err != nil {
		return api.CommitError(err,
			api.DefaultErrorCode,
			"The song was deleted but its uploaded file may remain")
	}

	if _, err := u.outputStore.DeletePrefix(ctx, storagepath.OutputPrefix(user.ID, songID)); err != nil {
		return api.CommitError(err,
			api.DefaultErrorCode,
			"The song was deleted but some of its stems may remain")
	}

	return nil
}

type songIdentifier struct {
	UserID string `json:"user_id"`
	SongID string `json:"song_id"`
}

func (u Usecase) publishProcessJob(userID string, songID string) error {
	jsonBytes, err := json.Marshal(songIdentifier{
		UserID: userID,
		SongID: songID,
	})

	if err != nil {
		return errors.Wrap(err, "Failed to marshal song identity for queue msg")
	}

	publishMsg := amqp091.Publishing{
		Type: "process_song",
		Body: jsonBytes,
	}

	err = u.publisher.Publish(publishMsg)
	if err != nil {
		return errors.Wrap(err, "Failed to publish message to rabbitmq")
	}

	return nil
}

func (u Usecase) makeView(song songentity.Song) (SongView, error) {
	view := SongView{
		SongID:         song.SongID,
		Title:          song.Title,
		Status:         string(song.Status),
		ContentType:    song.ContentType,
		OriginalFormat: song.OriginalFormat,
		DurationSec:    song.DurationSec,
		FileSizeBytes:  song.FileSizeBytes,
		ErrorMessage:   song.ErrorMessage,
		CreatedAt:      song.CreatedAt,
		UpdatedAt:      song.UpdatedAt,
	}

	if song.Status != songentity.StatusCompleted {
		return view, nil
	}

	stems := map[string]string{}
	for _, stemName := range storagepath.StemNames {
		stemKey := storagepath.StemKey(song.OwnerID, song.SongID, stemName, storagepath.StemFormat)
		stemURL, err := u.outputStore.PresignGet(stemKey, upload.DownloadExpiry)
		if err != nil {
			return SongView{}, errors.Wrap(err, "Failed to presign stem download URL")
		}

		stems[stemName] = stemURL
	}

	lyricsURL, err := u.outputStore.PresignGet(storagepath.LyricsKey(song.OwnerID, song.SongID), upload.DownloadExpiry)
	if err != nil {
		return SongView{}, errors.Wrap(err, "Failed to presign lyrics download URL")
	}

	view.Stems = stems
	view.LyricsURL = lyricsURL
	return view, nil
}

func (u Usecase) mapGetError(err error) *api.Error {
	switch {
	case markers.Is(err, songstorage.SongNotFoundMark):
		return api.CommitError(err,
			songerrors.SongNotFoundCode,
			"This song couldn't be found")

	case markers.Is(err, songstorage.DefaultErrorMark):
		fallthrough
	default:
		return api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: failed to fetch the song")
	}
}

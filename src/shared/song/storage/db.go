package songstorage

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/cockroachdb/errors"
	"github.com/guregu/dynamo"
	dynamolib "github.com/unplugd-audio/unplugd-be/src/shared/lib/dynamo"
	"github.com/unplugd-audio/unplugd-be/src/shared/lib/errors/mark"
	songentity "github.com/unplugd-audio/unplugd-be/src/shared/song/entity"
)

const (
	SongsTable = "Songs"

	ownerKey    = "userId"
	songKey     = "songId"
	statusField = "status"

	StatusIndex = "StatusIndex"

	existingSongCondition = "attribute_exists('" + songKey + "')"
	newSongCondition      = "attribute_not_exists('" + songKey + "')"
)

type dbSong struct {
	OwnerID        string    `dynamo:"userId,hash" index:"StatusIndex,hash"`
	SongID         string    `dynamo:"songId,range"`
	Title          string    `dynamo:"title"`
	ContentType    string    `dynamo:"contentType"`
	OriginalFormat string    `dynamo:"originalFormat,omitempty"`
	DurationSec    int       `dynamo:"durationSec,omitempty"`
	FileSizeBytes  int64     `dynamo:"fileSizeBytes,omitempty"`
	Status         string    `dynamo:"status" index:"StatusIndex,range"`
	ErrorMessage   string    `dynamo:"errorMessage,omitempty"`
	UploadKey      string    `dynamo:"s3Key"`
	CreatedAt      time.Time `dynamo:"createdAt"`
	UpdatedAt      time.Time `dynamo:"updatedAt"`
}

func toDBSong(song songentity.Song) dbSong {
	return dbSong{
		OwnerID:        song.OwnerID,
		SongID:         song.SongID,
		Title:          song.Title,
		ContentType:    song.ContentType,
		OriginalFormat: song.OriginalFormat,
		DurationSec:    song.DurationSec,
		FileSizeBytes:  song.FileSizeBytes,
		Status:         string(song.Status),
		ErrorMessage:   song.ErrorMessage,
		UploadKey:      song.UploadKey,
		CreatedAt:      song.CreatedAt,
		UpdatedAt:      song.UpdatedAt,
	}
}

func (d dbSong) toEntity() songentity.Song {
	return songentity.Song{
		OwnerID:        d.OwnerID,
		SongID:         d.SongID,
		Title:          d.Title,
		ContentType:    d.ContentType,
		OriginalFormat: d.OriginalFormat,
		DurationSec:    d.DurationSec,
		FileSizeBytes:  d.FileSizeBytes,
		Status:         songentity.Status(d.Status),
		ErrorMessage:   d.ErrorMessage,
		UploadKey:      d.UploadKey,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

var _ songentity.Store = DB{}

type DB struct {
	dynamoDB dynamolib.DynamoDBWrapper
}

func NewDB(dynamoDB dynamolib.DynamoDBWrapper) DB {
	return DB{
		dynamoDB: dynamoDB,
	}
}

func (d DB) CreateSong(ctx context.Context, song songentity.Song) error {
	if song.OwnerID == "" || song.SongID == "" {
		err := errors.New("Owner ID or song ID is empty")
		return mark.Wrap(err, DefaultErrorMark, "No identity provided to create song")
	}

	putExpr := d.dynamoDB.Table(SongsTable).
		Put(toDBSong(song)).
		If(newSongCondition)

	if err := putExpr.RunWithContext(ctx); err != nil {
		if conditionalCheckFailed(err) {
			return mark.Wrap(err, SongAlreadyExistsMark, "Cannot create: a song of this ID already exists")
		}

		return mark.Wrap(err, DefaultErrorMark, "Failed to put song into DB")
	}

	return nil
}

func (d DB) GetSong(ctx context.Context, ownerID string, songID string) (songentity.Song, error) {
	if ownerID == "" || songID == "" {
		err := errors.New("Owner ID or song ID is empty")
		return songentity.Song{}, mark.Wrap(err, SongNotFoundMark, "No identity provided to fetch song")
	}

	value := dbSong{}
	err := d.dynamoDB.Table(SongsTable).
		Get(ownerKey, ownerID).
		Range(songKey, dynamo.Equal, songID).
		OneWithContext(ctx, &value)

	if err != nil {
		if errors.Is(err, dynamo.ErrNotFound) {
			return songentity.Song{}, mark.Wrap(err, SongNotFoundMark, "Song for this ID couldn't be found")
		}

		return songentity.Song{}, mark.Wrap(err, DefaultErrorMark, "Failed to fetch song due to unknown data store error")
	}

	return value.toEntity(), nil
}

func (d DB) GetSongsForOwner(ctx context.Context, ownerID string) ([]songentity.Song, error) {
	values := []dbSong{}
	err := d.dynamoDB.Table(SongsTable).
		Get(ownerKey, ownerID).
		AllWithContext(ctx, &values)

	if err != nil {
		return nil, mark.Wrap(err, DefaultErrorMark, "Failed to fetch all songs for owner ID")
	}

	return toEntities(values), nil
}

func (d DB) GetSongsForOwnerByStatus(ctx context.Context, ownerID string, status songentity.Status) ([]songentity.Song, error) {
	values := []dbSong{}
	err := d.dynamoDB.Table(SongsTable).
		Get(ownerKey, ownerID).
		Range(statusField, dynamo.Equal, string(status)).
		Index(StatusIndex).
		AllWithContext(ctx, &values)

	if err != nil {
		return nil, mark.Wrap(err, DefaultErrorMark, "Failed to fetch songs for owner ID by status")
	}

	return toEntities(values), nil
}

func (d DB) SetProcessing(ctx context.Context, ownerID string, songID string, validated songentity.ValidatedUpload) error {
	updateExpr := d.updateSong(ownerID, songID, songentity.StatusProcessing).
		Set("originalFormat", validated.OriginalFormat).
		Set("durationSec", validated.DurationSec).
		Set("fileSizeBytes", validated.FileSizeBytes)

	return d.runStatusUpdate(ctx, updateExpr)
}

func (d DB) SetCompleted(ctx context.Context, ownerID string, songID string) error {
	return d.runStatusUpdate(ctx, d.updateSong(ownerID, songID, songentity.StatusCompleted))
}

func (d DB) SetFailed(ctx context.Context, ownerID string, songID string, errorMessage string) error {
	updateExpr := d.updateSong(ownerID, songID, songentity.StatusFailed).
		Set("errorMessage", errorMessage)

	return d.runStatusUpdate(ctx, updateExpr)
}

// updateSong builds the conditional status transition: the record must
// already exist and its current status must be a legal predecessor of
// the requested one. This is what makes terminal statuses sticky and a
// duplicate processing trigger a no-op.
func (d DB) updateSong(ownerID string, songID string, next songentity.Status) *dynamo.Update {
	updateExpr := d.dynamoDB.Table(SongsTable).
		Update(ownerKey, ownerID).
		Range(songKey, songID).
		Set(statusField, string(next)).
		Set("updatedAt", time.Now().UTC()).
		If(existingSongCondition)

	predecessors := songentity.AllowedPredecessors(next)
	switch len(predecessors) {
	case 1:
		updateExpr = updateExpr.If("'"+statusField+"' = ?", string(predecessors[0]))
	case 2:
		updateExpr = updateExpr.If("'"+statusField+"' IN (?, ?)", string(predecessors[0]), string(predecessors[1]))
	default:
		panic("Unexpected number of allowed status predecessors")
	}

	return updateExpr
}

func (d DB) runStatusUpdate(ctx context.Context, updateExpr *dynamo.Update) error {
	if err := updateExpr.RunWithContext(ctx); err != nil {
		if conditionalCheckFailed(err) {
			return mark.Wrap(err, StaleStatusMark, "Song is missing or its status does not permit this transition")
		}

		return mark.Wrap(err, DefaultErrorMark, "Failed to update song status")
	}

	return nil
}

func (d DB) DeleteSong(ctx context.Context, ownerID string, songID string) error {
	if ownerID == "" || songID == "" {
		err := errors.New("Owner ID or song ID is empty")
		return mark.Wrap(err, SongNotFoundMark, "No identity provided to delete song")
	}

	delExpr := d.dynamoDB.Table(SongsTable).
		Delete(ownerKey, ownerID).
		Range(songKey, songID).
		If(existingSongCondition)

	if err := delExpr.RunWithContext(ctx); err != nil {
		if conditionalCheckFailed(err) {
			return mark.Wrap(err, SongNotFoundMark, "Failed to find song to delete")
		}

		return mark.Wrap(err, DefaultErrorMark, "Failed to delete song")
	}

	return nil
}

func toEntities(values []dbSong) []songentity.Song {
	songs := []songentity.Song{}
	for _, value := range values {
		songs = append(songs, value.toEntity())
	}

	return songs
}

func conditionalCheckFailed(err error) bool {
	var conditionErr *dynamodb.ConditionalCheckFailedException
	return errors.As(err, &conditionErr)
}

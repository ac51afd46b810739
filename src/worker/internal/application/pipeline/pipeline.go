// Package pipeline drives a song from PENDING_UPLOAD to a terminal
// status. The sequence of states matches the processing contract:
// validate, separate stems, transcribe lyrics, mark completed, notify,
// clean up the upload. Any failure before completion lands the song in
// FAILED with its partial outputs removed.
package pipeline

import (
	"context"

	"github.com/apex/log"
	"github.com/unplugd-audio/unplugd-be/src/shared/blobstore"
	"github.com/unplugd-audio/unplugd-be/src/shared/lib/errors/mark"
	"github.com/unplugd-audio/unplugd-be/src/shared/notify"
	songentity "github.com/unplugd-audio/unplugd-be/src/shared/song/entity"
	songstorage "github.com/unplugd-audio/unplugd-be/src/shared/song/storage"
	"github.com/unplugd-audio/unplugd-be/src/shared/storagepath"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/separation"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/transcription"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/validation"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/lib/cerr"
)

// State names the step a run ended on. Terminal outcomes are Done,
// Skipped, and Failed - any other state means the run aborted there
// with an error.
type State string

const (
	StateValidateInput    State = "ValidateInput"
	StateSeparateStems    State = "SeparateStems"
	StateTranscribeLyrics State = "TranscribeLyrics"
	StateMarkCompleted    State = "MarkCompleted"
	StateSendNotification State = "SendNotification"
	StateCleanupUpload    State = "CleanupUpload"

	StateDone    State = "Done"
	StateSkipped State = "Skipped"
	StateFailed  State = "Failed"
)

type Pipeline struct {
	songStore   songentity.Store
	uploadStore blobstore.Store
	outputStore blobstore.Store
	validator   validation.UploadValidator
	separator   separation.Separator
	transcriber transcription.Transcriber
	notifier    notify.Sender
	retry       RetryPolicy
}

func NewPipeline(
	songStore songentity.Store,
	uploadStore blobstore.Store,
	outputStore blobstore.Store,
	validator validation.UploadValidator,
	separator separation.Separator,
	transcriber transcription.Transcriber,
	notifier notify.Sender,
	retry RetryPolicy,
) Pipeline {
	return Pipeline{
		songStore:   songStore,
		uploadStore: uploadStore,
		outputStore: outputStore,
		validator:   validator,
		separator:   separator,
		transcriber: transcriber,
		notifier:    notifier,
		retry:       retry,
	}
}

// Run processes one song end to end and reports the state it finished
// on. A non-nil error is only returned when the run could neither
// complete nor settle the song into FAILED - those are the jobs worth
// surfacing to the queue.
func (p Pipeline) Run(ctx context.Context, ownerID string, songID string) (State, error) {
	logger := log.WithFields(log.Fields{
		"user_id": ownerID,
		"song_id": songID,
	})

	song, skip, err := p.loadSong(ctx, ownerID, songID, logger)
	if err != nil {
		return StateValidateInput, err
	}

	if skip {
		return StateSkipped, nil
	}

	validated, err := p.validator.ValidateUpload(ctx, song)
	if err != nil {
		// rejections are permanent verdicts about the file, so the
		// song settles into FAILED rather than bouncing on the queue
		return p.fail(ctx, song, StateValidateInput, err, logger)
	}

	claimed, err := p.claimSong(ctx, song, validated, logger)
	if err != nil {
		return StateValidateInput, err
	}

	if !claimed {
		return StateSkipped, nil
	}

	logger.Info("Starting song processing")

	if state, err := p.runStages(ctx, song, logger); err != nil {
		return p.fail(ctx, song, state, err, logger)
	}

	if err := p.markCompleted(ctx, song); err != nil {
		// the work is all done and uploaded - failing the song here
		// would throw it away, so surface the error and let the job
		// settle the record on redelivery
		return StateMarkCompleted, err
	}

	p.sendCompletedNotification(song, logger)
	p.cleanupUpload(ctx, song, logger)

	logger.Info("Song processing complete")
	return StateDone, nil
}

// loadSong fetches the record and decides whether this run should
// process it at all. A missing record or a song past PENDING_UPLOAD is
// a skip, not an error.
func (p Pipeline) loadSong(
	ctx context.Context,
	ownerID string,
	songID string,
	logger *log.Entry,
) (songentity.Song, bool, error) {
	var song songentity.Song
	err := p.retry.Run(ctx, string(StateValidateInput), func(ctx context.Context) error {
		var getErr error
		song, getErr = p.songStore.GetSong(ctx, ownerID, songID)
		return getErr
	})

	if err != nil {
		if mark.Is(err, songstorage.SongNotFoundMark) {
			logger.Warn("No song record exists for this job, skipping")
			return songentity.Song{}, true, nil
		}

		return songentity.Song{}, false,
			cerr.Field("song_id", songID).Wrap(err).Error("Failed to load the song record")
	}

	if song.Status != songentity.StatusPendingUpload {
		logger.WithField("status", string(song.Status)).
			Info("Song is not awaiting processing, skipping")
		return songentity.Song{}, true, nil
	}

	return song, false, nil
}

// claimSong takes the PENDING_UPLOAD -> PROCESSING transition. The
// conditional update is what makes duplicate deliveries safe: only one
// run wins the claim, every other one reports claimed false.
func (p Pipeline) claimSong(
	ctx context.Context,
	song songentity.Song,
	validated songentity.ValidatedUpload,
	logger *log.Entry,
) (bool, error) {
	err := p.retry.Run(ctx, string(StateValidateInput), func(ctx context.Context) error {
		return p.songStore.SetProcessing(ctx, song.OwnerID, song.SongID, validated)
	})

	if err != nil {
		if mark.Is(err, songstorage.StaleStatusMark) {
			logger.Info("Another run claimed this song first, skipping")
			return false, nil
		}

		return false, cerr.Wrap(err).Error("Failed to mark the song as processing")
	}

	return true, nil
}

func (p Pipeline) runStages(ctx context.Context, song songentity.Song, logger *log.Entry) (State, error) {
	logger.Info("Separating stems")
	err := p.retry.Run(ctx, string(StateSeparateStems), func(ctx context.Context) error {
		return p.separator.SeparateStems(ctx, song)
	})

	if err != nil {
		return StateSeparateStems, err
	}

	logger.Info("Transcribing lyrics")
	err = p.retry.Run(ctx, string(StateTranscribeLyrics), func(ctx context.Context) error {
		return p.transcriber.TranscribeLyrics(ctx, song)
	})

	if err != nil {
		return StateTranscribeLyrics, err
	}

	return State(""), nil
}

func (p Pipeline) markCompleted(ctx context.Context, song songentity.Song) error {
	err := p.retry.Run(ctx, string(StateMarkCompleted), func(ctx context.Context) error {
		return p.songStore.SetCompleted(ctx, song.OwnerID, song.SongID)
	})

	if err != nil {
		return cerr.Field("user_id", song.OwnerID).
			Field("song_id", song.SongID).
			Wrap(err).
			Error("Failed to mark the song as completed")
	}

	return nil
}

// fail settles the song into FAILED: record the message, remove any
// partial outputs, tell the owner. Every step is best effort - a
// failure run must always come to rest rather than ping-pong on the
// queue.
func (p Pipeline) fail(
	ctx context.Context,
	song songentity.Song,
	state State,
	cause error,
	logger *log.Entry,
) (State, error) {
	message := FailureMessage(cause)

	logger.WithFields(log.Fields{
		"state":   string(state),
		"message": message,
	}).WithError(cause).Error("Song processing failed")

	err := p.retry.Run(ctx, string(StateFailed), func(ctx context.Context) error {
		return p.songStore.SetFailed(ctx, song.OwnerID, song.SongID, message)
	})

	if err != nil {
		logger.WithError(err).Error("Failed to mark the song as failed")
	}

	prefix := storagepath.OutputPrefix(song.OwnerID, song.SongID)
	if deleted, err := p.outputStore.DeletePrefix(ctx, prefix); err != nil {
		logger.WithError(err).Error("Failed to remove partial outputs")
	} else if deleted > 0 {
		logger.WithField("deleted", deleted).Info("Removed partial outputs")
	}

	err = p.notifier.Send(notify.Notification{
		OwnerID: song.OwnerID,
		Event: notify.Event{
			Type:    notify.EventFailed,
			SongID:  song.SongID,
			Message: message,
		},
	})

	if err != nil {
		logger.WithError(err).Warn("Failed to send failure notification")
	}

	return StateFailed, nil
}

func (p Pipeline) sendCompletedNotification(song songentity.Song, logger *log.Entry) {
	err := p.notifier.Send(notify.Notification{
		OwnerID: song.OwnerID,
		Event: notify.Event{
			Type:    notify.EventCompleted,
			SongID:  song.SongID,
			Message: "Song processing completed",
		},
	})

	if err != nil {
		logger.WithError(err).Warn("Failed to send completion notification")
	}
}

// cleanupUpload removes the original upload once processing has
// succeeded. The record is already COMPLETED, so a failure here only
// leaks storage and is not worth failing the job over.
func (p Pipeline) cleanupUpload(ctx context.Context, song songentity.Song, logger *log.Entry) {
	prefix := storagepath.UploadPrefix(song.OwnerID, song.SongID)
	if _, err := p.uploadStore.DeletePrefix(ctx, prefix); err != nil {
		logger.WithError(err).Warn("Failed to remove the original upload")
	}
}

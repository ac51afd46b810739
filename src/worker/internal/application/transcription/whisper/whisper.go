package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/unplugd-audio/unplugd-be/src/shared/blobstore"
	"github.com/unplugd-audio/unplugd-be/src/shared/notify"
	songentity "github.com/unplugd-audio/unplugd-be/src/shared/song/entity"
	"github.com/unplugd-audio/unplugd-be/src/shared/storagepath"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/executor"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/transcription"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/lib/cerr"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/lib/working_dir"
)

const (
	stage = "whisper"

	modelName = "base"

	lyricsContentType = "application/json"
)

// whisperResult matches the JSON document the whisper CLI writes to
// its output dir.
type whisperResult struct {
	Language string                  `json:"language"`
	Segments []transcription.Segment `json:"segments"`
}

var _ transcription.Transcriber = Transcriber{}

type Transcriber struct {
	outputStore blobstore.Store
	notifier    notify.Sender
	binPath     string
	workingDir  working_dir.WorkingDir
	executor    executor.Executor
}

func NewTranscriber(
	outputStore blobstore.Store,
	notifier notify.Sender,
	binPath string,
	workingDir working_dir.WorkingDir,
	executor executor.Executor,
) Transcriber {
	return Transcriber{
		outputStore: outputStore,
		notifier:    notifier,
		binPath:     binPath,
		workingDir:  workingDir,
		executor:    executor,
	}
}

// TranscribeLyrics runs whisper against the vocals stem, never the full
// mix - the backing track throws the model off badly.
func (t Transcriber) TranscribeLyrics(ctx context.Context, song songentity.Song) error {
	errctx := cerr.Field("user_id", song.OwnerID).Field("song_id", song.SongID)

	scratchDir, err := t.workingDir.MakeScratchDir("whisper-*")
	if err != nil {
		return errctx.Wrap(err).Error("Failed to create scratch dir for transcription")
	}

	defer os.RemoveAll(scratchDir)

	t.sendProgress(song, 5, "Downloading vocals stem...")

	vocalsKey := storagepath.StemKey(song.OwnerID, song.SongID, "vocals", storagepath.StemFormat)
	vocalsPath := filepath.Join(scratchDir, "vocals."+storagepath.StemFormat)
	if err := t.outputStore.DownloadToFile(ctx, vocalsKey, vocalsPath); err != nil {
		return errctx.Field("vocals_key", vocalsKey).
			Wrap(err).
			Error("Failed to download the vocals stem")
	}

	t.sendProgress(song, 15, "Transcribing lyrics with Whisper...")

	result, err := t.runWhisper(ctx, vocalsPath, filepath.Join(scratchDir, "output"))
	if err != nil {
		return errctx.Wrap(err).Error("Failed to transcribe lyrics")
	}

	t.sendProgress(song, 85, "Transcription complete, uploading lyrics...")

	lyrics := transcription.BuildLyrics(result.Language, result.Segments)
	if lyrics.Instrumental {
		log.WithField("song_id", song.SongID).Info("Track detected as instrumental")
	}

	if err := t.uploadLyrics(ctx, song, lyrics); err != nil {
		return errctx.Wrap(err).Error("Failed to upload lyrics")
	}

	t.sendProgress(song, 100, "Lyrics uploaded successfully")
	return nil
}

func (t Transcriber) runWhisper(ctx context.Context, vocalsPath string, outputDir string) (whisperResult, error) {
	logger := log.WithFields(log.Fields{
		"vocals_path": vocalsPath,
		"output_dir":  outputDir,
	})

	// transcription is a lengthy process, if we want to halt now is the time
	if ctx.Err() != nil {
		return whisperResult{}, cerr.Wrap(ctx.Err()).Error("Context cancelled before transcription could happen")
	}

	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return whisperResult{}, cerr.Wrap(err).Error("Failed to create whisper output dir")
	}

	logger.Info("Running whisper command")

	args := []string{
		"--model", modelName,
		"--device", "cpu",
		"--word_timestamps", "True",
		"--output_format", "json",
		"--output_dir", outputDir,
		vocalsPath,
	}

	errctx := cerr.Field("whisper_bin_path", t.binPath).Field("whisper_args", args)

	cmd := t.executor.Command(t.binPath, args...)
	cmd.SetDir(t.workingDir.Root())

	output, err := cmd.CombinedOutput()
	if err != nil {
		return whisperResult{}, errctx.Field("whisper_output", string(output)).
			Wrap(err).
			Error("Error occurred while running whisper")
	}

	logger.Debug(string(output))
	logger.Info("Finished whisper command")

	trackName := strings.TrimSuffix(filepath.Base(vocalsPath), filepath.Ext(vocalsPath))
	resultPath := filepath.Join(outputDir, trackName+".json")

	contents, err := os.ReadFile(resultPath)
	if err != nil {
		return whisperResult{}, errctx.Field("result_path", resultPath).
			Wrap(err).
			Error("Expected whisper output file not found")
	}

	result := whisperResult{}
	if err := json.Unmarshal(contents, &result); err != nil {
		return whisperResult{}, errctx.Field("result_path", resultPath).
			Wrap(err).
			Error("Failed to parse whisper output")
	}

	return result, nil
}

func (t Transcriber) uploadLyrics(ctx context.Context, song songentity.Song, lyrics transcription.Lyrics) error {
	body, err := json.Marshal(lyrics)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to marshal lyrics")
	}

	lyricsKey := storagepath.LyricsKey(song.OwnerID, song.SongID)
	if err := t.outputStore.Upload(ctx, lyricsKey, bytes.NewReader(body), lyricsContentType); err != nil {
		return cerr.Field("lyrics_key", lyricsKey).
			Wrap(err).
			Error("Failed to upload lyrics file")
	}

	return nil
}

// progress sends are fire and forget - a lost milestone must never
// fail the transcription
func (t Transcriber) sendProgress(song songentity.Song, progress int, message string) {
	err := t.notifier.Send(notify.Notification{
		OwnerID: song.OwnerID,
		Event: notify.Event{
			Type:     notify.EventProgress,
			SongID:   song.SongID,
			Stage:    stage,
			Progress: progress,
			Message:  message,
		},
	})

	if err != nil {
		log.WithError(err).
			WithField("song_id", song.SongID).
			Warn("Failed to send progress notification")
	}
}

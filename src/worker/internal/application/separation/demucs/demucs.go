package demucs

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/unplugd-audio/unplugd-be/src/shared/blobstore"
	"github.com/unplugd-audio/unplugd-be/src/shared/notify"
	songentity "github.com/unplugd-audio/unplugd-be/src/shared/song/entity"
	"github.com/unplugd-audio/unplugd-be/src/shared/storagepath"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/executor"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/separation"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/lib/cerr"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/lib/working_dir"
)

const (
	stage = "demucs"

	// htdemucs_ft is the fine-tuned model - slower than plain
	// htdemucs but noticeably cleaner vocal separation
	modelName = "htdemucs_ft"

	stemContentType = "audio/mpeg"
)

var _ separation.Separator = Separator{}

type Separator struct {
	uploadStore blobstore.Store
	outputStore blobstore.Store
	notifier    notify.Sender
	binPath     string
	workingDir  working_dir.WorkingDir
	executor    executor.Executor
}

func NewSeparator(
	uploadStore blobstore.Store,
	outputStore blobstore.Store,
	notifier notify.Sender,
	binPath string,
	workingDir working_dir.WorkingDir,
	executor executor.Executor,
) Separator {
	return Separator{
		uploadStore: uploadStore,
		outputStore: outputStore,
		notifier:    notifier,
		binPath:     binPath,
		workingDir:  workingDir,
		executor:    executor,
	}
}

func (s Separator) SeparateStems(ctx context.Context, song songentity.Song) error {
	errctx := cerr.Field("user_id", song.OwnerID).Field("song_id", song.SongID)

	scratchDir, err := s.workingDir.MakeScratchDir("demucs-*")
	if err != nil {
		return errctx.Wrap(err).Error("Failed to create scratch dir for separation")
	}

	defer os.RemoveAll(scratchDir)

	s.sendProgress(song, 5, "Downloading audio file...")

	inputPath := filepath.Join(scratchDir, path.Base(song.UploadKey))
	if err := s.uploadStore.DownloadToFile(ctx, song.UploadKey, inputPath); err != nil {
		return errctx.Wrap(err).Error("Failed to download the uploaded file")
	}

	s.sendProgress(song, 15, "Separating stems with Demucs...")

	stemsDir, err := s.runDemucs(ctx, inputPath, filepath.Join(scratchDir, "output"))
	if err != nil {
		return errctx.Wrap(err).Error("Failed to separate stems")
	}

	s.sendProgress(song, 85, "Stem separation complete, uploading...")

	if err := s.uploadStems(ctx, song, stemsDir); err != nil {
		return errctx.Wrap(err).Error("Failed to upload stems")
	}

	s.sendProgress(song, 100, "All stems uploaded successfully")
	return nil
}

func (s Separator) runDemucs(ctx context.Context, inputPath string, outputDir string) (string, error) {
	logger := log.WithFields(log.Fields{
		"input_path": inputPath,
		"output_dir": outputDir,
	})

	// splitting is a lengthy process, if we want to halt now is the time
	if ctx.Err() != nil {
		return "", cerr.Wrap(ctx.Err()).Error("Context cancelled before separation could happen")
	}

	logger.Info("Running demucs command")

	args := []string{
		"--name", modelName,
		"-o", outputDir,
		"--mp3",
		"--filename", "{stem}.{ext}",
		"-d", "cpu",
		inputPath,
	}

	errctx := cerr.Field("demucs_bin_path", s.binPath).Field("demucs_args", args)

	cmd := s.executor.Command(s.binPath, args...)
	cmd.SetDir(s.workingDir.Root())

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", errctx.Field("demucs_output", string(output)).
			Wrap(err).
			Error("Error occurred while running demucs")
	}

	logger.Debug(string(output))
	logger.Info("Finished demucs command")

	trackName := strings.TrimSuffix(path.Base(inputPath), path.Ext(inputPath))
	stemsDir := filepath.Join(outputDir, modelName, trackName)

	if _, err := os.Stat(stemsDir); err != nil {
		return "", errctx.Field("stems_dir", stemsDir).
			Wrap(err).
			Error("Expected stems directory not found")
	}

	return stemsDir, nil
}

func (s Separator) uploadStems(ctx context.Context, song songentity.Song, stemsDir string) error {
	for _, stemName := range storagepath.StemNames {
		localPath := filepath.Join(stemsDir, stemName+"."+storagepath.StemFormat)

		file, err := os.Open(localPath)
		if err != nil {
			return cerr.Field("stem_path", localPath).
				Wrap(err).
				Error("Stem file not found in demucs output")
		}

		stemKey := storagepath.StemKey(song.OwnerID, song.SongID, stemName, storagepath.StemFormat)
		err = s.outputStore.Upload(ctx, stemKey, file, stemContentType)
		_ = file.Close()

		if err != nil {
			return cerr.Field("stem_key", stemKey).
				Wrap(err).
				Error("Failed to upload stem file")
		}
	}

	return nil
}

// progress sends are fire and forget - a lost milestone must never
// fail the separation
func (s Separator) sendProgress(song songentity.Song, progress int, message string) {
	err := s.notifier.Send(notify.Notification{
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

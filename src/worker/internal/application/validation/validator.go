package validation

import (
	"context"
	"fmt"
	"math"
	"os"
	"path"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/unplugd-audio/unplugd-be/src/shared/blobstore"
	"github.com/unplugd-audio/unplugd-be/src/shared/lib/errors/mark"
	songentity "github.com/unplugd-audio/unplugd-be/src/shared/song/entity"
	"github.com/unplugd-audio/unplugd-be/src/shared/upload"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/validation/probe"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/lib/cerr"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/lib/working_dir"
)

// RejectedMark classifies uploads that fail validation. These are
// permanent verdicts about the file contents - retrying can never help
// and the error message is meant for the song's owner.
var RejectedMark = errors.New("upload rejected")

var _ UploadValidator = Validator{}

// UploadValidator mirrors the pipeline's dependency so the app wiring
// can talk about it without importing the pipeline package.
type UploadValidator interface {
	ValidateUpload(ctx context.Context, song songentity.Song) (songentity.ValidatedUpload, error)
}

type Validator struct {
	uploadStore blobstore.Store
	prober      probe.Prober
	workingDir  working_dir.WorkingDir
}

func NewValidator(uploadStore blobstore.Store, prober probe.Prober, workingDir working_dir.WorkingDir) Validator {
	return Validator{
		uploadStore: uploadStore,
		prober:      prober,
		workingDir:  workingDir,
	}
}

// ValidateUpload checks the uploaded bytes against the upload
// contract. The size check runs off object metadata before any
// download happens, so an oversized file is rejected without pulling
// it down.
func (v Validator) ValidateUpload(ctx context.Context, song songentity.Song) (songentity.ValidatedUpload, error) {
	info, err := v.uploadStore.Head(ctx, song.UploadKey)
	if err != nil {
		if mark.Is(err, blobstore.ObjectNotFoundMark) {
			return songentity.ValidatedUpload{}, reject(err, "No uploaded file was found for this song")
		}

		return songentity.ValidatedUpload{}, cerr.Wrap(err).Error("Failed to check the uploaded file")
	}

	if info.SizeBytes > upload.MaxFileSizeBytes {
		return songentity.ValidatedUpload{}, rejectMessage(
			fmt.Sprintf("File size %d bytes exceeds maximum of %d bytes", info.SizeBytes, upload.MaxFileSizeBytes))
	}

	scratchDir, err := v.workingDir.MakeScratchDir("validate-*")
	if err != nil {
		return songentity.ValidatedUpload{}, cerr.Wrap(err).Error("Failed to create scratch dir for validation")
	}

	defer os.RemoveAll(scratchDir)

	localPath := filepath.Join(scratchDir, path.Base(song.UploadKey))
	if err := v.uploadStore.DownloadToFile(ctx, song.UploadKey, localPath); err != nil {
		return songentity.ValidatedUpload{}, cerr.Wrap(err).Error("Failed to download the uploaded file")
	}

	audioInfo, err := v.prober.Probe(ctx, localPath)
	if err != nil {
		return songentity.ValidatedUpload{}, reject(err, "Unrecognized or unsupported audio format")
	}

	if !upload.FormatAllowed(audioInfo.Format) {
		return songentity.ValidatedUpload{}, rejectMessage(
			fmt.Sprintf("Format '%s' is not allowed. Allowed: flac, m4a, mp3, wav", audioInfo.Format))
	}

	if audioInfo.DurationSec > upload.MaxDurationSec {
		// ceil so a fractional overshoot never reads as equal to the limit
		return songentity.ValidatedUpload{}, rejectMessage(
			fmt.Sprintf("Duration %ds exceeds maximum of %ds", int(math.Ceil(audioInfo.DurationSec)), upload.MaxDurationSec))
	}

	return songentity.ValidatedUpload{
		OriginalFormat: audioInfo.Format,
		DurationSec:    int(audioInfo.DurationSec),
		FileSizeBytes:  info.SizeBytes,
	}, nil
}

func reject(err error, msg string) error {
	return mark.Wrap(err, RejectedMark, msg)
}

func rejectMessage(msg string) error {
	return mark.Message(RejectedMark, msg)
}

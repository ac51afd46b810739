package process

import (
	"context"
	"encoding/json"

	"github.com/apex/log"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/jobs/job_message"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/pipeline"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/lib/cerr"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

const JobType string = "process_song"

//counterfeiter:generate . ProcessJobHandler
type ProcessJobHandler interface {
	HandleProcessJob(ctx context.Context, message []byte) error
}

// SongPipeline matches pipeline.Pipeline.
type SongPipeline interface {
	Run(ctx context.Context, ownerID string, songID string) (pipeline.State, error)
}

var _ ProcessJobHandler = JobHandler{}

type JobHandler struct {
	pipeline SongPipeline
}

func NewJobHandler(songPipeline SongPipeline) JobHandler {
	return JobHandler{
		pipeline: songPipeline,
	}
}

// HandleProcessJob runs the full processing pipeline for one song. The
// pipeline settles failed songs itself, so an error out of here means
// the job genuinely could not come to rest and should be nacked.
func (h JobHandler) HandleProcessJob(ctx context.Context, message []byte) error {
	params, err := unmarshalMessage(message)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	errctx := cerr.Field("user_id", params.UserID).
		Field("song_id", params.SongID)

	state, err := h.pipeline.Run(ctx, params.UserID, params.SongID)
	if err != nil {
		return errctx.Field("state", string(state)).
			Wrap(err).
			Error("Song processing could not settle")
	}

	log.WithFields(log.Fields{
		"user_id": params.UserID,
		"song_id": params.SongID,
		"state":   string(state),
	}).Info("Process job finished")

	return nil
}

func unmarshalMessage(message []byte) (job_message.SongIdentifier, error) {
	params := job_message.SongIdentifier{}
	err := json.Unmarshal(message, &params)
	if err != nil {
		return job_message.SongIdentifier{}, cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	errctx := cerr.Field("job_params", params)

	if params.UserID == "" {
		return job_message.SongIdentifier{}, errctx.Error("Missing user ID")
	}

	if params.SongID == "" {
		return job_message.SongIdentifier{}, errctx.Error("Missing song ID")
	}

	return params, nil
}

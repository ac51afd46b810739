package process_test

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/jobs/job_message"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/jobs/process"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/pipeline"
)

type stubPipeline struct {
	State pipeline.State
	Err   error

	RanOwnerID string
	RanSongID  string
	Calls      int
}

func (s *stubPipeline) Run(_ context.Context, ownerID string, songID string) (pipeline.State, error) {
	s.Calls++
	s.RanOwnerID = ownerID
	s.RanSongID = songID
	return s.State, s.Err
}

var _ = Describe("Process job handler", func() {
	var (
		songPipeline *stubPipeline
		handler      process.JobHandler
		message      []byte
	)

	BeforeEach(func() {
		songPipeline = &stubPipeline{State: pipeline.StateDone}
		handler = process.NewJobHandler(songPipeline)

		var err error
		message, err = json.Marshal(job_message.SongIdentifier{
			UserID: "user-id",
			SongID: "song-id",
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Well formed message", func() {
		It("runs the pipeline for the identified song", func() {
			err := handler.HandleProcessJob(context.Background(), message)
			Expect(err).NotTo(HaveOccurred())
			Expect(songPipeline.Calls).To(Equal(1))
			Expect(songPipeline.RanOwnerID).To(Equal("user-id"))
			Expect(songPipeline.RanSongID).To(Equal("song-id"))
		})

		It("acks settled failures", func() {
			songPipeline.State = pipeline.StateFailed

			err := handler.HandleProcessJob(context.Background(), message)
			Expect(err).NotTo(HaveOccurred())
		})

		It("acks skipped runs", func() {
			songPipeline.State = pipeline.StateSkipped

			err := handler.HandleProcessJob(context.Background(), message)
			Expect(err).NotTo(HaveOccurred())
		})

		It("surfaces unsettled runs as errors", func() {
			songPipeline.State = pipeline.StateMarkCompleted
			songPipeline.Err = errors.New("song store is unreachable")

			err := handler.HandleProcessJob(context.Background(), message)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Poorly formed messages", func() {
		It("rejects bodies that aren't JSON", func() {
			err := handler.HandleProcessJob(context.Background(), []byte("{{{"))
			Expect(err).To(HaveOccurred())
			Expect(songPipeline.Calls).To(BeZero())
		})

		It("rejects a missing user ID", func() {
			body, err := json.Marshal(job_message.SongIdentifier{SongID: "song-id"})
			Expect(err).NotTo(HaveOccurred())

			handleErr := handler.HandleProcessJob(context.Background(), body)
			Expect(handleErr).To(HaveOccurred())
			Expect(songPipeline.Calls).To(BeZero())
		})

		It("rejects a missing song ID", func() {
			body, err := json.Marshal(job_message.SongIdentifier{UserID: "user-id"})
			Expect(err).NotTo(HaveOccurred())

			handleErr := handler.HandleProcessJob(context.Background(), body)
			Expect(handleErr).To(HaveOccurred())
			Expect(songPipeline.Calls).To(BeZero())
		})
	})
})

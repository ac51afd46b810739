package pipeline_test

import (
	"bytes"
	"context"
	"time"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/unplugd-audio/unplugd-be/src/shared/lib/errors/mark"
	"github.com/unplugd-audio/unplugd-be/src/shared/notify"
	songentity "github.com/unplugd-audio/unplugd-be/src/shared/song/entity"
	"github.com/unplugd-audio/unplugd-be/src/shared/storagepath"
	"github.com/unplugd-audio/unplugd-be/src/shared/testing/dummy"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/pipeline"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/validation"
)

var _ = Describe("Pipeline", func() {
	var (
		dummySongStore   *dummy.SongStore
		dummyUploadStore *dummy.BlobStore
		dummyOutputStore *dummy.BlobStore
		dummyNotifier    *dummy.Notifier

		validator   *stubValidator
		separator   *stubSeparator
		transcriber *stubTranscriber

		songPipeline pipeline.Pipeline

		ownerID string
		songID  string
		song    songentity.Song

		endState pipeline.State
		runErr   error
	)

	getSong := func() songentity.Song {
		storedSong, err := dummySongStore.GetSong(context.Background(), ownerID, songID)
		Expect(err).NotTo(HaveOccurred())
		return storedSong
	}

	failedNotifications := func() []notify.Notification {
		failed := []notify.Notification{}
		for _, notification := range dummyNotifier.SentTo(ownerID) {
			if notification.Event.Type == notify.EventFailed {
				failed = append(failed, notification)
			}
		}

		return failed
	}

	BeforeEach(func() {
		By("Initializing all variables", func() {
			ownerID = "owner-id"
			songID = "song-id"

			dummySongStore = dummy.NewDummySongStore()
			dummyUploadStore = dummy.NewDummyBlobStore()
			dummyOutputStore = dummy.NewDummyBlobStore()
			dummyNotifier = dummy.NewDummyNotifier()

			validator = &stubValidator{
				Result: songentity.ValidatedUpload{
					OriginalFormat: "mp3",
					DurationSec:    180,
					FileSizeBytes:  9,
				},
			}
			separator = &stubSeparator{OutputStore: dummyOutputStore}
			transcriber = &stubTranscriber{OutputStore: dummyOutputStore}
		})

		By("Seeding the song record and upload", func() {
			song = songentity.Song{
				OwnerID:     ownerID,
				SongID:      songID,
				Title:       "cool jamz",
				ContentType: "audio/mpeg",
				Status:      songentity.StatusPendingUpload,
				UploadKey:   storagepath.UploadKey(ownerID, songID, "cool_jamz.mp3"),
			}

			err := dummySongStore.CreateSong(context.Background(), song)
			Expect(err).NotTo(HaveOccurred())

			err = dummyUploadStore.Upload(context.Background(), song.UploadKey, bytes.NewReader([]byte("cool_jamz")), "audio/mpeg")
			Expect(err).NotTo(HaveOccurred())
		})

		By("Instantiating the pipeline", func() {
			songPipeline = pipeline.NewPipeline(
				dummySongStore,
				dummyUploadStore,
				dummyOutputStore,
				validator,
				separator,
				transcriber,
				dummyNotifier,
				pipeline.RetryPolicy{
					MaxAttempts:     3,
					InitialInterval: time.Millisecond,
					MaxInterval:     time.Millisecond,
					Sleep:           func(time.Duration) {},
				},
			)
		})
	})

	JustBeforeEach(func() {
		endState, runErr = songPipeline.Run(context.Background(), ownerID, songID)
	})

	Describe("Happy path", func() {
		It("finishes on Done without an error", func() {
			Expect(runErr).NotTo(HaveOccurred())
			Expect(endState).To(Equal(pipeline.StateDone))
		})

		It("marks the song completed", func() {
			Expect(getSong().Status).To(Equal(songentity.StatusCompleted))
		})

		It("records the validated upload fields", func() {
			storedSong := getSong()
			Expect(storedSong.OriginalFormat).To(Equal("mp3"))
			Expect(storedSong.DurationSec).To(Equal(180))
			Expect(storedSong.FileSizeBytes).To(Equal(int64(9)))
		})

		It("leaves all stems and lyrics in the output store", func() {
			for _, stemName := range storagepath.StemNames {
				stemKey := storagepath.StemKey(ownerID, songID, stemName, storagepath.StemFormat)
				Expect(dummyOutputStore.State).To(HaveKey(stemKey))
			}

			Expect(dummyOutputStore.State).To(HaveKey(storagepath.LyricsKey(ownerID, songID)))
		})

		It("removes the original upload", func() {
			Expect(dummyUploadStore.State).NotTo(HaveKey(song.UploadKey))
		})

		It("sends a completion notification last", func() {
			notifications := dummyNotifier.SentTo(ownerID)
			Expect(notifications).NotTo(BeEmpty())

			lastNotification := notifications[len(notifications)-1]
			Expect(lastNotification.Event.Type).To(Equal(notify.EventCompleted))
			Expect(lastNotification.Event.SongID).To(Equal(songID))
		})

		It("sends no failure notification", func() {
			Expect(failedNotifications()).To(BeEmpty())
		})
	})

	Describe("Transient separation failures within the retry budget", func() {
		BeforeEach(func() {
			separator.TransientFailures = 2
		})

		It("retries until separation succeeds", func() {
			Expect(runErr).NotTo(HaveOccurred())
			Expect(endState).To(Equal(pipeline.StateDone))
			Expect(separator.Calls).To(Equal(3))
		})

		It("still completes the song", func() {
			Expect(getSong().Status).To(Equal(songentity.StatusCompleted))
		})
	})

	Describe("Separation fails past the retry budget", func() {
		BeforeEach(func() {
			separator.TransientFailures = 3

			err := dummyOutputStore.Upload(
				context.Background(),
				storagepath.StemKey(ownerID, songID, "drums", storagepath.StemFormat),
				bytes.NewReader([]byte("partial")),
				"audio/mpeg")
			Expect(err).NotTo(HaveOccurred())
		})

		It("settles on Failed without an error", func() {
			Expect(runErr).NotTo(HaveOccurred())
			Expect(endState).To(Equal(pipeline.StateFailed))
		})

		It("stops retrying at the attempt cap", func() {
			Expect(separator.Calls).To(Equal(3))
		})

		It("marks the song failed", func() {
			Expect(getSong().Status).To(Equal(songentity.StatusFailed))
		})

		It("removes partial outputs", func() {
			Expect(dummyOutputStore.Keys()).To(BeEmpty())
		})

		It("never runs transcription", func() {
			Expect(transcriber.Calls).To(BeZero())
		})

		It("sends exactly one failure notification", func() {
			failed := failedNotifications()
			Expect(failed).To(HaveLen(1))
			Expect(failed[0].Event.SongID).To(Equal(songID))
		})
	})

	Describe("Upload is rejected by validation", func() {
		BeforeEach(func() {
			validator.Err = mark.Message(validation.RejectedMark, "Duration 900s exceeds maximum of 600s")
		})

		It("settles on Failed without an error", func() {
			Expect(runErr).NotTo(HaveOccurred())
			Expect(endState).To(Equal(pipeline.StateFailed))
		})

		It("does not retry the rejection", func() {
			Expect(validator.Calls).To(Equal(1))
		})

		It("records the rejection message on the song", func() {
			storedSong := getSong()
			Expect(storedSong.Status).To(Equal(songentity.StatusFailed))
			Expect(storedSong.ErrorMessage).To(Equal("Duration 900s exceeds maximum of 600s"))
		})

		It("never runs separation", func() {
			Expect(separator.Calls).To(BeZero())
		})

		It("sends exactly one failure notification carrying the message", func() {
			failed := failedNotifications()
			Expect(failed).To(HaveLen(1))
			Expect(failed[0].Event.Message).To(Equal("Duration 900s exceeds maximum of 600s"))
		})
	})

	Describe("Song is already being processed", func() {
		BeforeEach(func() {
			dummySongStore.State[ownerID][songID] = songentity.Song{
				OwnerID:   ownerID,
				SongID:    songID,
				Status:    songentity.StatusProcessing,
				UploadKey: song.UploadKey,
			}
		})

		It("skips without an error", func() {
			Expect(runErr).NotTo(HaveOccurred())
			Expect(endState).To(Equal(pipeline.StateSkipped))
		})

		It("runs none of the stages", func() {
			Expect(validator.Calls).To(BeZero())
			Expect(separator.Calls).To(BeZero())
			Expect(transcriber.Calls).To(BeZero())
		})

		It("sends no notifications", func() {
			Expect(dummyNotifier.Sent()).To(BeEmpty())
		})
	})

	Describe("Song record doesn't exist", func() {
		BeforeEach(func() {
			err := dummySongStore.DeleteSong(context.Background(), ownerID, songID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("skips without an error", func() {
			Expect(runErr).NotTo(HaveOccurred())
			Expect(endState).To(Equal(pipeline.StateSkipped))
		})
	})

	Describe("Song store goes away before completion can be recorded", func() {
		BeforeEach(func() {
			transcriber.After = func() {
				dummySongStore.Unavailable = true
			}
		})

		It("surfaces the error from the completion step", func() {
			Expect(runErr).To(HaveOccurred())
			Expect(endState).To(Equal(pipeline.StateMarkCompleted))
		})

		It("does not fail the song or notify failure", func() {
			Expect(failedNotifications()).To(BeEmpty())
		})

		It("keeps the outputs intact for the next delivery", func() {
			Expect(dummyOutputStore.State).To(HaveKey(storagepath.LyricsKey(ownerID, songID)))
		})
	})

	Describe("Notifier is down on the failure path", func() {
		BeforeEach(func() {
			separator.Err = errors.New("demucs exploded")
			dummyNotifier.Unavailable = true
		})

		It("still settles the song into Failed", func() {
			Expect(runErr).NotTo(HaveOccurred())
			Expect(endState).To(Equal(pipeline.StateFailed))
			Expect(getSong().Status).To(Equal(songentity.StatusFailed))
		})
	})
})

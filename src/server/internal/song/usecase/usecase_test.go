package songusecase_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	authusecase "github.com/unplugd-audio/unplugd-be/src/server/internal/auth"
	"github.com/unplugd-audio/unplugd-be/src/server/internal/errors/api"
	autherrors "github.com/unplugd-audio/unplugd-be/src/server/internal/errors/auth"
	"github.com/unplugd-audio/unplugd-be/src/server/internal/errors/gateway"
	songerrors "github.com/unplugd-audio/unplugd-be/src/server/internal/song/errors"
	songusecase "github.com/unplugd-audio/unplugd-be/src/server/internal/song/usecase"
	uploaderrors "github.com/unplugd-audio/unplugd-be/src/server/internal/upload"
	songentity "github.com/unplugd-audio/unplugd-be/src/shared/song/entity"
	"github.com/unplugd-audio/unplugd-be/src/shared/storagepath"
	testlib "github.com/unplugd-audio/unplugd-be/src/shared/testing"
	"github.com/unplugd-audio/unplugd-be/src/shared/testing/dummy"
)

var _ = Describe("Song usecase", func() {
	var (
		dummySongStore   *dummy.SongStore
		dummyUploadStore *dummy.BlobStore
		dummyOutputStore *dummy.BlobStore
		dummyPublisher   *dummy.RabbitMQ

		usecase songusecase.Usecase

		authHeader string
	)

	makeAuthHeader := func(user testlib.User) string {
		return "Bearer " + testlib.TokenForUserID(user.ID)
	}

	seedSong := func(song songentity.Song) {
		err := dummySongStore.CreateSong(context.Background(), song)
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		dummySongStore = dummy.NewDummySongStore()
		dummyUploadStore = dummy.NewDummyBlobStore()
		dummyOutputStore = dummy.NewDummyBlobStore()
		dummyPublisher = dummy.NewRabbitMQ()

		usecase = songusecase.NewUsecase(
			dummySongStore,
			dummyUploadStore,
			dummyOutputStore,
			dummyPublisher,
			authusecase.NewUsecase(testlib.Validator{}),
		)

		authHeader = makeAuthHeader(testlib.PrimaryUser)
	})

	Describe("CreateUpload", func() {
		var request songusecase.UploadRequest

		BeforeEach(func() {
			request = songusecase.UploadRequest{
				Title:       "cool jamz",
				FileName:    "cool jamz.mp3",
				ContentType: "audio/mpeg",
			}
		})

		Describe("Happy path", func() {
			var receipt songusecase.UploadReceipt

			JustBeforeEach(func() {
				var apiErr *api.Error
				receipt, apiErr = usecase.CreateUpload(context.Background(), authHeader, request)
				Expect(apiErr).To(BeNil())
			})

			It("returns a presigned upload URL", func() {
				Expect(receipt.UploadURL).NotTo(BeEmpty())
				Expect(receipt.ExpiresInSec).To(BeNumerically(">", 0))
			})

			It("keys the upload under the owner and new song", func() {
				Expect(receipt.SongID).NotTo(BeEmpty())
				Expect(receipt.Key).To(Equal(
					storagepath.UploadKey(testlib.PrimaryUser.ID, receipt.SongID, request.FileName)))
			})

			It("creates a pending record with the display title", func() {
				song, err := dummySongStore.GetSong(context.Background(), testlib.PrimaryUser.ID, receipt.SongID)
				Expect(err).NotTo(HaveOccurred())
				Expect(song.Status).To(Equal(songentity.StatusPendingUpload))
				Expect(song.Title).To(Equal("cool jamz"))
				Expect(song.ContentType).To(Equal("audio/mpeg"))
			})

			Describe("With no title", func() {
				BeforeEach(func() {
					request.Title = ""
				})

				It("falls back to the sanitized file name", func() {
					song, err := dummySongStore.GetSong(context.Background(), testlib.PrimaryUser.ID, receipt.SongID)
					Expect(err).NotTo(HaveOccurred())
					Expect(song.Title).To(Equal("cool_jamz.mp3"))
				})
			})
		})

		Describe("Validation failures", func() {
			It("rejects a missing file name", func() {
				request.FileName = ""

				_, apiErr := usecase.CreateUpload(context.Background(), authHeader, request)
				Expect(apiErr).NotTo(BeNil())
				Expect(apiErr.ErrorCode).To(Equal(uploaderrors.BadUploadDataCode))
			})

			It("rejects an unsupported content type", func() {
				request.ContentType = "video/mp4"

				_, apiErr := usecase.CreateUpload(context.Background(), authHeader, request)
				Expect(apiErr).NotTo(BeNil())
				Expect(apiErr.ErrorCode).To(Equal(uploaderrors.UnsupportedContentTypeCode))
			})

			It("rejects a bad auth header", func() {
				_, apiErr := usecase.CreateUpload(context.Background(), "Bearer bogus-token", request)
				Expect(apiErr).NotTo(BeNil())
				Expect(apiErr.ErrorCode).To(Equal(autherrors.NotAuthorizedCode))
				Expect(gateway.StatusCode(apiErr.ErrorCode)).To(Equal(http.StatusUnauthorized))
			})
		})
	})

	Describe("With a seeded song", func() {
		var song songentity.Song

		BeforeEach(func() {
			song = songentity.Song{
				OwnerID:     testlib.PrimaryUser.ID,
				SongID:      "01H5ZV9GYCC4N0YGZ2W8C8MZZS",
				Title:       "cool jamz",
				ContentType: "audio/mpeg",
				Status:      songentity.StatusPendingUpload,
				CreatedAt:   time.Now().UTC().Truncate(time.Second),
				UpdatedAt:   time.Now().UTC().Truncate(time.Second),
			}
			song.UploadKey = storagepath.UploadKey(song.OwnerID, song.SongID, "cool_jamz.mp3")
			seedSong(song)
		})

		Describe("GetSong", func() {
			It("returns the song without download URLs while pending", func() {
				view, apiErr := usecase.GetSong(context.Background(), authHeader, song.SongID)
				Expect(apiErr).To(BeNil())
				Expect(view.SongID).To(Equal(song.SongID))
				Expect(view.Status).To(Equal(string(songentity.StatusPendingUpload)))
				Expect(view.Stems).To(BeEmpty())
				Expect(view.LyricsURL).To(BeEmpty())
			})

			It("is not found for another user", func() {
				_, apiErr := usecase.GetSong(context.Background(), makeAuthHeader(testlib.OtherUser), song.SongID)
				Expect(apiErr).NotTo(BeNil())
				Expect(apiErr.ErrorCode).To(Equal(songerrors.SongNotFoundCode))
				Expect(gateway.StatusCode(apiErr.ErrorCode)).To(Equal(http.StatusNotFound))
			})

			Describe("Once completed", func() {
				BeforeEach(func() {
					completed := song
					completed.Status = songentity.StatusCompleted
					dummySongStore.State[song.OwnerID][song.SongID] = completed
				})

				It("returns download URLs for all four stems and the lyrics", func() {
					view, apiErr := usecase.GetSong(context.Background(), authHeader, song.SongID)
					Expect(apiErr).To(BeNil())

					Expect(view.Stems).To(HaveLen(4))
					for _, stemName := range storagepath.StemNames {
						Expect(view.Stems[stemName]).NotTo(BeEmpty())
					}

					Expect(view.LyricsURL).NotTo(BeEmpty())
				})
			})
		})

		Describe("GetSongs", func() {
			It("lists only the requesting user's songs", func() {
				views, apiErr := usecase.GetSongs(context.Background(), authHeader, "")
				Expect(apiErr).To(BeNil())
				Expect(views).To(HaveLen(1))
				Expect(views[0].SongID).To(Equal(song.SongID))

				otherViews, apiErr := usecase.GetSongs(context.Background(), makeAuthHeader(testlib.OtherUser), "")
				Expect(apiErr).To(BeNil())
				Expect(otherViews).To(BeEmpty())
			})

			Describe("Filtered by status", func() {
				BeforeEach(func() {
					failedSong := songentity.Song{
						OwnerID:      testlib.PrimaryUser.ID,
						SongID:       "01H5ZV9GYCC4N0YGZ2W8C8MZZT",
						Title:        "broken jamz",
						ContentType:  "audio/mpeg",
						Status:       songentity.StatusFailed,
						ErrorMessage: "Unrecognized or unsupported audio format",
					}
					seedSong(failedSong)
				})

				It("returns only songs in the requested status", func() {
					views, apiErr := usecase.GetSongs(context.Background(), authHeader, "FAILED")
					Expect(apiErr).To(BeNil())
					Expect(views).To(HaveLen(1))
					Expect(views[0].SongID).To(Equal("01H5ZV9GYCC4N0YGZ2W8C8MZZT"))
					Expect(views[0].Status).To(Equal(string(songentity.StatusFailed)))
				})

				It("returns empty for a status with no songs", func() {
					views, apiErr := usecase.GetSongs(context.Background(), authHeader, "COMPLETED")
					Expect(apiErr).To(BeNil())
					Expect(views).To(BeEmpty())
				})

				It("rejects a status that doesn't exist", func() {
					_, apiErr := usecase.GetSongs(context.Background(), authHeader, "EXPLODED")
					Expect(apiErr).NotTo(BeNil())
					Expect(apiErr.ErrorCode).To(Equal(songerrors.BadSongDataCode))
					Expect(gateway.StatusCode(apiErr.ErrorCode)).To(Equal(http.StatusBadRequest))
				})
			})
		})

		Describe("Process", func() {
			BeforeEach(func() {
				err := dummyUploadStore.Upload(
					context.Background(),
					song.UploadKey,
					bytes.NewReader([]byte("cool_jamz")),
					"audio/mpeg")
				Expect(err).NotTo(HaveOccurred())
			})

			It("publishes a process job for the song", func() {
				apiErr := usecase.Process(context.Background(), authHeader, song.SongID)
				Expect(apiErr).To(BeNil())

				Expect(dummyPublisher.PublishedMessages).To(HaveLen(1))

				published := dummyPublisher.PublishedMessages[0]
				Expect(published.Type).To(Equal("process_song"))

				params := map[string]string{}
				Expect(json.Unmarshal(published.Body, &params)).To(Succeed())
				Expect(params["user_id"]).To(Equal(testlib.PrimaryUser.ID))
				Expect(params["song_id"]).To(Equal(song.SongID))
			})

			It("conflicts when the song is not pending upload", func() {
				processing := song
				processing.Status = songentity.StatusProcessing
				dummySongStore.State[song.OwnerID][song.SongID] = processing

				apiErr := usecase.Process(context.Background(), authHeader, song.SongID)
				Expect(apiErr).NotTo(BeNil())
				Expect(apiErr.ErrorCode).To(Equal(songerrors.ConflictingStatusCode))
				Expect(gateway.StatusCode(apiErr.ErrorCode)).To(Equal(http.StatusConflict))
				Expect(dummyPublisher.PublishedMessages).To(BeEmpty())
			})

			It("fails when no file has been uploaded", func() {
				_, err := dummyUploadStore.DeletePrefix(context.Background(), "uploads/")
				Expect(err).NotTo(HaveOccurred())

				apiErr := usecase.Process(context.Background(), authHeader, song.SongID)
				Expect(apiErr).NotTo(BeNil())
				Expect(apiErr.ErrorCode).To(Equal(songerrors.UploadNotFoundCode))
				Expect(dummyPublisher.PublishedMessages).To(BeEmpty())
			})
		})

		Describe("DeleteSong", func() {
			BeforeEach(func() {
				err := dummyUploadStore.Upload(
					context.Background(),
					song.UploadKey,
					bytes.NewReader([]byte("cool_jamz")),
					"audio/mpeg")
				Expect(err).NotTo(HaveOccurred())

				err = dummyOutputStore.Upload(
					context.Background(),
					storagepath.StemKey(song.OwnerID, song.SongID, "vocals", storagepath.StemFormat),
					bytes.NewReader([]byte("vocals_jamz")),
					"audio/mpeg")
				Expect(err).NotTo(HaveOccurred())
			})

			It("removes the record and all stored objects", func() {
				apiErr := usecase.DeleteSong(context.Background(), authHeader, song.SongID)
				Expect(apiErr).To(BeNil())

				_, err := dummySongStore.GetSong(context.Background(), song.OwnerID, song.SongID)
				Expect(err).To(HaveOccurred())

				Expect(dummyUploadStore.Keys()).To(BeEmpty())
				Expect(dummyOutputStore.Keys()).To(BeEmpty())
			})

			It("is not found for another user", func() {
				apiErr := usecase.DeleteSong(context.Background(), makeAuthHeader(testlib.OtherUser), song.SongID)
				Expect(apiErr).NotTo(BeNil())
				Expect(apiErr.ErrorCode).To(Equal(songerrors.SongNotFoundCode))

				Expect(dummyUploadStore.Keys()).NotTo(BeEmpty())
			})
		})
	})

	Describe("Presets", func() {
		It("includes the untouched original mix", func() {
			presets := usecase.Presets()
			Expect(presets).NotTo(BeEmpty())

			var original songusecase.Preset
			for _, preset := range presets {
				if preset.ID == "original" {
					original = preset
				}
			}

			Expect(original.Volumes.Vocals).To(Equal(1.0))
			Expect(original.Volumes.Drums).To(Equal(1.0))
		})

		It("mutes only the vocals for karaoke", func() {
			for _, preset := range usecase.Presets() {
				if preset.ID != "karaoke" {
					continue
				}

				Expect(preset.Volumes.Vocals).To(BeZero())
				Expect(preset.Volumes.Drums).To(Equal(1.0))
				Expect(preset.Volumes.Bass).To(Equal(1.0))
				Expect(preset.Volumes.Other).To(Equal(1.0))
			}
		})
	})
})

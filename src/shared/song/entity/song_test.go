package songentity_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	songentity "github.com/unplugd-audio/unplugd-be/src/shared/song/entity"
)

var _ = Describe("Song status", func() {
	Describe("Legal transitions", func() {
		It("moves from pending upload to processing", func() {
			Expect(songentity.StatusPendingUpload.CanTransitionTo(songentity.StatusProcessing)).To(BeTrue())
		})

		It("moves from processing to completed", func() {
			Expect(songentity.StatusProcessing.CanTransitionTo(songentity.StatusCompleted)).To(BeTrue())
		})

		It("moves to failed from any non-terminal status", func() {
			Expect(songentity.StatusPendingUpload.CanTransitionTo(songentity.StatusFailed)).To(BeTrue())
			Expect(songentity.StatusProcessing.CanTransitionTo(songentity.StatusFailed)).To(BeTrue())
		})
	})

	Describe("Illegal transitions", func() {
		It("never skips processing", func() {
			Expect(songentity.StatusPendingUpload.CanTransitionTo(songentity.StatusCompleted)).To(BeFalse())
		})

		It("never leaves a terminal status", func() {
			for _, next := range []songentity.Status{
				songentity.StatusPendingUpload,
				songentity.StatusProcessing,
				songentity.StatusCompleted,
				songentity.StatusFailed,
			} {
				Expect(songentity.StatusCompleted.CanTransitionTo(next)).To(BeFalse())
				Expect(songentity.StatusFailed.CanTransitionTo(next)).To(BeFalse())
			}
		})

		It("never moves back to pending upload", func() {
			Expect(songentity.StatusProcessing.CanTransitionTo(songentity.StatusPendingUpload)).To(BeFalse())
		})
	})

	Describe("AllowedPredecessors", func() {
		It("agrees with the transition rules", func() {
			Expect(songentity.AllowedPredecessors(songentity.StatusProcessing)).
				To(Equal([]songentity.Status{songentity.StatusPendingUpload}))

			Expect(songentity.AllowedPredecessors(songentity.StatusCompleted)).
				To(Equal([]songentity.Status{songentity.StatusProcessing}))

			Expect(songentity.AllowedPredecessors(songentity.StatusFailed)).
				To(Equal([]songentity.Status{songentity.StatusPendingUpload, songentity.StatusProcessing}))
		})
	})
})

var _ = Describe("Song", func() {
	It("is new until it has an ID", func() {
		song := songentity.Song{}
		Expect(song.IsNew()).To(BeTrue())

		song.CreateID()
		Expect(song.IsNew()).To(BeFalse())
		Expect(song.SongID).NotTo(BeEmpty())
	})

	It("panics when creating an ID twice", func() {
		song := songentity.Song{}
		song.CreateID()

		Expect(func() { song.CreateID() }).To(Panic())
	})

	It("assigns sortable IDs", func() {
		first := songentity.Song{}
		first.CreateID()

		second := songentity.Song{}
		second.CreateID()

		Expect(first.SongID < second.SongID).To(BeTrue())
	})
})

var _ = Describe("ParseStatus", func() {
	It("maps each wire form back to its status", func() {
		for _, status := range []songentity.Status{
			songentity.StatusPendingUpload,
			songentity.StatusProcessing,
			songentity.StatusCompleted,
			songentity.StatusFailed,
		} {
			parsed, ok := songentity.ParseStatus(string(status))
			Expect(ok).To(BeTrue())
			Expect(parsed).To(Equal(status))
		}
	})

	It("rejects anything else", func() {
		_, ok := songentity.ParseStatus("EXPLODED")
		Expect(ok).To(BeFalse())

		_, ok = songentity.ParseStatus("")
		Expect(ok).To(BeFalse())
	})
})

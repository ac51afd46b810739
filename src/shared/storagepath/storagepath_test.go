package storagepath_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/unplugd-audio/unplugd-be/src/shared/storagepath"
)

var _ = Describe("Storage paths", func() {
	Describe("Key layout", func() {
		It("puts uploads under their owner and song", func() {
			key := storagepath.UploadKey("owner-id", "song-id", "cool_jamz.mp3")
			Expect(key).To(Equal("uploads/owner-id/song-id/cool_jamz.mp3"))
		})

		It("puts stems under the output prefix", func() {
			key := storagepath.StemKey("owner-id", "song-id", "vocals", "mp3")
			Expect(key).To(Equal("output/owner-id/song-id/vocals.mp3"))
		})

		It("puts lyrics next to the stems", func() {
			key := storagepath.LyricsKey("owner-id", "song-id")
			Expect(key).To(Equal("output/owner-id/song-id/lyrics.json"))
		})

		It("ends prefixes with a slash so sibling songs never match", func() {
			Expect(storagepath.UploadPrefix("owner-id", "song-id")).To(HaveSuffix("/"))
			Expect(storagepath.OutputPrefix("owner-id", "song-id")).To(HaveSuffix("/"))
		})
	})

	Describe("SanitizeFileName", func() {
		It("keeps ordinary file names", func() {
			Expect(storagepath.SanitizeFileName("cool_jamz.mp3")).To(Equal("cool_jamz.mp3"))
		})

		It("strips directory traversal", func() {
			Expect(storagepath.SanitizeFileName("../../../etc/passwd")).To(Equal("passwd"))
		})

		It("strips windows style paths", func() {
			Expect(storagepath.SanitizeFileName(`C:\Users\someone\song.mp3`)).To(Equal("song.mp3"))
		})

		It("replaces unexpected characters", func() {
			Expect(storagepath.SanitizeFileName("my song (final)!.mp3")).To(Equal("my_song__final__.mp3"))
		})

		It("never produces a hidden file", func() {
			Expect(storagepath.SanitizeFileName(".htaccess")).To(Equal("htaccess"))
		})

		It("falls back when nothing survives", func() {
			Expect(storagepath.SanitizeFileName("..")).To(Equal("audio"))
			Expect(storagepath.SanitizeFileName("")).To(Equal("audio"))
		})
	})
})

package pipeline_test

import (
	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/unplugd-audio/unplugd-be/src/shared/lib/errors/mark"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/pipeline"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/validation"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/lib/cerr"
)

var _ = Describe("FailureMessage", func() {
	It("falls back for nil errors", func() {
		Expect(pipeline.FailureMessage(nil)).To(Equal("Unknown error"))
	})

	It("uses a plain error message whole", func() {
		err := errors.New("demucs exploded")
		Expect(pipeline.FailureMessage(err)).To(Equal("demucs exploded"))
	})

	It("uses only the outermost message of a wrapped chain", func() {
		err := errors.Wrap(errors.New("connection reset"), "Failed to separate stems")
		Expect(pipeline.FailureMessage(err)).To(Equal("Failed to separate stems"))
	})

	It("passes a rejection message through unchanged", func() {
		err := mark.Message(validation.RejectedMark, "Duration 900s exceeds maximum of 600s")
		Expect(pipeline.FailureMessage(err)).To(Equal("Duration 900s exceeds maximum of 600s"))
	})

	It("surfaces the outer message of a wrapped rejection", func() {
		inner := errors.New("exit status 1")
		err := mark.Wrap(inner, validation.RejectedMark, "Unrecognized or unsupported audio format")
		Expect(pipeline.FailureMessage(err)).To(Equal("Unrecognized or unsupported audio format"))
	})

	It("ignores field context wrappers", func() {
		err := cerr.Field("song_id", "song-id").
			Wrap(errors.New("connection reset")).
			Error("Failed to separate stems")
		Expect(pipeline.FailureMessage(err)).To(Equal("Failed to separate stems"))
	})
})

package pipeline

import (
	"strings"

	"github.com/cockroachdb/errors"
)

const unknownFailureMessage = "Unknown error"

// FailureMessage picks the text recorded on a FAILED song and sent in
// the FAILED notification. Only the outermost message of the chain is
// used - rejection messages are written for the song's owner and
// wrapped causes carry infrastructure detail that doesn't belong on
// the record.
func FailureMessage(err error) string {
	if err == nil {
		return unknownFailureMessage
	}

	msg := strings.TrimSpace(outermostMessage(err))
	if msg == "" {
		return unknownFailureMessage
	}

	return msg
}

func outermostMessage(err error) string {
	full := err.Error()

	// marker and detail wrappers share their cause's message, so walk
	// past them until the message actually shrinks
	for cause := errors.UnwrapOnce(err); cause != nil; cause = errors.UnwrapOnce(cause) {
		inner := cause.Error()
		if inner == full {
			continue
		}

		if trimmed := strings.TrimSuffix(full, ": "+inner); trimmed != full {
			return trimmed
		}

		break
	}

	return full
}

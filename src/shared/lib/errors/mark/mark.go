package mark

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
)

// Wrap attaches a sentinel mark to a wrapped error so callers can
// classify it with markers.Is without depending on error message text.
func Wrap(err error, mark error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), mark)
}

// Message creates a new marked error with no underlying cause.
func Message(mark error, msg string) error {
	return errors.Mark(errors.New(msg), mark)
}

// Is reports whether err carries the given mark.
func Is(err error, mark error) bool {
	return markers.Is(err, mark)
}

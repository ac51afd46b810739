package transient

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
)

// Mark classifies an error as a transient infrastructure failure:
// a retry with the same inputs has a reasonable chance of succeeding.
// Validation and not-found errors must never carry this mark.
var Mark = errors.New("transient failure")

func Wrap(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), Mark)
}

func Error(msg string) error {
	return errors.Mark(errors.New(msg), Mark)
}

func Is(err error) bool {
	return markers.Is(err, Mark)
}

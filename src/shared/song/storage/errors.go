package songstorage

import "github.com/cockroachdb/errors"

var (
	// SongNotFoundMark also covers cross-owner lookups - a record that
	// exists under a different owner key must look exactly like a
	// missing one.
	SongNotFoundMark      = errors.New("song not found")
	SongAlreadyExistsMark = errors.New("song already exists")

	// StaleStatusMark means the record exists but its current status
	// does not permit the requested transition.
	StaleStatusMark = errors.New("song status does not permit this transition")

	DefaultErrorMark = errors.New("unknown data store error")
)

package songentity

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type Status string

const (
	StatusPendingUpload Status = "PENDING_UPLOAD"
	StatusProcessing    Status = "PROCESSING"
	StatusCompleted     Status = "COMPLETED"
	StatusFailed        Status = "FAILED"
)

// ParseStatus maps the wire form of a status back onto the enum.
func ParseStatus(value string) (Status, bool) {
	switch status := Status(value); status {
	case StatusPendingUpload, StatusProcessing, StatusCompleted, StatusFailed:
		return status, true
	default:
		return "", false
	}
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo encodes the only legal status order:
// PENDING_UPLOAD -> PROCESSING -> {COMPLETED | FAILED}.
// FAILED is reachable from any non-terminal status, and no
// terminal status can be left.
func (s Status) CanTransitionTo(next Status) bool {
	if s.IsTerminal() {
		return false
	}

	switch next {
	case StatusProcessing:
		return s == StatusPendingUpload
	case StatusCompleted:
		return s == StatusProcessing
	case StatusFailed:
		return s == StatusPendingUpload || s == StatusProcessing
	default:
		return false
	}
}

// AllowedPredecessors lists the statuses a record may hold for a
// transition into next to be legal. Storage uses this to build the
// conditional update expression.
func AllowedPredecessors(next Status) []Status {
	predecessors := []Status{}
	for _, from := range []Status{StatusPendingUpload, StatusProcessing, StatusCompleted, StatusFailed} {
		if from.CanTransitionTo(next) {
			predecessors = append(predecessors, from)
		}
	}

	return predecessors
}

type Song struct {
	OwnerID string `json:"userId"`
	SongID  string `json:"songId"`

	// Title keeps the original filename for display only - the
	// sanitized form lives in UploadKey
	Title          string `json:"title"`
	ContentType    string `json:"contentType"`
	OriginalFormat string `json:"originalFormat,omitempty"`
	DurationSec    int    `json:"durationSec,omitempty"`
	FileSizeBytes  int64  `json:"fileSizeBytes,omitempty"`

	Status       Status `json:"status"`
	ErrorMessage string `json:"errorMessage,omitempty"`

	UploadKey string `json:"s3Key"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s Song) IsNew() bool {
	return s.SongID == ""
}

// CreateID assigns a fresh ULID. ULIDs sort by creation time, which
// keeps the by-owner listing in upload order without a separate sort key.
func (s *Song) CreateID() {
	if !s.IsNew() {
		panic("CreateID is called without an IsNew check")
	}

	s.SongID = ulid.Make().String()
}

func (s *Song) SetCreatedAtToNow() {
	now := time.Now().UTC().Truncate(time.Second)
	s.CreatedAt = now
	s.UpdatedAt = now
}

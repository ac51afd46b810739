package notify

// EventType is the kind of progress update pushed to a song owner's
// open connections.
type EventType string

const (
	EventProgress  EventType = "PROGRESS"
	EventCompleted EventType = "COMPLETED"
	EventFailed    EventType = "FAILED"
)

// Event is the payload a client sees on its websocket.
type Event struct {
	Type     EventType `json:"type"`
	SongID   string    `json:"songId"`
	Stage    string    `json:"stage,omitempty"`
	Progress int       `json:"progress,omitempty"`
	Message  string    `json:"message,omitempty"`
}

// Notification is an Event addressed to an owner. It travels over the
// notifications queue between the worker and the API server.
type Notification struct {
	OwnerID string `json:"userId"`
	Event   Event  `json:"message"`
}

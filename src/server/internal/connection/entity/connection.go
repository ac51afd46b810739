package connectionentity

import (
	"context"
	"time"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

// TTL bounds how long a connection record can outlive its socket if
// the server dies without cleaning up. The table's TTL attribute
// reaps leftovers.
const TTL = 2 * time.Hour

type Connection struct {
	OwnerID      string
	ConnectionID string
	ConnectedAt  time.Time
	ExpiresAt    time.Time
}

func (c Connection) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

//counterfeiter:generate . Store
type Store interface {
	CreateConnection(ctx context.Context, connection Connection) error
	DeleteConnection(ctx context.Context, ownerID string, connectionID string) error
	GetConnectionsForOwner(ctx context.Context, ownerID string) ([]Connection, error)
}

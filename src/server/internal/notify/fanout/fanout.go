package fanout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	connectionentity "github.com/unplugd-audio/unplugd-be/src/server/internal/connection/entity"
	"github.com/unplugd-audio/unplugd-be/src/shared/notify"
)

// Pusher delivers a payload to one live connection. The hub satisfies
// this.
type Pusher interface {
	Push(connectionID string, data []byte) error
}

type Fanout struct {
	connectionStore connectionentity.Store
	pusher          Pusher
}

func NewFanout(connectionStore connectionentity.Store, pusher Pusher) Fanout {
	return Fanout{
		connectionStore: connectionStore,
		pusher:          pusher,
	}
}

// Deliver pushes one notification to every open connection of its
// owner. Push failures never stop the loop: a connection that can't be
// written to is reaped and the rest still get their delivery. Only a
// failure to list connections is returned.
func (f Fanout) Deliver(ctx context.Context, notification notify.Notification) error {
	payload, err := json.Marshal(notification.Event)
	if err != nil {
		return errors.Wrap(err, "Failed to marshal notification event")
	}

	connections, err := f.connectionStore.GetConnectionsForOwner(ctx, notification.OwnerID)
	if err != nil {
		return errors.Wrap(err, "Failed to list connections for owner")
	}

	now := time.Now()
	for _, connection := range connections {
		logger := log.WithField("user_id", connection.OwnerID).
			WithField("connection_id", connection.ConnectionID)

		if connection.Expired(now) {
			f.reap(ctx, connection, logger)
			continue
		}

		if err := f.pusher.Push(connection.ConnectionID, payload); err != nil {
			logger.WithError(err).Info("Connection is unreachable, reaping it")
			f.reap(ctx, connection, logger)
		}
	}

	return nil
}

func (f Fanout) reap(ctx context.Context, connection connectionentity.Connection, logger log.Interface) {
	err := f.connectionStore.DeleteConnection(ctx, connection.OwnerID, connection.ConnectionID)
	if err != nil {
		logger.WithError(err).Error("Failed to delete stale connection record")
	}
}

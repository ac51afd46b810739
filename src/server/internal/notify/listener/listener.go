package listener

import (
	"context"
	"encoding/json"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/rabbitmq/amqp091-go"
	"github.com/unplugd-audio/unplugd-be/src/server/internal/notify/fanout"
	"github.com/unplugd-audio/unplugd-be/src/shared/lib/rabbitmq"
	"github.com/unplugd-audio/unplugd-be/src/shared/notify"
)

var _ rabbitmq.MessageHandler = Listener{}

// Listener consumes the notifications queue and hands each message to
// the fan-out. Malformed messages are logged and acked - requeueing
// them can never succeed and a progress update is not worth poisoning
// the queue over.
type Listener struct {
	fanout fanout.Fanout
}

func NewListener(fanout fanout.Fanout) Listener {
	return Listener{
		fanout: fanout,
	}
}

func (l Listener) HandleMessage(message amqp091.Delivery) error {
	if message.Type != notify.MessageType {
		log.WithField("message_type", message.Type).
			Warn("Ignoring message of unknown type on notifications queue")
		return nil
	}

	notification := notify.Notification{}
	if err := json.Unmarshal(message.Body, &notification); err != nil {
		log.WithError(err).Error("Ignoring notification that couldn't be unmarshalled")
		return nil
	}

	if notification.OwnerID == "" {
		log.Error("Ignoring notification with no owner ID")
		return nil
	}

	if err := l.fanout.Deliver(context.Background(), notification); err != nil {
		return errors.Wrap(err, "Failed to fan out notification")
	}

	return nil
}

package notify

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/rabbitmq/amqp091-go"
	"github.com/unplugd-audio/unplugd-be/src/shared/lib/rabbitmq"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

// MessageType tags notification deliveries on the queue.
const MessageType = "notification"

//counterfeiter:generate . Sender
type Sender interface {
	Send(notification Notification) error
}

var _ Sender = QueueSender{}

// QueueSender publishes notifications onto the notifications queue, to
// be fanned out by whichever process owns the live connections.
type QueueSender struct {
	publisher rabbitmq.Publisher
}

func NewQueueSender(publisher rabbitmq.Publisher) QueueSender {
	return QueueSender{publisher: publisher}
}

func (q QueueSender) Send(notification Notification) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return errors.Wrap(err, "Failed to marshal notification")
	}

	err = q.publisher.Publish(amqp091.Publishing{
		Type: MessageType,
		Body: body,
	})

	if err != nil {
		return errors.Wrap(err, "Failed to publish notification to queue")
	}

	return nil
}

package rabbitmq

import (
	"context"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/rabbitmq/amqp091-go"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

var _ Publisher = &QueuePublisher{}

//counterfeiter:generate . Publisher
type Publisher interface {
	Publish(msg amqp091.Publishing) error
}

// QueuePublisher owns one channel to one durable queue. The jobs queue
// and the notifications queue each get their own publisher.
type QueuePublisher struct {
	rabbitMQURL string
	queueName   string
	channel     *amqp091.Channel
}

func NewQueuePublisher(rabbitMQURL string, queueName string) (*QueuePublisher, error) {
	publisher := &QueuePublisher{
		rabbitMQURL: rabbitMQURL,
		queueName:   queueName,
	}

	if err := publisher.openChannel(); err != nil {
		return nil, errors.Wrap(err, "Failed to open a channel to RabbitMQ")
	}

	return publisher, nil
}

// Publish sends one persistent JSON message. A channel lost to a broker
// restart earns exactly one redial and resend, any other failure
// surfaces to the caller.
func (q *QueuePublisher) Publish(msg amqp091.Publishing) error {
	err := q.publishOnce(msg)
	if err == nil {
		return nil
	}

	publishErr := errors.Wrap(err, "Failed to publish message to the queue")
	if !errors.Is(err, amqp091.ErrClosed) {
		return publishErr
	}

	log.WithField("queue", q.queueName).
		Warn("Publish channel was closed, redialing")

	if err := q.openChannel(); err != nil {
		log.WithError(err).
			WithField("queue", q.queueName).
			Error("Unable to reopen the channel to RabbitMQ")
		return publishErr
	}

	return q.publishOnce(msg)
}

func (q *QueuePublisher) openChannel() error {
	q.channel = nil

	conn, err := amqp091.Dial(q.rabbitMQURL)
	if err != nil {
		return errors.Wrap(err, "Failed to dial RabbitMQ")
	}

	channel, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "Failed to create a channel")
	}

	_, err = channel.QueueDeclare(
		q.queueName,
		true,
		false,
		false,
		false,
		nil,
	)

	if err != nil {
		return errors.Wrap(err, "Failed to declare the queue")
	}

	q.channel = channel
	return nil
}

func (q *QueuePublisher) publishOnce(msg amqp091.Publishing) error {
	msg.ContentType = "application/json"
	msg.DeliveryMode = amqp091.Persistent

	return q.channel.PublishWithContext(
		context.Background(),
		"",
		q.queueName,
		true,
		false,
		msg,
	)
}

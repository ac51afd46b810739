package rabbitmq

import (
	"sync"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/rabbitmq/amqp091-go"
)

type MessageChannel interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error)
	Close() error
}

// MessageHandler processes one delivery. A returned error nacks the
// message without requeue; nil acks it.
//counterfeiter:generate . MessageHandler
type MessageHandler interface {
	HandleMessage(message amqp091.Delivery) error
}

type QueueConsumer struct {
	channel     MessageChannel
	channelLock sync.Mutex
	handler     MessageHandler
	queueName   string
}

func NewQueueConsumer(channel MessageChannel, queueName string, handler MessageHandler) QueueConsumer {
	return QueueConsumer{
		channel:   channel,
		queueName: queueName,
		handler:   handler,
	}
}

func NewQueueConsumerFromConnection(conn *amqp091.Connection, queueName string, handler MessageHandler) (QueueConsumer, error) {
	rabbitChannel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return QueueConsumer{}, errors.Wrap(err, "Failed to get channel")
	}

	queue, err := rabbitChannel.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)

	if err != nil {
		_ = rabbitChannel.Close()
		return QueueConsumer{}, errors.Wrap(err, "Failed to declare queue")
	}

	return NewQueueConsumer(rabbitChannel, queue.Name, handler), nil
}

func (q *QueueConsumer) Start() error {
	log.WithField("queue_name", q.queueName).Info("Starting queue consumer")

	q.channelLock.Lock()
	if q.channel == nil {
		q.channelLock.Unlock()
		return errors.New("Consumer has been stopped")
	}

	defer q.channel.Close()

	messageStream, err := q.channel.Consume(
		q.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	q.channelLock.Unlock()

	if err != nil {
		return errors.Wrapf(err, "Failed to start consuming from queue %s", q.queueName)
	}

	for message := range messageStream {
		logger := log.WithField("message_type", message.Type)
		logger.Info("Handling message")
		err := q.handler.HandleMessage(message)
		if err != nil {
			logger.WithError(err).Error("Failed to process message")

			if err = message.Nack(false, false); err != nil {
				logger.Error("Failed to nack message")
			}
		} else {
			logger.Info("Successfully processed message")
			if err = message.Ack(false); err != nil {
				logger.Error("Failed to ack message")
			}
		}
	}

	return nil
}

func (q *QueueConsumer) Stop() {
	q.channelLock.Lock()
	defer q.channelLock.Unlock()
	_ = q.channel.Close()
	q.channel = nil
}

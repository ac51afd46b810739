package testing

import (
	"encoding/json"
	"sync"

	"github.com/rabbitmq/amqp091-go"
	"github.com/unplugd-audio/unplugd-be/src/shared/config/dev"
	"github.com/unplugd-audio/unplugd-be/src/shared/lib/rabbitmq"
)

const (
	RabbitMQHost           = dev.RabbitMQHost
	JobsQueueName          = "unplugd-jobs-test"
	NotificationsQueueName = "unplugd-notifications-test"
)

func MakeRabbitMQConnection() *amqp091.Connection {
	return ExpectSuccess(amqp091.Dial(RabbitMQHost))
}

func ResetRabbitMQ(conn *amqp091.Connection) {
	channel := ExpectSuccess(conn.Channel())
	ExpectSuccess(channel.QueuePurge(JobsQueueName, false))
	ExpectSuccess(channel.QueuePurge(NotificationsQueueName, false))
}

func AfterSuiteRabbitMQ(conn *amqp091.Connection) {
	channel := ExpectSuccess(conn.Channel())
	ExpectSuccess(channel.QueueDelete(JobsQueueName, false, false, false))
	ExpectSuccess(channel.QueueDelete(NotificationsQueueName, false, false, false))
}

func MakeRabbitMQPublisher(queueName string) *rabbitmq.QueuePublisher {
	return ExpectSuccess(rabbitmq.NewQueuePublisher(RabbitMQHost, queueName))
}

type ReceivedMessage struct {
	Type    string
	Message map[string]interface{}
}

// RabbitMQConsumer drains a queue into memory so tests can assert on
// what was published.
type RabbitMQConsumer struct {
	channel          *amqp091.Channel
	channelLock      sync.Mutex
	queueName        string
	receivedMessages []ReceivedMessage
	err              error
}

func NewRabbitMQConsumer(conn *amqp091.Connection, queueName string) RabbitMQConsumer {
	channel := ExpectSuccess(conn.Channel())

	return RabbitMQConsumer{
		channel:          channel,
		channelLock:      sync.Mutex{},
		queueName:        queueName,
		receivedMessages: nil,
		err:              nil,
	}
}

func (r *RabbitMQConsumer) AsyncStart() {
	r.channelLock.Lock()
	if r.channel == nil {
		r.channelLock.Unlock()
		return
	}

	messageStream := ExpectSuccess(r.channel.Consume(
		r.queueName,
		"",
		true,
		false,
		false,
		false,
		nil,
	))
	r.channelLock.Unlock()

	for message := range messageStream {
		if r.err != nil {
			continue
		}

		body := map[string]interface{}{}
		err := json.Unmarshal(message.Body, &body)
		if err != nil {
			r.err = err
			continue
		}

		newMessage := ReceivedMessage{
			Type:    message.Type,
			Message: body,
		}

		r.receivedMessages = append(r.receivedMessages, newMessage)
	}
}

func (r *RabbitMQConsumer) Stop() {
	r.channelLock.Lock()
	defer r.channelLock.Unlock()
	_ = r.channel.Close()
	r.channel = nil
}

func (r *RabbitMQConsumer) Unload() ([]ReceivedMessage, error) {
	if r.err != nil {
		return nil, r.err
	}

	receivedMessages := r.receivedMessages
	r.receivedMessages = nil
	return receivedMessages, nil
}

// Dev tool that drops a process job onto the local jobs queue.
package main

import (
	"context"
	"encoding/json"

	"github.com/rabbitmq/amqp091-go"
	"github.com/unplugd-audio/unplugd-be/src/shared/config/dev"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/jobs/job_message"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/jobs/process"
)

func main() {
	conn, err := amqp091.Dial(dev.RabbitMQHost)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	rabbitChannel, err := conn.Channel()
	if err != nil {
		panic(err)
	}
	defer rabbitChannel.Close()

	queue, err := rabbitChannel.QueueDeclare(
		dev.JobsQueueName,
		true,
		false,
		false,
		false,
		nil,
	)

	if err != nil {
		panic(err)
	}

	jobParams := job_message.SongIdentifier{
		UserID: "dev-user",
		SongID: "01J5ZV9GYCC4N0YGZ2W8C8MZZS",
	}

	jobBody, err := json.Marshal(jobParams)
	if err != nil {
		panic(err)
	}

	job := amqp091.Publishing{Type: process.JobType, Body: jobBody}

	job.DeliveryMode = amqp091.Persistent
	job.ContentType = "application/json"

	err = rabbitChannel.PublishWithContext(context.Background(), "", queue.Name, true, false, job)
	if err != nil {
		panic(err)
	}
}

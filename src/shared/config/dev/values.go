package dev

import "github.com/unplugd-audio/unplugd-be/src/shared/config"

const (
	RabbitMQHost           = "amqp://localhost:5672"
	JobsQueueName          = "unplugd-jobs-dev"
	NotificationsQueueName = "unplugd-notifications-dev"

	DynamoAccessKeyID     = "local"
	DynamoSecretAccessKey = "local"
	DynamoDBHost          = "http://localhost:8000"
	DynamoDBRegion        = "local"

	UploadBucket = "unplugd-uploads-dev"
	OutputBucket = "unplugd-output-dev"
)

var DynamoConfig = config.LocalDynamo{
	AccessKeyID:     DynamoAccessKeyID,
	SecretAccessKey: DynamoSecretAccessKey,
	Region:          DynamoDBRegion,
	Host:            DynamoDBHost,
}

package main

import (
	"strings"

	"github.com/apex/log"
	"github.com/joho/godotenv"
	"github.com/unplugd-audio/unplugd-be/src/server/application"
	"github.com/unplugd-audio/unplugd-be/src/server/auth/jwt"
	"github.com/unplugd-audio/unplugd-be/src/shared/config"
	"github.com/unplugd-audio/unplugd-be/src/shared/config/dev"
	"github.com/unplugd-audio/unplugd-be/src/shared/config/envvar"
	"github.com/unplugd-audio/unplugd-be/src/shared/config/prod"
	"github.com/unplugd-audio/unplugd-be/src/shared/lib/env"
)

func main() {
	var appConfig application.Config

	switch env.Get() {
	case env.Production:
		commaSeparatedOrigins := envvar.MustGet("ALLOWED_FE_ORIGINS")
		allowedOrigins := strings.Split(commaSeparatedOrigins, ",")

		appConfig = application.Config{
			DynamoConfig: config.ProdDynamo{
				AccessKeyID:     envvar.MustGet(envvar.AWS_ACCESS_KEY_ID),
				SecretAccessKey: envvar.MustGet(envvar.AWS_SECRET_ACCESS_KEY),
				Region:          prod.DynamoDBRegion,
			},
			StorageConfig: config.S3Storage{
				AccessKeyID:     envvar.MustGet(envvar.AWS_ACCESS_KEY_ID),
				SecretAccessKey: envvar.MustGet(envvar.AWS_SECRET_ACCESS_KEY),
				Region:          prod.S3Region,
				UploadBucket:    envvar.MustGet(envvar.UPLOAD_BUCKET_NAME),
				OutputBucket:    envvar.MustGet(envvar.OUTPUT_BUCKET_NAME),
			},
			RabbitMQURL:            envvar.MustGet(envvar.RABBITMQ_URL),
			JobsQueueName:          envvar.MustGet(envvar.JOBS_QUEUE_NAME),
			NotificationsQueueName: envvar.MustGet(envvar.NOTIFICATIONS_QUEUE_NAME),
			CORSAllowedOrigins:     allowedOrigins,
			UserValidator:          jwt.NewValidator(envvar.MustGet(envvar.JWT_SECRET)),
			Port:                   ":5000",
			Log:                    true,
		}

	case env.Development:
		if err := godotenv.Load(); err != nil {
			log.WithError(err).Warn("No .env file loaded")
		}

		appConfig = application.Config{
			DynamoConfig: dev.DynamoConfig,
			StorageConfig: config.S3Storage{
				AccessKeyID:     dev.DynamoAccessKeyID,
				SecretAccessKey: dev.DynamoSecretAccessKey,
				Region:          dev.DynamoDBRegion,
				UploadBucket:    dev.UploadBucket,
				OutputBucket:    dev.OutputBucket,
			},
			RabbitMQURL:            dev.RabbitMQHost,
			JobsQueueName:          dev.JobsQueueName,
			NotificationsQueueName: dev.NotificationsQueueName,
			CORSAllowedOrigins:     []string{"*"},
			UserValidator:          jwt.NewValidator(envvar.MustGet(envvar.JWT_SECRET)),
			Port:                   ":5000",
			Log:                    true,
		}

	default:
		panic("Unexpected environment")
	}

	app := application.NewApp(appConfig)
	if err := app.Start(); err != nil {
		panic(err)
	}
}

package main

import (
	"path"

	"github.com/apex/log"
	"github.com/joho/godotenv"
	"github.com/unplugd-audio/unplugd-be/src/shared/config"
	"github.com/unplugd-audio/unplugd-be/src/shared/config/dev"
	"github.com/unplugd-audio/unplugd-be/src/shared/config/envvar"
	"github.com/unplugd-audio/unplugd-be/src/shared/config/local"
	"github.com/unplugd-audio/unplugd-be/src/shared/config/prod"
	"github.com/unplugd-audio/unplugd-be/src/shared/lib/env"
	"github.com/unplugd-audio/unplugd-be/src/worker/application"
)

func main() {
	var appConfig application.Config

	switch env.Get() {
	case env.Production:
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
			FFProbeBinPath:         envvar.MustGet(envvar.FFPROBE_BIN_PATH),
			DemucsBinPath:          envvar.MustGet(envvar.DEMUCS_BIN_PATH),
			DemucsWorkingDirPath:   envvar.MustGet(envvar.DEMUCS_WORKING_DIR_PATH),
			WhisperBinPath:         envvar.MustGet(envvar.WHISPER_BIN_PATH),
			WhisperWorkingDirPath:  envvar.MustGet(envvar.WHISPER_WORKING_DIR_PATH),
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
			FFProbeBinPath:         envvar.MustGet(envvar.FFPROBE_BIN_PATH),
			DemucsBinPath:          envvar.MustGet(envvar.DEMUCS_BIN_PATH),
			DemucsWorkingDirPath:   path.Join(local.ProjectRoot(), "/src/worker/wd/demucs"),
			WhisperBinPath:         envvar.MustGet(envvar.WHISPER_BIN_PATH),
			WhisperWorkingDirPath:  path.Join(local.ProjectRoot(), "/src/worker/wd/whisper"),
		}

	default:
		panic("Unexpected environment")
	}

	app := application.NewApp(appConfig)
	if err := app.Start(); err != nil {
		panic(err)
	}
}

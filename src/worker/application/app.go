package application

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/guregu/dynamo"
	"github.com/rabbitmq/amqp091-go"
	"github.com/unplugd-audio/unplugd-be/src/shared/blobstore"
	"github.com/unplugd-audio/unplugd-be/src/shared/config"
	dynamolib "github.com/unplugd-audio/unplugd-be/src/shared/lib/dynamo"
	"github.com/unplugd-audio/unplugd-be/src/shared/lib/rabbitmq"
	"github.com/unplugd-audio/unplugd-be/src/shared/notify"
	songstorage "github.com/unplugd-audio/unplugd-be/src/shared/song/storage"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/executor"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/jobs/job_router"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/jobs/process"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/pipeline"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/separation/demucs"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/transcription/whisper"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/validation"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/validation/probe"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/lib/cerr"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/lib/working_dir"
)

func must[T any](t T, err error) T {
	if err != nil {
		panic(err)
	}

	return t
}

type App struct {
	consumer rabbitmq.QueueConsumer
}

type Config struct {
	DynamoConfig  config.Dynamo
	StorageConfig config.Storage

	RabbitMQURL            string
	JobsQueueName          string
	NotificationsQueueName string

	FFProbeBinPath string

	DemucsBinPath        string
	DemucsWorkingDirPath string

	WhisperBinPath        string
	WhisperWorkingDirPath string
}

func NewApp(config Config) App {
	consumerConn := must(amqp091.Dial(config.RabbitMQURL))

	return App{
		consumer: newConsumer(config, consumerConn),
	}
}

func (a *App) Start() error {
	err := a.consumer.Start()
	if err != nil {
		return cerr.Wrap(err).Error("Failed to start worker")
	}

	return nil
}

func (a *App) Stop() {
	a.consumer.Stop()
}

func newConsumer(config Config, consumerConn *amqp091.Connection) rabbitmq.QueueConsumer {
	songPipeline := newPipeline(config)
	processHandler := process.NewJobHandler(songPipeline)
	jobRouter := job_router.NewJobRouter(processHandler)

	return must(rabbitmq.NewQueueConsumerFromConnection(
		consumerConn,
		config.JobsQueueName,
		jobRouter))
}

func newPipeline(config Config) pipeline.Pipeline {
	songStore := songstorage.NewDB(newDynamoDB(config.DynamoConfig))
	uploadStore, outputStore := newBlobStores(config.StorageConfig)
	notifier := newNotifier(config)

	demucsWorkingDir := must(working_dir.NewWorkingDir(config.DemucsWorkingDirPath))
	whisperWorkingDir := must(working_dir.NewWorkingDir(config.WhisperWorkingDirPath))

	// validation scratch shares the demucs dir, both stages pull down
	// the same upload
	validator := validation.NewValidator(
		uploadStore,
		probe.NewFFProbe(config.FFProbeBinPath, executor.BinaryFileExecutor{}),
		demucsWorkingDir,
	)

	separator := demucs.NewSeparator(
		uploadStore,
		outputStore,
		notifier,
		config.DemucsBinPath,
		demucsWorkingDir,
		executor.BinaryFileExecutor{},
	)

	transcriber := whisper.NewTranscriber(
		outputStore,
		notifier,
		config.WhisperBinPath,
		whisperWorkingDir,
		executor.BinaryFileExecutor{},
	)

	return pipeline.NewPipeline(
		songStore,
		uploadStore,
		outputStore,
		validator,
		separator,
		transcriber,
		notifier,
		pipeline.DefaultRetryPolicy(),
	)
}

func newNotifier(config Config) notify.QueueSender {
	publisher := must(rabbitmq.NewQueuePublisher(config.RabbitMQURL, config.NotificationsQueueName))
	return notify.NewQueueSender(publisher)
}

func newDynamoDB(dynamoConfig config.Dynamo) dynamolib.DynamoDBWrapper {
	dbSession := session.Must(session.NewSession())

	var dbConfig *aws.Config

	switch t := dynamoConfig.(type) {
	case config.ProdDynamo:
		dbConfig = aws.NewConfig().
			WithCredentials(credentials.NewStaticCredentials(
				t.AccessKeyID,
				t.SecretAccessKey,
				"",
			)).
			WithRegion(t.Region)

	case config.LocalDynamo:
		dbConfig = aws.NewConfig().
			WithCredentials(credentials.NewStaticCredentials(
				t.AccessKeyID,
				t.SecretAccessKey,
				"",
			)).
			WithRegion(t.Region).
			WithEndpoint(t.Host)

	default:
		panic("Unexpected dynamo config type")
	}

	db := dynamo.New(dbSession, dbConfig)
	return dynamolib.NewDynamoDBWrapper(db)
}

func newBlobStores(storageConfig config.Storage) (blobstore.Store, blobstore.Store) {
	switch t := storageConfig.(type) {
	case config.S3Storage:
		awsSession := session.Must(session.NewSession())
		awsConfig := aws.NewConfig().
			WithCredentials(credentials.NewStaticCredentials(
				t.AccessKeyID,
				t.SecretAccessKey,
				"",
			)).
			WithRegion(t.Region)

		return blobstore.NewS3Store(awsSession, awsConfig, t.UploadBucket),
			blobstore.NewS3Store(awsSession, awsConfig, t.OutputBucket)

	case config.GoogleStorage:
		uploadStore := must(blobstore.NewGoogleStore(context.Background(), t.JSONKey, t.UploadBucket))
		outputStore := must(blobstore.NewGoogleStore(context.Background(), t.JSONKey, t.OutputBucket))

		return uploadStore, outputStore

	default:
		panic("Unexpected storage config type")
	}
}

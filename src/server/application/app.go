package application

import (
	"context"
	"net/http"

	"github.com/apex/log"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cockroachdb/errors"
	"github.com/guregu/dynamo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rabbitmq/amqp091-go"
	"github.com/unplugd-audio/unplugd-be/src/server/auth"
	authusecase "github.com/unplugd-audio/unplugd-be/src/server/internal/auth"
	connectionstorage "github.com/unplugd-audio/unplugd-be/src/server/internal/connection/storage"
	"github.com/unplugd-audio/unplugd-be/src/server/internal/notify/fanout"
	"github.com/unplugd-audio/unplugd-be/src/server/internal/notify/listener"
	"github.com/unplugd-audio/unplugd-be/src/server/internal/realtime"
	songgateway "github.com/unplugd-audio/unplugd-be/src/server/internal/song/gateway"
	songusecase "github.com/unplugd-audio/unplugd-be/src/server/internal/song/usecase"
	"github.com/unplugd-audio/unplugd-be/src/shared/blobstore"
	"github.com/unplugd-audio/unplugd-be/src/shared/config"
	dynamolib "github.com/unplugd-audio/unplugd-be/src/shared/lib/dynamo"
	"github.com/unplugd-audio/unplugd-be/src/shared/lib/rabbitmq"
	songstorage "github.com/unplugd-audio/unplugd-be/src/shared/song/storage"
)

type HTTPMethod string

const (
	GET    HTTPMethod = "GET"
	POST   HTTPMethod = "POST"
	DELETE HTTPMethod = "DELETE"
)

type App struct {
	echo     *echo.Echo
	consumer rabbitmq.QueueConsumer
	port     string
}

type Config struct {
	DynamoConfig           config.Dynamo
	StorageConfig          config.Storage
	RabbitMQURL            string
	JobsQueueName          string
	NotificationsQueueName string
	CORSAllowedOrigins     []string
	UserValidator          auth.Validator
	Port                   string
	Log                    bool
}

func NewApp(config Config) App {
	e := echo.New()

	if config.Log {
		e.Use(middleware.Logger())
	}

	corsMiddleware := makeCorsMiddleware(config)

	handleRoute := func(method HTTPMethod, path string, handlerFunc echo.HandlerFunc) {
		params := func() (string, echo.HandlerFunc, echo.MiddlewareFunc) {
			return path, handlerFunc, corsMiddleware
		}

		e.OPTIONS(params())

		switch method {
		case GET:
			e.GET(params())
		case POST:
			e.POST(params())
		case DELETE:
			e.DELETE(params())
		default:
			panic("unhandled http method!")
		}
	}

	dynamoDB := makeDynamoDB(config.DynamoConfig)
	uploadStore, outputStore := makeBlobStores(config.StorageConfig)

	authUsecase := authusecase.NewUsecase(config.UserValidator)
	songGateway := makeSongGateway(config, dynamoDB, uploadStore, outputStore, authUsecase)

	hub := realtime.NewHub()
	connectionDB := connectionstorage.NewDB(dynamoDB)
	realtimeGateway := realtime.NewGateway(hub, connectionDB, authUsecase)
	notificationConsumer := makeNotificationConsumer(config, connectionDB, hub)

	// health check
	handleRoute(GET, "/health-check", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// song routes
	handleRoute(POST, "/songs/upload-url", songGateway.CreateUpload)
	handleRoute(GET, "/songs", songGateway.GetSongs)
	handleRoute(GET, "/songs/:id", func(c echo.Context) error {
		songID := c.Param("id")
		return songGateway.GetSong(c, songID)
	})
	handleRoute(POST, "/songs/:id/process", func(c echo.Context) error {
		songID := c.Param("id")
		return songGateway.Process(c, songID)
	})
	handleRoute(DELETE, "/songs/:id", func(c echo.Context) error {
		songID := c.Param("id")
		return songGateway.DeleteSong(c, songID)
	})

	// preset route
	handleRoute(GET, "/presets", songGateway.GetPresets)

	// websocket route
	handleRoute(GET, "/ws", realtimeGateway.Connect)

	return App{
		echo:     e,
		consumer: notificationConsumer,
		port:     config.Port,
	}
}

func (a *App) Start() error {
	go func() {
		if err := a.consumer.Start(); err != nil {
			log.WithError(err).Error("Notification consumer stopped with an error")
		}
	}()

	err := a.echo.Start(a.port)
	if err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "Couldn't start echo server")
	}

	return nil
}

func (a *App) Stop() error {
	a.consumer.Stop()

	err := a.echo.Close()
	if err != nil {
		return errors.Wrap(err, "Failed to stop echo server")
	}

	return nil
}

func makeRabbitMQPublisher(config Config) *rabbitmq.QueuePublisher {
	publisher, err := rabbitmq.NewQueuePublisher(config.RabbitMQURL, config.JobsQueueName)
	if err != nil {
		panic(errors.Wrap(err, "Failed to create rabbitMQ publisher"))
	}

	return publisher
}

func makeNotificationConsumer(config Config, connectionDB connectionstorage.DB, hub *realtime.Hub) rabbitmq.QueueConsumer {
	conn, err := amqp091.Dial(config.RabbitMQURL)
	if err != nil {
		panic(errors.Wrap(err, "Failed to dial rabbitMQ url"))
	}

	notificationFanout := fanout.NewFanout(connectionDB, hub)
	notificationListener := listener.NewListener(notificationFanout)

	consumer, err := rabbitmq.NewQueueConsumerFromConnection(conn, config.NotificationsQueueName, notificationListener)
	if err != nil {
		panic(errors.Wrap(err, "Failed to create notifications consumer"))
	}

	return consumer
}

func makeDynamoDB(dynamoConfig config.Dynamo) dynamolib.DynamoDBWrapper {
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

func makeBlobStores(storageConfig config.Storage) (blobstore.Store, blobstore.Store) {
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
		uploadStore, err := blobstore.NewGoogleStore(context.Background(), t.JSONKey, t.UploadBucket)
		if err != nil {
			panic(errors.Wrap(err, "Failed to create Google upload store"))
		}

		outputStore, err := blobstore.NewGoogleStore(context.Background(), t.JSONKey, t.OutputBucket)
		if err != nil {
			panic(errors.Wrap(err, "Failed to create Google output store"))
		}

		return uploadStore, outputStore

	default:
		panic("Unexpected storage config type")
	}
}

func makeSongGateway(
	config Config,
	dynamoDB dynamolib.DynamoDBWrapper,
	uploadStore blobstore.Store,
	outputStore blobstore.Store,
	authUsecase authusecase.Usecase,
) songgateway.Gateway {
	songDB := songstorage.NewDB(dynamoDB)
	publisher := makeRabbitMQPublisher(config)
	songUsecase := songusecase.NewUsecase(songDB, uploadStore, outputStore, publisher, authUsecase)
	return songgateway.NewGateway(songUsecase)
}

func makeCorsMiddleware(config Config) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: config.CORSAllowedOrigins,
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	})
}

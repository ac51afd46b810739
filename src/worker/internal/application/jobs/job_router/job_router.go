package job_router

import (
	"context"

	"github.com/rabbitmq/amqp091-go"
	"github.com/unplugd-audio/unplugd-be/src/shared/lib/rabbitmq"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/application/jobs/process"
	"github.com/unplugd-audio/unplugd-be/src/worker/internal/lib/cerr"
)

var _ rabbitmq.MessageHandler = JobRouter{}

// JobRouter dispatches deliveries from the jobs queue by message type.
type JobRouter struct {
	processHandler process.ProcessJobHandler
}

func NewJobRouter(processHandler process.ProcessJobHandler) JobRouter {
	return JobRouter{
		processHandler: processHandler,
	}
}

func (j JobRouter) HandleMessage(message amqp091.Delivery) error {
	switch message.Type {
	case process.JobType:
		return j.processHandler.HandleProcessJob(context.Background(), message.Body)

	default:
		return cerr.Field("message_type", message.Type).
			Error("Unrecognized message type")
	}
}

package prod

const (
	DynamoDBRegion = "us-east-1"
	S3Region       = "us-east-1"
)

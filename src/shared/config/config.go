package config

type Dynamo interface {
	DynamoConfig()
}

var _ Dynamo = ProdDynamo{}

type ProdDynamo struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

func (p ProdDynamo) DynamoConfig() {}

var _ Dynamo = LocalDynamo{}

type LocalDynamo struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Host            string
}

func (l LocalDynamo) DynamoConfig() {}

// Storage selects the blob store backend that holds uploads and
// pipeline outputs. S3 is the default; Google is kept as an
// alternative backend for deployments outside AWS.
type Storage interface {
	StorageConfig()
}

var _ Storage = S3Storage{}

type S3Storage struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	UploadBucket    string
	OutputBucket    string
}

func (s S3Storage) StorageConfig() {}

var _ Storage = GoogleStorage{}

type GoogleStorage struct {
	JSONKey      string
	UploadBucket string
	OutputBucket string
}

func (g GoogleStorage) StorageConfig() {}

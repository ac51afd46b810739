package dynamolib

import (
	"github.com/guregu/dynamo"
)

// DynamoDBWrapper is the single construction seam for DynamoDB access.
// All storage packages take this instead of *dynamo.DB so tests and
// app wiring hand out the same handle.
func NewDynamoDBWrapper(db *dynamo.DB) DynamoDBWrapper {
	return DynamoDBWrapper{DB: db}
}

type DynamoDBWrapper struct {
	*dynamo.DB
}

func (d DynamoDBWrapper) Table(tableName string) dynamo.Table {
	return d.DB.Table(tableName)
}

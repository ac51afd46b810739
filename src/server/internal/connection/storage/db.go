package connectionstorage

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	connectionentity "github.com/unplugd-audio/unplugd-be/src/server/internal/connection/entity"
	dynamolib "github.com/unplugd-audio/unplugd-be/src/shared/lib/dynamo"
)

const (
	ConnectionsTable = "Connections"

	ownerKey      = "userId"
	connectionKey = "connectionId"
)

type dbConnection struct {
	OwnerID      string    `dynamo:"userId,hash"`
	ConnectionID string    `dynamo:"connectionId,range"`
	ConnectedAt  time.Time `dynamo:"connectedAt"`

	// epoch seconds for the DynamoDB TTL attribute
	ExpiresAt int64 `dynamo:"ttl"`
}

func toDBConnection(connection connectionentity.Connection) dbConnection {
	return dbConnection{
		OwnerID:      connection.OwnerID,
		ConnectionID: connection.ConnectionID,
		ConnectedAt:  connection.ConnectedAt,
		ExpiresAt:    connection.ExpiresAt.Unix(),
	}
}

func (d dbConnection) toEntity() connectionentity.Connection {
	return connectionentity.Connection{
		OwnerID:      d.OwnerID,
		ConnectionID: d.ConnectionID,
		ConnectedAt:  d.ConnectedAt,
		ExpiresAt:    time.Unix(d.ExpiresAt, 0),
	}
}

var _ connectionentity.Store = DB{}

type DB struct {
	dynamoDB dynamolib.DynamoDBWrapper
}

func NewDB(dynamoDB dynamolib.DynamoDBWrapper) DB {
	return DB{
		dynamoDB: dynamoDB,
	}
}

func (d DB) CreateConnection(ctx context.Context, connection connectionentity.Connection) error {
	err := d.dynamoDB.Table(ConnectionsTable).
		Put(toDBConnection(connection)).
		RunWithContext(ctx)

	if err != nil {
		return errors.Wrap(err, "Failed to put connection into DB")
	}

	return nil
}

func (d DB) DeleteConnection(ctx context.Context, ownerID string, connectionID string) error {
	err := d.dynamoDB.Table(ConnectionsTable).
		Delete(ownerKey, ownerID).
		Range(connectionKey, connectionID).
		RunWithContext(ctx)

	if err != nil {
		return errors.Wrap(err, "Failed to delete connection from DB")
	}

	return nil
}

func (d DB) GetConnectionsForOwner(ctx context.Context, ownerID string) ([]connectionentity.Connection, error) {
	values := []dbConnection{}
	err := d.dynamoDB.Table(ConnectionsTable).
		Get(ownerKey, ownerID).
		AllWithContext(ctx, &values)

	if err != nil {
		return nil, errors.Wrap(err, "Failed to fetch connections for owner ID")
	}

	connections := []connectionentity.Connection{}
	for _, value := range values {
		connections = append(connections, value.toEntity())
	}

	return connections, nil
}

package testing

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/guregu/dynamo"
	. "github.com/onsi/gomega"
	"github.com/unplugd-audio/unplugd-be/src/shared/config/dev"
	dynamolib "github.com/unplugd-audio/unplugd-be/src/shared/lib/dynamo"
)

const (
	SongsTable       = "Songs"
	ConnectionsTable = "Connections"
)

type song struct {
	OwnerID string `dynamo:"userId,hash" index:"StatusIndex,hash"`
	SongID  string `dynamo:"songId,range"`
	Status  string `dynamo:"status" index:"StatusIndex,range"`
}

type connection struct {
	OwnerID      string `dynamo:"userId,hash"`
	ConnectionID string `dynamo:"connectionId,range"`
}

func MakeTestDB(testRegion string) dynamolib.DynamoDBWrapper {
	dbSession := session.Must(session.NewSession())

	config := aws.NewConfig().
		WithCredentials(credentials.NewStaticCredentials(dev.DynamoAccessKeyID, dev.DynamoSecretAccessKey, "")).
		WithEndpoint(dev.DynamoDBHost).
		WithRegion(testRegion)

	db := dynamo.New(dbSession, config)
	return dynamolib.NewDynamoDBWrapper(db)
}

func ResetDB(db dynamolib.DynamoDBWrapper) {
	DeleteAllTables(db)
	CreateAllTables(db)
}

func BeforeSuiteDB(testRegion string) dynamolib.DynamoDBWrapper {
	db := MakeTestDB(testRegion)
	DeleteAllTables(db)
	return db
}

func AfterSuiteDB(db dynamolib.DynamoDBWrapper) {
	DeleteAllTables(db)
}

func CreateAllTables(db dynamolib.DynamoDBWrapper) {
	err := db.CreateTable(SongsTable, song{}).Run()
	ExpectWithOffset(1, err).NotTo(HaveOccurred())

	err = db.CreateTable(ConnectionsTable, connection{}).Run()
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
}

func DeleteAllTables(db dynamolib.DynamoDBWrapper) {
	tableResults := db.ListTables()
	tableNames := ExpectSuccess(tableResults.All())

	for _, tableName := range tableNames {
		err := db.Table(tableName).DeleteTable().Run()
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
	}
}

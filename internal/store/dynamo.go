package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client used by the store.
// Satisfied by *dynamodb.Client.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Dynamo is a DynamoDB-backed token store. Records are keyed by a
// CLIENT#<hash> partition key and the scope descriptor as the sort key. The
// numeric expires_at attribute doubles as the table's TTL attribute, so
// expired records are purged by DynamoDB itself; the read path still checks
// expiry explicitly and never relies on the purge having happened.
type Dynamo struct {
	client DynamoAPI
	table  string
	now    func() time.Time
}

// NewDynamo creates a token store persisting to the named DynamoDB table.
func NewDynamo(client DynamoAPI, table string) *Dynamo {
	return &Dynamo{
		client: client,
		table:  table,
		now:    time.Now,
	}
}

// dynamoRecord is the persisted item shape. The pk/sk attributes wrap the
// Record attributes so the Record type itself stays backend-neutral.
type dynamoRecord struct {
	PK string `dynamodbav:"pk"`
	SK string `dynamodbav:"sk"`
	Record
}

func partitionKey(key Key) string {
	return "CLIENT#" + key.ClientHash
}

// Lookup retrieves an unexpired record from the table.
func (d *Dynamo) Lookup(ctx context.Context, key Key) (Record, bool, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: partitionKey(key)},
			"sk": &types.AttributeValueMemberS{Value: key.ScopeKey},
		},
	})
	if err != nil {
		return Record{}, false, fmt.Errorf("token table get failed: %w", err)
	}

	if out.Item == nil {
		return Record{}, false, nil
	}

	var item dynamoRecord
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return Record{}, false, fmt.Errorf("token record unmarshal failed: %w", err)
	}

	if item.Record.Expired(d.now()) {
		return Record{}, false, nil
	}

	return item.Record, true, nil
}

// Upsert persists a record, overwriting any existing item under the key.
func (d *Dynamo) Upsert(ctx context.Context, key Key, record Record) error {
	item, err := attributevalue.MarshalMap(dynamoRecord{
		PK:     partitionKey(key),
		SK:     key.ScopeKey,
		Record: record,
	})
	if err != nil {
		return fmt.Errorf("token record marshal failed: %w", err)
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("token table put failed: %w", err)
	}

	return nil
}

// Close is a no-op: the DynamoDB client holds no per-store resources.
func (d *Dynamo) Close() error {
	return nil
}

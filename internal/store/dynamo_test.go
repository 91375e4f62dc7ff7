package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo is an in-memory DynamoAPI capturing requests.
type fakeDynamo struct {
	items map[string]map[string]types.AttributeValue

	getErr   error
	putErr   error
	lastGet  *dynamodb.GetItemInput
	lastPut  *dynamodb.PutItemInput
	getCalls int
	putCalls int
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{
		items: map[string]map[string]types.AttributeValue{},
	}
}

func itemKey(attrs map[string]types.AttributeValue) string {
	pk := attrs["pk"].(*types.AttributeValueMemberS).Value
	sk := attrs["sk"].(*types.AttributeValueMemberS).Value
	return pk + "|" + sk
}

func (f *fakeDynamo) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.getCalls++
	f.lastGet = params
	if f.getErr != nil {
		return nil, f.getErr
	}

	item, ok := f.items[itemKey(params.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.putCalls++
	f.lastPut = params
	if f.putErr != nil {
		return nil, f.putErr
	}

	f.items[itemKey(params.Item)] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func dynamoAt(t *testing.T, client DynamoAPI, now time.Time) *Dynamo {
	t.Helper()
	d := NewDynamo(client, "token-cache")
	d.now = func() time.Time { return now }
	return d
}

func TestDynamoUpsert_ItemShape(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	fake := newFakeDynamo()
	d := dynamoAt(t, fake, now)

	key := NewKey("abc123", []string{"orders/read", "orders/write"})
	require.NoError(t, d.Upsert(ctx, key, NewRecord("tok", "Bearer", 3600, now)))

	require.NotNil(t, fake.lastPut)
	assert.Equal(t, "token-cache", *fake.lastPut.TableName)

	item := fake.lastPut.Item
	assert.Equal(t, "CLIENT#abc123", item["pk"].(*types.AttributeValueMemberS).Value)
	assert.Equal(t, "orders/read orders/write", item["sk"].(*types.AttributeValueMemberS).Value)
	assert.Equal(t, "tok", item["access_token"].(*types.AttributeValueMemberS).Value)
	assert.Equal(t, "Bearer", item["token_type"].(*types.AttributeValueMemberS).Value)
	assert.Equal(t, "3600", item["expires_in"].(*types.AttributeValueMemberN).Value)
	assert.Equal(t, "1700003540", item["expires_at"].(*types.AttributeValueMemberN).Value)
}

func TestDynamoLookup_RoundTrip(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	fake := newFakeDynamo()
	d := dynamoAt(t, fake, now)

	key := NewKey("abc123", nil)
	record := NewRecord("tok", "Bearer", 3600, now)
	require.NoError(t, d.Upsert(ctx, key, record))

	got, found, err := d.Lookup(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, record, got)

	// the sentinel sort key is used for scope-less requests
	assert.Equal(t, ScopeKeyNone, fake.lastGet.Key["sk"].(*types.AttributeValueMemberS).Value)
}

func TestDynamoLookup_Missing(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	d := NewDynamo(fake, "token-cache")

	_, found, err := d.Lookup(ctx, NewKey("absent", nil))
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestDynamoLookup_ExpiredIsAbsent(t *testing.T) {
	ctx := context.Background()
	issuedAt := time.Unix(1_700_000_000, 0)
	fake := newFakeDynamo()
	d := dynamoAt(t, fake, issuedAt)

	key := NewKey("abc123", nil)
	require.NoError(t, d.Upsert(ctx, key, NewRecord("tok", "Bearer", 3600, issuedAt)))

	d.now = func() time.Time { return issuedAt.Add(3540 * time.Second) }

	_, found, err := d.Lookup(ctx, key)
	assert.NoError(t, err)
	assert.False(t, found, "an expired record is treated identically to a missing one")
}

func TestDynamoLookup_ErrorPropagates(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	fake.getErr = errors.New("provisioned throughput exceeded")
	d := NewDynamo(fake, "token-cache")

	_, _, err := d.Lookup(ctx, NewKey("abc123", nil))
	assert.ErrorContains(t, err, "token table get failed")
}

func TestDynamoUpsert_ErrorPropagates(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	fake.putErr = errors.New("connection reset")
	d := NewDynamo(fake, "token-cache")

	err := d.Upsert(ctx, NewKey("abc123", nil), NewRecord("tok", "Bearer", 3600, time.Now()))
	assert.ErrorContains(t, err, "token table put failed")
}

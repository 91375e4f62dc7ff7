package order

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/supremecars/token-bridge/internal/store"
)

// DynamoStore persists orders to a DynamoDB table.
type DynamoStore struct {
	client store.DynamoAPI
	table  string
}

// NewDynamoStore creates an order store persisting to the named table.
func NewDynamoStore(client store.DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{
		client: client,
		table:  table,
	}
}

// Put writes the order item, overwriting any existing item with the same key.
func (d *DynamoStore) Put(ctx context.Context, order Order) error {
	item, err := attributevalue.MarshalMap(order)
	if err != nil {
		return fmt.Errorf("order marshal failed: %w", err)
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("order table put failed: %w", err)
	}

	return nil
}

// MemoryStore holds orders in process memory. Development and tests only.
type MemoryStore struct {
	mu     sync.Mutex
	orders map[string]Order
}

// NewMemoryStore creates an empty in-memory order store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: make(map[string]Order),
	}
}

// Put stores the order by identifier.
func (m *MemoryStore) Put(ctx context.Context, order Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
	return nil
}

// Get retrieves a stored order by identifier.
func (m *MemoryStore) Get(id string) (Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	return order, ok
}

// Package order implements the vehicle order workflow: validate, assign an
// identifier, persist.
package order

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CreateOrder is the caller-supplied order request.
type CreateOrder struct {
	BranchID   string   `json:"branchId"`
	CarModelID string   `json:"carModelId"`
	Quantity   int      `json:"quantity"`
	Color      string   `json:"color,omitempty"`
	TrimLevel  string   `json:"trimLevel,omitempty"`
	Options    []string `json:"options,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

// Order is a persisted order record.
type Order struct {
	ID         string   `json:"id" dynamodbav:"id"`
	PK         string   `json:"pk" dynamodbav:"pk"`
	SK         string   `json:"sk" dynamodbav:"sk"`
	Created    string   `json:"created" dynamodbav:"created"`
	Updated    string   `json:"updated" dynamodbav:"updated"`
	BranchID   string   `json:"branchId" dynamodbav:"branchId"`
	CarModelID string   `json:"carModelId" dynamodbav:"carModelId"`
	Quantity   int      `json:"quantity" dynamodbav:"quantity"`
	Color      string   `json:"color,omitempty" dynamodbav:"color,omitempty"`
	TrimLevel  string   `json:"trimLevel,omitempty" dynamodbav:"trimLevel,omitempty"`
	Options    []string `json:"options,omitempty" dynamodbav:"options,omitempty"`
	Notes      string   `json:"notes,omitempty" dynamodbav:"notes,omitempty"`
	Status     string   `json:"status" dynamodbav:"status"`
}

// ValidationError reports an order request that failed schema validation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Status implements the handler error mapping.
func (e *ValidationError) Status() (int, string) {
	return http.StatusBadRequest, e.Message
}

// Store persists order records.
type Store interface {
	Put(ctx context.Context, order Order) error
}

// CreateFunc is the order creation contract exposed to the HTTP layer.
// Satisfied by (*Service).Create.
type CreateFunc func(ctx context.Context, req CreateOrder) (Order, error)

// Service creates and persists orders.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates an order service over the given store.
func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

// Create validates the request, assigns an identifier and timestamps, and
// persists the new order in "pending" status.
func (s *Service) Create(ctx context.Context, req CreateOrder) (Order, error) {
	created := s.now().UTC().Format(time.RFC3339)
	id := uuid.NewString()

	order := Order{
		ID:         id,
		PK:         "ORDER#" + id,
		SK:         "ORDER#" + id,
		Created:    created,
		Updated:    created,
		BranchID:   req.BranchID,
		CarModelID: req.CarModelID,
		Quantity:   req.Quantity,
		Color:      req.Color,
		TrimLevel:  req.TrimLevel,
		Options:    req.Options,
		Notes:      req.Notes,
		Status:     "pending",
	}

	if err := validateOrder(order); err != nil {
		return Order{}, err
	}

	if err := s.store.Put(ctx, order); err != nil {
		return Order{}, fmt.Errorf("could not persist order: %w", err)
	}

	log.Ctx(ctx).Info().
		Str("order", order.ID).
		Str("branch", order.BranchID).
		Msg("order created")

	return order, nil
}

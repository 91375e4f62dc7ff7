package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	err  error
	last Order
	puts int
}

func (s *stubStore) Put(ctx context.Context, order Order) error {
	s.puts++
	s.last = order
	return s.err
}

func serviceAt(store Store, now time.Time) *Service {
	svc := NewService(store)
	svc.now = func() time.Time { return now }
	return svc
}

func TestCreate_AssignsIdentityAndStatus(t *testing.T) {
	st := &stubStore{}
	svc := serviceAt(st, time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC))

	order, err := svc.Create(context.Background(), CreateOrder{
		BranchID:   "branch-17",
		CarModelID: "model-s",
		Quantity:   2,
		Color:      "midnight blue",
		Options:    []string{"tow hitch"},
	})
	require.NoError(t, err)

	_, parseErr := uuid.Parse(order.ID)
	require.NoError(t, parseErr, "order id must be a UUID")

	assert.Equal(t, "ORDER#"+order.ID, order.PK)
	assert.Equal(t, "ORDER#"+order.ID, order.SK)
	assert.Equal(t, "2024-05-10T09:30:00Z", order.Created)
	assert.Equal(t, order.Created, order.Updated)
	assert.Equal(t, "pending", order.Status)

	assert.Equal(t, 1, st.puts)
	assert.Equal(t, order, st.last)
}

func TestCreate_RejectsInvalidQuantity(t *testing.T) {
	st := &stubStore{}
	svc := serviceAt(st, time.Now())

	_, err := svc.Create(context.Background(), CreateOrder{
		BranchID:   "branch-17",
		CarModelID: "model-s",
		Quantity:   0,
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	status, _ := validationErr.Status()
	assert.Equal(t, 400, status)

	assert.Zero(t, st.puts, "invalid order must not reach the store")
}

func TestCreate_RejectsMissingBranch(t *testing.T) {
	st := &stubStore{}
	svc := serviceAt(st, time.Now())

	_, err := svc.Create(context.Background(), CreateOrder{
		CarModelID: "model-s",
		Quantity:   1,
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Zero(t, st.puts)
}

func TestCreate_PropagatesStoreFailure(t *testing.T) {
	st := &stubStore{err: errors.New("table missing")}
	svc := serviceAt(st, time.Now())

	_, err := svc.Create(context.Background(), CreateOrder{
		BranchID:   "branch-17",
		CarModelID: "model-s",
		Quantity:   1,
	})

	require.ErrorContains(t, err, "could not persist order")
	assert.NotErrorAs(t, err, new(*ValidationError))
}

func TestMemoryStore_PutAndGet(t *testing.T) {
	st := NewMemoryStore()

	order := Order{ID: "abc", PK: "ORDER#abc", SK: "ORDER#abc", Status: "pending"}
	require.NoError(t, st.Put(context.Background(), order))

	got, ok := st.Get("abc")
	require.True(t, ok)
	assert.Equal(t, order, got)

	_, ok = st.Get("missing")
	assert.False(t, ok)
}

package accounting

import (
	"context"
	"fmt"
	"testing"

	"github.com/commercekit/checkout/internal/module/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepository struct {
	entries map[string]*Entry
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{entries: make(map[string]*Entry)}
}

func (f *fakeRepository) Create(ctx context.Context, entry *Entry) error {
	if _, ok := f.entries[entry.CorrelationKey]; ok {
		return fmt.Errorf("%w: %s", ErrEntryExists, entry.CorrelationKey)
	}
	f.entries[entry.CorrelationKey] = entry
	return nil
}

func (f *fakeRepository) GetByCorrelationKey(ctx context.Context, key string) (*Entry, error) {
	return f.entries[key], nil
}

func paidOrder() *order.Order {
	return &order.Order{
		ID: uuid.New(),
		Items: []order.OrderItem{
			{
				ID:         uuid.New(),
				ProductID:  "prod-1",
				MerchantID: "merchant-1",
				Quantity:   2,
				PriceNet:   decimal.NewFromInt(20),
				PriceVat:   decimal.NewFromInt(4),
				PriceGross: decimal.NewFromInt(24),
			},
			{
				ID:         uuid.New(),
				ProductID:  "prod-2",
				MerchantID: "merchant-1",
				Quantity:   1,
				PriceNet:   decimal.NewFromInt(5),
				PriceVat:   decimal.NewFromInt(1),
				PriceGross: decimal.NewFromInt(6),
			},
		},
	}
}

func TestGuardCreateForOrder(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	guard := NewGuard(repo, zap.NewNop())
	o := paidOrder()

	require.NoError(t, guard.CreateForOrder(ctx, o))

	entry := repo.entries[OrderKey(o.ID)]
	require.NotNil(t, entry)
	assert.Equal(t, o.ID, entry.OrderID)
	assert.Nil(t, entry.RefundID)
	assert.Len(t, entry.Lines, 2)

	t.Run("second creation reports the duplicate", func(t *testing.T) {
		err := guard.CreateForOrder(ctx, o)
		assert.ErrorIs(t, err, ErrEntryExists)
		assert.Len(t, repo.entries, 1)
	})
}

func TestGuardCreateForRefund(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	guard := NewGuard(repo, zap.NewNop())

	refundID := uuid.New()
	orderID := uuid.New()
	lines := []Line{{
		ProductID:  "prod-1",
		MerchantID: "merchant-1",
		Quantity:   1,
		PriceNet:   decimal.NewFromInt(-10),
		PriceVat:   decimal.NewFromInt(-2),
		PriceGross: decimal.NewFromInt(-12),
	}}

	require.NoError(t, guard.CreateForRefund(ctx, refundID, orderID, lines))

	entry := repo.entries[RefundKey(refundID)]
	require.NotNil(t, entry)
	require.NotNil(t, entry.RefundID)
	assert.Equal(t, refundID, *entry.RefundID)
	assert.Equal(t, orderID, entry.OrderID)

	t.Run("replayed settlement is deduplicated", func(t *testing.T) {
		err := guard.CreateForRefund(ctx, refundID, orderID, lines)
		assert.ErrorIs(t, err, ErrEntryExists)
	})

	t.Run("order and refund keys never collide", func(t *testing.T) {
		id := uuid.New()
		assert.NotEqual(t, OrderKey(id), RefundKey(id))
	})
}

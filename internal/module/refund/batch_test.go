package refund

import (
	"context"
	"sync"
	"testing"

	"github.com/commercekit/checkout/internal/module/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRefundRepo struct {
	mu        sync.Mutex
	created   []*Refund
	confirmed map[uuid.UUID][]Refund
	refunds   map[uuid.UUID]*Refund
}

func newFakeRefundRepo() *fakeRefundRepo {
	return &fakeRefundRepo{
		confirmed: make(map[uuid.UUID][]Refund),
		refunds:   make(map[uuid.UUID]*Refund),
	}
}

func (f *fakeRefundRepo) Create(ctx context.Context, r *Refund) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	f.created = append(f.created, r)
	f.refunds[r.ID] = r
	return nil
}

func (f *fakeRefundRepo) GetByID(ctx context.Context, id uuid.UUID) (*Refund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.refunds[id]
	if !ok {
		return nil, ErrRefundNotFound
	}
	return r, nil
}

func (f *fakeRefundRepo) ListConfirmedByOrder(ctx context.Context, orderID uuid.UUID) ([]Refund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.confirmed[orderID], nil
}

func (f *fakeRefundRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.refunds[id]; ok {
		r.Status = status
	}
	return nil
}

func (f *fakeRefundRepo) Confirm(ctx context.Context, id uuid.UUID, gatewayName, gatewayRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.refunds[id]
	if !ok || r.Status != StatusDraft {
		return ErrRefundNotDraft
	}
	r.Status = StatusConfirmed
	r.Gateway = gatewayName
	r.GatewayRef = gatewayRef
	return nil
}

func (f *fakeRefundRepo) MarkSettled(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.refunds[id]; ok {
		r.Settled = true
	}
	return nil
}

type fakeBatchOrderPort struct {
	orders map[uuid.UUID]*order.Order
}

func (f *fakeBatchOrderPort) GetWithItems(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return o, nil
}

type fakeBatchPaymentPort struct {
	unpaid map[uuid.UUID]bool
}

func (f *fakeBatchPaymentPort) HasPaid(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return !f.unpaid[orderID], nil
}

type batchFixture struct {
	repo         *fakeRefundRepo
	orders       *fakeBatchOrderPort
	payments     *fakeBatchPaymentPort
	orchestrator *Orchestrator
}

func newBatchFixture() *batchFixture {
	f := &batchFixture{
		repo:     newFakeRefundRepo(),
		orders:   &fakeBatchOrderPort{orders: make(map[uuid.UUID]*order.Order)},
		payments: &fakeBatchPaymentPort{unpaid: make(map[uuid.UUID]bool)},
	}
	f.orchestrator = NewOrchestrator(f.repo, f.orders, f.payments, nil, zap.NewNop())
	return f
}

func (f *batchFixture) addOrder(quantity int) (*order.Order, *order.OrderItem) {
	o := &order.Order{
		ID: uuid.New(),
		Items: []order.OrderItem{{
			ID:         uuid.New(),
			ProductID:  "prod-1",
			MerchantID: "merchant-1",
			Quantity:   quantity,
			PriceNet:   decimal.NewFromInt(10),
			PriceVat:   decimal.NewFromInt(2),
			PriceGross: decimal.NewFromInt(12),
		}},
	}
	f.orders.orders[o.ID] = o
	return o, &o.Items[0]
}

func TestOrchestratorProcess(t *testing.T) {
	ctx := context.Background()

	t.Run("creates drafts with row totals", func(t *testing.T) {
		f := newBatchFixture()
		o, item := f.addOrder(10)

		result := f.orchestrator.Process(ctx, []BatchEntry{{
			OrderID: o.ID,
			Items:   []BatchItem{{OrderItemID: item.ID, Quantity: 3}},
		}})

		require.Len(t, result.Refunds, 1)
		assert.Empty(t, result.Errors)

		created := result.Refunds[0]
		assert.Equal(t, StatusDraft, created.Status)
		require.Len(t, created.Items, 1)
		assert.True(t, created.Items[0].PriceGross.Equal(decimal.NewFromInt(36)),
			"expected 3 * 12, got %s", created.Items[0].PriceGross)
		assert.True(t, created.Items[0].PriceNet.Equal(decimal.NewFromInt(30)))
	})

	t.Run("partial failure keeps valid siblings", func(t *testing.T) {
		f := newBatchFixture()
		good, goodItem := f.addOrder(5)
		unpaid, unpaidItem := f.addOrder(5)
		f.payments.unpaid[unpaid.ID] = true

		result := f.orchestrator.Process(ctx, []BatchEntry{
			{OrderID: good.ID, Items: []BatchItem{{OrderItemID: goodItem.ID, Quantity: 1}}},
			{OrderID: unpaid.ID, Items: []BatchItem{{OrderItemID: unpaidItem.ID, Quantity: 1}}},
		})

		require.Len(t, result.Refunds, 1)
		assert.Equal(t, good.ID, result.Refunds[0].OrderID)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, CodeOrderNotPaid, result.Errors[0].Code)
		assert.Equal(t, 1, result.Errors[0].Index)
	})

	t.Run("duplicate orderId rejects every occurrence", func(t *testing.T) {
		f := newBatchFixture()
		dup, dupItem := f.addOrder(5)
		other, otherItem := f.addOrder(5)

		result := f.orchestrator.Process(ctx, []BatchEntry{
			{OrderID: dup.ID, Items: []BatchItem{{OrderItemID: dupItem.ID, Quantity: 1}}},
			{OrderID: other.ID, Items: []BatchItem{{OrderItemID: otherItem.ID, Quantity: 1}}},
			{OrderID: dup.ID, Items: []BatchItem{{OrderItemID: dupItem.ID, Quantity: 1}}},
		})

		require.Len(t, result.Refunds, 1)
		assert.Equal(t, other.ID, result.Refunds[0].OrderID)

		require.Len(t, result.Errors, 2)
		for _, e := range result.Errors {
			assert.Equal(t, CodeDuplicateOrderID, e.Code)
			assert.Equal(t, dup.ID.String(), e.OrderID)
		}
		assert.Len(t, f.repo.created, 1, "only the non-duplicate entry may create a draft")
	})

	t.Run("duplicate orderItemId within an entry is rejected", func(t *testing.T) {
		f := newBatchFixture()
		o, item := f.addOrder(5)

		result := f.orchestrator.Process(ctx, []BatchEntry{{
			OrderID: o.ID,
			Items: []BatchItem{
				{OrderItemID: item.ID, Quantity: 1},
				{OrderItemID: item.ID, Quantity: 1},
			},
		}})

		assert.Empty(t, result.Refunds)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, CodeDuplicateOrderItemID, result.Errors[0].Code)
	})

	t.Run("quantity over the confirmed remainder is rejected", func(t *testing.T) {
		f := newBatchFixture()
		o, item := f.addOrder(10)
		f.repo.confirmed[o.ID] = []Refund{confirmedRefund(item.ID, 9)}

		result := f.orchestrator.Process(ctx, []BatchEntry{{
			OrderID: o.ID,
			Items:   []BatchItem{{OrderItemID: item.ID, Quantity: 2}},
		}})

		assert.Empty(t, result.Refunds)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, CodeQuantityExceeded, result.Errors[0].Code)
	})

	t.Run("unknown order item is rejected", func(t *testing.T) {
		f := newBatchFixture()
		o, _ := f.addOrder(5)

		result := f.orchestrator.Process(ctx, []BatchEntry{{
			OrderID: o.ID,
			Items:   []BatchItem{{OrderItemID: uuid.New(), Quantity: 1}},
		}})

		assert.Empty(t, result.Refunds)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, CodeOrderItemNotFound, result.Errors[0].Code)
	})

	t.Run("non-positive quantity is rejected", func(t *testing.T) {
		f := newBatchFixture()
		o, item := f.addOrder(5)

		result := f.orchestrator.Process(ctx, []BatchEntry{{
			OrderID: o.ID,
			Items:   []BatchItem{{OrderItemID: item.ID, Quantity: 0}},
		}})

		assert.Empty(t, result.Refunds)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, CodeInvalidQuantity, result.Errors[0].Code)
	})

	t.Run("unknown order is rejected", func(t *testing.T) {
		f := newBatchFixture()

		result := f.orchestrator.Process(ctx, []BatchEntry{{
			OrderID: uuid.New(),
			Items:   []BatchItem{{OrderItemID: uuid.New(), Quantity: 1}},
		}})

		assert.Empty(t, result.Refunds)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, CodeOrderNotFound, result.Errors[0].Code)
	})
}

package refund

import (
	"context"
	"fmt"
	"testing"

	"github.com/commercekit/checkout/internal/module/accounting"
	"github.com/commercekit/checkout/internal/module/gateway"
	"github.com/commercekit/checkout/internal/module/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeServiceOrderPort struct {
	orders   map[uuid.UUID]*order.Order
	refunded int
}

func (f *fakeServiceOrderPort) GetWithItems(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeServiceOrderPort) MarkRefunded(ctx context.Context, id uuid.UUID) error {
	f.refunded++
	return nil
}

type fakePaymentRefPort struct {
	ref PaymentRef
	err error
}

func (f *fakePaymentRefPort) PaidPaymentRef(ctx context.Context, orderID uuid.UUID) (PaymentRef, error) {
	return f.ref, f.err
}

type fakeRefundGateway struct {
	name      string
	refundErr error
	requests  []gateway.RefundRequest
}

func (f *fakeRefundGateway) Name() string { return f.name }

func (f *fakeRefundGateway) Verify(ctx context.Context, cb gateway.Callback) (gateway.ReturnStatus, error) {
	return gateway.ReturnStatus{}, nil
}

func (f *fakeRefundGateway) CancelAuthorization(ctx context.Context, gatewayRef string) error {
	return nil
}

func (f *fakeRefundGateway) Refund(ctx context.Context, req gateway.RefundRequest) error {
	f.requests = append(f.requests, req)
	return f.refundErr
}

type fakeLedger struct {
	created map[uuid.UUID][]accounting.Line
}

func (f *fakeLedger) CreateForRefund(ctx context.Context, refundID, orderID uuid.UUID, lines []accounting.Line) error {
	if _, ok := f.created[refundID]; ok {
		return fmt.Errorf("%w: refund:%s", accounting.ErrEntryExists, refundID)
	}
	f.created[refundID] = lines
	return nil
}

type serviceFixture struct {
	repo     *fakeRefundRepo
	orders   *fakeServiceOrderPort
	payments *fakePaymentRefPort
	gw       *fakeRefundGateway
	ledger   *fakeLedger
	service  *Service

	order *order.Order
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	o := &order.Order{
		ID: uuid.New(),
		Items: []order.OrderItem{{
			ID:         uuid.New(),
			ProductID:  "prod-1",
			MerchantID: "merchant-1",
			Quantity:   10,
			PriceNet:   decimal.NewFromInt(10),
			PriceVat:   decimal.NewFromInt(2),
			PriceGross: decimal.NewFromInt(12),
		}},
	}

	f := &serviceFixture{
		repo:   newFakeRefundRepo(),
		orders: &fakeServiceOrderPort{orders: map[uuid.UUID]*order.Order{o.ID: o}},
		payments: &fakePaymentRefPort{ref: PaymentRef{
			Gateway:    "stripecard",
			GatewayRef: "pi_123",
			Currency:   "EUR",
		}},
		gw:     &fakeRefundGateway{name: "stripecard"},
		ledger: &fakeLedger{created: make(map[uuid.UUID][]accounting.Line)},
		order:  o,
	}

	registry := gateway.NewRegistry()
	require.NoError(t, registry.Register(f.gw))

	f.service = NewService(f.repo, f.orders, f.payments, registry, f.ledger, zap.NewNop())
	return f
}

func (f *serviceFixture) draft(t *testing.T, quantity int) *Refund {
	t.Helper()
	qty := decimal.NewFromInt(int64(quantity))
	r := &Refund{
		OrderID: f.order.ID,
		Status:  StatusDraft,
		Items: []RefundItem{{
			OrderItemID: f.order.Items[0].ID,
			Quantity:    quantity,
			PriceNet:    f.order.Items[0].PriceNet.Mul(qty),
			PriceVat:    f.order.Items[0].PriceVat.Mul(qty),
			PriceGross:  f.order.Items[0].PriceGross.Mul(qty),
		}},
	}
	require.NoError(t, f.repo.Create(context.Background(), r))
	return r
}

func TestServiceConfirm(t *testing.T) {
	ctx := context.Background()

	t.Run("confirms and settles a valid draft", func(t *testing.T) {
		f := newServiceFixture(t)
		draft := f.draft(t, 3)

		confirmed, err := f.service.Confirm(ctx, draft.ID)
		require.NoError(t, err)

		assert.Equal(t, StatusConfirmed, confirmed.Status)
		assert.Equal(t, "stripecard", confirmed.Gateway)
		assert.True(t, confirmed.Settled)

		require.Len(t, f.gw.requests, 1)
		req := f.gw.requests[0]
		assert.Equal(t, "pi_123", req.GatewayRef)
		assert.Equal(t, draft.ID.String(), req.RefundID)
		assert.True(t, req.Amount.Equal(decimal.NewFromInt(36)), "expected 3 * 12, got %s", req.Amount)

		assert.Contains(t, f.ledger.created, draft.ID)
		assert.Equal(t, 1, f.orders.refunded)
	})

	t.Run("accounting lines negate the refund totals", func(t *testing.T) {
		f := newServiceFixture(t)
		draft := f.draft(t, 2)

		_, err := f.service.Confirm(ctx, draft.ID)
		require.NoError(t, err)

		lines := f.ledger.created[draft.ID]
		require.Len(t, lines, 1)
		assert.True(t, lines[0].PriceGross.Equal(decimal.NewFromInt(-24)))
		assert.True(t, lines[0].PriceNet.Equal(decimal.NewFromInt(-20)))
	})

	t.Run("already confirmed refund is rejected", func(t *testing.T) {
		f := newServiceFixture(t)
		draft := f.draft(t, 1)
		_, err := f.service.Confirm(ctx, draft.ID)
		require.NoError(t, err)

		_, err = f.service.Confirm(ctx, draft.ID)
		assert.ErrorIs(t, err, ErrAlreadyConfirmed)
		assert.Len(t, f.gw.requests, 1, "money must not move twice")
	})

	t.Run("quantity is re-validated at confirmation time", func(t *testing.T) {
		f := newServiceFixture(t)
		draft := f.draft(t, 2)
		// A sibling confirmed after this draft was created consumed
		// the remaining quantity.
		f.repo.confirmed[f.order.ID] = []Refund{confirmedRefund(f.order.Items[0].ID, 9)}

		_, err := f.service.Confirm(ctx, draft.ID)
		assert.ErrorIs(t, err, ErrQuantityExceeded)
		assert.Empty(t, f.gw.requests)
	})

	t.Run("gateway rejection leaves the draft untouched", func(t *testing.T) {
		f := newServiceFixture(t)
		draft := f.draft(t, 1)
		f.gw.refundErr = gateway.ErrRefundRejected

		_, err := f.service.Confirm(ctx, draft.ID)
		require.Error(t, err)

		stored, getErr := f.repo.GetByID(ctx, draft.ID)
		require.NoError(t, getErr)
		assert.Equal(t, StatusDraft, stored.Status)
		assert.False(t, stored.Settled)
		assert.Empty(t, f.ledger.created)
	})

	t.Run("unpaid order cannot be refunded", func(t *testing.T) {
		f := newServiceFixture(t)
		draft := f.draft(t, 1)
		f.payments.err = ErrOrderNotPaid

		_, err := f.service.Confirm(ctx, draft.ID)
		assert.ErrorIs(t, err, ErrOrderNotPaid)
		assert.Empty(t, f.gw.requests)
	})
}

func TestServiceSettle(t *testing.T) {
	ctx := context.Background()

	t.Run("settles a confirmed refund once", func(t *testing.T) {
		f := newServiceFixture(t)
		draft := f.draft(t, 1)
		require.NoError(t, f.repo.Confirm(ctx, draft.ID, "stripecard", "pi_123"))

		require.NoError(t, f.service.Settle(ctx, draft.ID))
		assert.Contains(t, f.ledger.created, draft.ID)
		assert.Equal(t, 1, f.orders.refunded)

		// Replay: already settled, nothing runs again.
		require.NoError(t, f.service.Settle(ctx, draft.ID))
		assert.Equal(t, 1, f.orders.refunded)
	})

	t.Run("draft refunds cannot settle", func(t *testing.T) {
		f := newServiceFixture(t)
		draft := f.draft(t, 1)

		err := f.service.Settle(ctx, draft.ID)
		assert.ErrorIs(t, err, ErrRefundNotDraft)
	})

	t.Run("unknown refund is reported", func(t *testing.T) {
		f := newServiceFixture(t)
		err := f.service.Settle(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrRefundNotFound)
	})
}

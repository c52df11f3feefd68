package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/commercekit/checkout/internal/module/gateway"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHoldCancellerCancelAll(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	setup := func(t *testing.T, gw *fakeVerifyGateway, holds ...Payment) (*HoldCanceller, *fakePaymentRepo) {
		t.Helper()
		repo := newFakePaymentRepo()
		repo.holds = holds
		registry := gateway.NewRegistry()
		require.NoError(t, registry.Register(gw))
		return NewHoldCanceller(repo, registry, nil, zap.NewNop()), repo
	}

	t.Run("cancels every authorized hold", func(t *testing.T) {
		gw := &fakeVerifyGateway{name: "stripecard"}
		canceller, repo := setup(t, gw,
			Payment{ID: uuid.New(), OrderID: orderID, Gateway: "stripecard", Status: StatusAuthorized},
			Payment{ID: uuid.New(), OrderID: orderID, Gateway: "stripecard", Status: StatusAuthorized},
		)

		succeeded, failed := canceller.CancelAll(ctx, orderID)

		assert.Equal(t, 2, succeeded)
		assert.Zero(t, failed)
		assert.Equal(t, 2, gw.cancelled)
		for id := range repo.statuses {
			assert.Equal(t, StatusCancelled, repo.statuses[id])
		}
	})

	t.Run("gateway rejection counts as failure without rollback", func(t *testing.T) {
		gw := &fakeVerifyGateway{name: "stripecard", cancelErr: errors.New("intent not cancellable")}
		canceller, repo := setup(t, gw,
			Payment{ID: uuid.New(), OrderID: orderID, Gateway: "stripecard", Status: StatusAuthorized},
		)

		succeeded, failed := canceller.CancelAll(ctx, orderID)

		assert.Zero(t, succeeded)
		assert.Equal(t, 1, failed)
		assert.Empty(t, repo.statuses)
	})

	t.Run("unregistered gateway counts as failure", func(t *testing.T) {
		gw := &fakeVerifyGateway{name: "stripecard"}
		canceller, _ := setup(t, gw,
			Payment{ID: uuid.New(), OrderID: orderID, Gateway: "alipay", Status: StatusAuthorized},
		)

		succeeded, failed := canceller.CancelAll(ctx, orderID)

		assert.Zero(t, succeeded)
		assert.Equal(t, 1, failed)
		assert.Zero(t, gw.cancelled)
	})

	t.Run("no holds is a clean no-op", func(t *testing.T) {
		gw := &fakeVerifyGateway{name: "stripecard"}
		canceller, _ := setup(t, gw)

		succeeded, failed := canceller.CancelAll(ctx, orderID)

		assert.Zero(t, succeeded)
		assert.Zero(t, failed)
	})
}

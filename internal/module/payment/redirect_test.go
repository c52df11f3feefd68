package payment

import (
	"testing"

	"github.com/commercekit/checkout/internal/module/gateway"
	"github.com/commercekit/checkout/internal/module/order"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name   string
		status gateway.ReturnStatus
		want   Destination
	}{
		{
			name:   "invalid callback always fails",
			status: gateway.ReturnStatus{Valid: false, Paid: true},
			want:   DestFailure,
		},
		{
			name:   "paid goes to success",
			status: gateway.ReturnStatus{Valid: true, Paid: true},
			want:   DestSuccess,
		},
		{
			name:   "retryable goes to summary",
			status: gateway.ReturnStatus{Valid: true, CanRetry: true},
			want:   DestSummary,
		},
		{
			name:   "authorized card renewal succeeds",
			status: gateway.ReturnStatus{Valid: true, Authorized: true, Kind: gateway.KindCardRenewal},
			want:   DestCardUpdateSuccess,
		},
		{
			name:   "unauthorized card renewal fails",
			status: gateway.ReturnStatus{Valid: true, Kind: gateway.KindCardRenewal},
			want:   DestCardUpdateFailed,
		},
		{
			name:   "valid but unpaid order payment fails",
			status: gateway.ReturnStatus{Valid: true, Kind: gateway.KindOrder},
			want:   DestFailure,
		},
		{
			name:   "paid wins over retryable",
			status: gateway.ReturnStatus{Valid: true, Paid: true, CanRetry: true},
			want:   DestSuccess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.status))
		})
	}
}

func TestRedirectResolver(t *testing.T) {
	o := &order.Order{
		ID:     uuid.MustParse("0f2a1e9c-8d1b-47f6-9c3d-91a75f20b11e"),
		UserID: "user-7",
	}
	resolver := NewRedirectResolver("https://shop.example.com/checkout/")

	t.Run("platform shape", func(t *testing.T) {
		got := resolver.Resolve(DestSuccess, o, "")
		assert.Equal(t,
			"https://shop.example.com/checkout/0f2a1e9c-8d1b-47f6-9c3d-91a75f20b11e/success?user=user-7",
			got)
	})

	t.Run("summary carries paymentPaid=false", func(t *testing.T) {
		got := resolver.Resolve(DestSummary, o, "")
		assert.Contains(t, got, "/0f2a1e9c-8d1b-47f6-9c3d-91a75f20b11e/summary")
		assert.Contains(t, got, "paymentPaid=false")
	})

	t.Run("override shape appends orderId as query", func(t *testing.T) {
		got := resolver.Resolve(DestSuccess, o, "https://merchant.example.org/done")
		assert.Equal(t,
			"https://merchant.example.org/done/success?orderId=0f2a1e9c-8d1b-47f6-9c3d-91a75f20b11e",
			got)
	})

	t.Run("override summary keeps paymentPaid flag", func(t *testing.T) {
		got := resolver.Resolve(DestSummary, o, "https://merchant.example.org/done")
		assert.Contains(t, got, "/done/summary")
		assert.Contains(t, got, "orderId=0f2a1e9c-8d1b-47f6-9c3d-91a75f20b11e")
		assert.Contains(t, got, "paymentPaid=false")
	})

	t.Run("generic failure url", func(t *testing.T) {
		assert.Equal(t, "https://shop.example.com/checkout/failure", resolver.FailureURL())
	})

	t.Run("user id omitted when unknown", func(t *testing.T) {
		anon := &order.Order{ID: o.ID}
		got := resolver.Resolve(DestFailure, anon, "")
		assert.NotContains(t, got, "user=")
	})
}

package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	name string
}

func (f *fakeGateway) Name() string { return f.name }

func (f *fakeGateway) Verify(ctx context.Context, cb Callback) (ReturnStatus, error) {
	return ReturnStatus{Valid: true, Kind: cb.Kind}, nil
}

func (f *fakeGateway) CancelAuthorization(ctx context.Context, gatewayRef string) error {
	return nil
}

func (f *fakeGateway) Refund(ctx context.Context, req RefundRequest) error {
	return nil
}

func TestRegistry(t *testing.T) {
	t.Run("register and get", func(t *testing.T) {
		r := NewRegistry()
		g := &fakeGateway{name: "alipay"}

		require.NoError(t, r.Register(g))

		got, err := r.Get("alipay")
		require.NoError(t, err)
		assert.Equal(t, g, got)
	})

	t.Run("duplicate registration fails", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(&fakeGateway{name: "stripecard"}))

		err := r.Register(&fakeGateway{name: "stripecard"})
		assert.Error(t, err)
	})

	t.Run("unknown gateway", func(t *testing.T) {
		r := NewRegistry()

		_, err := r.Get("wechat")
		assert.ErrorIs(t, err, ErrGatewayNotFound)
	})

	t.Run("list", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(&fakeGateway{name: "alipay"}))
		require.NoError(t, r.Register(&fakeGateway{name: "stripecard"}))

		assert.ElementsMatch(t, []string{"alipay", "stripecard"}, r.List())
	})
}

package merchant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepository struct {
	configs map[string]*Config
	calls   int
}

func (f *fakeRepository) GetByNamespace(ctx context.Context, namespace string) (*Config, error) {
	f.calls++
	cfg, ok := f.configs[namespace]
	if !ok {
		return nil, ErrConfigNotFound
	}
	return cfg, nil
}

func TestServiceReturnURL(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepository{configs: map[string]*Config{
		"shop": {
			Namespace:        "shop",
			ServiceReturnURL: "https://shop.example.org/return",
		},
		"bare": {Namespace: "bare"},
	}}
	svc := NewService(repo, nil, 0, nil, zap.NewNop())

	t.Run("configured override", func(t *testing.T) {
		got, err := svc.ServiceReturnURL(ctx, "shop")
		require.NoError(t, err)
		assert.Equal(t, "https://shop.example.org/return", got)
	})

	t.Run("namespace without override", func(t *testing.T) {
		got, err := svc.ServiceReturnURL(ctx, "bare")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("missing config is not an error", func(t *testing.T) {
		got, err := svc.ServiceReturnURL(ctx, "unknown")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestReceiptSender(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepository{configs: map[string]*Config{
		"shop": {
			Namespace:          "shop",
			ReceiptSenderName:  "Example Shop",
			ReceiptSenderEmail: "receipts@shop.example.org",
		},
	}}
	svc := NewService(repo, nil, 0, nil, zap.NewNop())

	name, email, err := svc.ReceiptSender(ctx, "shop")
	require.NoError(t, err)
	assert.Equal(t, "Example Shop", name)
	assert.Equal(t, "receipts@shop.example.org", email)

	name, email, err = svc.ReceiptSender(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, name)
	assert.Empty(t, email)
}

package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/minshop/order-api/internal/entity"
)

func TestGetPaidOrder_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("paid order visible with lines newest first", func(t *testing.T) {
		store, o := paidFixture(t)
		uc := NewGetPaidOrder(store, nil)

		got, err := uc.Execute(ctx, 7, o.OrderNumber)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPaid, got.Status)
		require.Len(t, got.Lines, 2)
		assert.Greater(t, got.Lines[0].Seq, got.Lines[1].Seq)
		require.NotNil(t, got.PaidAt)
	})

	t.Run("pending order reads as not found", func(t *testing.T) {
		store, o := settledFixture(t)
		uc := NewGetPaidOrder(store, nil)

		_, err := uc.Execute(ctx, 7, o.OrderNumber)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("canceled order reads as not found", func(t *testing.T) {
		store, o := paidFixture(t)
		cancel := NewCancelOrder(store, store, &fakePG{cancelRes: PaymentResult{Status: "CANCELED"}})
		_, err := cancel.Execute(ctx, CancelOrderInput{UserSeq: 7, OrderNumber: o.OrderNumber})
		require.NoError(t, err)

		uc := NewGetPaidOrder(store, nil)
		_, err = uc.Execute(ctx, 7, o.OrderNumber)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("other user's paid order reads as not found", func(t *testing.T) {
		store, o := paidFixture(t)
		uc := NewGetPaidOrder(store, nil)

		_, err := uc.Execute(ctx, 99, o.OrderNumber)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestGetPaidOrder_Status(t *testing.T) {
	ctx := context.Background()

	t.Run("serves warm cache without hitting the store", func(t *testing.T) {
		cache := newFakeCache()
		require.NoError(t, cache.SetStatus(ctx, "ORD-x", "PAID"))
		uc := NewGetPaidOrder(newMemStore(), cache)

		st, err := uc.Status(ctx, 7, "ORD-x")
		require.NoError(t, err)
		assert.Equal(t, "PAID", st)
	})

	t.Run("cold cache falls back to store and backfills", func(t *testing.T) {
		store, o := settledFixture(t)
		cache := newFakeCache()
		uc := NewGetPaidOrder(store, cache)

		st, err := uc.Status(ctx, 7, o.OrderNumber)
		require.NoError(t, err)
		assert.Equal(t, "PENDING", st)
		assert.Equal(t, "PENDING", cache.entries[o.OrderNumber])
	})

	t.Run("fallback enforces ownership", func(t *testing.T) {
		store, o := settledFixture(t)
		uc := NewGetPaidOrder(store, newFakeCache())

		_, err := uc.Status(ctx, 99, o.OrderNumber)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("nil cache still answers", func(t *testing.T) {
		store, o := settledFixture(t)
		uc := NewGetPaidOrder(store, nil)

		st, err := uc.Status(ctx, 7, o.OrderNumber)
		require.NoError(t, err)
		assert.Equal(t, "PENDING", st)
	})
}

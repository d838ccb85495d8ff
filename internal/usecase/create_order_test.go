package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/minshop/order-api/internal/entity"
)

func seedCart(m *memStore, userSeq int64) {
	m.addCartLine(userSeq, domain.CartLine{CartSeq: 1, ProductSeq: 100, ProductName: "mug", UnitPrice: 12000, Quantity: 2})
	m.addCartLine(userSeq, domain.CartLine{CartSeq: 2, ProductSeq: 101, ProductName: "coaster", UnitPrice: 3000, Quantity: 1})
	m.stock[100] = 10
	m.stock[101] = 10
}

func createInput(userSeq int64, cartSeqs ...int64) CreateOrderInput {
	return CreateOrderInput{
		UserSeq:       userSeq,
		CartSeqs:      cartSeqs,
		ReceiverName:  "Kim Minji",
		ReceiverPhone: "010-1234-5678",
		ZipCode:       "04524",
		Address1:      "서울시 중구 세종대로 110",
	}
}

func TestCreateOrder_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("builds pending order with priced snapshot", func(t *testing.T) {
		store := newMemStore()
		seedCart(store, 7)
		events := &fakeEvents{}
		uc := NewCreateOrder(store, store, newFakeIdem(), events)

		o, err := uc.Execute(ctx, createInput(7, 1, 2))
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(o.OrderNumber, "ORD-"))
		assert.Equal(t, domain.StatusPending, o.Status)
		assert.Equal(t, int64(27000), o.ItemsTotal)
		assert.Equal(t, int64(FlatShippingFee), o.ShippingFee)
		assert.Equal(t, o.ItemsTotal+o.ShippingFee, o.OrderTotal)
		require.Len(t, o.Lines, 2)
		// Snapshot order follows cart seq descending.
		assert.Equal(t, "coaster", o.Lines[0].ProductName)
		assert.Equal(t, "mug", o.Lines[1].ProductName)

		// Cart lines survive creation; only settlement consumes them.
		assert.Len(t, store.cart, 2)

		require.Len(t, events.published, 1)
		assert.Equal(t, o.OrderNumber, events.published[0].OrderNumber)
		assert.Equal(t, "PENDING", events.published[0].Status)
	})

	t.Run("empty selection rejected", func(t *testing.T) {
		store := newMemStore()
		uc := NewCreateOrder(store, store, newFakeIdem(), nil)

		_, err := uc.Execute(ctx, createInput(7))
		assert.ErrorIs(t, err, ErrEmptySelection)
	})

	t.Run("selection resolving to nothing rejected", func(t *testing.T) {
		store := newMemStore()
		seedCart(store, 7)
		uc := NewCreateOrder(store, store, newFakeIdem(), nil)

		// Seqs belong to another user.
		_, err := uc.Execute(ctx, createInput(99, 1, 2))
		assert.ErrorIs(t, err, ErrEmptySelection)
	})

	t.Run("missing shipping fields rejected", func(t *testing.T) {
		store := newMemStore()
		seedCart(store, 7)
		uc := NewCreateOrder(store, store, newFakeIdem(), nil)

		in := createInput(7, 1)
		in.ReceiverPhone = ""
		_, err := uc.Execute(ctx, in)
		assert.Equal(t, KindInvalidInput, KindOf(err))
	})

	t.Run("idempotent replay returns original order", func(t *testing.T) {
		store := newMemStore()
		seedCart(store, 7)
		uc := NewCreateOrder(store, store, newFakeIdem(), nil)

		in := createInput(7, 1, 2)
		in.IdempotencyKey = "req-abc"
		first, err := uc.Execute(ctx, in)
		require.NoError(t, err)

		second, err := uc.Execute(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, first.OrderNumber, second.OrderNumber)
		assert.Len(t, store.orders, 1)
	})

	t.Run("in-flight duplicate rejected", func(t *testing.T) {
		store := newMemStore()
		seedCart(store, 7)
		idem := newFakeIdem()
		uc := NewCreateOrder(store, store, idem, nil)

		// Lock held, nothing remembered yet: the first request is still
		// running.
		_, err := idem.TryLock(ctx, "7", "req-abc")
		require.NoError(t, err)

		in := createInput(7, 1, 2)
		in.IdempotencyKey = "req-abc"
		_, err = uc.Execute(ctx, in)
		assert.ErrorIs(t, err, ErrDuplicate)
		assert.Empty(t, store.orders)
	})
}

func TestCreateOrder_Preview(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	seedCart(store, 7)
	uc := NewCreateOrder(store, store, newFakeIdem(), nil)

	t.Run("prices without writing", func(t *testing.T) {
		p, err := uc.Preview(ctx, 7, []int64{1, 2})
		require.NoError(t, err)
		assert.Equal(t, int64(27000), p.Totals.ItemsTotal)
		assert.Equal(t, int64(30500), p.Totals.OrderTotal)
		assert.Len(t, p.Items, 2)
		assert.Empty(t, store.orders)
	})

	t.Run("empty selection rejected", func(t *testing.T) {
		_, err := uc.Preview(ctx, 7, nil)
		assert.ErrorIs(t, err, ErrEmptySelection)
	})
}

package usecase

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	domain "github.com/minshop/order-api/internal/entity"
)

type CreateOrderInput struct {
	UserSeq        int64
	CartSeqs       []int64
	IdempotencyKey string

	ReceiverName  string
	ReceiverPhone string
	ZipCode       string
	Address1      string
	Address2      string
	Memo          string
}

func (in CreateOrderInput) validate() error {
	if len(in.CartSeqs) == 0 {
		return ErrEmptySelection
	}
	if in.ReceiverName == "" || in.ReceiverPhone == "" || in.ZipCode == "" || in.Address1 == "" {
		return settleErr(KindInvalidInput, "missing required shipping fields")
	}
	return nil
}

// CreateOrder builds a PENDING order from the caller's selected cart
// lines. Cart lines are not consumed here; only a successful payment
// confirmation removes them.
type CreateOrder struct {
	cart   CartStore
	orders OrderRepo
	idem   IdempotencyStore
	events OrderEvents
}

func NewCreateOrder(cart CartStore, orders OrderRepo, idem IdempotencyStore, events OrderEvents) *CreateOrder {
	return &CreateOrder{cart: cart, orders: orders, idem: idem, events: events}
}

func (uc *CreateOrder) Execute(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	scope := strconv.FormatInt(in.UserSeq, 10)

	// Fast path: a replayed submission returns the order it created.
	if in.IdempotencyKey != "" {
		if num, ok, _ := uc.idem.Recall(ctx, scope, in.IdempotencyKey); ok {
			return uc.orders.GetByNumber(ctx, in.UserSeq, num)
		}
		ok, err := uc.idem.TryLock(ctx, scope, in.IdempotencyKey)
		if err != nil {
			return nil, Unavailable("idempotency store", err)
		}
		if !ok {
			return nil, ErrDuplicate
		}
	}

	items, err := uc.cart.SelectedLines(ctx, in.UserSeq, in.CartSeqs)
	if err != nil {
		return nil, Unavailable("read cart lines", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptySelection
	}

	lines := LinesFromCart(items)
	totals, err := ComputeTotals(lines)
	if err != nil {
		return nil, err
	}

	o := &domain.Order{
		OrderNumber:   "ORD-" + uuid.NewString(),
		UserSeq:       in.UserSeq,
		ItemsTotal:    totals.ItemsTotal,
		ShippingFee:   totals.ShippingFee,
		OrderTotal:    totals.OrderTotal,
		ReceiverName:  in.ReceiverName,
		ReceiverPhone: in.ReceiverPhone,
		ZipCode:       in.ZipCode,
		Address1:      in.Address1,
		Address2:      in.Address2,
		Memo:          in.Memo,
		Status:        domain.StatusPending,
		Lines:         lines,
	}
	if err := o.Validate(); err != nil {
		return nil, ErrInvalidAmount
	}

	if err := uc.orders.CreateWithLines(ctx, o); err != nil {
		return nil, Unavailable("persist order", err)
	}

	if in.IdempotencyKey != "" {
		_ = uc.idem.Remember(ctx, scope, in.IdempotencyKey, o.OrderNumber)
	}
	if uc.events != nil {
		_ = uc.events.PublishCreated(ctx, CreatedMsg{
			OrderNumber: o.OrderNumber,
			UserSeq:     o.UserSeq,
			OrderTotal:  o.OrderTotal,
			Status:      string(o.Status),
		})
	}
	return o, nil
}

// OrderPreview is the priced cart snapshot shown before checkout. Same
// reader and calculator as Execute, no writes.
type OrderPreview struct {
	Items  []domain.CartLine
	Totals domain.Totals
}

func (uc *CreateOrder) Preview(ctx context.Context, userSeq int64, cartSeqs []int64) (*OrderPreview, error) {
	if len(cartSeqs) == 0 {
		return nil, ErrEmptySelection
	}
	items, err := uc.cart.SelectedLines(ctx, userSeq, cartSeqs)
	if err != nil {
		return nil, Unavailable("read cart lines", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptySelection
	}
	totals, err := ComputeTotals(LinesFromCart(items))
	if err != nil {
		return nil, err
	}
	return &OrderPreview{Items: items, Totals: totals}, nil
}

package usecase

import (
	"context"

	domain "github.com/minshop/order-api/internal/entity"
)

// GetPaidOrder assembles a completed order for display. Only PAID
// orders owned by the caller are visible through this path; a PENDING
// or CANCELED order reads as not found because its monetary state is
// not final.
type GetPaidOrder struct {
	orders OrderRepo
	cache  StatusCache // optional
}

func NewGetPaidOrder(orders OrderRepo, cache StatusCache) *GetPaidOrder {
	return &GetPaidOrder{orders: orders, cache: cache}
}

func (uc *GetPaidOrder) Execute(ctx context.Context, userSeq int64, orderNumber string) (*domain.Order, error) {
	o, err := uc.orders.GetPaidDetail(ctx, userSeq, orderNumber)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Status answers lightweight polling, serving from cache when warm and
// falling back to the store. Ownership is still enforced on the
// fallback path; cache entries are keyed by opaque order number only.
func (uc *GetPaidOrder) Status(ctx context.Context, userSeq int64, orderNumber string) (string, error) {
	if uc.cache != nil {
		if st, ok, err := uc.cache.GetStatus(ctx, orderNumber); err == nil && ok {
			return st, nil
		}
	}
	o, err := uc.orders.GetByNumber(ctx, userSeq, orderNumber)
	if err != nil {
		return "", err
	}
	if uc.cache != nil {
		_ = uc.cache.SetStatus(ctx, orderNumber, string(o.Status))
	}
	return string(o.Status), nil
}

package usecase

import (
	"context"

	domain "github.com/minshop/order-api/internal/entity"
)

const pgStatusCanceled = "CANCELED"

const defaultCancelReason = "customer requested cancellation"

type CancelOrderInput struct {
	UserSeq     int64
	OrderNumber string
	Reason      string
}

// CancelOrder drives PENDING->CANCELED (direct, no money was captured)
// and PAID->CANCELED (refund through the PG first). Stock consumed by
// a PAID order is restored inside the cancel transaction.
type CancelOrder struct {
	orders OrderRepo
	store  SettlementStore
	pg     PaymentGateway
}

func NewCancelOrder(orders OrderRepo, store SettlementStore, pg PaymentGateway) *CancelOrder {
	return &CancelOrder{orders: orders, store: store, pg: pg}
}

func (uc *CancelOrder) Execute(ctx context.Context, in CancelOrderInput) (o *domain.Order, err error) {
	defer func() { countSettlement("cancel", err) }()

	o, err = uc.orders.GetByNumber(ctx, in.UserSeq, in.OrderNumber)
	if err != nil {
		return nil, err
	}

	switch o.Status {
	case domain.StatusCanceled:
		return nil, ErrAlreadyCanceled

	case domain.StatusPending:
		if err := uc.store.CancelPending(ctx, in.UserSeq, in.OrderNumber); err != nil {
			return nil, err
		}
		o.Status = domain.StatusCanceled
		return o, nil

	case domain.StatusPaid:
		if o.PaymentKey == "" {
			return nil, settleErr(KindInvalidState, "paid order has no payment key")
		}
		reason := in.Reason
		if reason == "" {
			reason = defaultCancelReason
		}
		res, err := uc.pg.Cancel(ctx, o.PaymentKey, reason)
		if err != nil {
			return nil, Unavailable("pg cancel", err)
		}
		if res.Status != pgStatusCanceled {
			return nil, settleErr(KindRefundRejected, "pg cancel status "+res.Status)
		}
		if err := uc.store.CancelPaid(ctx, in.UserSeq, in.OrderNumber, o.Lines); err != nil {
			return nil, err
		}
		o.Status = domain.StatusCanceled
		return o, nil

	default:
		// FAILED and anything unexpected.
		return nil, ErrInvalidState
	}
}

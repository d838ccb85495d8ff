package usecase

import (
	"context"
	"time"

	domain "github.com/minshop/order-api/internal/entity"
	"github.com/minshop/order-api/internal/logging"
)

const pgStatusDone = "DONE"

type ConfirmPaymentInput struct {
	UserSeq     int64
	OrderNumber string
	PaymentKey  string
	Amount      int64
	CartSeqs    []int64 // consumed on success
}

// ConfirmPayment drives PENDING->PAID. Local guards run before the PG
// is ever called; the stock decrement, status flip and cart purge
// commit as one transaction or not at all.
//
// Confirmation is deliberately not idempotent: a second call on an
// already-PAID order is an error, never a no-op.
type ConfirmPayment struct {
	orders OrderRepo
	store  SettlementStore
	pg     PaymentGateway
}

func NewConfirmPayment(orders OrderRepo, store SettlementStore, pg PaymentGateway) *ConfirmPayment {
	return &ConfirmPayment{orders: orders, store: store, pg: pg}
}

func (uc *ConfirmPayment) Execute(ctx context.Context, in ConfirmPaymentInput) (o *domain.Order, err error) {
	defer func() { countSettlement("confirm", err) }()

	o, err = uc.orders.GetByNumber(ctx, in.UserSeq, in.OrderNumber)
	if err != nil {
		return nil, err
	}
	if o.Status != domain.StatusPending {
		return nil, ErrInvalidState
	}
	if in.Amount != o.OrderTotal {
		return nil, ErrAmountMismatch
	}
	if len(o.Lines) == 0 {
		return nil, settleErr(KindInvalidState, "order has no lines")
	}

	res, err := uc.pg.Confirm(ctx, in.PaymentKey, in.OrderNumber, in.Amount)
	if err != nil {
		// Transport failure: the order stays PENDING, the caller may
		// retry with the same payment key.
		return nil, Unavailable("pg confirm", err)
	}
	if res.Status != pgStatusDone {
		// Definitive rejection from the PG. FAILED is terminal.
		if ferr := uc.store.MarkFailed(ctx, in.UserSeq, in.OrderNumber); ferr != nil {
			logging.FromCtx(ctx).Error("mark failed after pg rejection",
				"order_number", in.OrderNumber, "pg_status", res.Status, "err", ferr)
		}
		return nil, settleErr(KindPaymentRejected, "pg confirm status "+res.Status)
	}

	paidAt := res.ApprovedAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}

	// The store re-checks status==PENDING inside the transaction, so a
	// concurrent confirm or cancel that won the race surfaces here as
	// ErrInvalidState with nothing committed.
	err = uc.store.FinalizePaid(ctx, FinalizePaidParams{
		UserSeq:     in.UserSeq,
		OrderNumber: in.OrderNumber,
		PGProvider:  res.Provider,
		PaymentKey:  in.PaymentKey,
		PaidAt:      paidAt,
		Lines:       o.Lines,
		CartSeqs:    in.CartSeqs,
	})
	if err != nil {
		return nil, err
	}

	o.Status = domain.StatusPaid
	o.PGProvider = res.Provider
	o.PaymentKey = in.PaymentKey
	o.PaidAt = &paidAt
	return o, nil
}

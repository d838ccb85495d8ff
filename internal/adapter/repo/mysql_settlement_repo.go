package repo

import (
	"context"
	"database/sql"

	domain "github.com/minshop/order-api/internal/entity"
	"github.com/minshop/order-api/internal/usecase"
)

// MySQLSettlementRepo executes the transactional flips of the order
// state machine. Every public method is one transaction: the status
// CAS, any stock mutation, the cart purge and the outbox event commit
// together or roll back together.
//
// Stock is guarded by a conditional decrement
// (stock_quantity = stock_quantity - n WHERE stock_quantity >= n), so
// two confirms racing on the same product cannot both pass a check
// that looked valid when read independently.
type MySQLSettlementRepo struct {
	db     *sql.DB
	outbox *MySQLOutboxRepo
}

func NewMySQLSettlementRepo(db *sql.DB, outbox *MySQLOutboxRepo) *MySQLSettlementRepo {
	return &MySQLSettlementRepo{db: db, outbox: outbox}
}

func (r *MySQLSettlementRepo) FinalizePaid(ctx context.Context, p usecase.FinalizePaidParams) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return usecase.Unavailable("begin settlement tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Guarded flip: zero rows means a concurrent confirm or cancel won.
	res, err := tx.ExecContext(ctx, `
UPDATE orders
SET status='PAID', pg_provider=?, payment_key=?, paid_at=?
WHERE order_number=? AND user_seq=? AND status='PENDING'`,
		p.PGProvider, p.PaymentKey, p.PaidAt, p.OrderNumber, p.UserSeq)
	if err != nil {
		return usecase.Unavailable("flip order paid", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return usecase.ErrInvalidState
	}

	for _, l := range p.Lines {
		res, err := tx.ExecContext(ctx, `
UPDATE products
SET stock_quantity = stock_quantity - ?
WHERE seq=? AND stock_quantity >= ?`,
			l.Quantity, l.ProductSeq, l.Quantity)
		if err != nil {
			return usecase.Unavailable("decrement stock", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return usecase.ErrInsufficientStock
		}
	}

	if len(p.CartSeqs) > 0 {
		args := make([]any, 0, len(p.CartSeqs)+1)
		args = append(args, p.UserSeq)
		for _, seq := range p.CartSeqs {
			args = append(args, seq)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM cart WHERE user_seq=? AND seq IN (`+placeholders(len(p.CartSeqs))+`)`,
			args...); err != nil {
			return usecase.Unavailable("purge cart lines", err)
		}
	}

	if err := r.outbox.InsertStatusChanged(ctx, tx, usecase.StatusChangedMsg{
		OrderNumber: p.OrderNumber,
		UserSeq:     p.UserSeq,
		Status:      string(domain.StatusPaid),
		PGProvider:  p.PGProvider,
		PaidAt:      p.PaidAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}); err != nil {
		return usecase.Unavailable("outbox event", err)
	}

	if err := tx.Commit(); err != nil {
		return usecase.Unavailable("commit settlement", err)
	}
	return nil
}

func (r *MySQLSettlementRepo) MarkFailed(ctx context.Context, userSeq int64, orderNumber string) error {
	return r.flip(ctx, userSeq, orderNumber, domain.StatusPending, domain.StatusFailed, nil)
}

func (r *MySQLSettlementRepo) CancelPending(ctx context.Context, userSeq int64, orderNumber string) error {
	return r.flip(ctx, userSeq, orderNumber, domain.StatusPending, domain.StatusCanceled, nil)
}

// CancelPaid restores the stock consumed at confirmation as part of
// the same transaction that flips the order.
func (r *MySQLSettlementRepo) CancelPaid(ctx context.Context, userSeq int64, orderNumber string, restock []domain.OrderLine) error {
	return r.flip(ctx, userSeq, orderNumber, domain.StatusPaid, domain.StatusCanceled, restock)
}

func (r *MySQLSettlementRepo) flip(ctx context.Context, userSeq int64, orderNumber string, from, to domain.Status, restock []domain.OrderLine) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return usecase.Unavailable("begin settlement tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
UPDATE orders SET status=?
WHERE order_number=? AND user_seq=? AND status=?`,
		string(to), orderNumber, userSeq, string(from))
	if err != nil {
		return usecase.Unavailable("flip order status", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return usecase.ErrInvalidState
	}

	for _, l := range restock {
		if _, err := tx.ExecContext(ctx,
			`UPDATE products SET stock_quantity = stock_quantity + ? WHERE seq=?`,
			l.Quantity, l.ProductSeq); err != nil {
			return usecase.Unavailable("restore stock", err)
		}
	}

	if err := r.outbox.InsertStatusChanged(ctx, tx, usecase.StatusChangedMsg{
		OrderNumber: orderNumber,
		UserSeq:     userSeq,
		Status:      string(to),
	}); err != nil {
		return usecase.Unavailable("outbox event", err)
	}

	if err := tx.Commit(); err != nil {
		return usecase.Unavailable("commit settlement", err)
	}
	return nil
}

var _ usecase.SettlementStore = (*MySQLSettlementRepo)(nil)

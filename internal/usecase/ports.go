package usecase

import (
	"context"
	"encoding/json"
	"time"

	domain "github.com/minshop/order-api/internal/entity"
)

// CartStore reads the caller's selected cart lines joined with live
// product data. Rows are ordered by cart seq descending. Line removal
// happens inside the settlement transaction, not through this port.
type CartStore interface {
	SelectedLines(ctx context.Context, userSeq int64, cartSeqs []int64) ([]domain.CartLine, error)
}

// OrderRepo owns the order aggregate outside of settlement.
type OrderRepo interface {
	// CreateWithLines persists header and lines as one transaction;
	// they must never exist independently of each other.
	CreateWithLines(ctx context.Context, o *domain.Order) error
	// GetByNumber loads an order owned by userSeq, lines included.
	GetByNumber(ctx context.Context, userSeq int64, orderNumber string) (*domain.Order, error)
	// GetPaidDetail loads a PAID order owned by userSeq together with
	// its lines, most recent line first.
	GetPaidDetail(ctx context.Context, userSeq int64, orderNumber string) (*domain.Order, error)
}

// FinalizePaidParams carries everything the store needs to commit a
// successful confirmation as one atomic unit.
type FinalizePaidParams struct {
	UserSeq     int64
	OrderNumber string
	PGProvider  string
	PaymentKey  string
	PaidAt      time.Time
	Lines       []domain.OrderLine
	CartSeqs    []int64
}

// SettlementStore executes the transactional state flips of the order
// state machine. Every method re-checks the expected current status
// inside its own transaction and fails with ErrInvalidState when a
// concurrent caller won the race.
type SettlementStore interface {
	// FinalizePaid flips PENDING->PAID, decrements stock for every
	// line (ErrInsufficientStock if any product cannot cover its
	// quantity), purges the consumed cart lines and records the
	// status-changed event, all in one transaction.
	FinalizePaid(ctx context.Context, p FinalizePaidParams) error
	// MarkFailed flips PENDING->FAILED after a definitive PG
	// rejection. Terminal.
	MarkFailed(ctx context.Context, userSeq int64, orderNumber string) error
	// CancelPending flips PENDING->CANCELED. No money moved, no stock
	// touched.
	CancelPending(ctx context.Context, userSeq int64, orderNumber string) error
	// CancelPaid flips PAID->CANCELED after a successful refund and
	// restores the stock consumed by the given lines.
	CancelPaid(ctx context.Context, userSeq int64, orderNumber string, restock []domain.OrderLine) error
}

// PaymentResult is what the PG reports on confirm/cancel. The PG is
// the system of record for payment state; only the Status string is
// trusted by the engine.
type PaymentResult struct {
	Status     string
	ApprovedAt time.Time
	Provider   string
	Raw        json.RawMessage
}

// PaymentGateway is the outbound PG port. A transport-level failure
// (unreachable, timeout) returns a non-nil error; a definitive PG
// response, success or rejection, returns a result with nil error.
type PaymentGateway interface {
	Confirm(ctx context.Context, paymentKey, orderNumber string, amount int64) (PaymentResult, error)
	Cancel(ctx context.Context, paymentKey, reason string) (PaymentResult, error)
}

// IdempotencyStore guards order creation against duplicate submission.
type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

// StatusCache holds a best-effort copy of order status for polling
// clients; the database stays authoritative.
type StatusCache interface {
	SetStatus(ctx context.Context, orderNumber string, status string) error
	GetStatus(ctx context.Context, orderNumber string) (string, bool, error)
}

// OrderEvents publishes the order.created event after a successful
// build. Best-effort: a publish failure never fails the creation.
type OrderEvents interface {
	PublishCreated(ctx context.Context, msg CreatedMsg) error
}

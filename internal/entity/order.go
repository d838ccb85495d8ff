package domain

import (
	"errors"
	"time"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusPaid     Status = "PAID"
	StatusCanceled Status = "CANCELED"
	StatusFailed   Status = "FAILED"
)

var ErrInvalidAmount = errors.New("invalid amount")

// Terminal reports whether no further transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusCanceled || s == StatusFailed
}

// CanTransition returns true for the allowed edges of the order state
// machine: PENDING->PAID, PENDING->CANCELED, PENDING->FAILED, and
// PAID->CANCELED (refund path).
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusPending:
		return to == StatusPaid || to == StatusCanceled || to == StatusFailed
	case StatusPaid:
		return to == StatusCanceled
	default:
		return false
	}
}

// Order is the aggregate root. OrderNumber is the external-facing
// identifier (the client and the PG both see it); Seq is the surrogate
// key and never leaves the persistence layer.
type Order struct {
	Seq         int64
	OrderNumber string
	UserSeq     int64

	ItemsTotal  int64
	ShippingFee int64
	OrderTotal  int64

	ReceiverName  string
	ReceiverPhone string
	ZipCode       string
	Address1      string
	Address2      string
	Memo          string

	Status     Status
	PGProvider string
	PaymentKey string
	PaidAt     *time.Time
	CreatedAt  time.Time

	Lines []OrderLine
}

// OrderLine snapshots product name and unit price at order-creation
// time; later catalog edits must not change a placed order.
type OrderLine struct {
	Seq         int64
	ProductSeq  int64
	ProductName string
	UnitPrice   int64
	Quantity    int
	LineTotal   int64
}

// CartLine is a read-only row borrowed from the cart subsystem, joined
// with the product's live name/price at read time.
type CartLine struct {
	CartSeq      int64
	ProductSeq   int64
	ProductName  string
	UnitPrice    int64
	Quantity     int
	ThumbnailURL string
	LineTotal    int64
}

// Totals is the priced summary of a line set.
type Totals struct {
	ItemsTotal  int64
	ShippingFee int64
	OrderTotal  int64
}

// Validate checks the monetary invariant of a built order:
// orderTotal == itemsTotal + shippingFee, all non-negative.
func (o *Order) Validate() error {
	if o.ItemsTotal <= 0 || o.OrderTotal <= 0 || o.ShippingFee < 0 {
		return ErrInvalidAmount
	}
	if o.OrderTotal != o.ItemsTotal+o.ShippingFee {
		return ErrInvalidAmount
	}
	return nil
}

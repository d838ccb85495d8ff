package usecase

import (
	"errors"
	"fmt"
)

// ErrKind classifies a settlement failure so callers can tell apart
// "retry is safe" (KindUnavailable), "retry will always fail"
// (KindInvalidState, KindAmountMismatch, KindAlreadyCanceled) and
// "retry requires different input" (KindNotFound, KindInsufficientStock).
type ErrKind int

const (
	KindUnknown ErrKind = iota
	KindNotFound
	KindInvalidInput
	KindInvalidState
	KindAlreadyCanceled
	KindAmountMismatch
	KindInsufficientStock
	KindPaymentRejected
	KindRefundRejected
	KindUnavailable
)

func (k ErrKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindInvalidState:
		return "invalid_state"
	case KindAlreadyCanceled:
		return "already_canceled"
	case KindAmountMismatch:
		return "amount_mismatch"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindPaymentRejected:
		return "payment_rejected"
	case KindRefundRejected:
		return "refund_rejected"
	case KindUnavailable:
		return "unavailable"
	}
	return "unknown"
}

// SettlementError is the tagged error type surfaced by every order
// operation. Errors of other types never cross the usecase boundary.
type SettlementError struct {
	Kind ErrKind
	Msg  string
	Err  error // underlying cause, if any
}

func (e *SettlementError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *SettlementError) Unwrap() error { return e.Err }

// Retryable reports whether the same call may succeed if repeated.
func (e *SettlementError) Retryable() bool { return e.Kind == KindUnavailable }

func settleErr(kind ErrKind, msg string) *SettlementError {
	return &SettlementError{Kind: kind, Msg: msg}
}

// Unavailable wraps a transport or storage failure; retrying the same
// call is safe.
func Unavailable(msg string, cause error) *SettlementError {
	return &SettlementError{Kind: KindUnavailable, Msg: msg, Err: cause}
}

// KindOf extracts the classification from any error returned by this
// package; KindUnknown for foreign errors.
func KindOf(err error) ErrKind {
	var se *SettlementError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// Shared sentinels. Stores return these directly when a guard inside
// the transaction fails; the engine passes them through untouched.
var (
	ErrOrderNotFound     = settleErr(KindNotFound, "order not found")
	ErrEmptySelection    = settleErr(KindInvalidInput, "no cart lines resolved for selection")
	ErrInvalidState      = settleErr(KindInvalidState, "operation not permitted in current order status")
	ErrAlreadyCanceled   = settleErr(KindAlreadyCanceled, "order is already canceled")
	ErrAmountMismatch    = settleErr(KindAmountMismatch, "payment amount does not match order total")
	ErrInsufficientStock = settleErr(KindInsufficientStock, "insufficient product stock")
	ErrInvalidAmount     = settleErr(KindInvalidInput, "order amount is not positive")
	ErrDuplicate         = settleErr(KindInvalidInput, "duplicate idempotency key")
)

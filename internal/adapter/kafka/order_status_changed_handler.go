package kafka

import (
	"context"

	"github.com/minshop/order-api/internal/usecase"
)

// OrderStatusChangedHandler applies settlement events to the status
// cache. The database already holds the authoritative state (the event
// was written by the settlement transaction itself), so this handler
// only keeps the polling cache coherent.
type OrderStatusChangedHandler struct {
	Cache usecase.StatusCache
}

func NewOrderStatusChangedHandler(cache usecase.StatusCache) *OrderStatusChangedHandler {
	return &OrderStatusChangedHandler{Cache: cache}
}

func (h *OrderStatusChangedHandler) Handle(ctx context.Context, ev usecase.StatusChangedMsg) error {
	if ev.OrderNumber == "" || ev.Status == "" {
		return nil // drop malformed events
	}
	return h.Cache.SetStatus(ctx, ev.OrderNumber, ev.Status)
}

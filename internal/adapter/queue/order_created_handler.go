package queue

import (
	"context"

	"github.com/minshop/order-api/internal/usecase"
)

// OrderCreatedHandler warms the status cache as soon as an order is
// built, so a client polling right after checkout never has to touch
// the database for a PENDING answer.
type OrderCreatedHandler struct {
	Cache usecase.StatusCache
}

func NewOrderCreatedHandler(cache usecase.StatusCache) *OrderCreatedHandler {
	return &OrderCreatedHandler{Cache: cache}
}

// HandleCreated is intended to be used with queue.JSONHandler[usecase.CreatedMsg].
func (h *OrderCreatedHandler) HandleCreated(ctx context.Context, msg usecase.CreatedMsg) error {
	if msg.OrderNumber == "" {
		return nil // drop malformed events
	}
	return h.Cache.SetStatus(ctx, msg.OrderNumber, msg.Status)
}

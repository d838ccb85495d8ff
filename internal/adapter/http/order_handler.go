package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	domain "github.com/minshop/order-api/internal/entity"
	"github.com/minshop/order-api/internal/adapter/http/middleware"
	"github.com/minshop/order-api/internal/usecase"
)

type OrderHandler struct {
	create  *usecase.CreateOrder
	confirm *usecase.ConfirmPayment
	cancel  *usecase.CancelOrder
	query   *usecase.GetPaidOrder
}

func NewOrderHandler(create *usecase.CreateOrder, confirm *usecase.ConfirmPayment,
	cancel *usecase.CancelOrder, query *usecase.GetPaidOrder) *OrderHandler {
	return &OrderHandler{create: create, confirm: confirm, cancel: cancel, query: query}
}

type createOrderReq struct {
	CartSeqList   []int64 `json:"cartSeqList" binding:"required,min=1"`
	ReceiverName  string  `json:"receiverName" binding:"required"`
	ReceiverPhone string  `json:"receiverPhone" binding:"required"`
	ZipCode       string  `json:"zipCode" binding:"required"`
	Address1      string  `json:"address1" binding:"required"`
	Address2      string  `json:"address2"`
	Memo          string  `json:"memo"`
}

type confirmPaymentReq struct {
	PaymentKey  string  `json:"paymentKey" binding:"required"`
	OrderNumber string  `json:"orderNumber" binding:"required"`
	Amount      int64   `json:"amount" binding:"required,gt=0"`
	CartSeqList []int64 `json:"cartSeqList" binding:"required,min=1"`
}

type cancelOrderReq struct {
	OrderNumber  string `json:"orderNumber" binding:"required"`
	CancelReason string `json:"cancelReason"`
}

// CreateOrder builds a PENDING order from the selected cart lines.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userSeq, ok := middleware.UserSeq(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	o, err := h.create.Execute(ctx, usecase.CreateOrderInput{
		UserSeq:        userSeq,
		CartSeqs:       req.CartSeqList,
		IdempotencyKey: c.GetHeader("X-Idempotency-Key"),
		ReceiverName:   req.ReceiverName,
		ReceiverPhone:  req.ReceiverPhone,
		ZipCode:        req.ZipCode,
		Address1:       req.Address1,
		Address2:       req.Address2,
		Memo:           req.Memo,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderJSON(o))
}

// Preview prices the selected cart lines without creating anything.
func (h *OrderHandler) Preview(c *gin.Context) {
	userSeq, ok := middleware.UserSeq(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		CartSeqList []int64 `json:"cartSeqList" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	p, err := h.create.Preview(ctx, userSeq, req.CartSeqList)
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]gin.H, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, gin.H{
			"cartSeq":      it.CartSeq,
			"productSeq":   it.ProductSeq,
			"name":         it.ProductName,
			"price":        it.UnitPrice,
			"quantity":     it.Quantity,
			"thumbnailUrl": it.ThumbnailURL,
			"lineTotal":    it.LineTotal,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"cartItems":   items,
		"itemsTotal":  p.Totals.ItemsTotal,
		"shippingFee": p.Totals.ShippingFee,
		"orderTotal":  p.Totals.OrderTotal,
	})
}

// ConfirmPayment settles a PENDING order against the PG.
func (h *OrderHandler) ConfirmPayment(c *gin.Context) {
	userSeq, ok := middleware.UserSeq(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req confirmPaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	// The PG call rides on this timeout too.
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	o, err := h.confirm.Execute(ctx, usecase.ConfirmPaymentInput{
		UserSeq:     userSeq,
		OrderNumber: req.OrderNumber,
		PaymentKey:  req.PaymentKey,
		Amount:      req.Amount,
		CartSeqs:    req.CartSeqList,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderJSON(o))
}

// CancelOrder cancels a PENDING order directly or refunds a PAID one.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userSeq, ok := middleware.UserSeq(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req cancelOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	o, err := h.cancel.Execute(ctx, usecase.CancelOrderInput{
		UserSeq:     userSeq,
		OrderNumber: req.OrderNumber,
		Reason:      req.CancelReason,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderJSON(o))
}

// GetOrder returns a completed (PAID) order with its line items.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userSeq, ok := middleware.UserSeq(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	o, err := h.query.Execute(ctx, userSeq, c.Param("orderNumber"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderJSON(o))
}

// GetOrderStatus answers lightweight status polling after checkout.
func (h *OrderHandler) GetOrderStatus(c *gin.Context) {
	userSeq, ok := middleware.UserSeq(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	st, err := h.query.Status(ctx, userSeq, c.Param("orderNumber"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orderNumber": c.Param("orderNumber"),
		"status":      st,
	})
}

func orderJSON(o *domain.Order) gin.H {
	lines := make([]gin.H, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, gin.H{
			"productSeq":  l.ProductSeq,
			"productName": l.ProductName,
			"unitPrice":   l.UnitPrice,
			"quantity":    l.Quantity,
			"lineTotal":   l.LineTotal,
		})
	}

	out := gin.H{
		"orderNumber":   o.OrderNumber,
		"itemsTotal":    o.ItemsTotal,
		"shippingFee":   o.ShippingFee,
		"orderTotal":    o.OrderTotal,
		"receiverName":  o.ReceiverName,
		"receiverPhone": o.ReceiverPhone,
		"zipCode":       o.ZipCode,
		"address1":      o.Address1,
		"address2":      o.Address2,
		"memo":          o.Memo,
		"status":        o.Status,
		"createdAt":     o.CreatedAt,
		"items":         lines,
	}
	if o.PGProvider != "" {
		out["pgProvider"] = o.PGProvider
	}
	if o.PaidAt != nil {
		out["paidAt"] = o.PaidAt
	}
	return out
}

// writeError maps the settlement error taxonomy to HTTP statuses. 503
// marks the only retry-safe class.
func writeError(c *gin.Context, err error) {
	kind := usecase.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case usecase.KindNotFound:
		status = http.StatusNotFound
	case usecase.KindInvalidInput, usecase.KindAmountMismatch:
		status = http.StatusBadRequest
	case usecase.KindInvalidState, usecase.KindAlreadyCanceled, usecase.KindInsufficientStock:
		status = http.StatusConflict
	case usecase.KindPaymentRejected, usecase.KindRefundRejected:
		status = http.StatusUnprocessableEntity
	case usecase.KindUnavailable:
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": kind.String(), "detail": err.Error()})
}

package http

import (
	"github.com/gin-gonic/gin"
	"github.com/minshop/order-api/internal/adapter/http/middleware"
	"github.com/minshop/order-api/internal/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *OrderHandler, authz *middleware.Authz) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())

	l := logging.New("http")
	r.Use(middleware.Logging(l))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		v1.POST("/orders", authz.Require("orders.write"), h.CreateOrder)
		v1.POST("/orders/preview", authz.Require("orders.read"), h.Preview)
		v1.POST("/orders/confirm", authz.Require("orders.write"), h.ConfirmPayment)
		v1.POST("/orders/cancel", authz.Require("orders.write"), h.CancelOrder)
		v1.GET("/orders/:orderNumber", authz.Require("orders.read"), h.GetOrder)
		v1.GET("/orders/:orderNumber/status", authz.Require("orders.read"), h.GetOrderStatus)
	}

	return r
}

package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var settlements = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "order_settlements_total",
		Help: "Settlement outcomes by operation and result",
	},
	[]string{"op", "result"},
)

func countSettlement(op string, err error) {
	if err == nil {
		settlements.WithLabelValues(op, "ok").Inc()
		return
	}
	settlements.WithLabelValues(op, KindOf(err).String()).Inc()
}

package exchange

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dexchange",
		Subsystem: "engine",
		Name:      "orders_created_total",
		Help:      "Orders accepted by the matching engine.",
	}, []string{"ticker", "side", "type"})

	tradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dexchange",
		Subsystem: "engine",
		Name:      "trades_total",
		Help:      "Settlement steps executed.",
	}, []string{"ticker"})

	bookDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "dexchange",
		Subsystem: "book",
		Name:      "depth",
		Help:      "Resting orders per ticker and side.",
	}, []string{"ticker", "side"})
)

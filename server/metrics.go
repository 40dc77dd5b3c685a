package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	clients     prometheus.Gauge
	messagesOut prometheus.Counter
	trades      prometheus.Counter
	tradedUnits prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		clients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "exchange_sim_ws_clients",
			Help: "Number of connected WebSocket clients.",
		}),
		messagesOut: factory.NewCounter(prometheus.CounterOpts{
			Name: "exchange_sim_ws_messages_out_total",
			Help: "Total WebSocket messages sent to clients.",
		}),
		trades: factory.NewCounter(prometheus.CounterOpts{
			Name: "exchange_sim_trades_total",
			Help: "Total trades executed by the matching engine.",
		}),
		tradedUnits: factory.NewCounter(prometheus.CounterOpts{
			Name: "exchange_sim_traded_units_total",
			Help: "Total quantity traded, in whole units.",
		}),
	}
}

package feed

import "github.com/prometheus/client_golang/prometheus"

var (
	metricClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "feed_clients_connected",
		Help: "Currently connected websocket clients",
	})
	metricCandles = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feed_candles_broadcast_total",
		Help: "Candle updates broadcast to subscribers",
	})
	metricDrops = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feed_drops_total",
		Help: "Messages dropped because a client send buffer was full",
	})
)

func init() {
	prometheus.MustRegister(metricClients, metricCandles, metricDrops)
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RoomsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "eyespy_rooms_created_total",
		Help: "Rooms created since process start.",
	})
	ActiveRooms = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "eyespy_active_rooms",
		Help: "Rooms currently held in the registry.",
	})
	ConnectedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "eyespy_connected_clients",
		Help: "Open reporting connections.",
	})
	ConnectedObservers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "eyespy_connected_observers",
		Help: "Open console connections.",
	})
	Broadcasts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "eyespy_broadcasts_total",
		Help: "Room snapshots fanned out to observers.",
	})
	DroppedDeliveries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "eyespy_dropped_deliveries_total",
		Help: "Snapshot deliveries dropped because an observer send buffer was full.",
	})
)

func init() {
	prometheus.MustRegister(
		RoomsCreated,
		ActiveRooms,
		ConnectedClients,
		ConnectedObservers,
		Broadcasts,
		DroppedDeliveries,
	)
}

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

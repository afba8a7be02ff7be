// internal/hub/metrics.go
package hub

import (
	"net/http"
	"strconv"

	"github.com/erilali/roomchat/internal/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the hub's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	connectionsAccepted prometheus.Counter
	connectedClients    prometheus.Gauge
	rooms               prometheus.Gauge
	framesReceived      *prometheus.CounterVec
	protocolErrors      *prometheus.CounterVec
	disconnects         *prometheus.CounterVec
	keepaliveTimeouts   prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roomchat",
			Name:      "connections_accepted_total",
			Help:      "Connections accepted on any transport.",
		}),
		connectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "roomchat",
			Name:      "registered_clients",
			Help:      "Clients currently holding a username.",
		}),
		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "roomchat",
			Name:      "rooms",
			Help:      "Rooms created since start.",
		}),
		framesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roomchat",
			Name:      "frames_received_total",
			Help:      "Frames received from registered clients, by command.",
		}, []string{"command"}),
		protocolErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roomchat",
			Name:      "protocol_errors_total",
			Help:      "ERROR frames sent to clients, by code.",
		}, []string{"code"}),
		disconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roomchat",
			Name:      "disconnects_total",
			Help:      "Connections closed, by reason.",
		}, []string{"reason"}),
		keepaliveTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roomchat",
			Name:      "keepalive_timeouts_total",
			Help:      "Clients dropped for missing heartbeats.",
		}),
	}
	m.registry.MustRegister(
		m.connectionsAccepted,
		m.connectedClients,
		m.rooms,
		m.framesReceived,
		m.protocolErrors,
		m.disconnects,
		m.keepaliveTimeouts,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gather exposes the registry for tests and ad-hoc inspection.
func (m *Metrics) Gather() (map[string]float64, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			key := mf.GetName()
			for _, label := range metric.GetLabel() {
				key += "{" + label.GetName() + "=" + label.GetValue() + "}"
			}
			switch {
			case metric.GetCounter() != nil:
				out[key] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				out[key] = metric.GetGauge().GetValue()
			}
		}
	}
	return out, nil
}

var knownCommands = map[string]bool{
	message.CmdName: true, message.CmdStillAlive: true, message.CmdJoin: true,
	message.CmdRooms: true, message.CmdUsers: true, message.CmdLeave: true,
	message.CmdMessage: true, message.CmdMessageUser: true, message.CmdQuit: true,
	message.CmdError: true,
}

// frameReceived counts a frame, folding unknown commands into one label so
// peers cannot grow the label set.
func (m *Metrics) frameReceived(command string) {
	if !knownCommands[command] {
		command = "unknown"
	}
	m.framesReceived.WithLabelValues(command).Inc()
}

func (m *Metrics) protocolError(code int) {
	m.protocolErrors.WithLabelValues(strconv.Itoa(code)).Inc()
}

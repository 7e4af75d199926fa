package transport

import "github.com/chimera-labs/execution-governor/internal/telemetry"

// WSHubTelemetrySink fans telemetry records out to connected dashboard
// clients via the hub's broadcast channel.
type WSHubTelemetrySink struct {
	hub *telemetry.Hub
}

func NewWSHubTelemetrySink(hub *telemetry.Hub) *WSHubTelemetrySink {
	return &WSHubTelemetrySink{hub: hub}
}

func (s *WSHubTelemetrySink) Record(eventType string, payload interface{}) {
	s.hub.Broadcast(eventType, payload)
}

// MultiSink fans one record out to every sink it wraps, letting the
// governor report once while reaching each of them.
type MultiSink struct {
	sinks []TelemetrySink
}

func NewMultiSink(sinks ...TelemetrySink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) Record(eventType string, payload interface{}) {
	for _, s := range m.sinks {
		s.Record(eventType, payload)
	}
}

package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the process-wide Prometheus registry and the gauges/counters
// the governor's hot-adjacent code updates.
type Metrics struct {
	Registry *prometheus.Registry

	IntentsPushed    prometheus.Counter
	IntentsDropped   prometheus.Counter
	GateBlocks       *prometheus.CounterVec
	LatencyRegime    *prometheus.GaugeVec
	AllocatorNotional *prometheus.GaugeVec
	DailyLossUsed    prometheus.Gauge
	WatchdogFlattens prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		IntentsPushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chimera", Name: "intents_pushed_total",
			Help: "Total intents accepted onto a symbol ring.",
		}),
		IntentsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chimera", Name: "intents_dropped_total",
			Help: "Total intents dropped because their symbol ring was full.",
		}),
		GateBlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chimera", Name: "gate_blocks_total",
			Help: "Count of intents blocked, labeled by block reason.",
		}, []string{"reason"}),
		LatencyRegime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "chimera", Name: "latency_regime",
			Help: "Current latency regime per symbol (0=FAST,1=NORMAL,2=DEGRADED).",
		}, []string{"symbol"}),
		AllocatorNotional: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "chimera", Name: "allocator_notional",
			Help: "Current committed+reserved notional, labeled by slot kind and key.",
		}, []string{"kind", "key", "state"}),
		DailyLossUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chimera", Name: "daily_loss_drawdown_used",
			Help: "Fraction of the daily loss limit currently used, in [0,1].",
		}),
		WatchdogFlattens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chimera", Name: "watchdog_flattens_total",
			Help: "Total watchdog-triggered flatten events.",
		}),
	}

	reg.MustRegister(m.IntentsPushed, m.IntentsDropped, m.GateBlocks, m.LatencyRegime,
		m.AllocatorNotional, m.DailyLossUsed, m.WatchdogFlattens)
	return m
}

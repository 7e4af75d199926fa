// Package config holds process-wide settings. Static fields are a flat
// struct loaded once at startup; a small subset explicitly marked
// hot-swappable lives behind atomic scalars so operators can retune them
// without a restart.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
)

// Config is immutable after Load except the fields backed by the Hot
// sub-struct.
type Config struct {
	NATSUrl  string `json:"nats_url"`
	HTTPPort int    `json:"http_port"`
	WSPort   int    `json:"ws_port"`

	RingCapacity int `json:"ring_capacity"`

	VenueStalenessMaxNs uint64 `json:"venue_staleness_max_ns"`
	VenueLatencyMaxNs   uint64 `json:"venue_latency_max_ns"`
	VenueRejectMax      uint64 `json:"venue_reject_max"`

	LatencyWindowSize int `json:"latency_window_size"`
	FastRegimeP95Ms   int `json:"fast_regime_p95_ms"`
	NormalRegimeP95Ms int `json:"normal_regime_p95_ms"`

	GlobalNotionalCap float64 `json:"global_notional_cap"`
	HFTWeight         float64 `json:"hft_weight"`
	StructureWeight   float64 `json:"structure_weight"`

	SoftCooldownMs int64 `json:"soft_cooldown_ms"`
	HardCooldownMs int64 `json:"hard_cooldown_ms"`

	ImpulseSoft float64 `json:"impulse_soft"`
	ImpulseMed  float64 `json:"impulse_med"`
	ImpulseHard float64 `json:"impulse_hard"`

	TPDecayTauMs float64 `json:"tp_decay_tau_ms"`

	BootstrapMinTicks        int   `json:"bootstrap_min_ticks"`
	BootstrapMinIntents      int   `json:"bootstrap_min_intents"`
	BootstrapMinBookValidMs  int64 `json:"bootstrap_min_book_valid_ms"`

	WatchdogHangMs int64 `json:"watchdog_hang_ms"`

	CorePinning map[string]uint32 `json:"core_pinning"`

	Hot *Hot `json:"-"`
}

// Hot holds the hot-swappable limits (daily loss limit, max rejects): atomic
// scalars an operator can retune at runtime without restarting the process.
// The blend weights are plain Config fields and are not hot-swappable.
type Hot struct {
	DailyLossLimit atomic.Value // float64
	MaxRejects     atomic.Uint64
}

func (h *Hot) SetDailyLossLimit(v float64) { h.DailyLossLimit.Store(v) }

func (h *Hot) GetDailyLossLimit() float64 {
	v, _ := h.DailyLossLimit.Load().(float64)
	return v
}

func Default() Config {
	c := Config{
		NATSUrl:      "nats://localhost:4222",
		HTTPPort:     8090,
		WSPort:       8091,
		RingCapacity: 1024,

		VenueStalenessMaxNs: 5_000_000_000,
		VenueLatencyMaxNs:   500_000_000,
		VenueRejectMax:      10,

		LatencyWindowSize: 2048,
		FastRegimeP95Ms:   6,
		NormalRegimeP95Ms: 10,

		GlobalNotionalCap: 1_000_000,
		HFTWeight:         0.6,
		StructureWeight:   0.4,

		SoftCooldownMs: 800,
		HardCooldownMs: 400,

		ImpulseSoft: 0.10,
		ImpulseMed:  0.15,
		ImpulseHard: 0.25,

		TPDecayTauMs: 120,

		BootstrapMinTicks:       100,
		BootstrapMinIntents:     40,
		BootstrapMinBookValidMs: 30_000,

		WatchdogHangMs: 500,

		CorePinning: make(map[string]uint32),

		Hot: &Hot{},
	}
	c.Hot.SetDailyLossLimit(10_000)
	c.Hot.MaxRejects.Store(20)
	return c
}

// Load reads a JSON config file over the defaults; an absent or partial
// file is not an error — fields missing from the file keep their default.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return c, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if c.RingCapacity <= 0 || c.RingCapacity&(c.RingCapacity-1) != 0 {
		return c, fmt.Errorf("config: ring_capacity %d must be a positive power of two", c.RingCapacity)
	}
	return c, nil
}

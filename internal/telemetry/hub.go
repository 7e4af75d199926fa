// Package telemetry fans governor events — gate decisions, fills,
// regime/lockdown transitions — off the hot path to any number of
// connected WebSocket dashboards, plus a Prometheus registry and an HTTP
// control surface for operators.
package telemetry

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event is one telemetry record. Data is intentionally opaque — the hub
// does not interpret it, only timestamps, sequences, and fans it out.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	SeqID     uint64      `json:"seq_id"`
	Timestamp time.Time   `json:"timestamp"`
}

// Client is one connected WebSocket subscriber.
type Client struct {
	ID     string
	SendCh chan []byte
	Done   chan struct{}
}

// HubStats tracks connection/drop counters for the telemetry endpoint.
type HubStats struct {
	ActiveConnections int    `json:"active_connections"`
	TotalConnections  uint64 `json:"total_connections"`
	TotalDisconnects  uint64 `json:"total_disconnects"`
	MessagesBroadcast uint64 `json:"messages_broadcast"`
	SlowClientDrops   uint64 `json:"slow_client_drops"`
}

// Hub fans Event records out to every registered Client, dropping clients
// whose send buffer is full rather than blocking the broadcaster.
type Hub struct {
	log zerolog.Logger

	mu         sync.RWMutex
	clients    map[string]*Client
	broadcast  chan Event
	register   chan *Client
	unregister chan string
	maxClients int
	stats      HubStats

	seq uint64
}

func NewHub(maxClients int, log zerolog.Logger) *Hub {
	return &Hub{
		log:        log.With().Str("component", "telemetry_hub").Logger(),
		clients:    make(map[string]*Client),
		broadcast:  make(chan Event, 5000),
		register:   make(chan *Client, 100),
		unregister: make(chan string, 100),
		maxClients: maxClients,
	}
}

// Run drives the hub's single goroutine for client registration and
// broadcast fan-out. Intended to run for the process lifetime.
func (h *Hub) Run() {
	h.log.Info().Msg("telemetry hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if len(h.clients) >= h.maxClients {
				h.log.Warn().Int("max_clients", h.maxClients).Str("client_id", client.ID).Msg("rejecting connection, at capacity")
				close(client.Done)
			} else {
				h.clients[client.ID] = client
				h.stats.ActiveConnections = len(h.clients)
				h.stats.TotalConnections++
				h.log.Debug().Str("client_id", client.ID).Int("total", len(h.clients)).Msg("client connected")
			}
			h.mu.Unlock()

		case clientID := <-h.unregister:
			h.mu.Lock()
			if client, ok := h.clients[clientID]; ok {
				close(client.SendCh)
				delete(h.clients, clientID)
				h.stats.ActiveConnections = len(h.clients)
				h.stats.TotalDisconnects++
				h.log.Debug().Str("client_id", clientID).Int("total", len(h.clients)).Msg("client disconnected")
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				h.log.Error().Err(err).Msg("event marshal failed")
				continue
			}

			h.mu.RLock()
			for id, client := range h.clients {
				select {
				case client.SendCh <- data:
				default:
					h.log.Warn().Str("client_id", id).Msg("slow client dropped")
					h.stats.SlowClientDrops++
					go func(cid string) { h.unregister <- cid }(id)
				}
			}
			h.stats.MessagesBroadcast++
			h.mu.RUnlock()
		}
	}
}

// Broadcast enqueues event for fan-out, assigning it the next sequence
// number. Non-blocking: a full broadcast channel drops the event.
func (h *Hub) Broadcast(eventType string, data interface{}) {
	h.mu.Lock()
	h.seq++
	seq := h.seq
	h.mu.Unlock()

	select {
	case h.broadcast <- Event{Type: eventType, Data: data, SeqID: seq, Timestamp: time.Now()}:
	default:
		h.log.Warn().Str("type", eventType).Msg("broadcast channel full, dropping event")
	}
}

func (h *Hub) Register(client *Client)    { h.register <- client }
func (h *Hub) Unregister(clientID string) { h.unregister <- clientID }

func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stats
}

package telemetry

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// ControlOps is the subset of the registry's control-plane surface exposed
// over HTTP, restricted to operator callers by bearerAuth.
type ControlOps interface {
	ResetDailyGuard()
	ClearDriftKill()
	SetSymbolEnabled(symbol string, enabled bool)
}

// Routes builds the full HTTP surface: public health/metrics/websocket
// endpoints plus bearer-authenticated operator control endpoints.
func Routes(hub *Hub, metrics *Metrics, ops ControlOps, operatorToken string, log zerolog.Logger) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]interface{}{"status": "healthy"})
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/telemetry/stats", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, hub.Stats())
	}).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		ServeWS(hub, log, w, req)
	})

	control := r.PathPrefix("/api/control").Subrouter()
	control.Use(bearerAuth(operatorToken))

	control.HandleFunc("/reset-daily-guard", func(w http.ResponseWriter, req *http.Request) {
		ops.ResetDailyGuard()
		writeJSON(w, map[string]bool{"ok": true})
	}).Methods(http.MethodPost)

	control.HandleFunc("/clear-drift-kill", func(w http.ResponseWriter, req *http.Request) {
		ops.ClearDriftKill()
		writeJSON(w, map[string]bool{"ok": true})
	}).Methods(http.MethodPost)

	control.HandleFunc("/symbol-enabled", func(w http.ResponseWriter, req *http.Request) {
		var payload struct {
			Symbol  string `json:"symbol"`
			Enabled bool   `json:"enabled"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		ops.SetSymbolEnabled(payload.Symbol, payload.Enabled)
		writeJSON(w, map[string]bool{"ok": true})
	}).Methods(http.MethodPost)

	return r
}

// bearerAuth restricts operator-only control endpoints to callers presenting
// the configured token.
func bearerAuth(token string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" || r.Header.Get("Authorization") != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// CORSMiddleware is a permissive CORS wrapper for a browser-facing
// dashboard.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

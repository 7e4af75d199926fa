package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type fakeOps struct {
	resetCalled bool
	clearCalled bool
	lastSymbol  string
	lastEnabled bool
}

func (f *fakeOps) ResetDailyGuard() { f.resetCalled = true }
func (f *fakeOps) ClearDriftKill()  { f.clearCalled = true }
func (f *fakeOps) SetSymbolEnabled(symbol string, enabled bool) {
	f.lastSymbol = symbol
	f.lastEnabled = enabled
}

func testRouter(ops *fakeOps, token string) http.Handler {
	hub := NewHub(10, zerolog.Nop())
	metrics := NewMetrics()
	return Routes(hub, metrics, ops, token, zerolog.Nop())
}

func TestHealthEndpointIsPublic(t *testing.T) {
	router := testRouter(&fakeOps{}, "secret")
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsEndpointIsPublic(t *testing.T) {
	router := testRouter(&fakeOps{}, "secret")
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestControlEndpointRejectsMissingToken(t *testing.T) {
	router := testRouter(&fakeOps{}, "secret")
	req := httptest.NewRequest(http.MethodPost, "/api/control/reset-daily-guard", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestControlEndpointRejectsWrongToken(t *testing.T) {
	ops := &fakeOps{}
	router := testRouter(ops, "secret")
	req := httptest.NewRequest(http.MethodPost, "/api/control/reset-daily-guard", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if ops.resetCalled {
		t.Fatal("operation must not run with a bad token")
	}
}

func TestResetDailyGuardWithValidToken(t *testing.T) {
	ops := &fakeOps{}
	router := testRouter(ops, "secret")
	req := httptest.NewRequest(http.MethodPost, "/api/control/reset-daily-guard", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !ops.resetCalled {
		t.Fatal("expected ResetDailyGuard to be called")
	}
}

func TestClearDriftKillWithValidToken(t *testing.T) {
	ops := &fakeOps{}
	router := testRouter(ops, "secret")
	req := httptest.NewRequest(http.MethodPost, "/api/control/clear-drift-kill", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if !ops.clearCalled {
		t.Fatal("expected ClearDriftKill to be called")
	}
}

func TestSetSymbolEnabledDecodesBody(t *testing.T) {
	ops := &fakeOps{}
	router := testRouter(ops, "secret")
	body := strings.NewReader(`{"symbol":"XAUUSD","enabled":false}`)
	req := httptest.NewRequest(http.MethodPost, "/api/control/symbol-enabled", body)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ops.lastSymbol != "XAUUSD" || ops.lastEnabled != false {
		t.Fatalf("unexpected ops state: %+v", ops)
	}
}

func TestSetSymbolEnabledRejectsMalformedBody(t *testing.T) {
	ops := &fakeOps{}
	router := testRouter(ops, "secret")
	body := strings.NewReader(`not json`)
	req := httptest.NewRequest(http.MethodPost, "/api/control/symbol-enabled", body)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kiwari-pos/ordering/internal/config"
	"github.com/kiwari-pos/ordering/internal/router"
	"github.com/kiwari-pos/ordering/internal/session"
	"github.com/kiwari-pos/ordering/internal/ws"
	"go.uber.org/zap"
)

func newTestRouter() http.Handler {
	r, _ := newTestRouterWithRegistry()
	return r
}

func newTestRouterWithRegistry() (http.Handler, *session.Registry) {
	cfg := &config.Config{
		JWTSecret:      "test-secret",
		SessionTTL:     time.Hour,
		AllowedOrigins: []string{"http://localhost:5173"},
	}
	logger := zap.NewNop()
	hub := ws.NewHub(logger)
	reg := session.NewRegistry(nil, hub, logger, session.Options{})
	return router.New(cfg, reg, hub, logger), reg
}

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
}

func TestSessionFlow(t *testing.T) {
	r := newTestRouter()

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("POST", "/sessions", nil))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create session: got %d; body: %s", rr.Code, rr.Body.String())
	}
	var sess struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"id": "nasi", "name": "Nasi Bakar", "unit_price": "25000"})
	req := httptest.NewRequest("POST", "/cart/items", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("add item: got %d; body: %s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest("GET", "/filters/normalize?sort_by=name", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("normalize: got %d", rr.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter()
	for _, path := range []string{"/cart", "/orders", "/filters/normalize"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest("GET", path, nil))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s: got %d, want 401", path, rr.Code)
		}
	}
}

func TestEndSessionDropsCart(t *testing.T) {
	r, reg := newTestRouterWithRegistry()

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("POST", "/sessions", nil))
	var sess struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	req := httptest.NewRequest("GET", "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	r.ServeHTTP(httptest.NewRecorder(), req)
	if reg.Len() != 1 {
		t.Fatalf("expected 1 live cart, got %d", reg.Len())
	}

	req = httptest.NewRequest("DELETE", "/sessions/current", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("end session: got %d", rr.Code)
	}
	if reg.Len() != 0 {
		t.Errorf("expected cart dropped, %d live", reg.Len())
	}
}

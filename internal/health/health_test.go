package health_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vladislavdragonenkov/storefront/internal/health"
)

func serve(t *testing.T, h *health.Handler) (*httptest.ResponseRecorder, health.Response) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var resp health.Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rec, resp
}

func TestHandler_AllHealthy(t *testing.T) {
	h := health.NewHandler("1.2.3")
	h.Register("store", func() error { return nil })
	h.Register("cache", func() error { return nil })

	rec, resp := serve(t, h)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if resp.Status != health.StatusHealthy {
		t.Fatalf("expected healthy, got %s", resp.Status)
	}
	if resp.Version != "1.2.3" {
		t.Fatalf("expected version 1.2.3, got %s", resp.Version)
	}
	if len(resp.Checks) != 2 {
		t.Fatalf("expected 2 checks, got %d", len(resp.Checks))
	}
	for name, check := range resp.Checks {
		if check.Status != health.StatusHealthy {
			t.Fatalf("check %s: expected healthy, got %s", name, check.Status)
		}
	}
}

func TestHandler_UnhealthyComponentLowersOverall(t *testing.T) {
	h := health.NewHandler("")
	h.Register("store", func() error { return errors.New("connection refused") })
	h.Register("cache", func() error { return nil })

	rec, resp := serve(t, h)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if resp.Status != health.StatusUnhealthy {
		t.Fatalf("expected unhealthy overall, got %s", resp.Status)
	}
	if resp.Checks["store"].Message != "connection refused" {
		t.Fatalf("expected failure message, got %q", resp.Checks["store"].Message)
	}
	if resp.Checks["cache"].Status != health.StatusHealthy {
		t.Fatalf("healthy check must stay healthy")
	}
}

func TestHandler_NoChecks(t *testing.T) {
	h := health.NewHandler("")

	rec, resp := serve(t, h)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with no checks, got %d", rec.Code)
	}
	if resp.Status != health.StatusHealthy {
		t.Fatalf("expected healthy with no checks, got %s", resp.Status)
	}
}

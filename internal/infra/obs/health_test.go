package obs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func readyz(t *testing.T, h HealthHandlers) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/readyz", h.Readyz)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec.Code, body
}

func TestReadyWithoutChecks(t *testing.T) {
	code, body := readyz(t, HealthHandlers{})
	if code != http.StatusOK || body["status"] != "ready" {
		t.Fatalf("expected ready, got %d %v", code, body)
	}
}

func TestReadyReportsFailingCheck(t *testing.T) {
	code, body := readyz(t, HealthHandlers{Checks: map[string]Check{
		"mongo":    func(context.Context) error { return errors.New("no reachable servers") },
		"snapshot": func(context.Context) error { return nil },
	}})
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	checks, _ := body["checks"].(map[string]any)
	if checks["mongo"] != "no reachable servers" || checks["snapshot"] != "ok" {
		t.Fatalf("expected per-check results, got %v", body)
	}
}

package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mahi13singh2004/AIKYAM/internal/pkg/metrics"
)

func TestObserveAttempt(t *testing.T) {
	c := metrics.RouteAttempts.WithLabelValues("WALKING", "false", "accepted")
	before := testutil.ToFloat64(c)

	metrics.ObserveAttempt("WALKING", false, "accepted")

	if got := testutil.ToFloat64(c); got != before+1 {
		t.Errorf("expected counter %v, got %v", before+1, got)
	}
}

func TestObserveSearch(t *testing.T) {
	c := metrics.RouteSearches.WithLabelValues("no_safe_route")
	before := testutil.ToFloat64(c)

	metrics.ObserveSearch("no_safe_route", 1500*time.Millisecond)

	if got := testutil.ToFloat64(c); got != before+1 {
		t.Errorf("expected counter %v, got %v", before+1, got)
	}
}

type fakeStat struct{}

func (fakeStat) AcquiredConns() int32 { return 3 }
func (fakeStat) IdleConns() int32     { return 7 }
func (fakeStat) TotalConns() int32    { return 10 }

func TestUpdateDBPoolMetrics(t *testing.T) {
	metrics.UpdateDBPoolMetrics(fakeStat{})

	if got := testutil.ToFloat64(metrics.DBPoolConnsOpen); got != 10 {
		t.Errorf("expected 10 open conns, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.DBPoolConnsIdle); got != 7 {
		t.Errorf("expected 7 idle conns, got %v", got)
	}
}

func TestHandler_ServesExposition(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(metrics.Middleware())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })
	app.Get("/metrics", metrics.Handler())

	if _, err := app.Test(httptest.NewRequest("GET", "/ping", nil), -1); err != nil {
		t.Fatal(err)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), `aikyam_http_requests_total{method="GET",path="/ping",status="200"}`) {
		t.Error("expected /ping request to be counted")
	}
}

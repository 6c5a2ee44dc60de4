package monitor

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMonitor_Counters(t *testing.T) {
	m := NewMonitor("test", prometheus.NewRegistry())

	m.IncGamesCreated()
	m.IncCardsSubmitted()
	m.IncCardsSubmitted()
	m.IncInFlight()
	m.IncInFlight()
	m.DecInFlight()

	if got := testutil.ToFloat64(m.Metrics().GamesCreated); got != 1 {
		t.Errorf("Expected 1 game created, got %v", got)
	}
	if got := testutil.ToFloat64(m.Metrics().CardsSubmitted); got != 2 {
		t.Errorf("Expected 2 cards submitted, got %v", got)
	}
	if got := testutil.ToFloat64(m.Metrics().InFlight); got != 1 {
		t.Errorf("Expected 1 operation in flight, got %v", got)
	}
}

func TestMonitor_ObserveOperation(t *testing.T) {
	m := NewMonitor("test", prometheus.NewRegistry())

	m.ObserveOperation("judge", time.Millisecond, "")
	m.ObserveOperation("judge", time.Millisecond, "ROUND_INCOMPLETE")

	if m.Requests() != 2 {
		t.Errorf("Expected 2 requests, got %d", m.Requests())
	}
	if got := testutil.ToFloat64(m.Metrics().OperationErrors.WithLabelValues("judge", "ROUND_INCOMPLETE")); got != 1 {
		t.Errorf("Expected 1 judge error, got %v", got)
	}
}

func TestMonitor_Handler(t *testing.T) {
	m := NewMonitor("test", prometheus.NewRegistry())
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/debug/vars")
	if err != nil {
		t.Fatalf("GET /debug/vars failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "uptime") {
		t.Errorf("Expected uptime in expvar output, got %s", body)
	}
}

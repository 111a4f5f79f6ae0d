package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestIncRelayStall(t *testing.T) {
	initial := testutil.ToFloat64(RelayStallsTotal.WithLabelValues("test-video"))
	IncRelayStall("test-video")
	IncRelayStall("test-video")
	actual := testutil.ToFloat64(RelayStallsTotal.WithLabelValues("test-video"))
	if actual != initial+2 {
		t.Fatalf("expected stall counter to increase by 2, got initial=%v actual=%v", initial, actual)
	}
}

func TestSetRelayDepth(t *testing.T) {
	SetRelayDepth("test-audio", 7)
	if got := testutil.ToFloat64(RelayDepth.WithLabelValues("test-audio")); got != 7 {
		t.Fatalf("expected depth 7, got %v", got)
	}
	SetRelayDepth("test-audio", 0)
	if got := testutil.ToFloat64(RelayDepth.WithLabelValues("test-audio")); got != 0 {
		t.Fatalf("expected depth 0, got %v", got)
	}
}

func TestObserveSession_LabelsByResult(t *testing.T) {
	ok := testutil.ToFloat64(SessionsTotal.WithLabelValues("success"))
	failed := testutil.ToFloat64(SessionsTotal.WithLabelValues("failure"))

	ObserveSession(true, time.Second)
	ObserveSession(false, 2*time.Second)

	if got := testutil.ToFloat64(SessionsTotal.WithLabelValues("success")); got != ok+1 {
		t.Errorf("success: expected %v, got %v", ok+1, got)
	}
	if got := testutil.ToFloat64(SessionsTotal.WithLabelValues("failure")); got != failed+1 {
		t.Errorf("failure: expected %v, got %v", failed+1, got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	AddBytesSent("video", 1024)
	IncChunk(true)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	promhttp.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, name := range []string{"framecast_bytes_sent_total", "framecast_chunks_total"} {
		if !strings.Contains(body, name) {
			t.Errorf("expected %s in metrics output", name)
		}
	}
}

package ops

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/metronon/likewise/internal/config"
)

func TestLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&config.Logging{Level: "info", Format: "json"}, &buf)
	logger.Info("hello", "key", "value")

	out := buf.String()
	if !strings.Contains(out, `"msg":"hello"`) || !strings.Contains(out, `"key":"value"`) {
		t.Errorf("json output missing fields: %s", out)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&config.Logging{Level: "warn", Format: "text"}, &buf)

	logger.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("info logged at warn level: %s", buf.String())
	}
	logger.Warn("emitted")
	if !strings.Contains(buf.String(), "emitted") {
		t.Error("warn not logged at warn level")
	}
	if logger.IsDebugEnabled() {
		t.Error("debug should be disabled at warn level")
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&config.Logging{Level: "info", Format: "text"}, &buf)
	logger.WithComponent("syncer").Info("flush completed")

	if !strings.Contains(buf.String(), "component=syncer") {
		t.Errorf("component field missing: %s", buf.String())
	}
}

func TestMetricsExposedOnRegistry(t *testing.T) {
	m := NewMetrics()
	m.Toggles.WithLabelValues("POST", "like").Inc()
	m.QueueDepth.Set(3)

	rec := httptest.NewRecorder()
	handler := promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, `likewise_toggles_total{direction="like",resource_type="POST"} 1`) {
		t.Errorf("toggle counter missing from exposition:\n%s", body)
	}
	if !strings.Contains(body, "likewise_pending_queue_depth 3") {
		t.Errorf("queue depth gauge missing from exposition:\n%s", body)
	}
}

func TestMetricsIndependentRegistries(t *testing.T) {
	// Two instances must not collide; each test and process wires its own
	a := NewMetrics()
	b := NewMetrics()
	a.FlushBatches.Inc()

	if a.Registry() == b.Registry() {
		t.Fatal("metrics instances share a registry")
	}
}

package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/menta2k/chart-watch/internal/sink"
	"github.com/menta2k/chart-watch/pkg/monitor"
	"github.com/menta2k/chart-watch/pkg/provider"
	"github.com/menta2k/chart-watch/pkg/types"
)

// stubCapture satisfies monitor.CaptureSource without touching a display.
type stubCapture struct{}

func (stubCapture) Capture(region types.Region) ([]byte, error) {
	return []byte("frame"), nil
}

func newTestServer(creds map[string]string) (*Server, *monitor.Loop) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := provider.NewRegistry(creds, nil, "")
	consoleSink := sink.New(log, "")
	loop := monitor.New(monitor.Config{
		ProviderID: provider.OpenAI,
		Interval:   time.Hour,
		ProbeDelay: time.Hour,
	}, stubCapture{}, reg, consoleSink, log)
	return New(loop, consoleSink, log), loop
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(nil)
	rec := doRequest(t, s.Router(), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}

func TestGetConfig(t *testing.T) {
	s, _ := newTestServer(map[string]string{provider.OpenAI: "sk-test"})
	rec := doRequest(t, s.Router(), http.MethodGet, "/config", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var st monitor.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("bad config JSON: %v", err)
	}
	if st.ProviderID != provider.OpenAI || !st.HasCredential || st.Running {
		t.Errorf("Unexpected status: %+v", st)
	}
}

func TestStartPreconditions(t *testing.T) {
	// No region: start must be rejected and the loop left idle.
	s, loop := newTestServer(map[string]string{provider.OpenAI: "sk-test"})
	rec := doRequest(t, s.Router(), http.MethodPost, "/start", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 without region, got %d", rec.Code)
	}
	if loop.Config().Running {
		t.Error("Expected loop to stay idle")
	}

	// No credential: same policy.
	s2, _ := newTestServer(nil)
	doRequest(t, s2.Router(), http.MethodPut, "/region", `{"x":0,"y":0,"width":100,"height":100}`)
	rec = doRequest(t, s2.Router(), http.MethodPost, "/start", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 without credential, got %d", rec.Code)
	}
}

func TestStartStopFlow(t *testing.T) {
	s, loop := newTestServer(map[string]string{provider.OpenAI: "sk-test"})
	router := s.Router()

	rec := doRequest(t, router, http.MethodPut, "/region", `{"x":10,"y":20,"width":300,"height":200}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 setting region, got %d: %s", rec.Code, rec.Body)
	}

	rec = doRequest(t, router, http.MethodPost, "/start", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 on start, got %d: %s", rec.Code, rec.Body)
	}
	if !loop.Config().Running {
		t.Error("Expected loop to be running")
	}

	rec = doRequest(t, router, http.MethodPost, "/stop", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 on stop, got %d", rec.Code)
	}
	if loop.Config().Running {
		t.Error("Expected loop to be idle after stop")
	}
}

func TestSetRegionRejectsInvalid(t *testing.T) {
	s, _ := newTestServer(nil)
	router := s.Router()

	for _, body := range []string{
		`{"x":0,"y":0,"width":0,"height":100}`,
		`not json`,
	} {
		rec := doRequest(t, router, http.MethodPut, "/region", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for %q, got %d", body, rec.Code)
		}
	}
}

func TestSwitchProvider(t *testing.T) {
	s, loop := newTestServer(map[string]string{
		provider.OpenAI: "sk-test",
		provider.Claude: "ant-test",
	})
	router := s.Router()

	rec := doRequest(t, router, http.MethodPut, "/provider", `{"id":"claude"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if got := loop.Config().ProviderID; got != provider.Claude {
		t.Errorf("Expected provider claude, got %s", got)
	}

	rec = doRequest(t, router, http.MethodPut, "/provider", `{"id":"perplexity"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for missing credential, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPut, "/provider", `{"id":"grok"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown provider, got %d", rec.Code)
	}
}

func TestGetAnalysisBeforeFirstCycle(t *testing.T) {
	s, _ := newTestServer(nil)
	rec := doRequest(t, s.Router(), http.MethodGet, "/analysis", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 before the first analysis, got %d", rec.Code)
	}
}

package inspect

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/rover/internal/metrics"
)

type snapshot struct {
	Cwd     string   `json:"cwd"`
	Plugins []string `json:"plugins"`
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandler_State(t *testing.T) {
	var current *snapshot
	h := NewHandler(func() any {
		if current == nil {
			return nil
		}
		return current
	}, nil)

	if rec := get(t, h, "/state"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/state before init code = %d, want 503", rec.Code)
	}

	current = &snapshot{Cwd: "/tmp", Plugins: []string{"dirloader"}}
	rec := get(t, h, "/state")
	if rec.Code != http.StatusOK {
		t.Fatalf("/state code = %d", rec.Code)
	}
	var got snapshot
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if diff := cmp.Diff(*current, got); diff != "" {
		t.Errorf("state (-want +got):\n%s", diff)
	}
}

func TestHandler_Metrics(t *testing.T) {
	m := metrics.New()
	m.LoopIteration()
	h := NewHandler(func() any { return nil }, m.Registry())

	rec := get(t, h, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics code = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "rover_loop_iterations_total 1") {
		t.Errorf("/metrics body missing loop counter:\n%s", rec.Body.String())
	}

	if rec := get(t, h, "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("/nope code = %d, want 404", rec.Code)
	}
}

func TestServer_StartShutdown(t *testing.T) {
	s := NewServer("127.0.0.1:0", NewHandler(func() any { return nil }, nil), nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if strings.TrimSpace(string(body)) != "ok" {
		t.Errorf("/healthz body = %q", body)
	}

	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

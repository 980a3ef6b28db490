package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/arclight-labs/pmcore/internal/coordinator"
	"github.com/arclight-labs/pmcore/internal/domain"
	"github.com/arclight-labs/pmcore/internal/dvfs"
	"github.com/arclight-labs/pmcore/internal/endpoint"
	"github.com/arclight-labs/pmcore/internal/notify"
	"github.com/arclight-labs/pmcore/internal/wakeup"
)

type okSuspend struct{}

func (okSuspend) Suspend(ctx context.Context, state domain.SleepState) error { return nil }

type okHibernate struct{}

func (okHibernate) Hibernate(ctx context.Context) error { return nil }

type fixedTable struct{ freqs []int }

func (t fixedTable) Resolve(requested int, kind domain.LimitKind) (int, bool) {
	switch kind {
	case domain.LimitFloor:
		for _, f := range t.freqs {
			if f >= requested {
				return f, true
			}
		}
	case domain.LimitCeiling:
		for i := len(t.freqs) - 1; i >= 0; i-- {
			if t.freqs[i] <= requested {
				return t.freqs[i], true
			}
		}
	}
	return 0, false
}

func (t fixedTable) Frequencies() []int { return t.freqs }

type nopQoS struct{}

func (nopQoS) UpdateRequirement(client string, freq int) error { return nil }
func (nopQoS) DefaultValue() int                               { return 200000 }

type nopRefresher struct{}

func (nopRefresher) RefreshAll() {}

func newTestServer(t *testing.T) (*Server, *wakeup.Counter) {
	t.Helper()

	caps := coordinator.Capabilities{
		ValidStates: []domain.SleepState{domain.StateStandby, domain.StateMem},
		Hibernate:   true,
		TestLevels:  true,
		DVFS:        true,
	}
	coord := coordinator.New(caps, okSuspend{}, okHibernate{}, notify.NewBus(), nil)
	counter := wakeup.NewCounter()
	arb := dvfs.NewArbiter(fixedTable{freqs: []int{200000, 400000, 800000}}, nopQoS{}, nopRefresher{}, "power", nil)

	registry := endpoint.NewRegistry(coord, counter, arb)
	return NewServer(registry, ServerOptions{Addr: "127.0.0.1:0"}), counter
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Healthz(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/v1/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /v1/healthz = %d, want 200", rec.Code)
	}
}

func TestServer_ListEndpoints(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/v1/power", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /v1/power = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{"state", "wakeup_count", "async_enabled", "debug_test_level", "freq_ceiling", "freq_floor", "freq_table"} {
		if !strings.Contains(body, name+"\n") {
			t.Errorf("listing missing %q:\n%s", name, body)
		}
	}
}

func TestServer_ReadState(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/v1/power/state", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET state = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "standby mem disk\n" {
		t.Errorf("state body = %q, want %q", got, "standby mem disk\n")
	}
}

func TestServer_WriteState(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPut, "/v1/power/state", "mem\n")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("PUT state = %d, want 204: %s", rec.Code, rec.Body.String())
	}
}

func TestServer_WriteInvalidState(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPut, "/v1/power/state", "warpdrive\n")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("PUT invalid state = %d, want 400", rec.Code)
	}
}

func TestServer_WakeupConflict(t *testing.T) {
	s, counter := newTestServer(t)

	counter.BeginEvent()
	counter.EndEvent()

	// Baseline 0 is stale now.
	rec := do(t, s, http.MethodPut, "/v1/power/wakeup_count", "0")
	if rec.Code != http.StatusConflict {
		t.Fatalf("PUT stale wakeup_count = %d, want 409", rec.Code)
	}

	rec = do(t, s, http.MethodPut, "/v1/power/wakeup_count", "1")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("PUT current wakeup_count = %d, want 204", rec.Code)
	}
}

func TestServer_WakeupInterrupted(t *testing.T) {
	s, counter := newTestServer(t)

	counter.BeginEvent()
	rec := do(t, s, http.MethodGet, "/v1/power/wakeup_count", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("GET wakeup_count during event = %d, want 503", rec.Code)
	}
	counter.EndEvent()

	rec = do(t, s, http.MethodGet, "/v1/power/wakeup_count", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET wakeup_count = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "1\n" {
		t.Errorf("wakeup_count body = %q, want %q", got, "1\n")
	}
}

func TestServer_FreqRoundtrip(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPut, "/v1/power/freq_ceiling", "500000")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("PUT freq_ceiling = %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/v1/power/freq_ceiling", "")
	if got := rec.Body.String(); got != "400000\n" {
		t.Errorf("freq_ceiling body = %q, want %q", got, "400000\n")
	}

	rec = do(t, s, http.MethodGet, "/v1/power/freq_table", "")
	if got := rec.Body.String(); got != "400000 200000\n" {
		t.Errorf("freq_table body = %q, want %q", got, "400000 200000\n")
	}
}

func TestServer_ReadOnlyTable(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPut, "/v1/power/freq_table", "100")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("PUT freq_table = %d, want 400", rec.Code)
	}
}

func TestServer_UnknownEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/v1/power/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET unknown = %d, want 404", rec.Code)
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodDelete, "/v1/power/state", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("DELETE state = %d, want 405", rec.Code)
	}
}

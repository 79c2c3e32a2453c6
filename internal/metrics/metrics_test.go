package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func render(t *testing.T, r *Registry) string {
	t.Helper()
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	return rr.Body.String()
}

func TestServeHTTP_ExpositionFormat(t *testing.T) {
	r := New()
	r.IncRequests()
	r.IncRequests()
	r.IncOutcome("")
	r.IncOutcome(OutcomeNotFound)
	r.IncOutcome(OutcomeRuntimeError)
	r.IncOutcome(OutcomeRuntimeError)

	body := render(t, r)

	wants := []string{
		"# TYPE dockstats_requests_total counter",
		"dockstats_requests_total 2",
		`dockstats_fetch_outcomes_total{outcome="ok"} 1`,
		`dockstats_fetch_outcomes_total{outcome="not_found"} 1`,
		`dockstats_fetch_outcomes_total{outcome="runtime_error"} 2`,
	}
	for _, want := range wants {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q\nbody:\n%s", want, body)
		}
	}
}

func TestServeHTTP_EmptyRegistry(t *testing.T) {
	body := render(t, New())
	if !strings.Contains(body, "dockstats_requests_total 0") {
		t.Errorf("expected zeroed counters, got:\n%s", body)
	}
}

func TestServeHTTP_MethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	New().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rr.Code)
	}
}

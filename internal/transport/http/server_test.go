package httptransport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStatusEndpoint(t *testing.T) {
	mux := http.NewServeMux()
	RegisterRoutes(mux, func() Status {
		return Status{Route: "check-out", UserID: 7, WorkingOut: true, Elapsed: "01:02:03"}
	})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var body Status
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.Route != "check-out" || body.Elapsed != "01:02:03" || !body.WorkingOut {
		t.Fatalf("unexpected status body: %+v", body)
	}
}

func TestStatusRejectsNonGet(t *testing.T) {
	mux := http.NewServeMux()
	RegisterRoutes(mux, func() Status { return Status{} })

	req := httptest.NewRequest(http.MethodPost, "/status", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestHealthz(t *testing.T) {
	mux := http.NewServeMux()
	RegisterRoutes(mux, func() Status { return Status{} })

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

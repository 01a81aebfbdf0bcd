package httpadapter

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDGeneratedWhenAbsent(t *testing.T) {
	var seenInContext string
	handler := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenInContext = requestIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	echoed := res.Header().Get(requestIDHeader)
	if echoed == "" {
		t.Fatalf("expected a generated request id header")
	}
	if seenInContext != echoed {
		t.Fatalf("context id %q must match echoed header %q", seenInContext, echoed)
	}
}

func TestRequestIDReusesCallerSupplied(t *testing.T) {
	handler := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "upstream-7")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if got := res.Header().Get(requestIDHeader); got != "upstream-7" {
		t.Fatalf("caller id must be preserved, got %q", got)
	}
}

func TestAccessLogRecordsRequestOutcome(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := accessLogMiddleware(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/nope", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("access log is not one JSON line: %v (%s)", err, buf.String())
	}
	if line["msg"] != "http_request" {
		t.Fatalf("unexpected log message %v", line["msg"])
	}
	if line["path"] != "/v1/documents/nope" {
		t.Fatalf("unexpected path %v", line["path"])
	}
	if line["status"] != float64(http.StatusNotFound) {
		t.Fatalf("unexpected status %v", line["status"])
	}
	if line["level"] != "WARN" {
		t.Fatalf("4xx responses must log at warn, got %v", line["level"])
	}
}

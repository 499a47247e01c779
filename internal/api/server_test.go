package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rowanrose/claimdocs/internal/config"
)

func testServer() *Server {
	return New(&config.Config{Address: ":0"}, nil, nil, nil)
}

func TestHandleGenerateRejectsBadRequests(t *testing.T) {
	s := testServer()

	cases := []struct {
		name string
		body string
		want int
	}{
		{"garbage body", "{not json", http.StatusBadRequest},
		{"missing case id", `{"documentKind":"AUTHORITY_LETTER"}`, http.StatusBadRequest},
		{"unknown kind", `{"caseId":5,"documentKind":"POSTCARD"}`, http.StatusBadRequest},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(c.body))
		rec := httptest.NewRecorder()
		s.handleGenerate(rec, req)
		if rec.Code != c.want {
			t.Errorf("%s: status = %d, want %d", c.name, rec.Code, c.want)
		}
	}
}

func TestHandleGenerateRejectsGet(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest(http.MethodGet, "/api/generate", nil)
	rec := httptest.NewRecorder()
	s.handleGenerate(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleGenerateAsyncWithoutQueue(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest(http.MethodPost, "/api/generate?async=true",
		strings.NewReader(`{"caseId":5,"documentKind":"AUTHORITY_LETTER"}`))
	rec := httptest.NewRecorder()
	s.handleGenerate(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("query flag: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/generate",
		strings.NewReader(`{"caseId":5,"documentKind":"AUTHORITY_LETTER","async":true}`))
	rec = httptest.NewRecorder()
	s.handleGenerate(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("body flag: status = %d", rec.Code)
	}
}

func TestHandleTemplateRouteValidation(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodPut, "/api/html-templates/POSTCARD", strings.NewReader("<p>x</p>"))
	rec := httptest.NewRecorder()
	s.handleTemplateRoute(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown kind: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/html-templates/", nil)
	rec = httptest.NewRecorder()
	s.handleTemplateRoute(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("empty kind: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/html-templates/AUTHORITY_LETTER", nil)
	rec = httptest.NewRecorder()
	s.handleTemplateRoute(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("delete: status = %d", rec.Code)
	}
}

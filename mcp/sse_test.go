package mcp

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newTestSSEServer() *SSEServer {
	serviceInstance := newTestService()
	return NewSSEServer(zap.NewNop(), NewServer(zap.NewNop(), serviceInstance), serviceInstance, nil)
}

func TestHandleQuerySSEStreamsCompleteResponse(t *testing.T) {
	sse := newTestSSEServer()
	req := httptest.NewRequest(http.MethodPost, "/mcp/sse/query", strings.NewReader(`{"scope":"notebooks","name":"Wor*"}`))
	rec := httptest.NewRecorder()

	sse.HandleQuerySSE(rec, req)

	body := rec.Body.String()
	for _, event := range []string{"query_start", "query_result", "query_complete"} {
		if !strings.Contains(body, "event: "+event) {
			t.Fatalf("stream is missing %s event:\n%s", event, body)
		}
	}
	if !strings.Contains(body, `"name":"Work"`) {
		t.Fatalf("expected the matched notebook in the stream:\n%s", body)
	}
}

func TestHandleQuerySSERejectsMissingScope(t *testing.T) {
	sse := newTestSSEServer()
	req := httptest.NewRequest(http.MethodPost, "/mcp/sse/query", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	sse.HandleQuerySSE(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandleTOCSSEStreamsCompleteResponse(t *testing.T) {
	sse := newTestSSEServer()
	req := httptest.NewRequest(http.MethodPost, "/mcp/sse/toc", strings.NewReader(`{"pageId":"pg-1"}`))
	rec := httptest.NewRecorder()

	sse.HandleTOCSSE(rec, req)

	body := rec.Body.String()
	for _, event := range []string{"toc_start", "toc_result", "toc_complete"} {
		if !strings.Contains(body, "event: "+event) {
			t.Fatalf("stream is missing %s event:\n%s", event, body)
		}
	}
	if !strings.Contains(body, `"headings":1`) {
		t.Fatalf("expected the transform summary in the stream:\n%s", body)
	}
}

func TestHTTPSSEServerRoutes(t *testing.T) {
	serviceInstance := newTestService()
	handler := NewHTTPSSEServer(zap.NewNop(), NewServer(zap.NewNop(), serviceInstance), serviceInstance, "/mcp", nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp/sse/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "connectedClients") {
		t.Fatalf("unexpected stats body: %s", rec.Body.String())
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestOperator(t *testing.T) {
	var (
		gotID int64
		gotOK bool
	)
	handler := Operator(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotOK = OperatorIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/parking-entries", nil)
	req.Header.Set(OperatorHeader, "42")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !gotOK || gotID != 42 {
		t.Fatalf("expected operator 42, got %d (%v)", gotID, gotOK)
	}

	gotOK = false
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if gotOK {
		t.Fatalf("expected no operator without header")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(OperatorHeader, "abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed header, got %d", rec.Code)
	}
}

func TestRecoveryAndChain(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })

	handler := Chain(panicking, RecoveryMiddleware(zap.NewNop()), LoggingMiddleware(zap.NewNop(), true), tag("a"), tag("b"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("unexpected middleware order %v", order)
	}
}

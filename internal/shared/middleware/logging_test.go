package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStatusRecorder_CapturesStatus(t *testing.T) {
	rec := wrapResponseWriter(httptest.NewRecorder())

	rec.WriteHeader(http.StatusNotFound)

	if rec.status != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.status, http.StatusNotFound)
	}
}

func TestStatusRecorder_WriteHeaderIdempotent(t *testing.T) {
	rec := wrapResponseWriter(httptest.NewRecorder())

	rec.WriteHeader(http.StatusNotFound)
	rec.WriteHeader(http.StatusOK) // should be ignored

	if rec.status != http.StatusNotFound {
		t.Errorf("status = %d, want %d (second WriteHeader should be ignored)", rec.status, http.StatusNotFound)
	}
}

func TestStatusRecorder_DefaultsToOK(t *testing.T) {
	rec := wrapResponseWriter(httptest.NewRecorder())

	rec.Write([]byte("implicit 200"))

	if rec.status != http.StatusOK {
		t.Errorf("status = %d after write-only handler, want %d", rec.status, http.StatusOK)
	}
}

func TestStatusRecorder_CountsBytes(t *testing.T) {
	rec := wrapResponseWriter(httptest.NewRecorder())

	rec.Write([]byte("hello "))
	rec.Write([]byte("world"))

	if rec.bytes != 11 {
		t.Errorf("bytes = %d, want 11", rec.bytes)
	}
}

func TestStatusRecorder_WriteHeaderAfterWriteIgnored(t *testing.T) {
	rec := wrapResponseWriter(httptest.NewRecorder())

	rec.Write([]byte("body"))
	rec.WriteHeader(http.StatusInternalServerError)

	if rec.status != http.StatusOK {
		t.Errorf("status = %d, want %d (WriteHeader after Write should be ignored)", rec.status, http.StatusOK)
	}
}

func TestLogging(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	handler := Logging(next)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Errorf("handler returned wrong status code: got %d want %d", rr.Code, http.StatusCreated)
	}
}

func TestLogging_WriteOnlyHandler(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	handler := Logging(next)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %d want %d", rr.Code, http.StatusOK)
	}
	if rr.Body.String() != "ok" {
		t.Errorf("body = %q, want ok", rr.Body.String())
	}
}

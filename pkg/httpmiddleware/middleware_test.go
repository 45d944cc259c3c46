package httpmiddleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWrap_Order(t *testing.T) {
	var calls []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls = append(calls, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Wrap(okHandler(), tag("outer"), tag("middle"), tag("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "middle", "inner"}, calls)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(RequestIDConfig{})(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	serve := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
		if header != "" {
			req.Header.Set("X-Request-ID", header)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	t.Run("generated", func(t *testing.T) {
		w := serve("")

		require.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
		id, err := uuid.Parse(seen)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), id.Version())
	})

	t.Run("reused", func(t *testing.T) {
		w := serve("gw-01:abc_123.4")

		assert.Equal(t, "gw-01:abc_123.4", seen)
		assert.Equal(t, "gw-01:abc_123.4", w.Header().Get("X-Request-ID"))
	})

	for name, header := range map[string]string{
		"too long":   strings.Repeat("x", maxRequestIDLen+1),
		"spaces":     "id with spaces",
		"json quote": `"}`,
	} {
		t.Run(name+" replaced", func(t *testing.T) {
			serve(header)
			assert.NotEqual(t, header, seen)
			assert.Len(t, seen, 36)
		})
	}
}

func TestRequestID_Config(t *testing.T) {
	var seen string
	h := RequestID(RequestIDConfig{
		Header:   "X-Correlation-ID",
		Generate: func() string { return "fixed" },
	})(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
	req.Header.Set("X-Request-ID", "ignored")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "fixed", seen)
	assert.Equal(t, "fixed", w.Header().Get("X-Correlation-ID"))
	assert.Empty(t, w.Header().Get("X-Request-ID"))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestRecovery(t *testing.T) {
	h := Recovery()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/orders", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, float64(500), body["code"])
	assert.Equal(t, "internal error", body["message"])
}

func TestLogRequests(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	h := Wrap(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte("short and stout"))
		}),
		RequestID(RequestIDConfig{}),
		InjectLogger(zap.New(core)),
		LogRequests(),
	)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
	req.Header.Set("X-Request-ID", "req-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("Request").All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "/api/orders", fields["path"])
	assert.Equal(t, int64(http.StatusTeapot), fields["status"])
	assert.Equal(t, int64(15), fields["bytes"])
	assert.Equal(t, "req-1", fields["request_id"])
}

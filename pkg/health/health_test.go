package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func passingCheck() CheckFunc {
	return func(context.Context) error { return nil }
}

func failingCheck(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func fetchStatus(t *testing.T, endpoint http.HandlerFunc) (int, statusResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	endpoint(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var body statusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return w.Code, body
}

func TestLiveEndpoint(t *testing.T) {
	h := New()
	h.AddLivenessCheck("ok", time.Second, passingCheck())

	code, body := fetchStatus(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
	assert.Empty(t, body.Checks)

	h.AddLivenessCheck("goroutines", time.Second, failingCheck("too many"))

	code, body = fetchStatus(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, map[string]string{"goroutines": "too many"}, body.Checks)
}

func TestReadyEndpoint(t *testing.T) {
	h := New()
	h.AddReadinessCheck("rules", time.Second, passingCheck())

	code, body := fetchStatus(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "service is not ready", body.Checks["_readiness"])

	h.SetReady(true)
	code, body = fetchStatus(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)

	h.SetReady(false)
	code, _ = fetchStatus(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestCheckTimeout(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.AddReadinessCheck("slow", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	code, body := fetchStatus(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, context.DeadlineExceeded.Error(), body.Checks["slow"])
}

func TestGoroutineCountCheck(t *testing.T) {
	check := GoroutineCountCheck(10, func() int { return 11 })
	require.EqualError(t, check(context.Background()), "goroutine count 11 exceeds threshold 10")

	check = GoroutineCountCheck(10, func() int { return 10 })
	require.NoError(t, check(context.Background()))
}

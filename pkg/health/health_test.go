package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passing(context.Context) error { return nil }

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func serve(t *testing.T, handler http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	return rec
}

func TestLiveEndpoint(t *testing.T) {
	t.Run("Passing", func(t *testing.T) {
		h := New()
		h.AddLivenessCheck("goroutines", time.Second, passing)

		rec := serve(t, h.LiveEndpoint)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})
	t.Run("BelowThreshold", func(t *testing.T) {
		h := New()
		h.AddLivenessCheck("flaky", time.Second, failing("temporary"))
		for range FailureThreshold - 1 {
			h.liveness[0].run(context.Background())
		}

		rec := serve(t, h.LiveEndpoint)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
	t.Run("Failing", func(t *testing.T) {
		h := New()
		h.AddLivenessCheck("storage", time.Second, failing("connection refused"))
		for range FailureThreshold {
			h.liveness[0].run(context.Background())
		}

		rec := serve(t, h.LiveEndpoint)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.JSONEq(t, `{"status":"unhealthy","checks":{"storage":"connection refused"}}`, rec.Body.String())
	})
}

func TestCheck_Recovers(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	c := newCheck("storage", time.Second, func(context.Context) error {
		if fail.Load() {
			return errors.New("down")
		}
		return nil
	})

	for range FailureThreshold {
		c.run(context.Background())
	}
	_, failed := c.failure()
	require.True(t, failed)

	fail.Store(false)
	c.run(context.Background())
	_, failed = c.failure()
	assert.False(t, failed)
}

func TestReadyEndpoint(t *testing.T) {
	h := New()
	h.AddReadinessCheck("storage", time.Second, passing)

	rec := serve(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unhealthy","checks":{"_readiness":"service is not ready"}}`, rec.Body.String())
	assert.False(t, h.IsReady())

	h.SetReady(true)
	rec = serve(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, h.IsReady())

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestStart_RunsChecks(t *testing.T) {
	var calls atomic.Int32
	h := New()
	h.AddReadinessCheck("storage", time.Second, PingCheck(pingerFunc(func(context.Context) error {
		calls.Add(1)
		return errors.New("unreachable")
	})))
	h.SetReady(true)

	h.Start(context.Background(), 5*time.Millisecond)
	defer h.Stop()

	require.Eventually(t, func() bool { return !h.IsReady() }, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, calls.Load(), int32(FailureThreshold))

	rec := serve(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "ping: unreachable")

	h.Stop()
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func passingCheck() CheckFunc {
	return func(_ context.Context) error { return nil }
}

func failingCheck(msg string) CheckFunc {
	return func(_ context.Context) error { return errors.New(msg) }
}

func probe(t *testing.T, endpoint http.HandlerFunc) (int, statusBody) {
	t.Helper()
	w := httptest.NewRecorder()
	endpoint(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body statusBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return w.Code, body
}

func runN(c *check, n int) {
	for range n {
		c.run(context.Background())
	}
}

func TestLiveEndpoint_AllPassing(t *testing.T) {
	h := New()
	h.AddLivenessCheck(Check{Name: "a", Func: passingCheck()})
	h.AddLivenessCheck(Check{Name: "b", Func: passingCheck()})

	code, body := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusOK, body.Status)
	assert.Empty(t, body.Checks)
}

func TestLiveEndpoint_FailureThreshold(t *testing.T) {
	h := New()
	h.AddLivenessCheck(Check{Name: "goroutines", Func: failingCheck("too many")})
	c := h.liveness[0]

	runN(c, 2)
	code, _ := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code, "below threshold")

	runN(c, 1)
	code, body := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, StatusUnhealthy, body.Status)
	assert.Equal(t, map[string]string{"goroutines": "too many"}, body.Checks)
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("not ready", func(t *testing.T) {
		h := New()
		code, body := probe(t, h.ReadyEndpoint)
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "service is not ready", body.Checks["_readiness"])
		assert.False(t, h.IsReady())
	})
	t.Run("ready", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck(Check{Name: "shopify", Func: passingCheck()})
		h.SetReady(true)

		code, body := probe(t, h.ReadyEndpoint)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, StatusOK, body.Status)
		assert.True(t, h.IsReady())
	})
	t.Run("draining", func(t *testing.T) {
		h := New()
		h.SetReady(true)
		h.SetReady(false)

		code, _ := probe(t, h.ReadyEndpoint)
		assert.Equal(t, http.StatusServiceUnavailable, code)
	})
}

func TestReadyEndpoint_OptionalCheckDegrades(t *testing.T) {
	h := New()
	h.AddReadinessCheck(Check{Name: "cache", Func: failingCheck("redis down"), Optional: true, FailureThreshold: 1})
	h.AddReadinessCheck(Check{Name: "other", Func: passingCheck()})
	h.SetReady(true)
	runN(h.readiness[0], 1)

	code, body := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusDegraded, body.Status)
	assert.Equal(t, "redis down", body.Checks["cache"])
	assert.True(t, h.IsReady())
}

func TestReadyEndpoint_RequiredCheckWinsOverOptional(t *testing.T) {
	h := New()
	h.AddReadinessCheck(Check{Name: "cache", Func: failingCheck("redis down"), Optional: true, FailureThreshold: 1})
	h.AddReadinessCheck(Check{Name: "required", Func: failingCheck("broken"), FailureThreshold: 1})
	h.SetReady(true)
	runN(h.readiness[0], 1)
	runN(h.readiness[1], 1)

	code, body := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, StatusUnhealthy, body.Status)
	assert.Len(t, body.Checks, 2)
	assert.False(t, h.IsReady())
}

func TestCheckRecovery(t *testing.T) {
	failing := true
	h := New()
	h.AddLivenessCheck(Check{Name: "flaky", SuccessThreshold: 2, Func: func(_ context.Context) error {
		if failing {
			return errors.New("down")
		}
		return nil
	}})
	c := h.liveness[0]

	assert.Nil(t, c.lastError())
	runN(c, 3)
	assert.False(t, c.healthy.Load())
	assert.EqualError(t, c.lastError(), "down")

	failing = false
	runN(c, 1)
	assert.False(t, c.healthy.Load(), "one success is below the threshold")
	runN(c, 1)
	assert.True(t, c.healthy.Load())
}

func TestCheckTimeout(t *testing.T) {
	h := New()
	h.AddLivenessCheck(Check{Name: "slow", Timeout: 10 * time.Millisecond, FailureThreshold: 1, Func: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	runN(h.liveness[0], 1)
	assert.ErrorIs(t, h.liveness[0].lastError(), context.DeadlineExceeded)
}

func TestStartStop(t *testing.T) {
	h := New()
	h.AddLivenessCheck(Check{Name: "live", Func: failingCheck("err"), FailureThreshold: 1})
	h.AddReadinessCheck(Check{Name: "ready", Func: passingCheck()})
	h.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		w := httptest.NewRecorder()
		h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
		return w.Code == http.StatusServiceUnavailable
	}, time.Second, 5*time.Millisecond)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				h.IsReady()
				h.ReadyEndpoint(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", nil))
			}
		}()
	}
	wg.Wait()

	h.Stop()
	h.Stop()
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))

	err := GoroutineCountCheck(0)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds threshold")
}

func TestRedisPingCheck(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	check := RedisPingCheck(rdb)
	assert.NoError(t, check(context.Background()))

	mr.SetError("LOADING")
	err := check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping")
}

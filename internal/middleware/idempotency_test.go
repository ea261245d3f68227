package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type idempotencyFixture struct {
	mr     *miniredis.Miniredis
	router *gin.Engine
	calls  atomic.Int32
	status int
}

func newIdempotencyFixture(t *testing.T) *idempotencyFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &idempotencyFixture{mr: mr, status: http.StatusOK}

	f.router = gin.New()
	f.router.Use(IdempotencyMiddleware(client))
	handle := func(c *gin.Context) {
		n := f.calls.Add(1)
		c.JSON(f.status, gin.H{"call": n})
	}
	f.router.POST("/v1/admin/reconciliations", handle)
	f.router.GET("/v1/admin/reconciliations", handle)

	return f
}

func (f *idempotencyFixture) do(method, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/v1/admin/reconciliations", nil)
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	f := newIdempotencyFixture(t)

	first := f.do(http.MethodPost, "run-42")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Empty(t, first.Header().Get(idempotencyReplayed))

	second := f.do(http.MethodPost, "run-42")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "true", second.Header().Get(idempotencyReplayed))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Contains(t, second.Header().Get("Content-Type"), "application/json")

	assert.Equal(t, int32(1), f.calls.Load(), "handler must run once per key")
	assert.False(t, f.mr.Exists("idempotency:/v1/admin/reconciliations:run-42:inflight"))
}

func TestIdempotency_DistinctKeysRunSeparately(t *testing.T) {
	f := newIdempotencyFixture(t)

	f.do(http.MethodPost, "a")
	f.do(http.MethodPost, "b")
	f.do(http.MethodPost, "")
	f.do(http.MethodPost, "")

	assert.Equal(t, int32(4), f.calls.Load())
}

func TestIdempotency_IgnoresNonPost(t *testing.T) {
	f := newIdempotencyFixture(t)

	f.do(http.MethodGet, "same")
	w := f.do(http.MethodGet, "same")

	assert.Empty(t, w.Header().Get(idempotencyReplayed))
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestIdempotency_InFlightKeyConflicts(t *testing.T) {
	f := newIdempotencyFixture(t)
	require.NoError(t, f.mr.Set("idempotency:/v1/admin/reconciliations:busy:inflight", "1"))

	w := f.do(http.MethodPost, "busy")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Zero(t, f.calls.Load())
}

func TestIdempotency_ServerErrorsAreNotStored(t *testing.T) {
	f := newIdempotencyFixture(t)
	f.status = http.StatusServiceUnavailable

	first := f.do(http.MethodPost, "retry-me")
	require.Equal(t, http.StatusServiceUnavailable, first.Code)
	assert.False(t, f.mr.Exists("idempotency:/v1/admin/reconciliations:retry-me"))

	f.status = http.StatusOK
	second := f.do(http.MethodPost, "retry-me")

	assert.Equal(t, http.StatusOK, second.Code)
	assert.Empty(t, second.Header().Get(idempotencyReplayed))
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestIdempotency_ClientErrorsAreStored(t *testing.T) {
	f := newIdempotencyFixture(t)
	f.status = http.StatusBadRequest

	f.do(http.MethodPost, "bad")
	w := f.do(http.MethodPost, "bad")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "true", w.Header().Get(idempotencyReplayed))
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestIdempotency_RedisDownPassesThrough(t *testing.T) {
	f := newIdempotencyFixture(t)
	f.mr.Close()

	w := f.do(http.MethodPost, "k")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(1), f.calls.Load())
}

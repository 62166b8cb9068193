package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/fieldkit/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// unreachableRedis points at a closed port so every command fails fast.
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestLogger_RecordsRequest(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	m := metrics.New()

	r := gin.New()
	r.Use(Logger(zap.New(core), m))
	r.GET("/api/v1/builder/sessions/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/api/v1/builder/sessions/abc", "/boom", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/api/v1/builder/sessions/abc", entries[0].ContextMap()["path"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.EqualValues(t, http.StatusNotFound, entries[2].ContextMap()["status"])

	count, err := testutil.GatherAndCount(m.Registry(), "fieldkit_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count, "one series per route and status")
}

func TestLogger_NilMetrics(t *testing.T) {
	r := gin.New()
	r.Use(Logger(zap.NewNop(), nil))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRateLimitKey(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 10, 0, time.UTC)
	a := rateLimitKey("10.0.0.1", now, time.Second)
	b := rateLimitKey("10.0.0.1", now.Add(500*time.Millisecond), time.Second)
	c := rateLimitKey("10.0.0.1", now.Add(time.Second), time.Second)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "fieldkit:rate_limit:10.0.0.1:")
	assert.Equal(t, rateLimitKey("10.0.0.1", now, 10*time.Second), rateLimitKey("10.0.0.1", now.Add(9*time.Second), 10*time.Second))
}

func TestIdempotenceKey(t *testing.T) {
	build := func(method, path, header string) string {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(method, path, nil)
		if header != "" {
			c.Request.Header.Set(IdempotenceHeader, header)
		}
		return idempotenceKey(c)
	}

	assert.Empty(t, build(http.MethodPost, "/a", ""))
	assert.Empty(t, build(http.MethodPost, "/a", "   "))
	assert.Equal(t, "fieldkit:idempotence:POST:/a:k1", build(http.MethodPost, "/a", "k1"))
	assert.NotEqual(t, build(http.MethodPost, "/a", "k1"), build(http.MethodPost, "/b", "k1"))
}

func TestRedisMiddleware_FailsOpen(t *testing.T) {
	rdb := unreachableRedis(t)

	r := gin.New()
	r.POST("/limited", RateLimit(rdb, 1, time.Second, nil), func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.POST("/once", Idempotence(rdb), func(c *gin.Context) { c.Status(http.StatusCreated) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/limited", nil))
		assert.Equal(t, http.StatusCreated, w.Code)

		req := httptest.NewRequest(http.MethodPost, "/once", nil)
		req.Header.Set(IdempotenceHeader, "same")
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)
	}
}

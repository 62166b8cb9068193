package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func post(r http.Handler, path, key, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if key != "" {
		req.Header.Set(IdempotenceHeader, key)
	}
	if remote != "" {
		req.RemoteAddr = remote
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	mr, rdb := newMiniRedis(t)

	r := gin.New()
	r.Use(RateLimit(rdb, 3, time.Hour, nil))
	r.POST("/api/v1/builder/sessions", func(c *gin.Context) { c.Status(http.StatusCreated) })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusCreated, post(r, "/api/v1/builder/sessions", "", "").Code)
	}

	w := post(r, "/api/v1/builder/sessions", "", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), `"code":429`)

	assert.Equal(t, http.StatusCreated, post(r, "/api/v1/builder/sessions", "", "198.51.100.7:4000").Code,
		"limits are per client ip")

	key := rateLimitKey("192.0.2.1", time.Now(), time.Hour)
	require.True(t, mr.Exists(key))
	assert.Positive(t, mr.TTL(key))
}

func TestIdempotence_CompletedRequestConflicts(t *testing.T) {
	mr, rdb := newMiniRedis(t)

	var handled atomic.Int32
	r := gin.New()
	r.Use(Idempotence(rdb))
	r.POST("/submit", func(c *gin.Context) {
		handled.Add(1)
		c.Status(http.StatusCreated)
	})

	assert.Equal(t, http.StatusCreated, post(r, "/submit", "k1", "").Code)

	w := post(r, "/submit", "k1", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "succeeded less than 60 seconds ago")
	assert.EqualValues(t, 1, handled.Load())

	assert.Equal(t, http.StatusCreated, post(r, "/submit", "k2", "").Code, "other keys are independent")
	assert.Equal(t, http.StatusCreated, post(r, "/submit", "", "").Code, "no header, no dedup")

	mr.FastForward(61 * time.Second)
	assert.Equal(t, http.StatusCreated, post(r, "/submit", "k1", "").Code)
	assert.EqualValues(t, 4, handled.Load())
}

func TestIdempotence_InFlightConflicts(t *testing.T) {
	_, rdb := newMiniRedis(t)

	var nested *httptest.ResponseRecorder
	r := gin.New()
	r.Use(Idempotence(rdb))
	r.POST("/submit", func(c *gin.Context) {
		if nested == nil {
			nested = post(r, "/submit", "k1", "")
		}
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, post(r, "/submit", "k1", "").Code)
	require.NotNil(t, nested)
	assert.Equal(t, http.StatusConflict, nested.Code)
	assert.Contains(t, nested.Body.String(), "still being processed")
}

func TestIdempotence_FailureReleasesKey(t *testing.T) {
	mr, rdb := newMiniRedis(t)

	fail := true
	r := gin.New()
	r.Use(Idempotence(rdb))
	r.POST("/submit", func(c *gin.Context) {
		if fail {
			c.Status(http.StatusConflict)
			return
		}
		c.Status(http.StatusCreated)
	})

	assert.Equal(t, http.StatusConflict, post(r, "/submit", "k1", "").Code)
	assert.False(t, mr.Exists(idempotencePrefix+"POST:/submit:k1"))

	fail = false
	assert.Equal(t, http.StatusCreated, post(r, "/submit", "k1", "").Code)
	v, err := mr.Get(idempotencePrefix + "POST:/submit:k1")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestIdempotence_ConcurrentDuplicatesRunOnce(t *testing.T) {
	_, rdb := newMiniRedis(t)

	var handled atomic.Int32
	r := gin.New()
	r.Use(Idempotence(rdb))
	r.POST("/submit", func(c *gin.Context) {
		handled.Add(1)
		time.Sleep(20 * time.Millisecond)
		c.Status(http.StatusCreated)
	})

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = map[int]int{}
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code := post(r, "/submit", "same", "").Code
			mu.Lock()
			codes[code]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, handled.Load())
	assert.Equal(t, 1, codes[http.StatusCreated])
	assert.Equal(t, 9, codes[http.StatusConflict])
}

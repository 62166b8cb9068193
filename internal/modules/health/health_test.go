package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/fieldkit/internal/config"
	"github.com/mx-space/fieldkit/internal/database"
	"github.com/mx-space/fieldkit/internal/pkg/cron"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newRouter(t *testing.T, redis Pinger) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(config.DriverSQLite, ":memory:", logger.Silent)
	require.NoError(t, err)

	sched := cron.New()
	require.NoError(t, sched.Register(cron.Job{
		Name:     "sweep",
		Interval: time.Hour,
		Fn:       func(context.Context) error { return nil },
	}))

	dir := t.TempDir()
	r := gin.New()
	NewHandler(db, redis, sched, dir).RegisterRoutes(r.Group("/api/v1"))
	return r, dir
}

func do(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	r, _ := newRouter(t, nil)
	w := do(r, http.MethodGet, "/api/v1/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["database"])
	assert.NotContains(t, body, "redis")
}

func TestHealth_RedisDown(t *testing.T) {
	r, _ := newRouter(t, pinger{err: errors.New("refused")})
	w := do(r, http.MethodGet, "/api/v1/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":false`)
	assert.Contains(t, w.Body.String(), `"degraded"`)
}

func TestCronRoutes(t *testing.T) {
	r, _ := newRouter(t, pinger{})

	w := do(r, http.MethodGet, "/api/v1/health/cron")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sweep"`)

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/v1/health/cron/run/sweep").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/api/v1/health/cron/run/nope").Code)

	assert.Eventually(t, func() bool {
		w := do(r, http.MethodGet, "/api/v1/health/cron/task/sweep")
		return w.Code == http.StatusOK && strings.Contains(w.Body.String(), `"fulfill"`)
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/v1/health/cron/task/nope").Code)
}

func TestLogRoutes(t *testing.T) {
	r, dir := newRouter(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stdout_1-2-24.log"), []byte("line\n"), 0o644))

	w := do(r, http.MethodGet, "/api/v1/health/log/list")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"filename":"stdout_1-2-24.log"`)

	w = do(r, http.MethodGet, "/api/v1/health/log?filename=stdout_1-2-24.log")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "line\n", w.Body.String())

	assert.Equal(t, http.StatusUnprocessableEntity, do(r, http.MethodGet, "/api/v1/health/log").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/v1/health/log?filename=../config.yml").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/v1/health/log?filename=stdout_1-3-24.log").Code)
}

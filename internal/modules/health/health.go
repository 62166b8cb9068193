package health

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/fieldkit/internal/pkg/cron"
	"github.com/mx-space/fieldkit/internal/pkg/nativelog"
	"github.com/mx-space/fieldkit/internal/pkg/response"
	"gorm.io/gorm"
)

const pingTimeout = 2 * time.Second

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	db     *gorm.DB
	redis  Pinger
	sched  *cron.Scheduler
	logDir string
}

// NewHandler wires the health routes. redis may be nil when Redis is
// disabled.
func NewHandler(db *gorm.DB, redis Pinger, sched *cron.Scheduler, logDir string) *Handler {
	return &Handler{db: db, redis: redis, sched: sched, logDir: logDir}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/health")
	g.GET("", h.health)

	cronGroup := g.Group("/cron")
	cronGroup.GET("", h.listJobs)
	cronGroup.POST("/run/:name", h.runJob)
	cronGroup.GET("/task/:name", h.getTask)

	logGroup := g.Group("/log")
	logGroup.GET("/list", h.listLogs)
	logGroup.GET("", h.readLog)
}

// GET /health
func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	body := gin.H{}
	ok := true

	sqlDB, err := h.db.DB()
	dbOK := err == nil && sqlDB.PingContext(ctx) == nil
	body["database"] = dbOK
	ok = ok && dbOK

	if h.redis != nil {
		redisOK := h.redis.Ping(ctx) == nil
		body["redis"] = redisOK
		ok = ok && redisOK
	}

	status := http.StatusOK
	body["status"] = "ok"
	if !ok {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}

// GET /health/cron
func (h *Handler) listJobs(c *gin.Context) {
	items := h.sched.List()
	byName := make(map[string]cron.ListItem, len(items))
	for _, item := range items {
		byName[item.Name] = item
	}
	response.OK(c, byName)
}

// POST /health/cron/run/:name
func (h *Handler) runJob(c *gin.Context) {
	if err := h.sched.Run(c.Request.Context(), c.Param("name")); err != nil {
		response.NotFoundMsg(c, err.Error())
		return
	}
	response.OK(c, gin.H{"message": "job triggered"})
}

// GET /health/cron/task/:name
func (h *Handler) getTask(c *gin.Context) {
	result, err := h.sched.GetTask(c.Param("name"))
	if err != nil {
		response.NotFoundMsg(c, err.Error())
		return
	}
	response.OK(c, result)
}

// GET /health/log/list
func (h *Handler) listLogs(c *gin.Context) {
	files, err := nativelog.List(h.logDir)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, files)
}

// GET /health/log?filename=
func (h *Handler) readLog(c *gin.Context) {
	filename := strings.TrimSpace(c.Query("filename"))
	if filename == "" {
		response.UnprocessableEntity(c, "filename is required")
		return
	}

	data, err := nativelog.Read(h.logDir, filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			response.NotFoundMsg(c, "log file not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", data)
}

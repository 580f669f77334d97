package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pagehub/pagehub-backend/internal/config"
	"github.com/pagehub/pagehub-backend/internal/response"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const healthCheckTimeout = 2 * time.Second

// DBPinger is satisfied by *pgxpool.Pool.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// CachePinger is the subset of the Redis client the health check reads.
type CachePinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
	LLen(ctx context.Context, key string) *redis.IntCmd
}

// HealthHandler reports dependency reachability and Go runtime stats.
type HealthHandler struct {
	db        DBPinger
	rdb       CachePinger
	startTime time.Time
	log       zerolog.Logger
}

func NewHealthHandler(db DBPinger, rdb CachePinger, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		db:        db,
		rdb:       rdb,
		startTime: time.Now(),
		log:       log.With().Str("component", "health_handler").Logger(),
	}
}

type healthStatus struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	GoVersion string `json:"goVersion"`
	Database  string `json:"database"`
	Redis     string `json:"redis"`

	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heapAlloc"`
	NumGC      uint32 `json:"numGc"`

	QueueActivity int64 `json:"queueActivity"`
}

// Health godoc
// GET /health
// Responds 200 when Postgres and Redis both answer, 503 otherwise.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	st := h.collect(ctx)
	if st.Status != "ok" {
		response.FailWithMessage(c, http.StatusServiceUnavailable, response.ErrInternal, "Service degraded")
		h.log.Warn().Str("database", st.Database).Str("redis", st.Redis).Msg("Health check failed")
		return
	}
	response.Success(c, http.StatusOK, "OK", st)
}

func (h *HealthHandler) collect(ctx context.Context) healthStatus {
	st := healthStatus{
		Status:    "ok",
		Uptime:    time.Since(h.startTime).Truncate(time.Second).String(),
		GoVersion: runtime.Version(),
		Database:  "up",
		Redis:     "up",
	}

	if err := h.db.Ping(ctx); err != nil {
		st.Database = "down"
		st.Status = "degraded"
	}
	if err := h.rdb.Ping(ctx).Err(); err != nil {
		st.Redis = "down"
		st.Status = "degraded"
	} else {
		st.QueueActivity, _ = h.rdb.LLen(ctx, config.WorkerKey.PersistActivityQueue).Result()
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	st.Goroutines = runtime.NumGoroutine()
	st.HeapAlloc = ms.HeapAlloc
	st.NumGC = ms.NumGC
	return st
}

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"athena/pkg/logger"
)

// Handler serves liveness and readiness endpoints. Every backend is
// optional in this system, so a nil dependency is simply skipped
// rather than reported unhealthy.
type Handler struct {
	log         *logger.Logger
	postgres    *sqlx.DB
	clickhouse  driver.Conn
	redis       *redis.Client
	startTime   time.Time
	serviceName string
}

func New(postgres *sqlx.DB, clickhouse driver.Conn, redisClient *redis.Client, serviceName string) *Handler {
	return &Handler{
		log:         logger.Get().With("component", "health"),
		postgres:    postgres,
		clickhouse:  clickhouse,
		redis:       redisClient,
		startTime:   time.Now(),
		serviceName: serviceName,
	}
}

// Status is the overall health report.
type Status struct {
	Status    string                     `json:"status"`
	Service   string                     `json:"service"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Checks    map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth is the health of a single backend.
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HandleLiveness returns 200 while the process is running.
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

// HandleReadiness checks the configured backends. The analysis
// pipeline itself only needs the LLM provider, so a degraded backend
// set still returns 200 with status "degraded".
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]ComponentHealth)
	healthy, total := 0, 0

	if h.postgres != nil {
		total++
		c := h.check(ctx, "postgres", func(ctx context.Context) error {
			return h.postgres.PingContext(ctx)
		})
		checks["postgres"] = c
		if c.Status == "healthy" {
			healthy++
		}
	}

	if h.clickhouse != nil {
		total++
		c := h.check(ctx, "clickhouse", func(ctx context.Context) error {
			return h.clickhouse.Ping(ctx)
		})
		checks["clickhouse"] = c
		if c.Status == "healthy" {
			healthy++
		}
	}

	if h.redis != nil {
		total++
		c := h.check(ctx, "redis", func(ctx context.Context) error {
			return h.redis.Ping(ctx).Err()
		})
		checks["redis"] = c
		if c.Status == "healthy" {
			healthy++
		}
	}

	status := Status{
		Status:    "healthy",
		Service:   h.serviceName,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    checks,
	}

	statusCode := http.StatusOK
	if total > 0 && healthy == 0 {
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
		h.log.Warnw("readiness check failed", "checks", checks)
	} else if healthy < total {
		status.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(status)
}

func (h *Handler) check(ctx context.Context, name string, ping func(context.Context) error) ComponentHealth {
	start := time.Now()
	err := ping(ctx)
	elapsed := time.Since(start)

	if err != nil {
		h.log.Errorw("health check failed", "backend", name, "error", err, "elapsed", elapsed)
		return ComponentHealth{
			Status:       "unhealthy",
			ResponseTime: elapsed.String(),
			Error:        err.Error(),
		}
	}

	return ComponentHealth{
		Status:       "healthy",
		ResponseTime: elapsed.String(),
	}
}

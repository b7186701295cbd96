package handler

import (
	"context"
	"net/http"
	"time"

	"smart/internal/infra"
	"smart/internal/service"
	"smart/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks DB and Redis connectivity and reports breaker states, DLQ depth and
// live terminals; never exposes credentials or internals.
func Health(db *gorm.DB, rdb *redis.Client, terminals service.TerminalService, breakers ...*infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		if db == nil {
			dbStatus = "error"
		} else if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		dlq := gin.H{}
		for _, q := range []string{worker.QueueTicket, worker.QueueEmail} {
			if n, err := worker.DLQLength(ctx, rdb, q); err == nil {
				dlq[q] = n
			}
		}

		circuits := gin.H{}
		for _, b := range breakers {
			circuits[b.Name()] = b.State()
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":         status == http.StatusOK,
			"db":         dbStatus,
			"redis":      redisStatus,
			"dlq":        dlq,
			"circuits":   circuits,
			"terminales": terminals.Len(),
		})
	}
}

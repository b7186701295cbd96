package handler

import (
	"net/http"
	"strconv"

	"smart/internal/apierror"
	"smart/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// dlqQueues maps the short queue names used in URLs to Redis list keys.
var dlqQueues = map[string]string{
	worker.JobTicket: worker.QueueTicket,
	worker.JobEmail:  worker.QueueEmail,
}

type JobsHandler struct{ rdb *redis.Client }

func NewJobsHandler(rdb *redis.Client) *JobsHandler { return &JobsHandler{rdb: rdb} }

// ListarDLQ godoc
// @Summary  Profundidad de las dead letter queues
// @Tags     jobs
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} map[string]int64
// @Router   /v1/jobs/dlq [get]
func (h *JobsHandler) ListarDLQ(c *gin.Context) {
	out := make(map[string]int64, len(dlqQueues))
	for name, queue := range dlqQueues {
		n, err := worker.DLQLength(c.Request.Context(), h.rdb, queue)
		if err != nil {
			_ = c.Error(err)
			return
		}
		out[name] = n
	}
	c.JSON(http.StatusOK, out)
}

// Reintentar godoc
// @Summary      Reencolar trabajos de una DLQ
// @Description  Mueve hasta `n` entradas (default 10) de la DLQ a su cola original.
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Param        queue path  string true  "ticket | email"
// @Param        n     query int    false "Cantidad maxima"
// @Success      200 {object} map[string]int
// @Failure      404 {object} apierror.APIError
// @Router       /v1/jobs/dlq/{queue}/reintentar [post]
func (h *JobsHandler) Reintentar(c *gin.Context) {
	queue, ok := dlqQueues[c.Param("queue")]
	if !ok {
		c.JSON(http.StatusNotFound, apierror.New("Cola desconocida"))
		return
	}
	n := 10
	if raw := c.Query("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 1000 {
			c.JSON(http.StatusBadRequest, apierror.New("n debe estar entre 1 y 1000"))
			return
		}
		n = v
	}
	moved, err := worker.Replay(c.Request.Context(), h.rdb, queue, n)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reencolados": moved})
}

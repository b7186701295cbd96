package worker

// retry_cron.go
// Background goroutine that periodically re-renders tickets stuck in
// ticket_estado='pendiente' with a next_retry_at in the past.

import (
	"context"
	"fmt"
	"time"

	"smart/internal/model"
	"smart/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	VentaRepo repository.VentaRepository
	Worker    *TicketWorker
	RDB       *redis.Client
}

// StartRetryCron launches a background goroutine that ticks every 30s and
// retries pending tickets. It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg, time.Now())
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig, now time.Time) {
	ventas, err := cfg.VentaRepo.ListPendingTickets(ctx, now, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending tickets")
		return
	}
	if len(ventas) == 0 {
		return
	}

	log.Info().Int("count", len(ventas)).Msg("retry_cron: processing pending tickets")

	for i := range ventas {
		v := &ventas[i]
		if cfg.Worker.RenderAndStore(ctx, v) {
			log.Info().Str("venta_id", v.ID.String()).Int("total_retries", v.TicketRetries).
				Msg("retry_cron: ticket generated after retry")
			continue
		}
		if v.TicketEstado == model.TicketError && cfg.RDB != nil {
			payload := fmt.Sprintf(`{"venta_id":"%s"}`, v.ID)
			reason := fmt.Sprintf("max retries (%d) exceeded", MaxTicketRetries)
			if v.LastError != nil {
				reason += ": " + *v.LastError
			}
			SendToDLQ(ctx, cfg.RDB, QueueTicket, JobTicket, []byte(payload), reason, v.TicketRetries)
		}
	}
}

package worker

// ticket_worker.go
// Renders the PDF receipt of a POS sale (QueueTicket) and, when the sale
// carries a customer email, enqueues the mail job. Rendering failures are
// recorded on the sale and picked up again by the retry cron.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"smart/internal/infra"
	"smart/internal/model"
	"smart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MaxTicketRetries is how many failed renders a sale tolerates before its
// ticket is marked "error" and sent to the DLQ.
const MaxTicketRetries = 5

// TicketJobPayload is the job envelope sent to QueueTicket.
type TicketJobPayload struct {
	VentaID      string  `json:"venta_id"`
	ClienteEmail *string `json:"cliente_email,omitempty"`
}

// RenderFunc renders one sale's ticket and returns the file path.
type RenderFunc func(v *model.VentaPOS) (string, error)

type TicketWorker struct {
	ventas     repository.VentaRepository
	dispatcher *Dispatcher
	tienda     string
	render     RenderFunc
	now        func() time.Time
}

// NewTicketWorker renders with infra.GenerateTicketPDF into pdfStoragePath.
func NewTicketWorker(ventas repository.VentaRepository, dispatcher *Dispatcher, tienda, pdfStoragePath string) *TicketWorker {
	return &TicketWorker{
		ventas:     ventas,
		dispatcher: dispatcher,
		tienda:     tienda,
		render: func(v *model.VentaPOS) (string, error) {
			return infra.GenerateTicketPDF(v, tienda, pdfStoragePath)
		},
		now: time.Now,
	}
}

// Process handles a single ticket job:
//  1. Parse TicketJobPayload
//  2. Fetch the sale
//  3. Render the PDF and store the outcome on the sale
//  4. Optionally enqueue the email job
func (w *TicketWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload TicketJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("ticket_worker: invalid payload")
		return nil
	}

	ventaID, err := uuid.Parse(payload.VentaID)
	if err != nil {
		log.Error().Str("venta_id", payload.VentaID).Msg("ticket_worker: invalid venta_id")
		return nil
	}

	venta, err := w.ventas.FindByID(ctx, ventaID)
	if err != nil {
		return fmt.Errorf("ticket_worker: venta %s: %w", payload.VentaID, err)
	}

	if !w.RenderAndStore(ctx, venta) {
		return nil
	}

	if payload.ClienteEmail != nil && *payload.ClienteEmail != "" && w.dispatcher != nil {
		emailJob := EmailJobPayload{
			ToEmail: *payload.ClienteEmail,
			Subject: fmt.Sprintf("%s - Ticket #%d", w.tienda, venta.NumeroTicket),
			Body:    fmt.Sprintf("Adjunto encontrarás tu ticket de compra.\nTotal: $%s", venta.Total.StringFixed(2)),
			PDFPath: *venta.TicketPath,
		}
		if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
			log.Warn().Err(err).Str("email", *payload.ClienteEmail).Msg("ticket_worker: failed to enqueue email")
		}
	}
	return nil
}

// RenderAndStore renders the ticket and persists the outcome. On failure the
// retry counter grows and the next attempt is scheduled with backoff; past
// MaxTicketRetries the ticket is marked "error". Reports success.
func (w *TicketWorker) RenderAndStore(ctx context.Context, venta *model.VentaPOS) bool {
	path, err := w.render(venta)
	if err != nil {
		venta.TicketRetries++
		msg := err.Error()
		venta.LastError = &msg
		if venta.TicketRetries >= MaxTicketRetries {
			venta.TicketEstado = model.TicketError
			venta.NextRetryAt = nil
		} else {
			venta.TicketEstado = model.TicketPendiente
			next := w.now().Add(computeRetryBackoff(venta.TicketRetries))
			venta.NextRetryAt = &next
		}
		log.Warn().Err(err).
			Str("venta_id", venta.ID.String()).
			Int("retries", venta.TicketRetries).
			Msg("ticket_worker: render failed")
		if upErr := w.ventas.UpdateTicket(ctx, venta); upErr != nil {
			log.Error().Err(upErr).Str("venta_id", venta.ID.String()).Msg("ticket_worker: failed to store retry state")
		}
		return false
	}

	venta.TicketEstado = model.TicketEmitido
	venta.TicketPath = &path
	venta.NextRetryAt = nil
	venta.LastError = nil
	if err := w.ventas.UpdateTicket(ctx, venta); err != nil {
		log.Error().Err(err).Str("venta_id", venta.ID.String()).Msg("ticket_worker: failed to store ticket path")
	}
	log.Info().Str("pdf", path).Str("venta_id", venta.ID.String()).Msg("ticket_worker: ticket generated")
	return true
}

// computeRetryBackoff: 1m, 2m, 4m, 8m … capped at 1h.
func computeRetryBackoff(retries int) time.Duration {
	if retries < 1 {
		retries = 1
	}
	d := time.Minute << uint(retries-1)
	if d > time.Hour || d <= 0 {
		return time.Hour
	}
	return d
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smart/internal/cart"
	"smart/internal/dto"
	"smart/internal/infra"
	"smart/internal/model"
	"smart/internal/repository"
	"smart/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	MovimientoVentaPOS     = "venta_pos"
	MovimientoVentaEnLinea = "venta_en_linea"

	diasEntregaEstimada = 7
)

// JobDispatcher enqueues the receipt rendering job of a committed sale.
type JobDispatcher interface {
	EnqueueTicket(ctx context.Context, payload worker.TicketJobPayload) error
}

// EventPublisher emits domain events after commit. Failures are logged only.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, key string, payload any) error
}

type CheckoutService interface {
	CheckoutPOS(ctx context.Context, t *Terminal, cajero *model.Usuario, req dto.CheckoutPOSRequest) (*dto.CheckoutPOSResponse, error)
	CheckoutEnLinea(ctx context.Context, t *Terminal, cliente *model.Usuario, req dto.CheckoutEnLineaRequest) (*dto.CheckoutEnLineaResponse, error)
	// HistorialPOS lists one cashier's sales of the day containing dia.
	HistorialPOS(ctx context.Context, cajeroID uuid.UUID, dia time.Time) ([]dto.VentaListItem, error)
	ListVentas(ctx context.Context, solicitante *model.Usuario, filter dto.VentaFilter) (*dto.VentaListResponse, error)
	TicketPath(ctx context.Context, solicitante *model.Usuario, ventaID uuid.UUID) (string, error)
}

type CheckoutOptions struct {
	// SplitPorVendedor writes one online order per seller instead of one per checkout.
	SplitPorVendedor bool
}

type checkoutService struct {
	ventas      repository.VentaRepository
	pedidos     repository.PedidoRepository
	prodRepo    repository.ProductoRepository
	cupones     repository.CuponRepository
	movimientos repository.MovimientoStockRepository
	catalogo    ProductoService
	jobs        JobDispatcher
	events      EventPublisher
	opts        CheckoutOptions
	now         func() time.Time
}

func NewCheckoutService(
	ventas repository.VentaRepository,
	pedidos repository.PedidoRepository,
	prodRepo repository.ProductoRepository,
	cupones repository.CuponRepository,
	movimientos repository.MovimientoStockRepository,
	catalogo ProductoService,
	jobs JobDispatcher,
	events EventPublisher,
	opts CheckoutOptions,
) CheckoutService {
	return &checkoutService{
		ventas:      ventas,
		pedidos:     pedidos,
		prodRepo:    prodRepo,
		cupones:     cupones,
		movimientos: movimientos,
		catalogo:    catalogo,
		jobs:        jobs,
		events:      events,
		opts:        opts,
		now:         time.Now,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── CheckoutPOS ───────────────────────────────────────────────────────────────
// Under the terminal lock:
//   1. Reject an empty cart
//   2. BEGIN TX: nextval ticket, insert purchase_history, count the coupon use,
//      conditional stock decrement + movimiento per line
//   3. COMMIT, then clear the cart without returning stock
// After the lock: enqueue the ticket job, reload the cashier's day.

func (s *checkoutService) CheckoutPOS(ctx context.Context, t *Terminal, cajero *model.Usuario, req dto.CheckoutPOSRequest) (*dto.CheckoutPOSResponse, error) {
	var venta model.VentaPOS

	err := t.Do(func(c *cart.Cart) error {
		if c.Empty() {
			return ErrCarritoVacio
		}
		lines := c.Lines()
		venta = model.VentaPOS{
			ID:           uuid.New(),
			CajeroID:     cajero.ID,
			Productos:    toLineas(lines),
			Subtotal:     c.Subtotal(),
			Descuento:    c.Discount(),
			Total:        c.Total(),
			MetodoPago:   req.MetodoPago,
			ClienteEmail: req.ClienteEmail,
			TicketEstado: model.TicketPendiente,
			CreatedAt:    s.now(),
		}
		if cp := c.Coupon(); cp != nil {
			codigo := cp.Codigo
			venta.CodigoCupon = &codigo
		}

		txErr := runTx(ctx, s.ventas.DB(), func(tx *gorm.DB) error {
			num, err := s.ventas.NextTicketNumber(ctx, tx)
			if err != nil {
				return err
			}
			venta.NumeroTicket = num

			if err := s.ventas.Create(ctx, tx, &venta); err != nil {
				return fmt.Errorf("crear venta: %w", err)
			}
			if venta.CodigoCupon != nil {
				if err := s.cupones.IncrementUsoTx(tx, *venta.CodigoCupon); err != nil {
					if errors.Is(err, repository.ErrLimiteCupon) {
						return cart.ErrCuponAgotado
					}
					return fmt.Errorf("registrar uso de cupón: %w", err)
				}
			}
			return s.descontarStock(tx, lines, MovimientoVentaPOS, venta.ID, fmt.Sprintf("Ticket #%d", num))
		})
		if txErr != nil {
			return txErr
		}
		c.Clear()
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStockInsuficiente) {
			s.catalogo.Invalidar(ctx)
		}
		return nil, err
	}

	s.catalogo.Invalidar(ctx)
	s.enqueueTicket(ctx, &venta)

	historial, err := s.HistorialPOS(ctx, cajero.ID, venta.CreatedAt)
	if err != nil {
		log.Warn().Err(err).Str("cajero_id", cajero.ID.String()).Msg("checkout: could not reload purchase history")
		historial = []dto.VentaListItem{}
	}

	log.Info().
		Int("ticket", venta.NumeroTicket).
		Str("total", venta.Total.StringFixed(2)).
		Str("cajero_id", cajero.ID.String()).
		Msg("checkout: POS sale committed")

	return &dto.CheckoutPOSResponse{Recibo: toRecibo(&venta, cajero), Historial: historial}, nil
}

// enqueueTicket hands the sale to the worker pool. If the queue is down the
// sale is scheduled for the retry cron instead.
func (s *checkoutService) enqueueTicket(ctx context.Context, venta *model.VentaPOS) {
	err := s.jobs.EnqueueTicket(ctx, worker.TicketJobPayload{
		VentaID:      venta.ID.String(),
		ClienteEmail: venta.ClienteEmail,
	})
	if err == nil {
		return
	}
	log.Warn().Err(err).Str("venta_id", venta.ID.String()).Msg("checkout: ticket enqueue failed, deferring to retry cron")
	next := s.now()
	venta.NextRetryAt = &next
	if upErr := s.ventas.UpdateTicket(ctx, venta); upErr != nil {
		log.Error().Err(upErr).Str("venta_id", venta.ID.String()).Msg("checkout: could not schedule ticket retry")
	}
}

// descontarStock applies the authoritative stock check: each line's decrement
// only succeeds when the stored stock still covers it.
func (s *checkoutService) descontarStock(tx *gorm.DB, lines []cart.Line, tipo string, ref uuid.UUID, motivo string) error {
	for _, l := range lines {
		nuevo, err := s.prodRepo.DecrementStockTx(tx, l.ProductID, l.Cantidad)
		if err != nil {
			if errors.Is(err, repository.ErrStockInsuficiente) {
				return fmt.Errorf("%w: %s", ErrStockInsuficiente, l.Nombre)
			}
			return fmt.Errorf("descontar stock de %s: %w", l.Nombre, err)
		}
		mov := &model.MovimientoStock{
			ProductoID:    l.ProductID,
			Tipo:          tipo,
			Cantidad:      -l.Cantidad,
			StockAnterior: nuevo + l.Cantidad,
			StockNuevo:    nuevo,
			Motivo:        motivo,
			ReferenciaID:  &ref,
		}
		if err := s.movimientos.CreateTx(tx, mov); err != nil {
			return fmt.Errorf("registrar movimiento: %w", err)
		}
	}
	return nil
}

// ── CheckoutEnLinea ───────────────────────────────────────────────────────────
// Online orders carry the plain line total; a coupon applied to the cart is
// not charged against them.

func (s *checkoutService) CheckoutEnLinea(ctx context.Context, t *Terminal, cliente *model.Usuario, req dto.CheckoutEnLineaRequest) (*dto.CheckoutEnLineaResponse, error) {
	var pedidos []model.VentaEnLinea

	err := t.Do(func(c *cart.Cart) error {
		if c.Empty() {
			return ErrCarritoVacio
		}
		grupos, err := s.agruparLineas(c.Lines())
		if err != nil {
			return err
		}

		now := s.now()
		entrega := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
			AddDate(0, 0, diasEntregaEstimada)

		pedidos = make([]model.VentaEnLinea, 0, len(grupos))
		for _, g := range grupos {
			pedidos = append(pedidos, model.VentaEnLinea{
				ID:                   uuid.New(),
				ClienteID:            cliente.ID,
				VendedorID:           g.vendedor,
				Productos:            toLineas(g.lines),
				MontoTotal:           lineasTotal(g.lines),
				MetodoPago:           req.MetodoPago,
				DireccionID:          req.DireccionID,
				FechaEstimadaEntrega: entrega,
				Seguimiento:          model.HistorialSeguimiento{{Estado: model.EstadoPendiente, Fecha: now}},
				CreatedAt:            now,
			})
		}

		txErr := runTx(ctx, s.pedidos.DB(), func(tx *gorm.DB) error {
			for i := range pedidos {
				if err := s.pedidos.CreateTx(tx, &pedidos[i]); err != nil {
					return fmt.Errorf("crear pedido: %w", err)
				}
				if err := s.descontarStock(tx, grupos[i].lines, MovimientoVentaEnLinea, pedidos[i].ID, "Pedido en línea"); err != nil {
					return err
				}
			}
			return nil
		})
		if txErr != nil {
			return txErr
		}
		c.Clear()
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStockInsuficiente) {
			s.catalogo.Invalidar(ctx)
		}
		return nil, err
	}

	s.catalogo.Invalidar(ctx)

	resp := &dto.CheckoutEnLineaResponse{Pedidos: make([]dto.PedidoResponse, 0, len(pedidos)), Total: decimal.Zero}
	for i := range pedidos {
		p := &pedidos[i]
		if err := s.events.Publish(ctx, infra.EventoPedidoCreado, p.ID.String(), toPedidoResponse(p)); err != nil {
			log.Warn().Err(err).Str("pedido_id", p.ID.String()).Msg("checkout: pedido.creado not published")
		}
		resp.Pedidos = append(resp.Pedidos, toPedidoResponse(p))
		resp.Total = resp.Total.Add(p.MontoTotal)
	}

	log.Info().
		Int("pedidos", len(pedidos)).
		Str("cliente_id", cliente.ID.String()).
		Msg("checkout: online order committed")
	return resp, nil
}

type grupoVendedor struct {
	vendedor uuid.UUID
	lines    []cart.Line
}

// agruparLineas groups lines into orders. Unified mode produces a single order
// owned by the first line's seller; split mode one order per seller, in order
// of first appearance.
func (s *checkoutService) agruparLineas(lines []cart.Line) ([]grupoVendedor, error) {
	for _, l := range lines {
		if l.VendedorID == uuid.Nil {
			return nil, fmt.Errorf("%w: %s", ErrVendedorFaltante, l.Nombre)
		}
	}
	if !s.opts.SplitPorVendedor {
		return []grupoVendedor{{vendedor: lines[0].VendedorID, lines: lines}}, nil
	}

	var grupos []grupoVendedor
	idx := make(map[uuid.UUID]int)
	for _, l := range lines {
		i, ok := idx[l.VendedorID]
		if !ok {
			i = len(grupos)
			idx[l.VendedorID] = i
			grupos = append(grupos, grupoVendedor{vendedor: l.VendedorID})
		}
		grupos[i].lines = append(grupos[i].lines, l)
	}
	return grupos, nil
}

// ── Historial / listados ──────────────────────────────────────────────────────

func (s *checkoutService) HistorialPOS(ctx context.Context, cajeroID uuid.UUID, dia time.Time) ([]dto.VentaListItem, error) {
	desde := inicioDelDia(dia)
	ventas, err := s.ventas.List(ctx, repository.VentaFilter{
		CajeroID: &cajeroID,
		Desde:    desde,
		Hasta:    desde.AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.VentaListItem, 0, len(ventas))
	for i := range ventas {
		items = append(items, toVentaListItem(&ventas[i]))
	}
	return items, nil
}

func (s *checkoutService) ListVentas(ctx context.Context, solicitante *model.Usuario, filter dto.VentaFilter) (*dto.VentaListResponse, error) {
	dia, err := parseFecha(filter.Fecha, s.now())
	if err != nil {
		return nil, err
	}

	f := repository.VentaFilter{Desde: dia, Hasta: dia.AddDate(0, 0, 1)}
	switch {
	case solicitante.Rol != model.RolAdministrador:
		f.CajeroID = &solicitante.ID
	case filter.CajeroID != "":
		id, err := uuid.Parse(filter.CajeroID)
		if err != nil {
			return nil, fmt.Errorf("cajero_id inválido: %w", err)
		}
		f.CajeroID = &id
	}

	ventas, err := s.ventas.List(ctx, f)
	if err != nil {
		return nil, err
	}
	resp := &dto.VentaListResponse{
		Fecha: dia.Format("2006-01-02"),
		Data:  make([]dto.VentaListItem, 0, len(ventas)),
		Total: decimal.Zero,
	}
	for i := range ventas {
		resp.Data = append(resp.Data, toVentaListItem(&ventas[i]))
		resp.Total = resp.Total.Add(ventas[i].Total)
	}
	return resp, nil
}

// TicketPath returns the rendered receipt of a sale. Cashiers only see their own.
func (s *checkoutService) TicketPath(ctx context.Context, solicitante *model.Usuario, ventaID uuid.UUID) (string, error) {
	v, err := s.ventas.FindByID(ctx, ventaID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrVentaNoEncontrada
	}
	if err != nil {
		return "", err
	}
	if solicitante.Rol != model.RolAdministrador && v.CajeroID != solicitante.ID {
		return "", ErrVentaNoEncontrada
	}
	if v.TicketEstado != model.TicketEmitido || v.TicketPath == nil {
		return "", ErrTicketPendiente
	}
	return *v.TicketPath, nil
}

// ── Mapping helpers ───────────────────────────────────────────────────────────

func toLineas(lines []cart.Line) model.Lineas {
	out := make(model.Lineas, 0, len(lines))
	for _, l := range lines {
		out = append(out, model.LineaVenta{
			ProductoID:     l.ProductID,
			Nombre:         l.Nombre,
			Cantidad:       l.Cantidad,
			PrecioUnitario: l.PrecioUnitario,
			VendedorID:     l.VendedorID,
		})
	}
	return out
}

func toLineaResponses(lineas model.Lineas) []dto.LineaResponse {
	out := make([]dto.LineaResponse, 0, len(lineas))
	for _, l := range lineas {
		out = append(out, dto.LineaResponse{
			ProductoID:     l.ProductoID,
			Nombre:         l.Nombre,
			Cantidad:       l.Cantidad,
			PrecioUnitario: l.PrecioUnitario,
			Subtotal:       l.Subtotal(),
		})
	}
	return out
}

func toRecibo(v *model.VentaPOS, cajero *model.Usuario) dto.ReciboResponse {
	return dto.ReciboResponse{
		VentaID:      v.ID.String(),
		NumeroTicket: v.NumeroTicket,
		Items:        toLineaResponses(v.Productos),
		Subtotal:     v.Subtotal,
		Descuento:    v.Descuento,
		Total:        v.Total,
		MetodoPago:   v.MetodoPago,
		Cupon:        v.CodigoCupon,
		Cajero:       cajero.Nombre,
		CajeroEmail:  cajero.Email,
		Fecha:        v.CreatedAt.Format(time.RFC3339),
	}
}

func toVentaListItem(v *model.VentaPOS) dto.VentaListItem {
	return dto.VentaListItem{
		ID:           v.ID.String(),
		NumeroTicket: v.NumeroTicket,
		CajeroID:     v.CajeroID.String(),
		Items:        toLineaResponses(v.Productos),
		Subtotal:     v.Subtotal,
		Descuento:    v.Descuento,
		Total:        v.Total,
		MetodoPago:   v.MetodoPago,
		Cupon:        v.CodigoCupon,
		TicketEstado: v.TicketEstado,
		CreatedAt:    v.CreatedAt.Format(time.RFC3339),
	}
}

func toPedidoResponse(p *model.VentaEnLinea) dto.PedidoResponse {
	estado := model.EstadoPendiente
	if n := len(p.Seguimiento); n > 0 {
		estado = p.Seguimiento[n-1].Estado
	}
	return dto.PedidoResponse{
		ID:                   p.ID.String(),
		VendedorID:           p.VendedorID.String(),
		Items:                toLineaResponses(p.Productos),
		MontoTotal:           p.MontoTotal,
		MetodoPago:           p.MetodoPago,
		FechaEstimadaEntrega: p.FechaEstimadaEntrega.Format("2006-01-02"),
		Estado:               estado,
	}
}

func inicioDelDia(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// parseFecha reads a YYYY-MM-DD date in now's location; empty means today.
func parseFecha(fecha string, now time.Time) (time.Time, error) {
	if fecha == "" {
		return inicioDelDia(now), nil
	}
	d, err := time.ParseInLocation("2006-01-02", fecha, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("fecha inválida: %w", err)
	}
	return d, nil
}

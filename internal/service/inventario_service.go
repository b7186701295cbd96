package service

import (
	"context"
	"time"

	"smart/internal/dto"
	"smart/internal/model"
	"smart/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// InventarioService reports on stored stock: alerts and the movement log.
type InventarioService interface {
	// Alertas lists sold-out and low-stock products. Sellers only see their own.
	Alertas(ctx context.Context, usuario *model.Usuario) (*dto.AlertasStockResponse, error)
	Movimientos(ctx context.Context, filter dto.MovimientoFilter) (*dto.MovimientoListResponse, error)
}

type inventarioService struct {
	productos   repository.ProductoRepository
	movimientos repository.MovimientoStockRepository
	umbral      int
}

func NewInventarioService(productos repository.ProductoRepository, movimientos repository.MovimientoStockRepository, umbral int) InventarioService {
	return &inventarioService{productos: productos, movimientos: movimientos, umbral: umbral}
}

func (s *inventarioService) Alertas(ctx context.Context, usuario *model.Usuario) (*dto.AlertasStockResponse, error) {
	var vendedorID *uuid.UUID
	if usuario.Rol != model.RolAdministrador {
		id := usuario.ID
		vendedorID = &id
	}

	var agotados, bajos []model.Producto
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		agotados, err = s.productos.ListAgotados(gctx, vendedorID)
		return err
	})
	g.Go(func() error {
		var err error
		bajos, err = s.productos.ListBajoStock(gctx, s.umbral, vendedorID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &dto.AlertasStockResponse{
		Agotados:  toAlertas(agotados),
		BajoStock: toAlertas(bajos),
		Umbral:    s.umbral,
	}, nil
}

func toAlertas(ps []model.Producto) []dto.AlertaProducto {
	out := make([]dto.AlertaProducto, 0, len(ps))
	for _, p := range ps {
		a := dto.AlertaProducto{ID: p.ID, Nombre: p.Nombre, Stock: p.Stock}
		if p.VendedorID != nil {
			a.VendedorID = p.VendedorID.String()
		}
		out = append(out, a)
	}
	return out
}

func (s *inventarioService) Movimientos(ctx context.Context, filter dto.MovimientoFilter) (*dto.MovimientoListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 100
	}
	rows, total, err := s.movimientos.List(ctx, repository.MovimientoStockFilter{
		ProductoID: filter.ProductoID,
		Tipo:       filter.Tipo,
		Page:       filter.Page,
		Limit:      filter.Limit,
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.MovimientoListResponse{
		Data:  make([]dto.MovimientoResponse, 0, len(rows)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for _, m := range rows {
		item := dto.MovimientoResponse{
			ID:            m.ID.String(),
			ProductoID:    m.ProductoID,
			Tipo:          m.Tipo,
			Cantidad:      m.Cantidad,
			StockAnterior: m.StockAnterior,
			StockNuevo:    m.StockNuevo,
			Motivo:        m.Motivo,
			CreatedAt:     m.CreatedAt.Format(time.RFC3339),
		}
		if m.Producto != nil {
			item.ProductoNombre = m.Producto.Nombre
		}
		if m.ReferenciaID != nil {
			ref := m.ReferenciaID.String()
			item.ReferenciaID = &ref
		}
		resp.Data = append(resp.Data, item)
	}
	return resp, nil
}

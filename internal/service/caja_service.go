package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smart/internal/dto"
	"smart/internal/infra"
	"smart/internal/model"
	"smart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ReportRenderer writes the cash report PDF and returns its path.
type ReportRenderer func(r infra.ReporteCaja) (string, error)

// CajaService builds the daily cash report and closes a cashier's day.
type CajaService interface {
	Reporte(ctx context.Context, solicitante *model.Usuario, req dto.ReporteCajaRequest) (*dto.ReporteCajaResponse, error)
	// Cierre requires the cashier's closing code and happens once per day.
	Cierre(ctx context.Context, cajero *model.Usuario, req dto.CierreCajaRequest) (*dto.CierreCajaResponse, error)
}

type cajaService struct {
	ventas   repository.VentaRepository
	cierres  repository.CierreRepository
	usuarios repository.UsuarioRepository
	tienda   string
	render   ReportRenderer
	now      func() time.Time
}

func NewCajaService(
	ventas repository.VentaRepository,
	cierres repository.CierreRepository,
	usuarios repository.UsuarioRepository,
	tienda, pdfStoragePath string,
) CajaService {
	return &cajaService{
		ventas:   ventas,
		cierres:  cierres,
		usuarios: usuarios,
		tienda:   tienda,
		render: func(r infra.ReporteCaja) (string, error) {
			return infra.GenerateReportePDF(r, pdfStoragePath)
		},
		now: time.Now,
	}
}

// ── Reporte ───────────────────────────────────────────────────────────────────

func (s *cajaService) Reporte(ctx context.Context, solicitante *model.Usuario, req dto.ReporteCajaRequest) (*dto.ReporteCajaResponse, error) {
	dia, err := parseFecha(req.Fecha, s.now())
	if err != nil {
		return nil, err
	}

	cajero := solicitante
	if solicitante.Rol == model.RolAdministrador && req.CajeroID != "" {
		id, err := uuid.Parse(req.CajeroID)
		if err != nil {
			return nil, fmt.Errorf("cajero_id inválido: %w", err)
		}
		cajero, err = s.usuarios.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("cajero: %w", err)
		}
	}

	rep, err := s.armarReporte(ctx, cajero, dia, false)
	if err != nil {
		return nil, err
	}
	path, err := s.render(*rep)
	if err != nil {
		return nil, fmt.Errorf("reporte: %w", err)
	}

	return &dto.ReporteCajaResponse{
		Fecha:          dia.Format("2006-01-02"),
		Cajero:         cajero.Nombre,
		CantidadVentas: len(rep.Ventas),
		TotalVentas:    rep.TotalVentas,
		TotalDescuento: rep.TotalDescuento,
		PorMetodo:      rep.PorMetodo,
		PDFPath:        path,
	}, nil
}

func (s *cajaService) armarReporte(ctx context.Context, cajero *model.Usuario, dia time.Time, cierre bool) (*infra.ReporteCaja, error) {
	ventas, err := s.ventas.List(ctx, repository.VentaFilter{
		CajeroID: &cajero.ID,
		Desde:    dia,
		Hasta:    dia.AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, err
	}

	rep := &infra.ReporteCaja{
		Tienda:         s.tienda,
		Cajero:         cajero.Nombre,
		Fecha:          dia,
		Ventas:         ventas,
		TotalVentas:    decimal.Zero,
		TotalDescuento: decimal.Zero,
		PorMetodo:      make(map[string]decimal.Decimal),
		Cierre:         cierre,
	}
	for _, v := range ventas {
		rep.TotalVentas = rep.TotalVentas.Add(v.Total)
		rep.TotalDescuento = rep.TotalDescuento.Add(v.Descuento)
		rep.PorMetodo[v.MetodoPago] = rep.PorMetodo[v.MetodoPago].Add(v.Total)
	}
	return rep, nil
}

// ── Cierre ────────────────────────────────────────────────────────────────────

func (s *cajaService) Cierre(ctx context.Context, cajero *model.Usuario, req dto.CierreCajaRequest) (*dto.CierreCajaResponse, error) {
	// the closing code may have changed since the profile was cached
	actual, err := s.usuarios.FindByID(ctx, cajero.ID)
	if err != nil {
		return nil, fmt.Errorf("cajero: %w", err)
	}
	if actual.CierreCodeHash == nil || *actual.CierreCodeHash == "" {
		return nil, ErrCodigoCierreNoConfigurado
	}
	if bcrypt.CompareHashAndPassword([]byte(*actual.CierreCodeHash), []byte(req.Codigo)) != nil {
		log.Warn().Str("cajero_id", cajero.ID.String()).Msg("caja: wrong closing code")
		return nil, ErrCodigoCierreInvalido
	}

	dia := inicioDelDia(s.now())
	_, err = s.cierres.FindByCajeroYFecha(ctx, actual.ID, dia)
	if err == nil {
		return nil, ErrCierreExistente
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	rep, err := s.armarReporte(ctx, actual, dia, true)
	if err != nil {
		return nil, err
	}

	cierre := &model.CierreCaja{
		ID:             uuid.New(),
		CajeroID:       actual.ID,
		Fecha:          dia,
		CantidadVentas: len(rep.Ventas),
		TotalVentas:    rep.TotalVentas,
		TotalDescuento: rep.TotalDescuento,
		Observaciones:  req.Observaciones,
	}
	if path, err := s.render(*rep); err != nil {
		log.Error().Err(err).Str("cajero_id", actual.ID.String()).Msg("caja: closing report not rendered")
	} else {
		cierre.PDFPath = &path
	}

	if err := s.cierres.Create(ctx, cierre); err != nil {
		return nil, fmt.Errorf("registrar cierre: %w", err)
	}
	log.Info().
		Str("cajero_id", actual.ID.String()).
		Int("ventas", cierre.CantidadVentas).
		Str("total", cierre.TotalVentas.StringFixed(2)).
		Msg("caja: day closed")

	return &dto.CierreCajaResponse{
		ID:             cierre.ID.String(),
		Fecha:          dia.Format("2006-01-02"),
		CantidadVentas: cierre.CantidadVentas,
		TotalVentas:    cierre.TotalVentas,
		TotalDescuento: cierre.TotalDescuento,
		PDFPath:        cierre.PDFPath,
		Observaciones:  cierre.Observaciones,
	}, nil
}

package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ReporteCajaRequest struct {
	Fecha    string `json:"fecha"     validate:"omitempty,datetime=2006-01-02"` // empty = today
	CajeroID string `json:"cajero_id" validate:"omitempty,uuid"`                // administrador only
}

type CierreCajaRequest struct {
	Codigo        string  `json:"codigo"        validate:"required,min=4,max=32"`
	Observaciones *string `json:"observaciones" validate:"omitempty,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ReporteCajaResponse struct {
	Fecha          string                     `json:"fecha"`
	Cajero         string                     `json:"cajero"`
	CantidadVentas int                        `json:"cantidad_ventas"`
	TotalVentas    decimal.Decimal            `json:"total_ventas"`
	TotalDescuento decimal.Decimal            `json:"total_descuento"`
	PorMetodo      map[string]decimal.Decimal `json:"por_metodo"`
	PDFPath        string                     `json:"pdf_path"`
}

type CierreCajaResponse struct {
	ID             string          `json:"id"`
	Fecha          string          `json:"fecha"`
	CantidadVentas int             `json:"cantidad_ventas"`
	TotalVentas    decimal.Decimal `json:"total_ventas"`
	TotalDescuento decimal.Decimal `json:"total_descuento"`
	PDFPath        *string         `json:"pdf_path"`
	Observaciones  *string         `json:"observaciones"`
}

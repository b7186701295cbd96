package dto

import "github.com/shopspring/decimal"

// ─── Filter ──────────────────────────────────────────────────────────────────

// ProductoFilter is bound from the query string of GET /v1/productos.
type ProductoFilter struct {
	Nombre     string `form:"nombre"`
	VendedorID string `form:"vendedor_id" validate:"omitempty,uuid"`
	SoloStock  bool   `form:"solo_stock"`
	// Refrescar reloads the catalog and reapplies the cart reservations first.
	Refrescar bool `form:"refrescar"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// ProductoResponse shows the terminal's live stock, not the stored one.
type ProductoResponse struct {
	ID              int64            `json:"id"`
	Nombre          string           `json:"nombre"`
	PrecioVenta     decimal.Decimal  `json:"precio_venta"`
	PrecioDescuento *decimal.Decimal `json:"precio_descuento"`
	PrecioFinal     decimal.Decimal  `json:"precio_final"`
	Stock           int              `json:"stock"`
	EnCarrito       int              `json:"en_carrito"`
	VendedorID      string           `json:"vendedor_id"`
	ImagenURL       string           `json:"imagen_url,omitempty"`
}

type ProductoListResponse struct {
	Data  []ProductoResponse `json:"data"`
	Total int                `json:"total"`
}

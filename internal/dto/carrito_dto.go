package dto

import (
	"smart/internal/cart"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// AgregarItemRequest: an absent cantidad adds one unit.
type AgregarItemRequest struct {
	ProductoID int64 `json:"producto_id" validate:"required,min=1"`
	Cantidad   *int  `json:"cantidad"    validate:"omitempty,min=1"`
}

// Unidades is the quantity to add, 1 when none was given.
func (r AgregarItemRequest) Unidades() int {
	if r.Cantidad == nil {
		return 1
	}
	return *r.Cantidad
}

// ActualizarCantidadRequest: cantidad <= 0 removes the line.
type ActualizarCantidadRequest struct {
	Cantidad *int `json:"cantidad" validate:"required"`
}

type AplicarCuponRequest struct {
	Codigo string `json:"codigo" validate:"required,min=1,max=50"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// CarritoResponse is the cart view plus the stock-exhaustion notice of the
// last mutation, if any.
type CarritoResponse struct {
	cart.Snapshot
	AvisoStock bool   `json:"aviso_stock"`
	Mensaje    string `json:"mensaje,omitempty"`
}

type CuponResponse struct {
	Codigo    string          `json:"codigo"`
	Descuento decimal.Decimal `json:"descuento"`
	Carrito   CarritoResponse `json:"carrito"`
}

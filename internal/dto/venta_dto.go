package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CheckoutPOSRequest struct {
	MetodoPago string `json:"metodo_pago" validate:"required,oneof=efectivo tarjeta transferencia"`
	// ClienteEmail is optional; when present, the ticket worker mails the PDF receipt.
	ClienteEmail *string `json:"cliente_email" validate:"omitempty,email"`
}

type CheckoutEnLineaRequest struct {
	MetodoPago  string `json:"metodo_pago"  validate:"required,oneof=tarjeta transferencia efectivo"`
	DireccionID int64  `json:"direccion_id" validate:"required,min=1"`
}

// VentaFilter is bound from query string of GET /v1/ventas.
type VentaFilter struct {
	Fecha    string `form:"fecha"     validate:"omitempty,datetime=2006-01-02"` // empty = today
	CajeroID string `form:"cajero_id" validate:"omitempty,uuid"`                // administrador only
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type LineaResponse struct {
	ProductoID     int64           `json:"producto_id"`
	Nombre         string          `json:"nombre"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

// ReciboResponse is the receipt shown right after a POS checkout.
type ReciboResponse struct {
	VentaID      string          `json:"venta_id"`
	NumeroTicket int             `json:"numero_ticket"`
	Items        []LineaResponse `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Descuento    decimal.Decimal `json:"descuento"`
	Total        decimal.Decimal `json:"total"`
	MetodoPago   string          `json:"metodo_pago"`
	Cupon        *string         `json:"cupon"`
	Cajero       string          `json:"cajero"`
	CajeroEmail  string          `json:"cajero_email"`
	Fecha        string          `json:"fecha"`
}

type VentaListItem struct {
	ID           string          `json:"id"`
	NumeroTicket int             `json:"numero_ticket"`
	CajeroID     string          `json:"cajero_id"`
	Items        []LineaResponse `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Descuento    decimal.Decimal `json:"descuento"`
	Total        decimal.Decimal `json:"total"`
	MetodoPago   string          `json:"metodo_pago"`
	Cupon        *string         `json:"cupon"`
	TicketEstado string          `json:"ticket_estado"`
	CreatedAt    string          `json:"created_at"`
}

type VentaListResponse struct {
	Fecha string          `json:"fecha"`
	Data  []VentaListItem `json:"data"`
	Total decimal.Decimal `json:"total"`
}

type CheckoutPOSResponse struct {
	Recibo    ReciboResponse  `json:"recibo"`
	Historial []VentaListItem `json:"historial"`
}

type PedidoResponse struct {
	ID                   string          `json:"id"`
	VendedorID           string          `json:"vendedor_id"`
	Items                []LineaResponse `json:"items"`
	MontoTotal           decimal.Decimal `json:"monto_total"`
	MetodoPago           string          `json:"metodo_pago"`
	FechaEstimadaEntrega string          `json:"fecha_estimada_entrega"`
	Estado               string          `json:"estado"`
}

type CheckoutEnLineaResponse struct {
	Pedidos []PedidoResponse `json:"pedidos"`
	Total   decimal.Decimal  `json:"total"`
}

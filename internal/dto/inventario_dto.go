package dto

// ─── Movimientos ─────────────────────────────────────────────────────────────

type MovimientoFilter struct {
	ProductoID *int64 `form:"producto_id" validate:"omitempty,min=1"`
	Tipo       string `form:"tipo"        validate:"omitempty,oneof=venta_pos venta_en_linea"`
	Page       int    `form:"page,default=1"    validate:"min=1"`
	Limit      int    `form:"limit,default=100" validate:"min=1,max=500"`
}

type MovimientoResponse struct {
	ID             string  `json:"id"`
	ProductoID     int64   `json:"producto_id"`
	ProductoNombre string  `json:"producto_nombre,omitempty"`
	Tipo           string  `json:"tipo"`
	Cantidad       int     `json:"cantidad"`
	StockAnterior  int     `json:"stock_anterior"`
	StockNuevo     int     `json:"stock_nuevo"`
	Motivo         string  `json:"motivo"`
	ReferenciaID   *string `json:"referencia_id"`
	CreatedAt      string  `json:"created_at"`
}

type MovimientoListResponse struct {
	Data  []MovimientoResponse `json:"data"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

// ─── Alertas ─────────────────────────────────────────────────────────────────

type AlertaProducto struct {
	ID         int64  `json:"id"`
	Nombre     string `json:"nombre"`
	Stock      int    `json:"stock"`
	VendedorID string `json:"vendedor_id,omitempty"`
}

type AlertasStockResponse struct {
	Agotados  []AlertaProducto `json:"agotados"`
	BajoStock []AlertaProducto `json:"bajo_stock"`
	Umbral    int              `json:"umbral"`
}

// ─── Imágenes ────────────────────────────────────────────────────────────────

type ImagenResponse struct {
	URL string `json:"url"`
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// MovimientoStock registra cada descuento de stock confirmado por una venta.
type MovimientoStock struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoID    int64     `gorm:"not null;index"`
	Tipo          string    `gorm:"not null"` // "venta_pos" | "venta_en_linea"
	Cantidad      int       `gorm:"not null"` // negative = salida
	StockAnterior int       `gorm:"not null"`
	StockNuevo    int       `gorm:"not null"`
	Motivo        string
	ReferenciaID  *uuid.UUID `gorm:"type:uuid"` // purchase_history.id or venta_en_linea.id
	CreatedAt     time.Time

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

// TableName overrides GORM's default pluralization (movimiento_stocks → movimientos_stock).
func (MovimientoStock) TableName() string { return "movimientos_stock" }

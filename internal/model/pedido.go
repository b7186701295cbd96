package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EstadoPendiente seeds every online order's tracking history.
const EstadoPendiente = "Pendiente"

// VentaEnLinea is an online order. Status transitions after creation belong
// to the fulfilment side and are not written here.
type VentaEnLinea struct {
	ID                   uuid.UUID            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClienteID            uuid.UUID            `gorm:"type:uuid;index;not null"`
	VendedorID           uuid.UUID            `gorm:"type:uuid;index;not null"`
	Productos            Lineas               `gorm:"type:jsonb;not null"`
	MontoTotal           decimal.Decimal      `gorm:"type:decimal(12,2);not null"`
	MetodoPago           string               `gorm:"type:varchar(20);not null"`
	DireccionID          int64                `gorm:"not null"`
	FechaEstimadaEntrega time.Time            `gorm:"type:date;not null"`
	Seguimiento          HistorialSeguimiento `gorm:"type:jsonb;not null"`
	CreatedAt            time.Time
}

func (VentaEnLinea) TableName() string { return "venta_en_linea" }

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto is a catalog row. PrecioDescuento, when set and lower than
// PrecioVenta, is the price a new cart line freezes.
type Producto struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	Nombre          string `gorm:"index;not null"`
	Descripcion     *string
	PrecioVenta     decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	PrecioDescuento *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Stock           int              `gorm:"not null;default:0"`
	VendedorID      *uuid.UUID       `gorm:"type:uuid;index"`
	ImagenURL       *string          `gorm:"column:imagen_url"`
	Activo          bool             `gorm:"not null;default:true"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Vendedor *Usuario `gorm:"foreignKey:VendedorID"`
}

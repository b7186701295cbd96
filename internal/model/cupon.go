package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cupon is a discount rule matched by code (case-insensitive).
// TipoDescuento: "porcentaje" | "monto_fijo". LimiteUsos nil = unlimited.
type Cupon struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	Codigo        string          `gorm:"uniqueIndex;not null"`
	TipoDescuento string          `gorm:"type:varchar(20);not null"`
	Valor         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ProductoID    *int64          `gorm:"index"`
	Usos          int             `gorm:"not null;default:0"`
	LimiteUsos    *int
	Activo        bool `gorm:"not null;default:true"`
	CreatedAt     time.Time
}

func (Cupon) TableName() string { return "cupones" }

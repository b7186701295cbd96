package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CierreCaja records a cashier's end-of-day closing. One per cashier and day.
type CierreCaja struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CajeroID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cierre_cajero_fecha"`
	Fecha          time.Time       `gorm:"type:date;not null;uniqueIndex:idx_cierre_cajero_fecha"`
	CantidadVentas int             `gorm:"not null"`
	TotalVentas    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalDescuento decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PDFPath        *string         `gorm:"column:pdf_path"`
	Observaciones  *string
	CreatedAt      time.Time
}

func (CierreCaja) TableName() string { return "cierres_caja" }

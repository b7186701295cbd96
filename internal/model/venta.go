package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TicketEstado: "pendiente" | "emitido" | "error"
const (
	TicketPendiente = "pendiente"
	TicketEmitido   = "emitido"
	TicketError     = "error"
)

// VentaPOS is a point-of-sale sale (purchase_history). Rows are immutable
// once written except for the ticket rendering fields.
type VentaPOS struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NumeroTicket  int             `gorm:"uniqueIndex;not null"`
	CajeroID      uuid.UUID       `gorm:"type:uuid;column:cashier_id;index;not null"`
	Productos     Lineas          `gorm:"type:jsonb;column:products;not null"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Descuento     decimal.Decimal `gorm:"type:decimal(12,2);column:discount;not null;default:0"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);column:total_amount;not null"`
	MetodoPago    string          `gorm:"type:varchar(20);column:payment_method;not null"`
	CodigoCupon   *string         `gorm:"column:coupon_code"`
	ClienteEmail  *string         `gorm:"column:cliente_email"`
	TicketEstado  string          `gorm:"type:varchar(20);not null;default:'pendiente'"`
	TicketPath    *string
	TicketRetries int        `gorm:"not null;default:0"`
	NextRetryAt   *time.Time `gorm:"column:next_retry_at"`
	LastError     *string
	CreatedAt     time.Time

	Cajero *Usuario `gorm:"foreignKey:CajeroID"`
}

func (VentaPOS) TableName() string { return "purchase_history" }

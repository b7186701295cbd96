package model

import (
	"time"

	"github.com/google/uuid"
)

// Conversacion is a buyer↔seller thread, optionally about one product.
// ClienteLeido / VendedorLeido are each side's read flag.
type Conversacion struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoID    *int64    `gorm:"index"`
	ClienteID     uuid.UUID `gorm:"type:uuid;index;not null"`
	VendedorID    uuid.UUID `gorm:"type:uuid;index;not null"`
	ClienteLeido  bool      `gorm:"not null;default:true"`
	VendedorLeido bool      `gorm:"not null;default:true"`
	Actualizado   time.Time `gorm:"not null"`
	CreatedAt     time.Time

	Producto *Producto `gorm:"foreignKey:ProductoID"`
	Cliente  *Usuario  `gorm:"foreignKey:ClienteID"`
	Vendedor *Usuario  `gorm:"foreignKey:VendedorID"`
}

func (Conversacion) TableName() string { return "conversaciones" }

// Participa reports whether usuarioID is one of the two sides.
func (c *Conversacion) Participa(usuarioID uuid.UUID) bool {
	return c.ClienteID == usuarioID || c.VendedorID == usuarioID
}

// Mensaje is one chat message.
type Mensaje struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversacionID uuid.UUID `gorm:"type:uuid;index;not null"`
	RemitenteID    uuid.UUID `gorm:"type:uuid;not null"`
	Contenido      string    `gorm:"not null"`
	Leido          bool      `gorm:"not null;default:false"`
	Creado         time.Time `gorm:"not null"`

	Remitente *Usuario `gorm:"foreignKey:RemitenteID"`
}

func (Mensaje) TableName() string { return "mensajes" }

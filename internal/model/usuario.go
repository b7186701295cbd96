package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	RolCliente       = "cliente"
	RolVendedor      = "vendedor"
	RolCajero        = "cajero"
	RolAdministrador = "administrador"
	RolInvitado      = "invitado"
)

// Usuario is the profile row of a hosted-auth principal; ID is the principal id.
// Rol: "cliente" | "vendedor" | "cajero" | "administrador" | "invitado"
type Usuario struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email      string    `gorm:"uniqueIndex;not null"`
	Nombre     string    `gorm:"not null"`
	Rol        string    `gorm:"type:varchar(20);not null;default:'cliente'"`
	FotoURL    *string   `gorm:"column:foto_url"`
	Suspendido bool      `gorm:"not null;default:false"`
	// CierreCodeHash is the bcrypt hash of the cashier's closing code.
	CierreCodeHash *string `gorm:"column:cierre_code_hash"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PuedeComprar: clientes, vendedores and administradores buy online.
func (u *Usuario) PuedeComprar() bool {
	return u.Rol == RolCliente || u.Rol == RolVendedor || u.Rol == RolAdministrador
}

// PuedeVender: vendedores and administradores manage products.
func (u *Usuario) PuedeVender() bool {
	return u.Rol == RolVendedor || u.Rol == RolAdministrador
}

// PuedeCobrar: the POS is for cajeros and administradores.
func (u *Usuario) PuedeCobrar() bool {
	return u.Rol == RolCajero || u.Rol == RolAdministrador
}

package service

import (
	"errors"

	"smart/internal/repository"
)

var (
	ErrCarritoVacio      = errors.New("el carrito está vacío")
	ErrStockInsuficiente = repository.ErrStockInsuficiente
	ErrVendedorFaltante  = errors.New("hay productos sin vendedor asignado")
	ErrProductoInvalido  = errors.New("producto inválido")

	ErrConversacionNoEncontrada = errors.New("conversación no encontrada")
	ErrConversacionAjena        = errors.New("no participás de esta conversación")
	ErrVendedorInvalido         = errors.New("el destinatario no es un vendedor")
	ErrMensajeVacio             = errors.New("el mensaje está vacío")

	ErrVentaNoEncontrada = errors.New("venta no encontrada")

	ErrCodigoCierreNoConfigurado = errors.New("el cajero no tiene código de cierre configurado")
	ErrCodigoCierreInvalido      = errors.New("código de cierre incorrecto")
	ErrCierreExistente           = errors.New("la caja ya fue cerrada hoy")

	ErrImagenInvalida = errors.New("imagen inválida")
	ErrTokenInvalido  = errors.New("token de sesión inválido")
	ErrSesionAjena    = errors.New("el terminal tiene otra sesión abierta")
)

var ErrTicketPendiente = errors.New("el ticket todavía no fue generado")

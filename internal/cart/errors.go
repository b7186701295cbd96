package cart

import "errors"

var (
	ErrCantidadInvalida     = errors.New("la cantidad debe ser mayor a cero")
	ErrProductoNoEncontrado = errors.New("producto no encontrado")
	ErrItemNoEnCarrito      = errors.New("el producto no está en el carrito")

	ErrCuponInvalido    = errors.New("cupón inválido")
	ErrCuponAgotado     = errors.New("el cupón alcanzó su límite de usos")
	ErrCuponNoAplicable = errors.New("este cupón no es válido para los productos en el carrito")
)

package service

import (
	"context"
	"testing"

	"smart/internal/cart"
	"smart/internal/dto"
	"smart/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCarritoFixture(t *testing.T, cupones ...model.Cupon) (*fixture, CarritoService, *Terminal) {
	f := newFixture(
		producto(1, "Yerba", "50", 3, vendedorA),
		producto(2, "Azúcar", "25", 10, vendedorB),
	)
	svc := NewCarritoService(NewCuponService(newStubCuponRepo(cupones...)))
	return f, svc, f.terminal(t, "c1")
}

func TestAgregar_PartialFulfilmentWarns(t *testing.T) {
	_, svc, term := newCarritoFixture(t)

	resp, err := svc.Agregar(term, dto.AgregarItemRequest{ProductoID: 1, Cantidad: intPtr(5)})
	require.NoError(t, err)
	assert.True(t, resp.AvisoStock)
	assert.Contains(t, resp.Mensaje, "Solo se agregaron 3 unidades de Yerba")
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 3, resp.Items[0].Cantidad)

	resp, err = svc.Agregar(term, dto.AgregarItemRequest{ProductoID: 1, Cantidad: intPtr(1)})
	require.NoError(t, err)
	assert.True(t, resp.AvisoStock)
	assert.Contains(t, resp.Mensaje, "No hay más stock")
	assert.Equal(t, 3, resp.Items[0].Cantidad)
}

func TestAgregar_UnknownProduct(t *testing.T) {
	_, svc, term := newCarritoFixture(t)
	_, err := svc.Agregar(term, dto.AgregarItemRequest{ProductoID: 42, Cantidad: intPtr(1)})
	assert.ErrorIs(t, err, cart.ErrProductoNoEncontrado)
}

func TestActualizar_GrowShrinkAndRemove(t *testing.T) {
	_, svc, term := newCarritoFixture(t)
	_, err := svc.Agregar(term, dto.AgregarItemRequest{ProductoID: 2, Cantidad: intPtr(2)})
	require.NoError(t, err)

	resp, err := svc.Actualizar(term, 2, 6)
	require.NoError(t, err)
	assert.False(t, resp.AvisoStock)
	assert.Equal(t, 6, resp.Items[0].Cantidad)

	resp, err = svc.Actualizar(term, 2, 20)
	require.NoError(t, err)
	assert.True(t, resp.AvisoStock)
	assert.Equal(t, 10, resp.Items[0].Cantidad)

	resp, err = svc.Actualizar(term, 2, 0)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	stock, _ := term.Ledger().Stock(2)
	assert.Equal(t, 10, stock)

	_, err = svc.Actualizar(term, 2, 1)
	assert.ErrorIs(t, err, cart.ErrItemNoEnCarrito)
}

func TestQuitar(t *testing.T) {
	_, svc, term := newCarritoFixture(t)
	_, err := svc.Agregar(term, dto.AgregarItemRequest{ProductoID: 1, Cantidad: intPtr(2)})
	require.NoError(t, err)

	resp, err := svc.Quitar(term, 1)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)

	_, err = svc.Quitar(term, 1)
	assert.ErrorIs(t, err, cart.ErrItemNoEnCarrito)
}

func TestAplicarCupon(t *testing.T) {
	_, svc, term := newCarritoFixture(t,
		model.Cupon{Codigo: "SAVE10", TipoDescuento: "porcentaje", Valor: dec("10"), Activo: true},
		model.Cupon{Codigo: "AGOTADO", TipoDescuento: "monto_fijo", Valor: dec("5"), Usos: 2, LimiteUsos: intPtr(2), Activo: true},
		model.Cupon{Codigo: "VIEJO", TipoDescuento: "monto_fijo", Valor: dec("5"), Activo: false},
	)
	ctx := context.Background()

	_, err := svc.AplicarCupon(ctx, term, "SAVE10")
	assert.ErrorIs(t, err, ErrCarritoVacio)

	_, err = svc.Agregar(term, dto.AgregarItemRequest{ProductoID: 1, Cantidad: intPtr(3)})
	require.NoError(t, err)
	_, err = svc.Agregar(term, dto.AgregarItemRequest{ProductoID: 2, Cantidad: intPtr(2)})
	require.NoError(t, err)

	resp, err := svc.AplicarCupon(ctx, term, "save10")
	require.NoError(t, err)
	assert.True(t, resp.Descuento.Equal(dec("20")))
	assert.True(t, resp.Carrito.Total.Equal(dec("180")))
	assert.Equal(t, "SAVE10", resp.Carrito.Cupon)

	_, err = svc.AplicarCupon(ctx, term, "NOEXISTE")
	assert.ErrorIs(t, err, cart.ErrCuponInvalido)
	_, err = svc.AplicarCupon(ctx, term, "VIEJO")
	assert.ErrorIs(t, err, cart.ErrCuponInvalido)
	_, err = svc.AplicarCupon(ctx, term, "AGOTADO")
	assert.ErrorIs(t, err, cart.ErrCuponAgotado)

	// failures keep the earlier coupon
	view := svc.Ver(term)
	assert.Equal(t, "SAVE10", view.Cupon)
}

func TestCancelar_ReturnsStock(t *testing.T) {
	_, svc, term := newCarritoFixture(t)
	_, err := svc.Agregar(term, dto.AgregarItemRequest{ProductoID: 1, Cantidad: intPtr(3)})
	require.NoError(t, err)

	resp := svc.Cancelar(term)
	assert.Empty(t, resp.Items)
	assert.True(t, resp.Total.IsZero())
	stock, _ := term.Ledger().Stock(1)
	assert.Equal(t, 3, stock)
}

package handler

import (
	"net/http"
	"testing"

	"smart/internal/cart"
	"smart/internal/dto"
	"smart/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCarritoHarness(t *testing.T) *harness {
	h := newHarness(t)
	cupones := &fakeCupones{byCodigo: map[string]*cart.Coupon{
		"SAVE10": {Codigo: "SAVE10", Tipo: cart.DescuentoPorcentaje, Valor: decimal.NewFromInt(10)},
	}}
	ch := NewCarritoHandler(service.NewCarritoService(cupones))
	h.v1.GET("/carrito", ch.Ver)
	h.v1.DELETE("/carrito", ch.Cancelar)
	h.v1.POST("/carrito/items", ch.Agregar)
	h.v1.PUT("/carrito/items/:producto_id", ch.Actualizar)
	h.v1.DELETE("/carrito/items/:producto_id", ch.Quitar)
	h.v1.POST("/carrito/cupon", ch.AplicarCupon)
	return h
}

func TestCarrito_AddThenPartialFillWarns(t *testing.T) {
	h := newCarritoHarness(t)

	w := h.do(t, request{method: http.MethodPost, path: "/v1/carrito/items", body: dto.AgregarItemRequest{ProductoID: 1, Cantidad: intPtr(3)}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[dto.CarritoResponse](t, w)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 3, resp.Items[0].Cantidad)
	assert.False(t, resp.AvisoStock)

	w = h.do(t, request{method: http.MethodPost, path: "/v1/carrito/items", body: dto.AgregarItemRequest{ProductoID: 1, Cantidad: intPtr(5)}})
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[dto.CarritoResponse](t, w)
	assert.Equal(t, 5, resp.Items[0].Cantidad)
	assert.True(t, resp.AvisoStock)
	assert.Contains(t, resp.Mensaje, "Yerba")
	assertDecimal(t, "250", resp.Total)
}

func TestCarrito_CartIsPerClient(t *testing.T) {
	h := newCarritoHarness(t)
	h.do(t, request{method: http.MethodPost, path: "/v1/carrito/items", body: dto.AgregarItemRequest{ProductoID: 2, Cantidad: intPtr(1)}})

	w := h.do(t, request{method: http.MethodGet, path: "/v1/carrito", clientID: "pos-2"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[dto.CarritoResponse](t, w).Items)

	w = h.do(t, request{method: http.MethodGet, path: "/v1/carrito"})
	assert.Len(t, decode[dto.CarritoResponse](t, w).Items, 1)
}

func TestCarrito_AddWithoutCantidadAddsOne(t *testing.T) {
	h := newCarritoHarness(t)

	w := h.do(t, request{method: http.MethodPost, path: "/v1/carrito/items", body: map[string]int{"producto_id": 1}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[dto.CarritoResponse](t, w)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 1, resp.Items[0].Cantidad)

	w = h.do(t, request{method: http.MethodPost, path: "/v1/carrito/items", body: map[string]int{"producto_id": 1}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[dto.CarritoResponse](t, w).Items[0].Cantidad)
}

func TestCarrito_ValidationErrors(t *testing.T) {
	h := newCarritoHarness(t)

	w := h.do(t, request{method: http.MethodPost, path: "/v1/carrito/items", body: "{no es json"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, request{method: http.MethodPost, path: "/v1/carrito/items", body: map[string]int{"producto_id": 1, "cantidad": 0}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = h.do(t, request{method: http.MethodPost, path: "/v1/carrito/items", body: dto.AgregarItemRequest{ProductoID: 99, Cantidad: intPtr(1)}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(t, request{method: http.MethodPut, path: "/v1/carrito/items/abc", body: map[string]int{"cantidad": 1}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCarrito_UpdateToZeroRemovesLine(t *testing.T) {
	h := newCarritoHarness(t)
	h.do(t, request{method: http.MethodPost, path: "/v1/carrito/items", body: dto.AgregarItemRequest{ProductoID: 1, Cantidad: intPtr(2)}})

	w := h.do(t, request{method: http.MethodPut, path: "/v1/carrito/items/1", body: map[string]int{"cantidad": 0}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[dto.CarritoResponse](t, w).Items)

	w = h.do(t, request{method: http.MethodDelete, path: "/v1/carrito/items/1"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCarrito_CouponFlow(t *testing.T) {
	h := newCarritoHarness(t)

	w := h.do(t, request{method: http.MethodPost, path: "/v1/carrito/cupon", body: dto.AplicarCuponRequest{Codigo: "SAVE10"}})
	assert.Equal(t, http.StatusBadRequest, w.Code, "empty cart")

	h.do(t, request{method: http.MethodPost, path: "/v1/carrito/items", body: dto.AgregarItemRequest{ProductoID: 2, Cantidad: intPtr(4)}})

	w = h.do(t, request{method: http.MethodPost, path: "/v1/carrito/cupon", body: dto.AplicarCuponRequest{Codigo: "NOEXISTE"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, request{method: http.MethodPost, path: "/v1/carrito/cupon", body: dto.AplicarCuponRequest{Codigo: "SAVE10"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[dto.CuponResponse](t, w)
	assertDecimal(t, "10", resp.Descuento)
	assertDecimal(t, "90", resp.Carrito.Total)

	w = h.do(t, request{method: http.MethodDelete, path: "/v1/carrito"})
	require.Equal(t, http.StatusOK, w.Code)
	cancel := decode[dto.CarritoResponse](t, w)
	assert.Empty(t, cancel.Items)
	assert.Empty(t, cancel.Cupon)
}

package handler

import (
	"net/http"

	"smart/internal/dto"
	"smart/internal/middleware"
	"smart/internal/service"

	"github.com/gin-gonic/gin"
)

type CarritoHandler struct{ svc service.CarritoService }

func NewCarritoHandler(svc service.CarritoService) *CarritoHandler { return &CarritoHandler{svc: svc} }

// Ver godoc
// @Summary  Ver el carrito del terminal
// @Tags     carrito
// @Produce  json
// @Param    X-Client-ID header string true "Identificador del terminal"
// @Success  200 {object} dto.CarritoResponse
// @Router   /v1/carrito [get]
func (h *CarritoHandler) Ver(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Ver(middleware.GetTerminal(c)))
}

// Agregar godoc
// @Summary      Agregar un producto al carrito
// @Description  Si no hay stock suficiente se agrega lo disponible y la respuesta trae aviso_stock.
// @Tags         carrito
// @Accept       json
// @Produce      json
// @Param        X-Client-ID header string                 true "Identificador del terminal"
// @Param        body        body   dto.AgregarItemRequest true "Producto y cantidad"
// @Success      200 {object} dto.CarritoResponse
// @Failure      404 {object} apierror.APIError
// @Failure      422 {object} apierror.APIError
// @Router       /v1/carrito/items [post]
func (h *CarritoHandler) Agregar(c *gin.Context) {
	var req dto.AgregarItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Agregar(middleware.GetTerminal(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar godoc
// @Summary      Cambiar la cantidad de una linea
// @Description  cantidad <= 0 quita la linea y devuelve su stock.
// @Tags         carrito
// @Accept       json
// @Produce      json
// @Param        X-Client-ID header string                        true "Identificador del terminal"
// @Param        producto_id path   int                           true "ID del producto"
// @Param        body        body   dto.ActualizarCantidadRequest true "Nueva cantidad"
// @Success      200 {object} dto.CarritoResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/carrito/items/{producto_id} [put]
func (h *CarritoHandler) Actualizar(c *gin.Context) {
	id, ok := parseProductoID(c)
	if !ok {
		return
	}
	var req dto.ActualizarCantidadRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(middleware.GetTerminal(c), id, *req.Cantidad)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Quitar godoc
// @Summary  Quitar una linea del carrito
// @Tags     carrito
// @Produce  json
// @Param    X-Client-ID header string true "Identificador del terminal"
// @Param    producto_id path   int    true "ID del producto"
// @Success  200 {object} dto.CarritoResponse
// @Failure  404 {object} apierror.APIError
// @Router   /v1/carrito/items/{producto_id} [delete]
func (h *CarritoHandler) Quitar(c *gin.Context) {
	id, ok := parseProductoID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Quitar(middleware.GetTerminal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AplicarCupon godoc
// @Summary  Aplicar un cupon al carrito
// @Tags     carrito
// @Accept   json
// @Produce  json
// @Param    X-Client-ID header string                  true "Identificador del terminal"
// @Param    body        body   dto.AplicarCuponRequest true "Codigo del cupon"
// @Success  200 {object} dto.CuponResponse
// @Failure  400 {object} apierror.APIError
// @Router   /v1/carrito/cupon [post]
func (h *CarritoHandler) AplicarCupon(c *gin.Context) {
	var req dto.AplicarCuponRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AplicarCupon(c.Request.Context(), middleware.GetTerminal(c), req.Codigo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancelar godoc
// @Summary      Vaciar el carrito
// @Description  Devuelve todo el stock reservado y descarta el cupon.
// @Tags         carrito
// @Produce      json
// @Param        X-Client-ID header string true "Identificador del terminal"
// @Success      200 {object} dto.CarritoResponse
// @Router       /v1/carrito [delete]
func (h *CarritoHandler) Cancelar(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Cancelar(middleware.GetTerminal(c)))
}

package handler

import (
	"fmt"
	"net/http"

	"smart/internal/dto"
	"smart/internal/middleware"
	"smart/internal/service"

	"github.com/gin-gonic/gin"
)

type VentasHandler struct{ svc service.CheckoutService }

func NewVentasHandler(svc service.CheckoutService) *VentasHandler { return &VentasHandler{svc: svc} }

// CheckoutPOS godoc
// @Summary      Cobrar el carrito en caja
// @Description  Registra la venta, descuenta stock, consume el cupon y encola el ticket PDF. Devuelve el recibo y el historial del dia.
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-Client-ID header string                 true "Identificador del terminal"
// @Param        body        body   dto.CheckoutPOSRequest true "Metodo de pago"
// @Success      201 {object} dto.CheckoutPOSResponse
// @Failure      400 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /v1/checkout/pos [post]
func (h *VentasHandler) CheckoutPOS(c *gin.Context) {
	var req dto.CheckoutPOSRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CheckoutPOS(c.Request.Context(), middleware.GetTerminal(c), middleware.GetUsuario(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CheckoutEnLinea godoc
// @Summary      Confirmar una compra en linea
// @Description  Crea el pedido (uno por vendedor si la tienda separa pedidos) con entrega estimada a 7 dias.
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-Client-ID header string                     true "Identificador del terminal"
// @Param        body        body   dto.CheckoutEnLineaRequest true "Pago y direccion"
// @Success      201 {object} dto.CheckoutEnLineaResponse
// @Failure      400 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /v1/checkout/en-linea [post]
func (h *VentasHandler) CheckoutEnLinea(c *gin.Context) {
	var req dto.CheckoutEnLineaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CheckoutEnLinea(c.Request.Context(), middleware.GetTerminal(c), middleware.GetUsuario(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListarVentas godoc
// @Summary      Ventas de caja de un dia
// @Description  Un cajero solo ve sus propias ventas; un administrador puede filtrar por cajero_id.
// @Tags         ventas
// @Produce      json
// @Security     BearerAuth
// @Param        fecha     query string false "YYYY-MM-DD (default hoy)"
// @Param        cajero_id query string false "UUID del cajero"
// @Success      200 {object} dto.VentaListResponse
// @Failure      422 {object} apierror.APIError
// @Router       /v1/ventas [get]
func (h *VentasHandler) ListarVentas(c *gin.Context) {
	var filter dto.VentaFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListVentas(c.Request.Context(), middleware.GetUsuario(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DescargarTicket godoc
// @Summary  Descargar el ticket PDF de una venta
// @Tags     ventas
// @Produce  application/pdf
// @Security BearerAuth
// @Param    id path string true "UUID de la venta"
// @Success  200 {file} binary
// @Failure  404 {object} apierror.APIError
// @Failure  409 {object} apierror.APIError
// @Router   /v1/ventas/{id}/ticket [get]
func (h *VentasHandler) DescargarTicket(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	path, err := h.svc.TicketPath(c.Request.Context(), middleware.GetUsuario(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.FileAttachment(path, fmt.Sprintf("ticket-%s.pdf", id))
}

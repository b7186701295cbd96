package handler

import (
	"net/http"

	"smart/internal/dto"
	"smart/internal/middleware"
	"smart/internal/service"

	"github.com/gin-gonic/gin"
)

type InventarioHandler struct{ svc service.InventarioService }

func NewInventarioHandler(svc service.InventarioService) *InventarioHandler {
	return &InventarioHandler{svc: svc}
}

// Alertas godoc
// @Summary      Productos agotados o con poco stock
// @Description  Un vendedor solo ve sus productos.
// @Tags         inventario
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.AlertasStockResponse
// @Router       /v1/alertas/stock [get]
func (h *InventarioHandler) Alertas(c *gin.Context) {
	resp, err := h.svc.Alertas(c.Request.Context(), middleware.GetUsuario(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Movimientos godoc
// @Summary  Movimientos de stock paginados
// @Tags     inventario
// @Produce  json
// @Security BearerAuth
// @Param    producto_id query int    false "ID del producto"
// @Param    tipo        query string false "venta_pos | venta_en_linea"
// @Param    page        query int    false "Pagina (default 1)"
// @Param    limit       query int    false "Tamaño de pagina (default 100)"
// @Success  200 {object} dto.MovimientoListResponse
// @Router   /v1/inventario/movimientos [get]
func (h *InventarioHandler) Movimientos(c *gin.Context) {
	var filter dto.MovimientoFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Movimientos(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

package handler

import (
	"net/http"

	"smart/internal/dto"
	"smart/internal/middleware"
	"smart/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductosHandler struct {
	svc       service.ProductoService
	terminals service.TerminalService
}

func NewProductosHandler(svc service.ProductoService, terminals service.TerminalService) *ProductosHandler {
	return &ProductosHandler{svc: svc, terminals: terminals}
}

// Listar godoc
// @Summary      Catalogo con el stock disponible para este terminal
// @Description  El stock mostrado descuenta lo que ya esta en el carrito. refrescar=true recarga el catalogo antes.
// @Tags         productos
// @Produce      json
// @Param        X-Client-ID header string true  "Identificador del terminal"
// @Param        nombre      query  string false "Filtro por nombre (contiene)"
// @Param        vendedor_id query  string false "UUID del vendedor"
// @Param        solo_stock  query  bool   false "Solo productos con stock"
// @Param        refrescar   query  bool   false "Recargar catalogo"
// @Success      200 {object} dto.ProductoListResponse
// @Router       /v1/productos [get]
func (h *ProductosHandler) Listar(c *gin.Context) {
	var filter dto.ProductoFilter
	if !bindQuery(c, &filter) {
		return
	}
	t := middleware.GetTerminal(c)
	if filter.Refrescar {
		if err := h.terminals.Refresh(c.Request.Context(), t); err != nil {
			_ = c.Error(err)
			return
		}
	}
	c.JSON(http.StatusOK, h.svc.Listar(t, filter))
}

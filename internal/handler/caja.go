package handler

import (
	"net/http"

	"smart/internal/dto"
	"smart/internal/middleware"
	"smart/internal/service"

	"github.com/gin-gonic/gin"
)

type CajaHandler struct{ svc service.CajaService }

func NewCajaHandler(svc service.CajaService) *CajaHandler { return &CajaHandler{svc: svc} }

// Reporte godoc
// @Summary      Reporte de caja del dia
// @Description  Totales por metodo de pago y PDF A4 paginado con el detalle de ventas.
// @Tags         caja
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.ReporteCajaRequest true "Fecha y cajero"
// @Success      200 {object} dto.ReporteCajaResponse
// @Failure      422 {object} apierror.APIError
// @Router       /v1/caja/reporte [post]
func (h *CajaHandler) Reporte(c *gin.Context) {
	var req dto.ReporteCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Reporte(c.Request.Context(), middleware.GetUsuario(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cierre godoc
// @Summary      Cerrar la caja del dia
// @Description  Requiere el codigo de cierre del cajero. Solo un cierre por dia.
// @Tags         caja
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CierreCajaRequest true "Codigo de cierre"
// @Success      201 {object} dto.CierreCajaResponse
// @Failure      403 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /v1/caja/cierre [post]
func (h *CajaHandler) Cierre(c *gin.Context) {
	var req dto.CierreCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Cierre(c.Request.Context(), middleware.GetUsuario(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

package handler

import (
	"net/http"

	"smart/internal/dto"
	"smart/internal/middleware"
	"smart/internal/service"

	"github.com/gin-gonic/gin"
)

type SesionHandler struct{ svc service.SesionService }

func NewSesionHandler(svc service.SesionService) *SesionHandler { return &SesionHandler{svc: svc} }

// Estado godoc
// @Summary      Estado de la sesion del terminal
// @Description  Resuelve la sesion una sola vez por terminal y devuelve el perfil y la navegacion pendiente.
// @Tags         sesion
// @Produce      json
// @Param        X-Client-ID header string true "Identificador del terminal"
// @Success      200 {object} dto.SesionResponse
// @Router       /v1/sesion [get]
func (h *SesionHandler) Estado(c *gin.Context) {
	resp, err := h.svc.Estado(c.Request.Context(), middleware.GetTerminal(c), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Evento godoc
// @Summary      Aplicar un evento de autenticacion
// @Description  SIGNED_IN, SIGNED_OUT o TOKEN_REFRESHED. Los eventos previos al bootstrap se ignoran.
// @Tags         sesion
// @Accept       json
// @Produce      json
// @Param        X-Client-ID header string                  true "Identificador del terminal"
// @Param        Authorization header string                false "Bearer del usuario con sesion abierta en el terminal"
// @Param        body        body   dto.EventoSesionRequest true "Evento"
// @Success      200 {object} dto.EventoSesionResponse
// @Failure      401 {object} apierror.APIError
// @Failure      422 {object} apierror.APIError
// @Router       /v1/sesion/eventos [post]
func (h *SesionHandler) Evento(c *gin.Context) {
	var req dto.EventoSesionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AplicarEvento(c.Request.Context(), middleware.GetTerminal(c), middleware.GetPrincipal(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cerrar godoc
// @Summary  Cerrar sesion
// @Tags     sesion
// @Produce  json
// @Security BearerAuth
// @Param    X-Client-ID header string true "Identificador del terminal"
// @Success  200 {object} dto.SesionResponse
// @Router   /v1/sesion/cerrar [post]
func (h *SesionHandler) Cerrar(c *gin.Context) {
	resp, err := h.svc.Cerrar(c.Request.Context(), middleware.GetTerminal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

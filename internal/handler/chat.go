package handler

import (
	"io"
	"net/http"
	"time"

	"smart/internal/dto"
	"smart/internal/middleware"
	"smart/internal/service"

	"github.com/gin-gonic/gin"
)

const sseKeepAlive = 25 * time.Second

type ChatHandler struct{ svc service.ChatService }

func NewChatHandler(svc service.ChatService) *ChatHandler { return &ChatHandler{svc: svc} }

// Conversaciones godoc
// @Summary  Conversaciones del usuario
// @Tags     chat
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} dto.ConversacionListResponse
// @Router   /v1/chat/conversaciones [get]
func (h *ChatHandler) Conversaciones(c *gin.Context) {
	resp, err := h.svc.Conversaciones(c.Request.Context(), middleware.GetUsuario(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Iniciar godoc
// @Summary      Iniciar (o reabrir) una conversacion con un vendedor
// @Tags         chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearConversacionRequest true "Vendedor y producto"
// @Success      201 {object} dto.ConversacionResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/chat/conversaciones [post]
func (h *ChatHandler) Iniciar(c *gin.Context) {
	var req dto.CrearConversacionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.IniciarConversacion(c.Request.Context(), middleware.GetUsuario(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Mensajes godoc
// @Summary  Mensajes de una conversacion
// @Tags     chat
// @Produce  json
// @Security BearerAuth
// @Param    id path string true "UUID de la conversacion"
// @Success  200 {array}  dto.MensajeResponse
// @Failure  403 {object} apierror.APIError
// @Failure  404 {object} apierror.APIError
// @Router   /v1/chat/conversaciones/{id}/mensajes [get]
func (h *ChatHandler) Mensajes(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Mensajes(c.Request.Context(), middleware.GetUsuario(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Enviar godoc
// @Summary  Enviar un mensaje
// @Tags     chat
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id   path string                   true "UUID de la conversacion"
// @Param    body body dto.EnviarMensajeRequest true "Contenido"
// @Success  201 {object} dto.MensajeResponse
// @Failure  403 {object} apierror.APIError
// @Router   /v1/chat/conversaciones/{id}/mensajes [post]
func (h *ChatHandler) Enviar(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.EnviarMensajeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Enviar(c.Request.Context(), middleware.GetUsuario(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// MarcarLeido godoc
// @Summary  Marcar como leidos los mensajes recibidos
// @Tags     chat
// @Security BearerAuth
// @Param    id path string true "UUID de la conversacion"
// @Success  204
// @Router   /v1/chat/conversaciones/{id}/leido [post]
func (h *ChatHandler) MarcarLeido(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.MarcarLeido(c.Request.Context(), middleware.GetUsuario(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Stream godoc
// @Summary      Mensajes nuevos en tiempo real (SSE)
// @Description  Cada evento "mensaje" trae un dto.MensajeResponse en JSON. Se envia "ping" periodicamente.
// @Tags         chat
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        id path string true "UUID de la conversacion"
// @Router       /v1/chat/conversaciones/{id}/stream [get]
func (h *ChatHandler) Stream(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	ch, err := h.svc.Suscribir(ctx, middleware.GetUsuario(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("mensaje", string(msg))
			return true
		case <-ticker.C:
			c.SSEvent("ping", "")
			return true
		}
	})
}

package handler

import (
	"net/http"

	"smart/internal/apierror"
	"smart/internal/dto"
	"smart/internal/service"

	"github.com/gin-gonic/gin"
)

type ImagenesHandler struct{ svc service.ImagenService }

func NewImagenesHandler(svc service.ImagenService) *ImagenesHandler {
	return &ImagenesHandler{svc: svc}
}

// Subir godoc
// @Summary      Subir una imagen de producto o perfil
// @Description  multipart/form-data con el campo "imagen" (jpg, png, webp o gif, hasta 5 MB).
// @Tags         imagenes
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        imagen formData file true "Archivo"
// @Success      201 {object} dto.ImagenResponse
// @Failure      400 {object} apierror.APIError
// @Failure      502 {object} apierror.APIError
// @Failure      503 {object} apierror.APIError
// @Router       /v1/imagenes [post]
func (h *ImagenesHandler) Subir(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxImagenBytes+1<<20)
	fh, err := c.FormFile("imagen")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Archivo 'imagen' requerido"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("No se pudo leer el archivo"))
		return
	}
	defer f.Close()

	url, err := h.svc.Subir(c.Request.Context(), fh.Filename, fh.Size, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ImagenResponse{URL: url})
}

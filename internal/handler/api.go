package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Bienvenida godoc
// @Summary  Mensaje de bienvenida de la API publica
// @Tags     api
// @Produce  json
// @Success  200 {object} map[string]string
// @Router   /api [get]
func Bienvenida(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "¡Bienvenido a la API de mi tienda!"})
}

// BienvenidaProductos godoc
// @Summary      Placeholder del listado publico de productos
// @Description  Todavia no consulta la base de datos; el catalogo real vive en /v1/productos.
// @Tags         api
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /api/productos [get]
func BienvenidaProductos(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Bienvenido a la API de productos"})
}

package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"

	"smart/internal/apierror"
	"smart/internal/cart"
	"smart/internal/infra"
	"smart/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	return runValidation(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parametros invalidos: "+err.Error()))
		return false
	}
	return runValidation(c, req)
}

func runValidation(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return uuid.Nil, false
	}
	return id, true
}

func parseProductoID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("producto_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apierror.New("ID de producto invalido"))
		return 0, false
	}
	return id, true
}

// ── Error mapping ─────────────────────────────────────────────────────────────

var errorStatus = []struct {
	err    error
	status int
	codigo string
}{
	{cart.ErrCantidadInvalida, http.StatusBadRequest, apierror.CodigoSolicitud},
	{cart.ErrCuponInvalido, http.StatusBadRequest, apierror.CodigoCupon},
	{cart.ErrCuponAgotado, http.StatusBadRequest, apierror.CodigoCupon},
	{cart.ErrCuponNoAplicable, http.StatusBadRequest, apierror.CodigoCupon},
	{service.ErrCarritoVacio, http.StatusBadRequest, apierror.CodigoSolicitud},
	{service.ErrVendedorFaltante, http.StatusBadRequest, apierror.CodigoSolicitud},
	{service.ErrVendedorInvalido, http.StatusBadRequest, apierror.CodigoSolicitud},
	{service.ErrMensajeVacio, http.StatusBadRequest, apierror.CodigoSolicitud},
	{service.ErrImagenInvalida, http.StatusBadRequest, apierror.CodigoSolicitud},
	{service.ErrTokenInvalido, http.StatusUnauthorized, apierror.CodigoNoAutorizado},
	{service.ErrSesionAjena, http.StatusUnauthorized, apierror.CodigoNoAutorizado},
	{service.ErrConversacionAjena, http.StatusForbidden, apierror.CodigoNoAutorizado},
	{service.ErrCodigoCierreInvalido, http.StatusForbidden, apierror.CodigoNoAutorizado},
	{cart.ErrProductoNoEncontrado, http.StatusNotFound, apierror.CodigoNoEncontrado},
	{cart.ErrItemNoEnCarrito, http.StatusNotFound, apierror.CodigoNoEncontrado},
	{service.ErrConversacionNoEncontrada, http.StatusNotFound, apierror.CodigoNoEncontrado},
	{service.ErrVentaNoEncontrada, http.StatusNotFound, apierror.CodigoNoEncontrado},
	{service.ErrStockInsuficiente, http.StatusConflict, apierror.CodigoStock},
	{service.ErrCierreExistente, http.StatusConflict, apierror.CodigoConflicto},
	{service.ErrTicketPendiente, http.StatusConflict, apierror.CodigoConflicto},
	{service.ErrCodigoCierreNoConfigurado, http.StatusConflict, apierror.CodigoConflicto},
	{infra.ErrCircuitOpen, http.StatusServiceUnavailable, apierror.CodigoNoDisponible},
}

// respondError writes the user-facing status for known domain errors. Anything
// else is attached to the context for ErrorHandler to log and answer 500.
func respondError(c *gin.Context, err error) {
	var upload *infra.UploadError
	if errors.As(err, &upload) {
		c.JSON(http.StatusBadGateway, apierror.WithCodigo(apierror.CodigoProveedorError, upload.Message))
		return
	}
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			c.JSON(e.status, apierror.WithCodigo(e.codigo, err.Error()))
			return
		}
	}
	_ = c.Error(err)
}

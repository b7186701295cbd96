// Package apierror holds the error envelopes every 4xx/5xx response uses, so
// clients never see stack traces or driver errors.
package apierror

// Machine-readable codes for the failures a storefront client reacts to.
const (
	CodigoCupon          = "cupon"
	CodigoStock          = "stock_insuficiente"
	CodigoNoEncontrado   = "no_encontrado"
	CodigoNoAutorizado   = "no_autorizado"
	CodigoConflicto      = "conflicto"
	CodigoNoDisponible   = "no_disponible"
	CodigoSolicitud      = "solicitud_invalida"
	CodigoProveedorError = "proveedor"
)

// APIError is the canonical error envelope. Codigo is empty for generic errors.
type APIError struct {
	Detail string `json:"detail"`
	Codigo string `json:"codigo,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// WithCodigo tags an error message with a machine-readable code.
func WithCodigo(codigo, msg string) *APIError {
	return &APIError{Detail: msg, Codigo: codigo}
}

// ValidationError carries the failing field → validator tag map.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

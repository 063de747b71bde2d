// Package apierror provides the error envelopes returned to API clients.
// Internal details (SQL errors, stack traces) never reach these structs.
package apierror

// Machine-readable codes carried next to the human message.
const (
	CodigoValidacion         = "validacion"
	CodigoNoEncontrado       = "no_encontrado"
	CodigoConflicto          = "conflicto"
	CodigoTransicionInvalida = "transicion_invalida"
	CodigoStockInsuficiente  = "stock_insuficiente"
	CodigoNoAutorizado       = "no_autorizado"
	CodigoInterno            = "interno"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
	Codigo string `json:"codigo,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

func NewConCodigo(codigo, msg string) *APIError {
	return &APIError{Detail: msg, Codigo: codigo}
}

// ValidationError lists the offending fields of a rejected request body.
type ValidationError struct {
	Detail string            `json:"detail"`
	Codigo string            `json:"codigo"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Codigo: CodigoValidacion, Fields: fields}
}

package dto

// ErrorResponse cuerpo de error HTTP. Field indica el input a enfocar en errores de validación.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// MessageResponse respuesta simple para operaciones sin cuerpo propio.
type MessageResponse struct {
	Message string `json:"message"`
}

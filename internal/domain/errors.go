package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrUserNotFound        = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists  = errors.New("el email ya está registrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrDuplicate           = errors.New("recurso duplicado")
	ErrDuplicateNationalID = errors.New("ya existe un cliente con esa cédula")
	ErrDuplicateReceipt    = errors.New("la referencia del comprobante ya fue registrada")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
	ErrConflict            = errors.New("conflicto con el estado actual")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrSequence            = errors.New("no se pudo asignar el número de control")
)

// ValidationError error de validación asociado a un campo del formulario,
// para que el cliente pueda enfocar el input correspondiente.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// NewValidationError construye un error de validación para field envolviendo base.
func NewValidationError(field string, base error, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg, Err: base}
}

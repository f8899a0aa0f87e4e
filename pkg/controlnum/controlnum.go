// Package controlnum formatea y parsea los números de control visibles para el usuario
// (ej: F-000123 para financiamientos, C-000045 para ventas de contado).
package controlnum

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Prefijos por contexto de negocio.
const (
	PrefixContado        = "C"
	PrefixFinanciamiento = "F"
)

// Width cantidad mínima de dígitos del número formateado.
const Width = 6

// ErrInvalid el texto no es un número de control reconocible.
var ErrInvalid = errors.New("número de control inválido")

// Format devuelve prefix-NNNNNN. Un prefijo vacío devuelve solo los dígitos.
// Números más anchos que Width no se truncan.
func Format(prefix string, n int64) string {
	digits := fmt.Sprintf("%0*d", Width, n)
	if prefix == "" {
		return digits
	}
	return strings.ToUpper(prefix) + "-" + digits
}

// ForSale elige el prefijo según el tipo de venta ("contado" o "cuotas").
func ForSale(tipoVenta string, n int64) string {
	if tipoVenta == "contado" {
		return Format(PrefixContado, n)
	}
	return Format(PrefixFinanciamiento, n)
}

// Parse acepta "F-000123", "f-123", "F123", "C-45", "000123" o "123" y devuelve el entero
// y el prefijo en mayúsculas (vacío si venía sin prefijo).
func Parse(s string) (int64, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, "", ErrInvalid
	}
	prefix := ""
	switch strings.ToUpper(s[:1]) {
	case PrefixContado, PrefixFinanciamiento:
		prefix = strings.ToUpper(s[:1])
		s = strings.TrimPrefix(s[1:], "-")
	}
	if s == "" {
		return 0, "", ErrInvalid
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, "", ErrInvalid
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, "", ErrInvalid
	}
	return n, prefix, nil
}

// Normalize convierte cualquier forma aceptada por Parse al entero canónico para búsqueda exacta.
func Normalize(s string) (int64, bool) {
	n, _, err := Parse(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

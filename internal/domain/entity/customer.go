package entity

import "time"

// Customer representa un cliente de la tienda (contado o financiamiento).
// NationalID (cédula) es único entre todos los clientes.
type Customer struct {
	ID            string
	ControlNumber int64
	Name          string
	NationalID    string
	Phone         string
	Address       string
	IDPhotoURL    string // referencia a la foto de la cédula; obligatoria al crear
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

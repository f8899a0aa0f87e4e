package dto

import "time"

// CreateCustomerRequest body para POST /api/customers. La foto de la cédula es obligatoria.
type CreateCustomerRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=200"`
	NationalID string `json:"national_id" validate:"required,min=4,max=20"`
	Phone      string `json:"phone" validate:"required,min=7,max=30"`
	Address    string `json:"address" validate:"omitempty,max=300"`
	IDPhotoURL string `json:"id_photo_url" validate:"required,url"`
}

// UpdateCustomerRequest body para PUT /api/customers/:id. Solo se aplican los campos enviados.
type UpdateCustomerRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=2,max=200"`
	NationalID *string `json:"national_id" validate:"omitempty,min=4,max=20"`
	Phone      *string `json:"phone" validate:"omitempty,min=7,max=30"`
	Address    *string `json:"address" validate:"omitempty,max=300"`
	IDPhotoURL *string `json:"id_photo_url" validate:"omitempty,url"`
}

// CustomerResponse cliente en respuestas.
type CustomerResponse struct {
	ID                string    `json:"id"`
	ControlNumber     int64     `json:"control_number"`
	ControlNumberText string    `json:"control_number_text"`
	Name              string    `json:"name"`
	NationalID        string    `json:"national_id"`
	Phone             string    `json:"phone"`
	Address           string    `json:"address,omitempty"`
	IDPhotoURL        string    `json:"id_photo_url"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CustomerListResponse listado de clientes.
type CustomerListResponse struct {
	Items []CustomerResponse `json:"items"`
	Total int                `json:"total"`
}

package dto

import "time"

type RegistrarDispositivoRequest struct {
	DeviceID string `json:"device_id" validate:"required,min=8,max=128"`
	Nombre   string `json:"nombre"    validate:"required,min=2,max=100"`
}

type AprobarDispositivoRequest struct {
	// UsuarioID optionally pins the device to one staff member
	UsuarioID *string `json:"usuario_id" validate:"omitempty,uuid"`
}

type DispositivoResponse struct {
	ID           string    `json:"id"`
	Nombre       string    `json:"nombre"`
	Estado       string    `json:"estado"`
	UsuarioID    *string   `json:"usuario_id"`
	RegisteredAt time.Time `json:"registered_at"`
}

// EstadoDispositivoResponse is what the login screen polls before submitting.
type EstadoDispositivoResponse struct {
	Registrado bool `json:"registrado"`
	Aprobado   bool `json:"aprobado"`
}

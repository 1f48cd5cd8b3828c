package dto

import "time"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	DeviceID string `json:"device_id" validate:"required,min=8,max=128"`
	PIN      string `json:"pin"       validate:"required,numeric,min=4,max=8"`
}

type CrearUsuarioRequest struct {
	Username string `json:"username" validate:"required,min=1,max=150"`
	Nombre   string `json:"nombre"   validate:"required,min=2,max=100"`
	PIN      string `json:"pin"      validate:"required,numeric,min=4,max=8"`
	Rol      string `json:"rol"      validate:"required,oneof=admin capitan mesero cocina bar supervisor"`
}

type ActualizarUsuarioRequest struct {
	Nombre string `json:"nombre" validate:"omitempty,min=2,max=100"`
	Rol    string `json:"rol"    validate:"omitempty,oneof=admin capitan mesero cocina bar supervisor"`
	PIN    string `json:"pin"    validate:"omitempty,numeric,min=4,max=8"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UsuarioResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Nombre   string `json:"nombre"`
	Rol      string `json:"rol"`
	Activo   bool   `json:"activo"`
}

type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   int             `json:"expires_in"` // seconds
	ExpiresAt   time.Time       `json:"expires_at"`
	User        UsuarioResponse `json:"user"`
}

// SesionResponse mirrors the session blob held per device.
type SesionResponse struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	UserRole  string    `json:"user_role"`
	ExpiresAt time.Time `json:"expires_at"`
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Usuario stores staff members with role-based access.
// Rol: "admin" | "capitan" | "mesero" | "cocina" | "bar" | "supervisor"
// PINHash is the bcrypt hash of the login PIN — the clear PIN is never stored
// nor logged. Exactly one active hash per user: setting a new PIN overwrites it.
type Usuario struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username string    `gorm:"uniqueIndex;not null"`
	Nombre   string    `gorm:"not null"`
	Rol      string    `gorm:"type:varchar(20);not null"`
	PINHash  string    `gorm:"column:pin_hash;not null"`
	Activo   bool      `gorm:"not null;default:true"`

	Dispositivos []Dispositivo `gorm:"foreignKey:UsuarioID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

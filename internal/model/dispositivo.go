package model

import (
	"time"

	"github.com/google/uuid"
)

// Device approval states. A device must exist AND be "aprobado" before any
// login from it is accepted; "pendiente" and "rechazado" devices are refused
// regardless of PIN correctness.
const (
	DispositivoPendiente = "pendiente"
	DispositivoAprobado  = "aprobado"
	DispositivoRechazado = "rechazado"
)

// Dispositivo is a registered client terminal (tablet, register, kitchen screen).
// The ID is the client-generated device fingerprint, so it is the natural key.
type Dispositivo struct {
	ID     string `gorm:"primaryKey"`
	Nombre string `gorm:"not null"`
	Estado string `gorm:"type:varchar(20);not null;default:'pendiente'"`
	// UsuarioID optionally pins the device to one staff member
	UsuarioID    *uuid.UUID `gorm:"type:uuid;index"`
	RegisteredAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt    time.Time
}

func (Dispositivo) TableName() string { return "dispositivos" }

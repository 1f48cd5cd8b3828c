package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	MesaLibre   = "libre"
	MesaOcupada = "ocupada"
)

// Mesa is a physical table in the dining room.
// Estado flips to "ocupada" when an order opens on it and back to "libre"
// when the order closes or is cancelled.
type Mesa struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Numero    int       `gorm:"uniqueIndex;not null"`
	Zona      string    `gorm:"not null;default:'salon'"`
	Estado    string    `gorm:"type:varchar(20);not null;default:'libre'"`
	Activa    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ticket routing destinations for menu items.
const (
	DestinoCocina = "cocina"
	DestinoBar    = "bar"
)

// Producto is a menu item. Destino decides which station's ticket printer
// receives it when an order is sent.
type Producto struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre      string    `gorm:"index;not null"`
	Descripcion *string
	Categoria   string          `gorm:"not null"`
	Destino     string          `gorm:"type:varchar(10);not null;default:'cocina'"`
	Precio      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	StockActual int             `gorm:"not null;default:0"`
	StockMinimo int             `gorm:"not null;default:5"`
	Activo      bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

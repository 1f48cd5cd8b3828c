package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	OrdenAbierta = "abierta"
	OrdenCerrada = "cerrada"
	OrdenAnulada = "anulada"
)

// Orden is a table order: opened by a waiter, items accumulate and are sent
// in batches to kitchen/bar, closed with a payment method.
type Orden struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MesaID   uuid.UUID `gorm:"type:uuid;not null;index"`
	MeseroID uuid.UUID `gorm:"type:uuid;not null;index"`
	Estado   string    `gorm:"type:varchar(20);not null;default:'abierta'"`
	// Total is computed at close from item subtotals
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	MetodoPago *string         `gorm:"type:varchar(20)"` // "efectivo" | "tarjeta" | "transferencia"
	Motivo     *string         // cancellation reason
	OpenedAt   time.Time       `gorm:"autoCreateTime"`
	ClosedAt   *time.Time

	Mesa  *Mesa       `gorm:"foreignKey:MesaID"`
	Items []OrdenItem `gorm:"foreignKey:OrdenID"`
}

func (Orden) TableName() string { return "ordenes" }

// OrdenItem is one line of an order. Nombre, PrecioUnitario and Destino are
// copied from the Producto at add time so later menu edits don't rewrite
// historical orders.
type OrdenItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrdenID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null"`
	Nombre         string          `gorm:"not null"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Destino        string          `gorm:"type:varchar(10);not null"`
	Enviado        bool            `gorm:"not null;default:false"`
	Notas          *string
	CreatedAt      time.Time
}

func (OrdenItem) TableName() string { return "orden_items" }

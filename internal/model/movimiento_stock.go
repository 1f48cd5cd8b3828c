package model

import (
	"time"

	"github.com/google/uuid"
)

// MovimientoStock records every stock change on a product.
// Created automatically on order close, manual adjustment, or cancellation.
// Movements are immutable — corrections create inverse entries.
type MovimientoStock struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Tipo          string    `gorm:"not null"` // "consumo" | "ajuste_manual" | "restore_anulacion"
	Cantidad      int       `gorm:"not null"` // positive = entrada, negative = salida
	StockAnterior int       `gorm:"not null"`
	StockNuevo    int       `gorm:"not null"`
	Motivo        string
	ReferenciaID  *uuid.UUID `gorm:"type:uuid"` // orden_id if applicable
	CreatedAt     time.Time

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

// TableName overrides GORM's default pluralization.
func (MovimientoStock) TableName() string { return "movimientos_stock" }

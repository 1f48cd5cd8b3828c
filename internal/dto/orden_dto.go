package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type AbrirOrdenRequest struct {
	MesaID string `json:"mesa_id" validate:"required,uuid"`
}

type OrdenItemRequest struct {
	ProductoID string  `json:"producto_id" validate:"required,uuid"`
	Cantidad   int     `json:"cantidad"    validate:"required,min=1,max=99"`
	Notas      *string `json:"notas"       validate:"omitempty,max=200"`
}

type AgregarItemsRequest struct {
	Items []OrdenItemRequest `json:"items" validate:"required,min=1,dive"`
}

type CerrarOrdenRequest struct {
	MetodoPago string `json:"metodo_pago" validate:"required,oneof=efectivo tarjeta transferencia"`
}

type AnularOrdenRequest struct {
	Motivo string `json:"motivo" validate:"required,min=5,max=200"`
}

type OrdenItemResponse struct {
	ID             string          `json:"id"`
	ProductoID     string          `json:"producto_id"`
	Nombre         string          `json:"nombre"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Destino        string          `json:"destino"`
	Enviado        bool            `json:"enviado"`
	Notas          *string         `json:"notas"`
}

type OrdenResponse struct {
	ID         string              `json:"id"`
	MesaID     string              `json:"mesa_id"`
	MesaNumero int                 `json:"mesa_numero,omitempty"`
	MeseroID   string              `json:"mesero_id"`
	Estado     string              `json:"estado"`
	Total      decimal.Decimal     `json:"total"`
	MetodoPago *string             `json:"metodo_pago,omitempty"`
	Items      []OrdenItemResponse `json:"items"`
	OpenedAt   time.Time           `json:"opened_at"`
	ClosedAt   *time.Time          `json:"closed_at"`
}

type OrdenFilter struct {
	Estado string
	Fecha  *time.Time
	Mesero *string
}

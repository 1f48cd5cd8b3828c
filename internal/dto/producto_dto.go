package dto

import "github.com/shopspring/decimal"

type CrearProductoRequest struct {
	Nombre      string          `json:"nombre"       validate:"required,min=2,max=150"`
	Descripcion *string         `json:"descripcion"  validate:"omitempty,max=500"`
	Categoria   string          `json:"categoria"    validate:"required,min=2,max=50"`
	Destino     string          `json:"destino"      validate:"required,oneof=cocina bar"`
	Precio      decimal.Decimal `json:"precio"       validate:"required,gt=0"`
	StockActual int             `json:"stock_actual" validate:"min=0"`
	StockMinimo int             `json:"stock_minimo" validate:"min=0"`
}

type ActualizarProductoRequest struct {
	Nombre      string           `json:"nombre"       validate:"omitempty,min=2,max=150"`
	Descripcion *string          `json:"descripcion"  validate:"omitempty,max=500"`
	Categoria   string           `json:"categoria"    validate:"omitempty,min=2,max=50"`
	Destino     string           `json:"destino"      validate:"omitempty,oneof=cocina bar"`
	Precio      *decimal.Decimal `json:"precio"       validate:"omitempty,gt=0"`
	StockMinimo *int             `json:"stock_minimo" validate:"omitempty,min=0"`
}

type AjustarStockRequest struct {
	// Cantidad is the delta: positive = entrada, negative = salida
	Cantidad int    `json:"cantidad" validate:"required"`
	Motivo   string `json:"motivo"   validate:"required,min=3,max=200"`
}

type ProductoResponse struct {
	ID          string          `json:"id"`
	Nombre      string          `json:"nombre"`
	Descripcion *string         `json:"descripcion"`
	Categoria   string          `json:"categoria"`
	Destino     string          `json:"destino"`
	Precio      decimal.Decimal `json:"precio"`
	StockActual int             `json:"stock_actual"`
	StockMinimo int             `json:"stock_minimo"`
	Activo      bool            `json:"activo"`
}

type AlertaStockResponse struct {
	ProductoID  string `json:"producto_id"`
	Nombre      string `json:"nombre"`
	StockActual int    `json:"stock_actual"`
	StockMinimo int    `json:"stock_minimo"`
}

type MovimientoStockResponse struct {
	ID            string  `json:"id"`
	ProductoID    string  `json:"producto_id"`
	Tipo          string  `json:"tipo"`
	Cantidad      int     `json:"cantidad"`
	StockAnterior int     `json:"stock_anterior"`
	StockNuevo    int     `json:"stock_nuevo"`
	Motivo        string  `json:"motivo"`
	ReferenciaID  *string `json:"referencia_id"`
	CreatedAt     string  `json:"created_at"`
}

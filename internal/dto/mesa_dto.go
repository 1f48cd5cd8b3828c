package dto

type CrearMesaRequest struct {
	Numero int    `json:"numero" validate:"required,min=1,max=999"`
	Zona   string `json:"zona"   validate:"omitempty,min=2,max=50"`
}

type MesaResponse struct {
	ID     string `json:"id"`
	Numero int    `json:"numero"`
	Zona   string `json:"zona"`
	Estado string `json:"estado"`
	// OrdenID is set when the mesa has an open order
	OrdenID *string `json:"orden_id,omitempty"`
}

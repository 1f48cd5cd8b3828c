package service

import (
	"context"

	"restpos/internal/dto"
	"restpos/internal/model"
	"restpos/internal/repository"
)

type MesaService interface {
	Crear(ctx context.Context, req dto.CrearMesaRequest) (*dto.MesaResponse, error)
	Listar(ctx context.Context) ([]dto.MesaResponse, error)
}

type mesaService struct {
	repo      repository.MesaRepository
	ordenRepo repository.OrdenRepository
}

func NewMesaService(repo repository.MesaRepository, ordenRepo repository.OrdenRepository) MesaService {
	return &mesaService{repo: repo, ordenRepo: ordenRepo}
}

func (s *mesaService) Crear(ctx context.Context, req dto.CrearMesaRequest) (*dto.MesaResponse, error) {
	zona := req.Zona
	if zona == "" {
		zona = "salon"
	}
	m := &model.Mesa{Numero: req.Numero, Zona: zona, Estado: model.MesaLibre, Activa: true}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return mesaToResponse(m, nil), nil
}

// Listar returns the floor map: every mesa plus the id of its open order.
func (s *mesaService) Listar(ctx context.Context) ([]dto.MesaResponse, error) {
	mesas, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	abiertas, err := s.ordenRepo.ListAbiertas(ctx)
	if err != nil {
		return nil, err
	}
	ordenPorMesa := make(map[string]string, len(abiertas))
	for _, o := range abiertas {
		ordenPorMesa[o.MesaID.String()] = o.ID.String()
	}

	resp := make([]dto.MesaResponse, len(mesas))
	for i := range mesas {
		var ordenID *string
		if oid, ok := ordenPorMesa[mesas[i].ID.String()]; ok {
			ordenID = &oid
		}
		resp[i] = *mesaToResponse(&mesas[i], ordenID)
	}
	return resp, nil
}

func mesaToResponse(m *model.Mesa, ordenID *string) *dto.MesaResponse {
	return &dto.MesaResponse{
		ID:      m.ID.String(),
		Numero:  m.Numero,
		Zona:    m.Zona,
		Estado:  m.Estado,
		OrdenID: ordenID,
	}
}

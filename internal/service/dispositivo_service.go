package service

import (
	"context"
	"errors"

	"restpos/internal/dto"
	"restpos/internal/model"
	"restpos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type DispositivoService interface {
	// Registrar creates the device in "pendiente" state. Re-registering an
	// existing device is a no-op that returns its current record.
	Registrar(ctx context.Context, req dto.RegistrarDispositivoRequest) (*dto.DispositivoResponse, error)
	// CheckDevice answers the login screen's pre-flight: two distinct booleans
	// so "unregistered" and "not approved" surface as different messages.
	CheckDevice(ctx context.Context, deviceID string) (*dto.EstadoDispositivoResponse, error)
	Listar(ctx context.Context, estado string) ([]dto.DispositivoResponse, error)
	Aprobar(ctx context.Context, deviceID string, usuarioID *uuid.UUID) error
	Rechazar(ctx context.Context, deviceID string) error
}

type dispositivoService struct {
	repo repository.DispositivoRepository
}

func NewDispositivoService(repo repository.DispositivoRepository) DispositivoService {
	return &dispositivoService{repo: repo}
}

func (s *dispositivoService) Registrar(ctx context.Context, req dto.RegistrarDispositivoRequest) (*dto.DispositivoResponse, error) {
	existing, err := s.repo.FindByID(ctx, req.DeviceID)
	if err == nil {
		return dispositivoToResponse(existing), nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	d := &model.Dispositivo{
		ID:     req.DeviceID,
		Nombre: req.Nombre,
		Estado: model.DispositivoPendiente,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	log.Info().Str("device_id", d.ID).Str("nombre", d.Nombre).Msg("dispositivo registrado, pendiente de aprobacion")
	return dispositivoToResponse(d), nil
}

func (s *dispositivoService) CheckDevice(ctx context.Context, deviceID string) (*dto.EstadoDispositivoResponse, error) {
	d, err := s.repo.FindByID(ctx, deviceID)
	if errors.Is(err, repository.ErrNotFound) {
		return &dto.EstadoDispositivoResponse{Registrado: false, Aprobado: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return &dto.EstadoDispositivoResponse{
		Registrado: true,
		Aprobado:   d.Estado == model.DispositivoAprobado,
	}, nil
}

func (s *dispositivoService) Listar(ctx context.Context, estado string) ([]dto.DispositivoResponse, error) {
	devices, err := s.repo.List(ctx, estado)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.DispositivoResponse, len(devices))
	for i := range devices {
		resp[i] = *dispositivoToResponse(&devices[i])
	}
	return resp, nil
}

func (s *dispositivoService) Aprobar(ctx context.Context, deviceID string, usuarioID *uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, deviceID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDispositivoNoRegistrado
		}
		return err
	}
	return s.repo.UpdateEstado(ctx, deviceID, model.DispositivoAprobado, usuarioID)
}

func (s *dispositivoService) Rechazar(ctx context.Context, deviceID string) error {
	if _, err := s.repo.FindByID(ctx, deviceID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDispositivoNoRegistrado
		}
		return err
	}
	return s.repo.UpdateEstado(ctx, deviceID, model.DispositivoRechazado, nil)
}

func dispositivoToResponse(d *model.Dispositivo) *dto.DispositivoResponse {
	var uid *string
	if d.UsuarioID != nil {
		s := d.UsuarioID.String()
		uid = &s
	}
	return &dto.DispositivoResponse{
		ID:           d.ID,
		Nombre:       d.Nombre,
		Estado:       d.Estado,
		UsuarioID:    uid,
		RegisteredAt: d.RegisteredAt,
	}
}

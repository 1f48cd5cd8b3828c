package repository

import (
	"context"
	"errors"

	"restpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DispositivoRepository interface {
	Create(ctx context.Context, d *model.Dispositivo) error
	FindByID(ctx context.Context, id string) (*model.Dispositivo, error)
	List(ctx context.Context, estado string) ([]model.Dispositivo, error)
	UpdateEstado(ctx context.Context, id, estado string, usuarioID *uuid.UUID) error
}

type dispositivoRepo struct{ db *gorm.DB }

func NewDispositivoRepository(db *gorm.DB) DispositivoRepository {
	return &dispositivoRepo{db: db}
}

func (r *dispositivoRepo) Create(ctx context.Context, d *model.Dispositivo) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *dispositivoRepo) FindByID(ctx context.Context, id string) (*model.Dispositivo, error) {
	var d model.Dispositivo
	err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *dispositivoRepo) List(ctx context.Context, estado string) ([]model.Dispositivo, error) {
	var devices []model.Dispositivo
	q := r.db.WithContext(ctx)
	if estado != "" {
		q = q.Where("estado = ?", estado)
	}
	err := q.Order("registered_at DESC").Find(&devices).Error
	return devices, err
}

func (r *dispositivoRepo) UpdateEstado(ctx context.Context, id, estado string, usuarioID *uuid.UUID) error {
	updates := map[string]interface{}{"estado": estado}
	if usuarioID != nil {
		updates["usuario_id"] = *usuarioID
	}
	return r.db.WithContext(ctx).Model(&model.Dispositivo{}).Where("id = ?", id).Updates(updates).Error
}

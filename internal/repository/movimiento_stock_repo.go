package repository

import (
	"context"

	"restpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MovimientoStockRepository interface {
	ListPorProducto(ctx context.Context, productoID uuid.UUID, limit int) ([]model.MovimientoStock, error)
	List(ctx context.Context, limit int) ([]model.MovimientoStock, error)
}

type movimientoStockRepo struct{ db *gorm.DB }

func NewMovimientoStockRepository(db *gorm.DB) MovimientoStockRepository {
	return &movimientoStockRepo{db: db}
}

func (r *movimientoStockRepo) ListPorProducto(ctx context.Context, productoID uuid.UUID, limit int) ([]model.MovimientoStock, error) {
	var movs []model.MovimientoStock
	err := r.db.WithContext(ctx).
		Where("producto_id = ?", productoID).
		Order("created_at DESC").Limit(limit).Find(&movs).Error
	return movs, err
}

func (r *movimientoStockRepo) List(ctx context.Context, limit int) ([]model.MovimientoStock, error) {
	var movs []model.MovimientoStock
	err := r.db.WithContext(ctx).Preload("Producto").
		Order("created_at DESC").Limit(limit).Find(&movs).Error
	return movs, err
}

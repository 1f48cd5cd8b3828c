package repository

import (
	"context"
	"fmt"
	"time"

	"restpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrdenRepository interface {
	Create(ctx context.Context, o *model.Orden) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Orden, error)
	FindAbiertaPorMesa(ctx context.Context, mesaID uuid.UUID) (*model.Orden, error)
	ListAbiertas(ctx context.Context) ([]model.Orden, error)
	ListPorFecha(ctx context.Context, desde, hasta time.Time) ([]model.Orden, error)
	AddItems(ctx context.Context, items []model.OrdenItem) error
	MarkItemsEnviados(ctx context.Context, ordenID uuid.UUID, itemIDs []uuid.UUID) error
	// Cerrar finalizes the order, consumes stock, frees the mesa — one TX.
	Cerrar(ctx context.Context, o *model.Orden, movimientos []model.MovimientoStock) error
	// Anular cancels the order and frees the mesa in one TX. Stock only moves
	// at close, so cancellation passes no movements.
	Anular(ctx context.Context, o *model.Orden, movimientos []model.MovimientoStock) error
}

type ordenRepo struct{ db *gorm.DB }

func NewOrdenRepository(db *gorm.DB) OrdenRepository { return &ordenRepo{db: db} }

func (r *ordenRepo) Create(ctx context.Context, o *model.Orden) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		return tx.Model(&model.Mesa{}).Where("id = ?", o.MesaID).
			Update("estado", model.MesaOcupada).Error
	})
}

func (r *ordenRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Orden, error) {
	var o model.Orden
	err := r.db.WithContext(ctx).Preload("Items").Preload("Mesa").First(&o, id).Error
	return &o, err
}

func (r *ordenRepo) FindAbiertaPorMesa(ctx context.Context, mesaID uuid.UUID) (*model.Orden, error) {
	var o model.Orden
	err := r.db.WithContext(ctx).Preload("Items").
		Where("mesa_id = ? AND estado = ?", mesaID, model.OrdenAbierta).
		First(&o).Error
	return &o, err
}

func (r *ordenRepo) ListAbiertas(ctx context.Context) ([]model.Orden, error) {
	var ordenes []model.Orden
	err := r.db.WithContext(ctx).Preload("Items").Preload("Mesa").
		Where("estado = ?", model.OrdenAbierta).
		Order("opened_at").Find(&ordenes).Error
	return ordenes, err
}

// ListPorFecha returns orders that reached a terminal state inside the range.
// Orders still open have no closed_at and are excluded.
func (r *ordenRepo) ListPorFecha(ctx context.Context, desde, hasta time.Time) ([]model.Orden, error) {
	var ordenes []model.Orden
	err := r.db.WithContext(ctx).Preload("Items").
		Where("closed_at >= ? AND closed_at < ?", desde, hasta).
		Order("closed_at").Find(&ordenes).Error
	return ordenes, err
}

func (r *ordenRepo) AddItems(ctx context.Context, items []model.OrdenItem) error {
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *ordenRepo) MarkItemsEnviados(ctx context.Context, ordenID uuid.UUID, itemIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.OrdenItem{}).
		Where("orden_id = ? AND id IN ?", ordenID, itemIDs).
		Update("enviado", true).Error
}

func (r *ordenRepo) Cerrar(ctx context.Context, o *model.Orden, movimientos []model.MovimientoStock) error {
	return r.finalize(ctx, o, movimientos)
}

func (r *ordenRepo) Anular(ctx context.Context, o *model.Orden, movimientos []model.MovimientoStock) error {
	return r.finalize(ctx, o, movimientos)
}

// finalize persists the terminal order state, applies stock movements, and
// frees the mesa atomically.
func (r *ordenRepo) finalize(ctx context.Context, o *model.Orden, movimientos []model.MovimientoStock) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items", "Mesa").Save(o).Error; err != nil {
			return err
		}
		for i := range movimientos {
			m := &movimientos[i]
			var p model.Producto
			if err := tx.Clauses(lockForUpdate()).First(&p, m.ProductoID).Error; err != nil {
				return err
			}
			m.StockAnterior = p.StockActual
			m.StockNuevo = p.StockActual + m.Cantidad
			// Re-checked under the row lock: a concurrent close may have
			// consumed the stock the service saw moments ago.
			if m.StockNuevo < 0 {
				return fmt.Errorf("%w: producto %s", ErrStockInsuficiente, p.Nombre)
			}
			if err := tx.Model(&model.Producto{}).Where("id = ?", m.ProductoID).
				Update("stock_actual", m.StockNuevo).Error; err != nil {
				return err
			}
			if err := tx.Create(m).Error; err != nil {
				return err
			}
		}
		return tx.Model(&model.Mesa{}).Where("id = ?", o.MesaID).
			Update("estado", model.MesaLibre).Error
	})
}

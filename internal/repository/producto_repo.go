package repository

import (
	"context"
	"fmt"

	"restpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func lockForUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

type ProductoRepository interface {
	Create(ctx context.Context, p *model.Producto) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error)
	List(ctx context.Context, incluirInactivos bool) ([]model.Producto, error)
	ListBajoStock(ctx context.Context) ([]model.Producto, error)
	Update(ctx context.Context, p *model.Producto) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Reactivar(ctx context.Context, id uuid.UUID) error
	// AjustarStock applies a stock delta and writes the ledger entry in one
	// transaction. Returns the movement with before/after quantities filled in.
	AjustarStock(ctx context.Context, id uuid.UUID, delta int, tipo, motivo string, refID *uuid.UUID) (*model.MovimientoStock, error)
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) Create(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).First(&p, id).Error
	return &p, err
}

func (r *productoRepo) List(ctx context.Context, incluirInactivos bool) ([]model.Producto, error) {
	var productos []model.Producto
	q := r.db.WithContext(ctx)
	if !incluirInactivos {
		q = q.Where("activo = true")
	}
	err := q.Order("categoria, nombre").Find(&productos).Error
	return productos, err
}

func (r *productoRepo) ListBajoStock(ctx context.Context) ([]model.Producto, error) {
	var productos []model.Producto
	err := r.db.WithContext(ctx).
		Where("activo = true AND stock_actual <= stock_minimo").
		Find(&productos).Error
	return productos, err
}

func (r *productoRepo) Update(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productoRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Producto{}).Where("id = ?", id).Update("activo", false).Error
}

func (r *productoRepo) Reactivar(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Producto{}).Where("id = ?", id).Update("activo", true).Error
}

func (r *productoRepo) AjustarStock(ctx context.Context, id uuid.UUID, delta int, tipo, motivo string, refID *uuid.UUID) (*model.MovimientoStock, error) {
	var mov *model.MovimientoStock
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Producto
		// Row lock so concurrent adjustments serialize
		if err := tx.Clauses(lockForUpdate()).First(&p, id).Error; err != nil {
			return err
		}
		nuevo := p.StockActual + delta
		if nuevo < 0 {
			return fmt.Errorf("%w: producto %s", ErrStockInsuficiente, p.Nombre)
		}
		if err := tx.Model(&model.Producto{}).Where("id = ?", id).Update("stock_actual", nuevo).Error; err != nil {
			return err
		}
		mov = &model.MovimientoStock{
			ProductoID:    id,
			Tipo:          tipo,
			Cantidad:      delta,
			StockAnterior: p.StockActual,
			StockNuevo:    nuevo,
			Motivo:        motivo,
			ReferenciaID:  refID,
		}
		return tx.Create(mov).Error
	})
	return mov, err
}

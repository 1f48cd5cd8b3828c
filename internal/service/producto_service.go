package service

import (
	"context"
	"errors"
	"fmt"

	"restpos/internal/auth"
	"restpos/internal/dto"
	"restpos/internal/model"
	"restpos/internal/repository"
	"restpos/internal/worker"

	"github.com/google/uuid"
)

type ProductoService interface {
	Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, incluirInactivos bool) ([]dto.ProductoResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
	Reactivar(ctx context.Context, id uuid.UUID) error
	AjustarStock(ctx context.Context, id uuid.UUID, req dto.AjustarStockRequest) (*dto.MovimientoStockResponse, error)
	Alertas(ctx context.Context) ([]dto.AlertaStockResponse, error)
	// Movimientos returns the stock ledger, newest first. With productoID nil
	// the whole ledger is listed.
	Movimientos(ctx context.Context, productoID *uuid.UUID, limit int) ([]dto.MovimientoStockResponse, error)
}

type productoService struct {
	repo     repository.ProductoRepository
	movs     repository.MovimientoStockRepository
	notifier *worker.Notifier
}

func NewProductoService(repo repository.ProductoRepository, movs repository.MovimientoStockRepository, notifier *worker.Notifier) ProductoService {
	return &productoService{repo: repo, movs: movs, notifier: notifier}
}

func (s *productoService) Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	p := &model.Producto{
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		Categoria:   req.Categoria,
		Destino:     req.Destino,
		Precio:      req.Precio,
		StockActual: req.StockActual,
		StockMinimo: req.StockMinimo,
		Activo:      true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return productoToResponse(p), nil
}

func (s *productoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return productoToResponse(p), nil
}

func (s *productoService) Listar(ctx context.Context, incluirInactivos bool) ([]dto.ProductoResponse, error) {
	productos, err := s.repo.List(ctx, incluirInactivos)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ProductoResponse, len(productos))
	for i := range productos {
		resp[i] = *productoToResponse(&productos[i])
	}
	return resp, nil
}

func (s *productoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Nombre != "" {
		p.Nombre = req.Nombre
	}
	if req.Descripcion != nil {
		p.Descripcion = req.Descripcion
	}
	if req.Categoria != "" {
		p.Categoria = req.Categoria
	}
	if req.Destino != "" {
		p.Destino = req.Destino
	}
	if req.Precio != nil {
		p.Precio = *req.Precio
	}
	if req.StockMinimo != nil {
		p.StockMinimo = *req.StockMinimo
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return productoToResponse(p), nil
}

func (s *productoService) Desactivar(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

func (s *productoService) Reactivar(ctx context.Context, id uuid.UUID) error {
	return s.repo.Reactivar(ctx, id)
}

func (s *productoService) AjustarStock(ctx context.Context, id uuid.UUID, req dto.AjustarStockRequest) (*dto.MovimientoStockResponse, error) {
	mov, err := s.repo.AjustarStock(ctx, id, req.Cantidad, "ajuste_manual", req.Motivo, nil)
	if err != nil {
		if errors.Is(err, repository.ErrStockInsuficiente) {
			return nil, ErrStockInsuficiente
		}
		return nil, err
	}

	// Low-stock push after outbound adjustments
	if mov.StockNuevo <= 0 || req.Cantidad < 0 {
		if p, err := s.repo.FindByID(ctx, id); err == nil && p.StockActual <= p.StockMinimo {
			s.notifier.Publish(ctx, worker.Notificacion{
				Evento:  "stock_bajo",
				Mensaje: fmt.Sprintf("Stock bajo: %s (%d)", p.Nombre, p.StockActual),
				RefID:   p.ID.String(),
			}, string(auth.RoleAdmin), string(auth.RoleSupervisor))
		}
	}

	return movimientoToResponse(mov), nil
}

func (s *productoService) Alertas(ctx context.Context) ([]dto.AlertaStockResponse, error) {
	productos, err := s.repo.ListBajoStock(ctx)
	if err != nil {
		return nil, err
	}
	alertas := make([]dto.AlertaStockResponse, len(productos))
	for i, p := range productos {
		alertas[i] = dto.AlertaStockResponse{
			ProductoID:  p.ID.String(),
			Nombre:      p.Nombre,
			StockActual: p.StockActual,
			StockMinimo: p.StockMinimo,
		}
	}
	return alertas, nil
}

func (s *productoService) Movimientos(ctx context.Context, productoID *uuid.UUID, limit int) ([]dto.MovimientoStockResponse, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var movs []model.MovimientoStock
	var err error
	if productoID != nil {
		movs, err = s.movs.ListPorProducto(ctx, *productoID, limit)
	} else {
		movs, err = s.movs.List(ctx, limit)
	}
	if err != nil {
		return nil, err
	}
	resp := make([]dto.MovimientoStockResponse, len(movs))
	for i := range movs {
		resp[i] = *movimientoToResponse(&movs[i])
	}
	return resp, nil
}

func productoToResponse(p *model.Producto) *dto.ProductoResponse {
	return &dto.ProductoResponse{
		ID:          p.ID.String(),
		Nombre:      p.Nombre,
		Descripcion: p.Descripcion,
		Categoria:   p.Categoria,
		Destino:     p.Destino,
		Precio:      p.Precio,
		StockActual: p.StockActual,
		StockMinimo: p.StockMinimo,
		Activo:      p.Activo,
	}
}

func movimientoToResponse(m *model.MovimientoStock) *dto.MovimientoStockResponse {
	var ref *string
	if m.ReferenciaID != nil {
		s := m.ReferenciaID.String()
		ref = &s
	}
	return &dto.MovimientoStockResponse{
		ID:            m.ID.String(),
		ProductoID:    m.ProductoID.String(),
		Tipo:          m.Tipo,
		Cantidad:      m.Cantidad,
		StockAnterior: m.StockAnterior,
		StockNuevo:    m.StockNuevo,
		Motivo:        m.Motivo,
		ReferenciaID:  ref,
		CreatedAt:     m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

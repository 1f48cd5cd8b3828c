package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"restpos/internal/auth"
	"restpos/internal/dto"
	"restpos/internal/model"
	"restpos/internal/repository"
	"restpos/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type OrdenService interface {
	Abrir(ctx context.Context, meseroID uuid.UUID, req dto.AbrirOrdenRequest) (*dto.OrdenResponse, error)
	AgregarItems(ctx context.Context, ordenID uuid.UUID, req dto.AgregarItemsRequest) (*dto.OrdenResponse, error)
	// EnviarComanda sends the not-yet-sent items to their stations (one ticket
	// job per destino) and marks them enviado.
	EnviarComanda(ctx context.Context, ordenID uuid.UUID) (*dto.OrdenResponse, error)
	Cerrar(ctx context.Context, ordenID uuid.UUID, req dto.CerrarOrdenRequest) (*dto.OrdenResponse, error)
	Anular(ctx context.Context, ordenID uuid.UUID, req dto.AnularOrdenRequest) error
	ObtenerPorID(ctx context.Context, ordenID uuid.UUID) (*dto.OrdenResponse, error)
	ListarAbiertas(ctx context.Context) ([]dto.OrdenResponse, error)
}

type ordenService struct {
	repo         repository.OrdenRepository
	mesaRepo     repository.MesaRepository
	productoRepo repository.ProductoRepository
	usuarioRepo  repository.UsuarioRepository
	dispatcher   *worker.Dispatcher
	notifier     *worker.Notifier
}

func NewOrdenService(
	repo repository.OrdenRepository,
	mesaRepo repository.MesaRepository,
	productoRepo repository.ProductoRepository,
	usuarioRepo repository.UsuarioRepository,
	dispatcher *worker.Dispatcher,
	notifier *worker.Notifier,
) OrdenService {
	return &ordenService{
		repo:         repo,
		mesaRepo:     mesaRepo,
		productoRepo: productoRepo,
		usuarioRepo:  usuarioRepo,
		dispatcher:   dispatcher,
		notifier:     notifier,
	}
}

func (s *ordenService) Abrir(ctx context.Context, meseroID uuid.UUID, req dto.AbrirOrdenRequest) (*dto.OrdenResponse, error) {
	mesaID, err := uuid.Parse(req.MesaID)
	if err != nil {
		return nil, fmt.Errorf("mesa_id invalido: %w", err)
	}
	mesa, err := s.mesaRepo.FindByID(ctx, mesaID)
	if err != nil {
		return nil, fmt.Errorf("mesa no encontrada")
	}
	if _, err := s.repo.FindAbiertaPorMesa(ctx, mesaID); err == nil {
		return nil, ErrMesaOcupada
	}

	orden := &model.Orden{
		MesaID:   mesaID,
		MeseroID: meseroID,
		Estado:   model.OrdenAbierta,
		Total:    decimal.Zero,
	}
	if err := s.repo.Create(ctx, orden); err != nil {
		return nil, err
	}
	orden.Mesa = mesa
	return ordenToResponse(orden), nil
}

func (s *ordenService) AgregarItems(ctx context.Context, ordenID uuid.UUID, req dto.AgregarItemsRequest) (*dto.OrdenResponse, error) {
	orden, err := s.repo.FindByID(ctx, ordenID)
	if err != nil {
		return nil, fmt.Errorf("orden no encontrada")
	}
	if orden.Estado != model.OrdenAbierta {
		return nil, ErrOrdenNoAbierta
	}

	items := make([]model.OrdenItem, 0, len(req.Items))
	for _, it := range req.Items {
		pid, err := uuid.Parse(it.ProductoID)
		if err != nil {
			return nil, fmt.Errorf("producto_id invalido: %w", err)
		}
		p, err := s.productoRepo.FindByID(ctx, pid)
		if err != nil {
			return nil, fmt.Errorf("producto %s no encontrado", it.ProductoID)
		}
		if !p.Activo {
			return nil, ErrProductoInactivo
		}
		if p.StockActual < it.Cantidad {
			return nil, fmt.Errorf("%w: %s", ErrStockInsuficiente, p.Nombre)
		}
		subtotal := p.Precio.Mul(decimal.NewFromInt(int64(it.Cantidad)))
		items = append(items, model.OrdenItem{
			OrdenID:        ordenID,
			ProductoID:     pid,
			Nombre:         p.Nombre,
			Cantidad:       it.Cantidad,
			PrecioUnitario: p.Precio,
			Subtotal:       subtotal,
			Destino:        p.Destino,
			Notas:          it.Notas,
		})
	}
	if err := s.repo.AddItems(ctx, items); err != nil {
		return nil, err
	}
	return s.ObtenerPorID(ctx, ordenID)
}

func (s *ordenService) EnviarComanda(ctx context.Context, ordenID uuid.UUID) (*dto.OrdenResponse, error) {
	orden, err := s.repo.FindByID(ctx, ordenID)
	if err != nil {
		return nil, fmt.Errorf("orden no encontrada")
	}
	if orden.Estado != model.OrdenAbierta {
		return nil, ErrOrdenNoAbierta
	}

	// Group the unsent items per station
	porDestino := make(map[string][]model.OrdenItem)
	var enviados []uuid.UUID
	for _, item := range orden.Items {
		if item.Enviado {
			continue
		}
		porDestino[item.Destino] = append(porDestino[item.Destino], item)
		enviados = append(enviados, item.ID)
	}
	if len(enviados) == 0 {
		return nil, ErrOrdenSinItems
	}

	mesero := ""
	if u, err := s.usuarioRepo.FindByID(ctx, orden.MeseroID); err == nil {
		mesero = u.Nombre
	}

	mesaNumero := 0
	if orden.Mesa != nil {
		mesaNumero = orden.Mesa.Numero
	}

	sentAt := time.Now().UTC()
	for destino, items := range porDestino {
		payload := worker.ComandaJobPayload{
			OrdenID:    orden.ID.String(),
			MesaNumero: mesaNumero,
			Mesero:     mesero,
			Destino:    destino,
			SentAt:     sentAt,
		}
		for _, it := range items {
			notas := ""
			if it.Notas != nil {
				notas = *it.Notas
			}
			payload.Items = append(payload.Items, struct {
				Nombre   string `json:"nombre"`
				Cantidad int    `json:"cantidad"`
				Notas    string `json:"notas,omitempty"`
			}{Nombre: it.Nombre, Cantidad: it.Cantidad, Notas: notas})
		}
		if err := s.dispatcher.EnqueueComanda(ctx, payload); err != nil {
			log.Error().Err(err).Str("orden_id", orden.ID.String()).Str("destino", destino).
				Msg("orden: enqueue comanda failed")
			return nil, ErrUpstreamNoDisponible
		}
	}

	if err := s.repo.MarkItemsEnviados(ctx, ordenID, enviados); err != nil {
		return nil, err
	}
	return s.ObtenerPorID(ctx, ordenID)
}

func (s *ordenService) Cerrar(ctx context.Context, ordenID uuid.UUID, req dto.CerrarOrdenRequest) (*dto.OrdenResponse, error) {
	orden, err := s.repo.FindByID(ctx, ordenID)
	if err != nil {
		return nil, fmt.Errorf("orden no encontrada")
	}
	if orden.Estado != model.OrdenAbierta {
		return nil, ErrOrdenNoAbierta
	}
	if len(orden.Items) == 0 {
		return nil, ErrOrdenSinItems
	}

	total := decimal.Zero
	movimientos := make([]model.MovimientoStock, 0, len(orden.Items))
	for _, item := range orden.Items {
		total = total.Add(item.Subtotal)
		refID := orden.ID
		movimientos = append(movimientos, model.MovimientoStock{
			ProductoID:   item.ProductoID,
			Tipo:         "consumo",
			Cantidad:     -item.Cantidad,
			Motivo:       "cierre de orden",
			ReferenciaID: &refID,
		})
	}

	now := time.Now().UTC()
	orden.Estado = model.OrdenCerrada
	orden.Total = total
	orden.MetodoPago = &req.MetodoPago
	orden.ClosedAt = &now

	if err := s.repo.Cerrar(ctx, orden, movimientos); err != nil {
		if errors.Is(err, repository.ErrStockInsuficiente) {
			return nil, ErrStockInsuficiente
		}
		return nil, err
	}

	s.notifier.Publish(ctx, worker.Notificacion{
		Evento:  "orden_cerrada",
		Mensaje: fmt.Sprintf("Orden cerrada, total $%s", total.StringFixed(2)),
		RefID:   orden.ID.String(),
	}, string(auth.RoleAdmin), string(auth.RoleSupervisor))

	return ordenToResponse(orden), nil
}

func (s *ordenService) Anular(ctx context.Context, ordenID uuid.UUID, req dto.AnularOrdenRequest) error {
	orden, err := s.repo.FindByID(ctx, ordenID)
	if err != nil {
		return fmt.Errorf("orden no encontrada")
	}
	if orden.Estado != model.OrdenAbierta {
		return ErrOrdenNoAbierta
	}

	// Nothing was consumed yet (stock moves at close), so no restore entries.
	now := time.Now().UTC()
	orden.Estado = model.OrdenAnulada
	orden.Motivo = &req.Motivo
	orden.ClosedAt = &now

	return s.repo.Anular(ctx, orden, nil)
}

func (s *ordenService) ObtenerPorID(ctx context.Context, ordenID uuid.UUID) (*dto.OrdenResponse, error) {
	orden, err := s.repo.FindByID(ctx, ordenID)
	if err != nil {
		return nil, fmt.Errorf("orden no encontrada")
	}
	return ordenToResponse(orden), nil
}

func (s *ordenService) ListarAbiertas(ctx context.Context) ([]dto.OrdenResponse, error) {
	ordenes, err := s.repo.ListAbiertas(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.OrdenResponse, len(ordenes))
	for i := range ordenes {
		resp[i] = *ordenToResponse(&ordenes[i])
	}
	return resp, nil
}

func ordenToResponse(o *model.Orden) *dto.OrdenResponse {
	items := make([]dto.OrdenItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = dto.OrdenItemResponse{
			ID:             it.ID.String(),
			ProductoID:     it.ProductoID.String(),
			Nombre:         it.Nombre,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal,
			Destino:        it.Destino,
			Enviado:        it.Enviado,
			Notas:          it.Notas,
		}
	}
	mesaNumero := 0
	if o.Mesa != nil {
		mesaNumero = o.Mesa.Numero
	}
	return &dto.OrdenResponse{
		ID:         o.ID.String(),
		MesaID:     o.MesaID.String(),
		MesaNumero: mesaNumero,
		MeseroID:   o.MeseroID.String(),
		Estado:     o.Estado,
		Total:      o.Total,
		MetodoPago: o.MetodoPago,
		Items:      items,
		OpenedAt:   o.OpenedAt,
		ClosedAt:   o.ClosedAt,
	}
}

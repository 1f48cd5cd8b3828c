package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"restpos/internal/dto"
	"restpos/internal/model"
	"restpos/internal/repository"
	"restpos/internal/worker"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// ── In-memory Repository Stubs ────────────────────────────────────────────────

type stubMesaRepo struct {
	mesas map[uuid.UUID]*model.Mesa
}

func newStubMesaRepo() *stubMesaRepo {
	return &stubMesaRepo{mesas: make(map[uuid.UUID]*model.Mesa)}
}

func (r *stubMesaRepo) Create(_ context.Context, m *model.Mesa) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.mesas[m.ID] = m
	return nil
}

func (r *stubMesaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Mesa, error) {
	m, ok := r.mesas[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return m, nil
}

func (r *stubMesaRepo) List(_ context.Context) ([]model.Mesa, error) {
	var out []model.Mesa
	for _, m := range r.mesas {
		out = append(out, *m)
	}
	return out, nil
}

func (r *stubMesaRepo) UpdateEstado(_ context.Context, id uuid.UUID, estado string) error {
	m, ok := r.mesas[id]
	if !ok {
		return errors.New("not found")
	}
	m.Estado = estado
	return nil
}

type stubProductoRepo struct {
	productos map[uuid.UUID]*model.Producto
}

func newStubProductoRepo() *stubProductoRepo {
	return &stubProductoRepo{productos: make(map[uuid.UUID]*model.Producto)}
}

func (r *stubProductoRepo) Create(_ context.Context, p *model.Producto) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.productos[p.ID] = p
	return nil
}

func (r *stubProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	p, ok := r.productos[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return p, nil
}

func (r *stubProductoRepo) List(_ context.Context, incluirInactivos bool) ([]model.Producto, error) {
	var out []model.Producto
	for _, p := range r.productos {
		if incluirInactivos || p.Activo {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductoRepo) ListBajoStock(_ context.Context) ([]model.Producto, error) {
	var out []model.Producto
	for _, p := range r.productos {
		if p.Activo && p.StockActual <= p.StockMinimo {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductoRepo) Update(_ context.Context, p *model.Producto) error {
	r.productos[p.ID] = p
	return nil
}

func (r *stubProductoRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	p, ok := r.productos[id]
	if !ok {
		return errors.New("not found")
	}
	p.Activo = false
	return nil
}

func (r *stubProductoRepo) Reactivar(_ context.Context, id uuid.UUID) error {
	p, ok := r.productos[id]
	if !ok {
		return errors.New("not found")
	}
	p.Activo = true
	return nil
}

func (r *stubProductoRepo) AjustarStock(_ context.Context, id uuid.UUID, delta int, tipo, motivo string, refID *uuid.UUID) (*model.MovimientoStock, error) {
	p, ok := r.productos[id]
	if !ok {
		return nil, errors.New("not found")
	}
	antes := p.StockActual
	if antes+delta < 0 {
		return nil, repository.ErrStockInsuficiente
	}
	p.StockActual = antes + delta
	return &model.MovimientoStock{
		ProductoID: id, Tipo: tipo, Cantidad: delta, Motivo: motivo,
		StockAnterior: antes, StockNuevo: p.StockActual, ReferenciaID: refID,
	}, nil
}

// stubOrdenRepo mirrors the transactional repo: Create occupies the mesa,
// Cerrar/Anular free it and apply stock movements.
type stubOrdenRepo struct {
	ordenes   map[uuid.UUID]*model.Orden
	mesas     *stubMesaRepo
	productos *stubProductoRepo
}

func newStubOrdenRepo(mesas *stubMesaRepo, productos *stubProductoRepo) *stubOrdenRepo {
	return &stubOrdenRepo{ordenes: make(map[uuid.UUID]*model.Orden), mesas: mesas, productos: productos}
}

func (r *stubOrdenRepo) Create(ctx context.Context, o *model.Orden) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.OpenedAt = time.Now().UTC()
	r.ordenes[o.ID] = o
	return r.mesas.UpdateEstado(ctx, o.MesaID, model.MesaOcupada)
}

func (r *stubOrdenRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Orden, error) {
	o, ok := r.ordenes[id]
	if !ok {
		return nil, errors.New("not found")
	}
	if m, ok := r.mesas.mesas[o.MesaID]; ok {
		o.Mesa = m
	}
	return o, nil
}

func (r *stubOrdenRepo) FindAbiertaPorMesa(_ context.Context, mesaID uuid.UUID) (*model.Orden, error) {
	for _, o := range r.ordenes {
		if o.MesaID == mesaID && o.Estado == model.OrdenAbierta {
			return o, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *stubOrdenRepo) ListAbiertas(_ context.Context) ([]model.Orden, error) {
	var out []model.Orden
	for _, o := range r.ordenes {
		if o.Estado == model.OrdenAbierta {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *stubOrdenRepo) ListPorFecha(_ context.Context, desde, hasta time.Time) ([]model.Orden, error) {
	var out []model.Orden
	for _, o := range r.ordenes {
		if o.ClosedAt != nil && !o.ClosedAt.Before(desde) && o.ClosedAt.Before(hasta) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *stubOrdenRepo) AddItems(_ context.Context, items []model.OrdenItem) error {
	for _, it := range items {
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		o, ok := r.ordenes[it.OrdenID]
		if !ok {
			return errors.New("not found")
		}
		o.Items = append(o.Items, it)
	}
	return nil
}

func (r *stubOrdenRepo) MarkItemsEnviados(_ context.Context, ordenID uuid.UUID, itemIDs []uuid.UUID) error {
	o, ok := r.ordenes[ordenID]
	if !ok {
		return errors.New("not found")
	}
	marked := make(map[uuid.UUID]bool, len(itemIDs))
	for _, id := range itemIDs {
		marked[id] = true
	}
	for i := range o.Items {
		if marked[o.Items[i].ID] {
			o.Items[i].Enviado = true
		}
	}
	return nil
}

func (r *stubOrdenRepo) Cerrar(ctx context.Context, o *model.Orden, movimientos []model.MovimientoStock) error {
	r.ordenes[o.ID] = o
	for _, mov := range movimientos {
		if _, err := r.productos.AjustarStock(ctx, mov.ProductoID, mov.Cantidad, mov.Tipo, mov.Motivo, mov.ReferenciaID); err != nil {
			return err
		}
	}
	return r.mesas.UpdateEstado(ctx, o.MesaID, model.MesaLibre)
}

func (r *stubOrdenRepo) Anular(ctx context.Context, o *model.Orden, movimientos []model.MovimientoStock) error {
	r.ordenes[o.ID] = o
	for _, mov := range movimientos {
		if _, err := r.productos.AjustarStock(ctx, mov.ProductoID, mov.Cantidad, mov.Tipo, mov.Motivo, mov.ReferenciaID); err != nil {
			return err
		}
	}
	return r.mesas.UpdateEstado(ctx, o.MesaID, model.MesaLibre)
}

// ── Fixture ───────────────────────────────────────────────────────────────────

type ordenFixture struct {
	mesas     *stubMesaRepo
	productos *stubProductoRepo
	ordenes   *stubOrdenRepo
	usuarios  *stubUsuarioRepo
	svc       OrdenService
}

func newOrdenFixture(t *testing.T) *ordenFixture {
	t.Helper()
	f := &ordenFixture{
		mesas:     newStubMesaRepo(),
		productos: newStubProductoRepo(),
		usuarios:  newStubUsuarioRepo(),
	}
	f.ordenes = newStubOrdenRepo(f.mesas, f.productos)

	// Redis at a closed port: enqueues fail, notifications are swallowed.
	// Tests exercising the comanda queue assert the failure path.
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond})
	f.svc = NewOrdenService(f.ordenes, f.mesas, f.productos, f.usuarios, worker.NewDispatcher(rdb), worker.NewNotifier(rdb))
	return f
}

func seedMesa(f *ordenFixture, numero int) *model.Mesa {
	m := &model.Mesa{ID: uuid.New(), Numero: numero, Zona: "salon", Estado: model.MesaLibre, Activa: true}
	f.mesas.mesas[m.ID] = m
	return m
}

func seedProducto(f *ordenFixture, nombre, destino string, precio string, stock int) *model.Producto {
	p := &model.Producto{
		ID: uuid.New(), Nombre: nombre, Categoria: "test", Destino: destino,
		Precio: decimal.RequireFromString(precio), StockActual: stock, StockMinimo: 2, Activo: true,
	}
	f.productos.productos[p.ID] = p
	return p
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestAbrirOrden(t *testing.T) {
	f := newOrdenFixture(t)
	mesa := seedMesa(f, 4)
	meseroID := uuid.New()

	resp, err := f.svc.Abrir(context.Background(), meseroID, dto.AbrirOrdenRequest{MesaID: mesa.ID.String()})
	assert.NoError(t, err)
	assert.Equal(t, model.OrdenAbierta, resp.Estado)
	assert.Equal(t, 4, resp.MesaNumero)
	assert.True(t, resp.Total.IsZero())
	assert.Equal(t, model.MesaOcupada, mesa.Estado, "opening an order occupies the mesa")
}

func TestAbrirOrden_MesaOcupada(t *testing.T) {
	f := newOrdenFixture(t)
	mesa := seedMesa(f, 4)
	ctx := context.Background()

	_, err := f.svc.Abrir(ctx, uuid.New(), dto.AbrirOrdenRequest{MesaID: mesa.ID.String()})
	assert.NoError(t, err)

	_, err = f.svc.Abrir(ctx, uuid.New(), dto.AbrirOrdenRequest{MesaID: mesa.ID.String()})
	assert.ErrorIs(t, err, ErrMesaOcupada)
}

func TestAgregarItems_SnapshotsProducto(t *testing.T) {
	f := newOrdenFixture(t)
	mesa := seedMesa(f, 4)
	milanesa := seedProducto(f, "Milanesa", model.DestinoCocina, "150.50", 10)
	ctx := context.Background()

	abierta, err := f.svc.Abrir(ctx, uuid.New(), dto.AbrirOrdenRequest{MesaID: mesa.ID.String()})
	assert.NoError(t, err)
	ordenID, _ := uuid.Parse(abierta.ID)

	resp, err := f.svc.AgregarItems(ctx, ordenID, dto.AgregarItemsRequest{Items: []dto.OrdenItemRequest{
		{ProductoID: milanesa.ID.String(), Cantidad: 2},
	}})
	assert.NoError(t, err)
	assert.Len(t, resp.Items, 1)
	assert.Equal(t, "Milanesa", resp.Items[0].Nombre)
	assert.Equal(t, model.DestinoCocina, resp.Items[0].Destino)
	assert.True(t, resp.Items[0].Subtotal.Equal(decimal.RequireFromString("301.00")))
	assert.False(t, resp.Items[0].Enviado)

	// A later price change must not rewrite the order line.
	milanesa.Precio = decimal.RequireFromString("999.99")
	resp, err = f.svc.ObtenerPorID(ctx, ordenID)
	assert.NoError(t, err)
	assert.True(t, resp.Items[0].PrecioUnitario.Equal(decimal.RequireFromString("150.50")))
}

func TestAgregarItems_RejectsInactiveAndOutOfStock(t *testing.T) {
	f := newOrdenFixture(t)
	mesa := seedMesa(f, 4)
	inactivo := seedProducto(f, "Retirado", model.DestinoCocina, "100", 10)
	inactivo.Activo = false
	escaso := seedProducto(f, "Ultimo", model.DestinoBar, "80", 1)
	ctx := context.Background()

	abierta, _ := f.svc.Abrir(ctx, uuid.New(), dto.AbrirOrdenRequest{MesaID: mesa.ID.String()})
	ordenID, _ := uuid.Parse(abierta.ID)

	_, err := f.svc.AgregarItems(ctx, ordenID, dto.AgregarItemsRequest{Items: []dto.OrdenItemRequest{
		{ProductoID: inactivo.ID.String(), Cantidad: 1},
	}})
	assert.ErrorIs(t, err, ErrProductoInactivo)

	_, err = f.svc.AgregarItems(ctx, ordenID, dto.AgregarItemsRequest{Items: []dto.OrdenItemRequest{
		{ProductoID: escaso.ID.String(), Cantidad: 3},
	}})
	assert.ErrorIs(t, err, ErrStockInsuficiente)
}

func TestCerrarOrden_TotalAndStock(t *testing.T) {
	f := newOrdenFixture(t)
	mesa := seedMesa(f, 4)
	milanesa := seedProducto(f, "Milanesa", model.DestinoCocina, "150.50", 10)
	cerveza := seedProducto(f, "Cerveza", model.DestinoBar, "50", 20)
	ctx := context.Background()

	abierta, _ := f.svc.Abrir(ctx, uuid.New(), dto.AbrirOrdenRequest{MesaID: mesa.ID.String()})
	ordenID, _ := uuid.Parse(abierta.ID)
	_, err := f.svc.AgregarItems(ctx, ordenID, dto.AgregarItemsRequest{Items: []dto.OrdenItemRequest{
		{ProductoID: milanesa.ID.String(), Cantidad: 2},
		{ProductoID: cerveza.ID.String(), Cantidad: 3},
	}})
	assert.NoError(t, err)

	resp, err := f.svc.Cerrar(ctx, ordenID, dto.CerrarOrdenRequest{MetodoPago: "efectivo"})
	assert.NoError(t, err)
	assert.Equal(t, model.OrdenCerrada, resp.Estado)
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("451.00")), "total was %s", resp.Total)
	assert.Equal(t, "efectivo", *resp.MetodoPago)
	assert.NotNil(t, resp.ClosedAt)

	// Stock is consumed at close, mesa freed.
	assert.Equal(t, 8, milanesa.StockActual)
	assert.Equal(t, 17, cerveza.StockActual)
	assert.Equal(t, model.MesaLibre, mesa.Estado)
}

func TestCerrarOrden_StockConsumidoEnParalelo(t *testing.T) {
	// Another order consumed the stock after this one's items were added. The
	// close transaction re-checks under the row lock and refuses to drive the
	// count negative.
	f := newOrdenFixture(t)
	mesa := seedMesa(f, 4)
	milanesa := seedProducto(f, "Milanesa", model.DestinoCocina, "150.50", 2)
	ctx := context.Background()

	abierta, _ := f.svc.Abrir(ctx, uuid.New(), dto.AbrirOrdenRequest{MesaID: mesa.ID.String()})
	ordenID, _ := uuid.Parse(abierta.ID)
	_, err := f.svc.AgregarItems(ctx, ordenID, dto.AgregarItemsRequest{Items: []dto.OrdenItemRequest{
		{ProductoID: milanesa.ID.String(), Cantidad: 2},
	}})
	assert.NoError(t, err)

	milanesa.StockActual = 1

	_, err = f.svc.Cerrar(ctx, ordenID, dto.CerrarOrdenRequest{MetodoPago: "efectivo"})
	assert.ErrorIs(t, err, ErrStockInsuficiente)
	assert.Equal(t, 1, milanesa.StockActual, "stock must not go negative")
}

func TestCerrarOrden_SinItems(t *testing.T) {
	f := newOrdenFixture(t)
	mesa := seedMesa(f, 4)
	ctx := context.Background()

	abierta, _ := f.svc.Abrir(ctx, uuid.New(), dto.AbrirOrdenRequest{MesaID: mesa.ID.String()})
	ordenID, _ := uuid.Parse(abierta.ID)

	_, err := f.svc.Cerrar(ctx, ordenID, dto.CerrarOrdenRequest{MetodoPago: "efectivo"})
	assert.ErrorIs(t, err, ErrOrdenSinItems)
}

func TestCerrarOrden_YaCerrada(t *testing.T) {
	f := newOrdenFixture(t)
	mesa := seedMesa(f, 4)
	p := seedProducto(f, "Cafe", model.DestinoBar, "30", 10)
	ctx := context.Background()

	abierta, _ := f.svc.Abrir(ctx, uuid.New(), dto.AbrirOrdenRequest{MesaID: mesa.ID.String()})
	ordenID, _ := uuid.Parse(abierta.ID)
	f.svc.AgregarItems(ctx, ordenID, dto.AgregarItemsRequest{Items: []dto.OrdenItemRequest{ //nolint:errcheck
		{ProductoID: p.ID.String(), Cantidad: 1},
	}})

	_, err := f.svc.Cerrar(ctx, ordenID, dto.CerrarOrdenRequest{MetodoPago: "tarjeta"})
	assert.NoError(t, err)

	_, err = f.svc.Cerrar(ctx, ordenID, dto.CerrarOrdenRequest{MetodoPago: "tarjeta"})
	assert.ErrorIs(t, err, ErrOrdenNoAbierta)
}

func TestAnularOrden_NoStockTouched(t *testing.T) {
	f := newOrdenFixture(t)
	mesa := seedMesa(f, 4)
	p := seedProducto(f, "Milanesa", model.DestinoCocina, "150.50", 10)
	ctx := context.Background()

	abierta, _ := f.svc.Abrir(ctx, uuid.New(), dto.AbrirOrdenRequest{MesaID: mesa.ID.String()})
	ordenID, _ := uuid.Parse(abierta.ID)
	f.svc.AgregarItems(ctx, ordenID, dto.AgregarItemsRequest{Items: []dto.OrdenItemRequest{ //nolint:errcheck
		{ProductoID: p.ID.String(), Cantidad: 2},
	}})

	err := f.svc.Anular(ctx, ordenID, dto.AnularOrdenRequest{Motivo: "cliente se retiro"})
	assert.NoError(t, err)

	// Stock moves at close, so cancelling an open order leaves it untouched.
	assert.Equal(t, 10, p.StockActual)
	assert.Equal(t, model.MesaLibre, mesa.Estado)

	orden, _ := f.ordenes.FindByID(ctx, ordenID)
	assert.Equal(t, model.OrdenAnulada, orden.Estado)
	assert.Equal(t, "cliente se retiro", *orden.Motivo)
}

func TestEnviarComanda_QueueDown(t *testing.T) {
	// The fixture's Redis is unreachable: the enqueue fails and the items stay
	// unsent so a retry can pick them up.
	f := newOrdenFixture(t)
	mesa := seedMesa(f, 4)
	p := seedProducto(f, "Milanesa", model.DestinoCocina, "150.50", 10)
	ctx := context.Background()

	abierta, _ := f.svc.Abrir(ctx, uuid.New(), dto.AbrirOrdenRequest{MesaID: mesa.ID.String()})
	ordenID, _ := uuid.Parse(abierta.ID)
	f.svc.AgregarItems(ctx, ordenID, dto.AgregarItemsRequest{Items: []dto.OrdenItemRequest{ //nolint:errcheck
		{ProductoID: p.ID.String(), Cantidad: 1},
	}})

	_, err := f.svc.EnviarComanda(ctx, ordenID)
	assert.ErrorIs(t, err, ErrUpstreamNoDisponible)

	resp, _ := f.svc.ObtenerPorID(ctx, ordenID)
	assert.False(t, resp.Items[0].Enviado)
}

func TestEnviarComanda_SinPendientes(t *testing.T) {
	f := newOrdenFixture(t)
	mesa := seedMesa(f, 4)
	ctx := context.Background()

	abierta, _ := f.svc.Abrir(ctx, uuid.New(), dto.AbrirOrdenRequest{MesaID: mesa.ID.String()})
	ordenID, _ := uuid.Parse(abierta.ID)

	_, err := f.svc.EnviarComanda(ctx, ordenID)
	assert.ErrorIs(t, err, ErrOrdenSinItems)
}

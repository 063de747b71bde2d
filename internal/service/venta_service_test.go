package service_test

import (
	"bytes"
	"context"
	"testing"

	"vestibox/internal/dto"
	"vestibox/internal/model"
	"vestibox/internal/service"
	"vestibox/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type ventaFixture struct {
	svc         service.VentaService
	ventas      *stubVentaRepo
	clientes    *stubClienteRepo
	productos   *stubProductoRepo
	movimientos *stubMovimientoRepo
	inventario  service.InventarioService
	cache       *stubCache
	dispatcher  *stubDispatcher
	cliente     *model.Cliente
}

type ventaOpts struct {
	permitirNegativo bool
	estrictos        bool
}

func buildVentaSvc(opts ventaOpts) *ventaFixture {
	f := &ventaFixture{
		ventas:      newStubVentaRepo(),
		clientes:    newStubClienteRepo(),
		productos:   newStubProductoRepo(),
		movimientos: &stubMovimientoRepo{},
		cache:       newStubCache(),
		dispatcher:  &stubDispatcher{},
	}
	f.cliente = f.clientes.add("Ana", "ana@example.com")
	f.inventario = service.NewInventarioService(f.productos, f.movimientos, f.cache, opts.permitirNegativo)
	f.svc = service.NewVentaService(f.ventas, f.clientes, f.productos, f.inventario, f.cache, f.dispatcher, opts.estrictos)
	return f
}

func defaultVentaSvc() *ventaFixture {
	return buildVentaSvc(ventaOpts{permitirNegativo: true, estrictos: true})
}

func detalle(p *model.Producto, cantidad int, unitario, subtotal int64) dto.DetalleRequest {
	return dto.DetalleRequest{
		ProductoID:     p.ID.String(),
		Cantidad:       cantidad,
		PrecioUnitario: decimal.NewFromInt(unitario),
		Subtotal:       decimal.NewFromInt(subtotal),
	}
}

func ventaReq(c *model.Cliente, total int64, detalles ...dto.DetalleRequest) dto.RegistrarVentaRequest {
	return dto.RegistrarVentaRequest{
		ClienteID: c.ID.String(),
		Total:     decimal.NewFromInt(total),
		Detalles:  detalles,
	}
}

func TestRegistrarVenta_CreaYFusiona(t *testing.T) {
	f := defaultVentaSvc()
	p := f.productos.add("Vestido rojo", 10)
	ctx := context.Background()

	primera, err := f.svc.Registrar(ctx, ventaReq(f.cliente, 100, detalle(p, 2, 50, 100)))
	require.NoError(t, err)
	assert.Equal(t, string(model.EstadoPendiente), primera.Estado)
	assert.True(t, decimal.NewFromInt(100).Equal(primera.Total))
	assert.Len(t, primera.Detalles, 1)
	assert.Equal(t, 8, f.productos.stock(p.ID))

	segunda, err := f.svc.Registrar(ctx, ventaReq(f.cliente, 20, detalle(p, 1, 20, 20)))
	require.NoError(t, err)
	assert.Equal(t, primera.ID, segunda.ID, "must merge into the pending venta")
	assert.True(t, decimal.NewFromInt(120).Equal(segunda.Total))
	assert.Len(t, segunda.Detalles, 2)
	assert.Equal(t, 7, f.productos.stock(p.ID))
	assert.Len(t, f.ventas.ventas, 1)

	lineas := []int{f.ventas.ventas[uuid.MustParse(primera.ID)].Detalles[0].Linea, f.ventas.ventas[uuid.MustParse(primera.ID)].Detalles[1].Linea}
	assert.Equal(t, []int{1, 2}, lineas)

	require.Len(t, f.movimientos.movimientos, 2)
	for _, m := range f.movimientos.movimientos {
		assert.Equal(t, model.MovimientoVenta, m.Tipo)
		require.NotNil(t, m.ReferenciaID)
		assert.Equal(t, primera.ID, m.ReferenciaID.String())
	}
	assert.Equal(t, 10, f.movimientos.movimientos[0].StockAnterior)
	assert.Equal(t, 8, f.movimientos.movimientos[0].StockNuevo)
	assert.Contains(t, f.cache.invalidados, p.ID)
}

func TestRegistrarVenta_SinDetalles(t *testing.T) {
	f := defaultVentaSvc()

	_, err := f.svc.Registrar(context.Background(), ventaReq(f.cliente, 0))
	require.ErrorIs(t, err, service.ErrValidacion)
	assert.Empty(t, f.ventas.ventas)
	assert.Empty(t, f.movimientos.movimientos)
}

func TestRegistrarVenta_CantidadInvalida(t *testing.T) {
	f := defaultVentaSvc()
	p := f.productos.add("Saco", 3)

	_, err := f.svc.Registrar(context.Background(), ventaReq(f.cliente, 0, detalle(p, 0, 10, 0)))
	require.ErrorIs(t, err, service.ErrValidacion)
	assert.Equal(t, 3, f.productos.stock(p.ID))
}

func TestRegistrarVenta_ClienteInexistente(t *testing.T) {
	f := defaultVentaSvc()
	p := f.productos.add("Saco", 3)
	otro := &model.Cliente{ID: uuid.New()}

	_, err := f.svc.Registrar(context.Background(), ventaReq(otro, 10, detalle(p, 1, 10, 10)))
	require.ErrorIs(t, err, service.ErrNoEncontrado)
	assert.Empty(t, f.ventas.ventas)
}

func TestRegistrarVenta_ProductoInexistente(t *testing.T) {
	f := defaultVentaSvc()
	fantasma := &model.Producto{ID: uuid.New()}

	_, err := f.svc.Registrar(context.Background(), ventaReq(f.cliente, 10, detalle(fantasma, 1, 10, 10)))
	require.ErrorIs(t, err, service.ErrNoEncontrado)
	assert.Empty(t, f.ventas.ventas)
}

func TestRegistrarVenta_StockNegativoPermitido(t *testing.T) {
	f := defaultVentaSvc()
	p := f.productos.add("Corbata", 1)

	_, err := f.svc.Registrar(context.Background(), ventaReq(f.cliente, 30, detalle(p, 3, 10, 30)))
	require.NoError(t, err)
	assert.Equal(t, -2, f.productos.stock(p.ID))
}

func TestRegistrarVenta_StockInsuficiente(t *testing.T) {
	f := buildVentaSvc(ventaOpts{permitirNegativo: false, estrictos: true})
	p := f.productos.add("Corbata", 1)

	_, err := f.svc.Registrar(context.Background(), ventaReq(f.cliente, 30, detalle(p, 3, 10, 30)))
	require.ErrorIs(t, err, service.ErrStockInsuficiente)
	assert.ErrorIs(t, err, service.ErrConflicto)
	assert.Equal(t, 1, f.productos.stock(p.ID))
	assert.Empty(t, f.movimientos.movimientos)
}

func TestRegistrarVenta_BloqueaProductosEnOrden(t *testing.T) {
	f := defaultVentaSvc()
	a := f.productos.add("A", 5)
	b := f.productos.add("B", 5)

	_, err := f.svc.Registrar(context.Background(), ventaReq(f.cliente, 40,
		detalle(b, 1, 10, 10), detalle(a, 1, 10, 10), detalle(b, 2, 10, 20)))
	require.NoError(t, err)

	// first two locks come from bloquearProductos: distinct ids, sorted
	require.GreaterOrEqual(t, len(f.productos.locks), 2)
	primero, segundo := f.productos.locks[0], f.productos.locks[1]
	assert.NotEqual(t, primero, segundo)
	assert.Less(t, primero.String(), segundo.String())
	assert.Equal(t, 2, f.productos.stock(b.ID))
	assert.Equal(t, 4, f.productos.stock(a.ID))
}

func TestActualizarEstadoVenta_Pagado(t *testing.T) {
	f := defaultVentaSvc()
	p := f.productos.add("Saco", 5)
	ctx := context.Background()

	v, err := f.svc.Registrar(ctx, ventaReq(f.cliente, 10, detalle(p, 1, 10, 10)))
	require.NoError(t, err)
	id := uuid.MustParse(v.ID)

	pagada, err := f.svc.ActualizarEstado(ctx, id, "pagado")
	require.NoError(t, err)
	assert.Equal(t, "pagado", pagada.Estado)
	assert.NotNil(t, pagada.FechaPago)

	require.Len(t, f.dispatcher.payloads, 1)
	assert.Equal(t, worker.ComprobantePayload{Tipo: worker.TipoVenta, PedidoID: v.ID}, f.dispatcher.payloads[0])

	// a paid venta is no longer pending: the next submission opens a new one
	nueva, err := f.svc.Registrar(ctx, ventaReq(f.cliente, 10, detalle(p, 1, 10, 10)))
	require.NoError(t, err)
	assert.NotEqual(t, v.ID, nueva.ID)
}

func TestActualizarEstadoVenta_Estricto(t *testing.T) {
	f := defaultVentaSvc()
	p := f.productos.add("Saco", 5)
	ctx := context.Background()
	v, err := f.svc.Registrar(ctx, ventaReq(f.cliente, 10, detalle(p, 1, 10, 10)))
	require.NoError(t, err)
	id := uuid.MustParse(v.ID)

	_, err = f.svc.ActualizarEstado(ctx, id, "perdido")
	require.ErrorIs(t, err, service.ErrValidacion)

	_, err = f.svc.ActualizarEstado(ctx, id, "")
	require.ErrorIs(t, err, service.ErrValidacion)

	_, err = f.svc.ActualizarEstado(ctx, id, "pagado")
	require.NoError(t, err)

	_, err = f.svc.ActualizarEstado(ctx, id, "pagado")
	require.ErrorIs(t, err, service.ErrTransicionInvalida)
	assert.ErrorIs(t, err, service.ErrConflicto)

	_, err = f.svc.ActualizarEstado(ctx, uuid.New(), "pagado")
	require.ErrorIs(t, err, service.ErrNoEncontrado)
}

func TestActualizarEstadoVenta_Permisivo(t *testing.T) {
	f := buildVentaSvc(ventaOpts{permitirNegativo: true, estrictos: false})
	p := f.productos.add("Saco", 5)
	ctx := context.Background()
	v, err := f.svc.Registrar(ctx, ventaReq(f.cliente, 10, detalle(p, 1, 10, 10)))
	require.NoError(t, err)

	r, err := f.svc.ActualizarEstado(ctx, uuid.MustParse(v.ID), "en_revision")
	require.NoError(t, err)
	assert.Equal(t, "en_revision", r.Estado)
	assert.Nil(t, r.FechaPago)
	assert.Empty(t, f.dispatcher.payloads)

	_, err = f.svc.ActualizarEstado(ctx, uuid.MustParse(v.ID), "un_estado_demasiado_largo_para_la_columna")
	require.ErrorIs(t, err, service.ErrValidacion)
}

func TestActualizarEstadoVenta_DispatcherFallaNoAborta(t *testing.T) {
	f := defaultVentaSvc()
	f.dispatcher.err = assert.AnError
	p := f.productos.add("Saco", 5)
	ctx := context.Background()
	v, err := f.svc.Registrar(ctx, ventaReq(f.cliente, 10, detalle(p, 1, 10, 10)))
	require.NoError(t, err)

	r, err := f.svc.ActualizarEstado(ctx, uuid.MustParse(v.ID), "pagado")
	require.NoError(t, err)
	assert.Equal(t, "pagado", r.Estado)
}

func TestEliminarVenta_RestauraStock(t *testing.T) {
	f := defaultVentaSvc()
	a := f.productos.add("A", 10)
	b := f.productos.add("B", 4)
	ctx := context.Background()

	v, err := f.svc.Registrar(ctx, ventaReq(f.cliente, 70, detalle(a, 2, 10, 20), detalle(b, 5, 10, 50)))
	require.NoError(t, err)
	assert.Equal(t, 8, f.productos.stock(a.ID))
	assert.Equal(t, -1, f.productos.stock(b.ID))

	require.NoError(t, f.svc.Eliminar(ctx, uuid.MustParse(v.ID)))
	assert.Equal(t, 10, f.productos.stock(a.ID))
	assert.Equal(t, 4, f.productos.stock(b.ID))
	assert.Empty(t, f.ventas.ventas)
	assert.Equal(t, []string{
		model.MovimientoVenta, model.MovimientoVenta,
		model.MovimientoRestoreEliminacion, model.MovimientoRestoreEliminacion,
	}, f.movimientos.tipos())

	err = f.svc.Eliminar(ctx, uuid.MustParse(v.ID))
	require.ErrorIs(t, err, service.ErrNoEncontrado)
}

func TestEliminarVenta_BloqueaClienteVentaYProductos(t *testing.T) {
	f := defaultVentaSvc()
	a := f.productos.add("A", 10)
	b := f.productos.add("B", 10)
	ctx := context.Background()

	v, err := f.svc.Registrar(ctx, ventaReq(f.cliente, 30, detalle(a, 1, 10, 10), detalle(b, 2, 10, 20)))
	require.NoError(t, err)
	id := uuid.MustParse(v.ID)
	f.clientes.locks, f.productos.locks = nil, nil

	require.NoError(t, f.svc.Eliminar(ctx, id))
	assert.Equal(t, []uuid.UUID{f.cliente.ID}, f.clientes.locks)
	assert.Equal(t, []uuid.UUID{id}, f.ventas.bloqueados)
	// the ledger reads stock after the row locks, in the same order Registrar takes them
	require.Len(t, f.productos.locks, 4)
	assert.Less(t, bytes.Compare(f.productos.locks[0][:], f.productos.locks[1][:]), 0)
}

func TestActualizarEstadoVenta_BloqueaLaVenta(t *testing.T) {
	f := defaultVentaSvc()
	p := f.productos.add("Saco", 5)
	ctx := context.Background()
	v, err := f.svc.Registrar(ctx, ventaReq(f.cliente, 10, detalle(p, 1, 10, 10)))
	require.NoError(t, err)
	id := uuid.MustParse(v.ID)

	_, err = f.svc.ActualizarEstado(ctx, id, "pagado")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{id}, f.ventas.bloqueados)
	assert.Contains(t, f.clientes.locks, f.cliente.ID)

	// a second payment sees the committed state, not a stale read
	_, err = f.svc.ActualizarEstado(ctx, id, "pagado")
	require.ErrorIs(t, err, service.ErrTransicionInvalida)
	assert.Len(t, f.dispatcher.payloads, 1)
}

func TestActualizarEstadoVenta_ReabrirConOtraPendienteEsConflicto(t *testing.T) {
	f := buildVentaSvc(ventaOpts{permitirNegativo: true, estrictos: false})
	p := f.productos.add("Saco", 5)
	ctx := context.Background()
	v, err := f.svc.Registrar(ctx, ventaReq(f.cliente, 10, detalle(p, 1, 10, 10)))
	require.NoError(t, err)

	// uq_ventas_cliente_pendiente rejects the update
	f.ventas.estadoErr = gorm.ErrDuplicatedKey
	_, err = f.svc.ActualizarEstado(ctx, uuid.MustParse(v.ID), "pendiente")
	require.ErrorIs(t, err, service.ErrConflicto)
	assert.Contains(t, err.Error(), "ya tiene una venta pendiente")
}

func TestListarMovimientos_PorReferencia(t *testing.T) {
	f := defaultVentaSvc()
	p := f.productos.add("Falda", 10)
	ctx := context.Background()

	v, err := f.svc.Registrar(ctx, ventaReq(f.cliente, 20, detalle(p, 2, 10, 20)))
	require.NoError(t, err)
	otra := f.clientes.add("Eva", "eva@example.com")
	_, err = f.svc.Registrar(ctx, ventaReq(otra, 10, detalle(p, 1, 10, 10)))
	require.NoError(t, err)
	_, err = f.inventario.AjustarStock(ctx, p.ID, dto.AjustarStockRequest{Delta: 3, Motivo: "conteo"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Eliminar(ctx, uuid.MustParse(v.ID)))

	resp, err := f.inventario.ListarMovimientos(ctx, dto.MovimientoFilter{ReferenciaID: v.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)
	tipos := make([]string, 0, len(resp.Data))
	for _, m := range resp.Data {
		require.NotNil(t, m.ReferenciaID)
		assert.Equal(t, v.ID, *m.ReferenciaID)
		tipos = append(tipos, m.Tipo)
	}
	assert.ElementsMatch(t, []string{model.MovimientoVenta, model.MovimientoRestoreEliminacion}, tipos)

	_, err = f.inventario.ListarMovimientos(ctx, dto.MovimientoFilter{ReferenciaID: "42"})
	require.ErrorIs(t, err, service.ErrValidacion)
}

func TestListarVentasPorCliente(t *testing.T) {
	f := defaultVentaSvc()
	p := f.productos.add("Saco", 5)
	ctx := context.Background()
	_, err := f.svc.Registrar(ctx, ventaReq(f.cliente, 10, detalle(p, 1, 10, 10)))
	require.NoError(t, err)

	ventas, err := f.svc.ListarPorCliente(ctx, f.cliente.ID)
	require.NoError(t, err)
	assert.Len(t, ventas, 1)

	_, err = f.svc.ListarPorCliente(ctx, uuid.New())
	require.ErrorIs(t, err, service.ErrNoEncontrado)
}

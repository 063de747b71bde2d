package service_test

import (
	"context"
	"sync"
	"time"

	"vestibox/internal/dto"
	"vestibox/internal/model"
	"vestibox/internal/repository"
	"vestibox/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory repositories. DB() returns nil so runTx calls fn(nil) directly;
// there is no rollback, tests that need it live in the integration suite.

// ── Clientes ──────────────────────────────────────────────────────────────────

type stubClienteRepo struct {
	clientes map[uuid.UUID]*model.Cliente
	pedidos  map[uuid.UUID]int64
	locks    []uuid.UUID
}

func newStubClienteRepo() *stubClienteRepo {
	return &stubClienteRepo{
		clientes: make(map[uuid.UUID]*model.Cliente),
		pedidos:  make(map[uuid.UUID]int64),
	}
}

func (r *stubClienteRepo) add(nombre, email string) *model.Cliente {
	c := &model.Cliente{ID: uuid.New(), Nombre: nombre, Email: email, Activo: true, FechaCreacion: time.Now()}
	r.clientes[c.ID] = c
	return c
}

func (r *stubClienteRepo) Create(_ context.Context, c *model.Cliente) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.clientes[c.ID] = c
	return nil
}

func (r *stubClienteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	c, ok := r.clientes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubClienteRepo) FindByEmail(_ context.Context, email string) (*model.Cliente, error) {
	for _, c := range r.clientes {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubClienteRepo) List(_ context.Context, _, _ int) ([]model.Cliente, error) {
	out := make([]model.Cliente, 0, len(r.clientes))
	for _, c := range r.clientes {
		out = append(out, *c)
	}
	return out, nil
}

func (r *stubClienteRepo) Update(_ context.Context, c *model.Cliente) error {
	r.clientes[c.ID] = c
	return nil
}

func (r *stubClienteRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.clientes[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.clientes, id)
	return nil
}

func (r *stubClienteRepo) CountPedidos(_ context.Context, id uuid.UUID) (int64, error) {
	return r.pedidos[id], nil
}

func (r *stubClienteRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Cliente, error) {
	r.locks = append(r.locks, id)
	return r.FindByID(context.Background(), id)
}

var _ repository.ClienteRepository = (*stubClienteRepo)(nil)

// ── Productos ─────────────────────────────────────────────────────────────────

type stubProductoRepo struct {
	productos map[uuid.UUID]*model.Producto
	locks     []uuid.UUID
	deleteErr error
	// alLeer runs before FindByID reads, standing in for a concurrent writer.
	alLeer func()
}

func newStubProductoRepo() *stubProductoRepo {
	return &stubProductoRepo{productos: make(map[uuid.UUID]*model.Producto)}
}

func (r *stubProductoRepo) add(nombre string, stock int) *model.Producto {
	p := &model.Producto{
		ID:             uuid.New(),
		Nombre:         nombre,
		PrecioVenta:    decimal.NewFromInt(50),
		PrecioAlquiler: decimal.NewFromInt(20),
		Stock:          stock,
		Talla:          "M",
		Color:          "Negro",
	}
	r.productos[p.ID] = p
	return p
}

func (r *stubProductoRepo) stock(id uuid.UUID) int { return r.productos[id].Stock }

func (r *stubProductoRepo) Create(_ context.Context, p *model.Producto) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.productos[p.ID] = p
	return nil
}

func (r *stubProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	if r.alLeer != nil {
		r.alLeer()
	}
	p, ok := r.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductoRepo) List(_ context.Context, _, _ int) ([]model.Producto, error) {
	out := make([]model.Producto, 0, len(r.productos))
	for _, p := range r.productos {
		out = append(out, *p)
	}
	return out, nil
}

func (r *stubProductoRepo) Update(_ context.Context, p *model.Producto) error {
	actual, ok := r.productos[p.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *p
	cp.Stock = actual.Stock
	r.productos[p.ID] = &cp
	return nil
}

func (r *stubProductoRepo) Delete(_ context.Context, id uuid.UUID) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.productos[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.productos, id)
	return nil
}

func (r *stubProductoRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	r.locks = append(r.locks, id)
	return r.FindByID(context.Background(), id)
}

func (r *stubProductoRepo) UpdateStockTx(_ *gorm.DB, id uuid.UUID, delta int) error {
	p, ok := r.productos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Stock += delta
	return nil
}

func (r *stubProductoRepo) DB() *gorm.DB { return nil }

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

// ── Movimientos de stock ──────────────────────────────────────────────────────

type stubMovimientoRepo struct {
	movimientos []model.MovimientoStock
}

func (r *stubMovimientoRepo) CreateTx(_ *gorm.DB, m *model.MovimientoStock) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *stubMovimientoRepo) List(_ context.Context, f repository.MovimientoStockFilter) ([]model.MovimientoStock, int64, error) {
	var out []model.MovimientoStock
	for _, m := range r.movimientos {
		if f.ProductoID != nil && m.ProductoID != *f.ProductoID {
			continue
		}
		if f.ReferenciaID != nil && (m.ReferenciaID == nil || *m.ReferenciaID != *f.ReferenciaID) {
			continue
		}
		if f.Tipo != "" && m.Tipo != f.Tipo {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

func (r *stubMovimientoRepo) tipos() []string {
	out := make([]string, 0, len(r.movimientos))
	for _, m := range r.movimientos {
		out = append(out, m.Tipo)
	}
	return out
}

var _ repository.MovimientoStockRepository = (*stubMovimientoRepo)(nil)

// ── Alquileres ────────────────────────────────────────────────────────────────

type stubAlquilerRepo struct {
	alquileres map[uuid.UUID]*model.Alquiler
	bloqueados []uuid.UUID
	estadoErr  error
}

func newStubAlquilerRepo() *stubAlquilerRepo {
	return &stubAlquilerRepo{alquileres: make(map[uuid.UUID]*model.Alquiler)}
}

func (r *stubAlquilerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Alquiler, error) {
	return r.FindByIDTx(nil, id)
}

func (r *stubAlquilerRepo) List(_ context.Context, _, _ int) ([]model.Alquiler, error) {
	out := make([]model.Alquiler, 0, len(r.alquileres))
	for _, a := range r.alquileres {
		out = append(out, *a)
	}
	return out, nil
}

func (r *stubAlquilerRepo) ListByCliente(_ context.Context, clienteID uuid.UUID) ([]model.Alquiler, error) {
	var out []model.Alquiler
	for _, a := range r.alquileres {
		if a.ClienteID == clienteID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *stubAlquilerRepo) FindPendienteTx(_ *gorm.DB, clienteID uuid.UUID) (*model.Alquiler, error) {
	for _, a := range r.alquileres {
		if a.ClienteID == clienteID && a.Estado == model.EstadoPendiente {
			return a, nil
		}
	}
	return nil, nil
}

func (r *stubAlquilerRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Alquiler, error) {
	a, ok := r.alquileres[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (r *stubAlquilerRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Alquiler, error) {
	r.bloqueados = append(r.bloqueados, id)
	return r.FindByIDTx(tx, id)
}

func (r *stubAlquilerRepo) CreateTx(_ *gorm.DB, a *model.Alquiler) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.FechaCreacion = time.Now()
	r.alquileres[a.ID] = a
	return nil
}

func (r *stubAlquilerRepo) CreateDetallesTx(_ *gorm.DB, detalles []model.DetalleAlquiler) error {
	for _, d := range detalles {
		a, ok := r.alquileres[d.AlquilerID]
		if !ok {
			return gorm.ErrForeignKeyViolated
		}
		d.ID = uuid.New()
		a.Detalles = append(a.Detalles, d)
	}
	return nil
}

func (r *stubAlquilerRepo) UpdateTotalTx(_ *gorm.DB, id uuid.UUID, total decimal.Decimal) error {
	r.alquileres[id].Total = total
	return nil
}

func (r *stubAlquilerRepo) UpdateEstadoTx(_ *gorm.DB, id uuid.UUID, estado model.EstadoPedido, fechaDevolucion *time.Time) error {
	if r.estadoErr != nil {
		return r.estadoErr
	}
	a := r.alquileres[id]
	a.Estado = estado
	if fechaDevolucion != nil {
		a.FechaDevolucion = fechaDevolucion
	}
	return nil
}

func (r *stubAlquilerRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	if _, ok := r.alquileres[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.alquileres, id)
	return nil
}

func (r *stubAlquilerRepo) DB() *gorm.DB { return nil }

var _ repository.AlquilerRepository = (*stubAlquilerRepo)(nil)

// ── Ventas ────────────────────────────────────────────────────────────────────

type stubVentaRepo struct {
	ventas     map[uuid.UUID]*model.Venta
	bloqueados []uuid.UUID
	estadoErr  error
}

func newStubVentaRepo() *stubVentaRepo {
	return &stubVentaRepo{ventas: make(map[uuid.UUID]*model.Venta)}
}

func (r *stubVentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Venta, error) {
	return r.FindByIDTx(nil, id)
}

func (r *stubVentaRepo) List(_ context.Context, _, _ int) ([]model.Venta, error) {
	out := make([]model.Venta, 0, len(r.ventas))
	for _, v := range r.ventas {
		out = append(out, *v)
	}
	return out, nil
}

func (r *stubVentaRepo) ListByCliente(_ context.Context, clienteID uuid.UUID) ([]model.Venta, error) {
	var out []model.Venta
	for _, v := range r.ventas {
		if v.ClienteID == clienteID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (r *stubVentaRepo) FindPendienteTx(_ *gorm.DB, clienteID uuid.UUID) (*model.Venta, error) {
	for _, v := range r.ventas {
		if v.ClienteID == clienteID && v.Estado == model.EstadoPendiente {
			return v, nil
		}
	}
	return nil, nil
}

func (r *stubVentaRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Venta, error) {
	v, ok := r.ventas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

func (r *stubVentaRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Venta, error) {
	r.bloqueados = append(r.bloqueados, id)
	return r.FindByIDTx(tx, id)
}

func (r *stubVentaRepo) CreateTx(_ *gorm.DB, v *model.Venta) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.FechaCreacion = time.Now()
	r.ventas[v.ID] = v
	return nil
}

func (r *stubVentaRepo) CreateDetallesTx(_ *gorm.DB, detalles []model.DetalleVenta) error {
	for _, d := range detalles {
		v, ok := r.ventas[d.VentaID]
		if !ok {
			return gorm.ErrForeignKeyViolated
		}
		d.ID = uuid.New()
		v.Detalles = append(v.Detalles, d)
	}
	return nil
}

func (r *stubVentaRepo) UpdateTotalTx(_ *gorm.DB, id uuid.UUID, total decimal.Decimal) error {
	r.ventas[id].Total = total
	return nil
}

func (r *stubVentaRepo) UpdateEstadoTx(_ *gorm.DB, id uuid.UUID, estado model.EstadoPedido, fechaPago *time.Time) error {
	if r.estadoErr != nil {
		return r.estadoErr
	}
	v := r.ventas[id]
	v.Estado = estado
	if fechaPago != nil {
		v.FechaPago = fechaPago
	}
	return nil
}

func (r *stubVentaRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	if _, ok := r.ventas[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.ventas, id)
	return nil
}

func (r *stubVentaRepo) DB() *gorm.DB { return nil }

var _ repository.VentaRepository = (*stubVentaRepo)(nil)

// ── Colaboradores opcionales ──────────────────────────────────────────────────

type stubCache struct {
	mu          sync.Mutex
	entries     map[uuid.UUID]dto.ProductoResponse
	versiones   map[uuid.UUID]int64
	invalidados []uuid.UUID
}

func newStubCache() *stubCache {
	return &stubCache{
		entries:   make(map[uuid.UUID]dto.ProductoResponse),
		versiones: make(map[uuid.UUID]int64),
	}
}

func (c *stubCache) Get(_ context.Context, id uuid.UUID) (*dto.ProductoResponse, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[id]
	if !ok {
		return nil, c.versiones[id], false
	}
	return &p, c.versiones[id], true
}

func (c *stubCache) Set(_ context.Context, p *dto.ProductoResponse, version int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := uuid.MustParse(p.ID)
	if c.versiones[id] != version {
		return
	}
	c.entries[id] = *p
}

func (c *stubCache) Invalidate(_ context.Context, ids ...uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.entries, id)
		c.versiones[id]++
	}
	c.invalidados = append(c.invalidados, ids...)
}

type stubDispatcher struct {
	payloads []worker.ComprobantePayload
	err      error
}

func (d *stubDispatcher) EnqueueComprobante(_ context.Context, p worker.ComprobantePayload) error {
	d.payloads = append(d.payloads, p)
	return d.err
}

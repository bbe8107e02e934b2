package service

import (
	"context"
	"sync"

	"tallerpro/internal/model"
	"tallerpro/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory repository stubs. They mirror the semantics the services rely
// on: owner scoping, gorm.ErrRecordNotFound for misses, version
// compare-and-increment, and a mutex-guarded conditional decrement so the
// concurrency tests exercise a true atomic check-and-set.

// ── RepuestoRepository stub ──────────────────────────────────────────────────

type stubRepuestoRepo struct {
	mu        sync.Mutex
	repuestos map[uuid.UUID]*model.Repuesto
}

func newStubRepuestoRepo() *stubRepuestoRepo {
	return &stubRepuestoRepo{repuestos: make(map[uuid.UUID]*model.Repuesto)}
}

func (r *stubRepuestoRepo) Create(_ context.Context, rep *model.Repuesto) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	copia := *rep
	r.repuestos[rep.ID] = &copia
	return nil
}

func (r *stubRepuestoRepo) FindByID(_ context.Context, usuarioID, id uuid.UUID) (*model.Repuesto, error) {
	return r.lookup(usuarioID, id)
}

func (r *stubRepuestoRepo) FindByCodigo(_ context.Context, usuarioID uuid.UUID, codigo string) (*model.Repuesto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rep := range r.repuestos {
		if rep.UsuarioID == usuarioID && rep.Codigo == codigo {
			copia := *rep
			return &copia, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubRepuestoRepo) List(_ context.Context, usuarioID uuid.UUID, _ repository.RepuestoFilter) ([]model.Repuesto, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Repuesto
	for _, rep := range r.repuestos {
		if rep.UsuarioID == usuarioID {
			out = append(out, *rep)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubRepuestoRepo) ListBajoStock(_ context.Context, usuarioID uuid.UUID) ([]model.Repuesto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Repuesto
	for _, rep := range r.repuestos {
		if rep.UsuarioID == usuarioID && rep.Stock < rep.StockMinimo {
			out = append(out, *rep)
		}
	}
	return out, nil
}

func (r *stubRepuestoRepo) Update(_ context.Context, rep *model.Repuesto) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copia := *rep
	r.repuestos[rep.ID] = &copia
	return nil
}

func (r *stubRepuestoRepo) Delete(_ context.Context, usuarioID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.repuestos[id]
	if !ok || rep.UsuarioID != usuarioID {
		return gorm.ErrRecordNotFound
	}
	delete(r.repuestos, id)
	return nil
}

// TryDescontarStock is the serialization point under test: the precondition
// and the decrement run under one lock, like the single UPDATE in Postgres.
func (r *stubRepuestoRepo) TryDescontarStock(_ context.Context, _ *gorm.DB, usuarioID, id uuid.UUID, cantidad int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.repuestos[id]
	if !ok || rep.UsuarioID != usuarioID || rep.Stock < cantidad {
		return false, nil
	}
	rep.Stock -= cantidad
	return true, nil
}

func (r *stubRepuestoRepo) ReponerStock(_ context.Context, _ *gorm.DB, usuarioID, id uuid.UUID, cantidad int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.repuestos[id]
	if !ok || rep.UsuarioID != usuarioID {
		return gorm.ErrRecordNotFound
	}
	rep.Stock += cantidad
	return nil
}

func (r *stubRepuestoRepo) FindByIDTx(_ *gorm.DB, usuarioID, id uuid.UUID) (*model.Repuesto, error) {
	return r.lookup(usuarioID, id)
}

func (r *stubRepuestoRepo) DB() *gorm.DB { return nil }

func (r *stubRepuestoRepo) lookup(usuarioID, id uuid.UUID) (*model.Repuesto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.repuestos[id]
	if !ok || rep.UsuarioID != usuarioID {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *rep
	return &copia, nil
}

func (r *stubRepuestoRepo) stockDe(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.repuestos[id].Stock
}

var _ repository.RepuestoRepository = (*stubRepuestoRepo)(nil)

// ── PresupuestoRepository stub ───────────────────────────────────────────────

type stubPresupuestoRepo struct {
	mu           sync.Mutex
	presupuestos map[uuid.UUID]*model.Presupuesto
}

func newStubPresupuestoRepo() *stubPresupuestoRepo {
	return &stubPresupuestoRepo{presupuestos: make(map[uuid.UUID]*model.Presupuesto)}
}

func copiaPresupuesto(p *model.Presupuesto) *model.Presupuesto {
	copia := *p
	copia.Items = append([]model.PresupuestoItem(nil), p.Items...)
	return &copia
}

func (r *stubPresupuestoRepo) Create(_ context.Context, _ *gorm.DB, p *model.Presupuesto) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	for i := range p.Items {
		if p.Items[i].ID == uuid.Nil {
			p.Items[i].ID = uuid.New()
		}
		p.Items[i].PresupuestoID = p.ID
	}
	r.presupuestos[p.ID] = copiaPresupuesto(p)
	return nil
}

func (r *stubPresupuestoRepo) FindByID(_ context.Context, usuarioID, id uuid.UUID) (*model.Presupuesto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.presupuestos[id]
	if !ok || p.UsuarioID != usuarioID {
		return nil, gorm.ErrRecordNotFound
	}
	return copiaPresupuesto(p), nil
}

func (r *stubPresupuestoRepo) List(_ context.Context, usuarioID uuid.UUID, _ repository.PresupuestoFilter) ([]model.Presupuesto, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Presupuesto
	for _, p := range r.presupuestos {
		if p.UsuarioID == usuarioID {
			out = append(out, *copiaPresupuesto(p))
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubPresupuestoRepo) UpdateVersioned(_ context.Context, _ *gorm.DB, p *model.Presupuesto, expectedVersion int, replaceItems bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.presupuestos[p.ID]
	if !ok || stored.UsuarioID != p.UsuarioID || stored.Version != expectedVersion {
		return false, nil
	}
	stored.ClienteID = p.ClienteID
	stored.VehiculoID = p.VehiculoID
	stored.Estado = p.Estado
	stored.Subtotal = p.Subtotal
	stored.Descuento = p.Descuento
	stored.Total = p.Total
	stored.Notas = p.Notas
	stored.Version = expectedVersion + 1
	if replaceItems {
		for i := range p.Items {
			if p.Items[i].ID == uuid.Nil {
				p.Items[i].ID = uuid.New()
			}
			p.Items[i].PresupuestoID = p.ID
		}
		stored.Items = append([]model.PresupuestoItem(nil), p.Items...)
	}
	p.Version = expectedVersion + 1
	return true, nil
}

func (r *stubPresupuestoRepo) Delete(_ context.Context, usuarioID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.presupuestos[id]
	if !ok || p.UsuarioID != usuarioID {
		return gorm.ErrRecordNotFound
	}
	delete(r.presupuestos, id)
	return nil
}

func (r *stubPresupuestoRepo) DB() *gorm.DB { return nil }

var _ repository.PresupuestoRepository = (*stubPresupuestoRepo)(nil)

// ── OrdenRepository stub ─────────────────────────────────────────────────────

type stubOrdenRepo struct {
	mu      sync.Mutex
	ordenes map[uuid.UUID]*model.OrdenTrabajo
}

func newStubOrdenRepo() *stubOrdenRepo {
	return &stubOrdenRepo{ordenes: make(map[uuid.UUID]*model.OrdenTrabajo)}
}

func copiaOrden(o *model.OrdenTrabajo) *model.OrdenTrabajo {
	copia := *o
	copia.Items = append([]model.OrdenItem(nil), o.Items...)
	return &copia
}

func (r *stubOrdenRepo) Create(_ context.Context, _ *gorm.DB, o *model.OrdenTrabajo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	for i := range o.Items {
		if o.Items[i].ID == uuid.Nil {
			o.Items[i].ID = uuid.New()
		}
		o.Items[i].OrdenID = o.ID
	}
	r.ordenes[o.ID] = copiaOrden(o)
	return nil
}

func (r *stubOrdenRepo) FindByID(_ context.Context, usuarioID, id uuid.UUID) (*model.OrdenTrabajo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.ordenes[id]
	if !ok || o.UsuarioID != usuarioID {
		return nil, gorm.ErrRecordNotFound
	}
	return copiaOrden(o), nil
}

func (r *stubOrdenRepo) List(_ context.Context, usuarioID uuid.UUID, _ repository.OrdenFilter) ([]model.OrdenTrabajo, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.OrdenTrabajo
	for _, o := range r.ordenes {
		if o.UsuarioID == usuarioID {
			out = append(out, *copiaOrden(o))
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubOrdenRepo) UpdateVersioned(_ context.Context, _ *gorm.DB, o *model.OrdenTrabajo, expectedVersion int, replaceItems bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.ordenes[o.ID]
	if !ok || stored.UsuarioID != o.UsuarioID || stored.Version != expectedVersion {
		return false, nil
	}
	stored.ClienteID = o.ClienteID
	stored.VehiculoID = o.VehiculoID
	stored.Estado = o.Estado
	stored.Subtotal = o.Subtotal
	stored.Descuento = o.Descuento
	stored.Total = o.Total
	stored.Notas = o.Notas
	stored.Version = expectedVersion + 1
	if replaceItems {
		for i := range o.Items {
			if o.Items[i].ID == uuid.Nil {
				o.Items[i].ID = uuid.New()
			}
			o.Items[i].OrdenID = o.ID
		}
		stored.Items = append([]model.OrdenItem(nil), o.Items...)
	}
	o.Version = expectedVersion + 1
	return true, nil
}

func (r *stubOrdenRepo) Delete(_ context.Context, _ *gorm.DB, usuarioID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.ordenes[id]
	if !ok || o.UsuarioID != usuarioID {
		return gorm.ErrRecordNotFound
	}
	delete(r.ordenes, id)
	return nil
}

func (r *stubOrdenRepo) DB() *gorm.DB { return nil }

func (r *stubOrdenRepo) cantidad() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ordenes)
}

var _ repository.OrdenRepository = (*stubOrdenRepo)(nil)

// ── HistorialRepository stub ─────────────────────────────────────────────────

type stubHistorialRepo struct {
	mu       sync.Mutex
	entradas []model.HistorialEstado
	failNext bool
}

func newStubHistorialRepo() *stubHistorialRepo { return &stubHistorialRepo{} }

func (r *stubHistorialRepo) Create(_ context.Context, h *model.HistorialEstado) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext {
		r.failNext = false
		return gorm.ErrInvalidDB
	}
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	r.entradas = append(r.entradas, *h)
	return nil
}

func (r *stubHistorialRepo) List(_ context.Context, usuarioID uuid.UUID, filter repository.HistorialFilter) ([]model.HistorialEstado, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.HistorialEstado
	for _, e := range r.entradas {
		if e.UsuarioID != usuarioID {
			continue
		}
		if filter.EntidadID != nil && e.EntidadID != *filter.EntidadID {
			continue
		}
		if filter.EntidadTipo != "" && e.EntidadTipo != filter.EntidadTipo {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

func (r *stubHistorialRepo) deEntidad(id uuid.UUID) []model.HistorialEstado {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.HistorialEstado
	for _, e := range r.entradas {
		if e.EntidadID == id {
			out = append(out, e)
		}
	}
	return out
}

var _ repository.HistorialRepository = (*stubHistorialRepo)(nil)

// ── MovimientoStockRepository stub ───────────────────────────────────────────

type stubMovimientoRepo struct {
	mu          sync.Mutex
	movimientos []model.MovimientoStock
}

func newStubMovimientoRepo() *stubMovimientoRepo { return &stubMovimientoRepo{} }

func (r *stubMovimientoRepo) Create(_ context.Context, m *model.MovimientoStock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *stubMovimientoRepo) CreateTx(_ *gorm.DB, m *model.MovimientoStock) error {
	return r.Create(context.Background(), m)
}

func (r *stubMovimientoRepo) List(_ context.Context, usuarioID uuid.UUID, filter repository.MovimientoStockFilter) ([]model.MovimientoStock, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.MovimientoStock
	for _, m := range r.movimientos {
		if m.UsuarioID != usuarioID {
			continue
		}
		if filter.RepuestoID != nil && m.RepuestoID != *filter.RepuestoID {
			continue
		}
		if filter.Tipo != "" && m.Tipo != filter.Tipo {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

var _ repository.MovimientoStockRepository = (*stubMovimientoRepo)(nil)

// ── Cliente / Vehiculo stubs ─────────────────────────────────────────────────

type stubClienteRepo struct {
	mu       sync.Mutex
	clientes map[uuid.UUID]*model.Cliente
}

func newStubClienteRepo() *stubClienteRepo {
	return &stubClienteRepo{clientes: make(map[uuid.UUID]*model.Cliente)}
}

func (r *stubClienteRepo) Create(_ context.Context, c *model.Cliente) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	copia := *c
	r.clientes[c.ID] = &copia
	return nil
}

func (r *stubClienteRepo) FindByID(_ context.Context, usuarioID, id uuid.UUID) (*model.Cliente, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clientes[id]
	if !ok || c.UsuarioID != usuarioID {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *c
	return &copia, nil
}

func (r *stubClienteRepo) List(_ context.Context, usuarioID uuid.UUID, _ repository.ClienteFilter) ([]model.Cliente, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Cliente
	for _, c := range r.clientes {
		if c.UsuarioID == usuarioID {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubClienteRepo) Update(_ context.Context, c *model.Cliente) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copia := *c
	r.clientes[c.ID] = &copia
	return nil
}

func (r *stubClienteRepo) Delete(_ context.Context, usuarioID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clientes[id]
	if !ok || c.UsuarioID != usuarioID {
		return gorm.ErrRecordNotFound
	}
	delete(r.clientes, id)
	return nil
}

var _ repository.ClienteRepository = (*stubClienteRepo)(nil)

type stubVehiculoRepo struct {
	mu        sync.Mutex
	vehiculos map[uuid.UUID]*model.Vehiculo
}

func newStubVehiculoRepo() *stubVehiculoRepo {
	return &stubVehiculoRepo{vehiculos: make(map[uuid.UUID]*model.Vehiculo)}
}

func (r *stubVehiculoRepo) Create(_ context.Context, v *model.Vehiculo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	copia := *v
	r.vehiculos[v.ID] = &copia
	return nil
}

func (r *stubVehiculoRepo) FindByID(_ context.Context, usuarioID, id uuid.UUID) (*model.Vehiculo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehiculos[id]
	if !ok || v.UsuarioID != usuarioID {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *v
	return &copia, nil
}

func (r *stubVehiculoRepo) List(_ context.Context, usuarioID uuid.UUID, _ repository.VehiculoFilter) ([]model.Vehiculo, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Vehiculo
	for _, v := range r.vehiculos {
		if v.UsuarioID == usuarioID {
			out = append(out, *v)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubVehiculoRepo) Update(_ context.Context, v *model.Vehiculo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copia := *v
	r.vehiculos[v.ID] = &copia
	return nil
}

func (r *stubVehiculoRepo) Delete(_ context.Context, usuarioID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehiculos[id]
	if !ok || v.UsuarioID != usuarioID {
		return gorm.ErrRecordNotFound
	}
	delete(r.vehiculos, id)
	return nil
}

var _ repository.VehiculoRepository = (*stubVehiculoRepo)(nil)

// ── Seed helpers ─────────────────────────────────────────────────────────────

func seedRepuesto(repo *stubRepuestoRepo, usuarioID uuid.UUID, codigo string, stock, stockMin int) *model.Repuesto {
	rep := &model.Repuesto{
		ID:             uuid.New(),
		UsuarioID:      usuarioID,
		Codigo:         codigo,
		Nombre:         "Repuesto " + codigo,
		Stock:          stock,
		StockMinimo:    stockMin,
		PrecioUnitario: decimal.NewFromFloat(1500.00),
	}
	repo.repuestos[rep.ID] = rep
	return rep
}

func seedPresupuesto(repo *stubPresupuestoRepo, usuarioID uuid.UUID, estado string, items []model.PresupuestoItem) *model.Presupuesto {
	p := &model.Presupuesto{
		ID:        uuid.New(),
		UsuarioID: usuarioID,
		Estado:    estado,
		Version:   1,
	}
	subtotal := decimal.Zero
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		items[i].PresupuestoID = p.ID
		items[i].Subtotal = items[i].PrecioUnitario.Mul(decimal.NewFromInt(int64(items[i].Cantidad)))
		subtotal = subtotal.Add(items[i].Subtotal)
	}
	p.Items = items
	p.Subtotal = subtotal
	p.Total = subtotal
	repo.presupuestos[p.ID] = p
	return p
}

func seedOrden(repo *stubOrdenRepo, usuarioID uuid.UUID, estado string, presupuestoID *uuid.UUID, items []model.OrdenItem) *model.OrdenTrabajo {
	o := &model.OrdenTrabajo{
		ID:            uuid.New(),
		UsuarioID:     usuarioID,
		PresupuestoID: presupuestoID,
		Estado:        estado,
		Version:       1,
	}
	subtotal := decimal.Zero
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		items[i].OrdenID = o.ID
		items[i].Subtotal = items[i].PrecioUnitario.Mul(decimal.NewFromInt(int64(items[i].Cantidad)))
		subtotal = subtotal.Add(items[i].Subtotal)
	}
	o.Items = items
	o.Subtotal = subtotal
	o.Total = subtotal
	repo.ordenes[o.ID] = o
	return o
}

func strPtr(s string) *string { return &s }

func movimientoFilterTodos() repository.MovimientoStockFilter {
	return repository.MovimientoStockFilter{Page: 1, Limit: 100}
}

// entorno wires every stub behind real services, exactly like the router
// does against Postgres.
type entorno struct {
	repuestos    *stubRepuestoRepo
	presupuestos *stubPresupuestoRepo
	ordenes      *stubOrdenRepo
	movimientos  *stubMovimientoRepo
	historial    *stubHistorialRepo
	clientes     *stubClienteRepo
	vehiculos    *stubVehiculoRepo

	reservas       *ReservaCoordinator
	presupuestoSvc PresupuestoService
	ordenSvc       OrdenService
}

func nuevoEntorno() *entorno {
	e := &entorno{
		repuestos:    newStubRepuestoRepo(),
		presupuestos: newStubPresupuestoRepo(),
		ordenes:      newStubOrdenRepo(),
		movimientos:  newStubMovimientoRepo(),
		historial:    newStubHistorialRepo(),
		clientes:     newStubClienteRepo(),
		vehiculos:    newStubVehiculoRepo(),
	}
	e.reservas = NewReservaCoordinator(e.repuestos, e.movimientos, nil)
	historialSvc := NewHistorialService(e.historial)
	e.presupuestoSvc = NewPresupuestoService(e.presupuestos, e.repuestos, e.clientes, e.vehiculos, e.reservas, historialSvc)
	e.ordenSvc = NewOrdenService(e.ordenes, e.presupuestos, e.repuestos, e.clientes, e.vehiculos, e.reservas, historialSvc)
	return e
}

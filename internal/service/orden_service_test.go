package service

import (
	"context"
	"testing"

	"tallerpro/internal/apierror"
	"tallerpro/internal/dto"
	"tallerpro/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrearOrdenDirectaReservaStock(t *testing.T) {
	e := nuevoEntorno()
	uid := uuid.New()
	rep := seedRepuesto(e.repuestos, uid, "FIL-001", 10, 2)

	resp, err := e.ordenSvc.Crear(context.Background(), uid, dto.CrearOrdenRequest{
		Items: []dto.ItemRequest{
			{Tipo: model.ItemRepuesto, RepuestoID: strPtr(rep.ID.String()), Cantidad: 4},
			{Tipo: model.ItemManoObra, Descripcion: "Instalacion", Cantidad: 1, PrecioUnitario: decimal.NewFromInt(3000)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, model.EstadoOrdenPendiente, resp.Estado)
	assert.Nil(t, resp.PresupuestoID)
	assert.Equal(t, 6, e.repuestos.stockDe(rep.ID))
	assert.True(t, resp.Subtotal.Equal(decimal.NewFromInt(9000)), "subtotal = 4×1500 + 3000")
}

func TestCrearOrdenDirectaEsTodoONada(t *testing.T) {
	e := nuevoEntorno()
	uid := uuid.New()
	filtro := seedRepuesto(e.repuestos, uid, "FIL-001", 10, 2)
	bujia := seedRepuesto(e.repuestos, uid, "BUJ-004", 2, 1)

	_, err := e.ordenSvc.Crear(context.Background(), uid, dto.CrearOrdenRequest{
		Items: []dto.ItemRequest{
			{Tipo: model.ItemRepuesto, RepuestoID: strPtr(filtro.ID.String()), Cantidad: 4},
			{Tipo: model.ItemRepuesto, RepuestoID: strPtr(bujia.ID.String()), Cantidad: 5},
		},
	})

	var ae *apierror.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apierror.CodeInsufficientStock, ae.Code)
	require.NotNil(t, ae.Stock)
	assert.Equal(t, "BUJ-004", ae.Stock.Codigo)

	// Nada quedó a medias: ni orden creada ni stock comprometido.
	assert.Equal(t, 0, e.ordenes.cantidad())
	assert.Equal(t, 10, e.repuestos.stockDe(filtro.ID))
	assert.Equal(t, 2, e.repuestos.stockDe(bujia.ID))
}

func TestCrearOrdenDirectaSinItems(t *testing.T) {
	e := nuevoEntorno()

	_, err := e.ordenSvc.Crear(context.Background(), uuid.New(), dto.CrearOrdenRequest{})

	assert.ErrorContains(t, err, "requiere al menos un item")
}

func TestCrearOrdenDesdePresupuestoNoReservaDeNuevo(t *testing.T) {
	e := nuevoEntorno()
	uid := uuid.New()
	rep := seedRepuesto(e.repuestos, uid, "FIL-001", 10, 2)
	p := seedPresupuesto(e.presupuestos, uid, model.EstadoPresupuestoPendiente, []model.PresupuestoItem{
		{Tipo: model.ItemRepuesto, RepuestoID: &rep.ID, Descripcion: rep.Nombre, Cantidad: 4, PrecioUnitario: rep.PrecioUnitario},
	})

	_, err := e.presupuestoSvc.CambiarEstado(context.Background(), uid, uid, p.ID,
		dto.CambiarEstadoPresupuestoRequest{Estado: model.EstadoPresupuestoAprobado, Version: 1})
	require.NoError(t, err)
	require.Equal(t, 6, e.repuestos.stockDe(rep.ID))

	resp, err := e.ordenSvc.Crear(context.Background(), uid, dto.CrearOrdenRequest{
		PresupuestoID: strPtr(p.ID.String()),
	})
	require.NoError(t, err)

	// El stock se reservó al aprobar; generar la orden no vuelve a descontar.
	assert.Equal(t, 6, e.repuestos.stockDe(rep.ID))
	require.NotNil(t, resp.PresupuestoID)
	assert.Equal(t, p.ID.String(), *resp.PresupuestoID)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 4, resp.Items[0].Cantidad)
	assert.True(t, resp.Subtotal.Equal(decimal.NewFromInt(6000)))
}

func TestCrearOrdenDesdePresupuestoPendienteSeRechaza(t *testing.T) {
	e := nuevoEntorno()
	uid := uuid.New()
	p := seedPresupuesto(e.presupuestos, uid, model.EstadoPresupuestoPendiente, nil)

	_, err := e.ordenSvc.Crear(context.Background(), uid, dto.CrearOrdenRequest{
		PresupuestoID: strPtr(p.ID.String()),
	})

	assert.ErrorContains(t, err, "Solo un presupuesto aprobado puede generar una orden")
}

func TestCrearOrdenDesdePresupuestoNoAceptaItemsPropios(t *testing.T) {
	e := nuevoEntorno()
	uid := uuid.New()
	p := seedPresupuesto(e.presupuestos, uid, model.EstadoPresupuestoAprobado, nil)

	_, err := e.ordenSvc.Crear(context.Background(), uid, dto.CrearOrdenRequest{
		PresupuestoID: strPtr(p.ID.String()),
		Items: []dto.ItemRequest{
			{Tipo: model.ItemManoObra, Descripcion: "Extra", Cantidad: 1, PrecioUnitario: decimal.NewFromInt(500)},
		},
	})

	assert.ErrorContains(t, err, "toma los items del presupuesto")
}

func TestOrdenCompletadaEsInmutable(t *testing.T) {
	e := nuevoEntorno()
	uid := uuid.New()
	o := seedOrden(e.ordenes, uid, model.EstadoOrdenCompletada, nil, nil)

	_, err := e.ordenSvc.Actualizar(context.Background(), uid, o.ID,
		dto.ActualizarOrdenRequest{Notas: strPtr("nota"), Version: 1})
	assert.ErrorContains(t, err, "completada y es inmutable")

	_, err = e.ordenSvc.CambiarEstado(context.Background(), uid, uid, o.ID,
		dto.CambiarEstadoOrdenRequest{Estado: model.EstadoOrdenCancelada, Version: 1})
	assert.ErrorContains(t, err, "completada y es inmutable")

	err = e.ordenSvc.Eliminar(context.Background(), uid, o.ID)
	assert.ErrorContains(t, err, "completada y es inmutable")
	assert.Equal(t, 1, e.ordenes.cantidad())
}

func TestOrdenDirectaNoPermiteCambiarRepuestos(t *testing.T) {
	e := nuevoEntorno()
	uid := uuid.New()
	rep := seedRepuesto(e.repuestos, uid, "FIL-001", 10, 2)

	resp, err := e.ordenSvc.Crear(context.Background(), uid, dto.CrearOrdenRequest{
		Items: []dto.ItemRequest{
			{Tipo: model.ItemRepuesto, RepuestoID: strPtr(rep.ID.String()), Cantidad: 4},
			{Tipo: model.ItemManoObra, Descripcion: "Instalacion", Cantidad: 1, PrecioUnitario: decimal.NewFromInt(3000)},
		},
	})
	require.NoError(t, err)
	oid := uuid.MustParse(resp.ID)

	_, err = e.ordenSvc.Actualizar(context.Background(), uid, oid, dto.ActualizarOrdenRequest{
		Items: []dto.ItemRequest{
			{Tipo: model.ItemRepuesto, RepuestoID: strPtr(rep.ID.String()), Cantidad: 6},
			{Tipo: model.ItemManoObra, Descripcion: "Instalacion", Cantidad: 1, PrecioUnitario: decimal.NewFromInt(3000)},
		},
		Version: 1,
	})
	assert.ErrorContains(t, err, "no pueden modificarse")
	assert.Equal(t, 6, e.repuestos.stockDe(rep.ID))
}

func TestOrdenDirectaToleraItemsReordenados(t *testing.T) {
	e := nuevoEntorno()
	uid := uuid.New()
	rep := seedRepuesto(e.repuestos, uid, "FIL-001", 10, 2)

	resp, err := e.ordenSvc.Crear(context.Background(), uid, dto.CrearOrdenRequest{
		Items: []dto.ItemRequest{
			{Tipo: model.ItemRepuesto, RepuestoID: strPtr(rep.ID.String()), Cantidad: 4},
			{Tipo: model.ItemManoObra, Descripcion: "Instalacion", Cantidad: 1, PrecioUnitario: decimal.NewFromInt(3000)},
		},
	})
	require.NoError(t, err)
	oid := uuid.MustParse(resp.ID)

	// Misma composición en otro orden: no es un cambio.
	actualizado, err := e.ordenSvc.Actualizar(context.Background(), uid, oid, dto.ActualizarOrdenRequest{
		Items: []dto.ItemRequest{
			{Tipo: model.ItemManoObra, Descripcion: "Instalacion", Cantidad: 1, PrecioUnitario: decimal.NewFromInt(3000)},
			{Tipo: model.ItemRepuesto, RepuestoID: strPtr(rep.ID.String()), Cantidad: 4},
		},
		Notas:   strPtr("turno de la tarde"),
		Version: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, actualizado.Version)
	assert.Equal(t, 6, e.repuestos.stockDe(rep.ID))
}

func TestOrdenDesdePresupuestoPermiteEditarItems(t *testing.T) {
	e := nuevoEntorno()
	uid := uuid.New()
	rep := seedRepuesto(e.repuestos, uid, "FIL-001", 10, 2)
	pid := uuid.New()
	o := seedOrden(e.ordenes, uid, model.EstadoOrdenPendiente, &pid, []model.OrdenItem{
		{Tipo: model.ItemRepuesto, RepuestoID: &rep.ID, Descripcion: rep.Nombre, Cantidad: 4, PrecioUnitario: rep.PrecioUnitario},
	})

	resp, err := e.ordenSvc.Actualizar(context.Background(), uid, o.ID, dto.ActualizarOrdenRequest{
		Items: []dto.ItemRequest{
			{Tipo: model.ItemManoObra, Descripcion: "Solo mano de obra", Cantidad: 2, PrecioUnitario: decimal.NewFromInt(2500)},
		},
		Version: 1,
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.True(t, resp.Subtotal.Equal(decimal.NewFromInt(5000)))
}

func TestCambiarEstadoOrdenRegistraCadaTransicion(t *testing.T) {
	e := nuevoEntorno()
	uid := uuid.New()
	actor := uuid.New()
	o := seedOrden(e.ordenes, uid, model.EstadoOrdenPendiente, nil, nil)

	_, err := e.ordenSvc.CambiarEstado(context.Background(), uid, actor, o.ID,
		dto.CambiarEstadoOrdenRequest{Estado: model.EstadoOrdenEnProceso, Version: 1})
	require.NoError(t, err)

	resp, err := e.ordenSvc.CambiarEstado(context.Background(), uid, actor, o.ID,
		dto.CambiarEstadoOrdenRequest{Estado: model.EstadoOrdenCompletada, Version: 2})
	require.NoError(t, err)
	assert.Equal(t, model.EstadoOrdenCompletada, resp.Estado)

	entradas := e.historial.deEntidad(o.ID)
	require.Len(t, entradas, 2)
	assert.Equal(t, model.EstadoOrdenPendiente, entradas[0].EstadoAnterior)
	assert.Equal(t, model.EstadoOrdenEnProceso, entradas[0].EstadoNuevo)
	assert.Equal(t, model.EstadoOrdenEnProceso, entradas[1].EstadoAnterior)
	assert.Equal(t, model.EstadoOrdenCompletada, entradas[1].EstadoNuevo)
}

func TestCambiarEstadoOrdenMismoEstadoEsNoOp(t *testing.T) {
	e := nuevoEntorno()
	uid := uuid.New()
	o := seedOrden(e.ordenes, uid, model.EstadoOrdenEnProceso, nil, nil)

	resp, err := e.ordenSvc.CambiarEstado(context.Background(), uid, uid, o.ID,
		dto.CambiarEstadoOrdenRequest{Estado: model.EstadoOrdenEnProceso, Version: 99})
	require.NoError(t, err)

	assert.Equal(t, model.EstadoOrdenEnProceso, resp.Estado)
	assert.Equal(t, 1, resp.Version)
	assert.Empty(t, e.historial.deEntidad(o.ID))
}

func TestCancelarOrdenNoReponeStock(t *testing.T) {
	e := nuevoEntorno()
	uid := uuid.New()
	rep := seedRepuesto(e.repuestos, uid, "FIL-001", 10, 2)

	resp, err := e.ordenSvc.Crear(context.Background(), uid, dto.CrearOrdenRequest{
		Items: []dto.ItemRequest{
			{Tipo: model.ItemRepuesto, RepuestoID: strPtr(rep.ID.String()), Cantidad: 4},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 6, e.repuestos.stockDe(rep.ID))

	_, err = e.ordenSvc.CambiarEstado(context.Background(), uid, uid, uuid.MustParse(resp.ID),
		dto.CambiarEstadoOrdenRequest{Estado: model.EstadoOrdenCancelada, Version: 1})
	require.NoError(t, err)

	// La reposición es un ajuste manual explícito, no un efecto de cancelar.
	assert.Equal(t, 6, e.repuestos.stockDe(rep.ID))
}

func TestCambiarEstadoOrdenConVersionViejaEsConflicto(t *testing.T) {
	e := nuevoEntorno()
	uid := uuid.New()
	o := seedOrden(e.ordenes, uid, model.EstadoOrdenPendiente, nil, nil)

	_, err := e.ordenSvc.CambiarEstado(context.Background(), uid, uid, o.ID,
		dto.CambiarEstadoOrdenRequest{Estado: model.EstadoOrdenEnProceso, Version: 3})

	var ae *apierror.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apierror.CodeConflict, ae.Code)
	assert.Empty(t, e.historial.deEntidad(o.ID))

	almacenada, ferr := e.ordenes.FindByID(context.Background(), uid, o.ID)
	require.NoError(t, ferr)
	assert.Equal(t, model.EstadoOrdenPendiente, almacenada.Estado)
}

func TestOrdenDeOtroUsuarioEsNoEncontrada(t *testing.T) {
	e := nuevoEntorno()
	propietario := uuid.New()
	o := seedOrden(e.ordenes, propietario, model.EstadoOrdenPendiente, nil, nil)

	_, err := e.ordenSvc.Obtener(context.Background(), uuid.New(), o.ID)

	var ae *apierror.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apierror.CodeNotFound, ae.Code)
}

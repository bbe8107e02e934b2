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

func TestCrearPresupuestoCalculaTotalesDelLadoServidor(t *testing.T) {
	e := nuevoEntorno()
	uid := uuid.New()
	rep := seedRepuesto(e.repuestos, uid, "FIL-001", 10, 2) // precio 1500.00

	resp, err := e.presupuestoSvc.Crear(context.Background(), uid, dto.CrearPresupuestoRequest{
		Items: []dto.ItemRequest{
			{Tipo: model.ItemRepuesto, RepuestoID: strPtr(rep.ID.String()), Cantidad: 2,
				// El precio del cliente se ignora: manda el snapshot del inventario.
				PrecioUnitario: decimal.NewFromInt(1)},
			{Tipo: model.ItemManoObra, Descripcion: "Cambio de filtro", Cantidad: 1,
				PrecioUnitario: decimal.NewFromInt(5000)},
		},
		Descuento: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	assert.Equal(t, model.EstadoPresupuestoPendiente, resp.Estado)
	assert.Equal(t, 1, resp.Version)
	assert.True(t, resp.Subtotal.Equal(decimal.NewFromInt(8000)), "subtotal = 2×1500 + 5000")
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(7000)))
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "Repuesto FIL-001", resp.Items[0].Descripcion)
	assert.True(t, resp.Items[0].PrecioUnitario.Equal(decimal.NewFromInt(1500)))
}

func TestCrearPresupuestoRechazaDescuentoMayorAlSubtotal(t *testing.T) {
	e := nuevoEntorno()
	uid := uuid.New()

	_, err := e.presupuestoSvc.Crear(context.Background(), uid, dto.CrearPresupuestoRequest{
		Items: []dto.ItemRequest{
			{Tipo: model.ItemManoObra, Descripcion: "Diagnostico", Cantidad: 1, PrecioUnitario: decimal.NewFromInt(2000)},
		},
		Descuento: decimal.NewFromInt(3000),
	})

	var ae *apierror.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apierror.CodeValidation, ae.Code)
}

func TestAprobarPresupuestoReservaStockYRegistraHistorial(t *testing.T) {
	e := nuevoEntorno()
	uid := uuid.New()
	actor := uuid.New()
	rep := seedRepuesto(e.repuestos, uid, "FIL-001", 10, 2)
	p := seedPresupuesto(e.presupuestos, uid, model.EstadoPresupuestoPendiente, []model.PresupuestoItem{
		{Tipo: model.ItemRepuesto, RepuestoID: &rep.ID, Descripcion: rep.Nombre, Cantidad: 4, PrecioUnitario: rep.PrecioUnitario},
	})

	resp, err := e.presupuestoSvc.CambiarEstado(context.Background(), uid, actor, p.ID,
		dto.CambiarEstadoPresupuestoRequest{Estado: model.EstadoPresupuestoAprobado, Version: 1})
	require.NoError(t, err)

	assert.Equal(t, model.EstadoPresupuestoAprobado, resp.Estado)
	assert.Equal(t, 6, e.repuestos.stockDe(rep.ID))

	entradas := e.historial.deEntidad(p.ID)
	require.Len(t, entradas, 1)
	assert.Equal(t, model.EntidadPresupuesto, entradas[0].EntidadTipo)
	assert.Equal(t, model.EstadoPresupuestoPendiente, entradas[0].EstadoAnterior)
	assert.Equal(t, model.EstadoPresupuestoAprobado, entradas[0].EstadoNuevo)
	assert.Equal(t, actor, entradas[0].ActorID)
}

func TestAprobarPresupuestoEsIdempotente(t *testing.T) {
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

	// Repetir la aprobación responde OK sin reservar de nuevo ni duplicar
	// historial, incluso con la versión vieja.
	resp, err := e.presupuestoSvc.CambiarEstado(context.Background(), uid, uid, p.ID,
		dto.CambiarEstadoPresupuestoRequest{Estado: model.EstadoPresupuestoAprobado, Version: 1})
	require.NoError(t, err)
	assert.Equal(t, model.EstadoPresupuestoAprobado, resp.Estado)
	assert.Equal(t, 6, e.repuestos.stockDe(rep.ID))
	assert.Len(t, e.historial.deEntidad(p.ID), 1)

	movs, total, err := e.movimientos.List(context.Background(), uid, movimientoFilterTodos())
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, model.MovimientoReserva, movs[0].Tipo)
}

func TestAprobarPresupuestoSinStockRestauraElEstado(t *testing.T) {
	e := nuevoEntorno()
	uid := uuid.New()
	rep := seedRepuesto(e.repuestos, uid, "BUJ-004", 3, 1)
	p := seedPresupuesto(e.presupuestos, uid, model.EstadoPresupuestoPendiente, []model.PresupuestoItem{
		{Tipo: model.ItemRepuesto, RepuestoID: &rep.ID, Descripcion: rep.Nombre, Cantidad: 5, PrecioUnitario: rep.PrecioUnitario},
	})

	_, err := e.presupuestoSvc.CambiarEstado(context.Background(), uid, uid, p.ID,
		dto.CambiarEstadoPresupuestoRequest{Estado: model.EstadoPresupuestoAprobado, Version: 1})

	var ae *apierror.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apierror.CodeInsufficientStock, ae.Code)
	require.NotNil(t, ae.Stock)
	assert.Equal(t, "BUJ-004", ae.Stock.Codigo)
	assert.Equal(t, 3, ae.Stock.Disponible)
	assert.Equal(t, 5, ae.Stock.Solicitado)

	assert.Equal(t, 3, e.repuestos.stockDe(rep.ID))
	almacenado, ferr := e.presupuestos.FindByID(context.Background(), uid, p.ID)
	require.NoError(t, ferr)
	assert.Equal(t, model.EstadoPresupuestoPendiente, almacenado.Estado)
	assert.Empty(t, e.historial.deEntidad(p.ID))
}

func TestCambiarEstadoPresupuestoConVersionViejaEsConflicto(t *testing.T) {
	e := nuevoEntorno()
	uid := uuid.New()
	p := seedPresupuesto(e.presupuestos, uid, model.EstadoPresupuestoPendiente, nil)

	_, err := e.presupuestoSvc.CambiarEstado(context.Background(), uid, uid, p.ID,
		dto.CambiarEstadoPresupuestoRequest{Estado: model.EstadoPresupuestoRechazado, Version: 7})

	var ae *apierror.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apierror.CodeConflict, ae.Code)
	assert.Empty(t, e.historial.deEntidad(p.ID))
}

func TestRechazarPresupuestoNoTocaStock(t *testing.T) {
	e := nuevoEntorno()
	uid := uuid.New()
	rep := seedRepuesto(e.repuestos, uid, "FIL-001", 10, 2)
	p := seedPresupuesto(e.presupuestos, uid, model.EstadoPresupuestoPendiente, []model.PresupuestoItem{
		{Tipo: model.ItemRepuesto, RepuestoID: &rep.ID, Descripcion: rep.Nombre, Cantidad: 4, PrecioUnitario: rep.PrecioUnitario},
	})

	resp, err := e.presupuestoSvc.CambiarEstado(context.Background(), uid, uid, p.ID,
		dto.CambiarEstadoPresupuestoRequest{Estado: model.EstadoPresupuestoRechazado, Version: 1})
	require.NoError(t, err)

	assert.Equal(t, model.EstadoPresupuestoRechazado, resp.Estado)
	assert.Equal(t, 10, e.repuestos.stockDe(rep.ID))
	assert.Len(t, e.historial.deEntidad(p.ID), 1)
}

func TestTransicionDesdeEstadoTerminalEsInvalida(t *testing.T) {
	e := nuevoEntorno()
	uid := uuid.New()
	p := seedPresupuesto(e.presupuestos, uid, model.EstadoPresupuestoRechazado, nil)

	_, err := e.presupuestoSvc.CambiarEstado(context.Background(), uid, uid, p.ID,
		dto.CambiarEstadoPresupuestoRequest{Estado: model.EstadoPresupuestoAprobado, Version: 1})

	var ae *apierror.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apierror.CodeValidation, ae.Code)
}

func TestActualizarPresupuestoAprobadoSeRechaza(t *testing.T) {
	e := nuevoEntorno()
	uid := uuid.New()
	p := seedPresupuesto(e.presupuestos, uid, model.EstadoPresupuestoAprobado, nil)

	_, err := e.presupuestoSvc.Actualizar(context.Background(), uid, p.ID,
		dto.ActualizarPresupuestoRequest{Notas: strPtr("nota"), Version: 1})

	assert.ErrorContains(t, err, "Solo un presupuesto pendiente puede modificarse")
}

func TestEliminarPresupuestoAprobadoSeRechaza(t *testing.T) {
	e := nuevoEntorno()
	uid := uuid.New()
	aprobado := seedPresupuesto(e.presupuestos, uid, model.EstadoPresupuestoAprobado, nil)
	pendiente := seedPresupuesto(e.presupuestos, uid, model.EstadoPresupuestoPendiente, nil)

	err := e.presupuestoSvc.Eliminar(context.Background(), uid, aprobado.ID)
	assert.ErrorContains(t, err, "aprobado no puede eliminarse")

	require.NoError(t, e.presupuestoSvc.Eliminar(context.Background(), uid, pendiente.ID))
	_, err = e.presupuestoSvc.Obtener(context.Background(), uid, pendiente.ID)
	var ae *apierror.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apierror.CodeNotFound, ae.Code)
}

func TestPresupuestoDeOtroUsuarioEsNoEncontrado(t *testing.T) {
	e := nuevoEntorno()
	propietario := uuid.New()
	intruso := uuid.New()
	p := seedPresupuesto(e.presupuestos, propietario, model.EstadoPresupuestoPendiente, nil)

	_, err := e.presupuestoSvc.Obtener(context.Background(), intruso, p.ID)

	var ae *apierror.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apierror.CodeNotFound, ae.Code)
}

func TestCrearPresupuestoConClienteInexistente(t *testing.T) {
	e := nuevoEntorno()
	uid := uuid.New()

	_, err := e.presupuestoSvc.Crear(context.Background(), uid, dto.CrearPresupuestoRequest{
		ClienteID: strPtr(uuid.NewString()),
		Items: []dto.ItemRequest{
			{Tipo: model.ItemManoObra, Descripcion: "Diagnostico", Cantidad: 1, PrecioUnitario: decimal.NewFromInt(2000)},
		},
	})

	var ae *apierror.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apierror.CodeNotFound, ae.Code)
}

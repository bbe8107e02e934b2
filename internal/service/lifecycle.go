package service

import (
	"fmt"
	"sort"
	"strings"

	"tallerpro/internal/apierror"
	"tallerpro/internal/model"
)

// ── Lifecycle guard ───────────────────────────────────────────────────────────
// Encodes the legal status transitions for presupuestos and órdenes and the
// mutation restrictions tied to them. All checks run BEFORE any write, so an
// illegal request produces zero side effects.

// Presupuesto: pendiente → {aprobado, rechazado}. Both are terminal.
var transicionesPresupuesto = map[string][]string{
	model.EstadoPresupuestoPendiente: {
		model.EstadoPresupuestoAprobado,
		model.EstadoPresupuestoRechazado,
	},
}

// Orden: pendiente → {en_proceso, cancelada}; en_proceso → {completada, cancelada}.
// Cancellation is allowed straight from pendiente. completada locks the order.
var transicionesOrden = map[string][]string{
	model.EstadoOrdenPendiente: {
		model.EstadoOrdenEnProceso,
		model.EstadoOrdenCancelada,
	},
	model.EstadoOrdenEnProceso: {
		model.EstadoOrdenCompletada,
		model.EstadoOrdenCancelada,
	},
}

func transicionPermitida(tabla map[string][]string, desde, hacia string) bool {
	for _, destino := range tabla[desde] {
		if destino == hacia {
			return true
		}
	}
	return false
}

// ValidarTransicionPresupuesto rejects illegal budget transitions.
// Same-state requests are the caller's responsibility (idempotent no-op).
func ValidarTransicionPresupuesto(desde, hacia string) error {
	if !transicionPermitida(transicionesPresupuesto, desde, hacia) {
		return apierror.Validation(fmt.Sprintf("Transicion de presupuesto invalida: %s → %s", desde, hacia))
	}
	return nil
}

// ValidarTransicionOrden rejects illegal order transitions.
func ValidarTransicionOrden(desde, hacia string) error {
	if desde == model.EstadoOrdenCompletada {
		return apierror.Validation("La orden esta completada y es inmutable")
	}
	if !transicionPermitida(transicionesOrden, desde, hacia) {
		return apierror.Validation(fmt.Sprintf("Transicion de orden invalida: %s → %s", desde, hacia))
	}
	return nil
}

// OrdenBloqueada reports whether the order is in its locked terminal state.
func OrdenBloqueada(o *model.OrdenTrabajo) bool {
	return o.Estado == model.EstadoOrdenCompletada
}

// EsOrdenDirecta: no originating budget means stock was committed at creation.
func EsOrdenDirecta(o *model.OrdenTrabajo) bool {
	return o.PresupuestoID == nil
}

// TieneRepuestosVinculados reports whether any line references the inventory.
func TieneRepuestosVinculados(items []model.OrdenItem) bool {
	for _, it := range items {
		if it.RepuestoID != nil {
			return true
		}
	}
	return false
}

// ItemsEquivalentes compares two item lists as multisets: reordering is NOT a
// change, any content difference (tipo, repuesto, descripcion, cantidad,
// precio) is. Used to enforce part immutability on direct orders.
func ItemsEquivalentes(a, b []model.OrdenItem) bool {
	if len(a) != len(b) {
		return false
	}
	return strings.Join(clavesItems(a), "\n") == strings.Join(clavesItems(b), "\n")
}

func clavesItems(items []model.OrdenItem) []string {
	claves := make([]string, 0, len(items))
	for _, it := range items {
		repuesto := ""
		if it.RepuestoID != nil {
			repuesto = it.RepuestoID.String()
		}
		claves = append(claves, fmt.Sprintf("%s|%s|%s|%d|%s",
			it.Tipo, repuesto, it.Descripcion, it.Cantidad, it.PrecioUnitario.String()))
	}
	sort.Strings(claves)
	return claves
}

// ValidarActualizacionOrden is the pre-write gate for order updates:
//   - a completed order rejects every update;
//   - a direct order with inventory-linked parts rejects any change to its
//     item list (a fresh order is the supported way to alter composition,
//     keeping the stock ledger an append/decrement-only model).
func ValidarActualizacionOrden(stored *model.OrdenTrabajo, nuevosItems []model.OrdenItem, itemsProvistos bool) error {
	if OrdenBloqueada(stored) {
		return apierror.Validation("La orden esta completada y es inmutable")
	}
	if itemsProvistos && EsOrdenDirecta(stored) && TieneRepuestosVinculados(stored.Items) &&
		!ItemsEquivalentes(stored.Items, nuevosItems) {
		return apierror.Validation("Los repuestos de una orden directa no pueden modificarse; cree una orden nueva")
	}
	return nil
}

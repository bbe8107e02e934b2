package service

import (
	"context"
	"errors"

	"tallerpro/internal/apierror"
	"tallerpro/internal/model"
	"tallerpro/internal/repository"
	"tallerpro/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ── Reservation coordinator ───────────────────────────────────────────────────
// The ONLY component that decides when stock moves. Both call paths — budget
// approval and direct-order creation — commit their part reservations through
// Reservar as a single logical unit: on any insufficient-stock result every
// decrement already applied is compensated with a re-increment and the caller
// receives one consolidated error naming the offending item and shortfall.
//
// When the caller runs Reservar inside a database transaction the rollback
// also undoes the compensation, which is harmless: the net effect is the
// same "nothing happened" either way. The explicit compensation is what keeps
// the coordinator correct when no transaction is available.

// lineaReserva is one pending stock commitment.
type lineaReserva struct {
	RepuestoID uuid.UUID
	Cantidad   int
}

// lineasReserva extracts the inventory-linked lines; lines without a
// repuesto vinculado never touch stock.
func lineasReserva(lineas []lineaResuelta) []lineaReserva {
	out := make([]lineaReserva, 0, len(lineas))
	for _, l := range lineas {
		if l.RepuestoID != nil {
			out = append(out, lineaReserva{RepuestoID: *l.RepuestoID, Cantidad: l.Cantidad})
		}
	}
	return out
}

type ReservaCoordinator struct {
	repuestos   repository.RepuestoRepository
	movimientos repository.MovimientoStockRepository
	dispatcher  *worker.Dispatcher
}

func NewReservaCoordinator(
	repuestos repository.RepuestoRepository,
	movimientos repository.MovimientoStockRepository,
	dispatcher *worker.Dispatcher,
) *ReservaCoordinator {
	return &ReservaCoordinator{repuestos: repuestos, movimientos: movimientos, dispatcher: dispatcher}
}

// Reservar atomically decrements stock for every line, in order. The atomic
// check-and-set in TryDescontarStock is the serialization point: under
// concurrent callers racing for the last units at most one succeeds per unit
// of stock. No retries — the caller aborts on failure.
func (rc *ReservaCoordinator) Reservar(ctx context.Context, tx *gorm.DB, usuarioID, referenciaID uuid.UUID, lineas []lineaReserva, motivo string) error {
	var hechas []lineaReserva

	for _, l := range lineas {
		ok, err := rc.repuestos.TryDescontarStock(ctx, tx, usuarioID, l.RepuestoID, l.Cantidad)
		if err != nil {
			rc.Revertir(ctx, tx, usuarioID, referenciaID, hechas, motivo)
			return err
		}
		if !ok {
			// Stop immediately; compensate what was already committed.
			rc.Revertir(ctx, tx, usuarioID, referenciaID, hechas, motivo)

			rep, ferr := rc.repuestos.FindByIDTx(tx, usuarioID, l.RepuestoID)
			if ferr != nil {
				if errors.Is(ferr, gorm.ErrRecordNotFound) {
					return apierror.NotFound("Repuesto no encontrado")
				}
				return ferr
			}
			return apierror.StockInsuficiente(rep.ID.String(), rep.Codigo, rep.Stock, l.Cantidad)
		}

		hechas = append(hechas, l)

		mov := &model.MovimientoStock{
			UsuarioID:    usuarioID,
			RepuestoID:   l.RepuestoID,
			Tipo:         model.MovimientoReserva,
			Cantidad:     -l.Cantidad,
			Motivo:       motivo,
			ReferenciaID: &referenciaID,
		}
		if err := rc.registrarMovimiento(ctx, tx, mov); err != nil {
			rc.Revertir(ctx, tx, usuarioID, referenciaID, hechas, motivo)
			return err
		}

		rc.alertarBajoStock(ctx, tx, usuarioID, l.RepuestoID)
	}

	return nil
}

// Revertir re-increments every already-committed line. Increments have no
// precondition (they only restore stock), so failures here are logged, not
// propagated — the original error is what the caller must see.
func (rc *ReservaCoordinator) Revertir(ctx context.Context, tx *gorm.DB, usuarioID, referenciaID uuid.UUID, hechas []lineaReserva, motivo string) {
	for _, l := range hechas {
		if err := rc.repuestos.ReponerStock(ctx, tx, usuarioID, l.RepuestoID, l.Cantidad); err != nil {
			log.Error().
				Str("repuesto_id", l.RepuestoID.String()).
				Int("cantidad", l.Cantidad).
				Err(err).
				Msg("reserva: fallo la compensacion de stock")
			continue
		}
		mov := &model.MovimientoStock{
			UsuarioID:    usuarioID,
			RepuestoID:   l.RepuestoID,
			Tipo:         model.MovimientoReposicion,
			Cantidad:     l.Cantidad,
			Motivo:       "Compensacion: " + motivo,
			ReferenciaID: &referenciaID,
		}
		if err := rc.registrarMovimiento(ctx, tx, mov); err != nil {
			log.Error().Err(err).Msg("reserva: fallo el registro del movimiento de compensacion")
		}
	}
}

func (rc *ReservaCoordinator) registrarMovimiento(ctx context.Context, tx *gorm.DB, mov *model.MovimientoStock) error {
	if tx != nil {
		return rc.movimientos.CreateTx(tx, mov)
	}
	return rc.movimientos.Create(ctx, mov)
}

// alertarBajoStock enqueues a reorder alert when the decrement left the item
// below its threshold. Best-effort: failures never affect the reservation.
func (rc *ReservaCoordinator) alertarBajoStock(ctx context.Context, tx *gorm.DB, usuarioID, repuestoID uuid.UUID) {
	if rc.dispatcher == nil {
		return
	}
	rep, err := rc.repuestos.FindByIDTx(tx, usuarioID, repuestoID)
	if err != nil {
		return
	}
	if rep.Stock >= rep.StockMinimo {
		return
	}
	payload := worker.AlertaStockPayload{
		RepuestoID:  rep.ID.String(),
		Codigo:      rep.Codigo,
		Nombre:      rep.Nombre,
		Stock:       rep.Stock,
		StockMinimo: rep.StockMinimo,
	}
	if err := rc.dispatcher.EnqueueAlertaStock(ctx, payload); err != nil {
		log.Warn().Str("codigo", rep.Codigo).Err(err).Msg("reserva: no se pudo encolar alerta de stock")
	}
}

package service

import (
	"context"
	"errors"

	"tallerpro/internal/apierror"
	"tallerpro/internal/dto"
	"tallerpro/internal/model"
	"tallerpro/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// lineaResuelta is a validated, priced line item, neutral between
// presupuestos and órdenes. For inventory-linked lines descripcion and
// precio are a snapshot of the repuesto at time of use — not a live link.
type lineaResuelta struct {
	Tipo           string
	RepuestoID     *uuid.UUID
	Descripcion    string
	Cantidad       int
	PrecioUnitario decimal.Decimal
	Subtotal       decimal.Decimal
}

// resolverItems validates the requested lines and snapshots inventory data.
// Totals are always recomputed server-side; the caller's subtotal is never
// trusted.
func resolverItems(ctx context.Context, repuestos repository.RepuestoRepository, usuarioID uuid.UUID, items []dto.ItemRequest) ([]lineaResuelta, decimal.Decimal, error) {
	resueltas := make([]lineaResuelta, 0, len(items))
	subtotal := decimal.Zero

	for _, item := range items {
		if item.Tipo == model.ItemManoObra && item.RepuestoID != nil {
			return nil, decimal.Zero, apierror.Validation("Un item de mano de obra no puede referenciar inventario")
		}

		linea := lineaResuelta{
			Tipo:           item.Tipo,
			Descripcion:    item.Descripcion,
			Cantidad:       item.Cantidad,
			PrecioUnitario: item.PrecioUnitario,
		}

		if item.RepuestoID != nil {
			rid, err := uuid.Parse(*item.RepuestoID)
			if err != nil {
				return nil, decimal.Zero, apierror.Validation("repuesto_id invalido")
			}
			rep, err := repuestos.FindByID(ctx, usuarioID, rid)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, decimal.Zero, apierror.NotFound("Repuesto no encontrado")
				}
				return nil, decimal.Zero, err
			}
			// Snapshot: description and price mirror the item at time of use
			linea.RepuestoID = &rep.ID
			linea.Descripcion = rep.Nombre
			linea.PrecioUnitario = rep.PrecioUnitario
		} else if linea.Descripcion == "" {
			return nil, decimal.Zero, apierror.Validation("descripcion es requerida para items sin repuesto vinculado")
		}

		linea.Subtotal = linea.PrecioUnitario.Mul(decimal.NewFromInt(int64(linea.Cantidad)))
		subtotal = subtotal.Add(linea.Subtotal)
		resueltas = append(resueltas, linea)
	}

	return resueltas, subtotal, nil
}

func aPresupuestoItems(lineas []lineaResuelta) []model.PresupuestoItem {
	items := make([]model.PresupuestoItem, 0, len(lineas))
	for _, l := range lineas {
		items = append(items, model.PresupuestoItem{
			Tipo:           l.Tipo,
			RepuestoID:     l.RepuestoID,
			Descripcion:    l.Descripcion,
			Cantidad:       l.Cantidad,
			PrecioUnitario: l.PrecioUnitario,
			Subtotal:       l.Subtotal,
		})
	}
	return items
}

func aOrdenItems(lineas []lineaResuelta) []model.OrdenItem {
	items := make([]model.OrdenItem, 0, len(lineas))
	for _, l := range lineas {
		items = append(items, model.OrdenItem{
			Tipo:           l.Tipo,
			RepuestoID:     l.RepuestoID,
			Descripcion:    l.Descripcion,
			Cantidad:       l.Cantidad,
			PrecioUnitario: l.PrecioUnitario,
			Subtotal:       l.Subtotal,
		})
	}
	return items
}

// validarTotales checks descuento ≥ 0 and descuento ≤ subtotal, and returns
// total = subtotal − descuento.
func validarTotales(subtotal, descuento decimal.Decimal) (decimal.Decimal, error) {
	if descuento.IsNegative() {
		return decimal.Zero, apierror.Validation("El descuento no puede ser negativo")
	}
	if descuento.GreaterThan(subtotal) {
		return decimal.Zero, apierror.Validation("El descuento no puede superar el subtotal")
	}
	return subtotal.Sub(descuento), nil
}

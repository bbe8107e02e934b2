package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"tallerpro/internal/infra"

	"github.com/rs/zerolog/log"
)

// AlertaStockPayload describes a repuesto that fell below its reorder
// threshold after a reservation or manual adjustment.
type AlertaStockPayload struct {
	RepuestoID  string `json:"repuesto_id"`
	Codigo      string `json:"codigo"`
	Nombre      string `json:"nombre"`
	Stock       int    `json:"stock"`
	StockMinimo int    `json:"stock_minimo"`
}

// AlertaHandler sends reorder alert emails. SMTP calls go through the circuit
// breaker so a dead mail server fast-fails instead of blocking workers.
type AlertaHandler struct {
	mailer       *infra.Mailer
	cb           *infra.CircuitBreaker
	destinatario string
}

func NewAlertaHandler(mailer *infra.Mailer, cb *infra.CircuitBreaker, destinatario string) *AlertaHandler {
	return &AlertaHandler{mailer: mailer, cb: cb, destinatario: destinatario}
}

func (h *AlertaHandler) Handle(_ context.Context, job Job) error {
	var p AlertaStockPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		log.Error().Err(err).Msg("alerta_stock: invalid payload")
		return nil // malformed payloads are not retryable
	}

	if h.destinatario == "" {
		log.Debug().Str("codigo", p.Codigo).Msg("alerta_stock: no ALERT_EMAIL configured, skipping")
		return nil
	}

	subject := fmt.Sprintf("Stock bajo: %s (%s)", p.Nombre, p.Codigo)
	body := fmt.Sprintf(
		"El repuesto %s (%s) quedo con stock %d, por debajo del minimo %d.\nReponer a la brevedad.",
		p.Nombre, p.Codigo, p.Stock, p.StockMinimo)

	return h.cb.Execute(func() error {
		return h.mailer.Send(h.destinatario, subject, body)
	})
}

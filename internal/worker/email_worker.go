package worker

// email_worker.go
// Processes jobs from QueueEmail. Delivery goes through a circuit breaker so
// a dead relay fails fast instead of holding every worker on SMTP timeouts.

import (
	"context"
	"encoding/json"
	"fmt"

	"vestibox/internal/infra"

	"github.com/rs/zerolog/log"
)

type EmailPayload struct {
	Para    string `json:"para"`
	Asunto  string `json:"asunto"`
	Cuerpo  string `json:"cuerpo"`
	Adjunto string `json:"adjunto,omitempty"`
}

// Sender delivers one message. *infra.Mailer satisfies it.
type Sender interface {
	Enviar(msg infra.Mensaje) error
}

type EmailWorker struct {
	mailer Sender
	cb     *infra.CircuitBreaker
}

func NewEmailWorker(mailer Sender, cb *infra.CircuitBreaker) *EmailWorker {
	return &EmailWorker{mailer: mailer, cb: cb}
}

func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload EmailPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("%w: invalid payload: %v", ErrPermanente, err)
	}
	if payload.Para == "" {
		log.Ctx(ctx).Warn().Msg("email_worker: empty recipient, skipping")
		return nil
	}

	msg := infra.Mensaje{
		Para:    payload.Para,
		Asunto:  payload.Asunto,
		Cuerpo:  payload.Cuerpo,
		Adjunto: payload.Adjunto,
	}
	if err := w.cb.Execute(func() error { return w.mailer.Enviar(msg) }); err != nil {
		return fmt.Errorf("email_worker: send to %s: %w", payload.Para, err)
	}
	log.Ctx(ctx).Info().Str("to", payload.Para).Msg("email_worker: comprobante sent")
	return nil
}

package worker

// email_worker.go
// Processes email jobs from QueueEmail: daily sales reports and critical
// stock alerts, with optional PDF attachment.

import (
	"context"
	"encoding/json"

	"restpos/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	PDFPath string `json:"pdf_path,omitempty"`
}

// EmailWorker sends mail via the configured SMTP relay.
type EmailWorker struct {
	mailer *infra.Mailer
}

func NewEmailWorker(mailer *infra.Mailer) *EmailWorker {
	return &EmailWorker{mailer: mailer}
}

func (w *EmailWorker) Process(ctx context.Context, rdb *redis.Client, raw json.RawMessage) {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		SendToDLQ(ctx, rdb, QueueEmail, "email", raw, "unmarshal: "+err.Error(), 0)
		return
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email — skipping")
		return
	}

	if err := w.mailer.Send(payload.ToEmail, payload.Subject, payload.Body, payload.PDFPath); err != nil {
		log.Error().Err(err).Str("to", payload.ToEmail).Msg("email_worker: failed to send email")
		SendToDLQ(ctx, rdb, QueueEmail, "email", raw, err.Error(), 1)
		return
	}
	log.Info().Str("to", payload.ToEmail).Msg("email_worker: email sent")
}

package worker

// comanda_worker.go
// Processes kitchen/bar ticket jobs from QueueComanda: renders the thermal PDF
// into the spool directory and notifies the station channel. Transient
// failures are retried with backoff; poisoned jobs go to the DLQ.

import (
	"context"
	"encoding/json"
	"time"

	"restpos/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const comandaMaxAttempts = 3

// ComandaJobPayload is the job envelope sent to QueueComanda.
type ComandaJobPayload struct {
	OrdenID    string    `json:"orden_id"`
	MesaNumero int       `json:"mesa_numero"`
	Mesero     string    `json:"mesero"`
	Destino    string    `json:"destino"`
	SentAt     time.Time `json:"sent_at"`
	Items      []struct {
		Nombre   string `json:"nombre"`
		Cantidad int    `json:"cantidad"`
		Notas    string `json:"notas,omitempty"`
	} `json:"items"`
}

// ComandaWorker renders ticket PDFs for the print stations.
type ComandaWorker struct {
	spoolPath string
	notifier  *Notifier
}

func NewComandaWorker(spoolPath string, notifier *Notifier) *ComandaWorker {
	return &ComandaWorker{spoolPath: spoolPath, notifier: notifier}
}

func (w *ComandaWorker) Process(ctx context.Context, rdb *redis.Client, raw json.RawMessage) {
	var payload ComandaJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("comanda_worker: invalid payload")
		SendToDLQ(ctx, rdb, QueueComanda, "comanda", raw, "unmarshal: "+err.Error(), 0)
		return
	}

	ticket := infra.ComandaTicket{
		OrdenID:    payload.OrdenID,
		MesaNumero: payload.MesaNumero,
		Mesero:     payload.Mesero,
		Destino:    payload.Destino,
		SentAt:     payload.SentAt,
	}
	for _, it := range payload.Items {
		ticket.Items = append(ticket.Items, infra.ComandaItem{
			Nombre:   it.Nombre,
			Cantidad: it.Cantidad,
			Notas:    it.Notas,
		})
	}

	var path string
	var err error
	for attempt := 1; attempt <= comandaMaxAttempts; attempt++ {
		path, err = infra.GenerateComandaPDF(ticket, w.spoolPath)
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt).Str("orden_id", payload.OrdenID).
			Msg("comanda_worker: PDF generation failed, retrying")
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	if err != nil {
		SendToDLQ(ctx, rdb, QueueComanda, "comanda", raw, err.Error(), comandaMaxAttempts)
		return
	}

	w.notifier.Publish(ctx, Notificacion{
		Evento:  "comanda_nueva",
		Mensaje: "Nueva comanda para " + payload.Destino,
		RefID:   payload.OrdenID,
	}, payload.Destino)

	log.Info().
		Str("orden_id", payload.OrdenID).
		Str("destino", payload.Destino).
		Str("pdf", path).
		Msg("comanda_worker: ticket spooled")
}

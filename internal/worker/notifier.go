package worker

// notifier.go
// Push-style fan-out over Redis pub/sub. Connected clients subscribe to the
// channel for their role; the channel name is notificaciones:{rol}.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const notifChannelPrefix = "notificaciones:"

// Notificacion is the event pushed to role channels.
type Notificacion struct {
	Evento  string    `json:"evento"` // "comanda_nueva" | "orden_lista" | "stock_bajo"
	Mensaje string    `json:"mensaje"`
	RefID   string    `json:"ref_id,omitempty"`
	At      time.Time `json:"at"`
}

// Notifier publishes events to per-role channels.
type Notifier struct {
	rdb *redis.Client
}

func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish fans an event out to one or more role channels. Publish failures are
// logged, not propagated — notifications are best-effort.
func (n *Notifier) Publish(ctx context.Context, notif Notificacion, roles ...string) {
	if notif.At.IsZero() {
		notif.At = time.Now().UTC()
	}
	data, err := json.Marshal(notif)
	if err != nil {
		log.Error().Err(err).Str("evento", notif.Evento).Msg("notifier: marshal failed")
		return
	}
	for _, rol := range roles {
		if err := n.rdb.Publish(ctx, notifChannelPrefix+rol, data).Err(); err != nil {
			log.Error().Err(err).Str("rol", rol).Str("evento", notif.Evento).Msg("notifier: publish failed")
		}
	}
}

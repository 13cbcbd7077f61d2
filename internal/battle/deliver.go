package battle

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/zabege/tg-rec-bot/pkg/cache"
)

// Deliverer hands events produced outside a request (timers) to the chat
// glue. CanEditInPlace tells the glue whether it may edit the message that
// showed the previous state or has to send a new one.
type Deliverer interface {
	CanEditInPlace() bool
	Deliver(ctx context.Context, ev Event) error
}

// LogDeliverer only logs events. Used when no publisher is configured.
type LogDeliverer struct{}

func (LogDeliverer) CanEditInPlace() bool { return false }

func (LogDeliverer) Deliver(_ context.Context, ev Event) error {
	log.Info().
		Str("session_id", ev.SessionID).
		Str("location", ev.Location).
		Str("kind", ev.Kind.String()).
		Int("round", ev.Round).
		Msg("battle event")
	return nil
}

// PublishDeliverer publishes events as JSON on a per-location channel.
type PublishDeliverer struct {
	pub    cache.Publisher
	prefix string
}

func NewPublishDeliverer(pub cache.Publisher) *PublishDeliverer {
	return &PublishDeliverer{pub: pub, prefix: "battle:events:"}
}

func (d *PublishDeliverer) CanEditInPlace() bool { return false }

// Channel returns the channel events for location are published on.
func (d *PublishDeliverer) Channel(location string) string { return d.prefix + location }

func (d *PublishDeliverer) Deliver(ctx context.Context, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return d.pub.Publish(ctx, d.Channel(ev.Location), string(b))
}

package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const (
	feedChannelCollectibles = "collectibles_feed"
	feedChannelTransactions = "transactions_feed"

	feedRetryBase = time.Second
	feedRetryMax  = 30 * time.Second
)

// notification is the payload emitted by the database triggers.
type notification struct {
	Table string          `json:"table"`
	Event string          `json:"event"`
	Row   json.RawMessage `json:"row"`
}

// Feed holds a dedicated connection listening for change notifications
// and republishes them through the hub.
type Feed struct {
	databaseURL string
	hub         *Hub
	log         zerolog.Logger
}

func NewFeed(databaseURL string, hub *Hub, log zerolog.Logger) *Feed {
	return &Feed{databaseURL: databaseURL, hub: hub, log: log}
}

// Run listens until ctx is cancelled, reconnecting with capped exponential
// backoff when the connection drops.
func (f *Feed) Run(ctx context.Context) {
	delay := feedRetryBase
	for {
		err := f.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		f.log.Warn().Err(err).Dur("retry_in", delay).Msg("change feed disconnected")

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > feedRetryMax {
			delay = feedRetryMax
		}
	}
}

func (f *Feed) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, f.databaseURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	for _, ch := range []string{feedChannelCollectibles, feedChannelTransactions} {
		if _, err := conn.Exec(ctx, "LISTEN "+ch); err != nil {
			return fmt.Errorf("listen %s: %w", ch, err)
		}
	}
	f.log.Info().Msg("change feed connected")

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait: %w", err)
		}
		f.dispatch(n.Payload)
	}
}

// dispatch routes one trigger payload to its hub channels. Collectible
// changes go to the firehose channel and the per-collectible channel;
// transactions go to the owning user's channel only.
func (f *Feed) dispatch(payload string) {
	var n notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		f.log.Warn().Err(err).Msg("bad feed payload")
		return
	}

	switch n.Table {
	case "collectibles":
		f.hub.Publish(Event{Channel: "collectibles", Event: n.Event, Data: n.Row})
		var row struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(n.Row, &row); err == nil && row.ID != "" {
			f.hub.Publish(Event{Channel: "collectible:" + row.ID, Event: n.Event, Data: n.Row})
		}
	case "transactions":
		var row struct {
			UserID string `json:"user_id"`
		}
		if err := json.Unmarshal(n.Row, &row); err == nil && row.UserID != "" {
			f.hub.Publish(Event{Channel: "transactions:" + row.UserID, Event: n.Event, Data: n.Row})
		}
	default:
		f.log.Debug().Str("table", n.Table).Msg("ignoring feed event")
	}
}

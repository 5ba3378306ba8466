// Package notify carries alert events to the external messaging
// collaborator. The pipeline decides that and what to send; delivery to the
// user (email, push, chat) happens downstream of the topic.
package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Event is the payload published when an alert rule fires.
type Event struct {
	RuleID         uint      `json:"rule_id"`
	UserID         uint      `json:"user_id"`
	Game           string    `json:"game,omitempty"`
	ItemID         string    `json:"item_id"`
	Source         string    `json:"source"`
	RuleType       string    `json:"rule_type"`
	ThresholdCents int64     `json:"threshold_cents"`
	PriceCents     int64     `json:"price_cents"`
	Price          string    `json:"price"`
	ObservedAt     time.Time `json:"observed_at"`
	FiredAt        time.Time `json:"fired_at"`
}

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// LogNotifier is the fallback transport used when no brokers are
// configured: the event is logged and the scan proceeds as if delivered.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n *LogNotifier) Notify(_ context.Context, ev Event) error {
	n.Logger.Info().
		Uint("rule_id", ev.RuleID).
		Str("item_id", ev.ItemID).
		Str("rule_type", ev.RuleType).
		Int64("threshold_cents", ev.ThresholdCents).
		Int64("price_cents", ev.PriceCents).
		Msg("alert fired (log transport)")
	return nil
}

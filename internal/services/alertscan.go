package services

import (
	"context"
	"time"

	"card-tracker/internal/models"
	"card-tracker/internal/notify"
	"card-tracker/internal/pricing"

	"github.com/Rhymond/go-money"
	"github.com/rs/zerolog"
)

// ObservationReader resolves the current observation for an item from one
// allow-listed source.
type ObservationReader interface {
	LatestObservation(ctx context.Context, itemID string, source pricing.Source) (*pricing.Candidate, error)
}

// RuleStore is the scanner's view of alert rules.
type RuleStore interface {
	Active(ctx context.Context) ([]models.PriceAlertRule, error)
	Touch(ctx context.Context, ruleID uint, at time.Time) error
}

// AlertScanSummary reports one scan cycle.
type AlertScanSummary struct {
	Rules   int `json:"rules"`
	Fired   int `json:"fired"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// AlertScanner evaluates active threshold rules against the latest
// observations. A rule that stays true re-fires on every cycle; there is no
// cooldown.
type AlertScanner struct {
	rules        RuleStore
	observations ObservationReader
	notifier     notify.Notifier
	log          zerolog.Logger
	now          func() time.Time
}

func NewAlertScanner(rules RuleStore, observations ObservationReader, notifier notify.Notifier, log zerolog.Logger) *AlertScanner {
	return &AlertScanner{
		rules:        rules,
		observations: observations,
		notifier:     notifier,
		log:          log,
		now:          time.Now,
	}
}

// Run evaluates every active rule. One rule's failure never blocks the
// rest; missing or unknown-source prices skip the rule for this cycle.
func (s *AlertScanner) Run(ctx context.Context) (AlertScanSummary, error) {
	rules, err := s.rules.Active(ctx)
	if err != nil {
		return AlertScanSummary{}, err
	}

	summary := AlertScanSummary{Rules: len(rules)}
	for _, rule := range rules {
		fired, err := s.evaluate(ctx, rule)
		switch {
		case fired:
			// The notification went out even when the follow-up touch
			// failed; the rule just re-fires sooner than usual.
			summary.Fired++
			if err != nil {
				s.log.Warn().Err(err).Uint("rule_id", rule.ID).Msg("notified but failed to record trigger time")
			}
		case err != nil:
			summary.Failed++
			s.log.Error().Err(err).Uint("rule_id", rule.ID).Msg("rule evaluation failed")
		default:
			summary.Skipped++
		}
	}

	s.log.Info().
		Int("rules", summary.Rules).
		Int("fired", summary.Fired).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("alert scan complete")
	return summary, nil
}

func (s *AlertScanner) evaluate(ctx context.Context, rule models.PriceAlertRule) (bool, error) {
	source := pricing.Source(rule.Source)
	if !pricing.IsKnownSource(source) {
		// User-supplied source names outside the allow-list never reach
		// a query.
		return false, nil
	}

	obs, err := s.observations.LatestObservation(ctx, rule.TargetItemID, source)
	if err != nil {
		return false, err
	}
	if obs == nil {
		// No price this cycle is a skip, not an error.
		return false, nil
	}

	var fires bool
	switch rule.RuleType {
	case models.RuleTypeAbove:
		fires = obs.ValueCents > rule.ThresholdCents
	case models.RuleTypeBelow:
		fires = obs.ValueCents < rule.ThresholdCents
	default:
		return false, nil
	}
	if !fires {
		return false, nil
	}

	now := s.now()
	ev := notify.Event{
		RuleID:         rule.ID,
		UserID:         rule.UserID,
		Game:           rule.Game,
		ItemID:         rule.TargetItemID,
		Source:         rule.Source,
		RuleType:       rule.RuleType,
		ThresholdCents: rule.ThresholdCents,
		PriceCents:     obs.ValueCents,
		Price:          money.New(obs.ValueCents, obs.Currency).Display(),
		ObservedAt:     obs.AsOfDate,
		FiredAt:        now,
	}
	if err := s.notifier.Notify(ctx, ev); err != nil {
		return false, err
	}
	if err := s.rules.Touch(ctx, rule.ID, now); err != nil {
		return true, err
	}
	return true, nil
}

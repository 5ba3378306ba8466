package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"card-tracker/internal/models"
	"card-tracker/internal/notify"
	"card-tracker/internal/pricing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRules struct {
	rules    []models.PriceAlertRule
	touched  map[uint]time.Time
	touchErr error
}

func (f *fakeRules) Active(context.Context) ([]models.PriceAlertRule, error) {
	return f.rules, nil
}

func (f *fakeRules) Touch(_ context.Context, id uint, at time.Time) error {
	if f.touchErr != nil {
		return f.touchErr
	}
	if f.touched == nil {
		f.touched = map[uint]time.Time{}
	}
	f.touched[id] = at
	return nil
}

type fakeObservations struct {
	prices map[string]*pricing.Candidate
	errs   map[string]error
}

func obsKey(itemID string, source pricing.Source) string {
	return itemID + "|" + string(source)
}

func (f *fakeObservations) LatestObservation(_ context.Context, itemID string, source pricing.Source) (*pricing.Candidate, error) {
	key := obsKey(itemID, source)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	return f.prices[key], nil
}

type recordingNotifier struct {
	events []notify.Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, ev notify.Event) error {
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, ev)
	return nil
}

func rule(id uint, item string, source string, ruleType string, thresholdCents int64) models.PriceAlertRule {
	return models.PriceAlertRule{
		ID:             id,
		UserID:         42,
		TargetItemID:   item,
		Source:         source,
		RuleType:       ruleType,
		ThresholdCents: thresholdCents,
		Active:         true,
	}
}

func observed(item string, source pricing.Source, cents int64) *pricing.Candidate {
	return &pricing.Candidate{
		ItemID:     item,
		Source:     source,
		PriceType:  pricing.PriceTypeMarket,
		Currency:   "USD",
		AsOfDate:   day("2025-06-01"),
		ValueCents: cents,
	}
}

func TestAlertThresholds(t *testing.T) {
	tests := []struct {
		name       string
		ruleType   string
		threshold  int64
		priceCents int64
		fires      bool
	}{
		{"above fires over threshold", models.RuleTypeAbove, 10000, 15000, true},
		{"above holds at threshold", models.RuleTypeAbove, 10000, 10000, false},
		{"below holds over threshold", models.RuleTypeBelow, 10000, 15000, false},
		{"below fires under threshold", models.RuleTypeBelow, 10000, 9999, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := &fakeRules{rules: []models.PriceAlertRule{
				rule(1, "item-1", string(pricing.SourceTCGPlayer), tt.ruleType, tt.threshold),
			}}
			obs := &fakeObservations{prices: map[string]*pricing.Candidate{
				obsKey("item-1", pricing.SourceTCGPlayer): observed("item-1", pricing.SourceTCGPlayer, tt.priceCents),
			}}
			sink := &recordingNotifier{}

			summary, err := NewAlertScanner(rules, obs, sink, zerolog.Nop()).Run(context.Background())
			require.NoError(t, err)
			if tt.fires {
				assert.Equal(t, 1, summary.Fired)
				require.Len(t, sink.events, 1)
				assert.Equal(t, tt.priceCents, sink.events[0].PriceCents)
				assert.Contains(t, rules.touched, uint(1))
			} else {
				assert.Zero(t, summary.Fired)
				assert.Empty(t, sink.events)
				assert.NotContains(t, rules.touched, uint(1))
			}
		})
	}
}

func TestAlertMissingPriceNeverFires(t *testing.T) {
	rules := &fakeRules{rules: []models.PriceAlertRule{
		rule(1, "item-1", string(pricing.SourceTCGPlayer), models.RuleTypeAbove, 1),
		rule(2, "item-1", string(pricing.SourceTCGPlayer), models.RuleTypeBelow, 1<<40),
	}}
	obs := &fakeObservations{} // no prices at all
	sink := &recordingNotifier{}

	summary, err := NewAlertScanner(rules, obs, sink, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Fired)
	assert.Equal(t, 2, summary.Skipped)
	assert.Empty(t, sink.events)
}

func TestAlertUnlistedSourceIsSkipped(t *testing.T) {
	rules := &fakeRules{rules: []models.PriceAlertRule{
		rule(1, "item-1", "'); DROP TABLE price_snapshots; --", models.RuleTypeAbove, 1),
	}}
	obs := &fakeObservations{}
	sink := &recordingNotifier{}

	summary, err := NewAlertScanner(rules, obs, sink, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Empty(t, sink.events)
}

func TestAlertOneFailureDoesNotBlockTheRest(t *testing.T) {
	rules := &fakeRules{rules: []models.PriceAlertRule{
		rule(1, "item-bad", string(pricing.SourceTCGPlayer), models.RuleTypeAbove, 100),
		rule(2, "item-good", string(pricing.SourceTCGPlayer), models.RuleTypeAbove, 100),
	}}
	obs := &fakeObservations{
		prices: map[string]*pricing.Candidate{
			obsKey("item-good", pricing.SourceTCGPlayer): observed("item-good", pricing.SourceTCGPlayer, 500),
		},
		errs: map[string]error{
			obsKey("item-bad", pricing.SourceTCGPlayer): fmt.Errorf("store timeout"),
		},
	}
	sink := &recordingNotifier{}

	summary, err := NewAlertScanner(rules, obs, sink, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Fired)
	require.Len(t, sink.events, 1)
	assert.Equal(t, "item-good", sink.events[0].ItemID)
}

func TestAlertTouchFailureStillCountsAsFired(t *testing.T) {
	rules := &fakeRules{
		rules: []models.PriceAlertRule{
			rule(1, "item-1", string(pricing.SourceTCGPlayer), models.RuleTypeAbove, 100),
		},
		touchErr: fmt.Errorf("deadlock"),
	}
	obs := &fakeObservations{prices: map[string]*pricing.Candidate{
		obsKey("item-1", pricing.SourceTCGPlayer): observed("item-1", pricing.SourceTCGPlayer, 500),
	}}
	sink := &recordingNotifier{}

	summary, err := NewAlertScanner(rules, obs, sink, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Fired, "the notification was delivered")
	assert.Zero(t, summary.Failed)
	require.Len(t, sink.events, 1)
}

func TestAlertRefiresEveryCycleWhileTrue(t *testing.T) {
	// No cooldown: a rule that stays true keeps notifying each scan.
	rules := &fakeRules{rules: []models.PriceAlertRule{
		rule(1, "item-1", string(pricing.SourceTCGPlayer), models.RuleTypeAbove, 100),
	}}
	obs := &fakeObservations{prices: map[string]*pricing.Candidate{
		obsKey("item-1", pricing.SourceTCGPlayer): observed("item-1", pricing.SourceTCGPlayer, 500),
	}}
	sink := &recordingNotifier{}
	scanner := NewAlertScanner(rules, obs, sink, zerolog.Nop())

	for i := 0; i < 3; i++ {
		_, err := scanner.Run(context.Background())
		require.NoError(t, err)
	}
	assert.Len(t, sink.events, 3)
}
